// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package wifi

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"grimm.is/netman/internal/errors"
)

// Store persists WiFi credentials, keyed by SSID with at most one entry
// per SSID. The backing file is owner-read only.
type Store struct {
	path string

	mu    sync.Mutex
	creds map[string]Credential
}

// NewStore loads the credential store at path. A missing file is an empty
// store.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path, creds: make(map[string]Credential)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindInternal, "reading credential store %s", path)
	}

	var list []Credential
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, errors.Wrapf(err, errors.KindInternal, "parsing credential store %s", path)
	}
	for _, c := range list {
		s.creds[c.SSID] = c
	}
	return s, nil
}

// Lookup returns the credential for an SSID.
func (s *Store) Lookup(ssid string) (Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[ssid]
	return c, ok
}

// List returns all credentials ordered by SSID.
func (s *Store) List() []Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Credential, 0, len(s.creds))
	for _, c := range s.creds {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SSID < out[j].SSID })
	return out
}

// Upsert validates and saves a credential, replacing any existing entry
// for the same SSID.
func (s *Store) Upsert(c Credential) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[c.SSID] = c
	return s.persistLocked()
}

// Delete removes the credential for an SSID.
func (s *Store) Delete(ssid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.creds[ssid]; !ok {
		return errors.Errorf(errors.KindNotFound, "no credential stored for %q", ssid)
	}
	delete(s.creds, ssid)
	return s.persistLocked()
}

func (s *Store) persistLocked() error {
	list := make([]Credential, 0, len(s.creds))
	for _, c := range s.creds {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SSID < list[j].SSID })

	data, err := yaml.Marshal(list)
	if err != nil {
		return errors.Wrap(err, errors.KindInternal, "encoding credential store")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrapf(err, errors.KindInternal, "creating %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return errors.Wrap(err, errors.KindInternal, "creating temp credential file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.KindInternal, "writing credential store")
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.KindInternal, "restricting credential store")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.KindInternal, "syncing credential store")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, errors.KindInternal, "closing credential store")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrap(err, errors.KindInternal, "installing credential store")
	}
	return nil
}
