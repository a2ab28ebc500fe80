// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package reconcile

import (
	"os"
	"path/filepath"

	"grimm.is/netman/internal/errors"
)

// WriteUnitFile persists unit text atomically: temp file in the same
// directory, fsync, then rename over the destination. A crash at any
// point leaves either the old unit or the new one, never a partial file.
func WriteUnitFile(dir, name, contents string, mode os.FileMode) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.KindInternal, "creating unit directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, errors.KindInternal, "creating temp file for %s", name)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(contents); err != nil {
		tmp.Close()
		return errors.Wrapf(err, errors.KindInternal, "writing %s", name)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return errors.Wrapf(err, errors.KindInternal, "setting mode on %s", name)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, errors.KindInternal, "syncing %s", name)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, errors.KindInternal, "closing %s", name)
	}

	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		return errors.Wrapf(err, errors.KindInternal, "installing %s", name)
	}
	return nil
}

// ReadUnitFile returns the persisted unit text, or "" when no unit exists.
func ReadUnitFile(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, errors.KindInternal, "reading unit %s", name)
	}
	return string(data), nil
}

// RemoveUnitFile deletes a unit file. A missing file is not an error.
func RemoveUnitFile(dir, name string) error {
	err := os.Remove(filepath.Join(dir, name))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.KindInternal, "removing unit %s", name)
	}
	return nil
}
