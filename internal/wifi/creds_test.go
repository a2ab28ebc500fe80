// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package wifi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/netman/internal/errors"
)

func TestStoreRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")

	s, err := NewStore(path)
	require.NoError(t, err)

	cred := Credential{
		SSID:        "Home",
		Security:    Security{Class: SecurityPSK},
		Passphrase:  "correcthorse",
		AutoConnect: true,
	}
	require.NoError(t, s.Upsert(cred))

	reloaded, err := NewStore(path)
	require.NoError(t, err)
	got, ok := reloaded.Lookup("Home")
	require.True(t, ok)
	assert.Equal(t, cred, got)
}

func TestStoreOneCredentialPerSSID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	s, err := NewStore(path)
	require.NoError(t, err)

	require.NoError(t, s.Upsert(Credential{SSID: "Home", Security: Security{Class: SecurityPSK}, Passphrase: "password1"}))
	require.NoError(t, s.Upsert(Credential{SSID: "Home", Security: Security{Class: SecurityPSK}, Passphrase: "password2"}))

	assert.Len(t, s.List(), 1)
	got, _ := s.Lookup("Home")
	assert.Equal(t, "password2", got.Passphrase)
}

func TestStoreFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	s, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(Credential{SSID: "Home", Security: Security{Class: SecurityPSK}, Passphrase: "password1"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestStoreRejectsInvalidCredential(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "credentials.yaml"))
	require.NoError(t, err)

	err = s.Upsert(Credential{SSID: "Home", Security: Security{Class: SecurityPSK}, Passphrase: "short"})
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.GetKind(err))
	assert.Empty(t, s.List())
}

func TestStoreDelete(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "credentials.yaml"))
	require.NoError(t, err)

	require.NoError(t, s.Upsert(Credential{SSID: "Home", Security: Security{Class: SecurityPSK}, Passphrase: "password1"}))
	require.NoError(t, s.Delete("Home"))
	_, ok := s.Lookup("Home")
	assert.False(t, ok)

	err = s.Delete("Home")
	assert.Equal(t, errors.KindNotFound, errors.GetKind(err))
}
