// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "/etc/systemd/network", cfg.UnitDir)
	assert.Equal(t, "/etc/wpa_supplicant", cfg.SupplicantDir)
	assert.Equal(t, 10*time.Second, cfg.ToolTimeout())
	assert.Equal(t, 20*time.Second, cfg.ScanTimeout())
	assert.Equal(t, 2*time.Second, cfg.PollInterval())
	assert.Equal(t, 5, cfg.Convergence.Attempts)
	assert.Equal(t, time.Second, cfg.ConvergenceInterval())
	assert.NoError(t, cfg.Validate())
}

func TestLoadBytes(t *testing.T) {
	src := `
unit_dir       = "/tmp/test-units"
log_level      = "debug"
scan_timeout_seconds = 30

convergence {
  attempts         = 3
  interval_seconds = 2
}
`
	cfg, err := LoadBytes("netman.hcl", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test-units", cfg.UnitDir)
	assert.Equal(t, 30*time.Second, cfg.ScanTimeout())
	assert.Equal(t, 3, cfg.Convergence.Attempts)
	assert.Equal(t, 2*time.Second, cfg.ConvergenceInterval())
	// untouched fields still defaulted
	assert.Equal(t, "/etc/wpa_supplicant", cfg.SupplicantDir)
}

func TestLoadBytes_Invalid(t *testing.T) {
	_, err := LoadBytes("netman.hcl", []byte(`log_level = "loud"`))
	require.Error(t, err)

	_, err = LoadBytes("netman.hcl", []byte(`not hcl at all {{{`))
	require.Error(t, err)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, "/etc/systemd/network", cfg.UnitDir)
}

func TestValidateBounds(t *testing.T) {
	cfg := Default()
	cfg.Convergence.Attempts = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Syslog.Enabled = true
	assert.Error(t, cfg.Validate(), "enabled syslog without host must fail")
}
