// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"grimm.is/netman/internal/logging"
)

// DefaultConfigPath is where netman looks for its configuration when no
// --config flag is given. A missing file is not an error; defaults apply.
const DefaultConfigPath = "/etc/netman/netman.hcl"

// Config is the top-level netman configuration. Everything has a working
// default; the file only needs to exist when the defaults are wrong for
// the host.
type Config struct {
	// Directory watched by systemd-networkd for declarative units.
	// @default: "/etc/systemd/network"
	UnitDir string `hcl:"unit_dir,optional" json:"unit_dir,omitempty"`

	// Directory for generated wpa_supplicant configurations.
	// @default: "/etc/wpa_supplicant"
	SupplicantDir string `hcl:"supplicant_dir,optional" json:"supplicant_dir,omitempty"`

	// Directory for runtime artifacts (hostapd/dnsmasq configs, pid files).
	// @default: "/run/netman"
	RuntimeDir string `hcl:"runtime_dir,optional" json:"runtime_dir,omitempty"`

	// Persisted WiFi credential store.
	// @default: "/var/lib/netman/credentials.yaml"
	CredentialsFile string `hcl:"credentials_file,optional" json:"credentials_file,omitempty"`

	// Upper bound for a single external tool invocation, in seconds.
	// @default: 10
	ToolTimeoutSeconds int `hcl:"tool_timeout_seconds,optional" json:"tool_timeout_seconds,omitempty"`

	// Upper bound for a WiFi scan, in seconds. Scans are slower than other
	// tool calls and get their own budget.
	// @default: 20
	ScanTimeoutSeconds int `hcl:"scan_timeout_seconds,optional" json:"scan_timeout_seconds,omitempty"`

	// Interval between background interface state refreshes, in seconds.
	// @default: 2
	PollIntervalSeconds int `hcl:"poll_interval_seconds,optional" json:"poll_interval_seconds,omitempty"`

	// Minimum log level: debug, info, warn, error.
	// @default: "info"
	LogLevel string `hcl:"log_level,optional" json:"log_level,omitempty"`

	Convergence *ConvergenceConfig    `hcl:"convergence,block" json:"convergence,omitempty"`
	Syslog      *logging.SyslogConfig `hcl:"syslog,block" json:"syslog,omitempty"`
}

// ConvergenceConfig bounds the post-apply confirmation loop. These are
// deliberate, documented bounds rather than hidden constants.
type ConvergenceConfig struct {
	// @default: 5
	Attempts int `hcl:"attempts,optional" json:"attempts,omitempty"`
	// @default: 1
	IntervalSeconds int `hcl:"interval_seconds,optional" json:"interval_seconds,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.UnitDir == "" {
		c.UnitDir = "/etc/systemd/network"
	}
	if c.SupplicantDir == "" {
		c.SupplicantDir = "/etc/wpa_supplicant"
	}
	if c.RuntimeDir == "" {
		c.RuntimeDir = "/run/netman"
	}
	if c.CredentialsFile == "" {
		c.CredentialsFile = "/var/lib/netman/credentials.yaml"
	}
	if c.ToolTimeoutSeconds == 0 {
		c.ToolTimeoutSeconds = 10
	}
	if c.ScanTimeoutSeconds == 0 {
		c.ScanTimeoutSeconds = 20
	}
	if c.PollIntervalSeconds == 0 {
		c.PollIntervalSeconds = 2
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Convergence == nil {
		c.Convergence = &ConvergenceConfig{}
	}
	if c.Convergence.Attempts == 0 {
		c.Convergence.Attempts = 5
	}
	if c.Convergence.IntervalSeconds == 0 {
		c.Convergence.IntervalSeconds = 1
	}
	if c.Syslog == nil {
		s := logging.DefaultSyslogConfig()
		c.Syslog = &s
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.ToolTimeoutSeconds < 1 {
		return fmt.Errorf("tool_timeout_seconds must be at least 1, got %d", c.ToolTimeoutSeconds)
	}
	if c.ScanTimeoutSeconds < 1 {
		return fmt.Errorf("scan_timeout_seconds must be at least 1, got %d", c.ScanTimeoutSeconds)
	}
	if c.PollIntervalSeconds < 1 {
		return fmt.Errorf("poll_interval_seconds must be at least 1, got %d", c.PollIntervalSeconds)
	}
	if c.Convergence.Attempts < 1 {
		return fmt.Errorf("convergence attempts must be at least 1, got %d", c.Convergence.Attempts)
	}
	if c.Convergence.IntervalSeconds < 1 {
		return fmt.Errorf("convergence interval_seconds must be at least 1, got %d", c.Convergence.IntervalSeconds)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	if c.Syslog.Enabled && c.Syslog.Host == "" {
		return fmt.Errorf("syslog enabled but host is empty")
	}
	return nil
}

// Load reads configuration from path. A missing file yields the defaults;
// a present but malformed file is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.applyDefaults()
		return cfg, nil
	}

	if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return cfg, nil
}

// LoadBytes parses configuration from an in-memory buffer. The filename is
// only used for diagnostics.
func LoadBytes(filename string, src []byte) (*Config, error) {
	cfg := &Config{}
	if err := hclsimple.Decode(filename, src, nil, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) ToolTimeout() time.Duration { return time.Duration(c.ToolTimeoutSeconds) * time.Second }
func (c *Config) ScanTimeout() time.Duration { return time.Duration(c.ScanTimeoutSeconds) * time.Second }
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}
func (c *Config) ConvergenceInterval() time.Duration {
	return time.Duration(c.Convergence.IntervalSeconds) * time.Second
}

// LoggingLevel maps the configured level string onto the logging package.
func (c *Config) LoggingLevel() logging.Level {
	switch c.LogLevel {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}
