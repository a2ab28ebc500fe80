// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import (
	"io"
	"os"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// Level controls the minimum severity that is emitted.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Config controls logger construction.
type Config struct {
	Level     Level
	Output    io.Writer
	Timestamp bool
	// Syslog forwards a copy of every record to a remote collector.
	Syslog SyslogConfig
}

// DefaultConfig returns the standard stderr logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:     LevelInfo,
		Output:    os.Stderr,
		Timestamp: true,
		Syslog:    DefaultSyslogConfig(),
	}
}

// Logger is a leveled, key/value structured logger.
type Logger struct {
	cl *charmlog.Logger
}

func toCharmLevel(l Level) charmlog.Level {
	switch l {
	case LevelDebug:
		return charmlog.DebugLevel
	case LevelWarn:
		return charmlog.WarnLevel
	case LevelError:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

// New creates a logger from the given configuration. If the syslog block
// is enabled the output is duplicated to the collector; a broken collector
// never fails logger construction, it is reported on stderr once.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	if cfg.Syslog.Enabled {
		if w, err := NewSyslogWriter(cfg.Syslog); err == nil {
			out = io.MultiWriter(out, w)
		} else {
			charmlog.New(os.Stderr).Warn("syslog forwarding disabled", "error", err)
		}
	}

	cl := charmlog.NewWithOptions(out, charmlog.Options{
		ReportTimestamp: cfg.Timestamp,
		TimeFormat:      time.RFC3339,
		Level:           toCharmLevel(cfg.Level),
	})
	return &Logger{cl: cl}
}

// WithComponent returns a child logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{cl: l.cl.With("component", name)}
}

// With returns a child logger with the given key/value pairs attached.
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{cl: l.cl.With(keyvals...)}
}

// SetLevel changes the minimum emitted severity.
func (l *Logger) SetLevel(level Level) {
	l.cl.SetLevel(toCharmLevel(level))
}

func (l *Logger) Debug(msg string, keyvals ...any) { l.cl.Debug(msg, keyvals...) }
func (l *Logger) Info(msg string, keyvals ...any)  { l.cl.Info(msg, keyvals...) }
func (l *Logger) Warn(msg string, keyvals ...any)  { l.cl.Warn(msg, keyvals...) }
func (l *Logger) Error(msg string, keyvals ...any) { l.cl.Error(msg, keyvals...) }

var (
	defaultMu sync.RWMutex
	defaultL  = New(DefaultConfig())
)

// SetDefault replaces the process-wide default logger.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defaultL = l
	defaultMu.Unlock()
}

// Default returns the process-wide default logger.
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultL
}

func Debug(msg string, keyvals ...any) { Default().Debug(msg, keyvals...) }
func Info(msg string, keyvals ...any)  { Default().Info(msg, keyvals...) }
func Warn(msg string, keyvals ...any)  { Default().Warn(msg, keyvals...) }
func Error(msg string, keyvals ...any) { Default().Error(msg, keyvals...) }
