package xusb

import (
	"os"
	"path/filepath"
	"time"

	"github.com/moffa90/go-astribank/xtalk"
)

// FlushTimeout bounds each read while draining stale input after a claim.
const FlushTimeout = time.Millisecond

// Config holds the bus configuration.
type Config struct {
	// Logger is used for logging operations (optional)
	Logger xtalk.Logger

	// Options are the transport tunables, usually from LoadOptions
	Options Options

	// LockPath is the file locked while scanning; empty disables locking
	LockPath string
}

func defaultConfig() Config {
	return Config{
		LockPath: filepath.Join(os.TempDir(), "astribank-xusb.lock"),
	}
}

// Option is a functional option for configuring a Bus.
type Option func(*Config)

// WithLogger sets a logger for bus and interface operations.
func WithLogger(logger xtalk.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithOptions sets the transport tunables.
func WithOptions(o Options) Option {
	return func(c *Config) {
		c.Options = o
	}
}

// WithLockPath sets the scan lock file. An empty path disables locking.
func WithLockPath(path string) Option {
	return func(c *Config) {
		c.LockPath = path
	}
}

type logger struct {
	l xtalk.Logger
}

func (l logger) debug(msg string, kv ...interface{}) {
	if l.l != nil {
		l.l.Debug(msg, kv...)
	}
}

func (l logger) info(msg string, kv ...interface{}) {
	if l.l != nil {
		l.l.Info(msg, kv...)
	}
}

func (l logger) error(msg string, kv ...interface{}) {
	if l.l != nil {
		l.l.Error(msg, kv...)
	}
}
