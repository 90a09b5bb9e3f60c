package xtalk

import (
	"time"

	"github.com/moffa90/go-astribank/metrics"
)

// DefaultTimeout is the per-transfer timeout of a new engine.
const DefaultTimeout = 2000 * time.Millisecond

// Config holds the engine configuration.
type Config struct {
	// Logger is used for logging operations (optional)
	Logger Logger

	// Metrics receives transaction counters (optional)
	Metrics metrics.Metrics

	// Timeout is applied to every transport send and receive
	Timeout time.Duration

	// PacketSize is the receive buffer size; 0 asks the transport
	PacketSize int

	// DumpFrames logs every frame sent and received at debug level
	DumpFrames bool
}

func defaultConfig() Config {
	return Config{
		Metrics: metrics.Noop{},
		Timeout: DefaultTimeout,
	}
}

// Option is a functional option for configuring an Engine.
type Option func(*Config)

// WithLogger sets a logger for engine operations.
//
// Example:
//
//	s, err := xtalk.NewSync(iface, xtalk.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.Metrics) Option {
	return func(c *Config) {
		if m != nil {
			c.Metrics = m
		}
	}
}

// WithTimeout sets the transfer timeout. Non-positive values are ignored.
//
// Example:
//
//	s, err := xtalk.NewSync(iface, xtalk.WithTimeout(500*time.Millisecond))
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.Timeout = timeout
		}
	}
}

// WithPacketSize overrides the receive buffer size reported by the transport.
func WithPacketSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.PacketSize = size
		}
	}
}

// WithFrameDump enables hex dumps of every frame at debug level.
func WithFrameDump(dump bool) Option {
	return func(c *Config) {
		c.DumpFrames = dump
	}
}
