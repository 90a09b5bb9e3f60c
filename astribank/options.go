package astribank

import (
	"time"

	"github.com/moffa90/go-astribank/metrics"
	"github.com/moffa90/go-astribank/xtalk"
	"github.com/moffa90/go-astribank/xusb"
)

// Config holds the Astribank configuration.
type Config struct {
	// Logger is passed down to the bus and both engines (optional)
	Logger xtalk.Logger

	// Metrics receives MPP transaction counters (optional)
	Metrics metrics.Metrics

	// Timeout is the MPP transfer timeout; 0 keeps xtalk.DefaultTimeout
	Timeout time.Duration

	// DumpFrames logs every MPP frame at debug level
	DumpFrames bool

	// BusOptions configure the USB bus used by Open
	BusOptions []xusb.Option
}

func defaultConfig() Config {
	return Config{
		Metrics: metrics.Noop{},
	}
}

// Option is a functional option for configuring an Astribank.
type Option func(*Config)

// WithLogger sets a logger.
func WithLogger(logger xtalk.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics sets the metrics sink. A nil sink is ignored.
func WithMetrics(m metrics.Metrics) Option {
	return func(c *Config) {
		if m != nil {
			c.Metrics = m
		}
	}
}

// WithTimeout sets the MPP transfer timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithFrameDump logs MPP frames at debug level.
func WithFrameDump(on bool) Option {
	return func(c *Config) {
		c.DumpFrames = on
	}
}

// WithBusOptions adds options for the USB bus opened by Open.
func WithBusOptions(opts ...xusb.Option) Option {
	return func(c *Config) {
		c.BusOptions = append(c.BusOptions, opts...)
	}
}

func (c Config) engineOptions() []xtalk.Option {
	opts := []xtalk.Option{
		xtalk.WithLogger(c.Logger),
		xtalk.WithMetrics(c.Metrics),
		xtalk.WithFrameDump(c.DumpFrames),
	}
	if c.Timeout > 0 {
		opts = append(opts, xtalk.WithTimeout(c.Timeout))
	}
	return opts
}
