package echo

import (
	"time"

	"github.com/moffa90/go-astribank/metrics"
	"github.com/moffa90/go-astribank/xtalk"
)

const (
	// DefaultTimeout is the transfer timeout of the echo path
	DefaultTimeout = 1000 * time.Millisecond

	// DefaultFlushCoefficient is the pacing delay per flushed byte, in µs
	DefaultFlushCoefficient = 2.0

	// FlushOffset is subtracted from the pacing delay
	FlushOffset = 150 * time.Microsecond

	// DefaultPacketSize is used when the transport cannot tell its own
	DefaultPacketSize = 512
)

// Config holds the buffer, bridge and loader configuration.
type Config struct {
	Logger  xtalk.Logger
	Metrics metrics.Metrics

	// Timeout applies to each transport send and to the reply receive
	Timeout time.Duration

	// FlushCoefficient scales the delay after a flush: coef*bytes - 150µs
	FlushCoefficient float64

	// PacketSize overrides the buffer capacity; 0 asks the transport
	PacketSize int
}

func defaultConfig() Config {
	return Config{
		Metrics:          metrics.Noop{},
		Timeout:          DefaultTimeout,
		FlushCoefficient: DefaultFlushCoefficient,
	}
}

// Option configures a Buffer, Bridge or Loader.
type Option func(*Config)

// WithLogger sets the logger.
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

// WithTimeout sets the transfer timeout. Non-positive values are ignored.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.Timeout = timeout
		}
	}
}

// WithFlushCoefficient sets the per-byte pacing delay in µs. Negative
// values are ignored; 0 disables pacing.
//
// Example:
//
//	loader := echo.NewLoader(xpp, echo.WithFlushCoefficient(0.3))
func WithFlushCoefficient(coef float64) Option {
	return func(c *Config) {
		if coef >= 0 {
			c.FlushCoefficient = coef
		}
	}
}

// WithPacketSize overrides the buffer capacity.
func WithPacketSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.PacketSize = size
		}
	}
}
