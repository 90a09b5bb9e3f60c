package firmware

import (
	"time"

	"github.com/moffa90/go-astribank/metrics"
	"github.com/moffa90/go-astribank/protocol"
)

const (
	// DefaultSegmentSize keeps a full Intel HEX data record in one segment
	DefaultSegmentSize = 255

	// MaxSegmentSize is what fits in one packet after the header and offset
	MaxSegmentSize = protocol.DefaultPacketSize - protocol.HeaderSize - 2
)

// Config holds the programmer configuration.
type Config struct {
	// ProgressCallback is called during programming to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// Metrics receives one Segment observation per segment sent
	Metrics metrics.Metrics

	// SegmentSize is the maximum image data per DEV_SEND_SEG command
	SegmentSize int

	// SegmentDelay is a pause after every segment
	SegmentDelay time.Duration

	// Version overrides the image version tag when not empty
	Version string
}

func defaultConfig() Config {
	return Config{
		Metrics:     metrics.Noop{},
		SegmentSize: DefaultSegmentSize,
	}
}

// Option is a functional option for configuring the Programmer.
type Option func(*Config)

// WithProgressCallback sets a callback function to track upload progress.
//
// Example:
//
//	prog := firmware.New(dev,
//	    firmware.WithProgressCallback(func(p firmware.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the programmer operations.
func WithLogger(logger Logger) Option {
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

// WithSegmentSize sets the maximum data size per segment.
// Values outside 1..MaxSegmentSize are ignored.
//
// Example:
//
//	prog := firmware.New(dev, firmware.WithSegmentSize(64))
func WithSegmentSize(size int) Option {
	return func(c *Config) {
		if size > 0 && size <= MaxSegmentSize {
			c.SegmentSize = size
		}
	}
}

// WithSegmentDelay sets a pause applied after each segment.
func WithSegmentDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.SegmentDelay = d
		}
	}
}

// WithVersion sets the version tag sent in DEV_SEND_START, replacing the
// one found in the image.
func WithVersion(version string) Option {
	return func(c *Config) {
		c.Version = version
	}
}
