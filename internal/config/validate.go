// internal/config/validate.go
package config

import (
	"fmt"
	"net"

	"github.com/moffa90/go-astribank/firmware"
	"github.com/moffa90/go-astribank/xusb"
)

// Validate checks configuration correctness.
// It does not mutate the configuration.
func Validate(cfg *Config) error {
	t := cfg.Transport
	if t.TimeoutMs <= 0 {
		return fmt.Errorf("transport: timeout_ms must be positive, got %d", t.TimeoutMs)
	}
	if t.PacketSize < 0 {
		return fmt.Errorf("transport: packet_size must not be negative, got %d", t.PacketSize)
	}
	if t.XtalkOptions != nil {
		if _, err := xusb.ParseOptions(*t.XtalkOptions); err != nil {
			return fmt.Errorf("transport: xtalk_options: %w", err)
		}
	}

	f := cfg.Firmware
	if f.SegmentSize < 1 || f.SegmentSize > firmware.MaxSegmentSize {
		return fmt.Errorf("firmware: segment_size must be in [1, %d], got %d", firmware.MaxSegmentSize, f.SegmentSize)
	}
	if f.SegmentDelayMs < 0 {
		return fmt.Errorf("firmware: segment_delay_ms must not be negative, got %d", f.SegmentDelayMs)
	}

	e := cfg.Echo
	if e.TimeoutMs <= 0 {
		return fmt.Errorf("echo: timeout_ms must be positive, got %d", e.TimeoutMs)
	}
	if e.FlushCoefficient < 0 {
		return fmt.Errorf("echo: flush_coefficient must not be negative, got %g", e.FlushCoefficient)
	}
	switch e.DefaultLaw {
	case "alaw", "ulaw":
	default:
		return fmt.Errorf("echo: default_law must be alaw or ulaw, got %q", e.DefaultLaw)
	}

	if cfg.Log.Verbosity < 0 {
		return fmt.Errorf("log: verbosity must not be negative, got %d", cfg.Log.Verbosity)
	}

	if addr := cfg.Metrics.Listen; addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("metrics: listen %q: %w", addr, err)
		}
	}
	return nil
}

// XusbOptions resolves the transport tunables: the xtalk_options value
// when set, otherwise the environment and the options file.
func (t TransportConfig) XusbOptions(lookupEnv func(string) (string, bool)) (xusb.Options, error) {
	if t.XtalkOptions != nil {
		return xusb.ParseOptions(*t.XtalkOptions)
	}
	return xusb.LoadOptions(lookupEnv, t.OptionsFile)
}
