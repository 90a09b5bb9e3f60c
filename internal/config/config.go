// internal/config/config.go
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Transport TransportConfig `yaml:"transport"`
	Firmware  FirmwareConfig  `yaml:"firmware"`
	Echo      EchoConfig      `yaml:"echo"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ---- TRANSPORT ----

type TransportConfig struct {
	TimeoutMs   int    `yaml:"timeout_ms"`
	PacketSize  int    `yaml:"packet_size"` // 0 = endpoint size
	OptionsFile string `yaml:"options_file"`
	LockFile    string `yaml:"lock_file"`

	// Overrides XTALK_OPTIONS and the options file when set
	XtalkOptions *string `yaml:"xtalk_options"`
}

// ---- FIRMWARE ----

type FirmwareConfig struct {
	SegmentSize    int `yaml:"segment_size"`
	SegmentDelayMs int `yaml:"segment_delay_ms"`
}

// ---- ECHO ----

type EchoConfig struct {
	TimeoutMs        int     `yaml:"timeout_ms"`
	FlushCoefficient float64 `yaml:"flush_coefficient"`
	DefaultLaw       string  `yaml:"default_law"` // alaw | ulaw
}

// ---- LOG / METRICS ----

type LogConfig struct {
	Verbosity  int  `yaml:"verbosity"`
	DumpFrames bool `yaml:"dump_frames"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty = disabled
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Transport: TransportConfig{
			TimeoutMs:   2000,
			OptionsFile: "/etc/dahdi/xpp.conf",
		},
		Firmware: FirmwareConfig{
			SegmentSize: 255,
		},
		Echo: EchoConfig{
			TimeoutMs:        1000,
			FlushCoefficient: 2.0,
			DefaultLaw:       "alaw",
		},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
// A missing file at path yields the defaults when optional is set.
func Load(path string, optional bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	cfg, err := Parse(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML from r over the defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

func (t TransportConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutMs) * time.Millisecond
}

func (f FirmwareConfig) SegmentDelay() time.Duration {
	return time.Duration(f.SegmentDelayMs) * time.Millisecond
}

func (e EchoConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutMs) * time.Millisecond
}
