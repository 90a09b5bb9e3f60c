package echo

import (
	"context"
	"fmt"
	"os"

	"github.com/moffa90/go-astribank/xtalk"
)

// MaxChannels is the number of echo channels opened on the first TDM bus.
const MaxChannels = 128

// Second TDM bus channel range.
const (
	secondBusFirst = 8
	secondBusEnd   = 32
)

// Stream numbers of the DSP TDM interface.
type Stream uint8

const (
	StreamRin   Stream = 0
	StreamRout  Stream = 1
	StreamSin   Stream = 2
	StreamSout  Stream = 3
	StreamRin2  Stream = 4
	StreamRout2 Stream = 5
	StreamSin2  Stream = 6
	StreamSout2 Stream = 7
)

// ChannelConfig describes one echo cancellation channel to open.
type ChannelConfig struct {
	Channel  int
	Timeslot int

	// Codec is CodecUnknown on the second bus, where the chip default applies
	Codec Codec

	Rin, Rout, Sin, Sout Stream
}

// SecondBus reports whether the channel sits on the second TDM bus.
func (c ChannelConfig) SecondBus() bool {
	return c.Rin == StreamRin2
}

// ChannelPlan returns the channels a loaded DSP gets: MaxChannels on the
// first bus, channel n on span n%4 with that span's codec, followed by the
// second bus channels 8 to 31 on timeslot (n>>3)*32 + (n&7).
func ChannelPlan(specs SpanSpecs) ([]ChannelConfig, error) {
	plan := make([]ChannelConfig, 0, MaxChannels+secondBusEnd-secondBusFirst)
	for n := 0; n < MaxChannels; n++ {
		codec := specs.Codec(n % MaxSpans)
		if codec == CodecUnknown {
			return nil, fmt.Errorf("bad alaw/ulaw calculated for channel %d", n)
		}
		plan = append(plan, ChannelConfig{
			Channel:  n,
			Timeslot: n,
			Codec:    codec,
			Rin:      StreamRin,
			Rout:     StreamRout,
			Sin:      StreamSin,
			Sout:     StreamSout,
		})
	}
	for n := secondBusFirst; n < secondBusEnd; n++ {
		plan = append(plan, ChannelConfig{
			Channel:  n,
			Timeslot: (n>>3)*32 + (n & 0x07),
			Rin:      StreamRin2,
			Rout:     StreamRout2,
			Sin:      StreamSin2,
			Sout:     StreamSout2,
		})
	}
	return plan, nil
}

// ChipOpener opens the DSP through a vendor SDK. OpenChip downloads the
// image using regs for every register access; OpenChannel is then called
// once per entry of the channel plan.
type ChipOpener interface {
	OpenChip(ctx context.Context, image []byte, regs RegisterAccess) error
	OpenChannel(ctx context.Context, ch ChannelConfig) error
}

// Loader loads an echo canceller image over the XPP interface.
type Loader struct {
	bridge *Bridge
}

// NewLoader creates a loader over the XPP interface transport t.
//
// Example:
//
//	loader := echo.NewLoader(xpp, echo.WithLogger(logger))
//	specs, _ := echo.ParseSpanSpecs("*:E1", true)
//	err := loader.Load(ctx, "OCT6104E-256D.ima", specs, opener)
func NewLoader(t xtalk.Transport, opts ...Option) *Loader {
	return &Loader{bridge: NewBridge(t, opts...)}
}

// Bridge returns the register bridge.
func (l *Loader) Bridge() *Bridge {
	return l.bridge
}

// Load probes the DSP board, opens the chip with the image at path and
// opens every channel of the plan, then flushes and logs the statistics.
// When test hardware answers the version probe the chip is not opened.
func (l *Loader) Load(ctx context.Context, path string, specs SpanSpecs, opener ChipOpener) error {
	buf := l.bridge.buf
	buf.logInfo(fmt.Sprintf("Loading ECHOCAN Firmware: %s (default %s)", path, specs.Default))
	buf.Reset()

	if err := l.initChip(ctx, path, specs, opener); err != nil {
		buf.logError(fmt.Sprintf("ECHO %s burning failed", path), "error", err)
		return fmt.Errorf("load %s: %w", path, err)
	}
	if _, err := buf.Flush(ctx); err != nil {
		buf.logError(fmt.Sprintf("ECHO %s buffer flush failed", path), "error", err)
		return fmt.Errorf("load %s: flush: %w", path, err)
	}
	buf.logInfo(buf.Stats().String())
	return nil
}

func (l *Loader) initChip(ctx context.Context, path string, specs SpanSpecs, opener ChipOpener) error {
	buf := l.bridge.buf
	if _, err := l.bridge.TestSend(ctx); err != nil {
		return err
	}
	ver, err := l.bridge.Version(ctx)
	if err != nil {
		buf.logInfo("Check EC_CPLD version: failed", "error", err)
		return err
	}
	buf.logInfo(fmt.Sprintf("Check EC_CPLD version: %d", ver))
	if ver == VerTest {
		buf.logInfo("+---------------------------------------------------------+")
		buf.logInfo("| WARNING: TEST HARDWARE IS ON THE BOARD INSTEAD OF EC!!! |")
		buf.logInfo("+---------------------------------------------------------+")
		return nil
	}
	if opener == nil {
		return ErrNoChipOpener
	}

	plan, err := ChannelPlan(specs)
	if err != nil {
		return err
	}

	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	if len(image) == 0 {
		return fmt.Errorf("empty image %s", path)
	}
	buf.logDebug("image loaded", "path", path, "size", len(image))

	if err := opener.OpenChip(ctx, image, l.bridge); err != nil {
		return fmt.Errorf("chip open: %w", err)
	}
	buf.logDebug("chip open")

	for _, ch := range plan {
		if !ch.SecondBus() && ch.Channel < MaxSpans {
			buf.logInfo(fmt.Sprintf("ECHO PRI port %d = %s", ch.Channel+1, ch.Codec))
		}
		if err := opener.OpenChannel(ctx, ch); err != nil {
			return fmt.Errorf("open channel %d: %w", ch.Channel, err)
		}
	}
	return nil
}

// Ver resets the buffer and returns the DSP board CPLD version.
func (l *Loader) Ver(ctx context.Context) (uint16, error) {
	l.bridge.buf.Reset()
	return l.bridge.Version(ctx)
}
