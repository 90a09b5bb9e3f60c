package astribank

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/moffa90/go-astribank/mpp"
	"github.com/moffa90/go-astribank/protocol"
	"github.com/moffa90/go-astribank/xtalk"
	"github.com/moffa90/go-astribank/xusb"
)

// Interface numbers of an Astribank.
const (
	XPPInterface = 0
	MPPInterface = 1
)

// USBDevice is the bus device an Astribank sits on.
type USBDevice interface {
	Info() xusb.Info
	Claim(num int) (xtalk.Transport, error)
	Close() error
}

type xusbDevice struct {
	*xusb.Device
}

func (d xusbDevice) Claim(num int) (xtalk.Transport, error) {
	it, err := d.Device.Claim(num)
	if err != nil {
		return nil, err
	}
	return it, nil
}

// Astribank is one opened unit with its XPP data interface and its MPP
// management interface, each claimed on first use.
type Astribank struct {
	mu     sync.Mutex
	bus    *xusb.Bus
	dev    USBDevice
	config Config
	xpp    xtalk.Transport
	mppT   xtalk.Transport
	mpp    *mpp.Device
	closed bool
}

// Open finds the unit at path ("BBB/DDD" or /dev/bus/usb/BBB/DDD).
func Open(ctx context.Context, path string, opts ...Option) (*Astribank, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	busOpts := append([]xusb.Option{xusb.WithLogger(cfg.Logger)}, cfg.BusOptions...)
	bus := xusb.NewBus(busOpts...)
	dev, err := bus.FindByPath(path)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("%s: Cannot find Astribank: %w", path, err)
	}
	ab := newAstribank(xusbDevice{dev}, cfg)
	ab.bus = bus
	return ab, nil
}

// New wraps an already opened device.
func New(dev USBDevice, opts ...Option) *Astribank {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newAstribank(dev, cfg)
}

func newAstribank(dev USBDevice, cfg Config) *Astribank {
	return &Astribank{dev: dev, config: cfg}
}

// DevPath returns the bus path of the unit.
func (ab *Astribank) DevPath() string {
	return ab.dev.Info().DevPath()
}

// Info returns the USB description of the unit.
func (ab *Astribank) Info() xusb.Info {
	return ab.dev.Info()
}

// XPP claims the data interface.
func (ab *Astribank) XPP() (xtalk.Transport, error) {
	ab.mu.Lock()
	defer ab.mu.Unlock()
	if ab.closed {
		return nil, fmt.Errorf("%w: closed", protocol.ErrInvalidState)
	}
	if ab.xpp != nil {
		return ab.xpp, nil
	}
	t, err := ab.dev.Claim(XPPInterface)
	if err != nil {
		ab.logError("Cannot claim XPP interface", "path", ab.DevPath(), "error", err)
		return nil, fmt.Errorf("claim XPP interface: %w", err)
	}
	ab.xpp = t
	ab.logDebug("XPP interface claimed", "path", ab.DevPath())
	return t, nil
}

// MPP claims the management interface, attaches the MPP dialect and runs
// a status query so the returned device knows its EEPROM and FPGA state.
func (ab *Astribank) MPP(ctx context.Context) (*mpp.Device, error) {
	ab.mu.Lock()
	defer ab.mu.Unlock()
	if ab.closed {
		return nil, fmt.Errorf("%w: closed", protocol.ErrInvalidState)
	}
	if ab.mpp != nil {
		return ab.mpp, nil
	}
	t, err := ab.dev.Claim(MPPInterface)
	if err != nil {
		ab.logError("Cannot claim MPP interface", "path", ab.DevPath(), "error", err)
		return nil, fmt.Errorf("claim MPP interface: %w", err)
	}
	d, err := mpp.New(t, ab.config.engineOptions()...)
	if err != nil {
		t.Close()
		return nil, err
	}
	if err := d.StatusQuery(ctx); err != nil {
		d.Close()
		return nil, fmt.Errorf("%s: %w", ab.DevPath(), err)
	}
	ab.mppT = t
	ab.mpp = d
	return d, nil
}

func (ab *Astribank) transport(iface int) (xtalk.Transport, error) {
	ab.mu.Lock()
	defer ab.mu.Unlock()
	var t xtalk.Transport
	switch iface {
	case XPPInterface:
		t = ab.xpp
	case MPPInterface:
		t = ab.mppT
	default:
		ab.logError(fmt.Sprintf("Unknown interface number (%d)", iface))
		return nil, fmt.Errorf("%w: unknown interface number (%d)", protocol.ErrInvalidArgument, iface)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: interface %d not claimed", protocol.ErrInvalidState, iface)
	}
	return t, nil
}

// Send writes buf unframed to a claimed interface.
func (ab *Astribank) Send(ctx context.Context, iface int, buf []byte) (int, error) {
	t, err := ab.transport(iface)
	if err != nil {
		return 0, err
	}
	return t.Send(ctx, buf)
}

// Recv reads raw bytes from a claimed interface.
func (ab *Astribank) Recv(ctx context.Context, iface int, buf []byte) (int, error) {
	t, err := ab.transport(iface)
	if err != nil {
		return 0, err
	}
	return t.Recv(ctx, buf)
}

// ShowInfo prints the unit. The short form is the bus summary line.
func (ab *Astribank) ShowInfo(w io.Writer, long bool) {
	info := ab.dev.Info()
	if !long {
		xusb.ShowInfo(w, info, false)
		return
	}
	fmt.Fprintf(w, "USB    Bus/Device:    [%s]\n", info.DevPath())
	fmt.Fprintf(w, "USB    Firmware Type: [%s]\n", info.SpecName)
	fmt.Fprintf(w, "USB    iSerialNumber: [%s]\n", info.Serial)
	fmt.Fprintf(w, "USB    iManufacturer: [%s]\n", info.Manufacturer)
	fmt.Fprintf(w, "USB    iProduct:      [%s]\n", info.ProductName)
}

// Close releases both interfaces, the device and the bus Open created.
func (ab *Astribank) Close() error {
	ab.mu.Lock()
	defer ab.mu.Unlock()
	if ab.closed {
		return nil
	}
	ab.closed = true
	if ab.mpp != nil {
		if err := ab.mpp.Close(); err != nil {
			ab.logDebug("MPP close failed", "error", err)
		}
	}
	if ab.xpp != nil {
		if err := ab.xpp.Close(); err != nil {
			ab.logDebug("XPP close failed", "error", err)
		}
	}
	err := ab.dev.Close()
	if ab.bus != nil {
		if berr := ab.bus.Close(); err == nil {
			err = berr
		}
	}
	return err
}

func (ab *Astribank) logDebug(msg string, keysAndValues ...interface{}) {
	if ab.config.Logger != nil {
		ab.config.Logger.Debug(msg, keysAndValues...)
	}
}

func (ab *Astribank) logError(msg string, keysAndValues ...interface{}) {
	if ab.config.Logger != nil {
		ab.config.Logger.Error(msg, keysAndValues...)
	}
}
