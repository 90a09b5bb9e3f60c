package xusb

import (
	"fmt"

	"github.com/google/gousb"
)

// Filter selects among devices matching a spec. It sees the device after
// its string descriptors were read.
type Filter func(d *Device) bool

// ByPath returns a filter accepting only the device path names.
func ByPath(path string) Filter {
	return func(d *Device) bool {
		return MatchPath(path, d.info.Bus, d.info.Address)
	}
}

// Bus is a libusb session used to find Astribank devices.
type Bus struct {
	usb    *gousb.Context
	config Config
	log    logger
}

// NewBus opens a libusb session. Close it after every device found through
// it is closed.
func NewBus(opts ...Option) *Bus {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Bus{
		usb:    gousb.NewContext(),
		config: cfg,
		log:    logger{cfg.Logger},
	}
}

// Close ends the libusb session.
func (b *Bus) Close() error {
	return b.usb.Close()
}

// Options returns the transport tunables the bus was created with.
func (b *Bus) Options() Options {
	return b.config.Options
}

func (b *Bus) open(match func(desc *gousb.DeviceDesc) (Spec, bool)) ([]*Device, error) {
	lock, err := lockBus(b.config.LockPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.unlock(); err != nil {
			b.log.error("bus unlock failed", "error", err)
		}
	}()

	devs, err := b.usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		_, ok := match(desc)
		return ok
	})
	if err != nil {
		if len(devs) == 0 {
			return nil, fmt.Errorf("open devices: %w", err)
		}
		// Some matches may have failed to open; keep the rest.
		b.log.debug("open devices", "error", err, "opened", len(devs))
	}
	out := make([]*Device, 0, len(devs))
	for _, ud := range devs {
		s, _ := match(ud.Desc)
		out = append(out, newDevice(b, ud, s))
	}
	return out, nil
}

// Find returns every device whose IDs match one of specs, exposes the
// spec's interface and passes filter. A nil filter accepts all.
func (b *Bus) Find(specs []Spec, filter Filter) ([]*Device, error) {
	devs, err := b.open(func(desc *gousb.DeviceDesc) (Spec, bool) {
		s, ok := LookupSpec(specs, uint16(desc.Vendor), uint16(desc.Product))
		if !ok || !hasInterface(desc, s.Interface) {
			return Spec{}, false
		}
		return s, true
	})
	if err != nil {
		return nil, err
	}
	out := devs[:0]
	for _, d := range devs {
		if filter != nil && !filter(d) {
			d.Close()
			continue
		}
		b.log.debug("found device", "path", d.info.DevPath(), "spec", d.spec.Name)
		out = append(out, d)
	}
	return out, nil
}

// FindByPath opens the device at path ("BBB/DDD" or a /dev/bus/usb path)
// whatever its product. A known product keeps its spec name, others get
// BypathSpec.
func (b *Bus) FindByPath(path string) (*Device, error) {
	if _, err := PathTail(path); err != nil {
		return nil, err
	}
	devs, err := b.open(func(desc *gousb.DeviceDesc) (Spec, bool) {
		if !MatchPath(path, desc.Bus, desc.Address) {
			return Spec{}, false
		}
		s, ok := LookupSpec(KnownSpecs, uint16(desc.Vendor), uint16(desc.Product))
		if !ok {
			s = BypathSpec
			s.Vendor = uint16(desc.Vendor)
			s.Product = uint16(desc.Product)
		}
		return s, true
	})
	if err != nil {
		return nil, err
	}
	if len(devs) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoDevice)
	}
	for _, extra := range devs[1:] {
		extra.Close()
	}
	return devs[0], nil
}

// OpenOne is Find for callers that need exactly one device.
func (b *Bus) OpenOne(specs []Spec, filter Filter) (*Device, error) {
	devs, err := b.Find(specs, filter)
	if err != nil {
		return nil, err
	}
	switch len(devs) {
	case 0:
		return nil, ErrNoDevice
	case 1:
		return devs[0], nil
	}
	for _, d := range devs {
		d.Close()
	}
	return nil, fmt.Errorf("%w (%d). Aborting", ErrTooManyDevices, len(devs))
}

func hasInterface(desc *gousb.DeviceDesc, num int) bool {
	for _, cfg := range desc.Configs {
		for _, id := range cfg.Interfaces {
			if id.Number == num {
				return true
			}
		}
	}
	return false
}
