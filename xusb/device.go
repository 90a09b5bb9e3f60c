package xusb

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/google/gousb"
)

// Device is an opened USB device. Interfaces are claimed from it with
// Claim; closing the device releases them.
type Device struct {
	mu     sync.Mutex
	bus    *Bus
	usb    *gousb.Device
	cfg    *gousb.Config
	spec   Spec
	info   Info
	ifaces map[int]*Iface
	closed bool
}

func newDevice(b *Bus, ud *gousb.Device, spec Spec) *Device {
	d := &Device{
		bus:    b,
		usb:    ud,
		spec:   spec,
		ifaces: make(map[int]*Iface),
		info: Info{
			Bus:      ud.Desc.Bus,
			Address:  ud.Desc.Address,
			Vendor:   uint16(ud.Desc.Vendor),
			Product:  uint16(ud.Desc.Product),
			SpecName: spec.Name,
			Open:     true,
		},
	}
	if err := ud.SetAutoDetach(true); err != nil {
		b.log.debug("auto detach unsupported", "path", d.info.DevPath(), "error", err)
	}
	var err error
	if d.info.Manufacturer, err = ud.Manufacturer(); err != nil {
		b.log.debug("no iManufacturer", "path", d.info.DevPath(), "error", err)
	}
	if d.info.ProductName, err = ud.Product(); err != nil {
		b.log.debug("no iProduct", "path", d.info.DevPath(), "error", err)
	}
	if d.info.Serial, err = ud.SerialNumber(); err != nil {
		b.log.debug("no iSerialNumber", "path", d.info.DevPath(), "error", err)
	}
	return d
}

// Spec returns the spec the device was matched with.
func (d *Device) Spec() Spec {
	return d.spec
}

// Info returns a snapshot of the device description and its interfaces.
func (d *Device) Info() Info {
	d.mu.Lock()
	defer d.mu.Unlock()
	info := d.info
	info.Open = !d.closed
	info.Interfaces = nil
	nums := make([]int, 0, len(d.ifaces))
	for n := range d.ifaces {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	for _, n := range nums {
		info.Interfaces = append(info.Interfaces, d.ifaces[n].info())
	}
	return info
}

// DevPath returns the "BBB/DDD" bus path of the device.
func (d *Device) DevPath() string {
	return d.info.DevPath()
}

// Serial returns the iSerialNumber string.
func (d *Device) Serial() string {
	return d.info.Serial
}

// ShowInfo prints the device in short or long form.
func (d *Device) ShowInfo(w io.Writer, long bool) {
	ShowInfo(w, d.Info(), long)
}

// Claim claims interface num and resolves its two endpoints. Stale input
// is drained before the interface is returned.
func (d *Device) Claim(num int) (*Iface, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceGone
	}
	if it, ok := d.ifaces[num]; ok {
		return it, nil
	}
	if d.cfg == nil {
		cfgNum, err := d.usb.ActiveConfigNum()
		if err != nil {
			return nil, fmt.Errorf("%s: active config: %w", d.info.DevPath(), err)
		}
		cfg, err := d.usb.Config(cfgNum)
		if err != nil {
			return nil, fmt.Errorf("%s: config %d: %w", d.info.DevPath(), cfgNum, err)
		}
		d.cfg = cfg
	}
	intf, err := d.cfg.Interface(num, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: claim interface %d: %w", d.info.DevPath(), num, err)
	}
	it, err := newIface(d, num, intf)
	if err != nil {
		intf.Close()
		return nil, err
	}
	if d.bus.config.Options.UseClearHalt && !skipClearHalt(d.info.Vendor, d.info.Product) {
		if err := it.clearHalt(); err != nil {
			intf.Close()
			return nil, err
		}
	}
	d.ifaces[num] = it
	d.bus.log.debug("claimed interface", "path", d.info.DevPath(), "iface", num,
		"ep_out", fmt.Sprintf("0x%02X", it.epOut), "ep_in", fmt.Sprintf("0x%02X", it.epIn),
		"packet_size", it.packetSize)
	it.flushRead()
	return it, nil
}

// Close releases every claimed interface and closes the device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeLocked()
}

func (d *Device) closeLocked() error {
	if d.closed {
		return nil
	}
	d.closed = true
	for n, it := range d.ifaces {
		it.release()
		delete(d.ifaces, n)
	}
	if d.cfg != nil {
		if err := d.cfg.Close(); err != nil {
			d.bus.log.debug("config close failed", "path", d.info.DevPath(), "error", err)
		}
		d.cfg = nil
	}
	return d.usb.Close()
}

// gone closes the device after it dropped off the bus.
func (d *Device) gone() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bus.log.info("device disconnected, closing", "path", d.info.DevPath())
	if err := d.closeLocked(); err != nil {
		d.bus.log.debug("close after disconnect", "error", err)
	}
}
