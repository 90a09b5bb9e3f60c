package xusb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/gousb"
	"github.com/moffa90/go-astribank/protocol"
)

// USB2PacketSize is the bulk packet size of a high speed link.
const USB2PacketSize = 512

// Iface is a claimed interface with one bulk IN and one bulk OUT endpoint.
// It implements xtalk.Transport and xtalk.PacketSizer.
type Iface struct {
	mu         sync.Mutex
	dev        *Device
	num        int
	intf       *gousb.Interface
	in         *gousb.InEndpoint
	out        *gousb.OutEndpoint
	epIn       uint8
	epOut      uint8
	packetSize int
	closed     bool
}

func newIface(d *Device, num int, intf *gousb.Interface) (*Iface, error) {
	eps := intf.Setting.Endpoints
	if len(eps) != 2 {
		return nil, fmt.Errorf("%w: interface %d has %d endpoints, expected 2", ErrBadInterface, num, len(eps))
	}
	it := &Iface{dev: d, num: num, intf: intf}
	var inDesc, outDesc *gousb.EndpointDesc
	for _, ed := range eps {
		ed := ed
		if ed.Direction == gousb.EndpointDirectionIn {
			inDesc = &ed
		} else {
			outDesc = &ed
		}
	}
	if inDesc == nil || outDesc == nil {
		return nil, fmt.Errorf("%w: interface %d needs one IN and one OUT endpoint", ErrBadInterface, num)
	}
	var err error
	if it.in, err = intf.InEndpoint(inDesc.Number); err != nil {
		return nil, fmt.Errorf("interface %d: in endpoint: %w", num, err)
	}
	if it.out, err = intf.OutEndpoint(outDesc.Number); err != nil {
		return nil, fmt.Errorf("interface %d: out endpoint: %w", num, err)
	}
	it.epIn = uint8(inDesc.Address)
	it.epOut = uint8(outDesc.Address)
	it.packetSize = inDesc.MaxPacketSize
	if outDesc.MaxPacketSize < it.packetSize {
		it.packetSize = outDesc.MaxPacketSize
	}
	return it, nil
}

// Number returns the interface number.
func (it *Iface) Number() int {
	return it.num
}

// Device returns the device the interface belongs to.
func (it *Iface) Device() *Device {
	return it.dev
}

// PacketSize returns the smaller of the two endpoint packet sizes.
func (it *Iface) PacketSize() int {
	return it.packetSize
}

// IsUSB2 reports whether the link runs at high speed.
func (it *Iface) IsUSB2() bool {
	return it.packetSize == USB2PacketSize
}

// Send writes buf to the OUT endpoint. A device that vanished (usually
// renumerating) is closed and ErrDeviceGone returned.
func (it *Iface) Send(ctx context.Context, buf []byte) (int, error) {
	it.mu.Lock()
	if it.closed {
		it.mu.Unlock()
		return 0, ErrDeviceGone
	}
	n, err := it.out.WriteContext(ctx, buf)
	it.mu.Unlock()
	if err != nil {
		if isNoDevice(err) {
			it.dev.gone()
			return n, fmt.Errorf("%s: %w", it.dev.DevPath(), ErrDeviceGone)
		}
		it.dev.bus.log.error("bulk write failed", "path", it.dev.DevPath(),
			"ep", fmt.Sprintf("0x%02X", it.epOut), "error", err)
		return n, err
	}
	if n != len(buf) {
		return n, fmt.Errorf("%w: wrote %d of %d bytes", ErrShortWrite, n, len(buf))
	}
	return n, nil
}

// Recv reads one transfer from the IN endpoint. A timeout yields 0 bytes
// and no error.
func (it *Iface) Recv(ctx context.Context, buf []byte) (int, error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.closed {
		return 0, ErrDeviceGone
	}
	n, err := it.in.ReadContext(ctx, buf)
	if err != nil {
		if isTimeout(ctx, err) {
			return n, nil
		}
		if isNoDevice(err) {
			return n, fmt.Errorf("%s: %w", it.dev.DevPath(), ErrDeviceGone)
		}
		return n, err
	}
	return n, nil
}

// Close releases the interface. The device stays open.
func (it *Iface) Close() error {
	it.dev.mu.Lock()
	defer it.dev.mu.Unlock()
	if d := it.dev; d.ifaces[it.num] == it {
		delete(d.ifaces, it.num)
	}
	it.release()
	return nil
}

func (it *Iface) release() {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.closed {
		return
	}
	it.closed = true
	it.intf.Close()
}

func (it *Iface) info() IfaceInfo {
	it.mu.Lock()
	defer it.mu.Unlock()
	return IfaceInfo{
		Number:  it.num,
		EpOut:   it.epOut,
		EpIn:    it.epIn,
		Claimed: !it.closed,
		Name:    it.dev.spec.Name,
	}
}

// clearHalt resets the OUT then the IN endpoint with CLEAR_FEATURE.
func (it *Iface) clearHalt() error {
	const (
		reqClearFeature = 0x01
		endpointHalt    = 0x00
	)
	for _, ep := range []uint8{it.epOut, it.epIn} {
		_, err := it.dev.usb.Control(gousb.ControlOut|gousb.ControlStandard|gousb.ControlEndpoint,
			reqClearFeature, endpointHalt, uint16(ep), nil)
		if err != nil {
			return fmt.Errorf("%s: clear halt 0x%02X: %w", it.dev.DevPath(), ep, err)
		}
	}
	return nil
}

// flushRead drains input left over from a previous session.
func (it *Iface) flushRead() {
	buf := make([]byte, it.packetSize)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), FlushTimeout)
		n, err := it.in.ReadContext(ctx, buf)
		cancel()
		if n > 0 {
			it.dev.bus.log.debug(protocol.FormatFrame("flushread", buf[:n]))
		}
		if err != nil {
			if !isTimeout(ctx, err) {
				it.dev.bus.log.debug("flushread failed", "iface", it.num, "error", err)
			}
			return
		}
		if n == 0 {
			return
		}
	}
}

func isTimeout(ctx context.Context, err error) bool {
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, gousb.ErrorTimeout),
		errors.Is(err, gousb.TransferTimedOut):
		return true
	case errors.Is(err, gousb.TransferCancelled):
		return ctx.Err() != nil
	}
	return false
}

func isNoDevice(err error) bool {
	return errors.Is(err, gousb.ErrorNoDevice) || errors.Is(err, gousb.TransferNoDevice)
}
