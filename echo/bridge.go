package echo

import (
	"context"
	"fmt"

	"github.com/moffa90/go-astribank/xtalk"
)

// Indirect access registers of the DSP host interface.
const (
	regControl  = 0x0000
	regData     = 0x0004
	regAddrHigh = 0x0008
	regAddrLow  = 0x000A
)

// RegisterAccess is the register access contract of a DSP vendor SDK.
// Addresses are byte addresses of 16-bit registers; bursts step by 2.
type RegisterAccess interface {
	Write(ctx context.Context, addr uint32, data uint16) error
	WriteSmear(ctx context.Context, addr uint32, data uint16, n int) error
	WriteBurst(ctx context.Context, addr uint32, data []uint16) error
	Read(ctx context.Context, addr uint32) (uint16, error)
	ReadBurst(ctx context.Context, addr uint32, out []uint16) error
}

// Bridge maps DSP register accesses onto batched SPI packets.
type Bridge struct {
	buf *Buffer
}

var _ RegisterAccess = (*Bridge)(nil)

// NewBridge creates a bridge over the XPP interface transport t.
func NewBridge(t xtalk.Transport, opts ...Option) *Bridge {
	return &Bridge{buf: NewBuffer(t, opts...)}
}

// Buffer returns the output buffer.
func (b *Bridge) Buffer() *Buffer {
	return b.buf
}

func (b *Bridge) spiSend(ctx context.Context, addr, data uint16, recv, ver bool) (int, error) {
	frame := spiFrame(addr, data, recv, ver)
	ret, err := b.buf.Send(ctx, frame, recv)
	if err != nil {
		b.buf.logError("usb_buffer_send failed", "addr", addr, "error", err)
		return 0, err
	}
	return ret, nil
}

func writeStrobe(addr uint32) uint16 {
	return uint16(((addr>>1)&0x7)<<9 | 1<<8 | 3<<12 | 1)
}

func readStrobe(addr uint32) uint16 {
	return uint16(((addr>>1)&0x7)<<9 | 1<<8 | 1)
}

func (b *Bridge) sendData(ctx context.Context, addr uint32, data uint16) error {
	steps := [...]struct{ reg, val uint16 }{
		{regAddrHigh, uint16(addr >> 20)},
		{regAddrLow, uint16((addr >> 4) & 0xFFFF)},
		{regData, data},
		{regControl, writeStrobe(addr)},
	}
	for _, s := range steps {
		if _, err := b.spiSend(ctx, s.reg, s.val, false, false); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bridge) recvData(ctx context.Context, addr uint32) (uint16, error) {
	steps := [...]struct{ reg, val uint16 }{
		{regAddrHigh, uint16(addr >> 20)},
		{regAddrLow, uint16((addr >> 4) & 0xFFFF)},
		{regControl, readStrobe(addr)},
	}
	for _, s := range steps {
		if _, err := b.spiSend(ctx, s.reg, s.val, false, false); err != nil {
			return 0, err
		}
	}
	v, err := b.spiSend(ctx, regData, 0, true, false)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// Write queues a register write.
func (b *Bridge) Write(ctx context.Context, addr uint32, data uint16) error {
	if err := b.sendData(ctx, addr, data); err != nil {
		return fmt.Errorf("%w: addr 0x%08X: %w", ErrFatalDriverWrite, addr, err)
	}
	return nil
}

// WriteSmear writes data to n consecutive registers starting at addr.
func (b *Bridge) WriteSmear(ctx context.Context, addr uint32, data uint16, n int) error {
	for i := 0; i < n; i++ {
		a := addr + uint32(i)<<1
		if err := b.sendData(ctx, a, data); err != nil {
			return fmt.Errorf("%w: smear addr 0x%08X: %w", ErrFatalDriverWrite, a, err)
		}
	}
	return nil
}

// WriteBurst writes data to consecutive registers starting at addr.
func (b *Bridge) WriteBurst(ctx context.Context, addr uint32, data []uint16) error {
	for i, v := range data {
		a := addr + uint32(i)<<1
		if err := b.sendData(ctx, a, v); err != nil {
			return fmt.Errorf("%w: burst addr 0x%08X: %w", ErrFatalDriverWrite, a, err)
		}
	}
	return nil
}

// Read flushes pending writes and reads one register.
func (b *Bridge) Read(ctx context.Context, addr uint32) (uint16, error) {
	v, err := b.recvData(ctx, addr)
	if err != nil {
		return 0, fmt.Errorf("%w: addr 0x%08X: %w", ErrFatalDriverRead, addr, err)
	}
	return v, nil
}

// ReadBurst fills out from consecutive registers starting at addr.
func (b *Bridge) ReadBurst(ctx context.Context, addr uint32, out []uint16) error {
	for i := range out {
		a := addr + uint32(i)<<1
		v, err := b.recvData(ctx, a)
		if err != nil {
			return fmt.Errorf("%w: burst addr 0x%08X: %w", ErrFatalDriverRead, a, err)
		}
		out[i] = v
	}
	return nil
}

// TestSend sends the test probe and returns tid<<8 | tsid.
func (b *Bridge) TestSend(ctx context.Context) (uint16, error) {
	v, err := b.buf.Send(ctx, testFrame(), true)
	if err != nil {
		b.buf.logError("test probe failed", "error", err)
		return 0, fmt.Errorf("test probe: %w", err)
	}
	return uint16(v), nil
}

// Version asks the DSP board CPLD for its version.
func (b *Bridge) Version(ctx context.Context) (uint16, error) {
	v, err := b.spiSend(ctx, 0, 0, true, true)
	if err != nil {
		return 0, fmt.Errorf("version probe: %w", err)
	}
	return uint16(v), nil
}
