package mockdev

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
)

// XPP packet ops used by the echo canceller bridge.
const (
	xopSPISend  = 0x0F
	xopSPIRecv  = 0x10
	xopTestSend = 0x35
	xopTestRecv = 0x36

	spiFlagRecv    = 0x40
	spiFlagVersion = 0x01
)

// DSP simulates the echo canceller behind the XPP interface. It decodes
// batched SPI packets, keeps a register file addressed through the
// indirect access registers, and answers version, test and read probes.
type DSP struct {
	mu sync.Mutex

	regs    map[uint32]uint16
	high    uint16
	low     uint16
	data    uint16
	latched uint16

	version   uint16
	tid       uint8
	tsid      uint8
	replyOp   byte
	sendErr   error
	silent    bool
	sends     [][]byte
	spiFrames int

	pending    [][]byte
	closed     bool
	packetSize int
}

// NewDSP returns a DSP simulator reporting CPLD version 1.
func NewDSP() *DSP {
	return &DSP{
		regs:       make(map[uint32]uint16),
		version:    1,
		tid:        0x28,
		packetSize: 512,
	}
}

// SetVersion sets the version answered to version probes.
func (d *DSP) SetVersion(v uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.version = v
}

// SetTestID sets the ids answered to test probes.
func (d *DSP) SetTestID(tid, tsid uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tid, d.tsid = tid, tsid
}

// SetReplyOp forces the op of every reply, for protocol error tests.
func (d *DSP) SetReplyOp(op byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.replyOp = op
}

// SetPacketSize sets the reported packet size.
func (d *DSP) SetPacketSize(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.packetSize = n
}

// FailSend makes every following Send return err.
func (d *DSP) FailSend(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sendErr = err
}

// Silence stops all replies.
func (d *DSP) Silence() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.silent = true
}

// Register returns a DSP register value.
func (d *DSP) Register(addr uint32) uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regs[addr]
}

// SetRegister sets a DSP register value.
func (d *DSP) SetRegister(addr uint32, v uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regs[addr] = v
}

// Sends returns copies of the USB writes received.
func (d *DSP) Sends() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.sends))
	for i, s := range d.sends {
		out[i] = append([]byte(nil), s...)
	}
	return out
}

// SPIFrames returns how many SPI packets were decoded.
func (d *DSP) SPIFrames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.spiFrames
}

// Send decodes every packet of one USB write.
func (d *DSP) Send(ctx context.Context, buf []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, ErrClosed
	}
	if d.sendErr != nil {
		return 0, d.sendErr
	}
	d.sends = append(d.sends, append([]byte(nil), buf...))

	for p := buf; len(p) > 0; {
		if len(p) < 4 {
			return 0, fmt.Errorf("mockdev: truncated xpp header (%d bytes)", len(p))
		}
		n := int(binary.LittleEndian.Uint16(p[0:2]))
		if n < 4 || n > len(p) {
			return 0, fmt.Errorf("mockdev: bad xpp packet length %d", n)
		}
		if err := d.packet(p[:n]); err != nil {
			return 0, err
		}
		p = p[n:]
	}
	return len(buf), nil
}

func (d *DSP) packet(p []byte) error {
	switch p[2] {
	case xopSPISend:
		if len(p) < 10 {
			return fmt.Errorf("mockdev: short spi packet (%d bytes)", len(p))
		}
		d.spiFrames++
		flags := p[5]
		addr := uint16(p[7])<<8 | uint16(p[6])
		data := uint16(p[9])<<8 | uint16(p[8])
		if flags&spiFlagVersion != 0 {
			if flags&spiFlagRecv != 0 {
				d.spiReply(flags, addr, d.version)
			}
			return nil
		}
		d.spiWrite(addr, data)
		if flags&spiFlagRecv != 0 {
			d.spiReply(flags, addr, d.latched)
		}
	case xopTestSend:
		d.queue([]byte{6, 0, xopTestRecv, 0, d.tid, d.tsid})
	default:
		return fmt.Errorf("mockdev: unexpected xpp op 0x%02X", p[2])
	}
	return nil
}

func (d *DSP) spiWrite(addr, v uint16) {
	switch addr {
	case 0x0008:
		d.high = v
	case 0x000A:
		d.low = v
	case 0x0004:
		d.data = v
	case 0x0000:
		reg := uint32(d.high)<<20 | uint32(d.low)<<4 | uint32((v>>9)&0x7)<<1
		if (v>>12)&0x3 == 0x3 {
			d.regs[reg] = d.data
		} else {
			d.latched = d.regs[reg]
		}
	}
}

func (d *DSP) spiReply(flags uint8, addr, v uint16) {
	d.queue([]byte{10, 0, xopSPIRecv, 0x40, 0x05, flags,
		byte(addr), byte(addr >> 8), byte(v), byte(v >> 8)})
}

func (d *DSP) queue(b []byte) {
	if d.silent {
		return
	}
	if d.replyOp != 0 {
		b[2] = d.replyOp
	}
	d.pending = append(d.pending, b)
}

// Recv returns the oldest pending reply, or 0 bytes.
func (d *DSP) Recv(ctx context.Context, buf []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, ErrClosed
	}
	if len(d.pending) == 0 {
		return 0, nil
	}
	r := d.pending[0]
	d.pending = d.pending[1:]
	return copy(buf, r), nil
}

// Close marks the simulator closed.
func (d *DSP) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// PacketSize reports the simulated endpoint packet size.
func (d *DSP) PacketSize() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.packetSize
}
