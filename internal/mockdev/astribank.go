// Package mockdev provides in-memory Astribank simulators that satisfy the
// xtalk.Transport contract. They validate incoming frames and answer the
// way a real unit does, so device code can be tested without hardware.
package mockdev

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/moffa90/go-astribank/protocol"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("mockdev: device closed")

// MPP wire values the simulator understands.
const (
	opProtoGet      = 0x01
	opDevSendStart  = 0x05
	opDevSendSeg    = 0x07
	opDevSendEnd    = 0x09
	opRenum         = 0x0B
	opEEPROMSet     = 0x0D
	opCapsGet       = 0x0E
	opCapsSet       = 0x0F
	opStatusGet     = 0x11
	opExtraInfoGet  = 0x13
	opExtraInfoSet  = 0x15
	opBlockRead     = 0x27
	opTwsWDSet      = 0x31
	opTwsWDGet      = 0x32
	opTwsPortSet    = 0x34
	opTwsPortGet    = 0x35
	opTwsPowerGet   = 0x36
	opSerSend       = 0x37
	opReset         = 0x45
	opHalfReset     = 0x47
	statusNoDest    = 0x03
	statusBadCmd    = 0x06
	statusTooShort  = 0x07
	statusCapsFPGA  = 0x11
	identitySize    = 16
	capsSize        = 12
	keySize         = 16
	extraInfoSize   = 24
	versionLen      = 6
	serCardInfoGet  = 0x1
	serStatGet      = 0x3
	defaultProtoVer = 0x14
)

// Upload is the state of the simulated firmware receiver.
type Upload struct {
	Dest     uint8
	Version  [versionLen]byte
	Started  bool
	Ended    bool
	Segments int
	Bytes    int
	Data     map[uint16][]byte
}

// Astribank simulates the MPP interface of a TwinStar-capable unit with a
// large EEPROM and a loaded FPGA. The setters change that default.
type Astribank struct {
	mu sync.Mutex

	i2cs       uint8
	status     uint8
	versions   [3 * versionLen]byte
	identity   [identitySize]byte
	caps       [capsSize]byte
	key        [keySize]byte
	extraInfo  [extraInfoSize]byte
	eeprom     []byte
	watchdog   uint8
	port       uint8
	power      uint8
	cards      [5][2]uint8
	fpgaConfig uint8
	fpgaStatus uint8
	protoVer   uint8
	overrun    int

	nack    map[byte]uint8
	silent  map[byte]bool
	onReply func(reply []byte) []byte
	sendErr error
	latency time.Duration

	upload  Upload
	resets  []bool
	renums  int
	frames  [][]byte
	pending [][]byte
	closed  bool

	packetSize int
}

// NewAstribank returns a simulator for a product 0x1163 unit.
func NewAstribank() *Astribank {
	a := &Astribank{
		i2cs:       0x10,
		status:     0x01,
		watchdog:   1,
		port:       0,
		power:      0x03,
		fpgaConfig: 3,
		fpgaStatus: 0x03,
		protoVer:   defaultProtoVer,
		nack:       make(map[byte]uint8),
		silent:     make(map[byte]bool),
		packetSize: protocol.DefaultPacketSize,
		eeprom:     make([]byte, 256),
	}
	a.SetVersions("9393", "10353", "9393")
	a.SetIdentity(0xC2, 0xE4E4, 0x1163, 0x0203, "XR0200")
	a.SetCapabilities(8, 0, 0, 4, true, 1)
	copy(a.extraInfo[:], "Lab unit 7")
	for i := len("Lab unit 7"); i < extraInfoSize; i++ {
		a.extraInfo[i] = 0xFF
	}
	a.cards = [5][2]uint8{{0x11, 1}, {0x13, 1}, {0x21, 0}, {0x00, 0}, {0x00, 0}}
	for i := range a.eeprom {
		a.eeprom[i] = uint8(i)
	}
	return a
}

// SetEEPROMType sets the EEPROM type reported in bits 3-4 of i2cs.
func (a *Astribank) SetEEPROMType(t uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.i2cs = (t & 0x3) << 3
}

// SetFPGALoaded sets bit 0 of the status byte.
func (a *Astribank) SetFPGALoaded(loaded bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if loaded {
		a.status |= 0x01
	} else {
		a.status &^= 0x01
	}
}

// SetVersions sets the firmware version tags.
func (a *Astribank) SetVersions(usb, fpga, eeprom string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.versions = [3 * versionLen]byte{}
	copy(a.versions[0:versionLen], usb)
	copy(a.versions[versionLen:2*versionLen], fpga)
	copy(a.versions[2*versionLen:], eeprom)
}

// SetIdentity sets the EEPROM identity table.
func (a *Astribank) SetIdentity(source uint8, vendor, product, release uint16, label string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.identity[:]
	b[0] = source
	binary.LittleEndian.PutUint16(b[1:3], vendor)
	binary.LittleEndian.PutUint16(b[3:5], product)
	binary.LittleEndian.PutUint16(b[5:7], release)
	b[7] = 0
	for i := 8; i < identitySize; i++ {
		b[i] = 0
	}
	copy(b[8:], label)
}

// SetCapabilities sets the port counts and the TwinStar bit.
func (a *Astribank) SetCapabilities(fxs, fxo, bri, pri uint8, twinstar bool, echo uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.caps = [capsSize]byte{fxs, fxo, bri, pri, 0, echo}
	if twinstar {
		a.caps[4] = 0x01
	}
}

// SetExtraInfo sets the raw vendor text block.
func (a *Astribank) SetExtraInfo(b []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.extraInfo = [extraInfoSize]byte{}
	copy(a.extraInfo[:], b)
}

// SetEEPROMContents sets the bytes served by block reads.
func (a *Astribank) SetEEPROMContents(b []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.eeprom = append([]byte(nil), b...)
}

// SetBlockReadOverrun makes block reads return n bytes more than asked.
func (a *Astribank) SetBlockReadOverrun(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.overrun = n
}

// SetTwinStar sets the watchdog mode, the active port and the power bitmap.
func (a *Astribank) SetTwinStar(watchdog, port, power uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.watchdog, a.port, a.power = watchdog, port, power
}

// SetCard sets the type and status bytes of a card slot.
func (a *Astribank) SetCard(unit int, cardType, status uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cards[unit] = [2]uint8{cardType, status}
}

// SetFPGAStat sets the FPGA configuration number and status bits.
func (a *Astribank) SetFPGAStat(config, status uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fpgaConfig, a.fpgaStatus = config, status
}

// SetProtoVersion sets the version answered to PROTO_GET.
func (a *Astribank) SetProtoVersion(v uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.protoVer = v
}

// Nack makes the simulator answer op with an ACK carrying status.
func (a *Astribank) Nack(op byte, status uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nack[op] = status
}

// Silence makes the simulator swallow op without answering.
func (a *Astribank) Silence(op byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.silent[op] = true
}

// OnReply installs a hook that may rewrite every reply before delivery.
func (a *Astribank) OnReply(fn func(reply []byte) []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onReply = fn
}

// FailSend makes every following Send return err. nil clears it.
func (a *Astribank) FailSend(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sendErr = err
}

// SetLatency delays every Recv.
func (a *Astribank) SetLatency(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.latency = d
}

// Frames returns copies of all frames received from the host.
func (a *Astribank) Frames() [][]byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([][]byte, len(a.frames))
	for i, f := range a.frames {
		out[i] = append([]byte(nil), f...)
	}
	return out
}

// Upload returns a snapshot of the firmware receiver.
func (a *Astribank) Upload() Upload {
	a.mu.Lock()
	defer a.mu.Unlock()
	u := a.upload
	u.Data = make(map[uint16][]byte, len(a.upload.Data))
	for k, v := range a.upload.Data {
		u.Data[k] = append([]byte(nil), v...)
	}
	return u
}

// Resets returns the resets received, true for full resets.
func (a *Astribank) Resets() []bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]bool(nil), a.resets...)
}

// Renumerations returns how many RENUM commands were received.
func (a *Astribank) Renumerations() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.renums
}

// TwinStarPort returns the active TwinStar port.
func (a *Astribank) TwinStarPort() uint8 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.port
}

// Send implements the transport write side.
func (a *Astribank) Send(ctx context.Context, buf []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return 0, ErrClosed
	}
	if a.sendErr != nil {
		return 0, a.sendErr
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	h, err := protocol.DecodeHeader(buf)
	if err != nil || int(h.Len) != len(buf) {
		return 0, fmt.Errorf("mockdev: malformed frame of %d bytes", len(buf))
	}
	a.frames = append(a.frames, append([]byte(nil), buf...))

	op := byte(h.Op)
	if a.silent[op] {
		return len(buf), nil
	}
	if status, ok := a.nack[op]; ok {
		a.reply(protocol.BuildAck(h.Seq, status))
		return len(buf), nil
	}
	a.handle(h, buf[protocol.HeaderSize:])
	return len(buf), nil
}

// Recv implements the transport read side. It returns 0 bytes when no
// reply is pending.
func (a *Astribank) Recv(ctx context.Context, buf []byte) (int, error) {
	a.mu.Lock()
	latency := a.latency
	a.mu.Unlock()
	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return 0, ErrClosed
	}
	if len(a.pending) == 0 {
		return 0, nil
	}
	r := a.pending[0]
	a.pending = a.pending[1:]
	return copy(buf, r), nil
}

// Close marks the simulator closed.
func (a *Astribank) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}

// PacketSize reports the simulated endpoint packet size.
func (a *Astribank) PacketSize() int {
	return a.packetSize
}

func (a *Astribank) reply(frame []byte) {
	if a.onReply != nil {
		frame = a.onReply(frame)
	}
	a.pending = append(a.pending, frame)
}

func (a *Astribank) answer(seq uint16, op byte, payload ...[]byte) {
	n := protocol.HeaderSize
	for _, p := range payload {
		n += len(p)
	}
	b := make([]byte, protocol.HeaderSize, n)
	_ = protocol.Header{Len: uint16(n), Seq: seq, Op: protocol.Op(op)}.Encode(b)
	for _, p := range payload {
		b = append(b, p...)
	}
	a.reply(b)
}

func (a *Astribank) ack(seq uint16, status uint8) {
	a.reply(protocol.BuildAck(seq, status))
}

// minPayload is the fixed payload size of commands that carry one.
var minPayload = map[byte]int{
	opBlockRead:    4,
	opDevSendStart: 1 + versionLen,
	opDevSendSeg:   2,
	opTwsWDSet:     1,
	opTwsPortSet:   1,
}

func (a *Astribank) handle(h protocol.Header, p []byte) {
	seq := h.Seq
	if len(p) < minPayload[byte(h.Op)] {
		a.ack(seq, statusTooShort)
		return
	}
	switch byte(h.Op) {
	case opProtoGet:
		a.answer(seq, opProtoGet|0x80, []byte{a.protoVer, 0})

	case opStatusGet:
		a.answer(seq, opStatusGet|0x80, []byte{a.i2cs, a.status}, a.versions[:])

	case opEEPROMSet:
		if len(p) < identitySize {
			a.ack(seq, statusTooShort)
			return
		}
		copy(a.identity[:], p)
		a.ack(seq, 0)

	case opCapsGet:
		a.answer(seq, opCapsGet|0x80, a.identity[:], a.caps[:], a.key[:])

	case opCapsSet:
		if a.status&0x01 != 0 {
			a.ack(seq, statusCapsFPGA)
			return
		}
		if len(p) < identitySize+capsSize+keySize {
			a.ack(seq, statusTooShort)
			return
		}
		copy(a.identity[:], p[0:identitySize])
		copy(a.caps[:], p[identitySize:identitySize+capsSize])
		copy(a.key[:], p[identitySize+capsSize:])
		a.ack(seq, 0)

	case opExtraInfoGet:
		a.answer(seq, opExtraInfoGet|0x80, a.extraInfo[:])

	case opExtraInfoSet:
		if len(p) < extraInfoSize {
			a.ack(seq, statusTooShort)
			return
		}
		copy(a.extraInfo[:], p)
		a.ack(seq, 0)

	case opRenum:
		a.renums++

	case opBlockRead:
		offset := binary.LittleEndian.Uint16(p[0:2])
		length := int(binary.LittleEndian.Uint16(p[2:4])) + a.overrun
		data := make([]byte, length)
		if int(offset) < len(a.eeprom) {
			copy(data, a.eeprom[offset:])
		}
		off := make([]byte, 2)
		binary.LittleEndian.PutUint16(off, offset)
		a.answer(seq, opBlockRead|0x80, off, data)

	case opDevSendStart:
		dest := p[0]
		if dest != 0x01 && dest != 0x02 {
			a.ack(seq, statusNoDest)
			return
		}
		a.upload = Upload{Dest: dest, Started: true, Data: make(map[uint16][]byte)}
		copy(a.upload.Version[:], p[1:1+versionLen])
		a.ack(seq, 0)

	case opDevSendSeg:
		if !a.upload.Started || a.upload.Ended {
			a.ack(seq, statusNoDest)
			return
		}
		offset := binary.LittleEndian.Uint16(p[0:2])
		a.upload.Data[offset] = append([]byte(nil), p[2:]...)
		a.upload.Segments++
		a.upload.Bytes += len(p) - 2
		a.ack(seq, 0)

	case opDevSendEnd:
		if !a.upload.Started {
			a.ack(seq, statusNoDest)
			return
		}
		a.upload.Ended = true
		if a.upload.Dest == 0x01 {
			a.status |= 0x01
		}
		a.ack(seq, 0)

	case opReset, opHalfReset:
		a.resets = append(a.resets, byte(h.Op) == opReset)

	case opSerSend:
		out := make([]byte, len(p))
		if len(p) > 0 {
			out[0] = p[0]
			switch {
			case p[0] == serCardInfoGet && len(p) >= 4:
				unit := int(p[1] >> 4)
				out[1] = p[1]
				if unit < len(a.cards) {
					out[2], out[3] = a.cards[unit][0], a.cards[unit][1]
				}
			case p[0] == serStatGet && len(p) >= 3:
				out[1], out[2] = a.fpgaConfig, a.fpgaStatus
			}
		}
		a.answer(seq, opSerSend|0x80, out)

	case opTwsWDSet:
		a.watchdog = p[0]
		a.ack(seq, 0)

	case opTwsWDGet:
		a.answer(seq, opTwsWDGet|0x80, []byte{a.watchdog})

	case opTwsPortSet:
		a.port = p[0]

	case opTwsPortGet:
		a.answer(seq, opTwsPortGet|0x80, []byte{a.port})

	case opTwsPowerGet:
		a.answer(seq, opTwsPowerGet|0x80, []byte{a.power})

	default:
		a.ack(seq, statusBadCmd)
	}
}
