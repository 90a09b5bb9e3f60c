package protocol

import (
	"encoding/binary"
	"fmt"
)

// Command is one XTALK frame: header followed by payload. A Command is
// owned by the caller that created it until it is sent or dropped.
type Command struct {
	buf []byte
}

// NewCommand allocates a frame for op sized from the dialect: the
// descriptor length plus extra bytes of variable payload. The extra region
// is zero-filled. The header carries the op and the total length; the
// sequence number is left at 0 for the engine to stamp.
//
// Frame structure:
//
//	[LEN(2)][SEQ(2)][OP][FIXED PAYLOAD...][EXTRA(extra)]
func NewCommand(d *Dialect, op Op, extra int) (*Command, error) {
	desc, ok := d.Lookup(op)
	if !ok {
		return nil, fmt.Errorf("%w: op %s in dialect %s", ErrUnknownOperation, op, d.Name())
	}
	if extra < 0 {
		return nil, fmt.Errorf("%w: negative extra length %d", ErrInvalidArgument, extra)
	}
	size := int(desc.Len) + extra
	if size > 0xFFFF {
		return nil, fmt.Errorf("%w: frame size %d exceeds 16-bit length", ErrInvalidArgument, size)
	}
	c := &Command{buf: make([]byte, size)}
	_ = Header{Len: uint16(size), Op: op}.Encode(c.buf)
	return c, nil
}

// FromBytes wraps raw frame bytes without validation. The length field is
// overwritten with len(b) when setLen is true.
func FromBytes(b []byte, setLen bool) (*Command, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("frame too short: got %d bytes, minimum is %d", len(b), HeaderSize)
	}
	if len(b) > 0xFFFF {
		return nil, fmt.Errorf("%w: frame size %d exceeds 16-bit length", ErrInvalidArgument, len(b))
	}
	c := &Command{buf: append([]byte(nil), b...)}
	if setLen {
		binary.LittleEndian.PutUint16(c.buf[0:2], uint16(len(b)))
	}
	return c, nil
}

// Header returns the decoded frame header.
func (c *Command) Header() Header {
	h, _ := DecodeHeader(c.buf)
	return h
}

// Op returns the frame op code.
func (c *Command) Op() Op {
	return Op(c.buf[4])
}

// Len returns the length field of the header.
func (c *Command) Len() int {
	return int(binary.LittleEndian.Uint16(c.buf[0:2]))
}

// Seq returns the sequence number in the header.
func (c *Command) Seq() uint16 {
	return binary.LittleEndian.Uint16(c.buf[2:4])
}

// SetSeq stamps the sequence number.
func (c *Command) SetSeq(seq uint16) {
	binary.LittleEndian.PutUint16(c.buf[2:4], seq)
}

// Bytes returns the whole frame.
func (c *Command) Bytes() []byte {
	return c.buf
}

// Payload returns the bytes following the header.
func (c *Command) Payload() []byte {
	return c.buf[HeaderSize:]
}

// Uint8At reads a payload byte.
func (c *Command) Uint8At(off int) (uint8, error) {
	p := c.Payload()
	if off < 0 || off+1 > len(p) {
		return 0, c.boundsErr(off, 1)
	}
	return p[off], nil
}

// Uint16At reads a little-endian payload word.
func (c *Command) Uint16At(off int) (uint16, error) {
	p := c.Payload()
	if off < 0 || off+2 > len(p) {
		return 0, c.boundsErr(off, 2)
	}
	return binary.LittleEndian.Uint16(p[off:]), nil
}

// BytesAt returns n payload bytes starting at off.
func (c *Command) BytesAt(off, n int) ([]byte, error) {
	p := c.Payload()
	if off < 0 || n < 0 || off+n > len(p) {
		return nil, c.boundsErr(off, n)
	}
	return p[off : off+n], nil
}

// PutUint8 writes a payload byte.
func (c *Command) PutUint8(off int, v uint8) error {
	p := c.Payload()
	if off < 0 || off+1 > len(p) {
		return c.boundsErr(off, 1)
	}
	p[off] = v
	return nil
}

// PutUint16 writes a little-endian payload word.
func (c *Command) PutUint16(off int, v uint16) error {
	p := c.Payload()
	if off < 0 || off+2 > len(p) {
		return c.boundsErr(off, 2)
	}
	binary.LittleEndian.PutUint16(p[off:], v)
	return nil
}

// PutBytes copies b into the payload at off.
func (c *Command) PutBytes(off int, b []byte) error {
	p := c.Payload()
	if off < 0 || off+len(b) > len(p) {
		return c.boundsErr(off, len(b))
	}
	copy(p[off:], b)
	return nil
}

func (c *Command) boundsErr(off, n int) error {
	return fmt.Errorf("payload access [%d:%d] out of range for op %s (payload %d bytes)",
		off, off+n, c.Op(), len(c.Payload()))
}
