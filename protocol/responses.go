package protocol

import (
	"fmt"
)

// DecodeCommand validates a received frame of n bytes held in buf.
// The header length must match n exactly; a mismatch usually means the
// device runs a firmware speaking another framing.
//
// Returns the frame, or an error describing the mismatch.
func DecodeCommand(buf []byte, n int) (*Command, error) {
	if n < HeaderSize || n > len(buf) {
		return nil, fmt.Errorf("frame too short: got %d bytes, minimum is %d", n, HeaderSize)
	}
	h, err := DecodeHeader(buf[:n])
	if err != nil {
		return nil, err
	}
	if int(h.Len) != n {
		return nil, fmt.Errorf("wrong length received: got %d bytes, but length field says %d bytes", n, h.Len)
	}
	return &Command{buf: append([]byte(nil), buf[:n]...)}, nil
}

// ParseAck extracts the status byte from an OpAck frame.
//
// Data format:
//
//	[STATUS(1)]
func ParseAck(c *Command) (uint8, error) {
	if c.Op() != OpAck {
		return 0, fmt.Errorf("not an ACK: op %s", c.Op())
	}
	return c.Uint8At(0)
}

// BuildAck constructs an ACK frame with the given sequence and status.
// Device simulators use it to answer commands.
func BuildAck(seq uint16, status uint8) []byte {
	b := make([]byte, AckLen)
	_ = Header{Len: AckLen, Seq: seq, Op: OpAck}.Encode(b)
	b[HeaderSize] = status
	return b
}

// BuildProtoGet fills a PROTO_GET command with the host protocol version.
//
// Data format:
//
//	[VERSION(1)][RESERVED(1)=0]
func BuildProtoGet(d *Dialect, version uint8) (*Command, error) {
	c, err := NewCommand(d, OpProtoGet, 0)
	if err != nil {
		return nil, err
	}
	if err := c.PutUint8(0, version); err != nil {
		return nil, err
	}
	return c, c.PutUint8(1, 0)
}

// ParseProtoGetReply extracts the device protocol version.
func ParseProtoGetReply(c *Command) (uint8, error) {
	if c.Op() != OpProtoGetReply {
		return 0, fmt.Errorf("not a PROTO_GET_REPLY: op %s", c.Op())
	}
	return c.Uint8At(0)
}
