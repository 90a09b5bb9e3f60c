package protocol

import (
	"encoding/binary"
	"fmt"
)

// Op is an 8-bit XTALK operation code. Bit 7 marks a reply.
type Op uint8

// IsReply reports whether op is a device-to-host frame.
func (op Op) IsReply() bool {
	return op&ReplyMask != 0
}

// Reply returns the op code the device answers op with.
func (op Op) Reply() Op {
	return op | ReplyMask
}

// IsPrivate reports whether op lies in the dialect-private range.
func (op Op) IsPrivate() bool {
	base := op &^ ReplyMask
	return base >= PrivateFirst && base <= PrivateLast
}

func (op Op) String() string {
	return fmt.Sprintf("0x%02X", uint8(op))
}

// CommandDesc describes one op code of a dialect.
type CommandDesc struct {
	// Op is the operation code
	Op Op

	// Name is the display name; an empty name means unregistered
	Name string

	// Len is the minimum total frame length (header + fixed payload)
	Len uint16
}

// Registered reports whether the descriptor is present.
func (d CommandDesc) Registered() bool {
	return d.Name != ""
}

// Header is the packed XTALK frame header.
//
// Wire layout (little-endian):
//
//	[LEN_L][LEN_H][SEQ_L][SEQ_H][OP]
type Header struct {
	// Len is the total frame length including this header
	Len uint16

	// Seq is the sequence number, 0 is never sent by an engine
	Seq uint16

	// Op is the operation code
	Op Op
}

// DecodeHeader reads a header from the first HeaderSize bytes of buf.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("header too short: got %d bytes, minimum is %d", len(buf), HeaderSize)
	}
	return Header{
		Len: binary.LittleEndian.Uint16(buf[0:2]),
		Seq: binary.LittleEndian.Uint16(buf[2:4]),
		Op:  Op(buf[4]),
	}, nil
}

// Encode writes h into the first HeaderSize bytes of buf.
func (h Header) Encode(buf []byte) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("header too short: got %d bytes, minimum is %d", len(buf), HeaderSize)
	}
	binary.LittleEndian.PutUint16(buf[0:2], h.Len)
	binary.LittleEndian.PutUint16(buf[2:4], h.Seq)
	buf[4] = byte(h.Op)
	return nil
}
