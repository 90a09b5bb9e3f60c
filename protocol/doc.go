// Package protocol implements the XTALK framing used by Astribank devices.
//
// This package describes protocol dialects and builds and decodes frames.
// It performs no I/O; see package xtalk for the transaction engines.
//
// # Frame Overview
//
// Every frame starts with a packed little-endian header:
//
//	[LEN_L][LEN_H][SEQ_L][SEQ_H][OP][PAYLOAD...]
//
// Where:
//   - LEN = total frame length including the 5-byte header
//   - SEQ = host sequence number, echoed by the device in its reply
//   - OP  = operation code, bit 7 set for frames sent by the device
//
// # Dialects
//
// A Dialect maps op codes to descriptors (name and minimum frame length)
// and ACK status codes to messages. Device dialects only define op codes in
// the private range 0x05-0x7F (with or without the reply bit); Merge layers
// such a dialect over one of the base dialects:
//
//	d, err := protocol.Merge(protocol.SyncBase, mppDialect)
//
// # Commands
//
// NewCommand allocates a frame sized from the dialect:
//
//	cmd, err := protocol.NewCommand(d, 0x27, 0)
//	cmd.PutUint16(0, offset)
//
// # Error Handling
//
// Reply validation failures and negative acknowledgements are reported as
// *ProtocolError:
//
//	// err.Error() returns: "STATUS_GET failed: No access (0x05)"
//
// I/O failures are wrapped in *TransportError. The sentinels
// ErrUnknownOperation, ErrNoReply, ErrInvalidState, ErrInvalidDialect and
// ErrInvalidArgument are matched with errors.Is.
package protocol
