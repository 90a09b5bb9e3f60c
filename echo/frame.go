package echo

import (
	"encoding/binary"
	"fmt"

	"github.com/moffa90/go-astribank/protocol"
)

// XPP packet ops carried on the echo canceller path.
const (
	OpSPISend  = 0x0F
	OpSPIRecv  = 0x10
	OpTestSend = 0x35
	OpTestRecv = 0x36
)

// Version probe answers with special meaning.
const (
	// VerTest is reported by test hardware fitted in place of the DSP
	VerTest uint16 = 0xABCD

	// VerInvalid is reported when no DSP answers the version probe
	VerInvalid uint16 = 0xFFFF
)

const (
	// headerSize is LEN(2) + OP(1) + UNIT(1)
	headerSize = 4

	spiFrameLen  = headerSize + 6
	testFrameLen = headerSize + 2

	spiUnit      = 0x40
	spiHeader    = 0x05
	spiFlagsBase = 0x30
	spiFlagRecv  = 0x40
	spiFlagVer   = 0x01

	testID    = 0x28
	testSubID = 0x00
)

// spiFrame builds one SPI_SND packet:
//
//	[LEN(2)][OP][UNIT][HEADER][FLAGS][ADDR_L][ADDR_H][DATA_L][DATA_H]
func spiFrame(addr, data uint16, recv, ver bool) []byte {
	flags := byte(spiFlagsBase)
	if recv {
		flags |= spiFlagRecv
	}
	if ver {
		flags |= spiFlagVer
	}
	b := make([]byte, spiFrameLen)
	binary.LittleEndian.PutUint16(b[0:2], spiFrameLen)
	b[2] = OpSPISend
	b[3] = spiUnit
	b[4] = spiHeader
	b[5] = flags
	binary.LittleEndian.PutUint16(b[6:8], addr)
	binary.LittleEndian.PutUint16(b[8:10], data)
	return b
}

func testFrame() []byte {
	b := make([]byte, testFrameLen)
	binary.LittleEndian.PutUint16(b[0:2], testFrameLen)
	b[2] = OpTestSend
	b[3] = 0x00
	b[4] = testID
	b[5] = testSubID
	return b
}

// decodeReply extracts the 16-bit answer of an SPI_RCV or TST_RCV packet.
func decodeReply(b []byte) (uint16, error) {
	if len(b) < headerSize {
		return 0, &protocol.ProtocolError{
			Operation: "echo recv",
			Reason:    fmt.Sprintf("short packet: %d bytes", len(b)),
		}
	}
	op := b[2]
	switch op {
	case OpSPIRecv:
		if len(b) < spiFrameLen {
			return 0, &protocol.ProtocolError{
				Operation: "echo recv",
				Reply:     protocol.Op(op),
				Reason:    fmt.Sprintf("short SPI reply: %d bytes", len(b)),
			}
		}
		return uint16(b[9])<<8 | uint16(b[8]), nil
	case OpTestRecv:
		if len(b) < testFrameLen {
			return 0, &protocol.ProtocolError{
				Operation: "echo recv",
				Reply:     protocol.Op(op),
				Reason:    fmt.Sprintf("short test reply: %d bytes", len(b)),
			}
		}
		return uint16(b[4])<<8 | uint16(b[5]), nil
	}
	return 0, &protocol.ProtocolError{
		Operation: "echo recv",
		Reply:     protocol.Op(op),
		Reason:    fmt.Sprintf("Got unexpected reply OP=0x%02X", op),
	}
}
