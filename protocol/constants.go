package protocol

// Frame layout constants.
const (
	// HeaderSize is the packed header size: LEN(2) + SEQ(2) + OP(1)
	HeaderSize = 5

	// ReplyMask marks a device-to-host frame in the op code
	ReplyMask Op = 0x80

	// MaxOps is the number of addressable op codes
	MaxOps = 256

	// MaxStatus is the number of entries in a dialect status table
	MaxStatus = 255

	// PrivateFirst is the first op (without the reply bit) a dialect may define
	PrivateFirst Op = 0x05

	// PrivateLast is the last op (without the reply bit) a dialect may define
	PrivateLast Op = 0x7F

	// DefaultPacketSize is the receive buffer size used when the transport
	// does not report one (USB 2.0 bulk endpoint size).
	DefaultPacketSize = 512
)

// Global op codes shared by every dialect.
const (
	// OpAck is the generic acknowledgement, payload: STATUS(1)
	OpAck Op = 0x80

	// OpProtoGet queries the device protocol version, payload: VERSION(1) RESERVED(1)
	OpProtoGet Op = 0x01

	// OpProtoGetReply answers OpProtoGet, payload: VERSION(1) RESERVED(1)
	OpProtoGetReply Op = 0x81
)

// Canonical frame lengths of the global commands.
const (
	AckLen           = HeaderSize + 1
	ProtoGetLen      = HeaderSize + 2
	ProtoGetReplyLen = HeaderSize + 2
)

// Status codes carried by OpAck.
const (
	StatusOK        = 0x00
	StatusFail      = 0x01
	StatusResetFail = 0x02
	StatusNoDest    = 0x03
	StatusMismatch  = 0x04
	StatusNoAccess  = 0x05
	StatusBadCmd    = 0x06
	StatusTooShort  = 0x07
	StatusErrOffs   = 0x08
	StatusNoLEEPROM = 0x0A
	StatusNoEEPROM  = 0x0B
	StatusWriteFail = 0x0C
	StatusNoPower   = 0x10
)

// Names of the base dialects.
const (
	GlobalName = "GLOBAL"
	SyncName   = "XTALK-SYNC"
	RawName    = "XTALK-RAW"
)
