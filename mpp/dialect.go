package mpp

import "github.com/moffa90/go-astribank/protocol"

// Version is the MPP protocol version announced in PROTO_GET.
const Version = 0x14

// MPP operation codes. The reply bit (0x80) marks frames from the device.
const (
	OpDevSendStart protocol.Op = 0x05
	OpDevSendSeg   protocol.Op = 0x07
	OpDevSendEnd   protocol.Op = 0x09
	OpRenum        protocol.Op = 0x0B
	OpEEPROMSet    protocol.Op = 0x0D

	OpCapsGet      protocol.Op = 0x0E
	OpCapsGetReply protocol.Op = 0x8E
	OpCapsSet      protocol.Op = 0x0F

	OpStatusGet      protocol.Op = 0x11
	OpStatusGetReply protocol.Op = 0x91

	OpExtraInfoGet      protocol.Op = 0x13
	OpExtraInfoGetReply protocol.Op = 0x93
	OpExtraInfoSet      protocol.Op = 0x15

	OpEEPROMBlockRead      protocol.Op = 0x27
	OpEEPROMBlockReadReply protocol.Op = 0xA7

	OpTwsWatchdogSet      protocol.Op = 0x31
	OpTwsWatchdogGet      protocol.Op = 0x32
	OpTwsWatchdogGetReply protocol.Op = 0xB2
	OpTwsPortSet          protocol.Op = 0x34
	OpTwsPortGet          protocol.Op = 0x35
	OpTwsPortGetReply     protocol.Op = 0xB5
	OpTwsPowerGet         protocol.Op = 0x36
	OpTwsPowerGetReply    protocol.Op = 0xB6

	OpSerSend protocol.Op = 0x37
	OpSerRecv protocol.Op = 0xB7

	OpReset     protocol.Op = 0x45
	OpHalfReset protocol.Op = 0x47
)

// MPP status codes carried by ACK frames.
const (
	StatusOK            = 0x00
	StatusFail          = 0x01
	StatusResetFail     = 0x02
	StatusNoDest        = 0x03
	StatusMismatch      = 0x04
	StatusNoAccess      = 0x05
	StatusBadCmd        = 0x06
	StatusTooShort      = 0x07
	StatusOffsetError   = 0x08
	StatusNoCode        = 0x09
	StatusNoLargeEEPROM = 0x0A
	StatusNoEEPROM      = 0x0B
	StatusWriteFail     = 0x0C
	StatusFPGAError     = 0x0D
	StatusKeyError      = 0x0E
	StatusNoCaps        = 0x0F
	StatusNoPower       = 0x10
	StatusCapsFPGA      = 0x11
)

const hdr = protocol.HeaderSize

// Dialect is the MPP command table. Lengths include the 5-byte header;
// segment and serial frames carry a variable tail on top.
var Dialect = protocol.MustDialect("MPP", Version, []protocol.CommandDesc{
	{Op: OpStatusGet, Name: "STATUS_GET", Len: hdr},
	{Op: OpStatusGetReply, Name: "STATUS_GET_REPLY", Len: hdr + 2 + firmwareVersionsSize},
	{Op: OpEEPROMSet, Name: "EEPROM_SET", Len: hdr + eepromTableSize},
	{Op: OpCapsGet, Name: "CAPS_GET", Len: hdr},
	{Op: OpCapsGetReply, Name: "CAPS_GET_REPLY", Len: hdr + capsPayloadSize},
	{Op: OpCapsSet, Name: "CAPS_SET", Len: hdr + capsPayloadSize},
	{Op: OpExtraInfoGet, Name: "EXTRAINFO_GET", Len: hdr},
	{Op: OpExtraInfoGetReply, Name: "EXTRAINFO_GET_REPLY", Len: hdr + ExtraInfoSize},
	{Op: OpExtraInfoSet, Name: "EXTRAINFO_SET", Len: hdr + ExtraInfoSize},
	{Op: OpRenum, Name: "RENUM", Len: hdr},
	{Op: OpEEPROMBlockRead, Name: "EEPROM_BLK_RD", Len: hdr + 4},
	{Op: OpEEPROMBlockReadReply, Name: "EEPROM_BLK_RD_REPLY", Len: hdr + 2},
	{Op: OpDevSendSeg, Name: "DEV_SEND_SEG", Len: hdr + 2},
	{Op: OpDevSendStart, Name: "DEV_SEND_START", Len: hdr + 1 + VersionLen},
	{Op: OpDevSendEnd, Name: "DEV_SEND_END", Len: hdr},
	{Op: OpReset, Name: "RESET", Len: hdr},
	{Op: OpHalfReset, Name: "HALF_RESET", Len: hdr},
	{Op: OpSerSend, Name: "SER_SEND", Len: hdr},
	{Op: OpSerRecv, Name: "SER_RECV", Len: hdr},
	{Op: OpTwsWatchdogSet, Name: "TWS_WD_MODE_SET", Len: hdr + 1},
	{Op: OpTwsWatchdogGet, Name: "TWS_WD_MODE_GET", Len: hdr},
	{Op: OpTwsWatchdogGetReply, Name: "TWS_WD_MODE_GET_REPLY", Len: hdr + 1},
	{Op: OpTwsPortSet, Name: "TWS_PORT_SET", Len: hdr + 1},
	{Op: OpTwsPortGet, Name: "TWS_PORT_GET", Len: hdr},
	{Op: OpTwsPortGetReply, Name: "TWS_PORT_GET_REPLY", Len: hdr + 1},
	{Op: OpTwsPowerGet, Name: "TWS_PWR_GET", Len: hdr},
	{Op: OpTwsPowerGetReply, Name: "TWS_PWR_GET_REPLY", Len: hdr + 1},
}, map[uint8]string{
	StatusOK:            "Acknowledges previous command",
	StatusFail:          "Last command failed",
	StatusResetFail:     "Reset failed",
	StatusNoDest:        "No destination is selected",
	StatusMismatch:      "Data mismatch",
	StatusNoAccess:      "No access",
	StatusBadCmd:        "Bad command",
	StatusTooShort:      "Packet is too short",
	StatusOffsetError:   "Offset error",
	StatusNoCode:        "Source was not burned before",
	StatusNoLargeEEPROM: "Large EEPROM was not found",
	StatusNoEEPROM:      "No EEPROM was found",
	StatusWriteFail:     "Writing to device failed",
	StatusFPGAError:     "FPGA error",
	StatusKeyError:      "Bad Capabilities Key",
	StatusNoCaps:        "No matching capability",
	StatusNoPower:       "No power on USB connector",
	StatusCapsFPGA:      "Setting of the capabilities while FPGA is loaded",
})
