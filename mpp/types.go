package mpp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// Wire sizes of the MPP payload structures.
const (
	LabelSize            = 8
	VersionLen           = 6
	KeySize              = 16
	ExtraInfoSize        = 24
	eepromTableSize      = 16
	capabilitiesSize     = 12
	firmwareVersionsSize = 3 * VersionLen
	capsPayloadSize      = eepromTableSize + capabilitiesSize + KeySize
)

// EEPROMType is decoded from bits 3-4 of the status reply i2cs byte.
type EEPROMType uint8

const (
	EEPROMNone EEPROMType = iota
	EEPROMSmall
	EEPROMLarge
	EEPROMUnused
)

func (t EEPROMType) String() string {
	switch t {
	case EEPROMNone:
		return "NONE"
	case EEPROMSmall:
		return "SMALL"
	case EEPROMLarge:
		return "LARGE"
	case EEPROMUnused:
		return "UNUSED"
	}
	return fmt.Sprintf("EEPROMType(%d)", uint8(t))
}

// Dest selects the target of a firmware upload.
type Dest uint8

const (
	DestNone   Dest = 0x00
	DestFPGA   Dest = 0x01
	DestEEPROM Dest = 0x02
)

func (d Dest) String() string {
	switch d {
	case DestNone:
		return "NONE"
	case DestFPGA:
		return "FPGA"
	case DestEEPROM:
		return "EEPROM"
	}
	return fmt.Sprintf("Dest(%d)", uint8(d))
}

// ParseDest maps "fpga" and "eeprom" (any case) to a Dest.
func ParseDest(s string) (Dest, error) {
	switch strings.ToLower(s) {
	case "fpga":
		return DestFPGA, nil
	case "eeprom":
		return DestEEPROM, nil
	}
	return DestNone, fmt.Errorf("unknown destination %q", s)
}

// BurnState tracks a firmware upload session.
type BurnState uint8

const (
	BurnNone BurnState = iota
	BurnStarted
	BurnEnded
	BurnFailed
)

func (s BurnState) String() string {
	switch s {
	case BurnNone:
		return "NONE"
	case BurnStarted:
		return "STARTED"
	case BurnEnded:
		return "ENDED"
	case BurnFailed:
		return "FAILED"
	}
	return fmt.Sprintf("BurnState(%d)", uint8(s))
}

// EEPROMTable is the identity block common to all EEPROM types.
//
// Wire format (16 bytes, little-endian):
//
//	[SOURCE(1)][VENDOR(2)][PRODUCT(2)][RELEASE(2)][CONFIG(1)][LABEL(8)]
type EEPROMTable struct {
	Source  uint8 // 0xC0 small EEPROM, 0xC2 large EEPROM
	Vendor  uint16
	Product uint16
	Release uint16 // BCD, major in the high byte
	Config  uint8  // must be 0
	Label   [LabelSize]byte
}

// ReleaseString formats Release as "major.minor".
func (t EEPROMTable) ReleaseString() string {
	return fmt.Sprintf("%d.%d", (t.Release>>8)&0xFF, t.Release&0xFF)
}

// LabelString returns the label without its erased (0xFF) tail, up to
// its first NUL.
func (t EEPROMTable) LabelString() string {
	return cString(trimErased(t.Label[:]))
}

func (t EEPROMTable) encode(b []byte) {
	b[0] = t.Source
	binary.LittleEndian.PutUint16(b[1:3], t.Vendor)
	binary.LittleEndian.PutUint16(b[3:5], t.Product)
	binary.LittleEndian.PutUint16(b[5:7], t.Release)
	b[7] = t.Config
	copy(b[8:16], t.Label[:])
}

func decodeEEPROMTable(b []byte) EEPROMTable {
	var t EEPROMTable
	t.Source = b[0]
	t.Vendor = binary.LittleEndian.Uint16(b[1:3])
	t.Product = binary.LittleEndian.Uint16(b[3:5])
	t.Release = binary.LittleEndian.Uint16(b[5:7])
	t.Config = b[7]
	copy(t.Label[:], b[8:16])
	return t
}

// MarshalBinary encodes the table in wire order.
func (t EEPROMTable) MarshalBinary() ([]byte, error) {
	b := make([]byte, eepromTableSize)
	t.encode(b)
	return b, nil
}

// UnmarshalBinary decodes a 16-byte table.
func (t *EEPROMTable) UnmarshalBinary(b []byte) error {
	if len(b) < eepromTableSize {
		return fmt.Errorf("eeprom table: need %d bytes, got %d", eepromTableSize, len(b))
	}
	*t = decodeEEPROMTable(b)
	return nil
}

// Capabilities describes the port mix licensed on the unit.
//
// Wire format (12 bytes):
//
//	[FXS(1)][FXO(1)][BRI(1)][PRI(1)][EXTRA(1)][ECHO(1)][RESERVED(2)][TIMESTAMP(4)]
type Capabilities struct {
	PortsFXS      uint8
	PortsFXO      uint8
	PortsBRI      uint8
	PortsPRI      uint8
	ExtraFeatures uint8
	PortsEcho     uint8
	Reserved      [2]byte
	Timestamp     uint32
}

// TwinStar reports the TwinStar feature bit.
func (c Capabilities) TwinStar() bool {
	return c.ExtraFeatures&0x01 != 0
}

// SetTwinStar sets or clears the TwinStar feature bit.
func (c *Capabilities) SetTwinStar(on bool) {
	if on {
		c.ExtraFeatures |= 0x01
	} else {
		c.ExtraFeatures &^= 0x01
	}
}

func (c Capabilities) encode(b []byte) {
	b[0] = c.PortsFXS
	b[1] = c.PortsFXO
	b[2] = c.PortsBRI
	b[3] = c.PortsPRI
	b[4] = c.ExtraFeatures
	b[5] = c.PortsEcho
	copy(b[6:8], c.Reserved[:])
	binary.LittleEndian.PutUint32(b[8:12], c.Timestamp)
}

func decodeCapabilities(b []byte) Capabilities {
	var c Capabilities
	c.PortsFXS = b[0]
	c.PortsFXO = b[1]
	c.PortsBRI = b[2]
	c.PortsPRI = b[3]
	c.ExtraFeatures = b[4]
	c.PortsEcho = b[5]
	copy(c.Reserved[:], b[6:8])
	c.Timestamp = binary.LittleEndian.Uint32(b[8:12])
	return c
}

// MarshalBinary encodes the capabilities in wire order.
func (c Capabilities) MarshalBinary() ([]byte, error) {
	b := make([]byte, capabilitiesSize)
	c.encode(b)
	return b, nil
}

// UnmarshalBinary decodes a 12-byte capabilities block.
func (c *Capabilities) UnmarshalBinary(b []byte) error {
	if len(b) < capabilitiesSize {
		return fmt.Errorf("capabilities: need %d bytes, got %d", capabilitiesSize, len(b))
	}
	*c = decodeCapabilities(b)
	return nil
}

// CapKey authorizes a capabilities change.
type CapKey [KeySize]byte

// ExtraInfo is free vendor text. Unwritten EEPROM bytes read back as 0xFF.
type ExtraInfo [ExtraInfoSize]byte

// NewExtraInfo builds an ExtraInfo from s, truncated to 24 bytes.
func NewExtraInfo(s string) ExtraInfo {
	var e ExtraInfo
	copy(e[:], s)
	return e
}

// String returns the text with trailing 0xFF bytes dropped, cut at the
// first NUL.
func (e ExtraInfo) String() string {
	return cString(trimErased(e[:]))
}

// FirmwareVersions holds the version tags reported by STATUS_GET.
type FirmwareVersions struct {
	USB    [VersionLen]byte
	FPGA   [VersionLen]byte
	EEPROM [VersionLen]byte
}

func decodeFirmwareVersions(b []byte) FirmwareVersions {
	var v FirmwareVersions
	copy(v.USB[:], b[0:VersionLen])
	copy(v.FPGA[:], b[VersionLen:2*VersionLen])
	copy(v.EEPROM[:], b[2*VersionLen:3*VersionLen])
	return v
}

// USBString returns the USB firmware tag up to its first NUL.
func (v FirmwareVersions) USBString() string { return cString(v.USB[:]) }

// FPGAString returns the FPGA firmware tag up to its first NUL.
func (v FirmwareVersions) FPGAString() string { return cString(v.FPGA[:]) }

// EEPROMString returns the EEPROM firmware tag up to its first NUL.
func (v FirmwareVersions) EEPROMString() string { return cString(v.EEPROM[:]) }

// TwinStarSupported reports whether TwinStar commands make sense for a
// unit: the capability bit must be set and the product must be in the
// 0x116x family.
func TwinStarSupported(eeprom EEPROMTable, caps Capabilities) bool {
	return caps.TwinStar() && eeprom.Product&0xFFF0 == 0x1160
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func trimErased(b []byte) []byte {
	i := len(b)
	for i > 0 && b[i-1] == 0xFF {
		i--
	}
	return b[:i]
}
