package protocol

import "fmt"

// Dialect is an immutable table describing one XTALK protocol dialect:
// the frame length of every admissible op code and the messages for the
// status codes carried by OpAck.
type Dialect struct {
	name     string
	version  uint8
	commands [MaxOps]CommandDesc
	statuses [MaxStatus]string
}

// NewDialect builds a dialect from its command descriptors and status messages.
// Descriptors are placed by their Op; duplicates are rejected.
func NewDialect(name string, version uint8, commands []CommandDesc, statuses map[uint8]string) (*Dialect, error) {
	d := &Dialect{name: name, version: version}
	for _, c := range commands {
		if !c.Registered() {
			return nil, fmt.Errorf("%w: %s: descriptor for op %s has no name", ErrInvalidDialect, name, c.Op)
		}
		if c.Len < HeaderSize {
			return nil, fmt.Errorf("%w: %s: %s length %d shorter than header", ErrInvalidDialect, name, c.Name, c.Len)
		}
		if d.commands[c.Op].Registered() {
			return nil, fmt.Errorf("%w: %s: op %s defined twice", ErrInvalidDialect, name, c.Op)
		}
		d.commands[c.Op] = c
	}
	for code, msg := range statuses {
		if int(code) >= MaxStatus {
			return nil, fmt.Errorf("%w: %s: status 0x%02X out of range", ErrInvalidDialect, name, code)
		}
		d.statuses[code] = msg
	}
	return d, nil
}

// MustDialect is like NewDialect but panics on error. It is meant for
// package-level dialect tables.
func MustDialect(name string, version uint8, commands []CommandDesc, statuses map[uint8]string) *Dialect {
	d, err := NewDialect(name, version, commands, statuses)
	if err != nil {
		panic(err)
	}
	return d
}

// Name returns the dialect name.
func (d *Dialect) Name() string {
	return d.name
}

// Version returns the declared protocol version byte.
func (d *Dialect) Version() uint8 {
	return d.version
}

// Lookup returns the descriptor of op, or false if op is not registered.
func (d *Dialect) Lookup(op Op) (CommandDesc, bool) {
	c := d.commands[op]
	return c, c.Registered()
}

// Commands returns the registered descriptors in op order.
func (d *Dialect) Commands() []CommandDesc {
	var out []CommandDesc
	for _, c := range d.commands {
		if c.Registered() {
			out = append(out, c)
		}
	}
	return out
}

// StatusMessage returns the message for an ACK status code.
func (d *Dialect) StatusMessage(code uint8) string {
	if int(code) < MaxStatus && d.statuses[code] != "" {
		return d.statuses[code]
	}
	return fmt.Sprintf("Unknown status 0x%02X", code)
}

// Merge layers overlay on top of base and returns the resulting dialect.
// Overlay descriptors must lie in the private range. Ops outside the private
// range come from base; status messages come from overlay when present and
// from base otherwise. A nil overlay yields base's global part under the
// name GLOBAL.
func Merge(base, overlay *Dialect) (*Dialect, error) {
	if base == nil {
		return nil, fmt.Errorf("%w: nil base dialect", ErrInvalidDialect)
	}
	d := &Dialect{name: GlobalName}
	if overlay != nil {
		d.name = overlay.name
		d.version = overlay.version
	}
	for i := 0; i < MaxOps; i++ {
		op := Op(i)
		if overlay != nil && overlay.commands[i].Registered() {
			if !op.IsPrivate() {
				return nil, fmt.Errorf("%w: %s: %s (op %s) outside private range",
					ErrInvalidDialect, overlay.name, overlay.commands[i].Name, op)
			}
			d.commands[i] = overlay.commands[i]
			continue
		}
		if !op.IsPrivate() {
			d.commands[i] = base.commands[i]
		}
	}
	for i := 0; i < MaxStatus; i++ {
		if overlay != nil && overlay.statuses[i] != "" {
			d.statuses[i] = overlay.statuses[i]
		} else {
			d.statuses[i] = base.statuses[i]
		}
	}
	return d, nil
}

var globalStatuses = map[uint8]string{
	StatusOK:        "Acknowledges previous command",
	StatusFail:      "Last command failed",
	StatusResetFail: "reset failed",
	StatusNoDest:    "No destination is selected",
	StatusMismatch:  "Data mismatch",
	StatusNoAccess:  "No access",
	StatusBadCmd:    "Bad command",
	StatusTooShort:  "Packet is too short",
	StatusErrOffs:   "Offset error (not used)",
	StatusNoLEEPROM: "Large EEPROM was not found",
	StatusNoEEPROM:  "No EEPROM was found",
	StatusWriteFail: "Writing to device failed",
	StatusNoPower:   "No power on USB connector",
}

// SyncBase is the base dialect of the synchronous transaction engine.
var SyncBase = MustDialect(SyncName, 0, []CommandDesc{
	{Op: OpAck, Name: "ACK", Len: AckLen},
	{Op: OpProtoGet, Name: "PROTO_GET", Len: ProtoGetLen},
	{Op: OpProtoGetReply, Name: "PROTO_GET_REPLY", Len: ProtoGetReplyLen},
}, globalStatuses)

// RawBase is the base dialect of raw mode. Only OpAck is known.
var RawBase = MustDialect(RawName, 0, []CommandDesc{
	{Op: OpAck, Name: "ACK", Len: AckLen},
}, globalStatuses)
