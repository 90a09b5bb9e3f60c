package mpp

import (
	"context"
	"fmt"
	"sync"

	"github.com/moffa90/go-astribank/protocol"
	"github.com/moffa90/go-astribank/xtalk"
)

// Device is an Astribank management endpoint speaking MPP.
type Device struct {
	sync *xtalk.Sync
	log  xtalk.Logger

	mu         sync.Mutex
	burnState  BurnState
	eepromType EEPROMType
	status     uint8
	versions   FirmwareVersions
}

// New opens a synchronous engine on t and attaches the MPP dialect.
//
// Example:
//
//	dev, err := mpp.New(iface, xtalk.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	if err := dev.StatusQuery(ctx); err != nil {
//	    return err
//	}
func New(t xtalk.Transport, opts ...xtalk.Option) (*Device, error) {
	s, err := xtalk.NewSync(t, opts...)
	if err != nil {
		return nil, err
	}
	return Attach(s)
}

// Attach registers the MPP dialect on an existing engine.
func Attach(s *xtalk.Sync) (*Device, error) {
	if err := s.SetProtocol(Dialect); err != nil {
		return nil, fmt.Errorf("MPP protocol registration failed: %w", err)
	}
	return &Device{sync: s, log: s.Logger()}, nil
}

// Sync returns the underlying transaction engine.
func (d *Device) Sync() *xtalk.Sync {
	return d.sync
}

// Close closes the engine and its transport.
func (d *Device) Close() error {
	return d.sync.Close()
}

// ProtoQuery asks the device for its MPP protocol version.
func (d *Device) ProtoQuery(ctx context.Context) (uint8, error) {
	return d.sync.ProtoQuery(ctx)
}

func (d *Device) transact(ctx context.Context, op protocol.Op, extra int, fill func(*protocol.Command) error, wantReply bool) (xtalk.Result, error) {
	cmd, err := d.sync.NewCommand(op, extra)
	if err != nil {
		d.logError("new_command failed", "op", op.String(), "error", err)
		return xtalk.Result{}, err
	}
	if fill != nil {
		if err := fill(cmd); err != nil {
			return xtalk.Result{}, err
		}
	}
	res, err := d.sync.ProcessCommand(ctx, cmd, wantReply)
	if err != nil {
		d.logError("process_command failed", "op", op.String(), "error", err)
		return res, err
	}
	return res, nil
}

// StatusQuery reads the EEPROM type, the FPGA status and the firmware
// versions, and caches them on the device.
func (d *Device) StatusQuery(ctx context.Context) error {
	res, err := d.transact(ctx, OpStatusGet, 0, nil, true)
	if err != nil {
		return fmt.Errorf("status query: %w", err)
	}
	p := res.Reply.Payload()
	i2cs, status := p[0], p[1]
	versions := decodeFirmwareVersions(p[2:])

	d.mu.Lock()
	d.eepromType = EEPROMType((i2cs >> 3) & 0x3)
	d.status = status
	d.versions = versions
	d.mu.Unlock()

	d.logDebug("status", "eeprom_type", d.EEPROMType().String(), "fpga_loaded", status&0x01 != 0,
		"usb", versions.USBString(), "fpga", versions.FPGAString(), "eeprom", versions.EEPROMString())
	return nil
}

// EEPROMType returns the type cached by the last StatusQuery.
func (d *Device) EEPROMType() EEPROMType {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eepromType
}

// FPGALoaded reports bit 0 of the cached status byte.
func (d *Device) FPGALoaded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status&0x01 != 0
}

// Status returns the raw status byte cached by the last StatusQuery.
func (d *Device) Status() uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// Versions returns the firmware versions cached by the last StatusQuery.
func (d *Device) Versions() FirmwareVersions {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.versions
}

// EEPROMSet writes the identity table.
func (d *Device) EEPROMSet(ctx context.Context, t EEPROMTable) error {
	_, err := d.transact(ctx, OpEEPROMSet, 0, func(c *protocol.Command) error {
		b, _ := t.MarshalBinary()
		return c.PutBytes(0, b)
	}, true)
	if err != nil {
		return fmt.Errorf("eeprom set: %w", err)
	}
	return nil
}

// CapsGet reads the identity table, the capabilities and the key.
func (d *Device) CapsGet(ctx context.Context) (EEPROMTable, Capabilities, CapKey, error) {
	var key CapKey
	res, err := d.transact(ctx, OpCapsGet, 0, nil, true)
	if err != nil {
		return EEPROMTable{}, Capabilities{}, key, fmt.Errorf("caps get: %w", err)
	}
	p := res.Reply.Payload()
	t := decodeEEPROMTable(p[0:eepromTableSize])
	caps := decodeCapabilities(p[eepromTableSize : eepromTableSize+capabilitiesSize])
	copy(key[:], p[eepromTableSize+capabilitiesSize:capsPayloadSize])
	return t, caps, key, nil
}

// CapsSet writes the identity table, the capabilities and the key.
func (d *Device) CapsSet(ctx context.Context, t EEPROMTable, caps Capabilities, key CapKey) error {
	_, err := d.transact(ctx, OpCapsSet, 0, func(c *protocol.Command) error {
		b := make([]byte, capsPayloadSize)
		t.encode(b[0:eepromTableSize])
		caps.encode(b[eepromTableSize : eepromTableSize+capabilitiesSize])
		copy(b[eepromTableSize+capabilitiesSize:], key[:])
		return c.PutBytes(0, b)
	}, true)
	if err != nil {
		return fmt.Errorf("caps set: %w", err)
	}
	return nil
}

// ExtraInfoGet reads the vendor text. Trailing erased (0xFF) bytes are
// replaced by NULs.
func (d *Device) ExtraInfoGet(ctx context.Context) (ExtraInfo, error) {
	var info ExtraInfo
	res, err := d.transact(ctx, OpExtraInfoGet, 0, nil, true)
	if err != nil {
		return info, fmt.Errorf("extrainfo get: %w", err)
	}
	copy(info[:], res.Reply.Payload())
	for i := len(info) - 1; i >= 0 && info[i] == 0xFF; i-- {
		info[i] = 0
	}
	return info, nil
}

// ExtraInfoSet writes the vendor text.
func (d *Device) ExtraInfoSet(ctx context.Context, info ExtraInfo) error {
	_, err := d.transact(ctx, OpExtraInfoSet, 0, func(c *protocol.Command) error {
		return c.PutBytes(0, info[:])
	}, true)
	if err != nil {
		return fmt.Errorf("extrainfo set: %w", err)
	}
	return nil
}

// Renumerate asks the device to drop off the bus and reappear. The device
// does not answer.
func (d *Device) Renumerate(ctx context.Context) error {
	if _, err := d.transact(ctx, OpRenum, 0, nil, false); err != nil {
		return fmt.Errorf("renumerate: %w", err)
	}
	return nil
}

// Reset restarts the FPGA firmware, and the USB firmware too when full is
// set. The device does not answer.
func (d *Device) Reset(ctx context.Context, full bool) error {
	op := OpHalfReset
	if full {
		op = OpReset
	}
	d.logDebug("reset", "full", full)
	if _, err := d.transact(ctx, op, 0, nil, false); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

// EEPROMBlockRead reads up to len(buf) EEPROM bytes at offset into buf and
// returns the count copied. A longer reply is truncated with a warning.
func (d *Device) EEPROMBlockRead(ctx context.Context, offset uint16, buf []byte) (int, error) {
	if len(buf) > 0xFFFF {
		return 0, fmt.Errorf("%w: block read of %d bytes", protocol.ErrInvalidArgument, len(buf))
	}
	length := uint16(len(buf))
	d.logDebug("block read", "offset", offset, "len", length)

	res, err := d.transact(ctx, OpEEPROMBlockRead, 0, func(c *protocol.Command) error {
		if err := c.PutUint16(0, offset); err != nil {
			return err
		}
		return c.PutUint16(2, length)
	}, true)
	if err != nil {
		return 0, fmt.Errorf("eeprom block read: %w", err)
	}

	replyOffset, _ := res.Reply.Uint16At(0)
	data := res.Reply.Payload()[2:]
	d.logInfo("block read reply", "size", len(data), "offset", fmt.Sprintf("0x%X", replyOffset))
	if len(data) > len(buf) {
		d.logError("Truncating reply", "was", len(data), "now", len(buf))
		data = data[:len(buf)]
	}
	return copy(buf, data), nil
}

func (d *Device) logDebug(msg string, keysAndValues ...interface{}) {
	if d.log != nil {
		d.log.Debug(msg, keysAndValues...)
	}
}

func (d *Device) logInfo(msg string, keysAndValues ...interface{}) {
	if d.log != nil {
		d.log.Info(msg, keysAndValues...)
	}
}

func (d *Device) logError(msg string, keysAndValues ...interface{}) {
	if d.log != nil {
		d.log.Error(msg, keysAndValues...)
	}
}
