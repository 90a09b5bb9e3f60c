package mpp

import (
	"context"
	"fmt"

	"github.com/moffa90/go-astribank/protocol"
)

// BurnState returns the state of the current upload session.
func (d *Device) BurnState() BurnState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.burnState
}

func (d *Device) setBurnState(s BurnState) {
	d.mu.Lock()
	d.burnState = s
	d.mu.Unlock()
}

// SendStart opens an upload session to dest. version is the 6-byte image
// version tag; shorter tags are NUL padded. The session becomes STARTED
// when the device acknowledges, FAILED otherwise.
func (d *Device) SendStart(ctx context.Context, dest Dest, version string) error {
	d.logDebug("send start", "dest", dest.String(), "version", version)
	res, err := d.transact(ctx, OpDevSendStart, 0, func(c *protocol.Command) error {
		if err := c.PutUint8(0, uint8(dest)); err != nil {
			return err
		}
		var tag [VersionLen]byte
		copy(tag[:], version)
		return c.PutBytes(1, tag[:])
	}, true)
	if err != nil || res.N <= 0 {
		d.setBurnState(BurnFailed)
		if err == nil {
			err = fmt.Errorf("%w: empty reply", protocol.ErrNoReply)
		}
		return fmt.Errorf("send start: %w", err)
	}
	d.setBurnState(BurnStarted)
	return nil
}

// SendSeg sends one image segment at offset. It is refused without any
// I/O unless the session is STARTED; a failed segment fails the session.
func (d *Device) SendSeg(ctx context.Context, offset uint16, data []byte) error {
	if st := d.BurnState(); st != BurnStarted {
		d.logError("Tried to send a segment", "burn_state", st.String())
		return fmt.Errorf("send segment: %w: burn state is %s", protocol.ErrInvalidState, st)
	}
	if len(data) > 0 {
		d.logDebug("send segment", "len", len(data), "offset", offset, "first", data[0])
	}
	_, err := d.transact(ctx, OpDevSendSeg, len(data), func(c *protocol.Command) error {
		if err := c.PutUint16(0, offset); err != nil {
			return err
		}
		return c.PutBytes(2, data)
	}, true)
	if err != nil {
		d.setBurnState(BurnFailed)
		return fmt.Errorf("send segment at 0x%04X: %w", offset, err)
	}
	return nil
}

// SendEnd closes the session. It becomes ENDED when the device
// acknowledges, FAILED otherwise.
func (d *Device) SendEnd(ctx context.Context) error {
	res, err := d.transact(ctx, OpDevSendEnd, 0, nil, true)
	if err != nil || res.N <= 0 {
		d.setBurnState(BurnFailed)
		if err == nil {
			err = fmt.Errorf("%w: empty reply", protocol.ErrNoReply)
		}
		return fmt.Errorf("send end: %w", err)
	}
	d.setBurnState(BurnEnded)
	return nil
}
