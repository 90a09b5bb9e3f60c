package mpp

import (
	"context"
	"fmt"

	"github.com/moffa90/go-astribank/protocol"
)

// TwsWatchdog reports whether the TwinStar watchdog is on guard.
func (d *Device) TwsWatchdog(ctx context.Context) (bool, error) {
	v, err := d.twsGet(ctx, OpTwsWatchdogGet)
	if err != nil {
		return false, fmt.Errorf("twinstar watchdog: %w", err)
	}
	d.logDebug("twinstar watchdog", "wd_active", v)
	return v == 1, nil
}

// TwsSetWatchdog puts the watchdog on or off guard.
func (d *Device) TwsSetWatchdog(ctx context.Context, on bool) error {
	var v uint8
	if on {
		v = 1
	}
	_, err := d.transact(ctx, OpTwsWatchdogSet, 0, func(c *protocol.Command) error {
		return c.PutUint8(0, v)
	}, true)
	if err != nil {
		return fmt.Errorf("twinstar set watchdog: %w", err)
	}
	return nil
}

// TwsPowerState returns the power bitmap, bit i for USB port i.
func (d *Device) TwsPowerState(ctx context.Context) (uint8, error) {
	v, err := d.twsGet(ctx, OpTwsPowerGet)
	if err != nil {
		return 0, fmt.Errorf("twinstar power state: %w", err)
	}
	d.logDebug("twinstar power", "power", v)
	return v, nil
}

// TwsPortNum returns the USB port the telephony side is connected to.
func (d *Device) TwsPortNum(ctx context.Context) (uint8, error) {
	v, err := d.twsGet(ctx, OpTwsPortGet)
	if err != nil {
		return 0, fmt.Errorf("twinstar port: %w", err)
	}
	d.logDebug("twinstar port", "portnum", v)
	return v, nil
}

// TwsSetPortNum switches the telephony side to port 0 or 1. The device
// does not answer.
func (d *Device) TwsSetPortNum(ctx context.Context, port uint8) error {
	if port >= 2 {
		d.logError("Invalid portnum", "port", port)
		return fmt.Errorf("twinstar set port: %w: port %d", protocol.ErrInvalidArgument, port)
	}
	_, err := d.transact(ctx, OpTwsPortSet, 0, func(c *protocol.Command) error {
		return c.PutUint8(0, port)
	}, false)
	if err != nil {
		return fmt.Errorf("twinstar set port: %w", err)
	}
	return nil
}

func (d *Device) twsGet(ctx context.Context, op protocol.Op) (uint8, error) {
	res, err := d.transact(ctx, op, 0, nil, true)
	if err != nil {
		return 0, err
	}
	return res.Reply.Uint8At(0)
}
