package mpp

import (
	"context"
	"fmt"

	"github.com/moffa90/go-astribank/protocol"
)

// Serial sub-protocol operations tunneled to the FPGA.
const (
	serCardInfoGet = 0x1
	serStatGet     = 0x3
)

// Serial status bits.
const (
	SerStatWatchdogReady = 0x01
	SerStatXPDAlive      = 0x02
)

// SerialCmd tunnels in to the FPGA serial channel and returns the answer.
// The answer always has the size of the request.
func (d *Device) SerialCmd(ctx context.Context, in []byte) ([]byte, error) {
	d.logDebug("serial command", "len", len(in))
	res, err := d.transact(ctx, OpSerSend, len(in), func(c *protocol.Command) error {
		return c.PutBytes(0, in)
	}, true)
	if err != nil {
		return nil, fmt.Errorf("serial command: %w", err)
	}
	out, err := res.Reply.BytesAt(0, len(in))
	if err != nil {
		return nil, fmt.Errorf("serial command: %w", err)
	}
	return append([]byte(nil), out...), nil
}

// CardInfo returns the type byte (type<<4 | subtype) and the status byte
// (bit 0: PIC burned) of the card in slot unit.
func (d *Device) CardInfo(ctx context.Context, unit int) (cardType, status uint8, err error) {
	out, err := d.SerialCmd(ctx, []byte{serCardInfoGet, uint8(unit << 4), 0, 0})
	if err != nil {
		return 0, 0, fmt.Errorf("card %d info: %w", unit, err)
	}
	return out[2], out[3], nil
}

// SerialStat returns the FPGA configuration number and its status bits.
func (d *Device) SerialStat(ctx context.Context) (fpgaConfig, status uint8, err error) {
	out, err := d.SerialCmd(ctx, []byte{serStatGet, 0, 0})
	if err != nil {
		return 0, 0, fmt.Errorf("fpga stat: %w", err)
	}
	return out[1], out[2], nil
}
