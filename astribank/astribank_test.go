package astribank

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-astribank/internal/mockdev"
	"github.com/moffa90/go-astribank/mpp"
	"github.com/moffa90/go-astribank/protocol"
	"github.com/moffa90/go-astribank/xtalk"
	"github.com/moffa90/go-astribank/xusb"
)

// fakeUSB serves the DSP simulator on interface 0 and the MPP simulator on
// interface 1.
type fakeUSB struct {
	info   xusb.Info
	dsp    *mockdev.DSP
	mpp    *mockdev.Astribank
	claims []int
	failOn int
	closed bool
}

func newFakeUSB() *fakeUSB {
	return &fakeUSB{
		info: xusb.Info{
			Bus:          1,
			Address:      7,
			Vendor:       xusb.VendorXorcom,
			Product:      0x1163,
			SpecName:     "astribank2-TWINSTAR",
			Manufacturer: "Xorcom LTD",
			ProductName:  "Astribank2-TWINSTAR",
			Serial:       "XR0200",
			Open:         true,
		},
		dsp:    mockdev.NewDSP(),
		mpp:    mockdev.NewAstribank(),
		failOn: -1,
	}
}

func (f *fakeUSB) Info() xusb.Info { return f.info }

func (f *fakeUSB) Claim(num int) (xtalk.Transport, error) {
	f.claims = append(f.claims, num)
	if num == f.failOn {
		return nil, fmt.Errorf("claim %d: busy", num)
	}
	switch num {
	case XPPInterface:
		return f.dsp, nil
	case MPPInterface:
		return f.mpp, nil
	}
	return nil, fmt.Errorf("no interface %d", num)
}

func (f *fakeUSB) Close() error {
	f.closed = true
	return nil
}

func TestMPPRunsStatusQuery(t *testing.T) {
	usb := newFakeUSB()
	usb.mpp.SetEEPROMType(2)
	usb.mpp.SetFPGALoaded(true)
	ab := New(usb)
	defer ab.Close()

	d, err := ab.MPP(context.Background())
	require.NoError(t, err)
	assert.Equal(t, mpp.EEPROMLarge, d.EEPROMType())
	assert.True(t, d.FPGALoaded())

	again, err := ab.MPP(context.Background())
	require.NoError(t, err)
	assert.Same(t, d, again)
	assert.Equal(t, []int{MPPInterface}, usb.claims, "interface claimed once")
}

func TestMPPStatusFailure(t *testing.T) {
	usb := newFakeUSB()
	usb.mpp.Nack(byte(mpp.OpStatusGet), protocol.StatusNoAccess)
	ab := New(usb)
	defer ab.Close()

	_, err := ab.MPP(context.Background())
	require.Error(t, err)
	assert.True(t, protocol.IsProtocolError(err))
	assert.Contains(t, err.Error(), "001/007")
}

func TestClaimFailures(t *testing.T) {
	usb := newFakeUSB()
	usb.failOn = XPPInterface
	ab := New(usb)
	defer ab.Close()

	_, err := ab.XPP()
	assert.ErrorContains(t, err, "claim XPP interface")

	usb.failOn = MPPInterface
	_, err = ab.MPP(context.Background())
	assert.ErrorContains(t, err, "claim MPP interface")
}

func TestSendRecvRouting(t *testing.T) {
	usb := newFakeUSB()
	ab := New(usb)
	defer ab.Close()
	ctx := context.Background()

	_, err := ab.Send(ctx, XPPInterface, []byte{1})
	assert.ErrorIs(t, err, protocol.ErrInvalidState, "unclaimed interface")

	_, err = ab.Send(ctx, 2, []byte{1})
	assert.ErrorIs(t, err, protocol.ErrInvalidArgument)
	_, err = ab.Recv(ctx, -1, make([]byte, 8))
	assert.ErrorIs(t, err, protocol.ErrInvalidArgument)

	_, err = ab.MPP(ctx)
	require.NoError(t, err)
	before := len(usb.mpp.Frames())

	// A raw STATUS_GET frame: len=5 seq=9 op=0x11.
	frame := []byte{0x05, 0x00, 0x09, 0x00, byte(mpp.OpStatusGet)}
	n, err := ab.Send(ctx, MPPInterface, frame)
	require.NoError(t, err)
	assert.Equal(t, len(frame), n)
	assert.Len(t, usb.mpp.Frames(), before+1)

	buf := make([]byte, protocol.DefaultPacketSize)
	n, err = ab.Recv(ctx, MPPInterface, buf)
	require.NoError(t, err)
	h, err := protocol.DecodeHeader(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, uint16(9), h.Seq)
	assert.Equal(t, mpp.OpStatusGet.Reply(), h.Op)
}

func TestShowInfo(t *testing.T) {
	ab := New(newFakeUSB())
	defer ab.Close()

	var short bytes.Buffer
	ab.ShowInfo(&short, false)
	assert.Equal(t, "001/007: [E4E4:1163] [Xorcom LTD / Astribank2-TWINSTAR / XR0200]\n", short.String())

	var long bytes.Buffer
	ab.ShowInfo(&long, true)
	want := "USB    Bus/Device:    [001/007]\n" +
		"USB    Firmware Type: [astribank2-TWINSTAR]\n" +
		"USB    iSerialNumber: [XR0200]\n" +
		"USB    iManufacturer: [Xorcom LTD]\n" +
		"USB    iProduct:      [Astribank2-TWINSTAR]\n"
	assert.Equal(t, want, long.String())
}

func TestClose(t *testing.T) {
	usb := newFakeUSB()
	ab := New(usb)
	_, err := ab.XPP()
	require.NoError(t, err)

	require.NoError(t, ab.Close())
	assert.True(t, usb.closed)
	require.NoError(t, ab.Close(), "second close is a no-op")

	_, err = ab.XPP()
	assert.True(t, errors.Is(err, protocol.ErrInvalidState))
	_, err = ab.MPP(context.Background())
	assert.True(t, errors.Is(err, protocol.ErrInvalidState))
}
