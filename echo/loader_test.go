package echo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-astribank/internal/mockdev"
)

// fakeOpener writes the image length to a register and records channels
type fakeOpener struct {
	image      []byte
	channels   []ChannelConfig
	failOnChan int
}

func (o *fakeOpener) OpenChip(ctx context.Context, image []byte, regs RegisterAccess) error {
	o.image = image
	return regs.WriteBurst(ctx, 0x0100, []uint16{uint16(len(image)), 0xCAFE})
}

func (o *fakeOpener) OpenChannel(ctx context.Context, ch ChannelConfig) error {
	if o.failOnChan > 0 && ch.Channel == o.failOnChan {
		return errors.New("channel refused")
	}
	o.channels = append(o.channels, ch)
	return nil
}

func writeImage(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "echo.ima")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func newTestLoader(t *testing.T) (*Loader, *mockdev.DSP, *recordingLogger) {
	t.Helper()
	dsp := mockdev.NewDSP()
	logger := &recordingLogger{}
	l := NewLoader(dsp, WithLogger(logger))
	noSleep(l.Bridge().Buffer())
	return l, dsp, logger
}

func TestChannelPlan(t *testing.T) {
	specs, err := ParseSpanSpecs("2:T1", true)
	require.NoError(t, err)

	plan, err := ChannelPlan(specs)
	require.NoError(t, err)
	require.Len(t, plan, MaxChannels+24)

	assert.Equal(t, ChannelConfig{
		Channel: 5, Timeslot: 5, Codec: CodecULaw,
		Rin: StreamRin, Rout: StreamRout, Sin: StreamSin, Sout: StreamSout,
	}, plan[5])
	assert.Equal(t, CodecALaw, plan[127].Codec)

	second := plan[MaxChannels:]
	tests := []struct {
		idx      int
		channel  int
		timeslot int
	}{
		{idx: 0, channel: 8, timeslot: 32},
		{idx: 1, channel: 9, timeslot: 33},
		{idx: 8, channel: 16, timeslot: 64},
		{idx: 23, channel: 31, timeslot: 103},
	}
	for _, tt := range tests {
		ch := second[tt.idx]
		assert.Equal(t, tt.channel, ch.Channel)
		assert.Equal(t, tt.timeslot, ch.Timeslot)
		assert.True(t, ch.SecondBus())
		assert.Equal(t, CodecUnknown, ch.Codec)
		assert.Equal(t, StreamSout2, ch.Sout)
	}

	_, err = ChannelPlan(SpanSpecs{})
	assert.ErrorContains(t, err, "channel 0")
}

func TestLoad(t *testing.T) {
	l, dsp, logger := newTestLoader(t)
	path := writeImage(t, []byte{1, 2, 3, 4, 5})
	specs, err := ParseSpanSpecs("3:T1", true)
	require.NoError(t, err)

	opener := &fakeOpener{}
	require.NoError(t, l.Load(context.Background(), path, specs, opener))

	assert.Equal(t, []byte{1, 2, 3, 4, 5}, opener.image)
	assert.Len(t, opener.channels, MaxChannels+24)
	assert.Equal(t, uint16(5), dsp.Register(0x0100))
	assert.Equal(t, uint16(0xCAFE), dsp.Register(0x0102))
	assert.Zero(t, l.Bridge().Buffer().Len(), "load ends with a flush")

	assert.True(t, logger.has("info", "Loading ECHOCAN Firmware: "+path+" (default alaw)"))
	assert.True(t, logger.has("info", "Check EC_CPLD version: 1"))
	assert.True(t, logger.has("info", "ECHO PRI port 1 = alaw"))
	assert.True(t, logger.has("info", "ECHO PRI port 3 = ulaw"))
	assert.True(t, logger.has("info", "Octasic statistics: "))
}

func TestLoadTestHardware(t *testing.T) {
	l, dsp, logger := newTestLoader(t)
	dsp.SetVersion(VerTest)
	specs, _ := ParseSpanSpecs("", true)

	require.NoError(t, l.Load(context.Background(), "/nonexistent", specs, nil))
	assert.True(t, logger.has("info", "| WARNING: TEST HARDWARE IS ON THE BOARD INSTEAD OF EC!!! |"))
	assert.True(t, logger.has("info", "Octasic statistics: "))
}

func TestLoadFailures(t *testing.T) {
	specs, _ := ParseSpanSpecs("", false)

	tests := []struct {
		name    string
		setup   func(d *mockdev.DSP)
		path    func(t *testing.T) string
		opener  ChipOpener
		wantErr string
		wantIs  error
	}{
		{
			name:    "no chip opener",
			path:    func(t *testing.T) string { return writeImage(t, []byte{1}) },
			wantIs:  ErrNoChipOpener,
			wantErr: "no chip opener",
		},
		{
			name:    "missing image",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.ima") },
			opener:  &fakeOpener{},
			wantErr: "failed to read image",
		},
		{
			name:    "empty image",
			path:    func(t *testing.T) string { return writeImage(t, nil) },
			opener:  &fakeOpener{},
			wantErr: "empty image",
		},
		{
			name:    "test probe unanswered",
			setup:   func(d *mockdev.DSP) { d.Silence() },
			path:    func(t *testing.T) string { return writeImage(t, []byte{1}) },
			opener:  &fakeOpener{},
			wantErr: "test probe",
		},
		{
			name:    "channel refused",
			path:    func(t *testing.T) string { return writeImage(t, []byte{1}) },
			opener:  &fakeOpener{failOnChan: 7},
			wantErr: "open channel 7: channel refused",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, dsp, logger := newTestLoader(t)
			if tt.setup != nil {
				tt.setup(dsp)
			}
			path := tt.path(t)
			err := l.Load(context.Background(), path, specs, tt.opener)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			assert.True(t, logger.has("error", "ECHO "+path+" burning failed"))
		})
	}
}

func TestVer(t *testing.T) {
	l, dsp, _ := newTestLoader(t)
	dsp.SetVersion(3)

	_, err := l.Bridge().Buffer().Send(context.Background(), spiFrame(0, 0, false, false), false)
	require.NoError(t, err)

	v, err := l.Ver(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(3), v)
	require.Len(t, dsp.Sends(), 1)
	assert.Len(t, dsp.Sends()[0], spiFrameLen, "Ver drops what was queued before")
}
