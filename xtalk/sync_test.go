package xtalk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-astribank/protocol"
)

func newTestSync(t *testing.T) (*Sync, *fakeTransport, *recordingLogger) {
	t.Helper()
	tr := &fakeTransport{}
	log := &recordingLogger{}
	s, err := NewSync(tr, WithLogger(log))
	require.NoError(t, err)
	require.NoError(t, s.SetProtocol(testOverlay))
	return s, tr, log
}

func statusReply(seq uint16) []byte {
	return frame(0x91, seq, make([]byte, 20)...)
}

func TestProcessCommandStatus(t *testing.T) {
	s, tr, _ := newTestSync(t)
	tr.queue(statusReply(1))

	cmd, err := s.NewCommand(0x11, 0)
	require.NoError(t, err)
	res, err := s.ProcessCommand(context.Background(), cmd, true)
	require.NoError(t, err)
	assert.Equal(t, 25, res.N)
	assert.Equal(t, uint16(1), res.Seq)
	require.NotNil(t, res.Reply)
	assert.Equal(t, protocol.Op(0x91), res.Reply.Op())
}

func TestProcessCommandNoReply(t *testing.T) {
	s, tr, _ := newTestSync(t)

	cmd, err := s.NewCommand(0x45, 0)
	require.NoError(t, err)
	res, err := s.ProcessCommand(context.Background(), cmd, false)
	require.NoError(t, err)
	assert.Equal(t, protocol.HeaderSize, res.N)
	assert.Nil(t, res.Reply)
	assert.Len(t, tr.sent, 1)
}

func TestProcessCommandAck(t *testing.T) {
	s, tr, _ := newTestSync(t)
	tr.queue(protocol.BuildAck(1, protocol.StatusOK))

	cmd, err := s.NewCommand(0x0D, 0)
	require.NoError(t, err)
	res, err := s.ProcessCommand(context.Background(), cmd, true)
	require.NoError(t, err)
	assert.Equal(t, protocol.AckLen, res.N)
}

func TestProcessCommandNack(t *testing.T) {
	s, tr, log := newTestSync(t)
	tr.queue(protocol.BuildAck(1, 0x09))

	cmd, err := s.NewCommand(0x0D, 0)
	require.NoError(t, err)
	_, err = s.ProcessCommand(context.Background(), cmd, true)
	require.Error(t, err)

	var pe *protocol.ProtocolError
	require.True(t, errors.As(err, &pe))
	assert.True(t, pe.HasStatus)
	assert.Equal(t, uint8(0x09), pe.StatusCode)
	assert.Equal(t, "Source was not burned before", pe.Message)
	assert.Equal(t, "EEPROM_SET", pe.Operation)
	assert.True(t, log.has("error", "got NACK"))
}

func TestProcessCommandValidation(t *testing.T) {
	tests := []struct {
		name   string
		op     protocol.Op
		reply  []byte
		reason string
	}{
		{
			name:   "reply bit missing",
			op:     0x11,
			reply:  frame(0x11, 1),
			reason: "malformed reply op",
		},
		{
			name:   "unknown reply op",
			op:     0x11,
			reply:  frame(0xC2, 1),
			reason: "unknown reply op",
		},
		{
			name:   "ack instead of typed reply",
			op:     0x11,
			reply:  protocol.BuildAck(1, protocol.StatusOK),
			reason: "got ACK when a real reply was expected",
		},
		{
			name:   "operation mismatch",
			op:     0x0D,
			reply:  statusReply(1),
			reason: "operation mismatch",
		},
		{
			name:   "reply too short",
			op:     0x11,
			reply:  frame(0x91, 1, 1, 2, 3),
			reason: "reply too short",
		},
		{
			name:   "sequence mismatch",
			op:     0x11,
			reply:  statusReply(7),
			reason: "sequence mismatch",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, tr, _ := newTestSync(t)
			tr.queue(tt.reply)

			cmd, err := s.NewCommand(tt.op, 0)
			require.NoError(t, err)
			_, err = s.ProcessCommand(context.Background(), cmd, true)
			require.Error(t, err)

			var pe *protocol.ProtocolError
			require.True(t, errors.As(err, &pe), "error = %v", err)
			assert.False(t, pe.HasStatus)
			assert.Contains(t, pe.Reason, tt.reason)
		})
	}
}

func TestProcessCommandCallbackOverridesResult(t *testing.T) {
	s, tr, _ := newTestSync(t)
	tr.queue(statusReply(1))

	var gotName string
	s.RegisterCallback(0x91, func(desc protocol.CommandDesc, reply *protocol.Command) (int, error) {
		gotName = desc.Name
		return 42, nil
	})

	cmd, err := s.NewCommand(0x11, 0)
	require.NoError(t, err)
	res, err := s.ProcessCommand(context.Background(), cmd, true)
	require.NoError(t, err)
	assert.Equal(t, 42, res.N)
	assert.Equal(t, "STATUS_GET_REPLY", gotName)
}

func TestProcessCommandCallbackError(t *testing.T) {
	s, tr, _ := newTestSync(t)
	tr.queue(statusReply(1))

	boom := errors.New("bad reply payload")
	s.RegisterCallback(0x91, func(protocol.CommandDesc, *protocol.Command) (int, error) {
		return 0, boom
	})

	cmd, err := s.NewCommand(0x11, 0)
	require.NoError(t, err)
	_, err = s.ProcessCommand(context.Background(), cmd, true)
	assert.ErrorIs(t, err, boom)
}

func TestProcessCommandCallbackCallsEngine(t *testing.T) {
	s, tr, _ := newTestSync(t)
	tr.queue(statusReply(1))

	var seq uint16
	var proto string
	s.RegisterCallback(0x91, func(protocol.CommandDesc, *protocol.Command) (int, error) {
		seq = s.TxSeq()
		proto = s.Dialect().Name()
		return 1, nil
	})

	cmd, err := s.NewCommand(0x11, 0)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.ProcessCommand(context.Background(), cmd, true)
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ProcessCommand blocked while running the callback")
	}
	assert.Equal(t, uint16(1), seq)
	assert.Equal(t, testOverlay.Name(), proto)
}

func TestProcessCommandNoReplyReceived(t *testing.T) {
	s, _, _ := newTestSync(t)

	cmd, err := s.NewCommand(0x11, 0)
	require.NoError(t, err)
	res, err := s.ProcessCommand(context.Background(), cmd, true)
	assert.ErrorIs(t, err, protocol.ErrNoReply)
	assert.Equal(t, uint16(2), s.NextSeq(), "the command itself was sent")
	assert.Equal(t, uint16(1), res.Seq)
}

func TestProtoQuery(t *testing.T) {
	tests := []struct {
		name     string
		version  uint8
		mismatch bool
	}{
		{name: "match", version: 0x14},
		{name: "mismatch", version: 0x13, mismatch: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, tr, log := newTestSync(t)
			tr.respond = func(sent []byte) []byte {
				return frame(protocol.OpProtoGetReply, seqOf(sent), tt.version, 0)
			}

			got, err := s.ProtoQuery(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.version, got)
			assert.Equal(t, tt.version, s.PeerVersion())
			assert.Equal(t, tt.mismatch, log.has("debug", "protocol version mismatch"))

			sent := tr.lastSent()
			require.Len(t, sent, protocol.ProtoGetLen)
			assert.Equal(t, byte(protocol.OpProtoGet), sent[4])
			assert.Equal(t, byte(0x14), sent[5])
		})
	}
}

func TestProtoQueryNack(t *testing.T) {
	s, tr, _ := newTestSync(t)
	tr.queue(protocol.BuildAck(1, protocol.StatusNoAccess))

	_, err := s.ProtoQuery(context.Background())
	require.Error(t, err)
	assert.True(t, protocol.IsProtocolError(err))
}
