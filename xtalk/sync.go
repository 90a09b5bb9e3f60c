package xtalk

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-astribank/protocol"
)

// Result is the outcome of a synchronous transaction.
type Result struct {
	// N is the bytes sent when no reply was requested, otherwise the reply
	// length or the value returned by the reply callback.
	N int

	// Seq is the sequence number stamped on the command
	Seq uint16

	// Reply is the validated reply frame, nil when none was requested
	Reply *protocol.Command
}

// Sync runs strictly sequential request/reply transactions.
type Sync struct {
	*Engine
	peerVersion uint8
}

// NewSync creates a synchronous engine on the XTALK-SYNC base dialect.
func NewSync(t Transport, opts ...Option) (*Sync, error) {
	e, err := newEngine(t, protocol.SyncBase, opts)
	if err != nil {
		return nil, err
	}
	return &Sync{Engine: e}, nil
}

// ProcessCommand sends cmd and, when wantReply is set, receives and
// validates the reply. Validation short-circuits in this order: reply bit,
// known reply op, ACK status (or reply op equal to cmd op with the reply
// bit), minimum reply length, sequence number. A callback registered for
// the reply op overrides Result.N.
// The callback runs after the engine lock is released, so it may call back
// into the engine.
func (s *Sync) ProcessCommand(ctx context.Context, cmd *protocol.Command, wantReply bool) (Result, error) {
	s.mu.Lock()
	start := time.Now()
	name := s.opName(cmd.Op())
	proto := s.dialect.Name()
	res, desc, err := s.process(ctx, cmd, name, wantReply)
	var cb Callback
	if err == nil && res.Reply != nil {
		cb = s.callbacks[res.Reply.Op()]
	}
	s.mu.Unlock()

	if cb != nil {
		v, cbErr := cb(desc, res.Reply)
		if cbErr != nil {
			err = cbErr
		} else {
			s.logDebug("callback result", "op", desc.Name, "value", v)
			res.N = v
		}
	}
	s.config.Metrics.Transaction(proto, name, time.Since(start), err)
	return res, err
}

func (s *Sync) process(ctx context.Context, cmd *protocol.Command, name string, wantReply bool) (Result, protocol.CommandDesc, error) {
	d := s.dialect
	replyOp := cmd.Op().Reply()
	expected, hasExpected := d.Lookup(replyOp)

	n, seq, err := s.send(ctx, cmd)
	res := Result{N: n, Seq: seq}
	if err != nil {
		s.logError("send_command failed", "op", name, "error", err)
		return res, protocol.CommandDesc{}, err
	}
	if !wantReply {
		s.logDebug("no reply requested", "op", name, "seq", seq)
		return res, protocol.CommandDesc{}, nil
	}

	reply, err := s.recv(ctx)
	if err != nil {
		s.logDebug("recv_command failed", "op", name, "error", err)
		return res, protocol.CommandDesc{}, err
	}
	res.Reply = reply

	fail := func(reason string) error {
		s.logError(reason, "op", name, "reply_op", reply.Op().String(), "seq", seq)
		return &protocol.ProtocolError{Operation: name, Reply: reply.Op(), Reason: reason}
	}

	if !reply.Op().IsReply() {
		return res, protocol.CommandDesc{}, fail(fmt.Sprintf("malformed reply op %s, should have MSB set", reply.Op()))
	}
	replyDesc, ok := d.Lookup(reply.Op())
	if !ok {
		s.logDebug(protocol.FormatFrame("unknown reply", reply.Bytes()))
		return res, protocol.CommandDesc{}, fail(fmt.Sprintf("unknown reply op %s (proto=%s)", reply.Op(), d.Name()))
	}

	if reply.Op() == protocol.OpAck {
		status, err := protocol.ParseAck(reply)
		if err != nil {
			return res, protocol.CommandDesc{}, fail("reply too short")
		}
		if hasExpected {
			return res, protocol.CommandDesc{}, fail(fmt.Sprintf("got ACK when a real reply was expected: expected op %s, got ACK(%d): %s",
				replyOp, status, d.StatusMessage(status)))
		}
		if status != protocol.StatusOK {
			msg := d.StatusMessage(status)
			s.logError("got NACK", "op", name, "status", status, "message", msg)
			return res, protocol.CommandDesc{}, &protocol.ProtocolError{
				Operation:  name,
				Reply:      protocol.OpAck,
				Reason:     "negative acknowledgement",
				HasStatus:  true,
				StatusCode: status,
				Message:    msg,
			}
		}
	} else if reply.Op() != replyOp {
		return res, protocol.CommandDesc{}, fail(fmt.Sprintf("operation mismatch: expected op %s", replyOp))
	}

	if hasExpected && int(expected.Len) > reply.Len() {
		return res, protocol.CommandDesc{}, fail(fmt.Sprintf("reply too short: expected len=%d, got len=%d", expected.Len, reply.Len()))
	}
	if cmd.Seq() != reply.Seq() {
		return res, protocol.CommandDesc{}, fail(fmt.Sprintf("sequence mismatch: expected seq=%d, got seq=%d", cmd.Seq(), reply.Seq()))
	}

	res.N = reply.Len()
	return res, replyDesc, nil
}

// ProtoQuery asks the device for its protocol version. The host dialect
// version is sent along; a different answer is logged, not treated as an
// error.
func (s *Sync) ProtoQuery(ctx context.Context) (uint8, error) {
	d := s.Dialect()
	cmd, err := protocol.BuildProtoGet(d, d.Version())
	if err != nil {
		return 0, err
	}
	res, err := s.ProcessCommand(ctx, cmd, true)
	if err != nil {
		return 0, fmt.Errorf("protocol query: %w", err)
	}
	got, err := protocol.ParseProtoGetReply(res.Reply)
	if err != nil {
		return 0, fmt.Errorf("protocol query: %w", err)
	}

	s.mu.Lock()
	s.peerVersion = got
	s.mu.Unlock()

	if got != d.Version() {
		s.logDebug("protocol version mismatch", "dialect", d.Name(),
			"got", fmt.Sprintf("0x%02x", got), "expected", fmt.Sprintf("0x%02x", d.Version()))
	} else {
		s.logDebug("protocol version", "version", fmt.Sprintf("0x%02x", got), "tx_seq", res.Seq)
	}
	return got, nil
}

// PeerVersion returns the version reported by the last ProtoQuery.
func (s *Sync) PeerVersion() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerVersion
}
