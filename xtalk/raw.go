package xtalk

import (
	"context"

	"github.com/moffa90/go-astribank/protocol"
)

// Raw sends caller-built frames and hands back whatever arrives, without
// matching replies to commands. It is used by diagnostic tools.
type Raw struct {
	*Engine
}

// NewRaw creates a raw engine on the XTALK-RAW base dialect.
func NewRaw(t Transport, opts ...Option) (*Raw, error) {
	e, err := newEngine(t, protocol.RawBase, opts)
	if err != nil {
		return nil, err
	}
	return &Raw{Engine: e}, nil
}

// SendCommand sends a copy of frame with its length field set to
// len(frame) and a fresh sequence number. It returns the sequence number.
func (r *Raw) SendCommand(ctx context.Context, frame []byte) (uint16, error) {
	cmd, err := protocol.FromBytes(frame, true)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, seq, err := r.send(ctx, cmd)
	if err != nil {
		return seq, err
	}
	r.logDebug("raw command sent", "bytes", len(frame), "tx_seq", seq)
	return seq, nil
}

// RecvCommand receives one frame. A negative acknowledgement is logged but
// not returned as an error; the registered callback for the op, if any,
// runs after the engine lock is released and before the frame is returned.
func (r *Raw) RecvCommand(ctx context.Context) (*protocol.Command, error) {
	r.mu.Lock()
	reply, err := r.recv(ctx)
	if err != nil {
		r.logDebug("raw receive failed", "proto", r.dialect.Name(), "error", err)
		r.mu.Unlock()
		return nil, err
	}
	r.logDebug(protocol.FormatFrame("reply", reply.Bytes()))

	desc, _ := r.dialect.Lookup(reply.Op())
	if reply.Op() == protocol.OpAck {
		if status, err := protocol.ParseAck(reply); err == nil && status != protocol.StatusOK {
			r.logError("got NACK", "seq", reply.Seq(), "status", status, "message", r.dialect.StatusMessage(status))
		}
	}
	cb := r.callbacks[reply.Op()]
	r.mu.Unlock()

	if cb != nil {
		v, err := cb(desc, reply)
		if err != nil {
			return reply, err
		}
		r.logDebug("callback result", "op", reply.Op().String(), "value", v)
	}
	return reply, nil
}

// SendBuffer writes buf to the transport unframed.
func (r *Raw) SendBuffer(ctx context.Context, buf []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, ErrClosed
	}
	r.logDebug(protocol.FormatFrame("buffer send", buf))

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()
	n, err := r.transport.Send(ctx, buf)
	if err != nil {
		return n, &protocol.TransportError{Operation: "send", Err: err}
	}
	return n, nil
}

// RecvBuffer reads raw bytes from the transport into buf.
func (r *Raw) RecvBuffer(ctx context.Context, buf []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()
	n, err := r.transport.Recv(ctx, buf)
	if err != nil {
		return n, &protocol.TransportError{Operation: "recv", Err: err}
	}
	r.logDebug(protocol.FormatFrame("buffer recv", buf[:n]))
	return n, nil
}
