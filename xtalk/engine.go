package xtalk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/moffa90/go-astribank/protocol"
)

// Engine turns a Transport into a sequenced frame exchange.
//
// The sequence counter starts at 1 and advances only after a send the
// transport reports as successful. 0 is never stamped on a frame.
type Engine struct {
	mu        sync.Mutex
	transport Transport
	base      *protocol.Dialect
	dialect   *protocol.Dialect
	config    Config
	seq       uint16
	txSeq     uint16
	callbacks [protocol.MaxOps]Callback
	closed    bool
}

func newEngine(t Transport, base *protocol.Dialect, opts []Option) (*Engine, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil transport", protocol.ErrInvalidArgument)
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.PacketSize == 0 {
		if ps, ok := t.(PacketSizer); ok {
			cfg.PacketSize = ps.PacketSize()
		}
	}
	if cfg.PacketSize < protocol.HeaderSize {
		cfg.PacketSize = protocol.DefaultPacketSize
	}
	e := &Engine{
		transport: t,
		base:      base,
		config:    cfg,
		seq:       1,
	}
	d, err := protocol.Merge(base, nil)
	if err != nil {
		return nil, err
	}
	e.dialect = d
	return e, nil
}

// SetProtocol merges overlay over the engine's base dialect and makes the
// result the live dialect. A nil overlay leaves only the base commands.
func (e *Engine) SetProtocol(overlay *protocol.Dialect) error {
	d, err := protocol.Merge(e.base, overlay)
	if err != nil {
		e.logError("protocol registration failed", "error", err)
		return err
	}
	e.mu.Lock()
	e.dialect = d
	e.mu.Unlock()
	e.logDebug("protocol set", "base", e.base.Name(), "dialect", d.Name(), "version", d.Version())
	return nil
}

// Dialect returns the live dialect.
func (e *Engine) Dialect() *protocol.Dialect {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dialect
}

// NewCommand allocates a command for op from the live dialect.
func (e *Engine) NewCommand(op protocol.Op, extra int) (*protocol.Command, error) {
	return protocol.NewCommand(e.Dialect(), op, extra)
}

// RegisterCallback installs cb for frames with the given op and returns the
// callback it replaces. A nil cb removes the callback.
func (e *Engine) RegisterCallback(op protocol.Op, cb Callback) Callback {
	e.mu.Lock()
	defer e.mu.Unlock()
	old := e.callbacks[op]
	e.callbacks[op] = cb
	return old
}

// SetTimeout sets the transfer timeout and returns the previous value.
func (e *Engine) SetTimeout(timeout time.Duration) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	old := e.config.Timeout
	e.config.Timeout = timeout
	return old
}

// Timeout returns the transfer timeout.
func (e *Engine) Timeout() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config.Timeout
}

// Logger returns the configured logger, possibly nil.
func (e *Engine) Logger() Logger {
	return e.config.Logger
}

// PacketSize returns the receive buffer size.
func (e *Engine) PacketSize() int {
	return e.config.PacketSize
}

// TxSeq returns the sequence number of the last frame sent successfully.
func (e *Engine) TxSeq() uint16 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.txSeq
}

// NextSeq returns the sequence number the next frame will carry.
func (e *Engine) NextSeq() uint16 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq
}

// Send stamps cmd with the next sequence number and writes it.
// It returns the number of bytes written and the stamped sequence number.
func (e *Engine) Send(ctx context.Context, cmd *protocol.Command) (int, uint16, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.send(ctx, cmd)
}

// Recv reads one frame.
func (e *Engine) Recv(ctx context.Context) (*protocol.Command, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recv(ctx)
}

// Close closes the transport. Further calls return ErrClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.transport.Close()
}

func (e *Engine) send(ctx context.Context, cmd *protocol.Command) (int, uint16, error) {
	if e.closed {
		return 0, 0, ErrClosed
	}
	seq := e.seq
	cmd.SetSeq(seq)

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	n, err := e.transport.Send(ctx, cmd.Bytes())
	if err != nil {
		e.logDebug("send failed", "op", cmd.Op().String(), "seq", seq, "error", err)
		return n, seq, &protocol.TransportError{Operation: "send", Err: err}
	}
	e.txSeq = seq
	e.seq++
	if e.seq == 0 {
		e.seq = 1
	}
	e.config.Metrics.FrameSent(e.dialect.Name(), n)
	if e.config.DumpFrames {
		e.logDebug(protocol.FormatFrame("send", cmd.Bytes()))
	}
	return n, seq, nil
}

func (e *Engine) recv(ctx context.Context) (*protocol.Command, error) {
	if e.closed {
		return nil, ErrClosed
	}
	buf := make([]byte, e.config.PacketSize)

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	n, err := e.transport.Recv(ctx, buf)
	if err != nil {
		e.logDebug("receive failed", "error", err)
		return nil, &protocol.TransportError{Operation: "recv", Err: err}
	}
	if n == 0 {
		e.logDebug("no reply")
		return nil, protocol.ErrNoReply
	}
	e.config.Metrics.FrameReceived(e.dialect.Name(), n)
	if e.config.DumpFrames {
		e.logDebug(protocol.FormatFrame("recv", buf[:n]))
	}

	reply, err := protocol.DecodeCommand(buf, n)
	if err != nil {
		h, _ := protocol.DecodeHeader(buf)
		msg := fmt.Sprintf("Wrong length received: got %d bytes, but length field says %d bytes", n, h.Len)
		if n == 1 {
			msg += ". Old USB firmware?"
		}
		e.logError(msg)
		return nil, &protocol.ProtocolError{Operation: "recv", Reply: h.Op, Reason: msg}
	}
	return reply, nil
}

func (e *Engine) opName(op protocol.Op) string {
	if desc, ok := e.dialect.Lookup(op); ok {
		return desc.Name
	}
	return op.String()
}
