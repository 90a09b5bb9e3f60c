package xtalk

import (
	"context"
	"errors"

	"github.com/moffa90/go-astribank/protocol"
)

// ErrClosed is returned by engines after Close.
var ErrClosed = errors.New("xtalk: engine closed")

// Transport is the byte channel an Engine talks through, typically one
// claimed USB interface. Timeouts are carried by the context deadline.
//
// Recv returns 0 bytes and a nil error when nothing arrived.
type Transport interface {
	Send(ctx context.Context, buf []byte) (int, error)
	Recv(ctx context.Context, buf []byte) (int, error)
	Close() error
}

// PacketSizer is implemented by transports that know their maximum
// packet size. Engines use it as the receive buffer size.
type PacketSizer interface {
	PacketSize() int
}

// Callback is invoked for a received frame whose op it was registered
// for. Its int result replaces the reply length as the transaction result.
// desc is empty when the op is unknown to the dialect (raw mode only).
// It runs without the engine lock held and may call engine methods.
type Callback func(desc protocol.CommandDesc, reply *protocol.Command) (int, error)
