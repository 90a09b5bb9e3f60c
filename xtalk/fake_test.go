package xtalk

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/moffa90/go-astribank/protocol"
)

var testOverlay = protocol.MustDialect("TEST", 0x14, []protocol.CommandDesc{
	{Op: 0x11, Name: "STATUS_GET", Len: protocol.HeaderSize},
	{Op: 0x91, Name: "STATUS_GET_REPLY", Len: protocol.HeaderSize + 20},
	{Op: 0x0D, Name: "EEPROM_SET", Len: protocol.HeaderSize + 16},
	{Op: 0x45, Name: "RESET", Len: protocol.HeaderSize},
}, map[uint8]string{0x09: "Source was not burned before"})

// fakeTransport records sent frames and answers from a queue of replies.
// A responder, when set, builds the reply from the last frame sent.
type fakeTransport struct {
	mu        sync.Mutex
	sent      [][]byte
	replies   [][]byte
	respond   func(sent []byte) []byte
	sendErr   error
	recvErr   error
	closed    bool
	packetLen int
}

func (f *fakeTransport) Send(ctx context.Context, buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.sent = append(f.sent, append([]byte(nil), buf...))
	return len(buf), nil
}

func (f *fakeTransport) Recv(ctx context.Context, buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recvErr != nil {
		return 0, f.recvErr
	}
	var r []byte
	switch {
	case len(f.replies) > 0:
		r = f.replies[0]
		f.replies = f.replies[1:]
	case f.respond != nil && len(f.sent) > 0:
		r = f.respond(f.sent[len(f.sent)-1])
	default:
		return 0, nil
	}
	return copy(buf, r), nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("already closed")
	}
	f.closed = true
	return nil
}

func (f *fakeTransport) PacketSize() int {
	if f.packetLen == 0 {
		return protocol.DefaultPacketSize
	}
	return f.packetLen
}

func (f *fakeTransport) queue(frames ...[]byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, frames...)
}

func (f *fakeTransport) lastSent() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

// frame builds a wire frame with a correct length field.
func frame(op protocol.Op, seq uint16, payload ...byte) []byte {
	b := make([]byte, protocol.HeaderSize+len(payload))
	_ = protocol.Header{Len: uint16(len(b)), Seq: seq, Op: op}.Encode(b)
	copy(b[protocol.HeaderSize:], payload)
	return b
}

func seqOf(b []byte) uint16 {
	h, _ := protocol.DecodeHeader(b)
	return h.Seq
}

type logEntry struct {
	level string
	msg   string
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string, kv []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: fmt.Sprint(append([]interface{}{msg}, kv...)...)})
}

func (l *recordingLogger) Debug(msg string, kv ...interface{}) { l.add("debug", msg, kv) }
func (l *recordingLogger) Info(msg string, kv ...interface{})  { l.add("info", msg, kv) }
func (l *recordingLogger) Error(msg string, kv ...interface{}) { l.add("error", msg, kv) }

func (l *recordingLogger) has(level, prefix string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.level == level && len(e.msg) >= len(prefix) && e.msg[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
