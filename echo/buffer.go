package echo

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/moffa90/go-astribank/protocol"
	"github.com/moffa90/go-astribank/xtalk"
)

// Stats summarizes the flushes since the last Reset.
type Stats struct {
	MinSend    int
	MaxSend    int
	Packets    int
	TotalBytes int64
	Elapsed    time.Duration
}

// String formats the statistics line printed after a DSP load.
func (s Stats) String() string {
	var avg, perPacket int64
	minSend := s.MinSend
	if s.Packets > 0 {
		avg = s.TotalBytes / int64(s.Packets)
		perPacket = s.Elapsed.Microseconds() / int64(s.Packets)
	} else {
		minSend = 0
	}
	return fmt.Sprintf("Octasic statistics: packet_size=[%d, %d, %d] packets=%d, bytes=%d msec=%d usec/packet=%d",
		minSend, avg, s.MaxSend, s.Packets, s.TotalBytes, s.Elapsed.Milliseconds(), perPacket)
}

// Buffer batches echo path packets into transport writes of at most the
// transport packet size. It is not safe for concurrent use.
type Buffer struct {
	t      xtalk.Transport
	config Config
	data   []byte
	curr   int

	minSend int
	maxSend int
	packets int
	total   int64
	start   time.Time
	lastSec int64

	now   func() time.Time
	sleep func(time.Duration)
}

// NewBuffer creates a buffer writing to t. Its capacity is the transport
// packet size unless WithPacketSize overrides it.
func NewBuffer(t xtalk.Transport, opts ...Option) *Buffer {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newBuffer(t, cfg)
}

func newBuffer(t xtalk.Transport, cfg Config) *Buffer {
	if t == nil {
		panic("transport cannot be nil")
	}
	size := cfg.PacketSize
	if size == 0 {
		if ps, ok := t.(xtalk.PacketSizer); ok {
			size = ps.PacketSize()
		}
	}
	if size <= 0 {
		size = DefaultPacketSize
	}
	b := &Buffer{
		t:      t,
		config: cfg,
		data:   make([]byte, size),
		now:    time.Now,
		sleep:  time.Sleep,
	}
	b.Reset()
	return b
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Len returns the number of bytes waiting to be flushed.
func (b *Buffer) Len() int {
	return b.curr
}

// Reset drops pending bytes and restarts the statistics.
func (b *Buffer) Reset() {
	b.curr = 0
	b.minSend = math.MaxInt
	b.maxSend = 0
	b.packets = 0
	b.total = 0
	b.lastSec = 0
	b.start = b.now()
}

// Stats returns the flush statistics since the last Reset.
func (b *Buffer) Stats() Stats {
	return Stats{
		MinSend:    b.minSend,
		MaxSend:    b.maxSend,
		Packets:    b.packets,
		TotalBytes: b.total,
		Elapsed:    b.now().Sub(b.start),
	}
}

// ShowStatistics writes the statistics line to w.
func (b *Buffer) ShowStatistics(w io.Writer) {
	fmt.Fprintln(w, b.Stats().String())
}

// Flush writes the pending bytes as one transport write, then sleeps
// coef*n - 150µs when that is positive. It returns the bytes written.
func (b *Buffer) Flush(ctx context.Context) (int, error) {
	if b.curr == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	n, err := b.t.Send(ctx, b.data[:b.curr])
	if err != nil {
		b.logError("xusb_send failed", "bytes", b.curr, "error", err)
		return n, &protocol.TransportError{Operation: "send", Err: err}
	}
	b.logDebug("flushed", "bytes", n)

	if n > b.maxSend {
		b.maxSend = n
	}
	if n < b.minSend {
		b.minSend = n
	}
	b.total += int64(n)
	b.packets++
	b.curr = 0

	if sec := int64(b.now().Sub(b.start) / time.Second); sec > b.lastSec {
		b.logDebug("throughput",
			"bytes_per_sec", b.total/sec,
			"average_len", b.total/int64(b.packets))
		b.lastSec = sec
	}

	delay := time.Duration(b.config.FlushCoefficient*float64(n))*time.Microsecond - FlushOffset
	if delay > 0 {
		b.sleep(delay)
	} else {
		delay = 0
	}
	b.config.Metrics.BufferFlush(n, delay)
	return n, nil
}

func (b *Buffer) append(frame []byte) error {
	if b.curr+len(frame) >= len(b.data) {
		b.logError("buffer too small", "curr", b.curr, "len", len(frame), "max", len(b.data))
		return fmt.Errorf("%w: curr=%d len=%d max=%d", ErrBufferTooSmall, b.curr, len(frame), len(b.data))
	}
	copy(b.data[b.curr:], frame)
	b.curr += len(frame)
	return nil
}

// Send queues frame, flushing first when it would not fit. Without recv
// it returns len(frame). With recv the buffer is flushed at once, one
// reply packet is received and its 16-bit answer is returned.
func (b *Buffer) Send(ctx context.Context, frame []byte, recv bool) (int, error) {
	if b.curr+len(frame) >= len(b.data) {
		if _, err := b.Flush(ctx); err != nil {
			return 0, err
		}
	}
	if err := b.append(frame); err != nil {
		return 0, err
	}
	if !recv {
		return len(frame), nil
	}

	if _, err := b.Flush(ctx); err != nil {
		return 0, err
	}

	rctx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	reply := make([]byte, len(b.data))
	n, err := b.t.Recv(rctx, reply)
	if err != nil {
		b.logError("No USB packs to read", "error", err)
		return 0, &protocol.TransportError{Operation: "recv", Err: err}
	}
	if n <= 0 {
		b.logError("No USB packs to read")
		return 0, protocol.ErrNoReply
	}

	v, err := decodeReply(reply[:n])
	if err != nil {
		b.logError("bad reply", "packet", fmt.Sprintf("% x", reply[:n]), "error", err)
		return 0, err
	}
	b.logDebug("reply", "packet", fmt.Sprintf("% x", reply[:n]), "value", v)
	return int(v), nil
}

func (b *Buffer) logDebug(msg string, keysAndValues ...interface{}) {
	if b.config.Logger != nil {
		b.config.Logger.Debug(msg, keysAndValues...)
	}
}

func (b *Buffer) logInfo(msg string, keysAndValues ...interface{}) {
	if b.config.Logger != nil {
		b.config.Logger.Info(msg, keysAndValues...)
	}
}

func (b *Buffer) logError(msg string, keysAndValues ...interface{}) {
	if b.config.Logger != nil {
		b.config.Logger.Error(msg, keysAndValues...)
	}
}
