package metrics

import "time"

// Metrics receives counters from the XTALK engines, the DSP bridge and the
// firmware programmer.
type Metrics interface {
	// Transaction records one request/reply exchange of a dialect op.
	Transaction(dialect string, op string, elapsed time.Duration, err error)

	// FrameSent records a frame written to the transport.
	FrameSent(dialect string, bytes int)

	// FrameReceived records a frame read from the transport.
	FrameReceived(dialect string, bytes int)

	// BufferFlush records one DSP bridge buffer flush and the pacing delay applied after it.
	BufferFlush(bytes int, delay time.Duration)

	// Segment records a firmware segment sent to dest.
	Segment(dest string, bytes int)
}

// Noop discards everything.
type Noop struct{}

func (Noop) Transaction(string, string, time.Duration, error) {}
func (Noop) FrameSent(string, int)                            {}
func (Noop) FrameReceived(string, int)                        {}
func (Noop) BufferFlush(int, time.Duration)                   {}
func (Noop) Segment(string, int)                              {}

var _ Metrics = Noop{}
