package echo

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

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
		if e.level == level && strings.HasPrefix(e.msg, prefix) {
			return true
		}
	}
	return false
}

type flushRecord struct {
	bytes int
	delay time.Duration
}

type recordingMetrics struct {
	flushes []flushRecord
}

func (m *recordingMetrics) Transaction(string, string, time.Duration, error) {}
func (m *recordingMetrics) FrameSent(string, int)                            {}
func (m *recordingMetrics) FrameReceived(string, int)                        {}
func (m *recordingMetrics) Segment(string, int)                              {}
func (m *recordingMetrics) BufferFlush(n int, delay time.Duration) {
	m.flushes = append(m.flushes, flushRecord{bytes: n, delay: delay})
}

// noSleep replaces the pacing delay of b and records the requested delays
func noSleep(b *Buffer) *[]time.Duration {
	var slept []time.Duration
	b.sleep = func(d time.Duration) { slept = append(slept, d) }
	return &slept
}
