package prometheus

import (
	"time"

	"github.com/moffa90/go-astribank/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type MetricsConfig struct {
	Namespace    string
	SubXtalk     string
	SubEcho      string
	SubFirmware  string
	FlushBuckets []float64
}

func DefaultConfig() *MetricsConfig {
	return &MetricsConfig{
		Namespace:    "astribank",
		SubXtalk:     "xtalk",
		SubEcho:      "echo",
		SubFirmware:  "firmware",
		FlushBuckets: prometheus.ExponentialBuckets(16, 2, 6),
	}
}

type Metrics struct {
	config *MetricsConfig

	// xtalk
	xtalkTransactions   *prometheus.CounterVec
	xtalkErrors         *prometheus.CounterVec
	xtalkLatency        *prometheus.HistogramVec
	xtalkFramesSent     *prometheus.CounterVec
	xtalkBytesSent      *prometheus.CounterVec
	xtalkFramesReceived *prometheus.CounterVec
	xtalkBytesReceived  *prometheus.CounterVec

	// echo
	echoFlushes    prometheus.Counter
	echoFlushBytes prometheus.Histogram
	echoDelay      prometheus.Counter

	// firmware
	firmwareSegments *prometheus.CounterVec
	firmwareBytes    *prometheus.CounterVec
}

var _ metrics.Metrics = (*Metrics)(nil)

func New(reg prometheus.Registerer, config *MetricsConfig) *Metrics {
	if config == nil {
		config = DefaultConfig()
	}
	met := &Metrics{
		config: config,

		// xtalk
		xtalkTransactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace, Subsystem: config.SubXtalk, Name: "transactions_total", Help: "Transactions"}, []string{"dialect", "op"}),
		xtalkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace, Subsystem: config.SubXtalk, Name: "transaction_errors_total", Help: "Failed transactions"}, []string{"dialect", "op"}),
		xtalkLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace, Subsystem: config.SubXtalk, Name: "transaction_seconds", Help: "Transaction latency",
			Buckets: prometheus.DefBuckets}, []string{"dialect", "op"}),
		xtalkFramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace, Subsystem: config.SubXtalk, Name: "frames_sent_total", Help: "Frames sent"}, []string{"dialect"}),
		xtalkBytesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace, Subsystem: config.SubXtalk, Name: "bytes_sent_total", Help: "Bytes sent"}, []string{"dialect"}),
		xtalkFramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace, Subsystem: config.SubXtalk, Name: "frames_received_total", Help: "Frames received"}, []string{"dialect"}),
		xtalkBytesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace, Subsystem: config.SubXtalk, Name: "bytes_received_total", Help: "Bytes received"}, []string{"dialect"}),

		// echo
		echoFlushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace, Subsystem: config.SubEcho, Name: "flushes_total", Help: "Buffer flushes"}),
		echoFlushBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: config.Namespace, Subsystem: config.SubEcho, Name: "flush_bytes", Help: "Bytes per flush",
			Buckets: config.FlushBuckets}),
		echoDelay: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace, Subsystem: config.SubEcho, Name: "pacing_seconds_total", Help: "Time spent in flush pacing"}),

		// firmware
		firmwareSegments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace, Subsystem: config.SubFirmware, Name: "segments_total", Help: "Segments sent"}, []string{"dest"}),
		firmwareBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace, Subsystem: config.SubFirmware, Name: "bytes_total", Help: "Segment bytes sent"}, []string{"dest"}),
	}

	reg.MustRegister(met.xtalkTransactions, met.xtalkErrors, met.xtalkLatency,
		met.xtalkFramesSent, met.xtalkBytesSent, met.xtalkFramesReceived, met.xtalkBytesReceived)
	reg.MustRegister(met.echoFlushes, met.echoFlushBytes, met.echoDelay)
	reg.MustRegister(met.firmwareSegments, met.firmwareBytes)
	return met
}

func (m *Metrics) Transaction(dialect string, op string, elapsed time.Duration, err error) {
	m.xtalkTransactions.WithLabelValues(dialect, op).Inc()
	m.xtalkLatency.WithLabelValues(dialect, op).Observe(elapsed.Seconds())
	if err != nil {
		m.xtalkErrors.WithLabelValues(dialect, op).Inc()
	}
}

func (m *Metrics) FrameSent(dialect string, bytes int) {
	m.xtalkFramesSent.WithLabelValues(dialect).Inc()
	m.xtalkBytesSent.WithLabelValues(dialect).Add(float64(bytes))
}

func (m *Metrics) FrameReceived(dialect string, bytes int) {
	m.xtalkFramesReceived.WithLabelValues(dialect).Inc()
	m.xtalkBytesReceived.WithLabelValues(dialect).Add(float64(bytes))
}

func (m *Metrics) BufferFlush(bytes int, delay time.Duration) {
	m.echoFlushes.Inc()
	m.echoFlushBytes.Observe(float64(bytes))
	m.echoDelay.Add(delay.Seconds())
}

func (m *Metrics) Segment(dest string, bytes int) {
	m.firmwareSegments.WithLabelValues(dest).Inc()
	m.firmwareBytes.WithLabelValues(dest).Add(float64(bytes))
}
