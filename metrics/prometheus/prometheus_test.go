package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	met := New(reg, DefaultConfig())

	met.Transaction("MPP", "STATUS_GET", 3*time.Millisecond, nil)
	met.Transaction("MPP", "STATUS_GET", time.Millisecond, errors.New("boom"))
	met.FrameSent("MPP", 5)
	met.FrameSent("MPP", 12)
	met.FrameReceived("MPP", 25)
	met.BufferFlush(500, 850*time.Microsecond)
	met.Segment("FPGA", 240)

	assert.Equal(t, 2.0, value(t, met.xtalkTransactions.WithLabelValues("MPP", "STATUS_GET")))
	assert.Equal(t, 1.0, value(t, met.xtalkErrors.WithLabelValues("MPP", "STATUS_GET")))
	assert.Equal(t, 17.0, value(t, met.xtalkBytesSent.WithLabelValues("MPP")))
	assert.Equal(t, 1.0, value(t, met.xtalkFramesReceived.WithLabelValues("MPP")))
	assert.Equal(t, 1.0, value(t, met.echoFlushes))
	assert.Equal(t, 240.0, value(t, met.firmwareBytes.WithLabelValues("FPGA")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func value(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	m := <-ch
	var pb dto.Metric
	require.NoError(t, m.Write(&pb))
	if pb.Counter != nil {
		return pb.GetCounter().GetValue()
	}
	return pb.GetGauge().GetValue()
}
