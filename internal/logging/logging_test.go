package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/loopholelabs/logging/types"
	"github.com/stretchr/testify/assert"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      types.Level
	}{
		{verbosity: 0, want: types.InfoLevel},
		{verbosity: 1, want: types.DebugLevel},
		{verbosity: 2, want: types.TraceLevel},
		{verbosity: 5, want: types.TraceLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Level(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestAdapterFields(t *testing.T) {
	var buf bytes.Buffer
	a := NewAdapter(New("test", &buf, VerbosityDebug))

	a.Info("device opened", "path", "001/004", "iface", 1, "error", errors.New("boom"), "dangling")
	out := buf.String()
	assert.Contains(t, out, "device opened")
	assert.Contains(t, out, `"path":"001/004"`)
	assert.Contains(t, out, `"iface":1`)
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, `"dangling":"(MISSING)"`)
}

func TestAdapterLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	a := NewAdapter(New("test", &buf, VerbosityInfo))

	a.Debug("hidden")
	assert.Empty(t, buf.String())

	a.Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNilAdapter(t *testing.T) {
	a := NewAdapter(nil)
	a.Debug("x")
	a.Info("x")
	a.Error("x")

	var none *Adapter
	none.Debug("x", "k", 1)
	none.Info("x")
	none.Error("x", "error", errors.New("gone"))
}
