package echo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-astribank/protocol"
)

func TestSPIFrame(t *testing.T) {
	tests := []struct {
		name string
		addr uint16
		data uint16
		recv bool
		ver  bool
		want []byte
	}{
		{
			name: "write",
			addr: 0x000A, data: 0x1234,
			want: []byte{10, 0, 0x0F, 0x40, 0x05, 0x30, 0x0A, 0x00, 0x34, 0x12},
		},
		{
			name: "read",
			addr: 0x0004, recv: true,
			want: []byte{10, 0, 0x0F, 0x40, 0x05, 0x70, 0x04, 0x00, 0x00, 0x00},
		},
		{
			name: "version",
			recv: true, ver: true,
			want: []byte{10, 0, 0x0F, 0x40, 0x05, 0x71, 0x00, 0x00, 0x00, 0x00},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, spiFrame(tt.addr, tt.data, tt.recv, tt.ver))
		})
	}
}

func TestTestFrame(t *testing.T) {
	assert.Equal(t, []byte{6, 0, 0x35, 0x00, 0x28, 0x00}, testFrame())
}

func TestDecodeReply(t *testing.T) {
	tests := []struct {
		name    string
		packet  []byte
		want    uint16
		wantErr string
	}{
		{
			name:   "spi reply",
			packet: []byte{10, 0, 0x10, 0x40, 0x05, 0x70, 0x04, 0x00, 0xEF, 0xBE},
			want:   0xBEEF,
		},
		{
			name:   "test reply",
			packet: []byte{6, 0, 0x36, 0x00, 0x28, 0x01},
			want:   0x2801,
		},
		{name: "short header", packet: []byte{1, 0}, wantErr: "short packet"},
		{name: "short spi", packet: []byte{6, 0, 0x10, 0x40, 0, 0}, wantErr: "short SPI reply"},
		{name: "short test", packet: []byte{5, 0, 0x36, 0x00, 0x28}, wantErr: "short test reply"},
		{name: "unexpected op", packet: []byte{6, 0, 0x22, 0x00, 0, 0}, wantErr: "Got unexpected reply OP=0x22"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeReply(tt.packet)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, protocol.IsProtocolError(err))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
