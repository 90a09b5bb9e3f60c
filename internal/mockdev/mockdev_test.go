package mockdev

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-astribank/protocol"
)

func spi(addr, data uint16, flags byte) []byte {
	return []byte{10, 0, xopSPISend, 0x40, 0x05, flags,
		byte(addr), byte(addr >> 8), byte(data), byte(data >> 8)}
}

func TestDSPIndirectWriteRead(t *testing.T) {
	d := NewDSP()
	ctx := context.Background()
	const reg = 0x00123456 &^ 1

	var batch []byte
	batch = append(batch, spi(0x0008, uint16(reg>>20), 0x30)...)
	batch = append(batch, spi(0x000A, uint16((reg>>4)&0xFFFF), 0x30)...)
	batch = append(batch, spi(0x0004, 0xBEEF, 0x30)...)
	batch = append(batch, spi(0x0000, uint16(((reg>>1)&7)<<9|1<<8|3<<12|1), 0x30)...)
	_, err := d.Send(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), d.Register(reg))
	assert.Equal(t, 4, d.SPIFrames())

	batch = batch[:0]
	batch = append(batch, spi(0x0008, uint16(reg>>20), 0x30)...)
	batch = append(batch, spi(0x000A, uint16((reg>>4)&0xFFFF), 0x30)...)
	batch = append(batch, spi(0x0000, uint16(((reg>>1)&7)<<9|1<<8|1), 0x30)...)
	batch = append(batch, spi(0x0004, 0, 0x70)...)
	_, err = d.Send(ctx, batch)
	require.NoError(t, err)

	buf := make([]byte, 64)
	n, err := d.Recv(ctx, buf)
	require.NoError(t, err)
	require.Equal(t, 10, n)
	assert.Equal(t, byte(xopSPIRecv), buf[2])
	assert.Equal(t, uint16(0xBEEF), uint16(buf[9])<<8|uint16(buf[8]))
}

func TestDSPRejectsBadLength(t *testing.T) {
	d := NewDSP()
	_, err := d.Send(context.Background(), []byte{40, 0, xopSPISend, 0x40})
	assert.Error(t, err)
}

func TestAstribankRejectsMalformedFrame(t *testing.T) {
	a := NewAstribank()
	_, err := a.Send(context.Background(), []byte{9, 0, 1, 0, 0x11})
	assert.Error(t, err)
	assert.Empty(t, a.Frames())
}

func TestAstribankUnknownOpNacks(t *testing.T) {
	a := NewAstribank()
	ctx := context.Background()
	frame := make([]byte, protocol.HeaderSize)
	require.NoError(t, protocol.Header{Len: protocol.HeaderSize, Seq: 4, Op: 0x7E}.Encode(frame))
	_, err := a.Send(ctx, frame)
	require.NoError(t, err)

	buf := make([]byte, 16)
	n, err := a.Recv(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, protocol.BuildAck(4, statusBadCmd), buf[:n])
}
