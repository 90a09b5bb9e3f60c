package protocol

import (
	"bytes"
	"errors"
	"testing"
)

var testOverlay = MustDialect("TEST", 0x14, []CommandDesc{
	{Op: 0x11, Name: "STATUS_GET", Len: HeaderSize},
	{Op: 0x91, Name: "STATUS_GET_REPLY", Len: HeaderSize + 20},
	{Op: 0x07, Name: "SEND_SEG", Len: HeaderSize + 2},
}, map[uint8]string{0x09: "Source was not burned before"})

func testDialect(t *testing.T) *Dialect {
	t.Helper()
	d, err := Merge(SyncBase, testOverlay)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	return d
}

func TestNewCommand(t *testing.T) {
	d := testDialect(t)

	tests := []struct {
		name    string
		op      Op
		extra   int
		wantLen int
		wantErr error
	}{
		{name: "no payload", op: 0x11, extra: 0, wantLen: 5},
		{name: "fixed payload", op: OpProtoGet, extra: 0, wantLen: 7},
		{name: "variable tail", op: 0x07, extra: 64, wantLen: 71},
		{name: "ack", op: OpAck, extra: 0, wantLen: 6},
		{name: "unregistered op", op: 0x42, wantErr: ErrUnknownOperation},
		{name: "negative extra", op: 0x07, extra: -1, wantErr: ErrInvalidArgument},
		{name: "too large", op: 0x07, extra: 0x10000, wantErr: ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := NewCommand(d, tt.op, tt.extra)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(cmd.Bytes()) != tt.wantLen {
				t.Errorf("buffer length = %d, want %d", len(cmd.Bytes()), tt.wantLen)
			}
			if cmd.Len() != tt.wantLen {
				t.Errorf("header len = %d, want %d", cmd.Len(), tt.wantLen)
			}
			if cmd.Op() != tt.op {
				t.Errorf("header op = %s, want %s", cmd.Op(), tt.op)
			}
			if cmd.Seq() != 0 {
				t.Errorf("header seq = %d, want 0", cmd.Seq())
			}
			if !bytes.Equal(cmd.Payload(), make([]byte, tt.wantLen-HeaderSize)) {
				t.Errorf("payload not zero-filled: % X", cmd.Payload())
			}
		})
	}
}

func TestCommandAccessors(t *testing.T) {
	d := testDialect(t)
	cmd, err := NewCommand(d, 0x07, 4)
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}

	if err := cmd.PutUint16(0, 0x1234); err != nil {
		t.Fatalf("PutUint16: %v", err)
	}
	if err := cmd.PutBytes(2, []byte{0xAA, 0xBB, 0xCC, 0xDD}); err != nil {
		t.Fatalf("PutBytes: %v", err)
	}
	cmd.SetSeq(0x0102)

	want := []byte{0x0B, 0x00, 0x02, 0x01, 0x07, 0x34, 0x12, 0xAA, 0xBB, 0xCC, 0xDD}
	if !bytes.Equal(cmd.Bytes(), want) {
		t.Errorf("frame = % X, want % X", cmd.Bytes(), want)
	}

	v, err := cmd.Uint16At(0)
	if err != nil || v != 0x1234 {
		t.Errorf("Uint16At(0) = 0x%04X, %v", v, err)
	}
	if _, err := cmd.Uint8At(6); err == nil {
		t.Error("Uint8At past payload: expected error")
	}
	if _, err := cmd.BytesAt(4, 3); err == nil {
		t.Error("BytesAt past payload: expected error")
	}
	if err := cmd.PutUint16(5, 1); err == nil {
		t.Error("PutUint16 past payload: expected error")
	}
}

func TestFromBytes(t *testing.T) {
	raw := []byte{0x00, 0x00, 0x00, 0x00, 0x11, 0x01}

	cmd, err := FromBytes(raw, true)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if cmd.Len() != 6 {
		t.Errorf("len = %d, want 6", cmd.Len())
	}
	raw[5] = 0xFF
	if cmd.Payload()[0] != 0x01 {
		t.Error("FromBytes must copy its input")
	}

	if _, err := FromBytes([]byte{1, 2}, true); err == nil {
		t.Error("expected error for short frame")
	}
}

func TestFormatFrame(t *testing.T) {
	got := FormatFrame("TX", []byte{0x05, 0x00, 0x01, 0x00, 0x11})
	want := "TX: [len=5 seq=1 op=0x11] 05 00 01 00 11"
	if got != want {
		t.Errorf("FormatFrame = %q, want %q", got, want)
	}

	var buf bytes.Buffer
	Dump(&buf, "RX", []byte{0xFF})
	if buf.String() != "RX: FF\n" {
		t.Errorf("Dump = %q", buf.String())
	}
}
