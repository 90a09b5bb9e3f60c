package protocol

import (
	"strings"
	"testing"
)

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name    string
		buf     []byte
		n       int
		wantOp  Op
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid ack",
			buf:    BuildAck(3, StatusOK),
			n:      AckLen,
			wantOp: OpAck,
		},
		{
			name:   "valid frame in larger buffer",
			buf:    append(BuildAck(3, StatusOK), make([]byte, 100)...),
			n:      AckLen,
			wantOp: OpAck,
		},
		{
			name:    "length field disagrees",
			buf:     []byte{0x07, 0x00, 0x01, 0x00, 0x91, 0x00},
			n:       6,
			wantErr: true,
			errMsg:  "length field says 7 bytes",
		},
		{
			name:    "one byte",
			buf:     []byte{0x07},
			n:       1,
			wantErr: true,
			errMsg:  "frame too short",
		},
		{
			name:    "n beyond buffer",
			buf:     []byte{0x05, 0x00, 0x01, 0x00, 0x91},
			n:       9,
			wantErr: true,
			errMsg:  "frame too short",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := DecodeCommand(tt.buf, tt.n)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error = %v, want substring %q", err, tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Op() != tt.wantOp {
				t.Errorf("op = %s, want %s", cmd.Op(), tt.wantOp)
			}
			if len(cmd.Bytes()) != tt.n {
				t.Errorf("frame length = %d, want %d", len(cmd.Bytes()), tt.n)
			}
		})
	}
}

func TestParseAck(t *testing.T) {
	cmd, err := DecodeCommand(BuildAck(9, StatusNoAccess), AckLen)
	if err != nil {
		t.Fatalf("DecodeCommand: %v", err)
	}
	if cmd.Seq() != 9 {
		t.Errorf("seq = %d, want 9", cmd.Seq())
	}
	status, err := ParseAck(cmd)
	if err != nil {
		t.Fatalf("ParseAck: %v", err)
	}
	if status != StatusNoAccess {
		t.Errorf("status = 0x%02X, want 0x%02X", status, StatusNoAccess)
	}

	other, _ := FromBytes([]byte{0x06, 0, 0, 0, 0x81, 0}, false)
	if _, err := ParseAck(other); err == nil {
		t.Error("ParseAck on non-ACK: expected error")
	}
}

func TestProtoGet(t *testing.T) {
	cmd, err := BuildProtoGet(SyncBase, 0x14)
	if err != nil {
		t.Fatalf("BuildProtoGet: %v", err)
	}
	want := []byte{0x07, 0x00, 0x00, 0x00, 0x01, 0x14, 0x00}
	if string(cmd.Bytes()) != string(want) {
		t.Errorf("frame = % X, want % X", cmd.Bytes(), want)
	}

	reply, _ := FromBytes([]byte{0x07, 0x00, 0x01, 0x00, 0x81, 0x13, 0x00}, false)
	v, err := ParseProtoGetReply(reply)
	if err != nil {
		t.Fatalf("ParseProtoGetReply: %v", err)
	}
	if v != 0x13 {
		t.Errorf("version = 0x%02X, want 0x13", v)
	}
	if _, err := ParseProtoGetReply(cmd); err == nil {
		t.Error("ParseProtoGetReply on PROTO_GET: expected error")
	}
}
