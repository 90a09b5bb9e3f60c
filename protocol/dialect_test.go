package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpRanges(t *testing.T) {
	tests := []struct {
		op      Op
		private bool
		reply   bool
	}{
		{op: 0x01, private: false, reply: false},
		{op: 0x04, private: false, reply: false},
		{op: 0x05, private: true, reply: false},
		{op: 0x7F, private: true, reply: false},
		{op: 0x80, private: false, reply: true},
		{op: 0x81, private: false, reply: true},
		{op: 0x85, private: true, reply: true},
		{op: 0xFF, private: true, reply: true},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			assert.Equal(t, tt.private, tt.op.IsPrivate())
			assert.Equal(t, tt.reply, tt.op.IsReply())
		})
	}
	assert.Equal(t, Op(0x91), Op(0x11).Reply())
}

func TestMergeInheritsBase(t *testing.T) {
	d, err := Merge(SyncBase, testOverlay)
	require.NoError(t, err)

	assert.Equal(t, "TEST", d.Name())
	assert.Equal(t, uint8(0x14), d.Version())

	for i := 0; i < MaxOps; i++ {
		op := Op(i)
		got, gotOK := d.Lookup(op)
		if _, inOverlay := testOverlay.Lookup(op); inOverlay {
			want, _ := testOverlay.Lookup(op)
			assert.Equal(t, want, got, "op %s", op)
			continue
		}
		if op.IsPrivate() {
			assert.False(t, gotOK, "private op %s leaked from base", op)
			continue
		}
		want, wantOK := SyncBase.Lookup(op)
		assert.Equal(t, wantOK, gotOK, "op %s", op)
		assert.Equal(t, want, got, "op %s", op)
	}
}

func TestMergeStatuses(t *testing.T) {
	d, err := Merge(SyncBase, testOverlay)
	require.NoError(t, err)

	assert.Equal(t, "Source was not burned before", d.StatusMessage(0x09))
	assert.Equal(t, "No access", d.StatusMessage(StatusNoAccess))
	assert.Equal(t, "Unknown status 0x42", d.StatusMessage(0x42))
	assert.Equal(t, "Unknown status 0xFF", d.StatusMessage(0xFF))
}

func TestMergeNilOverlay(t *testing.T) {
	d, err := Merge(SyncBase, nil)
	require.NoError(t, err)

	assert.Equal(t, GlobalName, d.Name())
	assert.Equal(t, uint8(0), d.Version())
	_, ok := d.Lookup(OpProtoGet)
	assert.True(t, ok)
}

func TestMergeRejectsGlobalOverride(t *testing.T) {
	tests := []struct {
		name string
		op   Op
	}{
		{name: "proto get", op: OpProtoGet},
		{name: "ack", op: OpAck},
		{name: "below private range", op: 0x04},
		{name: "reply below private range", op: 0x84},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := MustDialect("BAD", 1, []CommandDesc{
				{Op: tt.op, Name: "HIJACK", Len: HeaderSize},
			}, nil)
			_, err := Merge(SyncBase, bad)
			assert.True(t, errors.Is(err, ErrInvalidDialect), "error = %v", err)
		})
	}
}

func TestMergeReplacesPreviousTable(t *testing.T) {
	first, err := Merge(SyncBase, testOverlay)
	require.NoError(t, err)

	second, err := Merge(RawBase, nil)
	require.NoError(t, err)

	_, ok := second.Lookup(0x11)
	assert.False(t, ok)
	_, ok = second.Lookup(OpProtoGet)
	assert.False(t, ok)
	_, ok = first.Lookup(0x11)
	assert.True(t, ok, "merging must not alter earlier results")
}

func TestNewDialectValidation(t *testing.T) {
	_, err := NewDialect("X", 0, []CommandDesc{{Op: 0x10, Len: 5}}, nil)
	assert.ErrorIs(t, err, ErrInvalidDialect)

	_, err = NewDialect("X", 0, []CommandDesc{{Op: 0x10, Name: "A", Len: 3}}, nil)
	assert.ErrorIs(t, err, ErrInvalidDialect)

	_, err = NewDialect("X", 0, []CommandDesc{
		{Op: 0x10, Name: "A", Len: 5},
		{Op: 0x10, Name: "B", Len: 5},
	}, nil)
	assert.ErrorIs(t, err, ErrInvalidDialect)

	_, err = NewDialect("X", 0, nil, map[uint8]string{0xFF: "too far"})
	assert.ErrorIs(t, err, ErrInvalidDialect)

	d, err := NewDialect("X", 0, []CommandDesc{{Op: 0x10, Name: "A", Len: 5}}, nil)
	require.NoError(t, err)
	assert.Len(t, d.Commands(), 1)
}
