//go:build unix

package xusb

import (
	"path/filepath"
	"testing"
)

func TestLockBus(t *testing.T) {
	p := filepath.Join(t.TempDir(), "scan.lock")
	l, err := lockBus(p)
	if err != nil {
		t.Fatalf("lockBus: %v", err)
	}
	if err := l.unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if err := l.unlock(); err != nil {
		t.Fatalf("second unlock: %v", err)
	}

	// Relocking after release must not block.
	l, err = lockBus(p)
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	l.unlock()

	noop, err := lockBus("")
	if err != nil || noop.unlock() != nil {
		t.Fatal("empty path must be a no-op lock")
	}
}
