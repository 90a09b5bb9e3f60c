//go:build unix

package xusb

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

type busLock struct {
	f *os.File
}

// lockBus takes an exclusive flock on path so concurrent tools do not scan
// the bus while another one is opening devices. An empty path is a no-op.
func lockBus(path string) (*busLock, error) {
	if path == "" {
		return &busLock{}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock %s: %w", path, err)
	}
	for {
		err = unix.Flock(int(f.Fd()), unix.LOCK_EX)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	return &busLock{f: f}, nil
}

func (l *busLock) unlock() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}
