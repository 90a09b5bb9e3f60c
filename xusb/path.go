package xusb

import (
	"fmt"
	"strings"
)

// DevPath formats a bus number and device address as "BBB/DDD".
func DevPath(bus, address int) string {
	return fmt.Sprintf("%03d/%03d", bus, address)
}

// PathTail returns the last two components of path. Both
// "/dev/bus/usb/001/004" and "001/004" yield "001/004".
func PathTail(path string) (string, error) {
	path = strings.TrimRight(path, "/")
	last := strings.LastIndexByte(path, '/')
	if last <= 0 {
		return "", fmt.Errorf("%w: bad device path %q", ErrBadPath, path)
	}
	prev := strings.LastIndexByte(path[:last], '/')
	return path[prev+1:], nil
}

// MatchPath reports whether the device at bus/address is the one path
// names.
func MatchPath(path string, bus, address int) bool {
	tail, err := PathTail(path)
	if err != nil {
		return false
	}
	return tail == DevPath(bus, address)
}
