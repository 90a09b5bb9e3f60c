package xusb

import "errors"

var (
	// ErrNoDevice is returned when no device matched the search.
	ErrNoDevice = errors.New("no matching device")

	// ErrTooManyDevices is returned when a single device was requested but
	// more than one matched.
	ErrTooManyDevices = errors.New("too many devices")

	// ErrBadPath is returned for device paths without a bus component.
	ErrBadPath = errors.New("bad device path")

	// ErrShortWrite is returned when a bulk write moved fewer bytes than
	// requested.
	ErrShortWrite = errors.New("short write")

	// ErrDeviceGone is returned once the device disappeared from the bus,
	// typically while it renumerates.
	ErrDeviceGone = errors.New("device disconnected")

	// ErrBadInterface is returned when an interface does not carry exactly
	// one IN and one OUT endpoint.
	ErrBadInterface = errors.New("bad interface layout")

	// ErrUnknownOption is returned for unrecognised XTALK_OPTIONS tokens.
	ErrUnknownOption = errors.New("unknown XTALK_OPTIONS content")
)
