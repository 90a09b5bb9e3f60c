package firmware

import (
	"errors"
	"fmt"
)

// ErrEmptyImage is returned when an image carries no data records.
var ErrEmptyImage = errors.New("image has no data")

// SegmentError indicates that the device refused or lost a segment.
type SegmentError struct {
	Index  int
	Offset uint16
	Err    error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("segment %d at offset 0x%04X: %v", e.Index, e.Offset, e.Err)
}

func (e *SegmentError) Unwrap() error {
	return e.Err
}

// VersionTooLongError indicates a version tag that does not fit the
// DEV_SEND_START field.
type VersionTooLongError struct {
	Version string
	Max     int
}

func (e *VersionTooLongError) Error() string {
	return fmt.Sprintf("version %q is longer than %d bytes", e.Version, e.Max)
}
