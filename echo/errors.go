package echo

import "errors"

var (
	// ErrFatalDriverWrite is returned by every failed register write
	ErrFatalDriverWrite = errors.New("echo: fatal driver write error")

	// ErrFatalDriverRead is returned by every failed register read
	ErrFatalDriverRead = errors.New("echo: fatal driver read error")

	// ErrBufferTooSmall is returned for a packet that cannot fit an empty buffer
	ErrBufferTooSmall = errors.New("echo: buffer too small")

	// ErrNoChipOpener is returned by Load when a real DSP answered but no
	// ChipOpener was supplied
	ErrNoChipOpener = errors.New("echo: no chip opener")

	// ErrInvalidSpanSpec is wrapped by every ParseSpanSpecs error
	ErrInvalidSpanSpec = errors.New("invalid span specification")
)
