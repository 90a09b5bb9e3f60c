package protocol

import (
	"errors"
	"fmt"
)

// Sentinel errors of the XTALK layers. Use errors.Is to test for them.
var (
	// ErrUnknownOperation is returned when an op code has no descriptor
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrNoReply is returned when the transport delivered zero bytes
	ErrNoReply = errors.New("no reply")

	// ErrInvalidState is returned when an operation is not allowed in the current state
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidDialect is returned when a dialect table is malformed
	ErrInvalidDialect = errors.New("invalid dialect")

	// ErrInvalidArgument is returned for out-of-range caller arguments
	ErrInvalidArgument = errors.New("invalid argument")
)

// ProtocolError represents a reply that failed validation, or a negative
// acknowledgement from the device.
type ProtocolError struct {
	// Operation is the command that failed
	Operation string

	// Reply is the op code of the offending reply
	Reply Op

	// Reason describes which validation step failed
	Reason string

	// HasStatus is set when the device returned an ACK status
	HasStatus bool

	// StatusCode is the ACK status from the device
	StatusCode byte

	// Message is the dialect message for StatusCode
	Message string
}

func (e *ProtocolError) Error() string {
	if e.HasStatus {
		return fmt.Sprintf("%s failed: %s (0x%02X)", e.Operation, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s failed: %s (reply op %s)", e.Operation, e.Reason, e.Reply)
}

// IsProtocolError returns true if the error is, or wraps, a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// TransportError wraps an I/O failure of the underlying channel.
type TransportError struct {
	// Operation is "send" or "recv"
	Operation string

	// Err is the transport failure
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError returns true if the error is, or wraps, a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
