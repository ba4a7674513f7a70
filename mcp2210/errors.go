package mcp2210

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by operations on a closed Device.
	ErrClosed = errors.New("device closed")

	// ErrPollLimit is returned when a transfer exceeds the configured poll bound.
	ErrPollLimit = errors.New("spi transfer poll limit reached")
)

// TransportError indicates a failed or short packet write or read. The
// transfer it interrupted is not retried.
type TransportError struct {
	// Operation is the driver operation that failed
	Operation string

	// Op is "write" or "read"
	Op string

	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Operation, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError returns true if err is or wraps a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// shortTransfer describes a transport call that moved fewer than a full packet.
func shortTransfer(n, want int) error {
	return fmt.Errorf("short transfer: %d of %d bytes", n, want)
}
