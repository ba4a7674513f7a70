package protocol

import (
	"errors"
	"fmt"
	"strings"
)

// Capacity errors. These are detected before any wire exchange for writes
// and before any output is produced for reads.
var (
	// ErrValueTooLong indicates caller data does not fit its fixed-size field.
	ErrValueTooLong = errors.New("value too long")

	// ErrBufferTooSmall indicates the caller's output buffer cannot hold the result.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrLengthExceeded indicates a decoded character count exceeds the capacity.
	ErrLengthExceeded = errors.New("decoded length exceeds capacity")

	// ErrInvalidChar indicates a character outside the 16-bit range.
	ErrInvalidChar = errors.New("character outside 16-bit range")

	// ErrMalformedString indicates a string descriptor with an impossible length.
	ErrMalformedString = errors.New("malformed string descriptor")
)

// ProtocolError indicates a response header that does not match the request:
// a wrong command echo, a non-zero status or a wrong subcommand echo.
type ProtocolError struct {
	// Operation is the driver operation that failed
	Operation string

	// Field names the offending header byte
	Field string

	// Index is the header byte index
	Index int

	// Expected and Actual are the expected and received header byte values
	Expected byte
	Actual   byte

	// Request and Response are the request and response headers
	Request  [HeaderSize]byte
	Response [HeaderSize]byte
}

func (e *ProtocolError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed: %s 0x%02X, expected 0x%02X", e.Operation, e.Field, e.Actual, e.Expected)
	if e.Index == 1 {
		fmt.Fprintf(&b, " (%s)", getStatusName(e.Actual))
	}
	fmt.Fprintf(&b, " [request % x, response % x]", e.Request[:], e.Response[:])
	return b.String()
}

// IsProtocolError returns true if err is or wraps a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// DesyncError indicates an SPI transfer status sequence the state machine
// does not accept.
type DesyncError struct {
	// Exchange is the 1-based exchange number within the transfer
	Exchange int

	// Status is the status the device reported
	Status SpiStatus

	// Expected lists the statuses that were acceptable at that point
	Expected []SpiStatus
}

func (e *DesyncError) Error() string {
	want := make([]string, len(e.Expected))
	for i, s := range e.Expected {
		want[i] = fmt.Sprintf("0x%02X", byte(s))
	}
	return fmt.Sprintf("spi transfer desync at exchange %d: status 0x%02X (%s), expected %s",
		e.Exchange, byte(e.Status), e.Status, strings.Join(want, " or "))
}

// IsDesyncError returns true if err is or wraps a DesyncError.
func IsDesyncError(err error) bool {
	var de *DesyncError
	return errors.As(err, &de)
}

// getStatusName returns a human-readable name for a header status byte.
func getStatusName(code byte) string {
	switch code {
	case StatusSuccess:
		return "success"
	case StatusBusNotAvailable:
		return "spi bus not available"
	case StatusTransferInProgress:
		return "spi transfer in progress"
	case StatusUnknownCommand:
		return "unknown command"
	case StatusAccessBlocked:
		return "nvram access blocked"
	default:
		return fmt.Sprintf("unknown status code 0x%02X", code)
	}
}
