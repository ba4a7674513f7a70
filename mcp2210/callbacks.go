package mcp2210

import "github.com/moffa90/go-mcp2210/protocol"

// Transfer phases reported in TransferProgress.
const (
	PhaseSending  = "sending"
	PhasePolling  = "polling"
	PhaseComplete = "complete"
)

// TransferProgress contains information about an SPI transfer in progress.
// Passed to TransferCallback after every exchange.
type TransferProgress struct {
	// Phase describes the exchange just completed:
	//   "sending"  - The outbound chunk was accepted
	//   "polling"  - A poll returned more data pending
	//   "complete" - The device reported the transfer finished
	Phase string

	// Exchange is the 1-based exchange number within the transfer
	Exchange int

	// Status is the SPI engine status of the exchange
	Status protocol.SpiStatus

	// Received is the total number of bytes received so far
	Received int
}

// TransferCallback is called after every SPI transfer exchange.
// Implementations should return quickly; the device is locked while it runs.
type TransferCallback func(TransferProgress)
