package mcp2210

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/moffa90/go-mcp2210/protocol"
)

// Statuses accepted at each point of a transfer.
var (
	firstStatuses = []protocol.SpiStatus{protocol.SpiNeedMoreData}
	pollStatuses  = []protocol.SpiStatus{protocol.SpiDataPending, protocol.SpiFinished}
)

// TransferStep performs a single Transfer SPI Data exchange and returns
// the decoded response without interpreting its status. An empty send
// polls for received data.
//
// Most callers want Transfer; TransferStep is for callers driving their
// own state machine.
func (d *Device) TransferStep(ctx context.Context, send []byte) (protocol.TransferResponse, error) {
	const operation = "spi transfer step"

	req, err := protocol.BuildTransferCmd(send)
	if err != nil {
		return protocol.TransferResponse{}, fmt.Errorf("%s: %w", operation, err)
	}

	if err := d.begin(ctx); err != nil {
		return protocol.TransferResponse{}, fmt.Errorf("%s: %w", operation, err)
	}
	defer d.mu.Unlock()

	return d.transferExchange(ctx, operation, &req)
}

// Transfer sends up to protocol.MaxTransferChunk bytes over SPI and
// collects everything the device clocks back into recv.
//
// The first exchange carries send and must be acknowledged with
// protocol.SpiNeedMoreData. The device is then polled with empty sends:
// protocol.SpiDataPending continues, protocol.SpiFinished ends the
// transfer, anything else fails with *protocol.DesyncError.
//
// The returned n is the number of bytes received. If recv is too small the
// transfer fails with protocol.ErrBufferTooSmall; recv[:n] then holds the
// bytes appended before the chunk that did not fit. Transport failures
// abort the transfer and are not retried.
//
// Example:
//
//	recv := make([]byte, 64)
//	n, err := dev.Transfer(ctx, []byte{0x9F, 0, 0, 0}, recv)
func (d *Device) Transfer(ctx context.Context, send, recv []byte) (int, error) {
	const operation = "spi transfer"

	req, err := protocol.BuildTransferCmd(send)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", operation, err)
	}

	if err := d.begin(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w", operation, err)
	}
	defer d.mu.Unlock()

	exchange := 1
	resp, err := d.transferExchange(ctx, operation, &req)
	if err != nil {
		return 0, err
	}
	if !lo.Contains(firstStatuses, resp.Status) {
		return 0, d.desync(exchange, resp.Status, firstStatuses)
	}
	d.reportProgress(TransferProgress{Phase: PhaseSending, Exchange: exchange, Status: resp.Status})

	poll, _ := protocol.BuildTransferCmd(nil)
	n := 0
	for {
		exchange++
		if d.config.MaxPolls > 0 && exchange-1 > d.config.MaxPolls {
			return n, fmt.Errorf("%s: %d polls: %w", operation, d.config.MaxPolls, ErrPollLimit)
		}

		resp, err := d.transferExchange(ctx, operation, &poll)
		if err != nil {
			return n, err
		}
		if !lo.Contains(pollStatuses, resp.Status) {
			return n, d.desync(exchange, resp.Status, pollStatuses)
		}

		if n+len(resp.Data) > len(recv) {
			return n, fmt.Errorf("%s: %d bytes received, buffer holds %d: %w",
				operation, n+len(resp.Data), len(recv), protocol.ErrBufferTooSmall)
		}
		n += copy(recv[n:], resp.Data)

		if resp.Status == protocol.SpiFinished {
			d.reportProgress(TransferProgress{Phase: PhaseComplete, Exchange: exchange, Status: resp.Status, Received: n})
			d.logDebug("spi transfer complete", "sent", len(send), "received", n, "exchanges", exchange)
			return n, nil
		}
		d.reportProgress(TransferProgress{Phase: PhasePolling, Exchange: exchange, Status: resp.Status, Received: n})
	}
}

// transferExchange runs one 0x42 exchange. The caller must hold d.mu.
func (d *Device) transferExchange(ctx context.Context, operation string, req *protocol.Packet) (protocol.TransferResponse, error) {
	resp, err := d.exchange(ctx, operation, req)
	if err != nil {
		return protocol.TransferResponse{}, err
	}
	return protocol.ParseTransferResponse(operation, req, &resp)
}

func (d *Device) desync(exchange int, status protocol.SpiStatus, expected []protocol.SpiStatus) error {
	err := &protocol.DesyncError{Exchange: exchange, Status: status, Expected: expected}
	d.logError("spi transfer desync", "err", err)
	return err
}

// reportProgress calls the transfer callback if configured.
func (d *Device) reportProgress(progress TransferProgress) {
	if d.config.TransferCallback != nil {
		d.config.TransferCallback(progress)
	}
}
