package mcp2210

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/moffa90/go-mcp2210/logging"
	"github.com/moffa90/go-mcp2210/protocol"
)

// Device drives one MCP2210 over a packet transport.
//
// Every operation is one or more strictly sequential write-then-read
// exchanges of 64-byte packets. Device is safe for concurrent use; a mutex
// serialises whole operations so a multi-packet SPI transfer is never
// interleaved with another request.
type Device struct {
	rw     io.ReadWriter
	config Config

	mu     sync.Mutex
	closed bool

	closeOnce sync.Once
	closeErr  error
}

// New creates a Device on the given transport.
// Each Write must send one 64-byte report and each Read must return one.
//
// Example:
//
//	usb := usbhid.NewLibusb()
//	handles, _ := usb.FindDevices(protocol.VendorID, protocol.ProductID)
//	dev := mcp2210.New(handles[0], mcp2210.WithMaxPolls(1000))
//	defer dev.Close()
func New(rw io.ReadWriter, opts ...Option) *Device {
	if rw == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Device{
		rw:     rw,
		config: cfg,
	}
}

// Close releases the transport if it implements io.Closer. It is safe to
// call more than once; only the first call reaches the transport.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()

		if c, ok := d.rw.(io.Closer); ok {
			d.closeErr = c.Close()
		}
		d.logDebug("device closed", "err", d.closeErr)
	})
	return d.closeErr
}

// String returns the transport's description, if it has one.
func (d *Device) String() string {
	if s, ok := d.rw.(fmt.Stringer); ok {
		return s.String()
	}
	return "MCP2210"
}

// begin locks the device for one operation and checks it may start.
// On success the caller must unlock d.mu.
func (d *Device) begin(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		d.mu.Unlock()
		return err
	}
	return nil
}

// roundTrip runs one settings exchange and validates the response header.
func (d *Device) roundTrip(ctx context.Context, operation string, req *protocol.Packet) (protocol.Packet, error) {
	if err := d.begin(ctx); err != nil {
		return protocol.Packet{}, fmt.Errorf("%s: %w", operation, err)
	}
	defer d.mu.Unlock()

	resp, err := d.exchange(ctx, operation, req)
	if err != nil {
		return protocol.Packet{}, err
	}
	if err := protocol.CheckResponse(operation, req, &resp); err != nil {
		d.logError("response rejected", "operation", operation, "err", err)
		return protocol.Packet{}, err
	}
	return resp, nil
}

// exchange writes exactly one packet and reads exactly one packet.
// The caller must hold d.mu.
func (d *Device) exchange(ctx context.Context, operation string, req *protocol.Packet) (protocol.Packet, error) {
	var resp protocol.Packet

	d.trace(ctx, "tx", req)
	n, err := d.rw.Write(req[:])
	if err != nil {
		return resp, &TransportError{Operation: operation, Op: "write", Err: err}
	}
	if n != protocol.PacketSize {
		return resp, &TransportError{Operation: operation, Op: "write", Err: shortTransfer(n, protocol.PacketSize)}
	}

	n, err = d.rw.Read(resp[:])
	if err != nil {
		return resp, &TransportError{Operation: operation, Op: "read", Err: err}
	}
	if n != protocol.PacketSize {
		return resp, &TransportError{Operation: operation, Op: "read", Err: shortTransfer(n, protocol.PacketSize)}
	}
	d.trace(ctx, "rx", &resp)

	return resp, nil
}

// trace logs a packet header at logging.LevelTrace.
func (d *Device) trace(ctx context.Context, dir string, p *protocol.Packet) {
	if d.config.Logger.Enabled(ctx, logging.LevelTrace) {
		d.config.Logger.Log(ctx, logging.LevelTrace, dir, slog.String("header", p.String()))
	}
}

// logDebug logs a debug message.
func (d *Device) logDebug(msg string, args ...any) {
	d.config.Logger.Debug(msg, append([]any{"device", d.String()}, args...)...)
}

// logInfo logs an info message.
func (d *Device) logInfo(msg string, args ...any) {
	d.config.Logger.Info(msg, append([]any{"device", d.String()}, args...)...)
}

// logError logs an error message.
func (d *Device) logError(msg string, args ...any) {
	d.config.Logger.Error(msg, append([]any{"device", d.String()}, args...)...)
}
