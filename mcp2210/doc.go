// Package mcp2210 provides a host-side driver for the Microchip MCP2210
// USB-to-SPI bridge.
//
// This package handles settings exchanges and the chunked SPI transfer
// state machine. It works with any transport that implements
// io.ReadWriter and moves one 64-byte HID report per call; package usbhid
// provides libusb and hidapi transports, and package mcp2210test a
// scripted transport and a device simulator.
//
// # Basic Usage
//
//	usb := usbhid.NewLibusb()
//	defer usb.Close()
//
//	handles, err := usb.FindDevices(protocol.VendorID, protocol.ProductID)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	dev := mcp2210.New(handles[0])
//	defer dev.Close()
//
//	settings, err := dev.ReadSpiSettings(ctx, protocol.NVRAM)
//
// # Volatile and NVRAM Settings
//
// SPI and chip settings exist twice: the active volatile copy and the
// power-up copy in NVRAM. Pass protocol.Volatile or protocol.NVRAM to pick
// one. Key parameters and the product and manufacturer names only exist
// in NVRAM.
//
// # SPI Transfers
//
//	recv := make([]byte, 64)
//	n, err := dev.Transfer(ctx, []byte{0x9F, 0x00, 0x00, 0x00}, recv)
//
// Transfer sends one chunk of at most 60 bytes, then polls until the
// device reports the transfer finished. Use WithTransferCallback to
// observe individual exchanges and WithMaxPolls to bound the polling.
//
// # Concurrency
//
// A Device serialises its own operations. Several devices can be driven
// in parallel with Each.
//
// # Error Handling
//
// Transport failures are *TransportError. Rejected or mismatched
// responses are *protocol.ProtocolError, and out-of-sequence transfer
// statuses *protocol.DesyncError. None are retried.
//
//	if err := dev.WriteKeyParameters(ctx, k); err != nil {
//	    var pe *protocol.ProtocolError
//	    if errors.As(err, &pe) {
//	        log.Printf("device rejected write: %v", pe)
//	    }
//	}
//
// Context cancellation is checked before an operation's first exchange.
// A started operation always runs to completion so the device is never
// left mid-transfer.
package mcp2210
