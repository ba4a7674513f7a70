// Package usbhid provides packet transports for the MCP2210 over USB HID.
//
// Two backends are available:
//
//   - Libusb claims the HID interface through libusb (github.com/google/gousb),
//     detaching the kernel driver if needed, and uses interrupt transfers.
//   - FindHidapiDevices opens the device through hidapi
//     (github.com/sstallion/go-hid) and leaves the kernel driver attached.
//
// Both return handles that implement io.ReadWriteCloser and fmt.Stringer
// and can be passed to mcp2210.New. Every Write sends exactly one 64-byte
// report and every Read returns one. Reads and writes block unless
// WithTimeout is given.
package usbhid
