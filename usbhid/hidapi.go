package usbhid

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sstallion/go-hid"

	"github.com/moffa90/go-mcp2210/protocol"
)

// reportDevice is the subset of *hid.Device used by HidapiDevice.
type reportDevice interface {
	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
	ReadWithTimeout(p []byte, timeout time.Duration) (int, error)
	Close() error
}

// FindHidapiDevices opens every HID device with the given IDs through
// hidapi (hidraw on Linux, native HID elsewhere). Unlike the libusb
// backend it does not detach the kernel driver.
//
// Paths that fail to open are skipped and logged. No matching device is an
// empty result, not an error.
//
// Example:
//
//	handles, err := usbhid.FindHidapiDevices(protocol.VendorID, protocol.ProductID)
//	defer usbhid.CloseHidapi()
func FindHidapiDevices(vid, pid uint16, opts ...Option) ([]*HidapiDevice, error) {
	cfg := newConfig(opts)

	if err := hid.Init(); err != nil {
		return nil, fmt.Errorf("hidapi: init: %w", err)
	}

	var infos []*hid.DeviceInfo
	err := hid.Enumerate(vid, pid, func(info *hid.DeviceInfo) error {
		infos = append(infos, info)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("hidapi: enumerate %04x:%04x: %w", vid, pid, err)
	}

	return openPaths(infos, func(path string) (reportDevice, error) {
		return hid.OpenPath(path)
	}, cfg), nil
}

// openPaths opens each distinct device path once.
func openPaths(infos []*hid.DeviceInfo, open func(string) (reportDevice, error), cfg config) []*HidapiDevice {
	unique := lo.UniqBy(infos, func(info *hid.DeviceInfo) string {
		return info.Path
	})

	return lo.FilterMap(unique, func(info *hid.DeviceInfo, _ int) (*HidapiDevice, bool) {
		dev, err := open(info.Path)
		if err != nil {
			cfg.logger.Warn("skipping device", "path", info.Path, "err", err)
			return nil, false
		}
		h := &HidapiDevice{
			dev:     dev,
			path:    info.Path,
			timeout: cfg.timeout,
			desc:    describe(info.VendorID, info.ProductID),
		}
		cfg.logger.Debug("opened device", "path", info.Path, "product", info.ProductStr, "serial", info.SerialNbr)
		return h, true
	})
}

// CloseHidapi releases hidapi's global resources. Call it after every
// HidapiDevice has been closed.
func CloseHidapi() error {
	return hid.Exit()
}

// HidapiDevice is an MCP2210 opened through hidapi. Read and Write move
// exactly one 64-byte report.
type HidapiDevice struct {
	dev     reportDevice
	path    string
	timeout time.Duration
	desc    string

	// buf holds the report ID byte followed by one packet
	buf [protocol.PacketSize + 1]byte

	closeOnce sync.Once
	closeErr  error
}

// Write sends one report, prefixed with report ID 0.
func (d *HidapiDevice) Write(p []byte) (int, error) {
	if len(p) != protocol.PacketSize {
		return 0, fmt.Errorf("hidapi: write of %d bytes, want %d", len(p), protocol.PacketSize)
	}

	d.buf[0] = 0
	copy(d.buf[1:], p)
	n, err := d.dev.Write(d.buf[:])
	if err != nil {
		return 0, fmt.Errorf("hidapi: write: %w", err)
	}
	// the report ID byte is counted by hidapi
	return max(n-1, 0), nil
}

// Read receives one report into p.
func (d *HidapiDevice) Read(p []byte) (int, error) {
	if len(p) < protocol.PacketSize {
		return 0, fmt.Errorf("hidapi: read buffer of %d bytes, want %d", len(p), protocol.PacketSize)
	}

	for {
		n, err := d.read(p[:protocol.PacketSize])
		if err == nil {
			return n, nil
		}
		// hidraw reads are interrupted by signals; retry those
		if err.Error() != "Interrupted system call" {
			return n, fmt.Errorf("hidapi: read: %w", err)
		}
	}
}

func (d *HidapiDevice) read(p []byte) (int, error) {
	if d.timeout > 0 {
		n, err := d.dev.ReadWithTimeout(p, d.timeout)
		if errors.Is(err, hid.ErrTimeout) {
			return n, fmt.Errorf("no report within %s: %w", d.timeout, err)
		}
		return n, err
	}
	return d.dev.Read(p)
}

// Close closes the device. Later calls return the first call's result.
func (d *HidapiDevice) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.dev.Close()
	})
	return d.closeErr
}

// Path returns the platform device path.
func (d *HidapiDevice) Path() string {
	return d.path
}

func (d *HidapiDevice) String() string {
	return d.desc
}
