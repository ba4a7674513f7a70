package usbhid

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
	"github.com/samber/lo"

	"github.com/moffa90/go-mcp2210/protocol"
)

// ErrDescriptor indicates a device whose interfaces do not look like an
// MCP2210: one HID interface with one interrupt IN and one interrupt OUT endpoint.
var ErrDescriptor = errors.New("unsupported interface descriptor")

// Libusb enumerates devices through libusb. It owns a libusb context; close
// it after every device it returned has been closed.
type Libusb struct {
	ctx *gousb.Context
}

// NewLibusb initialises libusb.
func NewLibusb() *Libusb {
	return &Libusb{ctx: gousb.NewContext()}
}

// Close releases the libusb context.
func (l *Libusb) Close() error {
	return l.ctx.Close()
}

// FindDevices opens and claims every device with the given IDs.
//
// Devices whose descriptors do not match the expected HID shape, or whose
// interface cannot be claimed, are skipped and logged. No matching device
// is an empty result, not an error. If enumeration fails, devices already
// opened are released before the error is returned.
//
// Example:
//
//	usb := usbhid.NewLibusb()
//	defer usb.Close()
//	handles, err := usb.FindDevices(protocol.VendorID, protocol.ProductID)
func (l *Libusb) FindDevices(vid, pid uint16, opts ...Option) ([]*LibusbDevice, error) {
	cfg := newConfig(opts)

	devs, err := l.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return uint16(desc.Vendor) == vid && uint16(desc.Product) == pid
	})
	if err != nil {
		for _, d := range devs {
			d.Close()
		}
		return nil, fmt.Errorf("libusb: enumerate %04x:%04x: %w", vid, pid, err)
	}

	handles := lo.FilterMap(devs, func(dev *gousb.Device, _ int) (*LibusbDevice, bool) {
		h, err := claim(dev, vid, pid, cfg)
		if err != nil {
			cfg.logger.Warn("skipping device", "usb", dev.String(), "err", err)
			dev.Close()
			return nil, false
		}
		cfg.logger.Debug("opened device", "usb", dev.String(), "desc", h.desc)
		return h, true
	})

	return handles, nil
}

// claim checks the active configuration and claims interface 0.
func claim(dev *gousb.Device, vid, pid uint16, cfg config) (*LibusbDevice, error) {
	if err := dev.SetAutoDetach(true); err != nil {
		return nil, fmt.Errorf("auto detach: %w", err)
	}

	num, err := dev.ActiveConfigNum()
	if err != nil {
		return nil, fmt.Errorf("active config: %w", err)
	}
	usbCfg, err := dev.Config(num)
	if err != nil {
		return nil, fmt.Errorf("config %d: %w", num, err)
	}

	if n := len(usbCfg.Desc.Interfaces); n != 1 {
		usbCfg.Close()
		return nil, fmt.Errorf("%d interfaces: %w", n, ErrDescriptor)
	}
	if n := len(usbCfg.Desc.Interfaces[0].AltSettings); n != 1 {
		usbCfg.Close()
		return nil, fmt.Errorf("%d alternate settings: %w", n, ErrDescriptor)
	}

	in, out, err := selectEndpoints(usbCfg.Desc.Interfaces[0].AltSettings[0])
	if err != nil {
		usbCfg.Close()
		return nil, err
	}

	intf, err := usbCfg.Interface(0, 0)
	if err != nil {
		usbCfg.Close()
		return nil, fmt.Errorf("claim interface: %w", err)
	}

	inEp, err := intf.InEndpoint(in.Number)
	if err != nil {
		intf.Close()
		usbCfg.Close()
		return nil, fmt.Errorf("in endpoint %s: %w", in, err)
	}
	outEp, err := intf.OutEndpoint(out.Number)
	if err != nil {
		intf.Close()
		usbCfg.Close()
		return nil, fmt.Errorf("out endpoint %s: %w", out, err)
	}

	return &LibusbDevice{
		dev:     dev,
		usbCfg:  usbCfg,
		intf:    intf,
		in:      inEp,
		out:     outEp,
		timeout: cfg.timeout,
		desc:    describe(vid, pid),
	}, nil
}

// selectEndpoints returns the single interrupt IN and OUT endpoints of a
// HID interface setting.
func selectEndpoints(setting gousb.InterfaceSetting) (in, out gousb.EndpointDesc, err error) {
	if setting.Class != gousb.ClassHID {
		return in, out, fmt.Errorf("interface class %s: %w", setting.Class, ErrDescriptor)
	}

	interrupt := lo.Filter(lo.Values(setting.Endpoints), func(ep gousb.EndpointDesc, _ int) bool {
		return ep.TransferType == gousb.TransferTypeInterrupt
	})
	ins, outs := lo.FilterReject(interrupt, func(ep gousb.EndpointDesc, _ int) bool {
		return ep.Direction == gousb.EndpointDirectionIn
	})
	if len(ins) != 1 || len(outs) != 1 {
		return in, out, fmt.Errorf("%d interrupt IN and %d interrupt OUT endpoints: %w", len(ins), len(outs), ErrDescriptor)
	}
	return ins[0], outs[0], nil
}

// LibusbDevice is a claimed MCP2210 interface. Read and Write move exactly
// one 64-byte report using interrupt transfers.
type LibusbDevice struct {
	dev     *gousb.Device
	usbCfg  *gousb.Config
	intf    *gousb.Interface
	in      *gousb.InEndpoint
	out     *gousb.OutEndpoint
	timeout time.Duration
	desc    string

	closeOnce sync.Once
	closeErr  error
}

func (d *LibusbDevice) transferContext() (context.Context, context.CancelFunc) {
	if d.timeout > 0 {
		return context.WithTimeout(context.Background(), d.timeout)
	}
	return context.Background(), func() {}
}

// Write sends one report. p must be exactly one packet long.
func (d *LibusbDevice) Write(p []byte) (int, error) {
	if len(p) != protocol.PacketSize {
		return 0, fmt.Errorf("libusb: write of %d bytes, want %d", len(p), protocol.PacketSize)
	}
	ctx, cancel := d.transferContext()
	defer cancel()

	n, err := d.out.WriteContext(ctx, p)
	if err != nil {
		return n, fmt.Errorf("libusb: write: %w", err)
	}
	return n, nil
}

// Read receives one report into p, which must hold a full packet.
func (d *LibusbDevice) Read(p []byte) (int, error) {
	if len(p) < protocol.PacketSize {
		return 0, fmt.Errorf("libusb: read buffer of %d bytes, want %d", len(p), protocol.PacketSize)
	}
	ctx, cancel := d.transferContext()
	defer cancel()

	n, err := d.in.ReadContext(ctx, p[:protocol.PacketSize])
	if err != nil {
		return n, fmt.Errorf("libusb: read: %w", err)
	}
	return n, nil
}

// Close releases the interface and closes the device. Later calls return
// the first call's result.
func (d *LibusbDevice) Close() error {
	d.closeOnce.Do(func() {
		d.intf.Close()
		d.closeErr = errors.Join(d.usbCfg.Close(), d.dev.Close())
	})
	return d.closeErr
}

func (d *LibusbDevice) String() string {
	return d.desc
}
