package mcp2210

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// NewAll creates one Device per transport, sharing the same options.
//
// Example:
//
//	handles, _ := usbhid.FindHidapiDevices(protocol.VendorID, protocol.ProductID)
//	devices := mcp2210.NewAll(handles)
//	defer mcp2210.CloseAll(devices)
func NewAll[T io.ReadWriter](transports []T, opts ...Option) []*Device {
	return lo.Map(transports, func(rw T, _ int) *Device {
		return New(rw, opts...)
	})
}

// Each calls fn for every device concurrently, one goroutine per device.
// The first error cancels the context passed to the other calls and is
// returned once all calls have finished.
//
// Example:
//
//	err := mcp2210.Each(ctx, devices, func(ctx context.Context, d *mcp2210.Device) error {
//	    return d.WriteSpiSettings(ctx, settings, protocol.NVRAM)
//	})
func Each(ctx context.Context, devices []*Device, fn func(context.Context, *Device) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, d := range devices {
		g.Go(func() error {
			if err := fn(ctx, d); err != nil {
				return fmt.Errorf("%s: %w", d, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// CloseAll closes every device and returns the joined close errors.
func CloseAll(devices []*Device) error {
	errs := lo.Map(devices, func(d *Device, _ int) error {
		return d.Close()
	})
	return errors.Join(errs...)
}
