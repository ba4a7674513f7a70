package mcp2210

import (
	"context"
	"fmt"

	"github.com/moffa90/go-mcp2210/protocol"
)

// ReadSpiSettings reads the SPI transfer settings from the given store.
//
// Example:
//
//	s, err := dev.ReadSpiSettings(ctx, protocol.NVRAM)
func (d *Device) ReadSpiSettings(ctx context.Context, store protocol.Store) (protocol.SpiSettings, error) {
	req := protocol.BuildGetSpiSettingsCmd(store)
	resp, err := d.roundTrip(ctx, "read spi settings", &req)
	if err != nil {
		return protocol.SpiSettings{}, err
	}

	s := protocol.ParseSpiSettingsResponse(&resp)
	d.logDebug("read spi settings", "store", store, "settings", s)
	return s, nil
}

// WriteSpiSettings writes the SPI transfer settings to the given store.
// The bitrate is validated by the device, not here.
func (d *Device) WriteSpiSettings(ctx context.Context, s protocol.SpiSettings, store protocol.Store) error {
	req := protocol.BuildSetSpiSettingsCmd(s, store)
	if _, err := d.roundTrip(ctx, "write spi settings", &req); err != nil {
		return err
	}

	d.logInfo("wrote spi settings", "store", store, "settings", s)
	return nil
}

// ReadChipSettings reads the pin designations and chip configuration from the given store.
func (d *Device) ReadChipSettings(ctx context.Context, store protocol.Store) (protocol.ChipSettings, error) {
	req := protocol.BuildGetChipSettingsCmd(store)
	resp, err := d.roundTrip(ctx, "read chip settings", &req)
	if err != nil {
		return protocol.ChipSettings{}, err
	}

	c := protocol.ParseChipSettingsResponse(&resp)
	d.logDebug("read chip settings", "store", store, "settings", c)
	return c, nil
}

// WriteChipSettings writes the pin designations and chip configuration to the given store.
//
// Writing NVRAM settings with NVRAMAccess set to protocol.AccessPassword or
// protocol.AccessLocked protects the NVRAM against further writes.
func (d *Device) WriteChipSettings(ctx context.Context, c protocol.ChipSettings, store protocol.Store) error {
	req := protocol.BuildSetChipSettingsCmd(c, store)
	if _, err := d.roundTrip(ctx, "write chip settings", &req); err != nil {
		return err
	}

	d.logInfo("wrote chip settings", "store", store, "settings", c)
	return nil
}

// ReadKeyParameters reads the USB key parameters. They only exist in NVRAM.
func (d *Device) ReadKeyParameters(ctx context.Context) (protocol.KeyParameters, error) {
	req := protocol.BuildGetKeyParametersCmd()
	resp, err := d.roundTrip(ctx, "read key parameters", &req)
	if err != nil {
		return protocol.KeyParameters{}, err
	}

	k := protocol.ParseKeyParametersResponse(&resp)
	d.logDebug("read key parameters", "params", k)
	return k, nil
}

// WriteKeyParameters writes the USB key parameters to NVRAM. The new
// identity takes effect after the device re-enumerates.
func (d *Device) WriteKeyParameters(ctx context.Context, k protocol.KeyParameters) error {
	req := protocol.BuildSetKeyParametersCmd(k)
	if _, err := d.roundTrip(ctx, "write key parameters", &req); err != nil {
		return err
	}

	d.logInfo("wrote key parameters", "params", k)
	return nil
}

// ProductName returns the USB product name from NVRAM.
func (d *Device) ProductName(ctx context.Context) (string, error) {
	return d.readString(ctx, protocol.ProductName)
}

// ReadProductName reads the USB product name into buf as UTF-8 and returns
// the number of bytes written. If the name does not fit, it fails with
// protocol.ErrBufferTooSmall and buf is left untouched.
func (d *Device) ReadProductName(ctx context.Context, buf []byte) (int, error) {
	return d.readStringInto(ctx, protocol.ProductName, buf)
}

// WriteProductName writes the USB product name to NVRAM. Names longer than
// protocol.MaxStringChars characters fail with protocol.ErrValueTooLong
// before anything is sent.
func (d *Device) WriteProductName(ctx context.Context, text string) error {
	return d.writeString(ctx, protocol.ProductName, text)
}

// ManufacturerName returns the USB manufacturer name from NVRAM.
func (d *Device) ManufacturerName(ctx context.Context) (string, error) {
	return d.readString(ctx, protocol.ManufacturerName)
}

// ReadManufacturerName reads the USB manufacturer name into buf as UTF-8.
// It behaves like ReadProductName.
func (d *Device) ReadManufacturerName(ctx context.Context, buf []byte) (int, error) {
	return d.readStringInto(ctx, protocol.ManufacturerName, buf)
}

// WriteManufacturerName writes the USB manufacturer name to NVRAM.
// It behaves like WriteProductName.
func (d *Device) WriteManufacturerName(ctx context.Context, text string) error {
	return d.writeString(ctx, protocol.ManufacturerName, text)
}

func (d *Device) readString(ctx context.Context, kind protocol.StringKind) (string, error) {
	operation := "read " + kind.String()
	req := protocol.BuildGetStringCmd(kind)
	resp, err := d.roundTrip(ctx, operation, &req)
	if err != nil {
		return "", err
	}

	text, err := protocol.ParseStringResponse(&resp, protocol.MaxStringChars)
	if err != nil {
		return "", fmt.Errorf("%s: %w", operation, err)
	}

	d.logDebug(operation, "value", text)
	return text, nil
}

func (d *Device) readStringInto(ctx context.Context, kind protocol.StringKind, buf []byte) (int, error) {
	text, err := d.readString(ctx, kind)
	if err != nil {
		return 0, err
	}
	if len(text) > len(buf) {
		return 0, fmt.Errorf("read %s: %d bytes, buffer holds %d: %w", kind, len(text), len(buf), protocol.ErrBufferTooSmall)
	}
	return copy(buf, text), nil
}

func (d *Device) writeString(ctx context.Context, kind protocol.StringKind, text string) error {
	operation := "write " + kind.String()
	req, err := protocol.BuildSetStringCmd(kind, text)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}

	if _, err := d.roundTrip(ctx, operation, &req); err != nil {
		return err
	}

	d.logInfo(operation, "value", text)
	return nil
}
