package protocol

import (
	"fmt"
	"log/slog"
)

// Store selects which copy of a setting an operation targets.
type Store int

const (
	// Volatile is the active RAM copy, lost on reset
	Volatile Store = iota

	// NVRAM is the power-up default copy kept in non-volatile memory
	NVRAM
)

func (s Store) String() string {
	if s == NVRAM {
		return "nvram"
	}
	return "volatile"
}

// SpiMode is the SPI clock polarity/phase mode (0-3).
type SpiMode uint8

// SpiSettings contains the SPI transfer settings.
// Read and written with Get/Set SPI Settings or the NVRAM SPI subcommand.
type SpiSettings struct {
	// Bitrate is the SPI clock rate in bits per second
	Bitrate uint32

	// IdleCS is the chip select value while no transfer is running
	IdleCS uint16

	// ActiveCS is the chip select value during a transfer
	ActiveCS uint16

	// CSToDataDelay is the delay from CS assert to the first data byte (100 µs units)
	CSToDataDelay uint16

	// DataToCSDelay is the delay from the last data byte to CS deassert (100 µs units)
	DataToCSDelay uint16

	// DataDelay is the delay between subsequent data bytes (100 µs units)
	DataDelay uint16

	// BytesPerTransaction is the number of bytes clocked per SPI transaction
	BytesPerTransaction uint16

	// Mode is the SPI mode
	Mode SpiMode
}

// MarshalBinary encodes the settings in their 17-byte wire layout.
func (s SpiSettings) MarshalBinary() ([]byte, error) {
	b := make([]byte, SpiSettingsSize)
	s.put(b)
	return b, nil
}

// UnmarshalBinary decodes the settings from their wire layout.
func (s *SpiSettings) UnmarshalBinary(data []byte) error {
	if len(data) < SpiSettingsSize {
		return fmt.Errorf("spi settings: got %d bytes, need %d", len(data), SpiSettingsSize)
	}
	*s = SpiSettings{
		Bitrate:             Uint32(data[0:4]),
		IdleCS:              Uint16(data[4:6]),
		ActiveCS:            Uint16(data[6:8]),
		CSToDataDelay:       Uint16(data[8:10]),
		DataToCSDelay:       Uint16(data[10:12]),
		DataDelay:           Uint16(data[12:14]),
		BytesPerTransaction: Uint16(data[14:16]),
		Mode:                SpiMode(data[16]),
	}
	return nil
}

func (s SpiSettings) put(b []byte) {
	PutUint32(b[0:4], s.Bitrate)
	PutUint16(b[4:6], s.IdleCS)
	PutUint16(b[6:8], s.ActiveCS)
	PutUint16(b[8:10], s.CSToDataDelay)
	PutUint16(b[10:12], s.DataToCSDelay)
	PutUint16(b[12:14], s.DataDelay)
	PutUint16(b[14:16], s.BytesPerTransaction)
	b[16] = byte(s.Mode)
}

// LogValue implements slog.LogValuer.
func (s SpiSettings) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("bitrate", s.Bitrate),
		slog.String("idle_cs", fmt.Sprintf("0x%04x", s.IdleCS)),
		slog.String("active_cs", fmt.Sprintf("0x%04x", s.ActiveCS)),
		slog.Any("cs_to_data_delay", s.CSToDataDelay),
		slog.Any("data_to_cs_delay", s.DataToCSDelay),
		slog.Any("data_delay", s.DataDelay),
		slog.Any("bytes_per_transaction", s.BytesPerTransaction),
		slog.Any("spi_mode", uint8(s.Mode)),
	)
}

// PinFunction designates the role of one GP pin.
type PinFunction uint8

const (
	PinGPIO       PinFunction = 0x00
	PinChipSelect PinFunction = 0x01
	PinDedicated  PinFunction = 0x02
)

func (f PinFunction) String() string {
	switch f {
	case PinGPIO:
		return "gpio"
	case PinChipSelect:
		return "cs"
	case PinDedicated:
		return "dedicated"
	default:
		return fmt.Sprintf("pin function 0x%02X", uint8(f))
	}
}

// ChipSettings contains the GP pin designations and power-up chip configuration.
type ChipSettings struct {
	// Pins assigns a function to GP0 through GP8
	Pins [ChipPinCount]PinFunction

	// GPIODefault is the default output level mask of the GPIO pins
	GPIODefault uint16

	// GPIODirection is the direction mask of the GPIO pins (1 = input)
	GPIODirection uint16

	// OtherSettings holds miscellaneous chip flags such as OtherBusReleaseDisable
	OtherSettings uint8

	// NVRAMAccess is the NVRAM access control byte (AccessNone, AccessPassword, AccessLocked).
	// Older firmware documentation calls this byte the NVRAM lock.
	NVRAMAccess uint8

	// NewPassword is only used when changing NVRAM access control
	NewPassword [PasswordSize]byte
}

// MarshalBinary encodes the settings in their 23-byte wire layout.
func (c ChipSettings) MarshalBinary() ([]byte, error) {
	b := make([]byte, ChipSettingsSize)
	c.put(b)
	return b, nil
}

// UnmarshalBinary decodes the settings from their wire layout.
func (c *ChipSettings) UnmarshalBinary(data []byte) error {
	if len(data) < ChipSettingsSize {
		return fmt.Errorf("chip settings: got %d bytes, need %d", len(data), ChipSettingsSize)
	}
	var out ChipSettings
	for i := range out.Pins {
		out.Pins[i] = PinFunction(data[i])
	}
	out.GPIODefault = Uint16(data[9:11])
	out.GPIODirection = Uint16(data[11:13])
	out.OtherSettings = data[13]
	out.NVRAMAccess = data[14]
	copy(out.NewPassword[:], data[15:23])
	*c = out
	return nil
}

func (c ChipSettings) put(b []byte) {
	for i, f := range c.Pins {
		b[i] = byte(f)
	}
	PutUint16(b[9:11], c.GPIODefault)
	PutUint16(b[11:13], c.GPIODirection)
	b[13] = c.OtherSettings
	b[14] = c.NVRAMAccess
	copy(b[15:23], c.NewPassword[:])
}

// LogValue implements slog.LogValuer. The password is never logged.
func (c ChipSettings) LogValue() slog.Value {
	pins := make([]string, len(c.Pins))
	for i, f := range c.Pins {
		pins[i] = f.String()
	}
	return slog.GroupValue(
		slog.Any("pins", pins),
		slog.String("gpio_default", fmt.Sprintf("0x%04x", c.GPIODefault)),
		slog.String("gpio_direction", fmt.Sprintf("0x%04x", c.GPIODirection)),
		slog.String("other_settings", fmt.Sprintf("0x%02x", c.OtherSettings)),
		slog.String("nvram_access", fmt.Sprintf("0x%02x", c.NVRAMAccess)),
	)
}

// PowerOption is the USB power attribute flag of the key parameters.
type PowerOption uint8

const (
	HostPowered PowerOption = 0x80
	SelfPowered PowerOption = 0x40
)

func (p PowerOption) String() string {
	switch p {
	case HostPowered:
		return "host-powered"
	case SelfPowered:
		return "self-powered"
	default:
		return fmt.Sprintf("power option 0x%02X", uint8(p))
	}
}

// KeyParameters contains the USB identity and power settings kept in NVRAM.
type KeyParameters struct {
	VendorID  uint16
	ProductID uint16
	Power     PowerOption

	// Current is the requested USB current in 2 mA units
	Current uint8
}

// CurrentMilliamps returns the requested current in milliamps.
func (k KeyParameters) CurrentMilliamps() int { return int(k.Current) * 2 }

// SetCurrentMilliamps sets the requested current, rounding down to 2 mA.
// Values above 510 mA are clamped.
func (k *KeyParameters) SetCurrentMilliamps(ma int) {
	switch {
	case ma < 0:
		ma = 0
	case ma > 510:
		ma = 510
	}
	k.Current = uint8(ma / 2)
}

// MarshalBinary encodes the parameters in the 6-byte write layout.
//
//	[VID(2)][PID(2)][POWER(1)][CURRENT(1)]
func (k KeyParameters) MarshalBinary() ([]byte, error) {
	b := make([]byte, KeyParametersWriteSize)
	k.put(b)
	return b, nil
}

// UnmarshalBinary decodes the parameters from the write layout.
// Responses use a different layout, see ParseKeyParametersResponse.
func (k *KeyParameters) UnmarshalBinary(data []byte) error {
	if len(data) < KeyParametersWriteSize {
		return fmt.Errorf("key parameters: got %d bytes, need %d", len(data), KeyParametersWriteSize)
	}
	*k = KeyParameters{
		VendorID:  Uint16(data[0:2]),
		ProductID: Uint16(data[2:4]),
		Power:     PowerOption(data[4]),
		Current:   data[5],
	}
	return nil
}

func (k KeyParameters) put(b []byte) {
	PutUint16(b[0:2], k.VendorID)
	PutUint16(b[2:4], k.ProductID)
	b[4] = byte(k.Power)
	b[5] = k.Current
}

// LogValue implements slog.LogValuer.
func (k KeyParameters) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("vid", fmt.Sprintf("0x%04x", k.VendorID)),
		slog.String("pid", fmt.Sprintf("0x%04x", k.ProductID)),
		slog.String("power_options", k.Power.String()),
		slog.Int("current_ma", k.CurrentMilliamps()),
	)
}

// StringKind selects one of the USB string descriptors kept in NVRAM.
type StringKind byte

const (
	ProductName      StringKind = SubProductName
	ManufacturerName StringKind = SubManufacturerName
)

func (k StringKind) String() string {
	switch k {
	case ProductName:
		return "product name"
	case ManufacturerName:
		return "manufacturer name"
	default:
		return fmt.Sprintf("string 0x%02X", byte(k))
	}
}

// SpiStatus is the SPI engine status of a transfer response.
type SpiStatus byte

func (s SpiStatus) String() string {
	switch s {
	case SpiFinished:
		return "finished"
	case SpiNeedMoreData:
		return "need more data"
	case SpiDataPending:
		return "data pending"
	default:
		return fmt.Sprintf("spi status 0x%02X", byte(s))
	}
}

// TransferResponse is the decoded response to one transfer exchange.
type TransferResponse struct {
	// Status is the SPI engine status
	Status SpiStatus

	// Data holds the bytes received in this exchange
	Data []byte
}
