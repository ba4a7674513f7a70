package protocol

import "fmt"

// settingCommand returns the header for a setting that has both a volatile
// command and an NVRAM subcommand.
func settingCommand(store Store, volatileCmd, nvramCmd, sub byte) Packet {
	if store == NVRAM {
		return NewCommand(nvramCmd, sub)
	}
	return NewCommand(volatileCmd, 0)
}

// BuildGetSpiSettingsCmd constructs a Get SPI Settings command.
//
// Packet structure:
//
//	Volatile: [0x41][0x00][0x00][0x00][0...]
//	NVRAM:    [0x61][0x10][0x00][0x00][0...]
func BuildGetSpiSettingsCmd(store Store) Packet {
	return settingCommand(store, CmdGetSpiSettings, CmdGetNVRAM, SubSpiSettings)
}

// BuildSetSpiSettingsCmd constructs a Set SPI Settings command carrying s.
//
// Packet structure:
//
//	[0x40|0x60][0x00|0x10][0x00][0x00][SPI_SETTINGS(17)][0...]
func BuildSetSpiSettingsCmd(s SpiSettings, store Store) Packet {
	p := settingCommand(store, CmdSetSpiSettings, CmdSetNVRAM, SubSpiSettings)
	s.put(p.Payload())
	return p
}

// BuildGetChipSettingsCmd constructs a Get Chip Settings command.
func BuildGetChipSettingsCmd(store Store) Packet {
	return settingCommand(store, CmdGetChipSettings, CmdGetNVRAM, SubChipSettings)
}

// BuildSetChipSettingsCmd constructs a Set Chip Settings command carrying c.
//
// Packet structure:
//
//	[0x21|0x60][0x00|0x20][0x00][0x00][CHIP_SETTINGS(23)][0...]
func BuildSetChipSettingsCmd(c ChipSettings, store Store) Packet {
	p := settingCommand(store, CmdSetChipSettings, CmdSetNVRAM, SubChipSettings)
	c.put(p.Payload())
	return p
}

// BuildGetKeyParametersCmd constructs a Get NVRAM key parameters command.
// Key parameters only exist in NVRAM.
func BuildGetKeyParametersCmd() Packet {
	return NewCommand(CmdGetNVRAM, SubKeyParameters)
}

// BuildSetKeyParametersCmd constructs a Set NVRAM key parameters command.
//
// Packet structure:
//
//	[0x60][0x30][0x00][0x00][VID(2)][PID(2)][POWER(1)][CURRENT(1)][0...]
func BuildSetKeyParametersCmd(k KeyParameters) Packet {
	p := NewCommand(CmdSetNVRAM, SubKeyParameters)
	k.put(p.Payload())
	return p
}

// BuildGetStringCmd constructs a Get NVRAM command for a string descriptor.
func BuildGetStringCmd(kind StringKind) Packet {
	return NewCommand(CmdGetNVRAM, byte(kind))
}

// BuildSetStringCmd constructs a Set NVRAM command for a string descriptor.
// Text longer than MaxStringChars fails with ErrValueTooLong; it is never truncated.
//
// Packet structure:
//
//	[0x60][0x40|0x50][0x00][0x00][LEN][0x03][UTF-16LE(2*n)][0...]
func BuildSetStringCmd(kind StringKind, text string) (Packet, error) {
	p := NewCommand(CmdSetNVRAM, byte(kind))
	if err := putDeviceString(p.Payload(), text); err != nil {
		return Packet{}, fmt.Errorf("%s: %w", kind, err)
	}
	return p, nil
}

// BuildTransferCmd constructs a Transfer SPI Data command. An empty data
// slice builds a poll request.
//
// Packet structure:
//
//	[0x42][LEN][0x00][0x00][DATA(LEN)][0...]
func BuildTransferCmd(data []byte) (Packet, error) {
	if len(data) > MaxTransferChunk {
		return Packet{}, fmt.Errorf("transfer chunk of %d bytes exceeds maximum %d: %w", len(data), MaxTransferChunk, ErrValueTooLong)
	}
	p := NewCommand(CmdTransferSpiData, byte(len(data)))
	copy(p.Payload(), data)
	return p, nil
}
