package protocol

// VendorID and ProductID are the factory USB identifiers of the MCP2210.
// Both can be changed through the key parameters stored in NVRAM.
const (
	VendorID  = 0x04D8
	ProductID = 0x00DE
)

// Packet structure constants.
const (
	// PacketSize is the size of every command and response report.
	PacketSize = 64

	// HeaderSize is the number of leading header bytes in a packet.
	HeaderSize = 4

	// PayloadSize is the number of bytes following the header.
	PayloadSize = PacketSize - HeaderSize
)

// Command codes, sent in header byte 0 and echoed back by the device.
const (
	// CmdGetChipSettings reads the volatile chip settings
	CmdGetChipSettings = 0x20

	// CmdSetChipSettings writes the volatile chip settings
	CmdSetChipSettings = 0x21

	// CmdSetSpiSettings writes the volatile SPI transfer settings
	CmdSetSpiSettings = 0x40

	// CmdGetSpiSettings reads the volatile SPI transfer settings
	CmdGetSpiSettings = 0x41

	// CmdTransferSpiData sends SPI data and polls for received data
	CmdTransferSpiData = 0x42

	// CmdSetNVRAM writes one NVRAM record selected by a subcommand
	CmdSetNVRAM = 0x60

	// CmdGetNVRAM reads one NVRAM record selected by a subcommand
	CmdGetNVRAM = 0x61
)

// NVRAM subcommands, sent in header byte 1 of CmdSetNVRAM/CmdGetNVRAM and
// echoed back in header byte 2 of the response.
const (
	SubSpiSettings      = 0x10
	SubChipSettings     = 0x20
	SubKeyParameters    = 0x30
	SubProductName      = 0x40
	SubManufacturerName = 0x50
)

// Status codes reported in header byte 1 of a response.
const (
	// StatusSuccess indicates the command was accepted
	StatusSuccess = 0x00

	// StatusBusNotAvailable indicates an external master owns the SPI bus
	StatusBusNotAvailable = 0xF7

	// StatusTransferInProgress indicates an SPI transfer is still running
	StatusTransferInProgress = 0xF8

	// StatusUnknownCommand indicates the command code is not recognized
	StatusUnknownCommand = 0xF9

	// StatusAccessBlocked indicates NVRAM write access is locked or password protected
	StatusAccessBlocked = 0xFB
)

// SPI engine status codes reported in header byte 3 of a transfer response.
const (
	// SpiFinished indicates the transfer is complete; the payload holds the last chunk
	SpiFinished SpiStatus = 0x10

	// SpiNeedMoreData indicates the engine accepted data and has nothing to return yet
	SpiNeedMoreData SpiStatus = 0x20

	// SpiDataPending indicates more received data is available for polling
	SpiDataPending SpiStatus = 0x30
)

// SPI bitrate limits. Rates are validated by the device, not the host.
const (
	MinBitrate = 1464
	MaxBitrate = 12000000
)

// MaxTransferChunk is the largest SPI chunk that fits in one transfer packet.
const MaxTransferChunk = PayloadSize

// Record sizes on the wire.
const (
	SpiSettingsSize        = 17
	ChipSettingsSize       = 23
	KeyParametersWriteSize = 6
	KeyParametersReadSize  = 27

	// ChipPinCount is the number of configurable GP pins
	ChipPinCount = 9

	// PasswordSize is the length of the NVRAM access password
	PasswordSize = 8
)

// Key parameters read response offsets. The read layout pads the same
// fields with reserved bytes, unlike the packed write layout.
const (
	keyReadVendorOffset  = 8
	keyReadProductOffset = 10
	keyReadPowerOffset   = 25
	keyReadCurrentOffset = 26
)

// Device string descriptor constants.
const (
	// MaxStringChars is the longest product or manufacturer name in characters.
	MaxStringChars = 29

	// StringDescriptorTag is the constant descriptor type byte following the length.
	StringDescriptorTag = 0x03

	// stringPrefixSize covers the length and tag bytes.
	stringPrefixSize = 2
)

// OtherBusReleaseDisable disables the SPI bus release function when set in
// ChipSettings.OtherSettings.
const OtherBusReleaseDisable = 0x01

// NVRAM access control values for ChipSettings.NVRAMAccess.
const (
	AccessNone     = 0x00
	AccessPassword = 0x40
	AccessLocked   = 0x80
)
