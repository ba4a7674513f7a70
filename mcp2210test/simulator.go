package mcp2210test

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/moffa90/go-mcp2210/protocol"
)

// Factory defaults reported by a new Simulator.
var (
	DefaultSpiSettings = protocol.SpiSettings{
		Bitrate:             12000000,
		IdleCS:              0x01FF,
		ActiveCS:            0x01EF,
		BytesPerTransaction: 4,
	}

	DefaultKeyParameters = protocol.KeyParameters{
		VendorID:  protocol.VendorID,
		ProductID: protocol.ProductID,
		Power:     protocol.HostPowered,
		Current:   50,
	}

	DefaultProductName      = "MCP2210 USB to SPI Master"
	DefaultManufacturerName = "Microchip Technology Inc."
)

// DefaultChunkSize is the number of received bytes a Simulator returns per poll.
const DefaultChunkSize = 32

// Peripheral computes the bytes an SPI slave clocks back for the bytes it receives.
type Peripheral func(mosi []byte) []byte

// Loopback is a Peripheral that echoes its input.
func Loopback(mosi []byte) []byte {
	return append([]byte(nil), mosi...)
}

// Simulator emulates an MCP2210 behind a packet transport. Each Write is
// processed as one command and queues one response for the next Read.
//
// It keeps separate volatile and NVRAM copies of the SPI and chip
// settings, stores key parameters and strings in NVRAM, enforces the
// NVRAM access byte, and runs SPI transfers against a Peripheral.
type Simulator struct {
	mu sync.Mutex

	spi        [2]protocol.SpiSettings
	chip       [2]protocol.ChipSettings
	key        protocol.KeyParameters
	strs       map[protocol.StringKind]string
	peripheral Peripheral
	chunkSize  int

	// pending holds received SPI bytes not yet returned by a poll
	pending  []byte
	active   bool
	failNext byte
	queue    []protocol.Packet
	commands int
	closed   bool
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithPeripheral sets the SPI slave the simulator talks to. The default is Loopback.
func WithPeripheral(p Peripheral) SimulatorOption {
	return func(s *Simulator) {
		s.peripheral = p
	}
}

// WithChunkSize sets how many received bytes each poll returns (1-60).
func WithChunkSize(n int) SimulatorOption {
	return func(s *Simulator) {
		if n > 0 && n <= protocol.MaxTransferChunk {
			s.chunkSize = n
		}
	}
}

// NewSimulator returns a Simulator in its factory state.
func NewSimulator(opts ...SimulatorOption) *Simulator {
	chip := protocol.ChipSettings{
		Pins: [protocol.ChipPinCount]protocol.PinFunction{
			protocol.PinChipSelect, protocol.PinChipSelect, protocol.PinChipSelect,
			protocol.PinChipSelect, protocol.PinChipSelect, protocol.PinChipSelect,
			protocol.PinDedicated, protocol.PinDedicated, protocol.PinDedicated,
		},
		GPIODefault:   0x01FF,
		GPIODirection: 0x01FF,
	}

	s := &Simulator{
		spi:  [2]protocol.SpiSettings{DefaultSpiSettings, DefaultSpiSettings},
		chip: [2]protocol.ChipSettings{chip, chip},
		key:  DefaultKeyParameters,
		strs: map[protocol.StringKind]string{
			protocol.ProductName:      DefaultProductName,
			protocol.ManufacturerName: DefaultManufacturerName,
		},
		peripheral: Loopback,
		chunkSize:  DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FailNext makes the next response carry status instead of success.
// The command is not applied.
func (s *Simulator) FailNext(status byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = status
}

// Write processes one command packet.
func (s *Simulator) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, io.ErrClosedPipe
	}
	if len(p) != protocol.PacketSize {
		return 0, fmt.Errorf("mcp2210test: write of %d bytes, want %d", len(p), protocol.PacketSize)
	}

	var req protocol.Packet
	copy(req[:], p)
	s.commands++
	s.queue = append(s.queue, s.handle(&req))
	return len(p), nil
}

// Read returns the response to the oldest unanswered command.
func (s *Simulator) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, io.ErrClosedPipe
	}
	if len(s.queue) == 0 {
		return 0, errors.New("mcp2210test: read without a pending command")
	}
	resp := s.queue[0]
	s.queue = s.queue[1:]
	return copy(p, resp[:]), nil
}

// Close marks the simulator closed. Further reads and writes fail.
func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Simulator) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("MCP2210 simulator => VID: %04x, PID: %04x", s.key.VendorID, s.key.ProductID)
}

func (s *Simulator) handle(req *protocol.Packet) protocol.Packet {
	resp := protocol.NewCommand(req.Command(), protocol.StatusSuccess)

	if s.failNext != protocol.StatusSuccess {
		resp[1] = s.failNext
		s.failNext = protocol.StatusSuccess
		return resp
	}

	switch req.Command() {
	case protocol.CmdGetSpiSettings:
		s.putSpi(&resp, protocol.Volatile)
	case protocol.CmdSetSpiSettings:
		s.setSpi(req, protocol.Volatile)
	case protocol.CmdGetChipSettings:
		s.putChip(&resp, protocol.Volatile)
	case protocol.CmdSetChipSettings:
		s.setChip(req, protocol.Volatile)
	case protocol.CmdGetNVRAM:
		resp[2] = req[1]
		s.getNVRAM(req, &resp)
	case protocol.CmdSetNVRAM:
		resp[2] = req[1]
		s.setNVRAM(req, &resp)
	case protocol.CmdTransferSpiData:
		s.transfer(req, &resp)
	default:
		resp[1] = protocol.StatusUnknownCommand
	}
	return resp
}

func (s *Simulator) putSpi(resp *protocol.Packet, store protocol.Store) {
	raw, _ := s.spi[store].MarshalBinary()
	copy(resp.Payload(), raw)
}

func (s *Simulator) setSpi(req *protocol.Packet, store protocol.Store) {
	_ = s.spi[store].UnmarshalBinary(req.Payload())
}

func (s *Simulator) putChip(resp *protocol.Packet, store protocol.Store) {
	c := s.chip[store]
	// the password is write-only
	c.NewPassword = [protocol.PasswordSize]byte{}
	raw, _ := c.MarshalBinary()
	copy(resp.Payload(), raw)
}

func (s *Simulator) setChip(req *protocol.Packet, store protocol.Store) {
	_ = s.chip[store].UnmarshalBinary(req.Payload())
}

func (s *Simulator) getNVRAM(req, resp *protocol.Packet) {
	switch sub := req[1]; sub {
	case protocol.SubSpiSettings:
		s.putSpi(resp, protocol.NVRAM)
	case protocol.SubChipSettings:
		s.putChip(resp, protocol.NVRAM)
	case protocol.SubKeyParameters:
		protocol.PutKeyParametersResponse(resp, s.key)
	case protocol.SubProductName, protocol.SubManufacturerName:
		_ = protocol.PutStringResponse(resp, s.strs[protocol.StringKind(sub)])
	default:
		resp[1] = protocol.StatusUnknownCommand
	}
}

func (s *Simulator) setNVRAM(req, resp *protocol.Packet) {
	if s.chip[protocol.NVRAM].NVRAMAccess != protocol.AccessNone {
		resp[1] = protocol.StatusAccessBlocked
		return
	}

	switch sub := req[1]; sub {
	case protocol.SubSpiSettings:
		s.setSpi(req, protocol.NVRAM)
	case protocol.SubChipSettings:
		s.setChip(req, protocol.NVRAM)
	case protocol.SubKeyParameters:
		_ = s.key.UnmarshalBinary(req.Payload())
	case protocol.SubProductName, protocol.SubManufacturerName:
		text, err := protocol.ParseStringResponse(req, protocol.MaxStringChars)
		if err != nil {
			resp[1] = protocol.StatusUnknownCommand
			return
		}
		s.strs[protocol.StringKind(sub)] = text
	default:
		resp[1] = protocol.StatusUnknownCommand
	}
}

// transfer runs the SPI engine: a chunk is acknowledged with SpiNeedMoreData,
// then polls return the peripheral's reply in chunks with SpiDataPending
// until the last chunk, which carries SpiFinished.
func (s *Simulator) transfer(req, resp *protocol.Packet) {
	n := int(req[1])
	if n > protocol.MaxTransferChunk {
		resp[1] = protocol.StatusUnknownCommand
		return
	}

	if !s.active {
		s.active = true
		s.pending = s.peripheral(req.Payload()[:n])
		resp[3] = byte(protocol.SpiNeedMoreData)
		return
	}

	if n > 0 {
		resp[1] = protocol.StatusTransferInProgress
		return
	}

	chunk := min(s.chunkSize, len(s.pending))
	copy(resp.Payload(), s.pending[:chunk])
	s.pending = s.pending[chunk:]
	resp[2] = byte(chunk)

	if len(s.pending) > 0 {
		resp[3] = byte(protocol.SpiDataPending)
		return
	}
	resp[3] = byte(protocol.SpiFinished)
	s.active = false
}

// SpiSettings returns the stored SPI settings.
func (s *Simulator) SpiSettings(store protocol.Store) protocol.SpiSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spi[store]
}

// ChipSettings returns the stored chip settings, including the password.
func (s *Simulator) ChipSettings(store protocol.Store) protocol.ChipSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chip[store]
}

// KeyParameters returns the stored key parameters.
func (s *Simulator) KeyParameters() protocol.KeyParameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// DeviceString returns the stored product or manufacturer name.
func (s *Simulator) DeviceString(kind protocol.StringKind) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strs[kind]
}

// Commands returns the number of command packets processed.
func (s *Simulator) Commands() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commands
}
