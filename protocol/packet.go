package protocol

import (
	"encoding/binary"
	"fmt"
)

// Packet is one fixed-size command or response report.
//
// Layout:
//
//	[CMD][SUB/LEN/STATUS][B2][B3][PAYLOAD(60)]
//
// Header bytes 1-3 depend on the command: settings exchanges carry the
// subcommand (request) or status and subcommand echo (response), SPI
// transfers carry the data length, the received length and the engine status.
type Packet [PacketSize]byte

// NewCommand returns a zeroed packet with header bytes 0 and 1 set.
func NewCommand(primary, secondary byte) Packet {
	var p Packet
	p[0] = primary
	p[1] = secondary
	return p
}

// Command returns header byte 0.
func (p *Packet) Command() byte { return p[0] }

// Header returns a copy of the four header bytes.
func (p *Packet) Header() [HeaderSize]byte {
	var h [HeaderSize]byte
	copy(h[:], p[:HeaderSize])
	return h
}

// Payload returns the 60 payload bytes following the header.
func (p *Packet) Payload() []byte { return p[HeaderSize:] }

// String formats the header for diagnostics.
func (p *Packet) String() string {
	return fmt.Sprintf("% x", p[:HeaderSize])
}

// Uint16 decodes a little-endian 16-bit field.
func Uint16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }

// PutUint16 encodes a little-endian 16-bit field.
func PutUint16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }

// Uint32 decodes a little-endian 32-bit field.
func Uint32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

// PutUint32 encodes a little-endian 32-bit field.
func PutUint32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
