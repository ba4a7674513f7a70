// Package protocol implements the MCP2210 USB-to-SPI bridge command protocol.
//
// This package builds command packets and validates and decodes response
// packets. It performs no I/O; see package mcp2210 for the driver.
//
// # Protocol Overview
//
// Every command and every response is one 64-byte HID report:
//
//	[CMD][B1][B2][B3][PAYLOAD(60)]
//
// For settings exchanges B1 is the NVRAM subcommand in a request and the
// status in a response; B2 of an NVRAM response echoes the subcommand. For
// SPI transfers B1 of the request is the data length, and B2/B3 of the
// response are the received length and the SPI engine status.
//
// All multi-byte fields are little-endian.
//
// # Command Builders
//
// Use the Build* functions to create command packets:
//
//	cmd := protocol.BuildGetSpiSettingsCmd(protocol.NVRAM)
//	cmd, err := protocol.BuildSetStringCmd(protocol.ProductName, "USB SPI Flasher")
//	cmd, err := protocol.BuildTransferCmd(data)
//
// # Response Parsers
//
// Validate the response header against the request first, then decode the
// record the command asked for:
//
//	if err := protocol.CheckResponse("read spi settings", &cmd, &resp); err != nil {
//	    return err
//	}
//	settings := protocol.ParseSpiSettingsResponse(&resp)
//
// The key parameters record is read back in a padded layout that differs
// from the layout used to write it; ParseKeyParametersResponse handles the
// read layout and KeyParameters.MarshalBinary the write layout.
//
// # Error Handling
//
// Header mismatches are reported as *ProtocolError, carrying both headers:
//
//	// read spi settings failed: status 0xF8, expected 0x00 (spi transfer in progress) [request 41 00 00 00, response 41 f8 00 00]
//
// Out-of-sequence SPI engine statuses are reported as *DesyncError.
// Capacity violations wrap ErrValueTooLong, ErrBufferTooSmall or ErrLengthExceeded.
package protocol
