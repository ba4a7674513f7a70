package protocol

import "fmt"

// CheckResponse validates a settings response header against its request.
//
// Header byte 0 must echo the request command and header byte 1 must be
// StatusSuccess. For NVRAM commands (CmdGetNVRAM, CmdSetNVRAM) header
// byte 2 must also echo the subcommand sent in request byte 1; volatile
// responses leave byte 2 unchecked.
func CheckResponse(operation string, req, resp *Packet) error {
	if err := checkEcho(operation, req, resp); err != nil {
		return err
	}

	if isNVRAMCommand(req.Command()) && resp[2] != req[1] {
		return mismatch(operation, "subcommand echo", 2, req[1], req, resp)
	}

	return nil
}

// checkEcho validates the command echo and status bytes shared by every
// response shape.
func checkEcho(operation string, req, resp *Packet) error {
	if resp[0] != req[0] {
		return mismatch(operation, "command echo", 0, req[0], req, resp)
	}
	if resp[1] != StatusSuccess {
		return mismatch(operation, "status", 1, StatusSuccess, req, resp)
	}
	return nil
}

func isNVRAMCommand(cmd byte) bool {
	return cmd == CmdGetNVRAM || cmd == CmdSetNVRAM
}

func mismatch(operation, field string, index int, expected byte, req, resp *Packet) *ProtocolError {
	return &ProtocolError{
		Operation: operation,
		Field:     field,
		Index:     index,
		Expected:  expected,
		Actual:    resp[index],
		Request:   req.Header(),
		Response:  resp.Header(),
	}
}

// ParseSpiSettingsResponse decodes the SPI settings carried by a validated response.
func ParseSpiSettingsResponse(resp *Packet) SpiSettings {
	var s SpiSettings
	// the payload is always long enough
	_ = s.UnmarshalBinary(resp.Payload())
	return s
}

// ParseChipSettingsResponse decodes the chip settings carried by a validated response.
func ParseChipSettingsResponse(resp *Packet) ChipSettings {
	var c ChipSettings
	_ = c.UnmarshalBinary(resp.Payload())
	return c
}

// ParseKeyParametersResponse decodes key parameters from a validated response.
//
// Data format (read layout, differs from the write layout):
//
//	[RESERVED(8)][VID(2)][PID(2)][RESERVED(13)][POWER(1)][CURRENT(1)]
func ParseKeyParametersResponse(resp *Packet) KeyParameters {
	data := resp.Payload()
	return KeyParameters{
		VendorID:  Uint16(data[keyReadVendorOffset:]),
		ProductID: Uint16(data[keyReadProductOffset:]),
		Power:     PowerOption(data[keyReadPowerOffset]),
		Current:   data[keyReadCurrentOffset],
	}
}

// PutKeyParametersResponse encodes k in the read layout. Devices and
// simulators use it to answer a Get key parameters command.
func PutKeyParametersResponse(resp *Packet, k KeyParameters) {
	data := resp.Payload()
	PutUint16(data[keyReadVendorOffset:], k.VendorID)
	PutUint16(data[keyReadProductOffset:], k.ProductID)
	data[keyReadPowerOffset] = byte(k.Power)
	data[keyReadCurrentOffset] = k.Current
}

// ParseStringResponse decodes the string descriptor carried by a validated
// response. It fails with ErrLengthExceeded if the text has more than
// capacity characters.
//
// Data format:
//
//	[LEN][0x03][UTF-16LE(LEN-2)]
func ParseStringResponse(resp *Packet, capacity int) (string, error) {
	return deviceString(resp.Payload(), capacity)
}

// PutStringResponse encodes text as a string descriptor into a response payload.
func PutStringResponse(resp *Packet, text string) error {
	return putDeviceString(resp.Payload(), text)
}

// ParseTransferResponse validates and decodes a Transfer SPI Data response.
//
// Response structure:
//
//	[0x42][STATUS][RX_LEN][SPI_STATUS][RX_DATA(RX_LEN)][0...]
//
// The command echo and status byte are checked as for settings responses.
// The returned Data aliases the response payload.
func ParseTransferResponse(operation string, req, resp *Packet) (TransferResponse, error) {
	if err := checkEcho(operation, req, resp); err != nil {
		return TransferResponse{}, err
	}

	n := int(resp[2])
	if n > MaxTransferChunk {
		return TransferResponse{}, &ProtocolError{
			Operation: operation,
			Field:     "received length",
			Index:     2,
			Expected:  MaxTransferChunk,
			Actual:    resp[2],
			Request:   req.Header(),
			Response:  resp.Header(),
		}
	}

	return TransferResponse{
		Status: SpiStatus(resp[3]),
		Data:   resp.Payload()[:n],
	}, nil
}

// String formats a transfer response for diagnostics.
func (r TransferResponse) String() string {
	return fmt.Sprintf("%s, %d bytes", r.Status, len(r.Data))
}
