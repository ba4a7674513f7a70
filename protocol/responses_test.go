package protocol

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// buildTestResponse returns a response packet with the given header bytes.
func buildTestResponse(cmd, status, b2, b3 byte, payload []byte) Packet {
	var p Packet
	p[0], p[1], p[2], p[3] = cmd, status, b2, b3
	copy(p.Payload(), payload)
	return p
}

func TestCheckResponse(t *testing.T) {
	getVolatile := BuildGetSpiSettingsCmd(Volatile)
	getNVRAM := BuildGetSpiSettingsCmd(NVRAM)

	tests := []struct {
		name      string
		req       Packet
		resp      Packet
		wantField string
	}{
		{
			name: "volatile success",
			req:  getVolatile,
			resp: buildTestResponse(CmdGetSpiSettings, StatusSuccess, 0, 0, nil),
		},
		{
			name: "volatile ignores byte 2",
			req:  getVolatile,
			resp: buildTestResponse(CmdGetSpiSettings, StatusSuccess, 0x77, 0, nil),
		},
		{
			name: "nvram success",
			req:  getNVRAM,
			resp: buildTestResponse(CmdGetNVRAM, StatusSuccess, SubSpiSettings, 0, nil),
		},
		{
			name:      "wrong command echo",
			req:       getVolatile,
			resp:      buildTestResponse(CmdGetChipSettings, StatusSuccess, 0, 0, nil),
			wantField: "command echo",
		},
		{
			name:      "non-zero status",
			req:       getVolatile,
			resp:      buildTestResponse(CmdGetSpiSettings, StatusTransferInProgress, 0, 0, nil),
			wantField: "status",
		},
		{
			name:      "nvram wrong subcommand echo",
			req:       getNVRAM,
			resp:      buildTestResponse(CmdGetNVRAM, StatusSuccess, SubChipSettings, 0, nil),
			wantField: "subcommand echo",
		},
		{
			name:      "nvram access blocked",
			req:       BuildSetChipSettingsCmd(ChipSettings{}, NVRAM),
			resp:      buildTestResponse(CmdSetNVRAM, StatusAccessBlocked, SubChipSettings, 0, nil),
			wantField: "status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckResponse("test", &tt.req, &tt.resp)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var pe *ProtocolError
			if !errors.As(err, &pe) {
				t.Fatalf("error = %v, want *ProtocolError", err)
			}
			if pe.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", pe.Field, tt.wantField)
			}
			if pe.Request != tt.req.Header() || pe.Response != tt.resp.Header() {
				t.Errorf("headers = %x/%x, want %x/%x", pe.Request, pe.Response, tt.req.Header(), tt.resp.Header())
			}
		})
	}
}

func TestParseSpiSettingsResponse(t *testing.T) {
	want := SpiSettings{Bitrate: 12000000, IdleCS: 0x1FF, ActiveCS: 0x1EF, DataDelay: 7, BytesPerTransaction: 64, Mode: 1}
	raw, _ := want.MarshalBinary()
	resp := buildTestResponse(CmdGetSpiSettings, StatusSuccess, 0, 0, raw)

	if got := ParseSpiSettingsResponse(&resp); got != want {
		t.Errorf("settings = %+v, want %+v", got, want)
	}
}

func TestParseChipSettingsResponse(t *testing.T) {
	want := ChipSettings{
		Pins:          [ChipPinCount]PinFunction{PinChipSelect, PinChipSelect, PinGPIO, PinGPIO, PinDedicated},
		GPIODefault:   0x00F0,
		GPIODirection: 0x000F,
		NVRAMAccess:   AccessLocked,
	}
	raw, _ := want.MarshalBinary()
	resp := buildTestResponse(CmdGetNVRAM, StatusSuccess, SubChipSettings, 0, raw)

	if got := ParseChipSettingsResponse(&resp); got != want {
		t.Errorf("settings = %+v, want %+v", got, want)
	}
}

func TestParseKeyParametersResponse(t *testing.T) {
	payload := make([]byte, KeyParametersReadSize)
	payload[8], payload[9] = 0xD8, 0x04
	payload[10], payload[11] = 0xDE, 0x00
	payload[25] = byte(SelfPowered)
	payload[26] = 100
	resp := buildTestResponse(CmdGetNVRAM, StatusSuccess, SubKeyParameters, 0, payload)

	got := ParseKeyParametersResponse(&resp)
	want := KeyParameters{VendorID: 0x04D8, ProductID: 0x00DE, Power: SelfPowered, Current: 100}
	if got != want {
		t.Errorf("key parameters = %+v, want %+v", got, want)
	}
	if got.CurrentMilliamps() != 200 {
		t.Errorf("current = %d mA, want 200", got.CurrentMilliamps())
	}
}

func TestPutKeyParametersResponse(t *testing.T) {
	k := KeyParameters{VendorID: 0x1234, ProductID: 0x5678, Power: HostPowered, Current: 250}

	var resp Packet
	PutKeyParametersResponse(&resp, k)

	// the write layout offsets must stay clear
	if !bytes.Equal(resp.Payload()[:8], make([]byte, 8)) {
		t.Errorf("reserved bytes = % x, want zero", resp.Payload()[:8])
	}
	if got := ParseKeyParametersResponse(&resp); got != k {
		t.Errorf("key parameters = %+v, want %+v", got, k)
	}
}

func TestParseStringResponse(t *testing.T) {
	encode := func(text string) []byte {
		wide, err := EncodeWide(text)
		if err != nil {
			t.Fatalf("EncodeWide(%q): %v", text, err)
		}
		return append([]byte{byte(len(wide) + 2), StringDescriptorTag}, wide...)
	}

	tests := []struct {
		name     string
		payload  []byte
		capacity int
		want     string
		wantErr  error
	}{
		{name: "empty", payload: []byte{2, StringDescriptorTag}, capacity: MaxStringChars, want: ""},
		{name: "product name", payload: encode("MCP2210 USB to SPI Master"), capacity: MaxStringChars, want: "MCP2210 USB to SPI Master"},
		{name: "exact capacity", payload: encode("abcd"), capacity: 4, want: "abcd"},
		{name: "exceeds capacity", payload: encode("abcde"), capacity: 4, wantErr: ErrLengthExceeded},
		{name: "length below prefix", payload: []byte{1, StringDescriptorTag}, capacity: MaxStringChars, wantErr: ErrMalformedString},
		{name: "length beyond payload", payload: []byte{62, StringDescriptorTag}, capacity: MaxStringChars, wantErr: ErrMalformedString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := buildTestResponse(CmdGetNVRAM, StatusSuccess, SubProductName, 0, tt.payload)

			got, err := ParseStringResponse(&resp, tt.capacity)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTransferResponse(t *testing.T) {
	req, err := BuildTransferCmd([]byte{0x01, 0x02})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		resp       Packet
		wantStatus SpiStatus
		wantData   []byte
		wantErr    string
	}{
		{
			name:       "accepted",
			resp:       buildTestResponse(CmdTransferSpiData, StatusSuccess, 0, byte(SpiNeedMoreData), nil),
			wantStatus: SpiNeedMoreData,
			wantData:   []byte{},
		},
		{
			name:       "finished with data",
			resp:       buildTestResponse(CmdTransferSpiData, StatusSuccess, 2, byte(SpiFinished), []byte{0xAA, 0xBB, 0xCC}),
			wantStatus: SpiFinished,
			wantData:   []byte{0xAA, 0xBB},
		},
		{
			name:    "bus not available",
			resp:    buildTestResponse(CmdTransferSpiData, StatusBusNotAvailable, 0, 0, nil),
			wantErr: "spi bus not available",
		},
		{
			name:    "wrong echo",
			resp:    buildTestResponse(CmdGetSpiSettings, StatusSuccess, 0, byte(SpiFinished), nil),
			wantErr: "command echo",
		},
		{
			name:    "impossible length",
			resp:    buildTestResponse(CmdTransferSpiData, StatusSuccess, 61, byte(SpiFinished), nil),
			wantErr: "received length",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTransferResponse("transfer", &req, &tt.resp)

			if tt.wantErr != "" {
				if !IsProtocolError(err) {
					t.Fatalf("error = %v, want ProtocolError", err)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %v, want substring %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", got.Status, tt.wantStatus)
			}
			if !bytes.Equal(got.Data, tt.wantData) {
				t.Errorf("data = % x, want % x", got.Data, tt.wantData)
			}
		})
	}
}
