package protocol

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSpiSettingsBinary(t *testing.T) {
	s := SpiSettings{Bitrate: 1000000, IdleCS: 0x1FF, BytesPerTransaction: 4}

	raw, err := s.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != SpiSettingsSize {
		t.Fatalf("len = %d, want %d", len(raw), SpiSettingsSize)
	}

	var got SpiSettings
	if err := got.UnmarshalBinary(raw); err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Errorf("got %+v, want %+v", got, s)
	}

	if err := got.UnmarshalBinary(raw[:SpiSettingsSize-1]); err == nil {
		t.Error("expected error for short input")
	}
}

func TestChipSettingsUnmarshalShort(t *testing.T) {
	var c ChipSettings
	err := c.UnmarshalBinary(make([]byte, ChipSettingsSize-1))
	if err == nil || !strings.Contains(err.Error(), "chip settings") {
		t.Errorf("error = %v, want chip settings length error", err)
	}
}

func TestKeyParametersWriteLayout(t *testing.T) {
	k := KeyParameters{VendorID: 0xABCD, ProductID: 0x0102, Power: SelfPowered, Current: 1}

	raw, _ := k.MarshalBinary()
	if !bytes.Equal(raw, []byte{0xCD, 0xAB, 0x02, 0x01, 0x40, 0x01}) {
		t.Errorf("raw = % x", raw)
	}

	var got KeyParameters
	if err := got.UnmarshalBinary(raw); err != nil {
		t.Fatal(err)
	}
	if got != k {
		t.Errorf("got %+v, want %+v", got, k)
	}
}

func TestSetCurrentMilliamps(t *testing.T) {
	tests := []struct {
		ma   int
		want uint8
	}{
		{ma: -10, want: 0},
		{ma: 0, want: 0},
		{ma: 99, want: 49},
		{ma: 100, want: 50},
		{ma: 510, want: 255},
		{ma: 1000, want: 255},
	}

	for _, tt := range tests {
		var k KeyParameters
		k.SetCurrentMilliamps(tt.ma)
		if k.Current != tt.want {
			t.Errorf("SetCurrentMilliamps(%d) = %d, want %d", tt.ma, k.Current, tt.want)
		}
	}
}

func TestChipSettingsLogValueOmitsPassword(t *testing.T) {
	c := ChipSettings{NewPassword: [PasswordSize]byte{'h', 'u', 'n', 't', 'e', 'r', '2', '!'}}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("chip", "settings", c)

	if strings.Contains(buf.String(), "hunter2") {
		t.Errorf("log output leaks password: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "settings.nvram_access=0x00") {
		t.Errorf("log output = %s", buf.String())
	}
}

func TestStringers(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{Volatile.String(), "volatile"},
		{NVRAM.String(), "nvram"},
		{PinChipSelect.String(), "cs"},
		{PinFunction(7).String(), "pin function 0x07"},
		{HostPowered.String(), "host-powered"},
		{ManufacturerName.String(), "manufacturer name"},
		{SpiDataPending.String(), "data pending"},
		{SpiStatus(0x99).String(), "spi status 0x99"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
