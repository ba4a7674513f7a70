package usbhid

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/gousb"
	"github.com/sstallion/go-hid"

	"github.com/moffa90/go-mcp2210/protocol"
)

func endpoint(num int, dir gousb.EndpointDirection, tt gousb.TransferType) gousb.EndpointDesc {
	addr := gousb.EndpointAddress(num)
	if dir == gousb.EndpointDirectionIn {
		addr |= 0x80
	}
	return gousb.EndpointDesc{
		Address:       addr,
		Number:        num,
		Direction:     dir,
		TransferType:  tt,
		MaxPacketSize: protocol.PacketSize,
	}
}

func setting(class gousb.Class, eps ...gousb.EndpointDesc) gousb.InterfaceSetting {
	s := gousb.InterfaceSetting{Class: class, Endpoints: map[gousb.EndpointAddress]gousb.EndpointDesc{}}
	for _, ep := range eps {
		s.Endpoints[ep.Address] = ep
	}
	return s
}

func TestSelectEndpoints(t *testing.T) {
	in := endpoint(1, gousb.EndpointDirectionIn, gousb.TransferTypeInterrupt)
	out := endpoint(1, gousb.EndpointDirectionOut, gousb.TransferTypeInterrupt)

	tests := []struct {
		name    string
		setting gousb.InterfaceSetting
		wantErr bool
	}{
		{
			name:    "mcp2210 shape",
			setting: setting(gousb.ClassHID, in, out),
		},
		{
			name:    "bulk endpoints are ignored",
			setting: setting(gousb.ClassHID, in, out, endpoint(2, gousb.EndpointDirectionIn, gousb.TransferTypeBulk)),
		},
		{
			name:    "not hid",
			setting: setting(gousb.ClassVendorSpec, in, out),
			wantErr: true,
		},
		{
			name:    "missing out",
			setting: setting(gousb.ClassHID, in),
			wantErr: true,
		},
		{
			name:    "two interrupt in",
			setting: setting(gousb.ClassHID, in, out, endpoint(2, gousb.EndpointDirectionIn, gousb.TransferTypeInterrupt)),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotIn, gotOut, err := selectEndpoints(tt.setting)

			if tt.wantErr {
				if !errors.Is(err, ErrDescriptor) {
					t.Fatalf("error = %v, want ErrDescriptor", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotIn.Address != in.Address || gotOut.Address != out.Address {
				t.Errorf("endpoints = %v/%v, want %v/%v", gotIn, gotOut, in, out)
			}
		})
	}
}

// fakeReport records writes and replays reads.
type fakeReport struct {
	written []byte
	reads   [][]byte
	readErr []error
	timeout time.Duration
	closes  int
}

func (f *fakeReport) Write(p []byte) (int, error) {
	f.written = append([]byte(nil), p...)
	return len(p), nil
}

func (f *fakeReport) Read(p []byte) (int, error) {
	if len(f.readErr) > 0 {
		err := f.readErr[0]
		f.readErr = f.readErr[1:]
		return 0, err
	}
	if len(f.reads) == 0 {
		return 0, io.EOF
	}
	n := copy(p, f.reads[0])
	f.reads = f.reads[1:]
	return n, nil
}

func (f *fakeReport) ReadWithTimeout(p []byte, timeout time.Duration) (int, error) {
	f.timeout = timeout
	if len(f.reads) == 0 {
		return 0, hid.ErrTimeout
	}
	return f.Read(p)
}

func (f *fakeReport) Close() error {
	f.closes++
	return nil
}

func TestHidapiDeviceWritePrefixesReportID(t *testing.T) {
	fake := &fakeReport{}
	dev := &HidapiDevice{dev: fake}

	pkt := protocol.NewCommand(protocol.CmdGetNVRAM, protocol.SubProductName)
	n, err := dev.Write(pkt[:])
	if err != nil {
		t.Fatal(err)
	}
	if n != protocol.PacketSize {
		t.Errorf("n = %d, want %d", n, protocol.PacketSize)
	}
	if len(fake.written) != protocol.PacketSize+1 || fake.written[0] != 0 || !bytes.Equal(fake.written[1:], pkt[:]) {
		t.Errorf("written = % x", fake.written)
	}

	if _, err := dev.Write(pkt[:10]); err == nil {
		t.Error("short packet was accepted")
	}
}

func TestHidapiDeviceRead(t *testing.T) {
	report := bytes.Repeat([]byte{0x42}, protocol.PacketSize)

	t.Run("retries interrupted reads", func(t *testing.T) {
		fake := &fakeReport{
			reads:   [][]byte{report},
			readErr: []error{errors.New("Interrupted system call")},
		}
		dev := &HidapiDevice{dev: fake}

		buf := make([]byte, protocol.PacketSize)
		n, err := dev.Read(buf)
		if err != nil || n != protocol.PacketSize {
			t.Fatalf("Read = %d, %v", n, err)
		}
	})

	t.Run("other errors surface", func(t *testing.T) {
		ioErr := errors.New("No such device")
		dev := &HidapiDevice{dev: &fakeReport{readErr: []error{ioErr}}}

		_, err := dev.Read(make([]byte, protocol.PacketSize))
		if !errors.Is(err, ioErr) {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		fake := &fakeReport{}
		dev := &HidapiDevice{dev: fake, timeout: 250 * time.Millisecond}

		_, err := dev.Read(make([]byte, protocol.PacketSize))
		if !errors.Is(err, hid.ErrTimeout) {
			t.Errorf("error = %v, want hid.ErrTimeout", err)
		}
		if fake.timeout != 250*time.Millisecond {
			t.Errorf("timeout passed = %s", fake.timeout)
		}
	})
}

func TestHidapiDeviceCloseOnce(t *testing.T) {
	fake := &fakeReport{}
	dev := &HidapiDevice{dev: fake}

	dev.Close()
	dev.Close()
	if fake.closes != 1 {
		t.Errorf("closes = %d, want 1", fake.closes)
	}
}

func TestOpenPaths(t *testing.T) {
	infos := []*hid.DeviceInfo{
		{Path: "/dev/hidraw1", VendorID: protocol.VendorID, ProductID: protocol.ProductID},
		{Path: "/dev/hidraw1", VendorID: protocol.VendorID, ProductID: protocol.ProductID},
		{Path: "/dev/hidraw2", VendorID: protocol.VendorID, ProductID: protocol.ProductID},
		{Path: "/dev/hidraw3", VendorID: protocol.VendorID, ProductID: protocol.ProductID},
	}

	var opened []string
	open := func(path string) (reportDevice, error) {
		opened = append(opened, path)
		if path == "/dev/hidraw2" {
			return nil, errors.New("permission denied")
		}
		return &fakeReport{}, nil
	}

	cfg := newConfig([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithTimeout(time.Second),
	})
	devs := openPaths(infos, open, cfg)

	if len(opened) != 3 {
		t.Errorf("opened %v, want each path once", opened)
	}
	if len(devs) != 2 || devs[0].Path() != "/dev/hidraw1" || devs[1].Path() != "/dev/hidraw3" {
		t.Fatalf("devices = %v", devs)
	}
	if devs[0].String() != "MCP2210 => VID: 04d8, PID: 00de" {
		t.Errorf("String() = %q", devs[0].String())
	}
	if devs[0].timeout != time.Second {
		t.Errorf("timeout = %s", devs[0].timeout)
	}
}
