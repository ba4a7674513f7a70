package mcp2210

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/moffa90/go-mcp2210/mcp2210test"
	"github.com/moffa90/go-mcp2210/protocol"
)

func TestEachConfiguresAllDevices(t *testing.T) {
	sims := []*mcp2210test.Simulator{
		mcp2210test.NewSimulator(),
		mcp2210test.NewSimulator(),
		mcp2210test.NewSimulator(),
	}
	devices := NewAll(sims)

	settings := protocol.SpiSettings{Bitrate: 4000000, ActiveCS: 0x1FE, IdleCS: 0x1FF, BytesPerTransaction: 2, Mode: 3}
	err := Each(context.Background(), devices, func(ctx context.Context, d *Device) error {
		return d.WriteSpiSettings(ctx, settings, protocol.NVRAM)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, sim := range sims {
		if got := sim.SpiSettings(protocol.NVRAM); got != settings {
			t.Errorf("device %d: %+v", i, got)
		}
	}
}

func TestEachReturnsFirstError(t *testing.T) {
	failing := mcp2210test.NewSimulator()
	failing.FailNext(protocol.StatusBusNotAvailable)
	devices := NewAll([]*mcp2210test.Simulator{mcp2210test.NewSimulator(), failing})

	var calls atomic.Int32
	err := Each(context.Background(), devices, func(ctx context.Context, d *Device) error {
		calls.Add(1)
		_, err := d.ReadChipSettings(ctx, protocol.Volatile)
		return err
	})

	if !protocol.IsProtocolError(err) {
		t.Fatalf("error = %v, want ProtocolError", err)
	}
	if !strings.Contains(err.Error(), "MCP2210 simulator") {
		t.Errorf("error does not name the device: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("fn called %d times, want 2", calls.Load())
	}
}

type failingCloser struct {
	mcp2210test.Script
	err error
}

func (f *failingCloser) Close() error { return f.err }

func TestCloseAll(t *testing.T) {
	errA := errors.New("release a")
	errB := errors.New("release b")

	ok := mcp2210test.NewScript()
	devices := []*Device{
		New(ok),
		New(&failingCloser{err: errA}),
		New(&failingCloser{err: errB}),
	}

	err := CloseAll(devices)
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("error = %v, want both close errors", err)
	}
	if ok.Closes() != 1 {
		t.Errorf("closes = %d, want 1", ok.Closes())
	}

	// a second pass reports the same results without closing again
	if err := CloseAll(devices[:1]); err != nil {
		t.Errorf("second CloseAll = %v", err)
	}
	if ok.Closes() != 1 {
		t.Errorf("closes = %d, want 1", ok.Closes())
	}
}
