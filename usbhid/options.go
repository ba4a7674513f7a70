package usbhid

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/moffa90/go-mcp2210/logging"
)

type config struct {
	timeout time.Duration
	logger  *slog.Logger
}

func defaultConfig() config {
	return config{
		logger: logging.Default(),
	}
}

func newConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures a transport.
type Option func(*config)

// WithTimeout bounds every report read and write. Zero, the default,
// blocks until the transfer completes.
//
// Example:
//
//	handles, err := usb.FindDevices(vid, pid, usbhid.WithTimeout(2*time.Second))
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used during enumeration.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// describe returns the user-facing description of a device handle.
func describe(vid, pid uint16) string {
	return fmt.Sprintf("MCP2210 => VID: %04x, PID: %04x", vid, pid)
}
