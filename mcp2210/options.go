package mcp2210

import (
	"log/slog"

	"github.com/moffa90/go-mcp2210/logging"
)

// Config holds the device driver configuration.
type Config struct {
	// Logger is used for logging operations. Packet headers are logged at
	// logging.LevelTrace.
	Logger *slog.Logger

	// TransferCallback is called after every SPI transfer exchange (optional)
	TransferCallback TransferCallback

	// MaxPolls bounds the number of poll exchanges in one Transfer.
	// Zero means unbounded.
	MaxPolls int
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Logger: logging.Default(),
	}
}

// Option is a functional option for configuring a Device.
type Option func(*Config)

// WithLogger sets the logger for device operations. A nil logger keeps the
// environment-configured default.
//
// Example:
//
//	dev := mcp2210.New(rw, mcp2210.WithLogger(slog.Default()))
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithTransferCallback sets a callback to observe SPI transfer progress.
//
// Example:
//
//	dev := mcp2210.New(rw,
//	    mcp2210.WithTransferCallback(func(p mcp2210.TransferProgress) {
//	        fmt.Printf("[%s] exchange %d: %d bytes\n", p.Phase, p.Exchange, p.Received)
//	    }),
//	)
func WithTransferCallback(callback TransferCallback) Option {
	return func(c *Config) {
		c.TransferCallback = callback
	}
}

// WithMaxPolls bounds the number of poll exchanges per Transfer.
// Transfers exceeding the bound fail with ErrPollLimit.
//
// Example:
//
//	dev := mcp2210.New(rw, mcp2210.WithMaxPolls(1000))
func WithMaxPolls(n int) Option {
	return func(c *Config) {
		if n >= 0 {
			c.MaxPolls = n
		}
	}
}
