// Package serial opens the USB CDC link to the radio firmware.
package serial

import (
	"io"
	"time"
)

// Port is the byte stream under the framed link
type Port interface {
	io.ReadWriteCloser

	// Flush discards buffered data not yet read or written
	Flush() error
}

// Config holds serial port settings. USB CDC ignores the baud rate but the
// driver still requires one.
type Config struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// DefaultConfig returns the settings used when the config file names none
func DefaultConfig(device string) Config {
	return Config{
		Device:      device,
		Baud:        250000,
		ReadTimeout: 100 * time.Millisecond,
	}
}
