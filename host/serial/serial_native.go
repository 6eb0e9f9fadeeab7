//go:build !wasm

package serial

import (
	"errors"
	"fmt"

	"github.com/tarm/serial"
)

var ErrNoDevice = errors.New("no serial device configured")

// NativePort is a Port backed by github.com/tarm/serial
type NativePort struct {
	port *serial.Port
	cfg  Config
}

// Open opens cfg.Device
func Open(cfg Config) (*NativePort, error) {
	if cfg.Device == "" {
		return nil, ErrNoDevice
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Device, err)
	}
	return &NativePort{port: port, cfg: cfg}, nil
}

func (p *NativePort) Read(b []byte) (int, error)  { return p.port.Read(b) }
func (p *NativePort) Write(b []byte) (int, error) { return p.port.Write(b) }
func (p *NativePort) Flush() error                { return p.port.Flush() }

func (p *NativePort) Close() error {
	if p.port == nil {
		return nil
	}
	return p.port.Close()
}

// Device returns the path the port was opened on
func (p *NativePort) Device() string { return p.cfg.Device }
