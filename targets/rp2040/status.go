//go:build rp2040

package main

import (
	"image/color"
	"machine"

	"tinygo.org/x/drivers/ws2812"

	"delphi/core"
)

// Onboard WS2812 on RP2040-Zero style boards
const statusLEDPin = machine.GPIO16

var statusColors = [...]color.RGBA{
	core.StatusIdle:      {R: 0, G: 8, B: 0},
	core.StatusSending:   {R: 0, G: 0, B: 24},
	core.StatusReceiving: {R: 16, G: 12, B: 0},
	core.StatusError:     {R: 24, G: 0, B: 0},
}

type statusLED struct {
	dev ws2812.Device
	buf [1]color.RGBA
}

func newStatusLED() *statusLED {
	statusLEDPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &statusLED{dev: ws2812.New(statusLEDPin)}
}

// Show writes the colour for s. Never called inside a timed section.
func (l *statusLED) Show(s core.RadioStatus) {
	if int(s) >= len(statusColors) {
		s = core.StatusError
	}
	l.buf[0] = statusColors[s]
	l.dev.WriteColors(l.buf[:])
}
