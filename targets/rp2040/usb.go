//go:build rp2040

package main

import (
	"machine"
)

// machine.Serial is USB CDC on RP2040; TinyGo's runtime sets up the descriptors
func initUSB() {
	machine.Serial.Configure(machine.UARTConfig{})
}

// usbOutput writes frames straight to USB so acknowledgements leave before
// a long-running command starts
type usbOutput struct {
	failures     uint32
	disconnected bool
}

func (o *usbOutput) Output(data []byte) {
	for len(data) > 0 {
		n, err := machine.Serial.Write(data)
		if err != nil || n == 0 {
			o.failures++
			if o.failures > 10 {
				o.disconnected = true
				o.failures = 0
			}
			return
		}
		data = data[n:]
	}
	o.failures = 0
}

// readUSB moves buffered USB bytes into in and reports how many were taken
func readUSB(in interface{ Write([]byte) int }) int {
	var buf [64]byte
	n := 0
	for n < len(buf) && machine.Serial.Buffered() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			break
		}
		buf[n] = b
		n++
	}
	if n == 0 {
		return 0
	}
	return in.Write(buf[:n])
}
