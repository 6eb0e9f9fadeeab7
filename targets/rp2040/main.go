//go:build rp2040

package main

import (
	"machine"
	"time"

	"delphi/core"
	"delphi/protocol"
	"delphi/targets/pio"
)

// Default pins; the host may pick others with ook_config
const (
	txPin = machine.GPIO12
	rxPin = machine.GPIO13
)

var (
	inputBuffer *protocol.FifoBuffer
	output      *usbOutput
	transport   *protocol.Transport
	radio       *core.Radio

	frameErrors uint32
)

func main() {
	// Clear a watchdog left running by a previous reset
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	initUSB()

	port := &boardPort{}
	emitter := pio.NewPulseEmitter(0, 0)
	if err := emitter.Init(txPin); err == nil {
		port.emitter = emitter
	}

	led := newStatusLED()
	led.Show(core.StatusIdle)

	inputBuffer = protocol.NewFifoBuffer(256)
	output = &usbOutput{}
	radio = core.NewRadio(port, func(p []byte) {
		transport.SendResponse(p)
	})
	radio.OnStatus(led.Show)
	radio.Dictionary().SetConstant("MCU", "rp2040")
	transport = protocol.NewTransport(output, radio.HandleFrame)

	radio.Configure(core.RevisionA, core.GPIOPin(txPin), core.GPIOPin(rxPin))

	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					frameErrors++
					if port.emitter != nil {
						// Drop pulses queued by the interrupted send
						port.emitter.Stop()
					}
					inputBuffer.Reset()
					led.Show(core.StatusError)
				}
			}()

			if output.disconnected {
				// Host went away; start the next session clean
				output.disconnected = false
				inputBuffer.Reset()
				transport.Reset()
			}

			if readUSB(inputBuffer) > 0 || len(inputBuffer.Data()) > 0 {
				transport.Receive(inputBuffer)
			}
			if inputBuffer.Available() == 0 {
				// Full of bytes that never formed a frame
				inputBuffer.Reset()
			}
		}()
		time.Sleep(10 * time.Microsecond)
	}
}
