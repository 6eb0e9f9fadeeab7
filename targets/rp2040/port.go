//go:build rp2040

package main

import (
	"machine"

	"delphi/core"
	"delphi/targets/pio"
)

// boardPort implements core.TimingPort on RP2040 GPIO and the 1 MHz timer.
// When a PIO emitter owns the transmit pin, pulses go through it instead
// of being bit-banged.
type boardPort struct {
	emitter *pio.PulseEmitter
}

func (p *boardPort) ConfigureDirection(pin core.GPIOPin, dir core.Direction) {
	mp := machine.Pin(pin)
	if p.emitter != nil && p.emitter.Pin() == mp {
		return
	}
	mode := machine.PinInput
	if dir == core.Out {
		mode = machine.PinOutput
	}
	mp.Configure(machine.PinConfig{Mode: mode})
}

func (p *boardPort) SetOutputLevel(pin core.GPIOPin, level core.Level) {
	machine.Pin(pin).Set(bool(level))
}

// MeasureHighPulse polls pin against the hardware counter. A pulse already
// in progress is skipped. With a timeout the rising edge must arrive within
// it and the high phase is cut off at the same length, so a stuck line
// cannot hold a bounded receive.
func (p *boardPort) MeasureHighPulse(pin core.GPIOPin, timeout uint32) core.Measurement {
	mp := machine.Pin(pin)
	start := hardwareTime()
	expired := func() bool {
		return timeout != 0 && core.ElapsedMicros(hardwareTime(), start) >= timeout
	}

	for mp.Get() {
		if expired() {
			return core.TimedOut()
		}
	}
	for !mp.Get() {
		if expired() {
			return core.TimedOut()
		}
	}
	rise := hardwareTime()
	for mp.Get() {
		if timeout != 0 && core.ElapsedMicros(hardwareTime(), rise) >= timeout {
			break
		}
	}
	return core.Pulse(core.ElapsedMicros(hardwareTime(), rise))
}

func (p *boardPort) BusyWaitMicros(us uint32) { spinMicros(us) }
func (p *boardPort) NowMicros() uint32        { return hardwareTime() }

func (p *boardPort) DisableInterrupts() core.InterruptState {
	return core.DisableInterrupts()
}

func (p *boardPort) RestoreInterrupts(state core.InterruptState) {
	core.RestoreInterrupts(state)
}

// EmitPulse queues the pair on the PIO emitter and waits out its duration,
// so a send still takes as long as the waveform. Other pins fall back to
// bit-banging.
func (p *boardPort) EmitPulse(pin core.GPIOPin, high, low uint32) {
	if p.emitter == nil || p.emitter.Pin() != machine.Pin(pin) {
		p.SetOutputLevel(pin, core.High)
		spinMicros(high)
		p.SetOutputLevel(pin, core.Low)
		spinMicros(low)
		return
	}
	p.emitter.Queue(high, low)
	spinMicros(high + low)
}
