//go:build rp2040

package pio

// PIO backend for OOK pulses. Each FIFO word describes one high/low pair:
//
//	Bits 0-15:  high cycles (x)
//	Bits 16-31: low cycles (y)
//
// At a 1 MHz state machine clock one cycle is one microsecond, so pulse
// edges do not depend on CPU timing or interrupts.

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// Cycles spent outside the counting loops
const (
	highOverhead = 2 // set pins 1, final jmp x--
	lowOverhead  = 5 // set pins 0, final jmp y--, pull, out, out
)

func buildPulseProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),           // 0: pull block
		asm.Out(rp2pio.OutDestX, 16).Encode(),    // 1: out x, 16
		asm.Out(rp2pio.OutDestY, 16).Encode(),    // 2: out y, 16
		asm.Set(rp2pio.SetDestPins, 1).Encode(),  // 3: set pins, 1
		asm.Jmp(4, rp2pio.JmpXNZeroDec).Encode(), // 4: jmp x--, 4
		asm.Set(rp2pio.SetDestPins, 0).Encode(),  // 5: set pins, 0
		asm.Jmp(6, rp2pio.JmpYNZeroDec).Encode(), // 6: jmp y--, 6
		// .wrap
	}
}

const pulsePIOOrigin = 0

// PulseEmitter drives one pin from a PIO state machine
type PulseEmitter struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	pin    machine.Pin
	offset uint8
}

// NewPulseEmitter selects PIO block pioNum (0 or 1) and state machine smNum
func NewPulseEmitter(pioNum, smNum uint8) *PulseEmitter {
	hw := rp2pio.PIO0
	if pioNum != 0 {
		hw = rp2pio.PIO1
	}
	return &PulseEmitter{pio: hw, sm: hw.StateMachine(smNum)}
}

// Init loads the program and hands pin to the state machine, idle low
func (e *PulseEmitter) Init(pin machine.Pin) error {
	e.pin = pin
	e.sm.TryClaim()

	program := buildPulseProgram()
	offset, err := e.pio.AddProgram(program, pulsePIOOrigin)
	if err != nil {
		return err
	}
	e.offset = offset

	pin.Configure(machine.PinConfig{Mode: e.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(pin, 1)
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	// 125 MHz system clock / 125 = 1 MHz
	cfg.SetClkDivIntFrac(125, 0)

	// Pin direction must be set after Init
	e.sm.Init(offset, cfg)
	e.sm.SetPindirsConsecutive(pin, 1, true)
	e.sm.SetPinsConsecutive(pin, 1, false)
	e.sm.SetEnabled(true)
	return nil
}

// Pin returns the pin the emitter drives
func (e *PulseEmitter) Pin() machine.Pin { return e.pin }

// Queue pushes one pulse, blocking while the FIFO is full. Widths below
// the program overhead are stretched to the minimum.
func (e *PulseEmitter) Queue(high, low uint32) {
	x := clampCycles(high, highOverhead)
	y := clampCycles(low, lowOverhead)
	for e.sm.IsTxFIFOFull() {
	}
	e.sm.TxPut(x | y<<16)
}

func clampCycles(us, overhead uint32) uint32 {
	if us <= overhead {
		return 0
	}
	us -= overhead
	if us > 0xFFFF {
		return 0xFFFF
	}
	return us
}

// Stop aborts queued pulses and leaves the pin low
func (e *PulseEmitter) Stop() {
	e.sm.SetEnabled(false)
	e.sm.ClearFIFOs()
	e.sm.Restart()
	e.sm.SetPinsConsecutive(e.pin, 1, false)
	e.sm.SetEnabled(true)
}
