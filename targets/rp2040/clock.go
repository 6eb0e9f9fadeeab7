//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"delphi/core"
)

// RP2040 timer peripheral, a free-running 1 MHz counter. Only the low word
// is read; the radio works on wrapping 32-bit time.
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x0C
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

func hardwareTime() uint32 {
	return timerRAWL.Get()
}

// spinMicros busy-waits on the hardware counter
func spinMicros(us uint32) {
	start := hardwareTime()
	for core.ElapsedMicros(hardwareTime(), start) < us {
	}
}
