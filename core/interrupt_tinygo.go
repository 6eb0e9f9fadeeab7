//go:build tinygo

package core

import "runtime/interrupt"

// DisableInterrupts disables interrupts and returns the previous state
func DisableInterrupts() InterruptState {
	return InterruptState(interrupt.Disable())
}

// RestoreInterrupts restores the interrupt state
func RestoreInterrupts(state InterruptState) {
	interrupt.Restore(interrupt.State(state))
}
