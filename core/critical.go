package core

// criticalSection masks interrupts on port and returns the release func.
// Callers defer the release so every exit path restores the prior state.
func criticalSection(port TimingPort) func() {
	state := port.DisableInterrupts()
	return func() {
		port.RestoreInterrupts(state)
	}
}

// enterIf opens a critical section only when the profile asks for one
func enterIf(port TimingPort, p Profile) func() {
	if !p.MasksInterrupts() {
		return func() {}
	}
	return criticalSection(port)
}
