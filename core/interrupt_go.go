//go:build !tinygo

package core

import "sync/atomic"

// maskDepth counts nested DisableInterrupts calls on regular Go (for testing)
var maskDepth int32

// DisableInterrupts is a counting stand-in on regular Go
func DisableInterrupts() InterruptState {
	return InterruptState(atomic.AddInt32(&maskDepth, 1) - 1)
}

// RestoreInterrupts is a counting stand-in on regular Go
func RestoreInterrupts(state InterruptState) {
	atomic.StoreInt32(&maskDepth, int32(state))
}

// InterruptsMasked reports whether a critical section is open
func InterruptsMasked() bool {
	return atomic.LoadInt32(&maskDepth) > 0
}
