package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// Direction of a GPIO pin
type Direction uint8

const (
	In Direction = iota
	Out
)

// Level of an output pin
type Level bool

const (
	Low  Level = false
	High Level = true
)

// InterruptState is the opaque interrupt-enable state captured before masking
type InterruptState uintptr

// TimingPort is the hardware capability the radio core runs on.
// Platform-specific implementations handle the actual pins and timers.
type TimingPort interface {
	// ConfigureDirection sets a pin up as digital input or output
	ConfigureDirection(pin GPIOPin, dir Direction)

	// SetOutputLevel drives an output pin high or low
	SetOutputLevel(pin GPIOPin, level Level)

	// MeasureHighPulse waits for the next rising edge on pin and returns the
	// width of that high pulse. timeout bounds the wait for the rising edge
	// in µs; 0 waits forever.
	MeasureHighPulse(pin GPIOPin, timeout uint32) Measurement

	// BusyWaitMicros spins for us microseconds
	BusyWaitMicros(us uint32)

	// NowMicros returns a free-running microsecond counter that may wrap
	NowMicros() uint32

	// DisableInterrupts masks all maskable interrupts and returns the prior state
	DisableInterrupts() InterruptState

	// RestoreInterrupts puts back a state returned by DisableInterrupts
	RestoreInterrupts(state InterruptState)
}

// PulseEmitter is implemented by ports that can generate a timed high/low
// pair in hardware. The transmitter prefers it over bit-banging.
type PulseEmitter interface {
	EmitPulse(pin GPIOPin, high, low uint32)
}
