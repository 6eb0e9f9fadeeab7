package sim

import (
	"sync"

	"delphi/core"
)

// clock is a virtual microsecond counter shared by both port kinds
type clock struct {
	now uint32
}

func (c *clock) NowMicros() uint32 {
	return c.now
}

func (c *clock) BusyWaitMicros(us uint32) {
	c.now += us
}

// interrupts tracks masking on top of the core's host stand-in
type interrupts struct {
	disables int
	restores int
	depth    int
}

func (i *interrupts) DisableInterrupts() core.InterruptState {
	i.disables++
	i.depth++
	return core.DisableInterrupts()
}

func (i *interrupts) RestoreInterrupts(state core.InterruptState) {
	i.restores++
	i.depth--
	core.RestoreInterrupts(state)
}

// Masked reports whether a critical section is currently open on this port
func (i *interrupts) Masked() bool {
	return i.depth > 0
}

// MaskCounts returns how many times interrupts were disabled and restored
func (i *interrupts) MaskCounts() (disables, restores int) {
	return i.disables, i.restores
}

// TxPort records the output waveform onto a Line
type TxPort struct {
	*clock
	interrupts

	mu      sync.Mutex
	line    *Line
	level   core.Level
	rise    uint32
	toggles int
	dirs    map[core.GPIOPin]core.Direction
}

// NewTxPort creates a transmitting port writing to line
func NewTxPort(line *Line) *TxPort {
	return &TxPort{
		clock: &clock{},
		line:  line,
		dirs:  make(map[core.GPIOPin]core.Direction),
	}
}

func (p *TxPort) ConfigureDirection(pin core.GPIOPin, dir core.Direction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirs[pin] = dir
}

// Direction returns the configured direction of pin
func (p *TxPort) Direction(pin core.GPIOPin) (core.Direction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.dirs[pin]
	return d, ok
}

func (p *TxPort) SetOutputLevel(pin core.GPIOPin, level core.Level) {
	if level == p.level {
		return
	}
	p.toggles++
	p.level = level
	if level == core.High {
		p.rise = p.now
		return
	}
	p.line.Add(p.rise, p.now-p.rise)
}

// MeasureHighPulse is not used on the transmit side; it reports a timeout
// after waiting the requested time.
func (p *TxPort) MeasureHighPulse(pin core.GPIOPin, timeout uint32) core.Measurement {
	p.now += timeout
	return core.TimedOut()
}

// Toggles returns the number of level changes written so far
func (p *TxPort) Toggles() int {
	return p.toggles
}

// RxPort measures pulses from a Line with its own virtual clock
type RxPort struct {
	*clock
	interrupts

	line *Line
	dirs map[core.GPIOPin]core.Direction
}

// NewRxPort creates a receiving port reading from line
func NewRxPort(line *Line) *RxPort {
	return &RxPort{
		clock: &clock{},
		line:  line,
		dirs:  make(map[core.GPIOPin]core.Direction),
	}
}

func (p *RxPort) ConfigureDirection(pin core.GPIOPin, dir core.Direction) {
	p.dirs[pin] = dir
}

// Direction returns the configured direction of pin
func (p *RxPort) Direction(pin core.GPIOPin) (core.Direction, bool) {
	d, ok := p.dirs[pin]
	return d, ok
}

func (p *RxPort) SetOutputLevel(pin core.GPIOPin, level core.Level) {}

// MeasureHighPulse waits for the next rising edge at or after the current
// time and returns the pulse width. With a timeout the rising edge must come
// within it; otherwise the clock advances by the timeout and TimedOut is
// returned. Without one it blocks until a pulse is on the line.
func (p *RxPort) MeasureHighPulse(pin core.GPIOPin, timeout uint32) core.Measurement {
	pulse, ok := p.line.next(p.now, timeout == 0)
	if !ok || (timeout != 0 && pulse.Start-p.now > timeout) {
		p.now += timeout
		return core.TimedOut()
	}
	p.now = pulse.End()
	return core.Pulse(pulse.Width)
}

// Loopback wires a TxPort and an RxPort to one fresh line
func Loopback(opts ...Option) (*Line, *TxPort, *RxPort) {
	line := NewLine(opts...)
	return line, NewTxPort(line), NewRxPort(line)
}

// Board is one port with separate output and input lines sharing a single
// clock, the way a firmware target sees its tx and rx pins.
type Board struct {
	*TxPort
	rx *RxPort
}

// NewBoard writes transmissions to out and measures pulses from in
func NewBoard(out, in *Line) *Board {
	tx := NewTxPort(out)
	rx := NewRxPort(in)
	rx.clock = tx.clock
	return &Board{TxPort: tx, rx: rx}
}

func (b *Board) ConfigureDirection(pin core.GPIOPin, dir core.Direction) {
	b.TxPort.ConfigureDirection(pin, dir)
}

func (b *Board) MeasureHighPulse(pin core.GPIOPin, timeout uint32) core.Measurement {
	return b.rx.MeasureHighPulse(pin, timeout)
}
