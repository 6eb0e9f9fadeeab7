// Package sim provides a simulated OOK channel with virtual clocks, so the
// radio core can run on a host without pins or timers.
package sim

import (
	"math/rand"
	"sync"
)

// Pulse is one high period on the line, in µs of line time
type Pulse struct {
	Start uint32
	Width uint32
}

// End returns the time of the falling edge
func (p Pulse) End() uint32 {
	return p.Start + p.Width
}

// Line is the shared medium between a TxPort and an RxPort.
// Pulses are kept in start order; a receiver blocked on an empty line wakes
// when a new pulse is added.
type Line struct {
	mu     sync.Mutex
	cond   *sync.Cond
	pulses []Pulse
	tail   uint32 // end of the last pulse
	cursor uint32 // latest time a receiver asked for
	jitter int32
	rng    *rand.Rand
}

// Option configures a Line
type Option func(*Line)

// WithJitter perturbs every recorded pulse width by up to ±max µs
func WithJitter(max int32, seed int64) Option {
	return func(l *Line) {
		l.jitter = max
		l.rng = rand.New(rand.NewSource(seed))
	}
}

// NewLine creates an empty, silent line
func NewLine(opts ...Option) *Line {
	l := &Line{}
	l.cond = sync.NewCond(&l.mu)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add places a pulse on the line. Pulses that start before the end of the
// previous one are shifted after it.
func (l *Line) Add(start, width uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if start < l.tail {
		start = l.tail
	}
	width = l.distort(width)
	l.pulses = append(l.pulses, Pulse{Start: start, Width: width})
	l.tail = start + width
	l.cond.Broadcast()
}

// Append places a pulse of width µs followed by gap µs of silence after the
// current end of the line, or after the time a receiver is waiting from if
// that is later
func (l *Line) Append(width, gap uint32) {
	l.mu.Lock()
	start := l.tail
	if l.cursor > start {
		start = l.cursor
	}
	l.mu.Unlock()
	l.Add(start, width)
	l.mu.Lock()
	l.tail += gap
	l.mu.Unlock()
}

// Pulses returns a copy of everything recorded so far
func (l *Line) Pulses() []Pulse {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Pulse, len(l.pulses))
	copy(out, l.pulses)
	return out
}

// Reset clears the line
func (l *Line) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pulses = l.pulses[:0]
	l.tail = 0
	l.cursor = 0
}

// next returns the first pulse whose rising edge is at or after t.
// When wait is set it blocks until such a pulse exists.
func (l *Line) next(t uint32, wait bool) (Pulse, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t > l.cursor {
		l.cursor = t
	}
	for {
		for _, p := range l.pulses {
			if p.Start >= t {
				return p, true
			}
		}
		if !wait {
			return Pulse{}, false
		}
		l.cond.Wait()
	}
}

func (l *Line) distort(width uint32) uint32 {
	if l.jitter == 0 || l.rng == nil {
		return width
	}
	d := l.rng.Int31n(2*l.jitter+1) - l.jitter
	if d < 0 && uint32(-d) >= width {
		return 1
	}
	return uint32(int32(width) + d)
}
