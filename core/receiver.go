package core

// rxState is the bounded-window receive state
type rxState uint8

const (
	rxAwaitSync rxState = iota
	rxStreaming
	rxComplete
)

// ReceiveStats describes the last receive call
type ReceiveStats struct {
	Rejected        uint32 // pulses outside both windows
	Timeouts        uint32 // per-pulse timeouts while streaming
	Elapsed         uint32 // µs from the synchronization epoch to return
	DeadlineExpired bool
}

// Receiver assembles fixed-length messages from measured pulse widths
type Receiver struct {
	port    TimingPort
	pin     GPIOPin
	profile Profile
	stats   ReceiveStats
}

// NewReceiver creates a receiver for pin on port
func NewReceiver(port TimingPort, pin GPIOPin, profile Profile) *Receiver {
	return &Receiver{
		port:    port,
		pin:     pin,
		profile: profile,
	}
}

// Profile returns the receiver's protocol revision
func (r *Receiver) Profile() Profile {
	return r.profile
}

// Setup configures the pin as an input
func (r *Receiver) Setup() {
	r.port.ConfigureDirection(r.pin, In)
}

// Stats returns the counters of the most recent Receive
func (r *Receiver) Stats() ReceiveStats {
	return r.stats
}

// Receive blocks until a message has been assembled according to the
// profile's synchronization strategy. It never fails: positions that could
// not be resolved are Invalid.
//
// With SyncBoundedWindow reception stops once the time since the sync pulse
// reaches the deadline; a pulse ending exactly on it is the last one kept.
//
// With SyncUnboundedRetry there is no overall deadline, so a silent channel
// blocks forever. Pick a bounded-window profile when that is not acceptable.
func (r *Receiver) Receive() Message {
	r.stats = ReceiveStats{}
	msg := NewMessage(r.profile.messageLength)

	switch r.profile.sync {
	case SyncBoundedWindow:
		r.receiveBounded(msg)
	default:
		r.receiveUnbounded(msg)
	}

	RecordEvent(EvtReceiveDone, r.port.NowMicros(), uint32(msg.InvalidCount()), r.stats.Elapsed)
	return msg
}

// receiveBounded runs AwaitSync -> Streaming -> Complete with interrupts
// masked for the whole call
func (r *Receiver) receiveBounded(msg Message) {
	release := criticalSection(r.port)
	defer release()

	var (
		state    = rxAwaitSync
		epoch    uint32
		index    int
		deadline = r.profile.Deadline()
	)

	for state != rxComplete {
		switch state {
		case rxAwaitSync:
			m := r.port.MeasureHighPulse(r.pin, 0)
			sym := Decode(m, r.profile)
			if !sym.Valid() {
				r.reject(0, m)
				continue
			}
			msg[0] = sym
			epoch = r.port.NowMicros()
			RecordEvent(EvtSync, epoch, uint32(sym), m.Micros)
			index = 1
			state = rxStreaming

		case rxStreaming:
			if index >= len(msg) {
				state = rxComplete
				continue
			}
			m := r.port.MeasureHighPulse(r.pin, r.profile.bitPeriod)
			if sym := Decode(m, r.profile); sym.Valid() {
				msg[index] = sym
				index++
			} else {
				r.reject(index, m)
			}
			if index < len(msg) && ElapsedMicros(r.port.NowMicros(), epoch) >= deadline {
				r.stats.DeadlineExpired = true
				RecordEvent(EvtDeadline, r.port.NowMicros(), uint32(index), ElapsedMicros(r.port.NowMicros(), epoch))
				state = rxComplete
			}
		}
	}
	// Unfilled positions were never written and are still Invalid.
	r.stats.Elapsed = ElapsedMicros(r.port.NowMicros(), epoch)
}

// receiveUnbounded waits for each position in turn with no timeout.
// Interrupts stay enabled so the rest of the device keeps running.
func (r *Receiver) receiveUnbounded(msg Message) {
	var epoch uint32
	for i := range msg {
		for {
			m := r.port.MeasureHighPulse(r.pin, 0)
			sym := Decode(m, r.profile)
			if sym.Valid() {
				msg[i] = sym
				break
			}
			r.reject(i, m)
		}
		if i == 0 {
			epoch = r.port.NowMicros()
			RecordEvent(EvtSync, epoch, uint32(msg[0]), 0)
		}
	}
	r.stats.Elapsed = ElapsedMicros(r.port.NowMicros(), epoch)
}

func (r *Receiver) reject(pos int, m Measurement) {
	if m.TimedOut {
		r.stats.Timeouts++
		RecordEvent(EvtPulseTimeout, r.port.NowMicros(), uint32(pos), 0)
		return
	}
	r.stats.Rejected++
	RecordEvent(EvtNoise, r.port.NowMicros(), uint32(pos), m.Micros)
}
