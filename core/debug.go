package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures a radio event for post-mortem analysis
type Event struct {
	Type   uint8  // Evt* code
	Clock  uint32 // port NowMicros at event
	Value1 uint32 // context-dependent
	Value2 uint32 // context-dependent
}

// Event type codes
const (
	EvtSendStart    = 1 // v1=message length, v2=profile period
	EvtSendDone     = 2 // v1=elapsed µs
	EvtTrainer      = 3 // v1=repeat count, v2=half period
	EvtSync         = 4 // first valid pulse; v1=symbol, v2=pulse µs
	EvtNoise        = 5 // rejected pulse; v1=position, v2=pulse µs
	EvtPulseTimeout = 6 // v1=position
	EvtDeadline     = 7 // v1=filled positions, v2=elapsed µs
	EvtReceiveDone  = 8 // v1=invalid count, v2=elapsed µs
)

// EventRingSize is the number of events kept for post-mortem
const EventRingSize = 32

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled controls whether DebugPrintln output is active.
	// Off by default; printing inside a timed pulse would skew it.
	debugEnabled bool

	eventRing     [EventRingSize]Event
	eventRingHead uint8
	eventsEnabled = true
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent stores an event in the ring buffer. Never blocks or allocates.
func RecordEvent(eventType uint8, clock, value1, value2 uint32) {
	if !eventsEnabled {
		return
	}
	idx := eventRingHead
	eventRing[idx] = Event{
		Type:   eventType,
		Clock:  clock,
		Value1: value1,
		Value2: value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
}

// Events returns the recorded events, oldest first
func Events() []Event {
	out := make([]Event, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.Type == 0 {
			continue // empty slot
		}
		out = append(out, evt)
	}
	return out
}

// EventName returns a short label for an event type
func EventName(eventType uint8) string {
	switch eventType {
	case EvtSendStart:
		return "SEND_START"
	case EvtSendDone:
		return "SEND_DONE"
	case EvtTrainer:
		return "TRAINER"
	case EvtSync:
		return "SYNC"
	case EvtNoise:
		return "NOISE"
	case EvtPulseTimeout:
		return "PULSE_TIMEOUT"
	case EvtDeadline:
		return "DEADLINE"
	case EvtReceiveDone:
		return "RECV_DONE"
	default:
		return "UNKNOWN"
	}
}

// DumpEvents writes the event ring through the debug writer.
// Call it outside any timed section.
func DumpEvents() {
	if debugPrintln == nil {
		return
	}
	debugPrintln("[OOK] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[OOK] " + EventName(evt.Type) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[OOK] === End Dump ===")
}

// ClearEvents clears the event ring
func ClearEvents() {
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
}
