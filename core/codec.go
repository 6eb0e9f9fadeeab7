package core

import "math"

// Measurement is the result of timing one high pulse on the input pin
type Measurement struct {
	Micros   uint32
	TimedOut bool
}

// Pulse wraps a measured high duration
func Pulse(us uint32) Measurement {
	return Measurement{Micros: us}
}

// TimedOut is the measurement returned when no pulse completed in time
func TimedOut() Measurement {
	return Measurement{TimedOut: true}
}

// Encode maps a bit to the high and low phase lengths of one bit period, in µs
func Encode(bit bool, p Profile) (high, low uint32) {
	ratio := p.zeroDutyRatio
	if bit {
		ratio = p.oneDutyRatio
	}
	high = uint32(math.Round(float64(p.bitPeriod) * ratio))
	if high > p.bitPeriod {
		high = p.bitPeriod
	}
	return high, p.bitPeriod - high
}

// Decode classifies a measured pulse. Anything not strictly inside the zero
// or one window, including a timeout, is Invalid.
func Decode(m Measurement, p Profile) Symbol {
	if m.TimedOut {
		return Invalid
	}
	us := float64(m.Micros)
	switch {
	case p.ZeroWindow().Contains(us):
		return Zero
	case p.OneWindow().Contains(us):
		return One
	default:
		return Invalid
	}
}
