package core

// TimerFreq is the rate of the system clock reported to the host (1 MHz)
const TimerFreq = 1000000

// ElapsedMicros returns now-start on a wrapping 32-bit µs counter
func ElapsedMicros(now, start uint32) uint32 {
	return now - start
}
