package protocol

// OutputBuffer receives encoded bytes
type OutputBuffer interface {
	Output(data []byte)
}

// InputBuffer exposes buffered bytes to a frame parser
type InputBuffer interface {
	Data() []byte
	Pop(n int)
}

// ScratchOutput is a fixed-capacity OutputBuffer. Writes past capacity are
// dropped and flagged so the caller can discard the frame.
type ScratchOutput struct {
	buf      [ScratchSize]byte
	n        int
	overflow bool
}

func (s *ScratchOutput) Output(data []byte) {
	if s.n+len(data) > len(s.buf) {
		s.overflow = true
		data = data[:len(s.buf)-s.n]
	}
	s.n += copy(s.buf[s.n:], data)
}

func (s *ScratchOutput) Result() []byte { return s.buf[:s.n] }
func (s *ScratchOutput) Len() int       { return s.n }
func (s *ScratchOutput) Overflowed() bool {
	return s.overflow
}

func (s *ScratchOutput) Reset() {
	s.n = 0
	s.overflow = false
}

// FifoBuffer accumulates link bytes until whole frames are available.
// It compacts on Pop so Data always starts at the oldest unread byte.
type FifoBuffer struct {
	buf []byte
	n   int
}

func NewFifoBuffer(size int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, size)}
}

// Write appends as much of data as fits and reports the count stored
func (f *FifoBuffer) Write(data []byte) int {
	n := copy(f.buf[f.n:], data)
	f.n += n
	return n
}

func (f *FifoBuffer) Data() []byte { return f.buf[:f.n] }
func (f *FifoBuffer) Available() int {
	return len(f.buf) - f.n
}

func (f *FifoBuffer) Pop(n int) {
	if n >= f.n {
		f.n = 0
		return
	}
	copy(f.buf, f.buf[n:f.n])
	f.n -= n
}

func (f *FifoBuffer) Reset() { f.n = 0 }
