package core

// Message is a fixed-length sequence of symbols.
// Messages are created per send/receive call and owned by the caller.
type Message []Symbol

// NewMessage returns a message of n symbols, all Invalid
func NewMessage(n int) Message {
	return make(Message, n)
}

// MessageFromBits converts plain bits into a fully valid message
func MessageFromBits(bits []bool) Message {
	msg := NewMessage(len(bits))
	for i, b := range bits {
		msg[i] = SymbolFromBit(b)
	}
	return msg
}

// ParseBits parses a string of '0' and '1' characters.
// Spaces and underscores are ignored so long messages can be grouped.
func ParseBits(s string) ([]bool, error) {
	bits := make([]bool, 0, len(s))
	for _, c := range s {
		switch c {
		case '0':
			bits = append(bits, false)
		case '1':
			bits = append(bits, true)
		case ' ', '_':
		default:
			return nil, ErrBadBitString
		}
	}
	return bits, nil
}

// InvalidCount returns the number of unresolved positions
func (m Message) InvalidCount() int {
	n := 0
	for _, s := range m {
		if !s.Valid() {
			n++
		}
	}
	return n
}

// Complete reports whether every position carries a bit
func (m Message) Complete() bool {
	return m.InvalidCount() == 0
}

// Bits converts the message to plain bits.
// Returns ErrUntransmittable if any position is Invalid.
func (m Message) Bits() ([]bool, error) {
	bits := make([]bool, len(m))
	for i, s := range m {
		b, ok := s.Bit()
		if !ok {
			return nil, ErrUntransmittable
		}
		bits[i] = b
	}
	return bits, nil
}

// String renders the message as e.g. "1011??00"
func (m Message) String() string {
	buf := make([]byte, len(m))
	for i, s := range m {
		buf[i] = byte(s.Rune())
	}
	return string(buf)
}

// WireBytes encodes m one byte per symbol for the host link
func (m Message) WireBytes() []byte {
	out := make([]byte, len(m))
	for i, s := range m {
		out[i] = s.WireByte()
	}
	return out
}

// MessageFromWire decodes symbols received over the host link
func MessageFromWire(b []byte) Message {
	msg := NewMessage(len(b))
	for i, c := range b {
		msg[i] = SymbolFromWire(c)
	}
	return msg
}
