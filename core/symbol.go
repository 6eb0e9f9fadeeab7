package core

// Symbol is one decoded bit position of a received message.
// The zero value is Invalid so a freshly allocated Message starts unresolved.
type Symbol uint8

const (
	Invalid Symbol = iota // noise, timeout or out-of-band pulse
	Zero
	One
)

// SymbolFromBit maps a transmittable bit to its symbol
func SymbolFromBit(bit bool) Symbol {
	if bit {
		return One
	}
	return Zero
}

// Bit returns the bit carried by s. ok is false for Invalid.
func (s Symbol) Bit() (bit bool, ok bool) {
	switch s {
	case One:
		return true, true
	case Zero:
		return false, true
	default:
		return false, false
	}
}

// Valid reports whether s carries a bit
func (s Symbol) Valid() bool {
	return s == Zero || s == One
}

// Rune renders the symbol as '0', '1' or '?'
func (s Symbol) Rune() rune {
	switch s {
	case One:
		return '1'
	case Zero:
		return '0'
	default:
		return '?'
	}
}

func (s Symbol) String() string {
	switch s {
	case One:
		return "One"
	case Zero:
		return "Zero"
	default:
		return "Invalid"
	}
}

// Host link encoding of a symbol: 0=Zero, 1=One, 2=Invalid
const (
	wireZero    = 0
	wireOne     = 1
	wireInvalid = 2
)

// WireByte returns the host link encoding of s
func (s Symbol) WireByte() byte {
	switch s {
	case Zero:
		return wireZero
	case One:
		return wireOne
	default:
		return wireInvalid
	}
}

// SymbolFromWire decodes a host link symbol byte. Unknown bytes are Invalid.
func SymbolFromWire(b byte) Symbol {
	switch b {
	case wireZero:
		return Zero
	case wireOne:
		return One
	default:
		return Invalid
	}
}
