package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMessageIsInvalid(t *testing.T) {
	msg := NewMessage(8)
	require.Len(t, msg, 8)
	require.Equal(t, 8, msg.InvalidCount())
	require.False(t, msg.Complete())
	require.Equal(t, "????????", msg.String())

	_, err := msg.Bits()
	require.ErrorIs(t, err, ErrUntransmittable)
}

func TestParseBits(t *testing.T) {
	bits, err := ParseBits("1011 0010_1")
	require.NoError(t, err)
	require.Equal(t, []bool{true, false, true, true, false, false, true, false, true}, bits)

	_, err = ParseBits("10x1")
	require.ErrorIs(t, err, ErrBadBitString)
}

func TestMessageBits(t *testing.T) {
	bits := []bool{true, false, false, true}
	msg := MessageFromBits(bits)
	require.True(t, msg.Complete())
	require.Equal(t, "1001", msg.String())

	out, err := msg.Bits()
	require.NoError(t, err)
	require.Equal(t, bits, out)

	msg[2] = Invalid
	require.Equal(t, 1, msg.InvalidCount())
	require.Equal(t, "10?1", msg.String())
}

func TestSymbol(t *testing.T) {
	require.Equal(t, Invalid, Symbol(0))

	b, ok := One.Bit()
	require.True(t, ok)
	require.True(t, b)
	b, ok = Zero.Bit()
	require.True(t, ok)
	require.False(t, b)
	_, ok = Invalid.Bit()
	require.False(t, ok)

	require.Equal(t, "Invalid", Invalid.String())
}
