package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"delphi/core"
)

func TestInjectIncludesTrainer(t *testing.T) {
	fw := NewFirmware()
	bits := []bool{true, false, true, true, false, false, true, false}
	fw.Inject(core.RevisionB, bits)

	pulses := fw.Air.Pulses()
	require.Len(t, pulses, 40+8+40)
	require.Equal(t, uint32(25), pulses[0].Width)
	high, _ := core.Encode(true, core.RevisionB)
	require.Equal(t, high, pulses[40].Width)

	rx := core.NewReceiver(fw.Board, 13, core.RevisionB)
	require.Equal(t, core.MessageFromBits(bits), rx.Receive())
}
