package sim

import (
	"io"

	"delphi/core"
	"delphi/protocol"
)

type writerOutput struct{ w io.Writer }

func (o writerOutput) Output(b []byte) { o.w.Write(b) }

// Firmware runs the radio command set behind the framed link, the way the
// board's main loop does, with simulated lines instead of pins. Air carries
// pulses toward the receiver; Out records what the transmitter emits.
type Firmware struct {
	Air   *Line
	Out   *Line
	Board *Board
	Radio *core.Radio

	transport *protocol.Transport
}

// NewFirmware creates a simulated board with fresh lines
func NewFirmware(opts ...Option) *Firmware {
	f := &Firmware{
		Air: NewLine(opts...),
		Out: NewLine(),
	}
	f.Board = NewBoard(f.Out, f.Air)
	f.Radio = core.NewRadio(f.Board, f.respond)
	return f
}

func (f *Firmware) respond(p []byte) {
	if f.transport != nil {
		f.transport.SendResponse(p)
	}
}

// Serve reads frames from rw and answers them until a read fails
func (f *Firmware) Serve(rw io.ReadWriter) error {
	f.transport = protocol.NewTransport(writerOutput{rw}, f.Radio.HandleFrame)

	in := protocol.NewFifoBuffer(4 * protocol.FrameMax)
	buf := make([]byte, 256)
	for {
		n, err := rw.Read(buf)
		if err != nil {
			return err
		}
		for data := buf[:n]; len(data) > 0; {
			w := in.Write(data)
			data = data[w:]
			f.transport.Receive(in)
			if w == 0 {
				in.Reset()
			}
		}
	}
}

// Inject places an encoded transmission on the air, trainer included,
// as a remote transmitter using profile p would
func (f *Firmware) Inject(p core.Profile, bits []bool) {
	trainer, hasTrainer := p.Trainer()
	emitTrainer := func() {
		for i := uint32(0); i < trainer.RepeatCount; i++ {
			f.Air.Append(trainer.HalfPeriod, trainer.HalfPeriod)
		}
	}
	if hasTrainer {
		emitTrainer()
	}
	for _, bit := range bits {
		high, low := core.Encode(bit, p)
		f.Air.Append(high, low)
	}
	if hasTrainer {
		emitTrainer()
	}
}
