package core

import (
	"errors"

	"delphi/protocol"
)

// Error codes carried by ook_error
const (
	CodeUnknownCommand uint8 = 1
	CodeBadArguments   uint8 = 2
	CodeUnknownProfile uint8 = 3
	CodeMessageLength  uint8 = 4
	CodeNotConfigured  uint8 = 5
	CodeBadBitString   uint8 = 6
)

// ErrorCode maps a handler error to its ook_error code
func ErrorCode(err error) uint8 {
	switch {
	case errors.Is(err, ErrUnknownCommand):
		return CodeUnknownCommand
	case errors.Is(err, ErrUnknownProfile):
		return CodeUnknownProfile
	case errors.Is(err, ErrMessageLength):
		return CodeMessageLength
	case errors.Is(err, ErrNotConfigured):
		return CodeNotConfigured
	case errors.Is(err, ErrBadBitString):
		return CodeBadBitString
	default:
		return CodeBadArguments
	}
}

// RadioStatus is reported to the board for its status indicator
type RadioStatus uint8

const (
	StatusIdle RadioStatus = iota
	StatusSending
	StatusReceiving
	StatusError
)

// MaxIdentifyChunk bounds identify replies to a single frame
const MaxIdentifyChunk = 48

// Radio owns the firmware command set: the registry, the dictionary and the
// transmitter/receiver pair selected by ook_config.
type Radio struct {
	port     TimingPort
	registry *CommandRegistry
	dict     *Dictionary
	respond  func(payload []byte)
	status   func(RadioStatus)

	tx *Transmitter
	rx *Receiver
}

// NewRadio registers the command set. respond receives every encoded
// response payload, normally protocol.Transport.SendResponse.
func NewRadio(port TimingPort, respond func(payload []byte)) *Radio {
	r := &Radio{
		port:     port,
		registry: NewCommandRegistry(),
		respond:  respond,
	}
	r.dict = NewDictionary(r.registry)

	// identify_response/identify hold ids 0 and 1 so the host can
	// bootstrap before it has read the dictionary.
	r.registry.RegisterResponse("identify_response", "offset=%u data=%*s")
	r.registry.Register("identify", "offset=%u count=%c", r.handleIdentify)

	r.registry.Register("get_clock", "", r.handleGetClock)
	r.registry.RegisterResponse("clock", "clock=%u")
	r.registry.Register("ook_config", "profile=%c tx_pin=%u rx_pin=%u", r.handleConfig)
	r.registry.Register("ook_send", "bits=%*s", r.handleSend)
	r.registry.Register("ook_trainer", "", r.handleTrainer)
	r.registry.RegisterResponse("ook_sent", "count=%u")
	r.registry.Register("ook_receive", "", r.handleReceive)
	r.registry.RegisterResponse("ook_message", "symbols=%*s invalid=%u elapsed=%u")
	r.registry.Register("ook_events", "", r.handleEvents)
	r.registry.RegisterResponse("ook_event", "type=%c clock=%u v1=%u v2=%u")
	r.registry.RegisterResponse("ook_events_end", "count=%u")
	r.registry.RegisterResponse("ook_error", "code=%c")

	r.dict.SetConstant("VERSION", "delphi-"+protocol.Version)
	r.dict.SetConstant("CLOCK_FREQ", utoa(TimerFreq))
	return r
}

func (r *Radio) Registry() *CommandRegistry { return r.registry }
func (r *Radio) Dictionary() *Dictionary    { return r.dict }

// OnStatus installs a callback for status changes
func (r *Radio) OnStatus(fn func(RadioStatus)) {
	r.status = fn
}

// Configure selects the profile and pins. Both pins are set up at once.
func (r *Radio) Configure(p Profile, txPin, rxPin GPIOPin) {
	r.tx = NewTransmitter(r.port, txPin, p)
	r.rx = NewReceiver(r.port, rxPin, p)
	r.tx.Setup()
	r.rx.Setup()
	DebugPrintln("[OOK] configured profile " + p.Name())
}

// HandleFrame dispatches one command payload. Failures are answered with
// ook_error so the link stays in step.
func (r *Radio) HandleFrame(payload []byte) {
	if err := r.registry.Dispatch(payload); err != nil {
		DebugPrintln("[OOK] command failed: " + err.Error())
		r.setStatus(StatusError)
		r.send("ook_error", func(out protocol.OutputBuffer) {
			protocol.PutUVLQ(out, uint32(ErrorCode(err)))
		})
	}
}

func (r *Radio) setStatus(s RadioStatus) {
	if r.status != nil {
		r.status(s)
	}
}

func (r *Radio) send(name string, args func(out protocol.OutputBuffer)) {
	cmd, ok := r.registry.ByName(name)
	if !ok {
		panic("response not registered: " + name)
	}
	var out protocol.ScratchOutput
	protocol.PutUVLQ(&out, uint32(cmd.ID))
	args(&out)
	if r.respond != nil {
		r.respond(out.Result())
	}
}

func (r *Radio) handleIdentify(args *[]byte) error {
	offset, err := protocol.ReadUVLQ(args)
	if err != nil {
		return err
	}
	count, err := protocol.ReadUVLQ(args)
	if err != nil {
		return err
	}
	if count > MaxIdentifyChunk {
		count = MaxIdentifyChunk
	}
	chunk := r.dict.Chunk(offset, uint8(count))
	r.send("identify_response", func(out protocol.OutputBuffer) {
		protocol.PutUVLQ(out, offset)
		protocol.PutBytes(out, chunk)
	})
	return nil
}

func (r *Radio) handleGetClock(*[]byte) error {
	now := r.port.NowMicros()
	r.send("clock", func(out protocol.OutputBuffer) {
		protocol.PutUVLQ(out, now)
	})
	return nil
}

func (r *Radio) handleConfig(args *[]byte) error {
	var v [3]uint32
	for i := range v {
		var err error
		if v[i], err = protocol.ReadUVLQ(args); err != nil {
			return err
		}
	}
	p, err := ProfileByID(v[0])
	if err != nil {
		return err
	}
	r.Configure(p, GPIOPin(v[1]), GPIOPin(v[2]))
	r.setStatus(StatusIdle)
	return nil
}

func (r *Radio) handleSend(args *[]byte) error {
	if r.tx == nil {
		return ErrNotConfigured
	}
	raw, err := protocol.ReadBytes(args)
	if err != nil {
		return err
	}
	bits := make([]bool, len(raw))
	for i, b := range raw {
		switch b {
		case 0:
		case 1:
			bits[i] = true
		default:
			return ErrBadBitString
		}
	}
	r.setStatus(StatusSending)
	if err := r.tx.Send(bits); err != nil {
		return err
	}
	r.setStatus(StatusIdle)
	r.sent(uint32(len(bits)))
	return nil
}

func (r *Radio) handleTrainer(*[]byte) error {
	if r.tx == nil {
		return ErrNotConfigured
	}
	var count uint32
	if t, ok := r.tx.Profile().Trainer(); ok {
		count = t.RepeatCount
	}
	r.setStatus(StatusSending)
	r.tx.SendTrainer()
	r.setStatus(StatusIdle)
	r.sent(count)
	return nil
}

func (r *Radio) sent(count uint32) {
	r.send("ook_sent", func(out protocol.OutputBuffer) {
		protocol.PutUVLQ(out, count)
	})
}

func (r *Radio) handleReceive(*[]byte) error {
	if r.rx == nil {
		return ErrNotConfigured
	}
	r.setStatus(StatusReceiving)
	msg := r.rx.Receive()
	stats := r.rx.Stats()
	r.setStatus(StatusIdle)
	r.send("ook_message", func(out protocol.OutputBuffer) {
		protocol.PutBytes(out, msg.WireBytes())
		protocol.PutUVLQ(out, uint32(msg.InvalidCount()))
		protocol.PutUVLQ(out, stats.Elapsed)
	})
	return nil
}

func (r *Radio) handleEvents(*[]byte) error {
	events := Events()
	for _, e := range events {
		e := e
		r.send("ook_event", func(out protocol.OutputBuffer) {
			protocol.PutUVLQ(out, uint32(e.Type))
			protocol.PutUVLQ(out, e.Clock)
			protocol.PutUVLQ(out, e.Value1)
			protocol.PutUVLQ(out, e.Value2)
		})
	}
	r.send("ook_events_end", func(out protocol.OutputBuffer) {
		protocol.PutUVLQ(out, uint32(len(events)))
	})
	return nil
}
