package core

// Transmitter drives the output pin through the OOK waveform of a profile
type Transmitter struct {
	port    TimingPort
	pin     GPIOPin
	profile Profile
}

// NewTransmitter creates a transmitter for pin on port
func NewTransmitter(port TimingPort, pin GPIOPin, profile Profile) *Transmitter {
	return &Transmitter{
		port:    port,
		pin:     pin,
		profile: profile,
	}
}

// Profile returns the transmitter's protocol revision
func (t *Transmitter) Profile() Profile {
	return t.profile
}

// Setup configures the pin as an output and parks it low
func (t *Transmitter) Setup() {
	t.port.ConfigureDirection(t.pin, Out)
	t.port.SetOutputLevel(t.pin, Low)
}

// Send transmits exactly MessageLength bits, bracketed by the trainer when
// the profile has one. Blocks for Profile.TransmitDuration µs.
func (t *Transmitter) Send(bits []bool) error {
	if len(bits) != t.profile.messageLength {
		return ErrMessageLength
	}

	release := enterIf(t.port, t.profile)
	defer release()

	start := t.port.NowMicros()
	RecordEvent(EvtSendStart, start, uint32(len(bits)), t.profile.bitPeriod)

	trainer, hasTrainer := t.profile.Trainer()
	if hasTrainer {
		t.sendTrainer(trainer)
	}
	for _, bit := range bits {
		high, low := Encode(bit, t.profile)
		t.pulse(high, low)
	}
	if hasTrainer {
		t.sendTrainer(trainer)
	}

	now := t.port.NowMicros()
	RecordEvent(EvtSendDone, now, ElapsedMicros(now, start), 0)
	return nil
}

// SendMessage transmits a fully valid message
func (t *Transmitter) SendMessage(msg Message) error {
	bits, err := msg.Bits()
	if err != nil {
		return err
	}
	return t.Send(bits)
}

// SendTrainer emits the trainer sequence alone. It is a no-op for profiles
// without a trainer.
func (t *Transmitter) SendTrainer() {
	trainer, ok := t.profile.Trainer()
	if !ok {
		return
	}
	release := enterIf(t.port, t.profile)
	defer release()
	t.sendTrainer(trainer)
}

func (t *Transmitter) sendTrainer(trainer Trainer) {
	RecordEvent(EvtTrainer, t.port.NowMicros(), trainer.RepeatCount, trainer.HalfPeriod)
	for i := uint32(0); i < trainer.RepeatCount; i++ {
		t.pulse(trainer.HalfPeriod, trainer.HalfPeriod)
	}
}

// pulse drives one high phase followed by one low phase
func (t *Transmitter) pulse(high, low uint32) {
	if emitter, ok := t.port.(PulseEmitter); ok {
		emitter.EmitPulse(t.pin, high, low)
		return
	}
	t.port.SetOutputLevel(t.pin, High)
	t.port.BusyWaitMicros(high)
	t.port.SetOutputLevel(t.pin, Low)
	t.port.BusyWaitMicros(low)
}
