package protocol

// Transport is the firmware end of the link. It validates incoming frames,
// acknowledges them and hands each new payload to the handler exactly once.
type Transport struct {
	out     OutputBuffer
	handler func(payload []byte)
	nextSeq uint8

	// Counters for link diagnostics
	Frames  uint32
	Retries uint32
	Skipped uint32
}

// NewTransport creates a Transport writing frames to out
func NewTransport(out OutputBuffer, handler func(payload []byte)) *Transport {
	return &Transport{
		out:     out,
		handler: handler,
		nextSeq: SeqDest,
	}
}

// Receive consumes every complete frame buffered in in. Incomplete trailing
// bytes are left for the next call.
func (t *Transport) Receive(in InputBuffer) {
	for {
		frame, res, n := Scan(in.Data())
		switch res {
		case ScanNeedMore:
			return
		case ScanSkip:
			t.Skipped++
			in.Pop(n)
			continue
		}

		// Copy before popping; the handler may run long and the
		// buffer is reused by the caller.
		var payload [PayloadMax]byte
		plen := copy(payload[:], frame.Payload)
		seq := frame.Seq
		in.Pop(n)

		if seq != t.nextSeq {
			// Host did not see our ack; acknowledge again without
			// running the command twice.
			t.Retries++
			t.ack()
			continue
		}
		t.Frames++
		t.nextSeq = NextSeq(seq)
		t.ack()
		if plen > 0 && t.handler != nil {
			t.handler(payload[:plen])
		}
	}
}

func (t *Transport) ack() {
	EncodeFrame(t.out, t.nextSeq, nil)
}

// SendResponse frames payload with the current sequence
func (t *Transport) SendResponse(payload []byte) error {
	return EncodeFrame(t.out, t.nextSeq, payload)
}

// Reset returns the transport to its power-on sequence
func (t *Transport) Reset() {
	t.nextSeq = SeqDest
}
