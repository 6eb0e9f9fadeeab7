// Package station is the host side of a radio session: it reads the
// firmware dictionary and turns OOK commands into framed link traffic.
package station

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"delphi/core"
	"delphi/host/logging"
	"delphi/host/serial"
	"delphi/protocol"
)

// Link carries command and response payloads. protocol.HostTransport is
// the production implementation.
type Link interface {
	SendCommand(ctx context.Context, payload []byte) error
	ReceiveResponse(ctx context.Context) ([]byte, error)
	Close() error
}

// IdentifyChunk is the dictionary chunk size requested per identify
const IdentifyChunk = 40

// Reception is a decoded ook_message
type Reception struct {
	Message core.Message
	Invalid uint32
	Elapsed uint32 // µs from synchronization to completion
}

// Station is a session with one radio firmware
type Station struct {
	link Link
	log  zerolog.Logger
	dict *Dictionary
	raw  []byte
}

// New wraps an open link. Call Identify before any other command.
func New(link Link, log zerolog.Logger) *Station {
	return &Station{
		link: link,
		log:  logging.Component(log, "station"),
	}
}

// Open connects to the firmware over a serial port
func Open(cfg serial.Config, log zerolog.Logger) (*Station, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Str("device", cfg.Device).Msg("serial port open")
	return Attach(port, log)
}

// Attach starts a session on an already open port. Bytes left from an
// earlier session are flushed before the link starts reading.
func Attach(port serial.Port, log zerolog.Logger) (*Station, error) {
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("flush serial port: %w", err)
	}
	return New(protocol.NewHostTransport(port, log), log), nil
}

// Close ends the session
func (s *Station) Close() error {
	if s.link == nil {
		return nil
	}
	err := s.link.Close()
	s.link = nil
	return err
}

// Dictionary returns the parsed dictionary, nil before Identify
func (s *Station) Dictionary() *Dictionary { return s.dict }

// RawDictionary returns the dictionary bytes as served
func (s *Station) RawDictionary() []byte { return s.raw }

// Identify downloads and parses the firmware dictionary
func (s *Station) Identify(ctx context.Context) error {
	if s.link == nil {
		return ErrNotConnected
	}
	var buf bytes.Buffer
	for {
		offset := uint32(buf.Len())
		chunk, err := s.identifyChunk(ctx, offset)
		if err != nil {
			return fmt.Errorf("identify at offset %d: %w", offset, err)
		}
		buf.Write(chunk)
		if len(chunk) == 0 {
			break
		}
	}
	dict, err := ParseDictionary(buf.Bytes())
	if err != nil {
		return err
	}
	s.raw = buf.Bytes()
	s.dict = dict
	s.log.Info().
		Int("bytes", buf.Len()).
		Int("commands", len(dict.entries)).
		Str("version", dict.Constants["VERSION"]).
		Msg("dictionary loaded")
	return nil
}

func (s *Station) identifyChunk(ctx context.Context, offset uint32) ([]byte, error) {
	var out protocol.ScratchOutput
	protocol.PutUVLQ(&out, idIdentify)
	protocol.PutUVLQ(&out, offset)
	protocol.PutUVLQ(&out, IdentifyChunk)
	if err := s.send(ctx, out.Result()); err != nil {
		return nil, err
	}
	for {
		p, err := s.receive(ctx)
		if err != nil {
			return nil, err
		}
		id, err := protocol.ReadUVLQ(&p)
		if err != nil {
			return nil, err
		}
		if id != idIdentifyResponse {
			s.log.Debug().Uint32("id", id).Msg("skipping response during identify")
			continue
		}
		got, err := protocol.ReadUVLQ(&p)
		if err != nil {
			return nil, err
		}
		if got != offset {
			return nil, fmt.Errorf("identify offset %d, want %d", got, offset)
		}
		data, err := protocol.ReadBytes(&p)
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), data...), nil
	}
}

// Configure selects the profile and pins on the firmware
func (s *Station) Configure(ctx context.Context, p core.Profile, txPin, rxPin uint32) error {
	idx, ok := profileIndex(p)
	if !ok {
		return fmt.Errorf("profile %q: %w", p.Name(), core.ErrUnknownProfile)
	}
	if err := s.call(ctx, "ook_config", func(out protocol.OutputBuffer) {
		protocol.PutUVLQ(out, idx)
		protocol.PutUVLQ(out, txPin)
		protocol.PutUVLQ(out, rxPin)
	}); err != nil {
		return err
	}
	s.log.Info().Str("profile", p.Name()).Uint32("tx_pin", txPin).Uint32("rx_pin", rxPin).Msg("radio configured")
	// ook_config has no reply; a clock round trip surfaces any ook_error
	_, err := s.Clock(ctx)
	return err
}

func profileIndex(p core.Profile) (uint32, bool) {
	for i, q := range core.Profiles {
		if q.Name() == p.Name() {
			return uint32(i), true
		}
	}
	return 0, false
}

// Send transmits bits and returns the count the firmware reports
func (s *Station) Send(ctx context.Context, bits []bool) (uint32, error) {
	err := s.call(ctx, "ook_send", func(out protocol.OutputBuffer) {
		protocol.PutBytes(out, core.MessageFromBits(bits).WireBytes())
	})
	if err != nil {
		return 0, err
	}
	return s.expectUint(ctx, "ook_sent")
}

// Trainer emits the trainer alone
func (s *Station) Trainer(ctx context.Context) (uint32, error) {
	if err := s.call(ctx, "ook_trainer", nil); err != nil {
		return 0, err
	}
	return s.expectUint(ctx, "ook_sent")
}

// Receive asks the firmware for one message. With an unbounded-retry
// profile this lasts until a full message arrives or ctx ends.
func (s *Station) Receive(ctx context.Context) (Reception, error) {
	if err := s.call(ctx, "ook_receive", nil); err != nil {
		return Reception{}, err
	}
	p, err := s.expect(ctx, "ook_message")
	if err != nil {
		return Reception{}, err
	}
	symbols, err := protocol.ReadBytes(&p)
	if err != nil {
		return Reception{}, err
	}
	var r Reception
	r.Message = core.MessageFromWire(symbols)
	if r.Invalid, err = protocol.ReadUVLQ(&p); err != nil {
		return Reception{}, err
	}
	if r.Elapsed, err = protocol.ReadUVLQ(&p); err != nil {
		return Reception{}, err
	}
	s.log.Debug().Str("message", r.Message.String()).Uint32("invalid", r.Invalid).Msg("received")
	return r, nil
}

// Clock reads the firmware's microsecond clock
func (s *Station) Clock(ctx context.Context) (uint32, error) {
	if err := s.call(ctx, "get_clock", nil); err != nil {
		return 0, err
	}
	return s.expectUint(ctx, "clock")
}

// Events downloads the firmware's event ring, oldest first
func (s *Station) Events(ctx context.Context) ([]core.Event, error) {
	if err := s.call(ctx, "ook_events", nil); err != nil {
		return nil, err
	}
	var events []core.Event
	for {
		id, p, err := s.next(ctx)
		if err != nil {
			return nil, err
		}
		switch s.dict.Name(id) {
		case "ook_events_end":
			return events, nil
		case "ook_event":
			var v [4]uint32
			for i := range v {
				if v[i], err = protocol.ReadUVLQ(&p); err != nil {
					return nil, err
				}
			}
			events = append(events, core.Event{
				Type:   uint8(v[0]),
				Clock:  v[1],
				Value1: v[2],
				Value2: v[3],
			})
		default:
			s.log.Debug().Uint32("id", id).Msg("skipping response during events")
		}
	}
}

// call encodes and sends one named command
func (s *Station) call(ctx context.Context, name string, args func(out protocol.OutputBuffer)) error {
	if s.link == nil || s.dict == nil {
		return ErrNotConnected
	}
	e, ok := s.dict.Lookup(name)
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrUnknownCommand)
	}
	var out protocol.ScratchOutput
	protocol.PutUVLQ(&out, uint32(e.ID))
	if args != nil {
		args(&out)
	}
	if err := s.send(ctx, out.Result()); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// expect waits for the named response. ook_error ends the wait with a
// RemoteError; other responses are skipped.
func (s *Station) expect(ctx context.Context, name string) ([]byte, error) {
	for {
		id, p, err := s.next(ctx)
		if err != nil {
			return nil, err
		}
		got := s.dict.Name(id)
		if got == name {
			return p, nil
		}
		s.log.Debug().Str("got", got).Str("want", name).Msg("skipping response")
	}
}

func (s *Station) expectUint(ctx context.Context, name string) (uint32, error) {
	p, err := s.expect(ctx, name)
	if err != nil {
		return 0, err
	}
	return protocol.ReadUVLQ(&p)
}

// next returns the id and arguments of the next response, converting
// ook_error into a RemoteError
func (s *Station) next(ctx context.Context) (uint32, []byte, error) {
	p, err := s.receive(ctx)
	if err != nil {
		return 0, nil, err
	}
	id, err := protocol.ReadUVLQ(&p)
	if err != nil {
		return 0, nil, err
	}
	if s.dict.Name(id) == "ook_error" {
		code, err := protocol.ReadUVLQ(&p)
		if err != nil {
			return 0, nil, err
		}
		rerr := &RemoteError{Code: uint8(code)}
		s.log.Warn().Err(rerr).Msg("firmware error")
		return 0, nil, rerr
	}
	return id, p, nil
}

func (s *Station) send(ctx context.Context, payload []byte) error {
	return mapLinkError(s.link.SendCommand(ctx, payload))
}

func (s *Station) receive(ctx context.Context) ([]byte, error) {
	p, err := s.link.ReceiveResponse(ctx)
	return p, mapLinkError(err)
}

func mapLinkError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, protocol.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, protocol.ErrClosed):
		return fmt.Errorf("%w: %w", ErrNotConnected, err)
	default:
		return err
	}
}

func codeText(code uint8) string {
	switch code {
	case core.CodeUnknownCommand:
		return "unknown command"
	case core.CodeBadArguments:
		return "bad arguments"
	case core.CodeUnknownProfile:
		return "unknown profile"
	case core.CodeMessageLength:
		return "wrong message length"
	case core.CodeNotConfigured:
		return "radio not configured"
	case core.CodeBadBitString:
		return "bad bit value"
	default:
		return "unknown"
	}
}
