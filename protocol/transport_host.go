//go:build !tinygo

package protocol

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ResponseQueue is how many responses the reader holds before it stops
// reading and waits for ReceiveResponse
const ResponseQueue = 64

// HostTransport is the host end of the link. A background reader splits
// incoming frames into acknowledgements and responses.
type HostTransport struct {
	port io.ReadWriteCloser
	log  zerolog.Logger

	seq     uint8
	cmdMu   sync.Mutex
	writeMu sync.Mutex

	in        *FifoBuffer
	acks      chan uint8
	responses chan []byte

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewHostTransport starts reading from port immediately
func NewHostTransport(port io.ReadWriteCloser, log zerolog.Logger) *HostTransport {
	h := &HostTransport{
		port:      port,
		log:       log.With().Str("component", "link").Logger(),
		seq:       SeqDest,
		in:        NewFifoBuffer(4 * FrameMax),
		acks:      make(chan uint8, 1),
		responses: make(chan []byte, ResponseQueue),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go h.readLoop()
	return h
}

// SendCommand transmits one command payload and waits for its
// acknowledgement, retransmitting once per retry interval.
func (h *HostTransport) SendCommand(ctx context.Context, payload []byte) error {
	h.cmdMu.Lock()
	defer h.cmdMu.Unlock()
	select {
	case <-h.done:
		return ErrClosed
	default:
	}

	// Drop a stale ack left from a previous timeout
	select {
	case <-h.acks:
	default:
	}

	retry := time.NewTicker(250 * time.Millisecond)
	defer retry.Stop()
	resynced := false
	for {
		var frame ScratchOutput
		if err := EncodeFrame(&frame, h.seq, payload); err != nil {
			return err
		}
		want := NextSeq(h.seq)
		if err := h.write(frame.Result()); err != nil {
			return err
		}
		acked, peer, err := h.waitAck(ctx, want, retry.C)
		if errors.Is(err, ErrSequence) && !resynced {
			// Firmware restarted or lost track; send again with the
			// sequence it expects
			h.log.Warn().Uint8("seq", h.seq).Uint8("peer", peer).Msg("sequence resync")
			h.seq = peer
			resynced = true
			continue
		}
		if err != nil {
			return err
		}
		if acked {
			h.seq = want
			return nil
		}
		h.log.Debug().Uint8("seq", h.seq).Msg("retransmit")
	}
}

// waitAck waits for want, the ack of the frame just sent. A repeated ack of
// the previous frame is ignored; any other sequence returns ErrSequence with
// the sequence the firmware expects next.
func (h *HostTransport) waitAck(ctx context.Context, want uint8, retry <-chan time.Time) (bool, uint8, error) {
	for {
		select {
		case seq := <-h.acks:
			switch seq {
			case want:
				return true, seq, nil
			case h.seq:
				h.log.Debug().Uint8("seq", seq).Msg("stale ack")
				continue
			}
			return false, seq, ErrSequence
		case <-retry:
			return false, 0, nil
		case <-ctx.Done():
			return false, 0, errors.Join(ErrTimeout, ctx.Err())
		case <-h.done:
			return false, 0, ErrClosed
		}
	}
}

// ReceiveResponse returns the next response payload
func (h *HostTransport) ReceiveResponse(ctx context.Context) ([]byte, error) {
	select {
	case p := <-h.responses:
		return p, nil
	case <-ctx.Done():
		return nil, errors.Join(ErrTimeout, ctx.Err())
	case <-h.done:
		// Drain what arrived before the reader stopped
		select {
		case p := <-h.responses:
			return p, nil
		default:
		}
		return nil, ErrClosed
	}
}

// Close stops the reader and closes the port
func (h *HostTransport) Close() error {
	var err error
	h.closeOnce.Do(func() {
		close(h.stop)
		err = h.port.Close()
		<-h.done
	})
	return err
}

func (h *HostTransport) write(b []byte) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	_, err := h.port.Write(b)
	return err
}

func (h *HostTransport) readLoop() {
	defer close(h.done)
	buf := make([]byte, 256)
	for {
		n, err := h.port.Read(buf)
		if n > 0 {
			h.feed(buf[:n])
		}
		if err == nil {
			continue
		}
		select {
		case <-h.stop:
			return
		default:
		}
		if errors.Is(err, io.EOF) {
			// Serial read timeouts surface as EOF
			time.Sleep(time.Millisecond)
			continue
		}
		h.log.Error().Err(err).Msg("read failed")
		return
	}
}

func (h *HostTransport) feed(data []byte) {
	for len(data) > 0 {
		w := h.in.Write(data)
		data = data[w:]
		if !h.drain() {
			return
		}
		if w == 0 && len(data) > 0 {
			// Buffer full of garbage that never formed a frame
			h.log.Warn().Int("bytes", len(h.in.Data())).Msg("input overflow")
			h.in.Reset()
		}
	}
}

// drain delivers every complete frame in the input buffer. It returns false
// when the transport is closed while waiting for room in the response queue.
func (h *HostTransport) drain() bool {
	for {
		frame, res, n := Scan(h.in.Data())
		switch res {
		case ScanNeedMore:
			return true
		case ScanSkip:
			h.log.Debug().Int("bytes", n).Msg("resync")
			h.in.Pop(n)
			continue
		}
		if frame.IsAck() {
			select {
			case h.acks <- frame.Seq:
			default:
				// Keep the newest ack
				select {
				case <-h.acks:
				default:
				}
				h.acks <- frame.Seq
			}
		} else {
			p := append([]byte(nil), frame.Payload...)
			select {
			case h.responses <- p:
			case <-h.stop:
				return false
			}
		}
		h.in.Pop(n)
	}
}
