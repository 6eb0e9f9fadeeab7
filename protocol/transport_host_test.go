//go:build !tinygo

package protocol

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type connOutput struct{ c net.Conn }

func (o connOutput) Output(b []byte) { o.c.Write(b) }

// fakeFirmware runs the firmware Transport on one end of a pipe. Handled
// payloads are echoed back reversed. The first drop reads are discarded.
func fakeFirmware(t *testing.T, drop int32) (*HostTransport, *atomic.Int32) {
	t.Helper()
	hostEnd, fwEnd := net.Pipe()
	var handled atomic.Int32

	var tr *Transport
	tr = NewTransport(connOutput{fwEnd}, func(p []byte) {
		handled.Add(1)
		r := make([]byte, len(p))
		for i := range p {
			r[len(p)-1-i] = p[i]
		}
		tr.SendResponse(r)
	})
	go func() {
		in := NewFifoBuffer(256)
		buf := make([]byte, 256)
		for {
			n, err := fwEnd.Read(buf)
			if err != nil {
				return
			}
			if drop > 0 {
				drop--
				continue
			}
			in.Write(buf[:n])
			tr.Receive(in)
		}
	}()

	h := NewHostTransport(hostEnd, zerolog.Nop())
	t.Cleanup(func() {
		h.Close()
		fwEnd.Close()
	})
	return h, &handled
}

func TestHostTransportCommandResponse(t *testing.T) {
	h, handled := fakeFirmware(t, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, h.SendCommand(ctx, []byte{1, 2, 3}))
	resp, err := h.ReceiveResponse(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte{3, 2, 1}, resp)

	require.NoError(t, h.SendCommand(ctx, []byte{9}))
	resp, err = h.ReceiveResponse(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte{9}, resp)
	require.Equal(t, int32(2), handled.Load())
}

func TestHostTransportRetransmitsLostFrame(t *testing.T) {
	h, handled := fakeFirmware(t, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, h.SendCommand(ctx, []byte{7}))
	resp, err := h.ReceiveResponse(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte{7}, resp)
	require.Equal(t, int32(1), handled.Load())
}

func TestHostTransportTimeout(t *testing.T) {
	h, _ := fakeFirmware(t, 1000)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := h.SendCommand(ctx, []byte{1})
	require.ErrorIs(t, err, ErrTimeout)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHostTransportClosed(t *testing.T) {
	h, _ := fakeFirmware(t, 0)
	require.NoError(t, h.Close())
	_, err := h.ReceiveResponse(context.Background())
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, h.SendCommand(context.Background(), []byte{1}), ErrClosed)
}

// rawFirmware hands the firmware end of a pipe to serve and returns the
// host transport on the other end
func rawFirmware(t *testing.T, serve func(fw net.Conn)) *HostTransport {
	t.Helper()
	hostEnd, fwEnd := net.Pipe()
	go serve(fwEnd)
	h := NewHostTransport(hostEnd, zerolog.Nop())
	t.Cleanup(func() {
		h.Close()
		fwEnd.Close()
	})
	return h
}

func TestHostTransportResponseBurst(t *testing.T) {
	const count = ResponseQueue + 16

	var burst ScratchOutput
	for i := 0; i < count; i++ {
		require.NoError(t, EncodeFrame(&burst, SeqDest, []byte{byte(i)}))
	}
	require.False(t, burst.Overflowed())

	h := rawFirmware(t, func(fw net.Conn) {
		// One write, as a single serial read would deliver it
		fw.Write(burst.Result())
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := 0; i < count; i++ {
		resp, err := h.ReceiveResponse(ctx)
		require.NoError(t, err, "response %d", i)
		require.Equal(t, []byte{byte(i)}, resp)
	}
}

func TestHostTransportResyncsSequence(t *testing.T) {
	h, handled := fakeFirmware(t, 0)
	// Host believes three commands went through; firmware just restarted
	h.seq = SeqDest | 3

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.SendCommand(ctx, []byte{4, 5}))
	resp, err := h.ReceiveResponse(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte{5, 4}, resp)
	require.Equal(t, int32(1), handled.Load())
	require.Equal(t, NextSeq(SeqDest), h.seq)
}

func TestHostTransportSequenceMismatch(t *testing.T) {
	h := rawFirmware(t, func(fw net.Conn) {
		buf := make([]byte, FrameMax)
		seq := uint8(SeqDest | 0x0A)
		for {
			if _, err := fw.Read(buf); err != nil {
				return
			}
			var ack ScratchOutput
			EncodeFrame(&ack, seq, nil)
			if _, err := fw.Write(ack.Result()); err != nil {
				return
			}
			seq = NextSeq(NextSeq(seq))
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.ErrorIs(t, h.SendCommand(ctx, []byte{1}), ErrSequence)
}
