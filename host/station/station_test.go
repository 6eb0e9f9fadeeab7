package station

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"delphi/core"
	"delphi/protocol"
	"delphi/sim"
)

var testBits = []bool{
	true, false, true, true, false, false, true, false,
	true, true, false, true, false, false, true, true,
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// newSimStation connects a Station to simulated firmware through the real
// framed transport
func newSimStation(t *testing.T) (*Station, *sim.Firmware) {
	t.Helper()
	hostEnd, fwEnd := net.Pipe()
	fw := sim.NewFirmware()
	go fw.Serve(fwEnd)

	st := New(protocol.NewHostTransport(hostEnd, zerolog.Nop()), zerolog.Nop())
	t.Cleanup(func() {
		st.Close()
		fwEnd.Close()
	})
	require.NoError(t, st.Identify(testContext(t)))
	return st, fw
}

// pipePort is a serial.Port over one end of a pipe
type pipePort struct {
	net.Conn
	flushes  int
	flushErr error
}

func (p *pipePort) Flush() error {
	p.flushes++
	return p.flushErr
}

func TestAttachFlushesPort(t *testing.T) {
	hostEnd, fwEnd := net.Pipe()
	fw := sim.NewFirmware()
	go fw.Serve(fwEnd)
	t.Cleanup(func() { fwEnd.Close() })

	port := &pipePort{Conn: hostEnd}
	st, err := Attach(port, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.Equal(t, 1, port.flushes)
	require.NoError(t, st.Identify(testContext(t)))
}

func TestAttachFlushError(t *testing.T) {
	hostEnd, fwEnd := net.Pipe()
	defer fwEnd.Close()
	flushErr := errors.New("device gone")

	_, err := Attach(&pipePort{Conn: hostEnd, flushErr: flushErr}, zerolog.Nop())
	require.ErrorIs(t, err, flushErr)
	_, err = hostEnd.Write([]byte{0})
	require.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestIdentify(t *testing.T) {
	st, fw := newSimStation(t)
	require.Equal(t, fw.Radio.Dictionary().Bytes(), st.RawDictionary())

	dict := st.Dictionary()
	require.Equal(t, "delphi-"+protocol.Version, dict.Constants["VERSION"])
	require.Equal(t, "1000000", dict.Constants["CLOCK_FREQ"])

	e, ok := dict.Lookup("ook_message")
	require.True(t, ok)
	require.Equal(t, "symbols=%*s invalid=%u elapsed=%u", e.Format)
	cmd, ok := fw.Radio.Registry().ByName("ook_message")
	require.True(t, ok)
	require.Equal(t, cmd.ID, e.ID)
}

func TestCommandsNeedIdentify(t *testing.T) {
	hostEnd, fwEnd := net.Pipe()
	defer fwEnd.Close()
	st := New(protocol.NewHostTransport(hostEnd, zerolog.Nop()), zerolog.Nop())
	defer st.Close()

	_, err := st.Send(context.Background(), testBits)
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestSend(t *testing.T) {
	st, fw := newSimStation(t)
	ctx := testContext(t)
	require.NoError(t, st.Configure(ctx, core.RevisionA, 12, 13))

	n, err := st.Send(ctx, testBits)
	require.NoError(t, err)
	require.Equal(t, uint32(16), n)
	require.Len(t, fw.Out.Pulses(), 16)
}

func TestReceiveRevisionA(t *testing.T) {
	st, fw := newSimStation(t)
	ctx := testContext(t)
	require.NoError(t, st.Configure(ctx, core.RevisionA, 12, 13))

	fw.Inject(core.RevisionA, testBits)
	r, err := st.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, core.MessageFromBits(testBits), r.Message)
	require.Zero(t, r.Invalid)
	require.NotZero(t, r.Elapsed)
}

func TestReceiveRevisionBWaitsForData(t *testing.T) {
	st, fw := newSimStation(t)
	ctx := testContext(t)
	require.NoError(t, st.Configure(ctx, core.RevisionB, 12, 13))

	bits := testBits[:8]
	done := make(chan Reception, 1)
	go func() {
		r, err := st.Receive(ctx)
		if err == nil {
			done <- r
		}
		close(done)
	}()

	// Noise first, then the message arrives while the firmware is waiting
	fw.Air.Append(3000, 2000)
	time.Sleep(20 * time.Millisecond)
	fw.Inject(core.RevisionB, bits)

	r, ok := <-done
	require.True(t, ok)
	require.Equal(t, core.MessageFromBits(bits), r.Message)
}

func TestRemoteErrors(t *testing.T) {
	st, _ := newSimStation(t)
	ctx := testContext(t)

	_, err := st.Send(ctx, testBits)
	require.ErrorIs(t, err, ErrRemote)
	var rerr *RemoteError
	require.True(t, errors.As(err, &rerr))
	require.Equal(t, core.CodeNotConfigured, rerr.Code)
	require.Contains(t, err.Error(), "not configured")

	require.NoError(t, st.Configure(ctx, core.RevisionA, 12, 13))
	_, err = st.Send(ctx, testBits[:3])
	require.True(t, errors.As(err, &rerr))
	require.Equal(t, core.CodeMessageLength, rerr.Code)

	// The link stays usable after an error
	_, err = st.Clock(ctx)
	require.NoError(t, err)
}

func TestConfigureRejectsCustomProfile(t *testing.T) {
	st, _ := newSimStation(t)
	p, err := core.NewProfile(core.ProfileConfig{
		Name:            "custom",
		BitPeriod:       2000,
		OneDutyRatio:    0.7,
		ZeroDutyRatio:   0.3,
		Tolerance:       0.1,
		MessageLength:   4,
		Sync:            core.SyncBoundedWindow,
		DeadlinePeriods: 10,
	})
	require.NoError(t, err)
	require.ErrorIs(t, st.Configure(testContext(t), p, 1, 2), core.ErrUnknownProfile)
}

func TestEvents(t *testing.T) {
	core.ClearEvents()
	defer core.ClearEvents()
	st, _ := newSimStation(t)
	ctx := testContext(t)
	require.NoError(t, st.Configure(ctx, core.RevisionA, 12, 13))
	_, err := st.Send(ctx, testBits)
	require.NoError(t, err)

	events, err := st.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, uint8(core.EvtSendStart), events[0].Type)
	require.Equal(t, uint32(16), events[0].Value1)
	require.Equal(t, uint8(core.EvtSendDone), events[1].Type)
}

func TestEventsFullRing(t *testing.T) {
	core.ClearEvents()
	defer core.ClearEvents()
	st, _ := newSimStation(t)

	for i := uint32(0); i < core.EventRingSize+8; i++ {
		core.RecordEvent(core.EvtNoise, 100*i, i, 0)
	}
	events, err := st.Events(testContext(t))
	require.NoError(t, err)
	require.Len(t, events, core.EventRingSize)
	require.Equal(t, uint32(8), events[0].Value1)
	require.Equal(t, uint32(core.EventRingSize+7), events[core.EventRingSize-1].Value1)
}

func TestReceiveTimeout(t *testing.T) {
	st, _ := newSimStation(t)
	require.NoError(t, st.Configure(testContext(t), core.RevisionA, 12, 13))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := st.Receive(ctx)
	require.ErrorIs(t, err, ErrTimeout)
}

func TestParseDictionary(t *testing.T) {
	d, err := ParseDictionary([]byte("#VERSION x\nidentify_response offset=%u data=%*s\nidentify offset=%u count=%c\nget_clock\n"))
	require.NoError(t, err)
	require.Equal(t, "x", d.Constants["VERSION"])
	e, ok := d.Lookup("get_clock")
	require.True(t, ok)
	require.Equal(t, uint16(2), e.ID)
	require.Empty(t, e.Format)
	require.Equal(t, "identify", d.Name(1))
	require.Empty(t, d.Name(9))
	require.Len(t, d.Entries(), 3)

	_, err = ParseDictionary([]byte("get_clock\n"))
	require.ErrorIs(t, err, ErrBadDictionary)
}
