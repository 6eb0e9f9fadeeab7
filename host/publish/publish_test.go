package publish

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"delphi/core"
	"delphi/host/station"
)

type fakeToken struct {
	done bool
	err  error
}

func (t *fakeToken) Wait() bool                     { return t.done }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type fakeClient struct {
	topic        string
	qos          byte
	payload      []byte
	token        *fakeToken
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.topic = topic
	c.qos = qos
	c.payload = payload.([]byte)
	return c.token
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestPublishRecord(t *testing.T) {
	fc := &fakeClient{token: &fakeToken{done: true}}
	p := newPublisher(fc, "delphi/messages", "delphi-test", zerolog.Nop())

	msg := core.MessageFromBits([]bool{true, false, true, true})
	msg[1] = core.Invalid
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := NewRecord(p.ID(), "a", station.Reception{Message: msg, Invalid: 1, Elapsed: 3100}, now)
	require.NoError(t, p.Publish(rec))

	require.Equal(t, "delphi/messages", fc.topic)
	require.Equal(t, byte(1), fc.qos)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(fc.payload, &got))
	require.Equal(t, "delphi-test", got["station"])
	require.Equal(t, "1?11", got["symbols"])
	require.Equal(t, false, got["complete"])
	require.Equal(t, float64(3100), got["elapsed_us"])
	require.Equal(t, "2026-03-01T12:00:00Z", got["time"])

	p.Close()
	require.True(t, fc.disconnected)
}

func TestPublishErrors(t *testing.T) {
	fc := &fakeClient{token: &fakeToken{done: false}}
	p := newPublisher(fc, "t", "id", zerolog.Nop())
	require.ErrorIs(t, p.Publish(Record{}), ErrPublishTimeout)

	boom := errors.New("not authorized")
	fc.token = &fakeToken{done: true, err: boom}
	require.ErrorIs(t, p.Publish(Record{}), boom)
}

func TestClientID(t *testing.T) {
	require.Equal(t, "bench-1", ClientID("bench-1"))
	id := ClientID("")
	require.Contains(t, id, "delphi-")
	require.Equal(t, id, ClientID(""), "derived id is stable")
}
