// Package publish forwards received radio messages to an MQTT broker.
package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/denisbrodbeck/machineid"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"delphi/host/config"
	"delphi/host/logging"
	"delphi/host/station"
)

const (
	appID          = "delphi"
	publishTimeout = 5 * time.Second
)

var ErrPublishTimeout = errors.New("mqtt publish not acknowledged in time")

// Record is the JSON document published per received message
type Record struct {
	Station   string    `json:"station"`
	Profile   string    `json:"profile"`
	Symbols   string    `json:"symbols"` // '0', '1', '?' per position
	Complete  bool      `json:"complete"`
	Invalid   uint32    `json:"invalid"`
	ElapsedUS uint32    `json:"elapsed_us"`
	Time      time.Time `json:"time"`
}

// NewRecord builds the document for one reception
func NewRecord(stationID, profile string, r station.Reception, now time.Time) Record {
	return Record{
		Station:   stationID,
		Profile:   profile,
		Symbols:   r.Message.String(),
		Complete:  r.Message.Complete(),
		Invalid:   r.Invalid,
		ElapsedUS: r.Elapsed,
		Time:      now.UTC(),
	}
}

// client is the part of paho.Client used here
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Publisher sends records to one topic
type Publisher struct {
	client client
	topic  string
	id     string
	log    zerolog.Logger
}

// ClientID returns configured when set, otherwise an id derived from the
// machine id so restarts reuse the same broker session
func ClientID(configured string) string {
	if configured != "" {
		return configured
	}
	id, err := machineid.ProtectedID(appID)
	if err != nil || len(id) < 12 {
		return appID + "-host"
	}
	return appID + "-" + id[:12]
}

// Connect dials the broker in cfg
func Connect(cfg config.MQTTConfig, log zerolog.Logger) (*Publisher, error) {
	id := ClientID(cfg.ClientID)
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(id).
		SetAutoReconnect(true).
		SetConnectTimeout(publishTimeout)
	c := paho.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(publishTimeout) {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, err)
	}
	p := newPublisher(c, cfg.Topic, id, log)
	p.log.Info().Str("broker", cfg.Broker).Str("topic", cfg.Topic).Msg("mqtt connected")
	return p, nil
}

func newPublisher(c client, topic, id string, log zerolog.Logger) *Publisher {
	return &Publisher{
		client: c,
		topic:  topic,
		id:     id,
		log:    logging.Component(log, "publish"),
	}
}

// ID returns the MQTT client id, also used as the station name in records
func (p *Publisher) ID() string { return p.id }

// Publish sends rec with QoS 1 and waits for the broker
func (p *Publisher) Publish(rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	token := p.client.Publish(p.topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return ErrPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", p.topic, err)
	}
	p.log.Debug().Str("symbols", rec.Symbols).Msg("published")
	return nil
}

// Close disconnects after in-flight messages settle
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
