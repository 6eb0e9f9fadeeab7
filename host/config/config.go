// Package config loads the host tool's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"delphi/core"
	"delphi/host/serial"
)

// Environment overrides applied after the file
const (
	EnvLogLevel = "DELPHI_LOG_LEVEL"
	EnvDevice   = "DELPHI_DEVICE"
)

var ErrBadPin = errors.New("tx_pin and rx_pin must differ")

// Config is the resolved host configuration
type Config struct {
	Serial   serial.Config
	Profile  string
	TxPin    uint32
	RxPin    uint32
	LogLevel string
	MQTT     MQTTConfig
}

// MQTTConfig enables publishing received messages when Broker is set
type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
}

// Default returns the settings used for keys the file leaves out
func Default() Config {
	return Config{
		Serial:   serial.DefaultConfig("/dev/ttyACM0"),
		Profile:  core.RevisionA.Name(),
		TxPin:    12,
		RxPin:    13,
		LogLevel: "info",
		MQTT: MQTTConfig{
			Topic: "delphi/messages",
		},
	}
}

type fileConfig struct {
	Device      string   `toml:"device"`
	Baud        int      `toml:"baud"`
	ReadTimeout string   `toml:"read_timeout"`
	Profile     string   `toml:"profile"`
	TxPin       uint32   `toml:"tx_pin"`
	RxPin       uint32   `toml:"rx_pin"`
	LogLevel    string   `toml:"log_level"`
	MQTT        fileMQTT `toml:"mqtt"`
}

type fileMQTT struct {
	Broker   string `toml:"broker"`
	Topic    string `toml:"topic"`
	ClientID string `toml:"client_id"`
}

// Load reads path on top of Default. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.apply(meta, raw); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes TOML text on top of Default
func Parse(text string) (Config, error) {
	cfg := Default()
	var raw fileConfig
	meta, err := toml.Decode(text, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.apply(meta, raw); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) apply(meta toml.MetaData, raw fileConfig) error {
	if meta.IsDefined("device") {
		c.Serial.Device = strings.TrimSpace(raw.Device)
	}
	if meta.IsDefined("baud") {
		c.Serial.Baud = raw.Baud
	}
	if meta.IsDefined("read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadTimeout))
		if err != nil {
			return fmt.Errorf("parse read_timeout: %w", err)
		}
		c.Serial.ReadTimeout = d
	}
	if meta.IsDefined("profile") {
		c.Profile = strings.ToLower(strings.TrimSpace(raw.Profile))
	}
	if meta.IsDefined("tx_pin") {
		c.TxPin = raw.TxPin
	}
	if meta.IsDefined("rx_pin") {
		c.RxPin = raw.RxPin
	}
	if meta.IsDefined("log_level") {
		c.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("mqtt", "broker") {
		c.MQTT.Broker = strings.TrimSpace(raw.MQTT.Broker)
	}
	if meta.IsDefined("mqtt", "topic") {
		c.MQTT.Topic = strings.TrimSpace(raw.MQTT.Topic)
	}
	if meta.IsDefined("mqtt", "client_id") {
		c.MQTT.ClientID = strings.TrimSpace(raw.MQTT.ClientID)
	}
	return nil
}

// ApplyEnv overrides settings from the environment. getenv is os.Getenv
// outside tests.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(getenv(EnvDevice)); v != "" {
		c.Serial.Device = v
	}
}

// Validate checks the profile name and pin assignment
func (c Config) Validate() error {
	if _, err := core.ProfileByName(c.Profile); err != nil {
		return fmt.Errorf("profile %q: %w", c.Profile, err)
	}
	if c.TxPin == c.RxPin {
		return ErrBadPin
	}
	return nil
}

// RadioProfile returns the configured revision
func (c Config) RadioProfile() core.Profile {
	p, err := core.ProfileByName(c.Profile)
	if err != nil {
		return core.RevisionA
	}
	return p
}
