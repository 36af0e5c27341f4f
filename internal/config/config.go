// Package config loads the daemon configuration from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sweeney/preset-switch/internal/logic"
	"github.com/sweeney/preset-switch/internal/midi"
)

// DefaultPath is where the daemon looks for its configuration.
const DefaultPath = "/etc/preset-switch.toml"

// Transport names.
const (
	TransportRtmidi = "rtmidi"
	TransportSerial = "serial"
)

// Config is the full daemon configuration.
type Config struct {
	MIDI MIDI `toml:"midi"`
	MQTT MQTT `toml:"mqtt"`
	HTTP HTTP `toml:"http"`
}

// MIDI selects the output transport and send mode.
type MIDI struct {
	Transport string `toml:"transport"`
	Port      string `toml:"port"`
	Device    string `toml:"device"`
	Baud      int    `toml:"baud"`
	Mode      string `toml:"mode"`
}

// MQTT configures telemetry. An empty Broker disables it.
type MQTT struct {
	Broker    string   `toml:"broker"`
	ClientID  string   `toml:"client_id"`
	Heartbeat Duration `toml:"heartbeat"`
}

// HTTP configures the status server. An empty Addr disables it.
type HTTP struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a string like "15m".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		MIDI: MIDI{
			Transport: TransportRtmidi,
			Port:      "Preset",
			Device:    "/dev/ttyAMA0",
			Baud:      midi.DefaultBaud,
			Mode:      logic.ChangeTriggered.String(),
		},
		MQTT: MQTT{
			ClientID:  "preset-switch",
			Heartbeat: Duration{15 * time.Minute},
		},
		HTTP: HTTP{
			Addr: ":8080",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	c := Default()
	if _, err := toml.DecodeFile(path, &c); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a configuration document over the defaults.
func Parse(data string) (Config, error) {
	c := Default()
	if _, err := toml.Decode(data, &c); err != nil {
		return c, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks values the loop depends on.
func (c Config) Validate() error {
	switch c.MIDI.Transport {
	case TransportRtmidi:
	case TransportSerial:
		if c.MIDI.Device == "" {
			return errors.New("midi.device is required for the serial transport")
		}
		if c.MIDI.Baud <= 0 {
			return fmt.Errorf("invalid midi.baud %d", c.MIDI.Baud)
		}
	default:
		return fmt.Errorf("unknown midi.transport %q", c.MIDI.Transport)
	}
	if _, err := ParseMode(c.MIDI.Mode); err != nil {
		return err
	}
	if c.MQTT.Heartbeat.Duration < 0 {
		return fmt.Errorf("invalid mqtt.heartbeat %s", c.MQTT.Heartbeat)
	}
	return nil
}

// SendMode returns the configured send mode.
func (c Config) SendMode() logic.SendMode {
	m, _ := ParseMode(c.MIDI.Mode)
	return m
}

// ParseMode maps "change" and "always" to a send mode.
func ParseMode(s string) (logic.SendMode, error) {
	switch s {
	case logic.ChangeTriggered.String():
		return logic.ChangeTriggered, nil
	case logic.Unconditional.String():
		return logic.Unconditional, nil
	}
	return logic.ChangeTriggered, fmt.Errorf("unknown midi.mode %q", s)
}
