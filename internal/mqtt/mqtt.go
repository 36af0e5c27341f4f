// Package mqtt publishes preset-switch telemetry, with an abstraction for
// testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/preset-switch/internal/logic"
	"github.com/sweeney/preset-switch/internal/midi"
)

// Topic is the MQTT topic for preset and connection events.
const Topic = "studio/preset-switch/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "studio/preset-switch/system"

// Publisher publishes events to MQTT. Implementations must not block the
// caller on the network.
type Publisher interface {
	// Publish sends a controller event observed at the given wall time.
	// Returns error if publishing fails (should not crash the process).
	Publish(at time.Time, event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	PresetSwitch EventPayload `json:"preset_switch"`
}

// EventPayload contains the event details.
type EventPayload struct {
	Timestamp  string `json:"timestamp"`
	Millis     uint32 `json:"millis"`
	Event      string `json:"event"`
	Connection string `json:"connection"`
	Preset     string `json:"preset"`
	Message    string `json:"message,omitempty"`
	Bytes      string `json:"bytes,omitempty"`
}

// FormatPayload creates the JSON payload for a controller event.
func FormatPayload(at time.Time, event logic.Event) ([]byte, error) {
	p := EventPayload{
		Timestamp:  at.UTC().Format(time.RFC3339),
		Millis:     event.Millis,
		Event:      string(event.Type),
		Connection: event.Conn.String(),
		Preset:     event.Preset.String(),
	}
	if len(event.Payload) > 0 {
		p.Message = midi.Describe(event.Payload)
		p.Bytes = fmt.Sprintf("% X", event.Payload)
	}
	return json.Marshal(Payload{PresetSwitch: p})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// NopPublisher discards everything. Used when no broker is configured.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(time.Time, logic.Event) error { return nil }

// PublishSystem does nothing.
func (NopPublisher) PublishSystem(SystemEvent) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }

// IsConnected always reports false.
func (NopPublisher) IsConnected() bool { return false }
