// Package midi provides the MIDI output transports for the preset switch.
// Transports report connection lifecycle events, discard inbound traffic and
// write Program Change messages. Nothing in this package blocks the caller.
package midi

import (
	"strings"

	"gitlab.com/gomidi/midi/v2"

	"github.com/sweeney/preset-switch/internal/logic"
)

// Cable is the jack index messages are written to. Always the first.
const Cable = 0

// Channel is the MIDI channel Program Change messages are sent on (0-based).
const Channel = 0

// Transport is a MIDI message stream with a connection lifecycle.
type Transport interface {
	// Service pumps the transport and returns lifecycle events observed
	// since the last call, in order. Must not block.
	Service() []logic.ConnEvent

	// Drain discards all available inbound packets and returns how many
	// were dropped. Must not block.
	Drain() int

	// Send writes payload to the given cable. Fire-and-forget: an error means
	// the transport did not accept the bytes.
	Send(cable uint8, payload []byte) error

	// Name describes the transport for logs and status.
	Name() string

	// Close releases the underlying port.
	Close() error
}

// Payloads returns the Program Change messages for both presets:
// program 0 for preset A, program 1 for preset B.
func Payloads() logic.Payloads {
	return logic.Payloads{
		A: []byte(midi.ProgramChange(Channel, 0)),
		B: []byte(midi.ProgramChange(Channel, 1)),
	}
}

// Describe renders raw MIDI bytes for logging.
func Describe(b []byte) string {
	return midi.Message(b).String()
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
