package mqtt

import (
	"time"

	"github.com/sweeney/preset-switch/internal/logic"
)

// Record is one message accepted by FakePublisher. Exactly one of Event or
// System is meaningful, depending on Topic.
type Record struct {
	Topic   string
	At      time.Time
	Event   logic.Event
	System  SystemEvent
	Payload []byte
}

// FakePublisher keeps every publish in arrival order across both topics, so
// tests can check interleaving of controller and system events.
type FakePublisher struct {
	Records []Record

	// PublishError fails Publish; PublishSystemError fails PublishSystem.
	// Failed publishes are not recorded.
	PublishError       error
	PublishSystemError error

	// Connected is returned by IsConnected.
	Connected bool
	Closed    bool
}

// NewFakePublisher creates an empty FakePublisher.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish formats and records a controller event.
func (f *FakePublisher) Publish(at time.Time, event logic.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(at, event)
	if err != nil {
		return err
	}
	f.Records = append(f.Records, Record{Topic: Topic, At: at, Event: event, Payload: payload})
	return nil
}

// PublishSystem formats and records a system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.Records = append(f.Records, Record{Topic: TopicSystem, At: event.Timestamp, System: event, Payload: payload})
	return nil
}

// Events returns the controller events published so far.
func (f *FakePublisher) Events() []logic.Event {
	var out []logic.Event
	for _, r := range f.Records {
		if r.Topic == Topic {
			out = append(out, r.Event)
		}
	}
	return out
}

// Types returns the type of each published controller event, in order.
func (f *FakePublisher) Types() []logic.EventType {
	var out []logic.EventType
	for _, e := range f.Events() {
		out = append(out, e.Type)
	}
	return out
}

// SystemEvents returns the system events published so far.
func (f *FakePublisher) SystemEvents() []SystemEvent {
	var out []SystemEvent
	for _, r := range f.Records {
		if r.Topic == TopicSystem {
			out = append(out, r.System)
		}
	}
	return out
}

// Payloads returns the JSON payloads published on topic.
func (f *FakePublisher) Payloads(topic string) [][]byte {
	var out [][]byte
	for _, r := range f.Records {
		if r.Topic == topic {
			out = append(out, r.Payload)
		}
	}
	return out
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected returns Connected.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}
