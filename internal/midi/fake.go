package midi

import "github.com/sweeney/preset-switch/internal/logic"

// Sent is a recorded Send call.
type Sent struct {
	Cable   uint8
	Payload []byte
}

// FakeTransport is a test double with scripted lifecycle events.
type FakeTransport struct {
	// Events are returned by Service, one queued batch per call.
	Events [][]logic.ConnEvent

	// Inbound is the number of packets the next Drain discards.
	Inbound int

	// Sent records every accepted Send.
	Sent []Sent

	// SendError, if set, will be returned by Send.
	SendError error

	// ServiceCalls and DrainCalls count invocations.
	ServiceCalls int
	DrainCalls   int

	// Calls records the order of Service, Drain and Send calls.
	Calls []string

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeTransport creates a FakeTransport.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

// Queue schedules events for a future Service call.
func (f *FakeTransport) Queue(events ...logic.ConnEvent) {
	f.Events = append(f.Events, events)
}

// Service returns the next queued batch, if any.
func (f *FakeTransport) Service() []logic.ConnEvent {
	f.ServiceCalls++
	f.Calls = append(f.Calls, "service")
	if len(f.Events) == 0 {
		return nil
	}
	batch := f.Events[0]
	f.Events = f.Events[1:]
	return batch
}

// Drain discards the scripted inbound packets.
func (f *FakeTransport) Drain() int {
	f.DrainCalls++
	f.Calls = append(f.Calls, "drain")
	n := f.Inbound
	f.Inbound = 0
	return n
}

// Send records the payload.
func (f *FakeTransport) Send(cable uint8, payload []byte) error {
	f.Calls = append(f.Calls, "send")
	if f.SendError != nil {
		return f.SendError
	}
	f.Sent = append(f.Sent, Sent{Cable: cable, Payload: append([]byte(nil), payload...)})
	return nil
}

// Name describes the transport.
func (f *FakeTransport) Name() string {
	return "fake"
}

// Close marks the transport as closed.
func (f *FakeTransport) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded calls.
func (f *FakeTransport) Reset() {
	f.Sent = nil
	f.Calls = nil
	f.ServiceCalls = 0
	f.DrainCalls = 0
	f.SendError = nil
}
