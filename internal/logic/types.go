// Package logic contains the pure control logic of the preset switch.
// This package has NO external dependencies (no GPIO, MIDI, MQTT, OS, or time.Sleep).
// Time is always injected as a wrapping millisecond counter.
package logic

// Timing and window constants. These are fixed at build time.
const (
	DebounceWindow   = 10   // W: counter range is [0, W]
	DebouncePeriodMs = 20   // input sample cadence
	SendIntervalMs   = 200  // minimum spacing between transmissions
	BlinkIntervalA   = 1000 // indicator period while preset A is active
	BlinkIntervalB   = 250  // indicator period while preset B is active
)

// ConnectionState is the transport connection lifecycle state.
type ConnectionState int

const (
	NotConnected ConnectionState = iota
	Connected
	Suspended
)

func (c ConnectionState) String() string {
	switch c {
	case NotConnected:
		return "NOT_CONNECTED"
	case Connected:
		return "CONNECTED"
	case Suspended:
		return "SUSPENDED"
	}
	return "INVALID"
}

// Preset is the debounced selection derived from the input.
type Preset int

const (
	PresetUnknown Preset = iota
	PresetA
	PresetB
)

func (p Preset) String() string {
	switch p {
	case PresetA:
		return "A"
	case PresetB:
		return "B"
	}
	return "UNKNOWN"
}

// SendMode selects when the transmitter emits a message.
type SendMode int

const (
	// ChangeTriggered sends once per pending change.
	ChangeTriggered SendMode = iota
	// Unconditional sends the current preset on every eligible tick.
	Unconditional
)

func (m SendMode) String() string {
	if m == Unconditional {
		return "always"
	}
	return "change"
}

// ConnEvent is a discrete connection lifecycle event delivered by the transport.
type ConnEvent struct {
	Kind ConnEventKind
	// RemoteWake reports whether the host allows remote wakeup (Suspend only).
	RemoteWake bool
}

// ConnEventKind enumerates lifecycle events.
type ConnEventKind int

const (
	EvConnected ConnEventKind = iota + 1
	EvDisconnected
	EvSuspended
	EvResumed
)

func (k ConnEventKind) String() string {
	switch k {
	case EvConnected:
		return "CONNECTED"
	case EvDisconnected:
		return "DISCONNECTED"
	case EvSuspended:
		return "SUSPENDED"
	case EvResumed:
		return "RESUMED"
	}
	return "INVALID"
}

// State is the context shared by all tasks. Each field has a single writer:
// Conn is written by Apply, Preset by the Debouncer, and ChangePending is
// cleared only by the Transmitter.
type State struct {
	Conn          ConnectionState
	Preset        Preset
	ChangePending bool
}

// Apply updates the connection state for a lifecycle event. Connected and
// Resumed mark a pending change so the current preset is re-announced.
func (s *State) Apply(ev ConnEvent) {
	switch ev.Kind {
	case EvConnected, EvResumed:
		s.Conn = Connected
		s.ChangePending = true
	case EvDisconnected:
		s.Conn = NotConnected
	case EvSuspended:
		s.Conn = Suspended
	}
}

// EventType is a reportable transition produced by the controller.
type EventType string

const (
	EventConnected    EventType = "CONNECTED"
	EventDisconnected EventType = "DISCONNECTED"
	EventSuspended    EventType = "SUSPENDED"
	EventResumed      EventType = "RESUMED"
	EventPresetA      EventType = "PRESET_A"
	EventPresetB      EventType = "PRESET_B"
	EventSent         EventType = "PROGRAM_CHANGE"
	EventSendFailed   EventType = "SEND_FAILED"
)

// Event is a transition to be logged and published.
type Event struct {
	Millis  uint32
	Type    EventType
	Conn    ConnectionState
	Preset  Preset
	Payload []byte // set for EventSent and EventSendFailed
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	PresetA     int
	PresetB     int
	Sent        int
	SendFailed  int
	Connects    int
	Disconnects int
	Suspends    int
	Drained     int
}

// Add counts e.
func (c *EventCounts) Add(e Event) {
	switch e.Type {
	case EventPresetA:
		c.PresetA++
	case EventPresetB:
		c.PresetB++
	case EventSent:
		c.Sent++
	case EventSendFailed:
		c.SendFailed++
	case EventConnected, EventResumed:
		c.Connects++
	case EventDisconnected:
		c.Disconnects++
	case EventSuspended:
		c.Suspends++
	}
}
