// Package status keeps the latest view of the preset-switch loop for readers
// on other goroutines: the HTTP server and the MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/preset-switch/internal/logic"
)

// Source is what the loop exposes after each step. controller.Controller
// implements it.
type Source interface {
	State() logic.State
	LED() bool
	Counts() logic.EventCounts
	TransportName() string
}

// Reading is the loop state captured after one step.
type Reading struct {
	State     logic.State
	LED       bool
	Counts    logic.EventCounts
	Transport string
}

// ReadingOf captures src.
func ReadingOf(src Source) Reading {
	return Reading{
		State:     src.State(),
		LED:       src.LED(),
		Counts:    src.Counts(),
		Transport: src.TransportName(),
	}
}

// NetworkInfo is the host network state read from the environment.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config is the daemon configuration shown on the status page.
type Config struct {
	Mode        string
	Transport   string
	Broker      string
	HTTPAddr    string
	HeartbeatMs int64
}

// Snapshot is a copy of the tracker taken under its lock.
type Snapshot struct {
	Reading

	// ConnSince and PresetSince are when the connection state and the
	// preset last changed. Both start at the tracker's start time.
	ConnSince   time.Time
	PresetSince time.Time

	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the time since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds the latest Snapshot.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker for a daemon started at start.
func NewTracker(start time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			ConnSince:   start,
			PresetSince: start,
			StartTime:   start,
			Config:      cfg,
		},
	}
}

// Observe records r as the state at time at.
func (t *Tracker) Observe(r Reading, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if r.State.Conn != t.snap.State.Conn {
		t.snap.ConnSince = at
	}
	if r.State.Preset != t.snap.State.Preset {
		t.snap.PresetSince = at
	}
	t.snap.Reading = r
}

// SetMQTTConnected records broker connectivity.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork records the host network state.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a copy of the tracked state with Now set to the current
// time.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
