package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/preset-switch/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Connection    string       `json:"connection"`
	Preset        string       `json:"preset"`
	ConnSince     string       `json:"connection_since"`
	PresetSince   string       `json:"preset_since"`
	ChangePending bool         `json:"change_pending"`
	LED           bool         `json:"led"`
	Transport     string       `json:"transport"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	PresetA     int `json:"preset_a"`
	PresetB     int `json:"preset_b"`
	Sent        int `json:"sent"`
	SendFailed  int `json:"send_failed"`
	Connects    int `json:"connects"`
	Disconnects int `json:"disconnects"`
	Suspends    int `json:"suspends"`
	Drained     int `json:"drained"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config. The timing
// constants are fixed and reported for reference.
type ConfigJSON struct {
	Mode             string `json:"mode"`
	Transport        string `json:"transport"`
	Broker           string `json:"broker"`
	HTTPAddr         string `json:"http_addr"`
	HeartbeatMs      int64  `json:"heartbeat_ms"`
	DebounceWindow   int    `json:"debounce_window"`
	DebouncePeriodMs int    `json:"debounce_period_ms"`
	SendIntervalMs   int    `json:"send_interval_ms"`
}

func buildInner(snap Snapshot) StatusInner {
	c := snap.Counts
	return StatusInner{
		Connection:    snap.State.Conn.String(),
		Preset:        snap.State.Preset.String(),
		ConnSince:     snap.ConnSince.UTC().Format(time.RFC3339),
		PresetSince:   snap.PresetSince.UTC().Format(time.RFC3339),
		ChangePending: snap.State.ChangePending,
		LED:           snap.LED,
		Transport:     snap.Transport,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			PresetA:     c.PresetA,
			PresetB:     c.PresetB,
			Sent:        c.Sent,
			SendFailed:  c.SendFailed,
			Connects:    c.Connects,
			Disconnects: c.Disconnects,
			Suspends:    c.Suspends,
			Drained:     c.Drained,
		},
		Config: ConfigJSON{
			Mode:             snap.Config.Mode,
			Transport:        snap.Config.Transport,
			Broker:           snap.Config.Broker,
			HTTPAddr:         snap.Config.HTTPAddr,
			HeartbeatMs:      snap.Config.HeartbeatMs,
			DebounceWindow:   logic.DebounceWindow,
			DebouncePeriodMs: logic.DebouncePeriodMs,
			SendIntervalMs:   logic.SendIntervalMs,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
