package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/preset-switch/internal/logic"
	"github.com/sweeney/preset-switch/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		switch {
		case days > 0:
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		case h > 0:
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		case m > 0:
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"connClass": func(c logic.ConnectionState) string {
		switch c {
		case logic.Connected:
			return "connected"
		case logic.Suspended:
			return "unknown"
		}
		return "disconnected"
	},
	"presetClass": func(p logic.Preset) string {
		if p == logic.PresetUnknown {
			return "unknown"
		}
		return "on"
	},
	"blink": func(s logic.State) string {
		iv := logic.BlinkInterval(s.Conn, s.Preset)
		if !iv.OK {
			return "off"
		}
		return fmt.Sprintf("every %dms", iv.Ms)
	},
	"ms": func(ms int64) string {
		if ms == 0 {
			return "disabled"
		}
		return (time.Duration(ms) * time.Millisecond).String()
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Preset Switch</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Preset Switch</h1>

<h2>State</h2>
<table>
<tr><th>Host</th><td id="conn" class="{{connClass .State.Conn}}">{{.State.Conn}}</td></tr>
<tr><th>Preset</th><td id="preset" class="{{presetClass .State.Preset}}">{{.State.Preset}}</td></tr>
<tr><th>Unchanged for</th><td id="preset-for">{{uptime .PresetFor}}</td></tr>
<tr><th>Change pending</th><td>{{if .State.ChangePending}}yes{{else}}no{{end}}</td></tr>
<tr><th>LED</th><td class="{{if .LED}}on{{else}}off{{end}}">{{if .LED}}on{{else}}off{{end}} (blink {{blink .State}})</td></tr>
<tr><th>Transport</th><td>{{.Transport}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Preset A</th><td>{{.Counts.PresetA}}</td></tr>
<tr><th>Preset B</th><td>{{.Counts.PresetB}}</td></tr>
<tr><th>Sent</th><td>{{.Counts.Sent}}</td></tr>
<tr><th>Send failures</th><td>{{.Counts.SendFailed}}</td></tr>
<tr><th>Connects</th><td>{{.Counts.Connects}}</td></tr>
<tr><th>Disconnects</th><td>{{.Counts.Disconnects}}</td></tr>
<tr><th>Suspends</th><td>{{.Counts.Suspends}}</td></tr>
<tr><th>Inbound discarded</th><td>{{.Counts.Drained}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Mode</th><td>{{.Config.Mode}}</td></tr>
<tr><th>Transport</th><td>{{.Config.Transport}}</td></tr>
<tr><th>Heartbeat</th><td>{{ms .Config.HeartbeatMs}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime    time.Duration
		PresetFor time.Duration
	}{
		Snapshot:  snap,
		Uptime:    snap.Uptime(),
		PresetFor: snap.Now.Sub(snap.PresetSince),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Debugf("http: render index: %v", err)
	}
}
