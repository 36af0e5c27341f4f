package config

// File is the default configuration file, as written by `preset-switch config`.
const File = `# preset-switch configuration
# Pins are fixed: selector on GPIO16, indicator LED on GPIO25.

[midi]
# "rtmidi" talks to an ALSA/CoreMIDI port, "serial" writes raw bytes to a
# DIN MIDI interface or USB serial bridge.
transport = "rtmidi"
# rtmidi: case-insensitive substring of the output port name.
# Run "preset-switch ports" to list them.
port = "Preset"
# serial: device path and line rate.
device = "/dev/ttyAMA0"
baud = 31250
# "change" sends once per preset change (and again on every reconnect),
# "always" sends the current preset every 200ms.
mode = "change"

[mqtt]
# Leave empty to disable telemetry.
broker = ""
client_id = "preset-switch"
# Full status snapshot interval. "0s" disables.
heartbeat = "15m"

[http]
# Status page. Leave empty to disable.
addr = ":8080"
`
