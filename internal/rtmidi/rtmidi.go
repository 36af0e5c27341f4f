// Package rtmidi opens the native rtmidi driver (ALSA on Linux, CoreMIDI on
// macOS). It is the only package that needs cgo; without it Open reports
// ErrUnavailable and the serial transport still works.
package rtmidi

import "errors"

// ErrUnavailable is returned by Open in builds without cgo.
var ErrUnavailable = errors.New("rtmidi: not available in this build (requires cgo)")
