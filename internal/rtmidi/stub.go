//go:build !cgo

package rtmidi

import "gitlab.com/gomidi/midi/v2/drivers"

// Open returns ErrUnavailable when built without cgo.
func Open() (drivers.Driver, error) {
	return nil, ErrUnavailable
}
