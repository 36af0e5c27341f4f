package controller

import "time"

// Millis returns a wrapping millisecond counter that starts at zero on the
// first call to now. The counter wraps after about 49.7 days; the tasks only
// ever subtract timestamps, so wrapping is harmless.
func Millis(now func() time.Time) func() uint32 {
	start := now()
	return func() uint32 {
		return uint32(now().Sub(start).Milliseconds())
	}
}
