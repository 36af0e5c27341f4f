package logic

// Debouncer integrates raw input samples into a bounded counter and derives
// the preset once the counter reaches either rail.
//
// The counter moves one step per sample period towards the level being read.
// Only landing exactly on 0 or W changes the preset, so chatter inside the
// band is ignored and a level held at a rail does not re-signal.
type Debouncer struct {
	window  int
	period  uint32
	counter int
	cursor  Cursor
}

// NewDebouncer creates a debouncer with window W and the default sample period.
func NewDebouncer() *Debouncer {
	return &Debouncer{
		window:  DebounceWindow,
		period:  DebouncePeriodMs,
		counter: DebounceWindow / 2,
	}
}

// Counter returns the integrator value in [0, W].
func (d *Debouncer) Counter() int {
	return d.counter
}

// Sample runs one debounce step. While the connection is not Connected it
// resets the counter to the midpoint and the preset to Unknown on every call;
// leaving A or B that way marks a pending change but is not reported as one.
// Otherwise it is throttled to one sample per period; read is called at most
// once, and only when a sample is taken.
//
// On a rail hit it updates s.Preset, sets s.ChangePending and returns changed.
func (d *Debouncer) Sample(s *State, now uint32, read func() bool) (Preset, bool) {
	if s.Conn != Connected {
		d.counter = d.window / 2
		if s.Preset != PresetUnknown {
			s.Preset = PresetUnknown
			s.ChangePending = true
		}
		return PresetUnknown, false
	}

	if !d.cursor.Take(now, d.period) {
		return s.Preset, false
	}

	changed := false
	if read() {
		if d.counter < d.window {
			d.counter++
			if d.counter == d.window {
				s.Preset = PresetA
				changed = true
			}
		}
	} else if d.counter > 0 {
		d.counter--
		if d.counter == 0 {
			s.Preset = PresetB
			changed = true
		}
	}

	if changed {
		s.ChangePending = true
	}
	return s.Preset, changed
}
