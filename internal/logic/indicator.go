package logic

// Interval is an optional blink period in milliseconds.
type Interval struct {
	Ms uint32
	OK bool
}

// BlinkInterval maps the shared state to a blink period. Only a connected
// device with a settled preset blinks.
func BlinkInterval(conn ConnectionState, preset Preset) Interval {
	if conn != Connected {
		return Interval{}
	}
	switch preset {
	case PresetA:
		return Interval{Ms: BlinkIntervalA, OK: true}
	case PresetB:
		return Interval{Ms: BlinkIntervalB, OK: true}
	}
	return Interval{}
}

// Indicator toggles an output at the interval selected by BlinkInterval.
type Indicator struct {
	level  bool
	cursor Cursor
}

// NewIndicator creates an indicator with its output off.
func NewIndicator() *Indicator {
	return &Indicator{}
}

// Tick returns the level to write and whether to write it.
//
// With no interval the output is forced off on every call. Otherwise, when
// the interval has elapsed, the current level is written and then flipped.
// Switching between intervals keeps the existing cursor and phase.
func (ind *Indicator) Tick(s State, now uint32) (level, write bool) {
	iv := BlinkInterval(s.Conn, s.Preset)
	if !iv.OK {
		ind.level = false
		return false, true
	}

	if !ind.cursor.Take(now, iv.Ms) {
		return false, false
	}
	level = ind.level
	ind.level = !ind.level
	return level, true
}

// Level returns the level the next toggle will write.
func (ind *Indicator) Level() bool {
	return ind.level
}
