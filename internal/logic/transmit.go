package logic

// Payloads holds the fixed message bytes for each preset.
type Payloads struct {
	A []byte
	B []byte
}

// For returns the payload for p, or nil for PresetUnknown.
func (p Payloads) For(preset Preset) []byte {
	switch preset {
	case PresetA:
		return p.A
	case PresetB:
		return p.B
	}
	return nil
}

// Transmitter decides when the current preset is sent.
type Transmitter struct {
	mode     SendMode
	interval uint32
	payloads Payloads
	cursor   Cursor
}

// NewTransmitter creates a transmitter using the given mode and payloads.
// The payloads are copied and never mutated afterwards.
func NewTransmitter(mode SendMode, payloads Payloads) *Transmitter {
	return &Transmitter{
		mode:     mode,
		interval: SendIntervalMs,
		payloads: Payloads{
			A: append([]byte(nil), payloads.A...),
			B: append([]byte(nil), payloads.B...),
		},
	}
}

// Mode returns the configured send mode.
func (t *Transmitter) Mode() SendMode {
	return t.mode
}

// Tick returns the payload to write this tick, or nil. The caller owns the
// returned slice.
//
// In ChangeTriggered mode the pending flag is cleared whenever it is
// consumed, including when the preset is still Unknown and nothing is sent;
// the debouncer sets it again once a preset settles.
func (t *Transmitter) Tick(s *State, now uint32) []byte {
	if !t.cursor.Take(now, t.interval) {
		return nil
	}
	if s.Conn != Connected {
		return nil
	}

	if t.mode == ChangeTriggered {
		if !s.ChangePending {
			return nil
		}
		s.ChangePending = false
	}

	payload := t.payloads.For(s.Preset)
	if payload == nil {
		return nil
	}
	return append([]byte(nil), payload...)
}
