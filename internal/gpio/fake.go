package gpio

import "errors"

// FakeReader is a test double that returns scripted input levels.
type FakeReader struct {
	// Samples contains scripted levels to return.
	// Each call to Read() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Reads counts calls to Read.
	Reads int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples ...bool) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (bool, error) {
	f.Reads++
	if f.ReadError != nil {
		return false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Reads = 0
	f.Closed = false
}

// FakeWriter records LED writes.
type FakeWriter struct {
	// Levels contains every level written, in order.
	Levels []bool

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeWriter creates a FakeWriter.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{}
}

// Set records the level.
func (f *FakeWriter) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Levels = append(f.Levels, on)
	return nil
}

// On reports the last level written (false if none).
func (f *FakeWriter) On() bool {
	if len(f.Levels) == 0 {
		return false
	}
	return f.Levels[len(f.Levels)-1]
}

// Toggles returns the number of level changes among the recorded writes.
func (f *FakeWriter) Toggles() int {
	n := 0
	for i := 1; i < len(f.Levels); i++ {
		if f.Levels[i] != f.Levels[i-1] {
			n++
		}
	}
	return n
}

// Close marks the writer as closed and records the LED turning off.
func (f *FakeWriter) Close() error {
	f.Closed = true
	f.Levels = append(f.Levels, false)
	return nil
}
