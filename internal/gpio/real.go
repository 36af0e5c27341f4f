//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads the selector input from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealReader requests the given BCM pin as an input.
func NewRealReader(pin int) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// Pull-down so an open selector reads low (preset B) rather than floating.
	line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request input pin %d: %w", pin, err)
	}

	return &RealReader{chip: chip, line: line}, nil
}

// Read returns the input level. Raw high = preset A.
func (r *RealReader) Read() (bool, error) {
	v, err := r.line.Value()
	if err != nil {
		return false, fmt.Errorf("read input pin: %w", err)
	}
	return v == 1, nil
}

// Close releases GPIO resources.
// The line is reconfigured to input with pull-down (matching Pi boot defaults)
// before closing.
func (r *RealReader) Close() error {
	var errs []error
	if r.line != nil {
		if err := r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure input pin: %w", err))
		}
		if err := r.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close input pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	return errors.Join(errs...)
}

// RealWriter drives the indicator LED.
type RealWriter struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealWriter requests the given BCM pin as an output, initially low.
func NewRealWriter(pin int) (*RealWriter, error) {
	chip, err := gpiocdev.NewChip(Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request led pin %d: %w", pin, err)
	}

	return &RealWriter{chip: chip, line: line}, nil
}

// Set writes the LED level.
func (w *RealWriter) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := w.line.SetValue(v); err != nil {
		return fmt.Errorf("write led pin: %w", err)
	}
	return nil
}

// Close turns the LED off, returns the pin to an input with pull-down and
// releases the chip.
func (w *RealWriter) Close() error {
	var errs []error
	if w.line != nil {
		if err := w.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear led pin: %w", err))
		}
		if err := w.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure led pin: %w", err))
		}
		if err := w.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close led pin: %w", err))
		}
	}
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	return errors.Join(errs...)
}
