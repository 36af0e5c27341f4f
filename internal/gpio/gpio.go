// Package gpio provides the preset input and the indicator LED with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads the preset selector input.
type Reader interface {
	// Read returns the logical input level. true selects preset A.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Writer drives the indicator LED.
type Writer interface {
	// Set writes the LED level. true = lit.
	Set(on bool) error

	// Close turns the LED off and releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering). Fixed by the board wiring.
const (
	PinInput = 16 // Preset selector
	PinLED   = 25 // Indicator LED
)

// Chip is the GPIO character device holding both lines.
const Chip = "gpiochip0"
