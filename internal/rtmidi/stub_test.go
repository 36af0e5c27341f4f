//go:build !cgo

package rtmidi

import (
	"errors"
	"testing"
)

func TestOpenWithoutCgo(t *testing.T) {
	drv, err := Open()
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if drv != nil {
		t.Errorf("expected nil driver, got %v", drv)
	}
}
