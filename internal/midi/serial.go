package midi

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"

	"github.com/sweeney/preset-switch/internal/logic"
)

// DefaultBaud is the DIN MIDI line rate.
const DefaultBaud = 31250

// reopenInterval is how often a closed serial device is retried.
const reopenInterval = time.Second

type openFunc func(device string, mode *serial.Mode) (serial.Port, error)

// SerialTransport writes raw MIDI bytes to a serial device (a DIN MIDI
// interface or a USB CDC bridge). The device being openable is the
// connection; a read or write error is a disconnect.
type SerialTransport struct {
	device string
	mode   *serial.Mode
	open   openFunc
	now    func() time.Time

	lastTry time.Time
	port    serial.Port
	lost    chan struct{} // closed by the reader of the current port
	failed  bool
	inbound *inbox
}

// NewSerialTransport creates a transport for device at baud. The device is
// opened on the first Service call.
func NewSerialTransport(device string, baud int) *SerialTransport {
	return newSerialTransport(device, baud, serial.Open, time.Now)
}

func newSerialTransport(device string, baud int, open openFunc, now func() time.Time) *SerialTransport {
	if baud == 0 {
		baud = DefaultBaud
	}
	return &SerialTransport{
		device:  device,
		mode:    &serial.Mode{BaudRate: baud},
		open:    open,
		now:     now,
		inbound: newInbox(inboxSize),
	}
}

// Name describes the transport.
func (t *SerialTransport) Name() string {
	return "serial:" + t.device
}

// Service reports the device going away and retries opening it.
func (t *SerialTransport) Service() []logic.ConnEvent {
	if t.port != nil {
		lost := false
		select {
		case <-t.lost:
			lost = true
		default:
		}
		if !lost && !t.failed {
			return nil
		}
		log.Warnf("serial: %s lost, closing", t.device)
		t.closePort()
		return []logic.ConnEvent{{Kind: logic.EvDisconnected}}
	}

	now := t.now()
	if !t.lastTry.IsZero() && now.Sub(t.lastTry) < reopenInterval {
		return nil
	}
	t.lastTry = now

	p, err := t.open(t.device, t.mode)
	if err != nil {
		log.Debugf("serial: open %s: %v", t.device, err)
		return nil
	}
	t.port = p
	t.failed = false
	t.lost = make(chan struct{})
	go t.read(p, t.lost)
	log.WithFields(log.Fields{"device": t.device, "baud": t.mode.BaudRate}).Info("serial: connected")
	return []logic.ConnEvent{{Kind: logic.EvConnected}}
}

// read forwards inbound bytes until the port errors or is closed.
func (t *SerialTransport) read(p serial.Port, lost chan struct{}) {
	defer close(lost)
	buf := make([]byte, 64)
	for {
		n, err := p.Read(buf)
		if n > 0 {
			t.inbound.push(append([]byte(nil), buf[:n]...))
		}
		if err != nil {
			log.Debugf("serial: read %s: %v", t.device, err)
			return
		}
	}
}

// Drain discards queued inbound bytes.
func (t *SerialTransport) Drain() int {
	return t.inbound.drain()
}

// Send writes payload to the device.
func (t *SerialTransport) Send(cable uint8, payload []byte) error {
	if cable != Cable {
		return fmt.Errorf("serial: cable %d not available", cable)
	}
	if t.port == nil {
		return errors.New("serial: not connected")
	}
	if _, err := t.port.Write(payload); err != nil {
		t.failed = true
		return fmt.Errorf("serial: write: %w", err)
	}
	return nil
}

// Close closes the device.
func (t *SerialTransport) Close() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	return err
}

func (t *SerialTransport) closePort() {
	if err := t.port.Close(); err != nil {
		log.Debugf("serial: close %s: %v", t.device, err)
	}
	t.port = nil
	t.failed = false
	// Retry straight away on the next Service call.
	t.lastTry = time.Time{}
}
