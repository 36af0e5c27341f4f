package midi

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/sweeney/preset-switch/internal/logic"
)

// rescanInterval is how often the port list is checked for hot-plug.
const rescanInterval = time.Second

// RtmidiTransport writes to an ALSA/CoreMIDI port through rtmidi. The first
// output whose name contains the configured pattern is used; losing it is a
// disconnect, finding it again is a connect.
type RtmidiTransport struct {
	pattern string
	drv     PortDriver
	now     func() time.Time

	lastScan time.Time
	out      drivers.Out
	in       drivers.In
	stopIn   func()
	failed   bool
	inbound  *inbox
}

// PortDriver is the subset of a gomidi driver the transport uses. The cgo
// rtmidi driver lives in internal/rtmidi so this package builds without it.
type PortDriver interface {
	Outs() ([]drivers.Out, error)
	Ins() ([]drivers.In, error)
	Close() error
}

// NewRtmidiTransport wraps an opened driver. No port is opened until the
// first Service call. Close also closes drv.
func NewRtmidiTransport(pattern string, drv PortDriver) *RtmidiTransport {
	return newRtmidiTransport(pattern, drv, time.Now)
}

func newRtmidiTransport(pattern string, drv PortDriver, now func() time.Time) *RtmidiTransport {
	return &RtmidiTransport{
		pattern: pattern,
		drv:     drv,
		now:     now,
		inbound: newInbox(inboxSize),
	}
}

// Name describes the transport.
func (t *RtmidiTransport) Name() string {
	if t.out != nil {
		return "rtmidi:" + t.out.String()
	}
	return "rtmidi:" + t.pattern
}

// Service detects hot-plug. A failed send disconnects immediately; the port
// list itself is only rescanned once per rescanInterval.
func (t *RtmidiTransport) Service() []logic.ConnEvent {
	var events []logic.ConnEvent

	if t.out != nil && t.failed {
		log.Warnf("midi: output %q failed, closing", t.out.String())
		t.closePorts()
		events = append(events, logic.ConnEvent{Kind: logic.EvDisconnected})
	}

	now := t.now()
	if !t.lastScan.IsZero() && now.Sub(t.lastScan) < rescanInterval {
		return events
	}
	t.lastScan = now

	outs, err := t.drv.Outs()
	if err != nil {
		log.Debugf("midi: list outputs: %v", err)
		return events
	}

	if t.out != nil {
		name := t.out.String()
		for _, o := range outs {
			if o.String() == name {
				return events
			}
		}
		log.Warnf("midi: output %q disappeared", name)
		t.closePorts()
		return append(events, logic.ConnEvent{Kind: logic.EvDisconnected})
	}

	cand := pickPort(outs, t.pattern)
	if cand == nil {
		return events
	}
	if err := cand.Open(); err != nil {
		log.Errorf("midi: open %q: %v", cand.String(), err)
		return events
	}
	t.out = cand
	t.failed = false
	t.listen()
	log.WithField("port", cand.String()).Info("midi: connected")
	return append(events, logic.ConnEvent{Kind: logic.EvConnected})
}

// listen opens the matching input, if there is one, so the host side never
// stalls on a full buffer. Inbound messages are queued for Drain.
func (t *RtmidiTransport) listen() {
	ins, err := t.drv.Ins()
	if err != nil {
		log.Debugf("midi: list inputs: %v", err)
		return
	}
	var in drivers.In
	for _, i := range ins {
		if containsCI(i.String(), t.pattern) {
			in = i
			break
		}
	}
	if in == nil {
		return
	}
	if err := in.Open(); err != nil {
		log.Debugf("midi: open input %q: %v", in.String(), err)
		return
	}
	stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		t.inbound.push(append([]byte(nil), msg...))
	}, midi.HandleError(func(err error) {
		log.Debugf("midi: input %q: %v", in.String(), err)
	}))
	if err != nil {
		_ = in.Close()
		log.Debugf("midi: listen %q: %v", in.String(), err)
		return
	}
	t.in = in
	t.stopIn = stop
}

// Drain discards queued inbound messages.
func (t *RtmidiTransport) Drain() int {
	return t.inbound.drain()
}

// Send writes payload to the open output.
func (t *RtmidiTransport) Send(cable uint8, payload []byte) error {
	if cable != Cable {
		return fmt.Errorf("midi: cable %d not available", cable)
	}
	if t.out == nil {
		return errors.New("midi: not connected")
	}
	if err := t.out.Send(payload); err != nil {
		t.failed = true
		return fmt.Errorf("midi: send: %w", err)
	}
	return nil
}

// Close closes any open ports and the driver.
func (t *RtmidiTransport) Close() error {
	err := t.closePorts()
	return errors.Join(err, t.drv.Close())
}

func (t *RtmidiTransport) closePorts() error {
	if t.stopIn != nil {
		t.stopIn()
		t.stopIn = nil
	}
	var errs []error
	if t.in != nil {
		errs = append(errs, t.in.Close())
		t.in = nil
	}
	if t.out != nil {
		errs = append(errs, t.out.Close())
		t.out = nil
	}
	t.failed = false
	t.lastScan = time.Time{}
	return errors.Join(errs...)
}

// pickPort returns the first port whose name contains pattern. An empty
// pattern only matches when exactly one port exists.
func pickPort(outs []drivers.Out, pattern string) drivers.Out {
	if pattern == "" {
		if len(outs) == 1 {
			return outs[0]
		}
		return nil
	}
	for _, o := range outs {
		if containsCI(o.String(), pattern) {
			return o
		}
	}
	return nil
}

// ListOutputs returns the names of the driver's output ports.
func ListOutputs(drv PortDriver) ([]string, error) {
	outs, err := drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("list outputs: %w", err)
	}
	names := make([]string, len(outs))
	for i, o := range outs {
		names[i] = o.String()
	}
	return names, nil
}
