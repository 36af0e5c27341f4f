// Package controller runs the cooperative control loop: one Step services the
// transport and then runs the indicator, transmission and debounce tasks in
// that order. Step never blocks.
package controller

import (
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/preset-switch/internal/gpio"
	"github.com/sweeney/preset-switch/internal/logic"
	"github.com/sweeney/preset-switch/internal/midi"
)

// Config wires the controller to its collaborators.
type Config struct {
	Transport midi.Transport
	Input     gpio.Reader
	LED       gpio.Writer
	Mode      logic.SendMode

	// Millis is the loop clock.
	Millis func() uint32

	// Lifecycle carries out-of-band lifecycle events (e.g. host suspend
	// hooks). Optional; drained without blocking during the service step.
	Lifecycle <-chan logic.ConnEvent
}

// Controller owns the shared state and the three tasks.
type Controller struct {
	transport midi.Transport
	input     gpio.Reader
	led       gpio.Writer
	millis    func() uint32
	lifecycle <-chan logic.ConnEvent

	state     logic.State
	debouncer *logic.Debouncer
	tx        *logic.Transmitter
	indicator *logic.Indicator

	lastInput    bool
	inputFailing bool
	ledOn        bool
	ledFailing   bool

	counts logic.EventCounts
	events []logic.Event
}

// New creates a controller in its initial state: not connected, preset
// unknown, no change pending.
func New(cfg Config) *Controller {
	return &Controller{
		transport: cfg.Transport,
		input:     cfg.Input,
		led:       cfg.LED,
		millis:    cfg.Millis,
		lifecycle: cfg.Lifecycle,
		debouncer: logic.NewDebouncer(),
		tx:        logic.NewTransmitter(cfg.Mode, midi.Payloads()),
		indicator: logic.NewIndicator(),
	}
}

// Step runs one loop iteration and returns the events it produced. The
// returned slice is only valid until the next call.
func (c *Controller) Step() []logic.Event {
	c.events = c.events[:0]
	now := c.millis()

	c.service(now)
	c.indicate(now)
	c.transmit(now)
	c.sample(now)

	return c.events
}

// service pumps the transport and applies lifecycle events in arrival order.
func (c *Controller) service(now uint32) {
	for _, ev := range c.transport.Service() {
		c.apply(ev, now)
	}
	for {
		select {
		case ev, ok := <-c.lifecycle:
			if !ok {
				c.lifecycle = nil
				return
			}
			c.apply(ev, now)
		default:
			return
		}
	}
}

func (c *Controller) apply(ev logic.ConnEvent, now uint32) {
	c.state.Apply(ev)

	var t logic.EventType
	switch ev.Kind {
	case logic.EvConnected:
		t = logic.EventConnected
	case logic.EvDisconnected:
		t = logic.EventDisconnected
	case logic.EvSuspended:
		t = logic.EventSuspended
	case logic.EvResumed:
		t = logic.EventResumed
	default:
		return
	}
	c.emit(logic.Event{Millis: now, Type: t})
}

func (c *Controller) indicate(now uint32) {
	level, write := c.indicator.Tick(c.state, now)
	if !write {
		return
	}
	if err := c.led.Set(level); err != nil {
		if !c.ledFailing {
			log.Warnf("led write error: %v", err)
			c.ledFailing = true
		}
		return
	}
	if c.ledFailing {
		log.Printf("led write recovered")
		c.ledFailing = false
	}
	c.ledOn = level
}

func (c *Controller) transmit(now uint32) {
	// Inbound traffic is discarded on every step, whatever the send cadence.
	c.counts.Drained += c.transport.Drain()

	payload := c.tx.Tick(&c.state, now)
	if payload == nil {
		return
	}
	if err := c.transport.Send(midi.Cable, payload); err != nil {
		log.Debugf("send %s: %v", midi.Describe(payload), err)
		c.emit(logic.Event{Millis: now, Type: logic.EventSendFailed, Payload: payload})
		return
	}
	c.emit(logic.Event{Millis: now, Type: logic.EventSent, Payload: payload})
}

func (c *Controller) sample(now uint32) {
	preset, changed := c.debouncer.Sample(&c.state, now, c.readInput)
	if !changed {
		return
	}
	t := logic.EventPresetB
	if preset == logic.PresetA {
		t = logic.EventPresetA
	}
	c.emit(logic.Event{Millis: now, Type: t})
}

// readInput returns the selector level. On a read error the last good level
// is used so the debouncer always integrates a boolean.
func (c *Controller) readInput() bool {
	v, err := c.input.Read()
	if err != nil {
		if !c.inputFailing {
			log.Warnf("gpio read error: %v", err)
			c.inputFailing = true
		}
		return c.lastInput
	}
	if c.inputFailing {
		log.Printf("gpio read recovered")
		c.inputFailing = false
	}
	c.lastInput = v
	return v
}

func (c *Controller) emit(e logic.Event) {
	e.Conn = c.state.Conn
	e.Preset = c.state.Preset
	c.counts.Add(e)
	c.events = append(c.events, e)
}

// State returns a copy of the shared state.
func (c *Controller) State() logic.State {
	return c.state
}

// LED returns the last level successfully written to the indicator.
func (c *Controller) LED() bool {
	return c.ledOn
}

// Counts returns event counts since startup.
func (c *Controller) Counts() logic.EventCounts {
	return c.counts
}

// Mode returns the transmitter's send mode.
func (c *Controller) Mode() logic.SendMode {
	return c.tx.Mode()
}

// TransportName describes the transport in use.
func (c *Controller) TransportName() string {
	return c.transport.Name()
}
