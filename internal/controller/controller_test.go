package controller

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/preset-switch/internal/gpio"
	"github.com/sweeney/preset-switch/internal/logic"
	"github.com/sweeney/preset-switch/internal/midi"
)

var (
	connected    = logic.ConnEvent{Kind: logic.EvConnected}
	disconnected = logic.ConnEvent{Kind: logic.EvDisconnected}
	suspended    = logic.ConnEvent{Kind: logic.EvSuspended, RemoteWake: true}
	resumed      = logic.ConnEvent{Kind: logic.EvResumed}
)

// rig drives a Controller with fakes and a 1ms-per-step clock.
type rig struct {
	now       uint32
	transport *midi.FakeTransport
	input     *gpio.FakeReader
	led       *gpio.FakeWriter
	lifecycle chan logic.ConnEvent
	c         *Controller
	events    []logic.Event
}

func newRig(mode logic.SendMode, samples ...bool) *rig {
	r := &rig{
		transport: midi.NewFakeTransport(),
		input:     gpio.NewFakeReader(samples...),
		led:       gpio.NewFakeWriter(),
		lifecycle: make(chan logic.ConnEvent, 4),
	}
	r.c = New(Config{
		Transport: r.transport,
		Input:     r.input,
		LED:       r.led,
		Mode:      mode,
		Millis:    func() uint32 { return r.now },
		Lifecycle: r.lifecycle,
	})
	return r
}

// run steps the controller once per millisecond for ms milliseconds.
func (r *rig) run(ms int) {
	for i := 0; i < ms; i++ {
		r.events = append(r.events, r.c.Step()...)
		r.now++
	}
}

func (r *rig) count(t logic.EventType) int {
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func (r *rig) find(t logic.EventType) (logic.Event, bool) {
	for _, e := range r.events {
		if e.Type == t {
			return e, true
		}
	}
	return logic.Event{}, false
}

func TestInitialState(t *testing.T) {
	r := newRig(logic.ChangeTriggered, true)

	s := r.c.State()
	if s.Conn != logic.NotConnected || s.Preset != logic.PresetUnknown || s.ChangePending {
		t.Errorf("unexpected initial state: %+v", s)
	}
	if r.c.Mode() != logic.ChangeTriggered {
		t.Errorf("Mode: got %s", r.c.Mode())
	}
}

func TestStepOrderAndDrainEveryStep(t *testing.T) {
	r := newRig(logic.ChangeTriggered, true)

	r.run(50)

	if r.transport.ServiceCalls != 50 {
		t.Errorf("ServiceCalls: got %d, want 50", r.transport.ServiceCalls)
	}
	if r.transport.DrainCalls != 50 {
		t.Errorf("DrainCalls: got %d, want 50 (drain is not throttled)", r.transport.DrainCalls)
	}
	for i := 0; i+1 < len(r.transport.Calls); i += 2 {
		if r.transport.Calls[i] != "service" || r.transport.Calls[i+1] != "drain" {
			t.Fatalf("step %d: unexpected call order %v", i/2, r.transport.Calls[i:i+2])
		}
	}
	if len(r.led.Levels) != 50 {
		t.Errorf("expected the LED forced off every step while disconnected, got %d writes", len(r.led.Levels))
	}
	if r.input.Reads != 0 {
		t.Errorf("input must not be read while disconnected, got %d reads", r.input.Reads)
	}
}

func TestPresetAAnnouncedThenBlinks(t *testing.T) {
	r := newRig(logic.ChangeTriggered, true)
	r.transport.Queue(connected)

	r.run(3101)

	ev, ok := r.find(logic.EventPresetA)
	if !ok {
		t.Fatal("expected PRESET_A")
	}
	if ev.Millis != 100 {
		t.Errorf("PRESET_A at %dms, want 100 (5 samples from the midpoint)", ev.Millis)
	}

	if len(r.transport.Sent) != 1 {
		t.Fatalf("expected exactly 1 send, got %d", len(r.transport.Sent))
	}
	if !bytes.Equal(r.transport.Sent[0].Payload, []byte{0xC0, 0x00}) {
		t.Errorf("payload: got % X", r.transport.Sent[0].Payload)
	}
	if r.transport.Sent[0].Cable != midi.Cable {
		t.Errorf("cable: got %d", r.transport.Sent[0].Cable)
	}
	sent, _ := r.find(logic.EventSent)
	if sent.Millis != 200 {
		t.Errorf("sent at %dms, want 200", sent.Millis)
	}

	// Off at 1000, on at 2000, off at 3000.
	if got := r.led.Toggles(); got != 2 {
		t.Errorf("expected 2 LED toggles in 3s, got %d", got)
	}
	if r.c.LED() {
		t.Error("expected LED off after the 3000ms toggle")
	}

	counts := r.c.Counts()
	if counts.PresetA != 1 || counts.Sent != 1 || counts.Connects != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}

func TestPresetBBlinksFast(t *testing.T) {
	r := newRig(logic.ChangeTriggered, false)
	r.transport.Queue(connected)

	r.run(1101)

	if r.c.State().Preset != logic.PresetB {
		t.Fatalf("expected preset B, got %s", r.c.State().Preset)
	}
	if len(r.transport.Sent) != 1 || !bytes.Equal(r.transport.Sent[0].Payload, []byte{0xC0, 0x01}) {
		t.Errorf("expected one C0 01 send, got %+v", r.transport.Sent)
	}
	// Toggles at 250 (off), 500, 750, 1000.
	if got := r.led.Toggles(); got != 3 {
		t.Errorf("expected 3 LED toggles, got %d", got)
	}
}

func TestNoResendWithoutChange(t *testing.T) {
	r := newRig(logic.ChangeTriggered, true)
	r.transport.Queue(connected)

	r.run(5000)

	if len(r.transport.Sent) != 1 {
		t.Errorf("expected 1 send for 1 change, got %d", len(r.transport.Sent))
	}
}

func TestPresetSwitchSendsOnce(t *testing.T) {
	// 300 samples high, then low for the rest.
	samples := make([]bool, 300)
	for i := range samples {
		samples[i] = true
	}
	samples = append(samples, false)

	r := newRig(logic.ChangeTriggered, samples...)
	r.transport.Queue(connected)

	r.run(20 * 400)

	if len(r.transport.Sent) != 2 {
		t.Fatalf("expected 2 sends (A then B), got %d", len(r.transport.Sent))
	}
	if r.transport.Sent[0].Payload[1] != 0x00 || r.transport.Sent[1].Payload[1] != 0x01 {
		t.Errorf("unexpected payload order: % X, % X", r.transport.Sent[0].Payload, r.transport.Sent[1].Payload)
	}
}

func TestReconnectReannounces(t *testing.T) {
	r := newRig(logic.ChangeTriggered, true)
	r.transport.Queue(connected)
	r.run(500)
	if len(r.transport.Sent) != 1 {
		t.Fatalf("expected 1 send before disconnect, got %d", len(r.transport.Sent))
	}

	r.transport.Queue(disconnected)
	r.run(1)
	s := r.c.State()
	if s.Conn != logic.NotConnected || s.Preset != logic.PresetUnknown {
		t.Errorf("after disconnect: %+v", s)
	}
	if r.c.LED() {
		t.Error("LED should be off while disconnected")
	}

	r.run(1000)
	if len(r.transport.Sent) != 1 {
		t.Errorf("no sends while disconnected, got %d", len(r.transport.Sent)-1)
	}

	r.transport.Queue(connected)
	r.run(1000)

	if len(r.transport.Sent) != 2 {
		t.Fatalf("expected exactly one re-announce, got %d sends total", len(r.transport.Sent))
	}
	if !bytes.Equal(r.transport.Sent[1].Payload, []byte{0xC0, 0x00}) {
		t.Errorf("re-announce payload: got % X", r.transport.Sent[1].Payload)
	}
	if r.c.Counts().Disconnects != 1 {
		t.Errorf("Disconnects: got %d", r.c.Counts().Disconnects)
	}
}

func TestSuspendResumeViaLifecycle(t *testing.T) {
	r := newRig(logic.ChangeTriggered, true)
	r.transport.Queue(connected)
	r.run(500)

	r.lifecycle <- suspended
	r.run(1)
	if r.c.State().Conn != logic.Suspended {
		t.Fatalf("expected SUSPENDED, got %s", r.c.State().Conn)
	}
	before := len(r.transport.Sent)
	r.run(1000)
	if len(r.transport.Sent) != before {
		t.Error("no sends while suspended")
	}
	if r.c.LED() {
		t.Error("LED should be off while suspended")
	}

	r.lifecycle <- resumed
	r.run(1000)
	if len(r.transport.Sent) != before+1 {
		t.Errorf("expected one re-announce after resume, got %d", len(r.transport.Sent)-before)
	}
	if r.count(logic.EventSuspended) != 1 || r.count(logic.EventResumed) != 1 {
		t.Errorf("expected SUSPENDED and RESUMED events, got %+v", r.events)
	}
}

func TestLifecycleChannelClosed(t *testing.T) {
	r := newRig(logic.ChangeTriggered, true)
	close(r.lifecycle)

	r.run(10)
	if r.c.State().Conn != logic.NotConnected {
		t.Errorf("closed lifecycle channel must not change state, got %s", r.c.State().Conn)
	}
}

func TestUnconditionalMode(t *testing.T) {
	r := newRig(logic.Unconditional, true)
	r.transport.Queue(connected)

	r.run(2001)

	// First eligible tick at 200 (preset settled at 100), then every 200ms.
	if len(r.transport.Sent) != 10 {
		t.Errorf("expected 10 sends in 2s, got %d", len(r.transport.Sent))
	}
}

func TestSendFailureIsReported(t *testing.T) {
	r := newRig(logic.ChangeTriggered, true)
	r.transport.Queue(connected)
	r.transport.SendError = errors.New("backpressure")

	r.run(500)

	if r.count(logic.EventSendFailed) != 1 {
		t.Errorf("expected 1 SEND_FAILED, got %d", r.count(logic.EventSendFailed))
	}
	if r.count(logic.EventSent) != 0 {
		t.Error("failed send must not be reported as sent")
	}
	// Fire-and-forget: the change is not retried.
	r.transport.SendError = nil
	r.run(1000)
	if len(r.transport.Sent) != 0 {
		t.Errorf("failed send must not be retried, got %d sends", len(r.transport.Sent))
	}
}

func TestInputErrorUsesLastLevel(t *testing.T) {
	r := newRig(logic.ChangeTriggered, true)
	r.transport.Queue(connected)
	r.run(200)
	if r.c.State().Preset != logic.PresetA {
		t.Fatalf("expected preset A, got %s", r.c.State().Preset)
	}

	r.input.ReadError = errors.New("gpio fault")
	r.run(1000)

	if r.c.State().Preset != logic.PresetA {
		t.Errorf("preset should hold through read errors, got %s", r.c.State().Preset)
	}
	if r.count(logic.EventPresetB) != 0 {
		t.Error("read errors must not be integrated as low samples")
	}
}

func TestLEDErrorDoesNotStopLoop(t *testing.T) {
	r := newRig(logic.ChangeTriggered, true)
	r.transport.Queue(connected)
	r.led.SetError = errors.New("gpio fault")

	r.run(500)

	if len(r.transport.Sent) != 1 {
		t.Errorf("transmission should continue despite LED errors, got %d sends", len(r.transport.Sent))
	}
}

func TestDrainedCounted(t *testing.T) {
	r := newRig(logic.ChangeTriggered, true)
	r.transport.Inbound = 7

	r.run(1)
	if r.c.Counts().Drained != 7 {
		t.Errorf("Drained: got %d, want 7", r.c.Counts().Drained)
	}
}

func TestEventsCarryState(t *testing.T) {
	r := newRig(logic.ChangeTriggered, true)
	r.transport.Queue(connected)
	r.run(300)

	want := []logic.EventType{logic.EventConnected, logic.EventPresetA, logic.EventSent}
	if len(r.events) != len(want) {
		t.Fatalf("expected %d events, got %+v", len(want), r.events)
	}
	for i, w := range want {
		if r.events[i].Type != w {
			t.Errorf("event %d: got %s, want %s", i, r.events[i].Type, w)
		}
	}
	if r.events[1].Preset != logic.PresetA || r.events[1].Conn != logic.Connected {
		t.Errorf("PRESET_A event state: %+v", r.events[1])
	}
}

func TestMillisWraps(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cur := start
	millis := Millis(func() time.Time { return cur })

	if got := millis(); got != 0 {
		t.Errorf("start: got %d, want 0", got)
	}
	cur = start.Add(1500 * time.Millisecond)
	if got := millis(); got != 1500 {
		t.Errorf("got %d, want 1500", got)
	}
	cur = start.Add((1<<32 + 5) * time.Millisecond)
	if got := millis(); got != 5 {
		t.Errorf("after wrap: got %d, want 5", got)
	}
}

func TestTransportName(t *testing.T) {
	r := newRig(logic.ChangeTriggered, true)
	if got := r.c.TransportName(); got != "fake" {
		t.Errorf("TransportName: got %q, want fake", got)
	}
}
