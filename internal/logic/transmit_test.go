package logic

import (
	"bytes"
	"testing"
)

var testPayloads = Payloads{
	A: []byte{0xC0, 0x00},
	B: []byte{0xC0, 0x01},
}

func TestTransmitOncePerChange(t *testing.T) {
	tx := NewTransmitter(ChangeTriggered, testPayloads)
	s := &State{Conn: Connected, Preset: PresetA, ChangePending: true}

	got := tx.Tick(s, SendIntervalMs)
	if !bytes.Equal(got, []byte{0xC0, 0x00}) {
		t.Fatalf("expected % X, got % X", []byte{0xC0, 0x00}, got)
	}
	if s.ChangePending {
		t.Error("ChangePending should be cleared after send")
	}

	for i := 2; i <= 10; i++ {
		if got := tx.Tick(s, uint32(i)*SendIntervalMs); got != nil {
			t.Errorf("tick %d: expected no send, got % X", i, got)
		}
	}
}

func TestTransmitPresetB(t *testing.T) {
	tx := NewTransmitter(ChangeTriggered, testPayloads)
	s := &State{Conn: Connected, Preset: PresetB, ChangePending: true}

	got := tx.Tick(s, SendIntervalMs)
	if !bytes.Equal(got, []byte{0xC0, 0x01}) {
		t.Errorf("expected % X, got % X", []byte{0xC0, 0x01}, got)
	}
}

func TestTransmitThrottled(t *testing.T) {
	tx := NewTransmitter(ChangeTriggered, testPayloads)
	s := &State{Conn: Connected, Preset: PresetA, ChangePending: true}

	for now := uint32(0); now < SendIntervalMs; now++ {
		if got := tx.Tick(s, now); got != nil {
			t.Fatalf("now=%d: expected no send before interval, got % X", now, got)
		}
	}
	if !s.ChangePending {
		t.Error("ChangePending should survive throttled ticks")
	}
	if got := tx.Tick(s, SendIntervalMs); got == nil {
		t.Error("expected send once the interval elapsed")
	}
}

func TestTransmitNotConnected(t *testing.T) {
	for _, conn := range []ConnectionState{NotConnected, Suspended} {
		t.Run(conn.String(), func(t *testing.T) {
			tx := NewTransmitter(ChangeTriggered, testPayloads)
			s := &State{Conn: conn, Preset: PresetA, ChangePending: true}

			if got := tx.Tick(s, SendIntervalMs); got != nil {
				t.Errorf("expected no send, got % X", got)
			}
			if !s.ChangePending {
				t.Error("ChangePending should be kept while not connected")
			}
		})
	}
}

func TestTransmitUnknownConsumesPending(t *testing.T) {
	tx := NewTransmitter(ChangeTriggered, testPayloads)
	s := &State{Conn: Connected, Preset: PresetUnknown, ChangePending: true}

	if got := tx.Tick(s, SendIntervalMs); got != nil {
		t.Errorf("expected no send for UNKNOWN, got % X", got)
	}
	if s.ChangePending {
		t.Error("ChangePending should be consumed even when nothing is sent")
	}
}

func TestTransmitUnconditional(t *testing.T) {
	tx := NewTransmitter(Unconditional, testPayloads)
	s := &State{Conn: Connected, Preset: PresetB}

	sends := 0
	for now := uint32(0); now <= 5*SendIntervalMs; now++ {
		if got := tx.Tick(s, now); got != nil {
			sends++
			if !bytes.Equal(got, []byte{0xC0, 0x01}) {
				t.Errorf("now=%d: unexpected payload % X", now, got)
			}
		}
	}
	if sends != 5 {
		t.Errorf("expected 5 sends in 1000ms, got %d", sends)
	}

	s.Preset = PresetUnknown
	if got := tx.Tick(s, 6*SendIntervalMs); got != nil {
		t.Errorf("expected no send for UNKNOWN, got % X", got)
	}
}

func TestTransmitPayloadsImmutable(t *testing.T) {
	src := Payloads{A: []byte{0xC0, 0x00}, B: []byte{0xC0, 0x01}}
	tx := NewTransmitter(Unconditional, src)
	src.A[1] = 0x7F

	s := &State{Conn: Connected, Preset: PresetA}
	got := tx.Tick(s, SendIntervalMs)
	if !bytes.Equal(got, []byte{0xC0, 0x00}) {
		t.Fatalf("constructor input mutation leaked: % X", got)
	}

	got[0] = 0x00
	again := tx.Tick(s, 2*SendIntervalMs)
	if !bytes.Equal(again, []byte{0xC0, 0x00}) {
		t.Errorf("returned slice mutation leaked: % X", again)
	}
}

func TestPayloadsFor(t *testing.T) {
	if p := testPayloads.For(PresetUnknown); p != nil {
		t.Errorf("expected nil for UNKNOWN, got % X", p)
	}
	if p := testPayloads.For(PresetA); !bytes.Equal(p, testPayloads.A) {
		t.Errorf("A: got % X", p)
	}
	if p := testPayloads.For(PresetB); !bytes.Equal(p, testPayloads.B) {
		t.Errorf("B: got % X", p)
	}
}
