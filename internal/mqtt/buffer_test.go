package mqtt

import "testing"

func pushN(rb *ringBuffer, from, to int) {
	for i := from; i < to; i++ {
		rb.push(bufferedMsg{topic: Topic, payload: []byte{byte(i)}})
	}
}

func payloads(msgs []bufferedMsg) []byte {
	out := make([]byte, len(msgs))
	for i, m := range msgs {
		out[i] = m.payload[0]
	}
	return out
}

func TestRingBufferDrainOrder(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		pushed   int
		want     []byte
		dropped  int
	}{
		{"empty", 4, 0, nil, 0},
		{"partial", 4, 3, []byte{0, 1, 2}, 0},
		{"exactly full", 4, 4, []byte{0, 1, 2, 3}, 0},
		{"overflow keeps newest", 4, 7, []byte{3, 4, 5, 6}, 3},
		{"capacity one", 1, 3, []byte{2}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := newRingBuffer(tt.capacity)
			pushN(rb, 0, tt.pushed)

			if rb.dropped != tt.dropped {
				t.Errorf("dropped: got %d, want %d", rb.dropped, tt.dropped)
			}
			got := rb.drainAll()
			if tt.want == nil {
				if got != nil {
					t.Fatalf("expected nil, got %d messages", len(got))
				}
				return
			}
			if string(payloads(got)) != string(tt.want) {
				t.Errorf("payloads: got %v, want %v", payloads(got), tt.want)
			}
		})
	}
}

func TestRingBufferDrainResets(t *testing.T) {
	rb := newRingBuffer(3)
	pushN(rb, 0, 5)
	rb.drainAll()

	if rb.len() != 0 || rb.dropped != 0 {
		t.Fatalf("after drain: len=%d dropped=%d", rb.len(), rb.dropped)
	}
	if got := rb.drainAll(); got != nil {
		t.Errorf("second drain returned %d messages", len(got))
	}

	// the buffer is reusable after an overflowing cycle
	pushN(rb, 10, 12)
	if got := payloads(rb.drainAll()); string(got) != string([]byte{10, 11}) {
		t.Errorf("reuse: got %v", got)
	}
}

func TestRingBufferLenSaturates(t *testing.T) {
	rb := newRingBuffer(2)
	for i, want := range []int{1, 2, 2, 2} {
		pushN(rb, i, i+1)
		if rb.len() != want {
			t.Errorf("after push %d: len %d, want %d", i+1, rb.len(), want)
		}
	}
}

func TestRingBufferKeepsPublishOptions(t *testing.T) {
	rb := newRingBuffer(2)
	rb.push(bufferedMsg{topic: TopicSystem, payload: []byte("shutdown"), qos: 1, retained: true})

	got := rb.drainAll()
	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	m := got[0]
	if m.topic != TopicSystem || string(m.payload) != "shutdown" || m.qos != 1 || !m.retained {
		t.Errorf("message altered: %+v", m)
	}
}
