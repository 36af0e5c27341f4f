package mqtt

import log "github.com/sirupsen/logrus"

// bufferedMsg is a serialized publish held for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO that drops its oldest entry when full.
// Not safe for concurrent use; RealPublisher guards it with its mutex.
type ringBuffer struct {
	msgs    []bufferedMsg
	next    int // slot for the next push
	size    int
	dropped int // messages lost since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{msgs: make([]bufferedMsg, capacity)}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	if r.size == len(r.msgs) {
		if r.dropped == 0 {
			log.WithField("capacity", len(r.msgs)).Warn("mqtt: offline buffer full, dropping oldest")
		}
		r.dropped++
	} else {
		r.size++
	}
	// When full, next is also the oldest slot.
	r.msgs[r.next] = msg
	r.next = (r.next + 1) % len(r.msgs)
}

// drainAll returns the buffered messages oldest first and empties the buffer.
func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.size == 0 {
		return nil
	}

	out := make([]bufferedMsg, 0, r.size)
	start := (r.next - r.size + len(r.msgs)) % len(r.msgs)
	for i := 0; i < r.size; i++ {
		out = append(out, r.msgs[(start+i)%len(r.msgs)])
	}
	if r.dropped > 0 {
		log.Printf("mqtt: %d buffered messages were dropped while offline", r.dropped)
	}

	r.next, r.size, r.dropped = 0, 0, 0
	return out
}

func (r *ringBuffer) len() int {
	return r.size
}
