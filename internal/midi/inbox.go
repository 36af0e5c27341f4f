package midi

import (
	log "github.com/sirupsen/logrus"
)

// inboxSize bounds the inbound packets held between drains.
const inboxSize = 64

// inbox queues inbound packets from a driver goroutine until the loop drains
// them. A full inbox drops new packets.
type inbox struct {
	ch chan []byte
}

func newInbox(size int) *inbox {
	return &inbox{ch: make(chan []byte, size)}
}

// push enqueues p without blocking. Returns false if p was dropped.
func (b *inbox) push(p []byte) bool {
	select {
	case b.ch <- p:
		return true
	default:
		return false
	}
}

// drain discards every queued packet and returns the count.
func (b *inbox) drain() int {
	n := 0
	for {
		select {
		case p := <-b.ch:
			n++
			if log.IsLevelEnabled(log.DebugLevel) {
				log.Debugf("midi: discarded inbound %s", Describe(p))
			}
		default:
			return n
		}
	}
}
