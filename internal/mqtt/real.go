package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/preset-switch/internal/logic"
)

const (
	// bufferCapacity is how many messages are held while the broker is away.
	bufferCapacity = 256

	// publishTimeout bounds how long a delivery check waits on a token.
	publishTimeout = 5 * time.Second
)

// RealPublisher publishes to an actual MQTT broker. Publishing never blocks:
// while the connection is down, messages are queued in a ring buffer and
// replayed from the on-connect handler.
type RealPublisher struct {
	client paho.Client

	mu        sync.Mutex
	buf       *ringBuffer
	connected bool
	replaying bool // buffered messages are still being handed to the client
	connects  int
}

// NewRealPublisher starts connecting to broker in the background and returns
// immediately. A retained SHUTDOWN will is registered so subscribers see an
// unclean exit.
func NewRealPublisher(broker, clientID string) *RealPublisher {
	p := newPublisher(bufferCapacity)

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetOrderMatters(false).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	// With ConnectRetry the token only completes once connected; don't wait.
	p.client.Connect()
	log.WithField("broker", broker).Info("mqtt: connecting")
	return p
}

func newPublisher(capacity int) *RealPublisher {
	return &RealPublisher{buf: newRingBuffer(capacity)}
}

// Publish sends a controller event to the MQTT broker.
func (p *RealPublisher) Publish(at time.Time, event logic.Event) error {
	payload, err := FormatPayload(at, event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	p.publish(bufferedMsg{topic: Topic, payload: payload})
	return nil
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for lifecycle events
	p.publish(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
	return nil
}

// publish sends msg straight away only when connected and no replay is in
// progress, so a live event never overtakes older buffered ones.
func (p *RealPublisher) publish(msg bufferedMsg) {
	p.mu.Lock()
	if !p.connected || p.replaying {
		p.buf.push(msg)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	p.send(msg)
}

// send hands msg to the client and checks delivery off the caller's goroutine.
func (p *RealPublisher) send(msg bufferedMsg) {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			log.Warnf("mqtt: publish %s timeout", msg.topic)
			return
		}
		if err := token.Error(); err != nil {
			log.Warnf("mqtt: publish %s: %v", msg.topic, err)
		}
	}()
}

func (p *RealPublisher) onConnect(paho.Client) {
	p.mu.Lock()
	p.connected = true
	p.replaying = true
	p.connects++
	reconnected := p.connects > 1
	p.mu.Unlock()

	if reconnected {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		n := p.replay(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1})
		log.Printf("mqtt: reconnected, replayed %d buffered messages", n)
	} else {
		n := p.replay()
		log.Printf("mqtt: connected, replayed %d buffered messages", n)
	}
}

// replay hands the buffer to the client oldest first, followed by extra.
// Messages published meanwhile land in the buffer and are sent in later
// rounds; the last round clears replaying under the same lock that found the
// buffer empty. It returns the number of buffered messages sent.
func (p *RealPublisher) replay(extra ...bufferedMsg) int {
	sent := 0
	for {
		p.mu.Lock()
		if !p.connected {
			p.replaying = false
			p.mu.Unlock()
			return sent
		}
		batch := p.buf.drainAll()
		if len(batch) == 0 && len(extra) == 0 {
			p.replaying = false
			p.mu.Unlock()
			return sent
		}
		p.mu.Unlock()

		sent += len(batch)
		for _, msg := range batch {
			p.send(msg)
		}
		for _, msg := range extra {
			p.send(msg)
		}
		extra = nil
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	log.Warnf("mqtt: connection lost: %v", err)
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
