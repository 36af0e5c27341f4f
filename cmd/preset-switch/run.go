package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/preset-switch/internal/config"
	"github.com/sweeney/preset-switch/internal/controller"
	"github.com/sweeney/preset-switch/internal/gpio"
	"github.com/sweeney/preset-switch/internal/logic"
	"github.com/sweeney/preset-switch/internal/midi"
	"github.com/sweeney/preset-switch/internal/mqtt"
	"github.com/sweeney/preset-switch/internal/rtmidi"
	"github.com/sweeney/preset-switch/internal/status"
	"github.com/sweeney/preset-switch/internal/web"
)

// loopInterval paces Step calls. The tasks throttle themselves, so this only
// needs to be well below the shortest task interval.
const loopInterval = time.Millisecond

func run(cfg config.Config) error {
	input, err := gpio.NewRealReader(gpio.PinInput)
	if err != nil {
		return fmt.Errorf("init gpio input: %w", err)
	}
	defer input.Close()

	led, err := gpio.NewRealWriter(gpio.PinLED)
	if err != nil {
		return fmt.Errorf("init gpio led: %w", err)
	}
	// Close drives the LED low before releasing the line.
	defer led.Close()

	transport, err := openTransport(cfg.MIDI)
	if err != nil {
		return fmt.Errorf("init midi: %w", err)
	}
	defer transport.Close()

	var publisher interface {
		mqtt.Publisher
		mqtt.ConnectionStatus
	} = mqtt.NopPublisher{}
	if cfg.MQTT.Broker != "" {
		publisher = mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		Mode:        cfg.MIDI.Mode,
		Transport:   cfg.MIDI.Transport,
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		HeartbeatMs: cfg.MQTT.Heartbeat.Milliseconds(),
	})
	tracker.Observe(status.Reading{Transport: transport.Name()}, time.Now())
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	lifecycle := make(chan logic.ConnEvent, 4)
	ctrl := controller.New(controller.Config{
		Transport: transport,
		Input:     input,
		LED:       led,
		Mode:      cfg.SendMode(),
		Millis:    controller.Millis(time.Now),
		Lifecycle: lifecycle,
	})

	log.WithFields(log.Fields{
		"transport": transport.Name(),
		"mode":      cfg.SendMode(),
		"broker":    cfg.MQTT.Broker,
		"heartbeat": cfg.MQTT.Heartbeat.Duration,
	}).Info("started")

	ticker := time.NewTicker(loopInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2)

	return runLoop(ctrl, lifecycle, publisher, publisher, tracker, cfg.MQTT.Heartbeat.Duration, time.Now, ticker.C, sigCh)
}

func openTransport(c config.MIDI) (midi.Transport, error) {
	if c.Transport == config.TransportSerial {
		return midi.NewSerialTransport(c.Device, c.Baud), nil
	}
	drv, err := rtmidi.Open()
	if err != nil {
		return nil, err
	}
	return midi.NewRtmidiTransport(c.Port, drv), nil
}

func runLoop(ctrl *controller.Controller, lifecycle chan<- logic.ConnEvent, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	lastHeartbeat := now()

	for {
		select {
		case s := <-sig:
			if ev, ok := lifecycleEvent(s); ok {
				log.Printf("received %v, forwarding %s", s, ev.Kind)
				select {
				case lifecycle <- ev:
				default:
					log.Warnf("lifecycle queue full, dropping %s", ev.Kind)
				}
				continue
			}

			log.Printf("received %v, shutting down", s)
			name := signalName(s)
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    name,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				// The LED is driven low as the line is released.
				final := status.ReadingOf(ctrl)
				final.LED = false
				tracker.Observe(final, event.Timestamp)
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", name)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			}
			return nil

		case <-tick:
			t := now()
			events := ctrl.Step()

			for _, event := range events {
				logEvent(event, ctrl.Mode())
				if event.Type == logic.EventSent && ctrl.Mode() == logic.Unconditional {
					// One per send interval; counted, not published.
					continue
				}
				if err := publisher.Publish(t, event); err != nil {
					log.Printf("publish error: %v", err)
				}
			}

			if tracker == nil {
				continue
			}
			tracker.Observe(status.ReadingOf(ctrl), t)
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				if net := readNetworkInfo(); net != nil {
					tracker.SetNetwork(net)
				}
				snap := tracker.Snapshot()
				log.WithFields(log.Fields{
					"uptime": snap.Uptime().Truncate(time.Second),
					"conn":   snap.State.Conn,
					"preset": snap.State.Preset,
					"sent":   snap.Counts.Sent,
				}).Info("heartbeat")
				hb := mqtt.SystemEvent{
					Timestamp:  t,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				}
				if err := publisher.PublishSystem(hb); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

func logEvent(e logic.Event, mode logic.SendMode) {
	entry := log.WithFields(log.Fields{
		"millis": e.Millis,
		"conn":   e.Conn,
		"preset": e.Preset,
	})
	switch e.Type {
	case logic.EventSent:
		entry = entry.WithField("message", midi.Describe(e.Payload))
		if mode == logic.Unconditional {
			entry.Debug(e.Type)
			return
		}
	case logic.EventSendFailed:
		entry.WithField("message", midi.Describe(e.Payload)).Warn(e.Type)
		return
	}
	entry.Info(e.Type)
}

// lifecycleEvent maps the host sleep-hook signals to lifecycle events.
func lifecycleEvent(s os.Signal) (logic.ConnEvent, bool) {
	switch s {
	case syscall.SIGUSR1:
		return logic.ConnEvent{Kind: logic.EvSuspended}, true
	case syscall.SIGUSR2:
		return logic.ConnEvent{Kind: logic.EvResumed}, true
	}
	return logic.ConnEvent{}, false
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
