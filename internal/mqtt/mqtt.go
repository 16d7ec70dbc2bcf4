package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"surfsup-server/internal/config"
)

var errStopped = errors.New("announcer stopped")

// Announcer publishes retained JSON documents to a single topic.
type Announcer struct {
	client    mqtt.Client
	cfg       config.Config
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewAnnouncer(cfg config.Config, logger *slog.Logger) *Announcer {
	a := newAnnouncer(cfg, logger)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)

	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		a.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		a.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	a.client = mqtt.NewClient(opts)
	return a
}

func newAnnouncer(cfg config.Config, logger *slog.Logger) *Announcer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Announcer{
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Connect establishes the broker connection.
func (a *Announcer) Connect(ctx context.Context) error {
	select {
	case <-a.stopCh:
		return errStopped
	default:
	}

	if a.IsConnected() {
		return nil
	}

	if err := a.wait(ctx, a.client.Connect()); err != nil {
		a.client.Disconnect(0)
		return fmt.Errorf("mqtt connect: %w", err)
	}
	a.setConnected(true)
	return nil
}

// PublishJSON encodes v and publishes it to the configured topic with QoS 1
// and the retained flag set, so late subscribers receive the last document.
func (a *Announcer) PublishJSON(ctx context.Context, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	topic := a.cfg.MQTTTopic
	const qos = byte(1)
	if err := a.wait(ctx, a.client.Publish(topic, qos, true, payload)); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	a.logger.Info("published retained message", "topic", topic, "qos", qos, "size", len(payload))
	return nil
}

// wait blocks until token completes, ctx is done or the announcer stops.
func (a *Announcer) wait(ctx context.Context, token mqtt.Token) error {
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			return token.Error()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.stopCh:
			return errStopped
		default:
		}
	}
}

// IsConnected returns whether the client is connected.
func (a *Announcer) IsConnected() bool {
	a.mu.RLock()
	connected := a.connected
	a.mu.RUnlock()
	return connected && a.client.IsConnected()
}

// Disconnect closes the MQTT connection. Idempotent.
func (a *Announcer) Disconnect() {
	a.stopOnce.Do(func() { close(a.stopCh) })

	if a.client != nil {
		a.client.Disconnect(250)
	}

	a.setConnected(false)
	a.logger.Info("mqtt announcer disconnected")
}

func (a *Announcer) setConnected(v bool) {
	a.mu.Lock()
	a.connected = v
	a.mu.Unlock()
}
