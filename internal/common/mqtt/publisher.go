// Package mqtt publishes live overlays to an MQTT broker.
package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"yoga-guide/internal/common/config"
	"yoga-guide/internal/common/logger"

	paho "github.com/eclipse/paho.mqtt.golang"
)

var ErrNotConnected = errors.New("mqtt not connected")

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// Publisher wraps a paho client with connection tracking and publish stats.
type Publisher struct {
	cfg    config.MQTTConfig
	client paho.Client
	logger logger.Logger

	mu        sync.RWMutex
	connected bool
	published map[string]uint64
	errors    uint64
}

// NewPublisher builds the paho client. Call Connect before publishing.
func NewPublisher(cfg config.MQTTConfig, log logger.Logger) *Publisher {
	p := &Publisher{cfg: cfg, logger: log, published: make(map[string]uint64)}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(paho.Client) {
		p.setConnected(true)
		log.Info("mqtt connection established", map[string]interface{}{
			"broker":   cfg.Broker,
			"clientId": cfg.ClientID,
		})
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		p.setConnected(false)
		log.Warn("mqtt connection lost, will auto-reconnect", map[string]interface{}{
			"broker": cfg.Broker,
			"error":  err.Error(),
		})
	}

	p.client = paho.NewClient(opts)
	return p
}

// newWithClient is used by tests to inject a client.
func newWithClient(cfg config.MQTTConfig, client paho.Client, log logger.Logger) *Publisher {
	return &Publisher{cfg: cfg, client: client, logger: log, published: make(map[string]uint64)}
}

func (p *Publisher) Connect() error {
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}
	p.setConnected(true)
	return nil
}

// Publish sends payload with the configured QoS. It satisfies live.Publisher.
func (p *Publisher) Publish(topic string, payload []byte) error {
	if !p.isConnected() {
		p.countError()
		return ErrNotConnected
	}

	token := p.client.Publish(topic, p.cfg.QoS, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		p.countError()
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		p.countError()
		return fmt.Errorf("publish failed: %w", err)
	}

	p.mu.Lock()
	p.published[topic]++
	p.mu.Unlock()
	return nil
}

// Stats returns the published count per topic and the error count.
func (p *Publisher) Stats() (map[string]uint64, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]uint64, len(p.published))
	for k, v := range p.published {
		out[k] = v
	}
	return out, p.errors
}

func (p *Publisher) Close() {
	p.setConnected(false)
	p.client.Disconnect(250)
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

func (p *Publisher) isConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

func (p *Publisher) countError() {
	p.mu.Lock()
	p.errors++
	p.mu.Unlock()
}
