// Package mqtt publishes comparison results to an MQTT broker so other
// systems can react to them. The publisher is optional; when disabled the
// pipeline runs without it.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"face-match-go/config"
	"face-match-go/internal/face"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// Publisher is a publish-only MQTT client for comparison results.
type Publisher struct {
	cfg    config.MQTTConfig
	client mqtt.Client
}

// NewPublisher creates a publisher for the given broker configuration.
func NewPublisher(cfg config.MQTTConfig) *Publisher {
	return &Publisher{cfg: cfg}
}

// Start connects to the broker. Reconnects are handled automatically after
// the initial connection succeeds.
func (p *Publisher) Start() error {
	opts := mqtt.NewClientOptions()

	brokerURL := fmt.Sprintf("tcp://%s:%d", p.cfg.Broker, p.cfg.Port)
	opts.AddBroker(brokerURL)
	opts.SetClientID(p.cfg.ClientID)

	if p.cfg.Username != "" {
		opts.SetUsername(p.cfg.Username)
		opts.SetPassword(p.cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(1 * time.Minute)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Errorf("MQTT connection lost: %v", err)
	})

	p.client = mqtt.NewClient(opts)

	log.Infof("Connecting to MQTT broker at %s", brokerURL)
	if token := p.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Info("MQTT publisher connected")
	return nil
}

// Stop disconnects from the broker.
func (p *Publisher) Stop() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
		log.Info("MQTT publisher disconnected")
	}
}

// IsConnected reports whether the broker connection is up.
func (p *Publisher) IsConnected() bool {
	return p.client != nil && p.client.IsConnected()
}

// PublishResult publishes one comparison result as JSON to the configured
// topic.
func (p *Publisher) PublishResult(result *face.ComparisonResult) error {
	if !p.IsConnected() {
		return fmt.Errorf("MQTT publisher is not connected")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal comparison result: %w", err)
	}

	token := p.client.Publish(p.cfg.Topic, 1, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", p.cfg.Topic, token.Error())
	}

	log.Debugf("Published comparison result to topic %s", p.cfg.Topic)
	return nil
}
