// Package publish forwards decoded readings to an MQTT broker.
package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/zdyb/wmbusdv/internal/config"
)

var ErrConnectionFailed = errors.New("mqtt connection failed")

const defaultConnectTimeout = 10 * time.Second

// Envelope is the JSON message published per decoded telegram. Every message
// carries its own id so downstream consumers can deduplicate.
type Envelope struct {
	MessageID  string         `json:"message_id"`
	MeterID    string         `json:"meter_id"`
	Driver     string         `json:"driver"`
	Fields     map[string]any `json:"fields"`
	ReceivedAt time.Time      `json:"received_at"`
}

// Publisher wraps a connected paho client.
type Publisher struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig
	now    func() time.Time
}

// Connect establishes the broker session and blocks until the initial
// connection succeeds or times out.
func Connect(cfg config.MQTTConfig) (*Publisher, error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL()).
		SetClientID(cfg.Broker.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(defaultConnectTimeout)
	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}
	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return &Publisher{client: client, cfg: cfg, now: time.Now}, nil
}

// Publish sends one reading to <prefix>/<driver>/<meter id>.
func (p *Publisher) Publish(driverName, meterID string, fields map[string]any) error {
	env := Envelope{
		MessageID:  uuid.NewString(),
		MeterID:    meterID,
		Driver:     driverName,
		Fields:     fields,
		ReceivedAt: p.now().UTC(),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}
	topic := fmt.Sprintf("%s/%s/%s", p.cfg.TopicPrefix, driverName, meterID)
	token := p.client.Publish(topic, byte(p.cfg.QoS), false, payload)
	if !token.WaitTimeout(defaultConnectTimeout) {
		return fmt.Errorf("publish to %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker, allowing in-flight messages to drain.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
