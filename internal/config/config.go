// Package config loads the YAML configuration used by the CLI: per-meter
// AES keys and the optional MQTT publishing target.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	// Keys maps a meter id (EN 13757 display format, "55445555") to its
	// 32-hex-digit AES key.
	Keys map[string]string `yaml:"keys"`
	MQTT MQTTConfig        `yaml:"mqtt"`
}

// MQTTConfig contains broker connection settings for the publish command.
type MQTTConfig struct {
	Broker      MQTTBrokerConfig `yaml:"broker"`
	Auth        MQTTAuthConfig   `yaml:"auth"`
	QoS         int              `yaml:"qos"`
	TopicPrefix string           `yaml:"topic_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials. The password can
// be supplied through WMBUSDV_MQTT_PASSWORD instead of the file.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Load reads and validates a configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if pw := os.Getenv("WMBUSDV_MQTT_PASSWORD"); pw != "" {
		cfg.MQTT.Auth.Password = pw
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MQTT.Broker.Port == 0 {
		c.MQTT.Broker.Port = 1883
	}
	if c.MQTT.Broker.ClientID == "" {
		c.MQTT.Broker.ClientID = "wmbusdv"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "wmbusdv/readings"
	}
}

func (c Config) validate() error {
	for id, key := range c.Keys {
		clean := strings.TrimSpace(key)
		if len(clean) != 32 {
			return fmt.Errorf("key for meter %s must be 32 hex digits, got %d", id, len(clean))
		}
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	return nil
}

// KeyFor returns the configured AES key hex for a meter id, if any.
func (c Config) KeyFor(meterID string) (string, bool) {
	key, ok := c.Keys[strings.ToUpper(meterID)]
	if !ok {
		key, ok = c.Keys[strings.ToLower(meterID)]
	}
	return key, ok
}

// BrokerURL renders the paho broker address.
func (c MQTTConfig) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.Broker.Host, c.Broker.Port)
}
