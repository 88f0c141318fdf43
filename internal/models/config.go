package models

import "fmt"

// ServiceConfig is the static service configuration loaded from
// edge-controller.conf. It is read once at startup and never mutated.
type ServiceConfig struct {
	RegistryHost string `yaml:"registry_host"`
	RegistryPort int    `yaml:"registry_port"`
}

// BaseURL returns the registry base URL, e.g. "http://central-api:8000".
func (c *ServiceConfig) BaseURL() string {
	host := c.RegistryHost
	if host == "" {
		host = "localhost"
	}
	port := c.RegistryPort
	if port == 0 {
		port = 8000
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

// BrokerConfig holds MQTT broker connection details delivered by the registry.
type BrokerConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
}

// RuntimeConfig is the operating configuration an edge controller needs:
// its identity, its train assignment and the broker to talk through.
// It is created by registration or download and cached on disk.
type RuntimeConfig struct {
	UUID          string       `yaml:"uuid" json:"uuid"`
	TrainID       string       `yaml:"train_id" json:"train_id"`
	Broker        BrokerConfig `yaml:"mqtt_broker" json:"mqtt_broker"`
	StatusTopic   string       `yaml:"status_topic" json:"status_topic"`
	CommandsTopic string       `yaml:"commands_topic" json:"commands_topic"`
}

// Complete reports whether the config is usable without the registry:
// it must carry both a train assignment and broker connection details.
func (c *RuntimeConfig) Complete() bool {
	return c != nil && c.TrainID != "" && c.Broker.Host != ""
}

// ApplyTopicDefaults fills in the per-train topic names when the registry
// response omitted them.
func (c *RuntimeConfig) ApplyTopicDefaults() {
	if c.TrainID == "" {
		return
	}
	if c.StatusTopic == "" {
		c.StatusTopic = fmt.Sprintf("trains/%s/status", c.TrainID)
	}
	if c.CommandsTopic == "" {
		c.CommandsTopic = fmt.Sprintf("trains/%s/commands", c.TrainID)
	}
}
