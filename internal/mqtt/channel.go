package mqtt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"train-controller/internal/models"
)

// Errors propagated to the startup orchestrator. Everything that happens
// inside a message callback is caught and logged instead.
var (
	ErrConnectionFailed = errors.New("mqtt connection failed")
	ErrPublishFailed    = errors.New("mqtt publish failed")
)

// statusPushTimeout bounds the best-effort HTTP telemetry fallback.
const statusPushTimeout = 2 * time.Second

// ChannelConfig holds everything the channel needs: broker address and
// credentials from the runtime config, the per-train topics and the command
// callback.
type ChannelConfig struct {
	BrokerHost string
	BrokerPort int
	Username   string
	Password   string
	ClientID   string

	StatusTopic   string
	CommandsTopic string

	// CentralAPIURL, when set, enables the HTTP status fallback
	// (POST {CentralAPIURL}/api/status/update).
	CentralAPIURL string

	// OnCommand receives every well-formed command from the commands topic.
	OnCommand func(models.Command)
}

// Channel is the persistent pub/sub session to the broker: it subscribes to
// the per-train commands topic and publishes status snapshots to the status
// topic, with an optional HTTP fallback for telemetry redundancy.
type Channel struct {
	client     mqtt.Client
	cfg        ChannelConfig
	httpClient *http.Client
}

// NewChannel creates a message channel. The constructor does not connect;
// call Start to open the session.
func NewChannel(cfg ChannelConfig) *Channel {
	ch := &Channel{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: statusPushTimeout},
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.BrokerHost, cfg.BrokerPort))
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// Subscribing inside OnConnect means the subscription is re-established
	// on every reconnect, not just the first connection.
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Printf("MQTT: connected to broker %s:%d", cfg.BrokerHost, cfg.BrokerPort)
		token := client.Subscribe(cfg.CommandsTopic, 0, ch.handleMessage)
		if token.Wait() && token.Error() != nil {
			log.Printf("MQTT: failed to subscribe to %s: %v", cfg.CommandsTopic, token.Error())
			return
		}
		log.Printf("MQTT: subscribed to commands topic %s", cfg.CommandsTopic)
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("MQTT: connection lost: %v", err)
	})

	ch.client = mqtt.NewClient(opts)
	return ch
}

// Start opens the broker session. The subscription itself happens in the
// OnConnect handler.
func (c *Channel) Start() error {
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, token.Error())
	}
	return nil
}

// Stop unsubscribes and disconnects. Idempotent; errors are logged, never
// returned.
func (c *Channel) Stop() {
	if !c.client.IsConnected() {
		return
	}
	if token := c.client.Unsubscribe(c.cfg.CommandsTopic); token.Wait() && token.Error() != nil {
		log.Printf("MQTT: failed to unsubscribe from %s: %v", c.cfg.CommandsTopic, token.Error())
	}
	c.client.Disconnect(250)
	log.Printf("MQTT: disconnected")
}

// handleMessage validates inbound payloads at the channel boundary. Malformed
// JSON and non-object payloads are logged and dropped; the pub/sub session
// must survive arbitrary payloads.
func (c *Channel) handleMessage(client mqtt.Client, msg mqtt.Message) {
	cmd, err := models.ParseCommand(msg.Payload())
	if err != nil {
		log.Printf("MQTT: dropping bad payload on %s: %v", msg.Topic(), err)
		return
	}

	log.Printf("MQTT: received command on %s: action=%s", msg.Topic(), cmd.Action)
	if c.cfg.OnCommand != nil {
		c.cfg.OnCommand(cmd)
	}
}

// PublishStatus publishes a snapshot to the status topic, then mirrors it to
// the HTTP fallback when one is configured. The fallback is best-effort and
// never masks or blocks the primary publish.
func (c *Channel) PublishStatus(status models.StatusSnapshot) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("%w: status not serializable: %v", ErrPublishFailed, err)
	}

	token := c.client.Publish(c.cfg.StatusTopic, 0, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("%w: %v", ErrPublishFailed, token.Error())
	}

	if c.cfg.CentralAPIURL != "" {
		c.pushStatusHTTP(payload)
	}
	return nil
}

// pushStatusHTTP posts the snapshot to the registry's status endpoint so
// telemetry reaches the central store even when no MQTT subscriber is
// listening. All errors are swallowed.
func (c *Channel) pushStatusHTTP(payload []byte) {
	url := c.cfg.CentralAPIURL + "/api/status/update"
	resp, err := c.httpClient.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Printf("MQTT: status push to %s failed: %v", url, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("MQTT: status push rejected with status %d", resp.StatusCode)
	}
}
