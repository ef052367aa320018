package connection

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-gateway/internal/data"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-gateway/internal/message"
)

// mqttClient is the subset of *mqtt.Client used by the connector.
type mqttClient interface {
	Subscribe(res data.ResourceName, qos byte, h mqtt.Handler) error
	PublishString(topic string, payload string, qos byte, retained bool) error
	Stats() mqtt.Stats
	Close() error
}

// MQTTClientConnector links the gateway to constrained devices over MQTT.
//
// Inbound: every resource in data.InboundResources is subscribed and each
// message is decoded and delivered to the listener.
// Outbound: Publish sends upstream records on mqtt.Topics.Upstream, and
// OnActuatorDataUpdate sends actuator commands to devices.
type MQTTClientConnector struct {
	cfg     config.MQTTConfig
	logger  Logger
	connect func(config.MQTTConfig) (mqttClient, error)

	listener listenerSlot

	mu     sync.RWMutex
	client mqttClient
}

// NewMQTTClientConnector creates a connector. It does not connect.
func NewMQTTClientConnector(cfg config.MQTTConfig, logger Logger) *MQTTClientConnector {
	logger = orNoop(logger)
	return &MQTTClientConnector{
		cfg:    cfg,
		logger: logger,
		connect: func(cfg config.MQTTConfig) (mqttClient, error) {
			c, err := mqtt.Connect(cfg, logger)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}

// SetDataMessageListener registers the sink for decoded inbound records.
func (c *MQTTClientConnector) SetDataMessageListener(l message.Listener) bool {
	c.listener.set(l)
	return true
}

// Start connects to the broker and subscribes to the inbound resources.
func (c *MQTTClientConnector) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	client, err := c.connect(c.cfg)
	if err != nil {
		return fmt.Errorf("starting mqtt client connector: %w", err)
	}

	qos := byte(c.cfg.QoS) //nolint:gosec // QoS validated by config.Validate (0-2)
	for _, res := range data.InboundResources() {
		if err := client.Subscribe(res, qos, c.handle); err != nil {
			_ = client.Close()
			return fmt.Errorf("subscribing to %s: %w", res, err)
		}
	}

	c.client = client
	c.logger.Info("mqtt client connector started",
		"broker", c.cfg.Broker.Host,
		"subscriptions", len(data.InboundResources()),
	)
	return nil
}

// Stop disconnects from the broker.
func (c *MQTTClientConnector) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	st := c.client.Stats()
	err := c.client.Close()
	c.client = nil
	if err != nil {
		return fmt.Errorf("stopping mqtt client connector: %w", err)
	}
	c.logger.Info("mqtt client connector stopped",
		"received", st.Received,
		"published", st.Published,
		"handler_errors", st.HandlerErrors,
		"reconnects", st.Reconnects,
	)
	return nil
}

// Publish sends payload on the upstream topic for res.
func (c *MQTTClientConnector) Publish(res data.ResourceName, payload string, qos int) bool {
	return c.publish(mqtt.Topics{}.Upstream(res), payload, qos)
}

// OnActuatorDataUpdate sends an actuator command to devices on the actuator
// command resource topic.
func (c *MQTTClientConnector) OnActuatorDataUpdate(d *data.ActuatorData) bool {
	if d == nil {
		return false
	}
	payload, err := data.ToJSON(d)
	if err != nil {
		c.logger.Error("failed to encode actuator command", "error", err)
		return false
	}
	return c.publish(mqtt.Topics{}.Resource(data.CDAActuatorCmdResource), payload, c.cfg.QoS)
}

func (c *MQTTClientConnector) publish(topic, payload string, qos int) bool {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	if client == nil {
		c.logger.Debug("mqtt client connector not started, dropping payload", "topic", topic)
		return false
	}
	if qos < message.QoSAtMostOnce || qos > message.QoSExactlyOnce {
		qos = c.cfg.QoS
	}

	if err := client.PublishString(topic, payload, byte(qos), false); err != nil { //nolint:gosec // qos bounded above
		c.logger.Error("mqtt publish failed", "topic", topic, "error", err)
		return false
	}
	return true
}

// handle decodes one inbound message and hands it to the listener.
func (c *MQTTClientConnector) handle(res data.ResourceName, payload []byte) error {
	l := c.listener.get()
	if l == nil {
		c.logger.Debug("no listener registered, dropping mqtt message", "resource", res.String())
		return nil
	}
	if _, err := message.Dispatch(l, res, payload); err != nil {
		return fmt.Errorf("dispatching %s: %w", res, err)
	}
	return nil
}

// Compile-time interface checks.
var (
	_ message.Connector        = (*MQTTClientConnector)(nil)
	_ message.Publisher        = (*MQTTClientConnector)(nil)
	_ message.ActuatorListener = (*MQTTClientConnector)(nil)
)
