package mqtt

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-gateway/internal/data"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/config"
)

// Logger is the logging interface used by the client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Handler receives the payload of one message on a resource topic.
//
// Handlers run on paho's goroutines. An error is logged and counted; it
// does not affect acknowledgement.
type Handler func(res data.ResourceName, payload []byte) error

type route struct {
	qos     byte
	handler Handler
}

// Stats is a snapshot of the client's traffic counters.
type Stats struct {
	Received      uint64
	Published     uint64
	HandlerErrors uint64
	Reconnects    uint64
}

// Client is the gateway's broker connection.
//
// Subscriptions are keyed by resource and are restored after every
// reconnect. On connect the client announces itself on the retained system
// status topic; the broker announces an unexpected disconnect through the
// will.
//
// Thread Safety: All methods are safe for concurrent use.
type Client struct {
	cfg      config.MQTTConfig
	clientID string
	logger   Logger
	paho     pahomqtt.Client
	now      func() time.Time

	routesMu sync.RWMutex
	routes   map[data.ResourceName]route

	connected     atomic.Bool
	received      atomic.Uint64
	published     atomic.Uint64
	handlerErrors atomic.Uint64
	reconnects    atomic.Uint64
}

func newClient(cfg config.MQTTConfig, logger Logger) *Client {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Client{
		cfg:      cfg,
		clientID: resolveClientID(cfg),
		logger:   logger,
		now:      time.Now,
		routes:   make(map[data.ResourceName]route),
	}
}

// Connect opens the broker connection.
//
// Parameters:
//   - cfg: Broker address, credentials and reconnect policy
//   - logger: Receives connection and handler events; nil discards them
//
// Returns:
//   - *Client: Connected client
//   - error: ErrConnectionFailed if the broker is not reached within 10s
func Connect(cfg config.MQTTConfig, logger Logger) (*Client, error) {
	c := newClient(cfg, logger)

	opts := buildClientOptions(cfg, c.clientID)
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.onConnect() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.onConnectionLost(err) })
	opts.SetReconnectingHandler(func(pahomqtt.Client, *pahomqtt.ClientOptions) {
		c.reconnects.Add(1)
		c.logger.Warn("mqtt reconnecting", "broker", cfg.Broker.Host)
	})

	c.paho = pahomqtt.NewClient(opts)
	token := c.paho.Connect()
	if !token.WaitTimeout(connectTimeout) {
		// Stop the background retry loop started by SetConnectRetry.
		c.paho.Disconnect(0)
		return nil, fmt.Errorf("%w: %s:%d unreachable after %v",
			ErrConnectionFailed, cfg.Broker.Host, cfg.Broker.Port, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// onConnect may still be running; Connect returning means we are up.
	c.connected.Store(true)
	c.logger.Info("mqtt connected", "broker", cfg.Broker.Host, "client_id", c.clientID)
	return c, nil
}

// ClientID returns the ID presented to the broker.
func (c *Client) ClientID() string {
	return c.clientID
}

func (c *Client) onConnect() {
	c.connected.Store(true)

	c.routesMu.RLock()
	for res, r := range c.routes {
		// A failure surfaces again on the next reconnect.
		c.paho.Subscribe(res.Topic(), r.qos, c.deliver(res, r.handler))
	}
	c.routesMu.RUnlock()

	c.paho.Publish(Topics{}.SystemStatus(), statusQoS, true,
		statusPayload(StatusOnline, c.clientID, "", c.now()))
}

func (c *Client) onConnectionLost(err error) {
	c.connected.Store(false)
	c.logger.Warn("mqtt connection lost", "error", err)
}

// Close announces a graceful offline status and disconnects.
// Closing an unconnected client is a no-op.
func (c *Client) Close() error {
	if c.paho == nil {
		return nil
	}

	if c.IsConnected() {
		token := c.paho.Publish(Topics{}.SystemStatus(), statusQoS, true,
			statusPayload(StatusOffline, c.clientID, ReasonGraceful, c.now()))
		token.WaitTimeout(operationTimeout)
	}

	c.paho.Disconnect(disconnectQuiesce)
	c.connected.Store(false)
	return nil
}

// IsConnected returns the last known connection state.
func (c *Client) IsConnected() bool {
	return c.paho != nil && c.connected.Load() && c.paho.IsConnected()
}

// HealthCheck returns ErrNotConnected while the broker is unreachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// Stats returns a snapshot of the traffic counters.
func (c *Client) Stats() Stats {
	return Stats{
		Received:      c.received.Load(),
		Published:     c.published.Load(),
		HandlerErrors: c.handlerErrors.Load(),
		Reconnects:    c.reconnects.Load(),
	}
}

// Subscribe routes messages on the resource's topic to h, replacing any
// earlier handler for the same resource.
//
// Returns:
//   - error: ErrInvalidTopic, ErrInvalidQoS, ErrNotConnected or ErrSubscribeFailed
func (c *Client) Subscribe(res data.ResourceName, qos byte, h Handler) error {
	if _, ok := data.ParseResourceName(string(res)); !ok {
		return fmt.Errorf("%w: unknown resource %q", ErrInvalidTopic, res)
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if h == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.routesMu.Lock()
	c.routes[res] = route{qos: qos, handler: h}
	c.routesMu.Unlock()

	if err := c.wait(c.paho.Subscribe(res.Topic(), qos, c.deliver(res, h)), ErrSubscribeFailed); err != nil {
		c.routesMu.Lock()
		delete(c.routes, res)
		c.routesMu.Unlock()
		return err
	}
	return nil
}

// Unsubscribe stops routing messages for res. Messages already in flight
// may still be delivered.
func (c *Client) Unsubscribe(res data.ResourceName) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.routesMu.Lock()
	delete(c.routes, res)
	c.routesMu.Unlock()

	return c.wait(c.paho.Unsubscribe(res.Topic()), ErrSubscribeFailed)
}

// Subscriptions returns the subscribed resources in name order.
func (c *Client) Subscriptions() []data.ResourceName {
	c.routesMu.RLock()
	out := make([]data.ResourceName, 0, len(c.routes))
	for res := range c.routes {
		out = append(out, res)
	}
	c.routesMu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Publish sends payload on topic and waits for the broker acknowledgement
// required by qos.
//
// Returns:
//   - error: ErrInvalidTopic, ErrInvalidQoS, ErrPayloadTooLarge,
//     ErrNotConnected or ErrPublishFailed
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return fmt.Errorf("%w: empty topic", ErrInvalidTopic)
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrPayloadTooLarge, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	if err := c.wait(c.paho.Publish(topic, qos, retained, payload), ErrPublishFailed); err != nil {
		return err
	}
	c.published.Add(1)
	return nil
}

// PublishString publishes a string payload.
func (c *Client) PublishString(topic string, payload string, qos byte, retained bool) error {
	return c.Publish(topic, []byte(payload), qos, retained)
}

// wait blocks on a paho token and wraps its failure in sentinel.
func (c *Client) wait(token pahomqtt.Token, sentinel error) error {
	if !token.WaitTimeout(operationTimeout) {
		return fmt.Errorf("%w: timeout after %v", sentinel, operationTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return nil
}

// deliver adapts h to paho, counting messages and containing handler panics.
func (c *Client) deliver(res data.ResourceName, h Handler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		c.received.Add(1)
		defer func() {
			if r := recover(); r != nil {
				c.handlerErrors.Add(1)
				c.logger.Error("mqtt handler panic recovered", "resource", res.String(), "panic", r)
			}
		}()

		if err := h(res, msg.Payload()); err != nil {
			c.handlerErrors.Add(1)
			c.logger.Warn("mqtt handler failed", "resource", res.String(), "topic", msg.Topic(), "error", err)
		}
	}
}
