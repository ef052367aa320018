package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-gateway/internal/data"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/config"
)

// Frame types.
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FramePing        = "ping"
	FramePong        = "pong"
	FrameEvent       = "event"
	FrameAck         = "ack"
	FrameError       = "error"
)

// AllResourcesWildcard in a subscribe frame selects every known resource.
const AllResourcesWildcard = "*"

const (
	defaultWSPath           = "/ws"
	defaultWSMaxMessageSize = 8192
	defaultWSPingInterval   = 30
	defaultWSPongTimeout    = 10

	// clientQueueLen frames may wait for a slow client before new ones are dropped.
	clientQueueLen = 256
)

// Frame is the single JSON shape exchanged over the WebSocket.
//
// Clients send subscribe, unsubscribe and ping frames. The server answers
// with ack, pong or error frames echoing ID, and pushes an event frame for
// every payload published on a subscribed resource.
type Frame struct {
	Type      string   `json:"type"`
	ID        string   `json:"id,omitempty"`
	Resource  string   `json:"resource,omitempty"`
	Resources []string `json:"resources,omitempty"`
	Time      string   `json:"time,omitempty"`
	Payload   any      `json:"payload,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Hub fans published payloads out to WebSocket clients by resource.
type Hub struct {
	cfg    config.WebSocketConfig
	logger Logger

	// latest supplies the replay sent right after a subscribe. May be nil.
	latest func(data.ResourceName) (string, bool)

	mu      sync.RWMutex
	clients map[*wsClient]struct{}

	dropped atomic.Uint64
}

type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu   sync.RWMutex
	subs map[data.ResourceName]struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// corsMiddleware has already vetted the origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// withWebSocketDefaults fills unset WebSocket settings.
func withWebSocketDefaults(cfg config.WebSocketConfig) config.WebSocketConfig {
	if cfg.Path == "" {
		cfg.Path = defaultWSPath
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultWSMaxMessageSize
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultWSPingInterval
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = defaultWSPongTimeout
	}
	return cfg
}

// NewHub creates a hub. latest, when non-nil, is consulted on every
// subscribe so the client immediately receives the current value of each
// resource it asked for.
func NewHub(cfg config.WebSocketConfig, logger Logger, latest func(data.ResourceName) (string, bool)) *Hub {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Hub{
		cfg:     withWebSocketDefaults(cfg),
		logger:  logger,
		latest:  latest,
		clients: make(map[*wsClient]struct{}),
	}
}

// Run waits for ctx and then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", n)
}

// unregister closes c.send exactly once: only the caller that removes c
// from the map may close it, whether that is disconnect or Run.
func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if present {
		close(c.send)
		h.logger.Debug("websocket client disconnected", "clients", n)
	}
}

// Broadcast pushes payload as an event to every client subscribed to res.
func (h *Hub) Broadcast(res data.ResourceName, payload string) {
	frame, err := eventFrame(res, payload)
	if err != nil {
		h.logger.Error("encoding websocket event failed", "resource", res.String(), "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		if c.subscribed(res) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(frame)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many frames were discarded because a client's queue was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

func eventFrame(res data.ResourceName, payload string) ([]byte, error) {
	return json.Marshal(Frame{
		Type:     FrameEvent,
		Resource: res.String(),
		Time:     time.Now().UTC().Format(time.RFC3339Nano),
		Payload:  rawPayload(payload),
	})
}

// rawPayload embeds JSON payloads as-is and wraps anything else as a string.
func rawPayload(payload string) any {
	if isJSON(payload) {
		return json.RawMessage(payload)
	}
	return payload
}

func isJSON(payload string) bool {
	return payload != "" && json.Valid([]byte(payload))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err, "request_id", RequestID(r.Context()))
		return
	}

	hub := s.currentHub()
	c := &wsClient{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, clientQueueLen),
		subs: make(map[data.ResourceName]struct{}),
	}
	hub.register(c)

	go c.writeLoop()
	go c.readLoop()
}

func (c *wsClient) deadlines() (ping, pong time.Duration) {
	cfg := c.hub.cfg
	return time.Duration(cfg.PingInterval) * time.Second, time.Duration(cfg.PongTimeout) * time.Second
}

func (c *wsClient) readLoop() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	ping, pong := c.deadlines()
	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(ping + pong)) }

	c.conn.SetReadLimit(int64(c.hub.cfg.MaxMessageSize))
	extend() //nolint:errcheck // a failed deadline surfaces on the next read
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		extend() //nolint:errcheck // a failed deadline surfaces on the next read
		c.handle(raw)
	}
}

func (c *wsClient) writeLoop() {
	ping, pong := c.deadlines()
	ticker := time.NewTicker(ping)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	write := func(kind int, b []byte) error {
		c.conn.SetWriteDeadline(time.Now().Add(pong)) //nolint:errcheck // the write reports it
		return c.conn.WriteMessage(kind, b)
	}

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				write(websocket.CloseMessage, nil) //nolint:errcheck // closing anyway
				return
			}
			if err := write(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) handle(raw []byte) {
	var in Frame
	if err := json.Unmarshal(raw, &in); err != nil {
		c.reply(Frame{Type: FrameError, Error: "frame is not valid JSON"})
		return
	}

	switch in.Type {
	case FrameSubscribe, FrameUnsubscribe:
		resources, bad := parseResources(in.Resources)
		if bad != "" {
			c.reply(Frame{Type: FrameError, ID: in.ID, Error: "unknown resource " + bad})
			return
		}
		if in.Type == FrameSubscribe {
			c.subscribe(in.ID, resources)
		} else {
			c.unsubscribe(in.ID, resources)
		}
	case FramePing:
		c.reply(Frame{Type: FramePong, ID: in.ID})
	default:
		c.reply(Frame{Type: FrameError, ID: in.ID, Error: "unsupported frame type " + in.Type})
	}
}

// parseResources accepts resource names, topics, paths and the wildcard.
// It returns the first entry it cannot resolve.
func parseResources(names []string) ([]data.ResourceName, string) {
	if len(names) == 0 {
		return nil, "(none)"
	}
	out := make([]data.ResourceName, 0, len(names))
	for _, n := range names {
		if n == AllResourcesWildcard {
			return data.AllResources(), ""
		}
		res, ok := data.ParseResourceName(n)
		if !ok {
			return nil, n
		}
		out = append(out, res)
	}
	return out, ""
}

func (c *wsClient) subscribe(id string, resources []data.ResourceName) {
	c.mu.Lock()
	for _, res := range resources {
		c.subs[res] = struct{}{}
	}
	c.mu.Unlock()

	c.reply(Frame{Type: FrameAck, ID: id, Resources: names(resources)})

	if c.hub.latest == nil {
		return
	}
	for _, res := range resources {
		payload, ok := c.hub.latest(res)
		if !ok {
			continue
		}
		if frame, err := eventFrame(res, payload); err == nil {
			c.enqueue(frame)
		}
	}
}

func (c *wsClient) unsubscribe(id string, resources []data.ResourceName) {
	c.mu.Lock()
	for _, res := range resources {
		delete(c.subs, res)
	}
	c.mu.Unlock()

	c.reply(Frame{Type: FrameAck, ID: id, Resources: names(resources)})
}

func (c *wsClient) subscribed(res data.ResourceName) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subs[res]
	return ok
}

func (c *wsClient) reply(f Frame) {
	f.Time = time.Now().UTC().Format(time.RFC3339Nano)
	b, err := json.Marshal(f)
	if err != nil {
		return
	}
	c.enqueue(b)
}

// enqueue never blocks. A full queue drops the frame, and a send racing
// with disconnect is absorbed.
func (c *wsClient) enqueue(frame []byte) {
	defer func() {
		recover() //nolint:errcheck // send on a channel closed by unregister
	}()

	select {
	case c.send <- frame:
	default:
		c.hub.dropped.Add(1)
	}
}

func names(resources []data.ResourceName) []string {
	out := make([]string, len(resources))
	for i, res := range resources {
		out[i] = res.String()
	}
	return out
}
