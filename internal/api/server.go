package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-gateway/internal/data"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/metrics"
	"github.com/nerrad567/gray-logic-gateway/internal/message"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Logger is the logging interface used by the server.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WebSocket config.WebSocketConfig
	Logger    Logger

	// Metrics is optional. When nil, /metrics returns 404.
	Metrics *metrics.Metrics
	Version string

	// Status is optional and backs GET /api/v1/status.
	Status func() any
}

// Server is the gateway's request/response server.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
//
// Thread Safety: All methods are safe for concurrent use.
type Server struct {
	cfg     config.APIConfig
	wsCfg   config.WebSocketConfig
	logger  Logger
	metrics *metrics.Metrics
	version string
	status  func() any

	listener atomic.Pointer[listenerRef]
	hub      *Hub
	router   http.Handler

	latestMu sync.RWMutex
	latest   map[data.ResourceName]string

	lifeMu sync.Mutex // serialises Start and Stop

	mu        sync.Mutex // guards the fields below
	server    *http.Server
	addr      net.Addr
	startTime time.Time
	cancel    context.CancelFunc // stops the hub on Stop()
	done      chan struct{}      // closed when Serve returns
}

type listenerRef struct {
	l message.Listener
}

// Compile-time interface checks.
var (
	_ message.Connector                 = (*Server)(nil)
	_ message.DataMessageListenerSetter = (*Server)(nil)
	_ message.Publisher                 = (*Server)(nil)
	_ message.ActuatorListener          = (*Server)(nil)
)

// New creates a new API server with the given dependencies.
//
// The server does not bind a port until Start() is called.
//
// Parameters:
//   - deps: Server configuration and optional collaborators
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If the configuration is unusable
func New(deps Deps) (*Server, error) {
	if deps.Config.Port < 0 || deps.Config.Port > 65535 {
		return nil, fmt.Errorf("invalid api port %d", deps.Config.Port)
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	s := &Server{
		cfg:     deps.Config,
		wsCfg:   withWebSocketDefaults(deps.WebSocket),
		logger:  logger,
		metrics: deps.Metrics,
		version: deps.Version,
		status:  deps.Status,
		latest:  make(map[data.ResourceName]string),
	}
	s.hub = NewHub(s.wsCfg, logger, s.Latest)
	s.router = s.buildRouter()
	return s, nil
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetDataMessageListener sets the listener that receives inbound messages.
// Passing nil clears it. Always returns true.
func (s *Server) SetDataMessageListener(l message.Listener) bool {
	if l == nil {
		s.listener.Store(nil)
		return true
	}
	s.listener.Store(&listenerRef{l: l})
	return true
}

func (s *Server) dataListener() message.Listener {
	if ref := s.listener.Load(); ref != nil {
		return ref.l
	}
	return nil
}

// Start binds the listen address and serves requests in the background.
//
// Calling Start on a running server is a no-op.
//
// Parameters:
//   - ctx: Parent context for the WebSocket hub
//
// Returns:
//   - error: If the address cannot be bound
func (s *Server) Start(ctx context.Context) error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.IsRunning() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("starting api server: %w", err)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.cfg.Timeouts.ReadDuration(),
		ReadHeaderTimeout: s.cfg.Timeouts.ReadDuration(),
		WriteTimeout:      s.cfg.Timeouts.WriteDuration(),
		IdleTimeout:       s.cfg.Timeouts.IdleDuration(),
	}

	hub := NewHub(s.wsCfg, s.logger, s.Latest)
	hubCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	go hub.Run(hubCtx)

	done := make(chan struct{})

	s.mu.Lock()
	s.server = srv
	s.hub = hub
	s.addr = ln.Addr()
	s.startTime = time.Now()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", err)
		}
	}()

	s.logger.Info("api server started", "address", ln.Addr().String())
	return nil
}

// Stop gracefully shuts down the server.
//
// It waits up to 10 seconds for in-flight requests to complete, then
// forcefully closes remaining connections. Stopping a stopped server is a no-op.
func (s *Server) Stop() error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	s.mu.Lock()
	srv, cancelHub, done := s.server, s.cancel, s.done
	s.server = nil
	s.addr = nil
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	cancelHub()

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("api server shutting down")
	err := srv.Shutdown(ctx)
	<-done

	if err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return nil
}

// IsRunning reports whether the server is serving requests.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server != nil
}

// Addr returns the bound address, or nil when the server is stopped.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// HealthCheck verifies the API server is running.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if !s.IsRunning() {
		return fmt.Errorf("api server not started")
	}
	return nil
}

// Publish stores payload as the latest value of res and streams it to
// WebSocket clients subscribed to the resource. The qos argument is ignored;
// delivery over HTTP is best effort.
//
// Returns false when the server is not running.
func (s *Server) Publish(res data.ResourceName, payload string, _ int) bool {
	if !s.IsRunning() {
		return false
	}
	s.storeLatest(res, payload)
	s.currentHub().Broadcast(res, payload)
	return true
}

// OnActuatorDataUpdate makes an actuator command available to devices on the
// command resource, both for GET polling and over WebSocket.
//
// Returns false when the server is not running or the command cannot be encoded.
func (s *Server) OnActuatorDataUpdate(d *data.ActuatorData) bool {
	if d == nil || !s.IsRunning() {
		return false
	}
	payload, err := data.ToJSON(d)
	if err != nil {
		s.logger.Warn("encoding actuator command failed", "name", d.Name(), "error", err)
		return false
	}
	res := data.CDAActuatorCmdResource
	s.storeLatest(res, payload)
	s.currentHub().Broadcast(res, payload)
	return true
}

func (s *Server) currentHub() *Hub {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hub
}

func (s *Server) storeLatest(res data.ResourceName, payload string) {
	s.latestMu.Lock()
	s.latest[res] = payload
	s.latestMu.Unlock()
}

// Latest returns the most recent payload published on res.
func (s *Server) Latest(res data.ResourceName) (string, bool) {
	s.latestMu.RLock()
	defer s.latestMu.RUnlock()
	payload, ok := s.latest[res]
	return payload, ok
}

func (s *Server) uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return 0
	}
	return time.Since(s.startTime)
}
