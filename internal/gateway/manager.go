package gateway

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-gateway/internal/data"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/metrics"
	"github.com/nerrad567/gray-logic-gateway/internal/message"
)

// Component names used in logs and the status view.
const (
	ComponentSystemPerf        = "system_perf"
	ComponentMQTTClient        = "mqtt_client"
	ComponentCoAPServer        = "coap_server"
	ComponentCloudClient       = "cloud_client"
	ComponentPersistenceClient = "persistence_client"
	ComponentSMTPClient        = "smtp_client"
)

// Logger defines the logging interface for the gateway manager.
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

// Flags selects which optional components the Manager instantiates.
type Flags struct {
	MQTTClient        bool
	CoAPServer        bool
	CloudClient       bool
	SMTPClient        bool
	PersistenceClient bool
	SystemPerf        bool
}

// FlagsFromConfig reads the gateway section enable flags.
func FlagsFromConfig(cfg *config.Config) Flags {
	return Flags{
		MQTTClient:        cfg.GetBool(config.SectionGateway, config.KeyEnableMQTTClient),
		CoAPServer:        cfg.GetBool(config.SectionGateway, config.KeyEnableCoAPServer),
		CloudClient:       cfg.GetBool(config.SectionGateway, config.KeyEnableCloudClient),
		SMTPClient:        cfg.GetBool(config.SectionGateway, config.KeyEnableSMTPClient),
		PersistenceClient: cfg.GetBool(config.SectionGateway, config.KeyEnablePersistenceClient),
		SystemPerf:        cfg.GetBool(config.SectionGateway, config.KeyEnableSystemPerf),
	}
}

// Deps holds the Manager's collaborators.
type Deps struct {
	Logger    Logger
	Metrics   *metrics.Metrics
	Factories Factories
	Version   string
}

// Status is a point-in-time view of the Manager.
type Status struct {
	GatewayID  string                      `json:"gatewayId"`
	Running    bool                        `json:"running"`
	Components map[string]bool             `json:"components"`
	SystemPerf *data.SystemPerformanceData `json:"systemPerf,omitempty"`
}

// actuatorRef pairs an actuator listener with its registration name.
type actuatorRef struct {
	name     string
	listener message.ActuatorListener
}

// namedComponent keeps a component with its name for logging.
type namedComponent struct {
	name string
	c    Component
}

// namedPublisher keeps a publisher with its name for logging.
type namedPublisher struct {
	name string
	p    message.Publisher
}

// Manager mediates between constrained devices, local components and
// upstream services.
type Manager struct {
	flags     Flags
	gatewayID string
	qos       int
	logger    Logger
	metrics   *metrics.Metrics

	sysPerf     slot[Component]
	mqttClient  slot[Component]
	coapServer  slot[Component]
	cloudClient slot[Component]
	persistence slot[Component]
	smtpClient  slot[Component]

	// Built once during composition, read-only afterwards.
	components []namedComponent
	publishers []namedPublisher

	actuator atomic.Pointer[actuatorRef]

	// mu serialises StartManager and StopManager; running is read without it
	// so Status never waits on a component shutdown.
	mu      sync.Mutex
	running atomic.Bool
}

// NewManager creates a Manager whose components are selected by the
// gateway section flags of cfg. A nil cfg uses config.Default().
func NewManager(cfg *config.Config, deps Deps) *Manager {
	if cfg == nil {
		cfg = config.Default()
	}
	return newManager(cfg, FlagsFromConfig(cfg), deps)
}

// NewManagerWithFlags creates a Manager with explicit connector flags. The
// SystemPerf flag is always read from cfg.
func NewManagerWithFlags(cfg *config.Config, flags Flags, deps Deps) *Manager {
	if cfg == nil {
		cfg = config.Default()
	}
	flags.SystemPerf = cfg.GetBool(config.SectionGateway, config.KeyEnableSystemPerf)
	return newManager(cfg, flags, deps)
}

func newManager(cfg *config.Config, flags Flags, deps Deps) *Manager {
	m := &Manager{
		flags:     flags,
		gatewayID: cfg.GetStringOrDefault(config.SectionGateway, "id", "gateway"),
		qos:       cfg.GetIntOrDefault(config.SectionMQTT, "qos", message.QoSAtLeastOnce),
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}
	if m.logger == nil {
		m.logger = noopLogger{}
	}

	env := Env{
		Logger:  m.logger,
		Metrics: m.metrics,
		Version: deps.Version,
		Status:  func() any { return m.Status() },
	}

	f := deps.Factories
	m.sysPerf = m.build(ComponentSystemPerf, flags.SystemPerf, f.SystemPerf, cfg, env)
	m.persistence = m.build(ComponentPersistenceClient, flags.PersistenceClient, f.PersistenceClient, cfg, env)
	m.cloudClient = m.build(ComponentCloudClient, flags.CloudClient, f.CloudClient, cfg, env)
	m.mqttClient = m.build(ComponentMQTTClient, flags.MQTTClient, f.MQTTClient, cfg, env)
	m.smtpClient = m.build(ComponentSMTPClient, flags.SMTPClient, f.SMTPClient, cfg, env)
	m.coapServer = m.build(ComponentCoAPServer, flags.CoAPServer, f.CoAPServer, cfg, env)

	m.registerActuatorSink()

	m.logger.Info("gateway manager created",
		"gateway_id", m.gatewayID,
		"components", len(m.components),
		"publishers", len(m.publishers),
	)
	return m
}

// build instantiates one component when its flag is set and registers the
// Manager as its listener.
func (m *Manager) build(name string, enabled bool, factory Factory, cfg *config.Config, env Env) slot[Component] {
	if !enabled {
		return slot[Component]{}
	}
	if factory == nil {
		m.logger.Warn("component enabled but no factory available", "component", name)
		return slot[Component]{}
	}

	c, err := factory(cfg, env)
	if err != nil {
		m.logger.Error("failed to create component", "component", name, "error", err)
		return slot[Component]{}
	}
	if c == nil {
		return slot[Component]{}
	}

	c.SetDataMessageListener(m)
	m.components = append(m.components, namedComponent{name: name, c: c})
	if p, ok := c.(message.Publisher); ok {
		m.publishers = append(m.publishers, namedPublisher{name: name, p: p})
	}
	m.logger.Debug("component created", "component", name)
	return filled(c)
}

// registerActuatorSink makes the request/response gateway (or, failing
// that, the MQTT client) the default actuator listener.
func (m *Manager) registerActuatorSink() {
	for _, s := range []struct {
		name string
		slot slot[Component]
	}{
		{ComponentCoAPServer, m.coapServer},
		{ComponentMQTTClient, m.mqttClient},
	} {
		c, ok := s.slot.get()
		if !ok {
			continue
		}
		if l, ok := c.(message.ActuatorListener); ok {
			m.SetActuatorDataListener(s.name, l)
			return
		}
	}
}

// Flags returns a copy of the flags the Manager was built with.
func (m *Manager) Flags() Flags {
	return m.flags
}

// GatewayID returns the configured gateway identifier.
func (m *Manager) GatewayID() string {
	return m.gatewayID
}

// StartManager starts every present component. A component that fails to
// start is logged and skipped. Starting a running Manager is a no-op.
func (m *Manager) StartManager(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running.Load() {
		m.logger.Debug("gateway manager already running")
		return nil
	}

	started := 0
	for _, nc := range m.components {
		if err := nc.c.Start(ctx); err != nil {
			m.logger.Error("failed to start component", "component", nc.name, "error", err)
			continue
		}
		started++
		m.logger.Info("component started", "component", nc.name)
	}

	m.running.Store(true)
	m.logger.Info("gateway manager started", "started", started, "components", len(m.components))
	return nil
}

// StopManager stops every present component in reverse start order.
// Stopping a stopped Manager is a no-op.
func (m *Manager) StopManager() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running.Load() {
		return nil
	}

	for i := len(m.components) - 1; i >= 0; i-- {
		nc := m.components[i]
		if err := nc.c.Stop(); err != nil {
			m.logger.Error("failed to stop component", "component", nc.name, "error", err)
			continue
		}
		m.logger.Info("component stopped", "component", nc.name)
	}

	m.running.Store(false)
	m.logger.Info("gateway manager stopped")
	return nil
}

// IsRunning reports whether StartManager has been called without a
// subsequent StopManager.
func (m *Manager) IsRunning() bool {
	return m.running.Load()
}

// Status returns a snapshot of the Manager's state.
func (m *Manager) Status() Status {
	st := Status{
		GatewayID: m.gatewayID,
		Running:   m.IsRunning(),
		Components: map[string]bool{
			ComponentSystemPerf:        m.sysPerf.present,
			ComponentMQTTClient:        m.mqttClient.present,
			ComponentCoAPServer:        m.coapServer.present,
			ComponentCloudClient:       m.cloudClient.present,
			ComponentPersistenceClient: m.persistence.present,
			ComponentSMTPClient:        m.smtpClient.present,
		},
	}

	if c, ok := m.sysPerf.get(); ok {
		if sp, ok := c.(interface {
			LastSnapshot() *data.SystemPerformanceData
		}); ok {
			st.SystemPerf = sp.LastSnapshot()
		}
	}
	return st
}

// SetActuatorDataListener registers the sink for actuator commands,
// replacing any previous one. A nil listener clears the registration.
func (m *Manager) SetActuatorDataListener(name string, l message.ActuatorListener) {
	if l == nil {
		m.actuator.Store(nil)
		m.logger.Info("actuator data listener cleared", "name", name)
		return
	}
	m.actuator.Store(&actuatorRef{name: name, listener: l})
	m.logger.Info("actuator data listener registered", "name", name)
}

// HandleActuatorCommandResponse processes a response from an actuator.
func (m *Manager) HandleActuatorCommandResponse(res data.ResourceName, d *data.ActuatorData) bool {
	if d == nil {
		m.metrics.ObserveMessage(data.KindActuator.String(), false)
		return false
	}

	m.logger.Info("actuator command response received",
		"resource", res.String(),
		"name", d.Name(),
		"command", d.Command(),
		"status_code", d.StatusCode(),
	)
	m.analyzeActuatorResponse(res, d)
	m.checkDataError(res, d.Kind(), &d.Base)

	m.metrics.ObserveMessage(data.KindActuator.String(), true)
	return true
}

// HandleActuatorCommandRequest forwards an actuator command to the
// registered actuator listener. It returns false when no listener is
// registered.
func (m *Manager) HandleActuatorCommandRequest(res data.ResourceName, d *data.ActuatorData) bool {
	if d == nil {
		m.metrics.ObserveMessage(data.KindActuator.String(), false)
		return false
	}

	m.logger.Info("actuator command request received",
		"resource", res.String(),
		"name", d.Name(),
		"command", d.Command(),
	)

	ok := m.dispatchActuatorCommand(d)
	m.metrics.ObserveMessage(data.KindActuator.String(), ok)
	return ok
}

// HandleIncomingMessage processes a raw text message. Management commands
// that decode as SystemStateData run the system state analysis.
func (m *Manager) HandleIncomingMessage(res data.ResourceName, msg string) bool {
	if msg == "" {
		m.metrics.ObserveMessage("text", false)
		return false
	}

	m.logger.Info("incoming message received", "resource", res.String(), "length", len(msg))

	if res.IsManagementCommand() {
		state, err := data.SystemStateDataFromJSON(msg)
		if err != nil {
			m.logger.Debug("management message is not system state data",
				"resource", res.String(),
				"error", err,
			)
		} else {
			m.analyzeSystemState(res, state)
		}
	}

	m.metrics.ObserveMessage("text", true)
	return true
}

// HandleSensorMessage processes a sensor reading and forwards it upstream.
func (m *Manager) HandleSensorMessage(res data.ResourceName, d *data.SensorData) bool {
	if d == nil {
		m.metrics.ObserveMessage(data.KindSensor.String(), false)
		return false
	}

	m.logger.Info("sensor message received",
		"resource", res.String(),
		"name", d.Name(),
		"value", d.Value(),
	)
	m.checkDataError(res, d.Kind(), &d.Base)
	m.transmit(res, d)

	m.metrics.ObserveMessage(data.KindSensor.String(), true)
	return true
}

// HandleSystemPerformanceMessage processes a performance snapshot and
// forwards it upstream.
func (m *Manager) HandleSystemPerformanceMessage(res data.ResourceName, d *data.SystemPerformanceData) bool {
	if d == nil {
		m.metrics.ObserveMessage(data.KindSystemPerformance.String(), false)
		return false
	}

	m.logger.Info("system performance message received",
		"resource", res.String(),
		"cpu_util", d.CPUUtilization(),
		"mem_util", d.MemoryUtilization(),
		"disk_util", d.DiskUtilization(),
	)
	m.checkDataError(res, d.Kind(), &d.Base)
	m.transmit(res, d)

	m.metrics.ObserveMessage(data.KindSystemPerformance.String(), true)
	return true
}

// checkDataError logs a single warning for a record carrying the error flag.
func (m *Manager) checkDataError(res data.ResourceName, kind data.Kind, b *data.Base) {
	if !b.HasError() {
		return
	}
	m.logger.Warn("record reports an error",
		"resource", res.String(),
		"kind", kind.String(),
		"name", b.Name(),
		"status_code", b.StatusCode(),
	)
	m.metrics.ObserveDataError(kind.String())
}

// analyzeActuatorResponse is the hook for actuator response analysis.
func (m *Manager) analyzeActuatorResponse(res data.ResourceName, d *data.ActuatorData) {
	m.logger.Debug("analysing actuator response",
		"resource", res.String(),
		"name", d.Name(),
		"value", d.Value(),
		"state_data", d.StateData(),
	)
}

// analyzeSystemState dispatches the command carried by a system state
// aggregate to the actuator listener.
func (m *Manager) analyzeSystemState(res data.ResourceName, state *data.SystemStateData) {
	m.logger.Debug("analysing system state",
		"resource", res.String(),
		"command", state.Command(),
		"sensor_readings", len(state.SensorDataList()),
		"perf_snapshots", len(state.SystemPerformanceDataList()),
	)

	if state.Command() == data.DefaultCommand {
		return
	}

	cmd := data.NewActuatorData()
	cmd.SetName(state.Name())
	cmd.SetTypeID(state.TypeID())
	cmd.SetCommand(state.Command())
	if loc, ok := state.Location(); ok {
		cmd.SetLocation(loc)
	}
	m.dispatchActuatorCommand(cmd)
}

// dispatchActuatorCommand hands d to the registered actuator listener.
func (m *Manager) dispatchActuatorCommand(d *data.ActuatorData) bool {
	ref := m.actuator.Load()
	if ref == nil {
		m.logger.Debug("no actuator data listener registered, dropping command",
			"name", d.Name(),
			"command", d.Command(),
		)
		return false
	}

	ok := ref.listener.OnActuatorDataUpdate(d)
	m.logger.Debug("actuator command dispatched", "listener", ref.name, "accepted", ok)
	return ok
}

// transmit serialises r and forwards it upstream.
func (m *Manager) transmit(res data.ResourceName, r data.Record) {
	payload, err := data.ToJSON(r)
	if err != nil {
		m.logger.Error("failed to serialise record for upstream transmission",
			"resource", res.String(),
			"error", err,
		)
		return
	}
	m.handleUpstreamTransmission(res, payload, m.qos)
}

// handleUpstreamTransmission publishes payload to every present publisher.
// It returns true if at least one publisher accepted it.
func (m *Manager) handleUpstreamTransmission(res data.ResourceName, payload string, qos int) bool {
	if len(m.publishers) == 0 {
		m.logger.Debug("no upstream publishers, payload not transmitted", "resource", res.String())
		return false
	}

	start := time.Now()
	accepted := 0
	for _, np := range m.publishers {
		if np.p.Publish(res, payload, qos) {
			accepted++
			continue
		}
		m.logger.Debug("publisher did not accept payload",
			"publisher", np.name,
			"resource", res.String(),
		)
	}

	ok := accepted > 0
	m.metrics.ObservePublish(ok, time.Since(start))
	m.logger.Debug("upstream transmission complete",
		"resource", res.String(),
		"accepted", fmt.Sprintf("%d/%d", accepted, len(m.publishers)),
	)
	return ok
}

// Compile-time interface check.
var _ message.Listener = (*Manager)(nil)
