package gateway

import (
	"github.com/nerrad567/gray-logic-gateway/internal/api"
	"github.com/nerrad567/gray-logic-gateway/internal/connection"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/metrics"
	"github.com/nerrad567/gray-logic-gateway/internal/message"
	"github.com/nerrad567/gray-logic-gateway/internal/system"
)

// Component is a sub-component owned by the Manager. Components that also
// implement message.Publisher receive upstream transmissions.
type Component interface {
	message.Connector
	message.DataMessageListenerSetter
}

// Env is passed to every factory.
type Env struct {
	Logger  Logger
	Metrics *metrics.Metrics
	Version string

	// Status returns the Manager's status view. It is safe to call only
	// after construction has finished.
	Status func() any
}

// Factory builds one sub-component. Factories must not perform I/O; the
// component connects when it is started.
type Factory func(cfg *config.Config, env Env) (Component, error)

// Factories holds one factory per optional component. A nil factory leaves
// the component absent even when its flag is set.
type Factories struct {
	SystemPerf        Factory
	MQTTClient        Factory
	CoAPServer        Factory
	CloudClient       Factory
	PersistenceClient Factory
	SMTPClient        Factory
}

// DefaultFactories returns factories for the production components.
func DefaultFactories() Factories {
	return Factories{
		SystemPerf: func(cfg *config.Config, env Env) (Component, error) {
			return system.NewPerformanceManager(system.Config{
				PollInterval: cfg.GetPollInterval(),
				DiskPath:     cfg.SystemPerf.DiskPath,
				Observer:     env.Metrics.ObserveSnapshot,
			}, env.Logger), nil
		},
		MQTTClient: func(cfg *config.Config, env Env) (Component, error) {
			return connection.NewMQTTClientConnector(cfg.MQTT, env.Logger), nil
		},
		CoAPServer: func(cfg *config.Config, env Env) (Component, error) {
			return api.New(api.Deps{
				Config:    cfg.API,
				WebSocket: cfg.WebSocket,
				Logger:    env.Logger,
				Metrics:   env.Metrics,
				Version:   env.Version,
				Status:    env.Status,
			})
		},
		CloudClient: func(cfg *config.Config, env Env) (Component, error) {
			return connection.NewCloudClientConnector(cfg.InfluxDB, cfg.Gateway.ID, env.Logger), nil
		},
		PersistenceClient: func(cfg *config.Config, env Env) (Component, error) {
			return connection.NewPersistenceClientConnector(cfg.Database, env.Logger), nil
		},
		SMTPClient: func(cfg *config.Config, env Env) (Component, error) {
			return connection.NewSMTPClientConnector(cfg.SMTP, cfg.Gateway.ID, env.Logger), nil
		},
	}
}
