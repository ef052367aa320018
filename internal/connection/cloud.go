package connection

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-gateway/internal/data"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-gateway/internal/message"
)

// cloudWriter is the subset of *influxdb.Client used by the connector.
type cloudWriter interface {
	WriteSensorData(res data.ResourceName, d *data.SensorData)
	WriteSystemPerformanceData(res data.ResourceName, d *data.SystemPerformanceData)
	WriteActuatorData(res data.ResourceName, d *data.ActuatorData)
	Stats() influxdb.Stats
	Close() error
}

// CloudClientConnector forwards upstream records to InfluxDB.
type CloudClientConnector struct {
	cfg     config.InfluxDBConfig
	logger  Logger
	connect func(context.Context) (cloudWriter, error)

	mu     sync.RWMutex
	client cloudWriter
}

// NewCloudClientConnector creates a connector. It does not connect.
func NewCloudClientConnector(cfg config.InfluxDBConfig, gatewayID string, logger Logger) *CloudClientConnector {
	c := &CloudClientConnector{cfg: cfg, logger: orNoop(logger)}
	c.connect = func(ctx context.Context) (cloudWriter, error) {
		client, err := influxdb.Connect(ctx, cfg, influxdb.Options{GatewayID: gatewayID, Logger: c.logger})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	return c
}

// SetDataMessageListener accepts the listener. The cloud client has no
// inbound traffic, so it is not used.
func (c *CloudClientConnector) SetDataMessageListener(message.Listener) bool {
	return true
}

// Start connects to InfluxDB.
func (c *CloudClientConnector) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return nil
	}

	client, err := c.connect(ctx)
	if err != nil {
		return fmt.Errorf("starting cloud client connector: %w", err)
	}

	c.client = client
	c.logger.Info("cloud client connector started", "url", c.cfg.URL, "bucket", c.cfg.Bucket)
	return nil
}

// Stop flushes pending writes and disconnects.
func (c *CloudClientConnector) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	stats := c.client.Stats()
	c.client = nil
	if err != nil {
		return fmt.Errorf("stopping cloud client connector: %w", err)
	}
	c.logger.Info("cloud client connector stopped", "queued", stats.Queued, "failed_writes", stats.FailedWrites)
	return nil
}

// Publish decodes payload and queues it as a point. It returns true once
// the point is queued; delivery errors are reported asynchronously.
// Resources carrying system state are not written.
func (c *CloudClientConnector) Publish(res data.ResourceName, payload string, _ int) bool {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	if client == nil {
		return false
	}

	kind, ok := res.PayloadKind()
	if !ok {
		return false
	}

	switch kind {
	case data.KindSensor:
		d, err := data.SensorDataFromJSON(payload)
		if err != nil {
			c.logger.Debug("cloud client: undecodable sensor payload", "resource", res.String(), "error", err)
			return false
		}
		client.WriteSensorData(res, d)
	case data.KindSystemPerformance:
		d, err := data.SystemPerformanceDataFromJSON(payload)
		if err != nil {
			c.logger.Debug("cloud client: undecodable performance payload", "resource", res.String(), "error", err)
			return false
		}
		client.WriteSystemPerformanceData(res, d)
	case data.KindActuator:
		d, err := data.ActuatorDataFromJSON(payload)
		if err != nil {
			c.logger.Debug("cloud client: undecodable actuator payload", "resource", res.String(), "error", err)
			return false
		}
		client.WriteActuatorData(res, d)
	default:
		return false
	}
	return true
}

// Compile-time interface checks.
var (
	_ message.Connector = (*CloudClientConnector)(nil)
	_ message.Publisher = (*CloudClientConnector)(nil)
)
