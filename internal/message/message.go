package message

import (
	"context"

	"github.com/nerrad567/gray-logic-gateway/internal/data"
)

// Default QoS levels used when publishing.
const (
	QoSAtMostOnce  = 0
	QoSAtLeastOnce = 1
	QoSExactlyOnce = 2
)

// Listener receives inbound messages. Every handler returns false when the
// message is rejected (nil record, empty text, nothing to forward to).
//
// Implementations must be safe for concurrent use.
type Listener interface {
	HandleActuatorCommandResponse(res data.ResourceName, d *data.ActuatorData) bool
	HandleActuatorCommandRequest(res data.ResourceName, d *data.ActuatorData) bool
	HandleIncomingMessage(res data.ResourceName, msg string) bool
	HandleSensorMessage(res data.ResourceName, d *data.SensorData) bool
	HandleSystemPerformanceMessage(res data.ResourceName, d *data.SystemPerformanceData) bool
}

// Publisher sends a serialized record upstream.
type Publisher interface {
	// Publish returns true if the payload was accepted for delivery.
	Publish(res data.ResourceName, payload string, qos int) bool
}

// Connector is a component with a start/stop lifecycle.
//
// Start and Stop are idempotent: starting a running connector or stopping a
// stopped one returns nil.
type Connector interface {
	Start(ctx context.Context) error
	Stop() error
}

// DataMessageListenerSetter is implemented by components that deliver
// inbound messages to a Listener.
type DataMessageListenerSetter interface {
	SetDataMessageListener(l Listener) bool
}

// ActuatorListener receives actuator commands destined for a constrained device.
type ActuatorListener interface {
	OnActuatorDataUpdate(d *data.ActuatorData) bool
}

// ActuatorListenerFunc adapts a function to ActuatorListener.
type ActuatorListenerFunc func(d *data.ActuatorData) bool

// OnActuatorDataUpdate calls f(d).
func (f ActuatorListenerFunc) OnActuatorDataUpdate(d *data.ActuatorData) bool {
	return f(d)
}
