package connection

import (
	"sync"

	"github.com/nerrad567/gray-logic-gateway/internal/data"
)

// recordingListener is a message.Listener that records every call.
type recordingListener struct {
	mu        sync.Mutex
	sensors   []*data.SensorData
	perf      []*data.SystemPerformanceData
	requests  []*data.ActuatorData
	responses []*data.ActuatorData
	texts     []string
}

func (r *recordingListener) HandleActuatorCommandResponse(_ data.ResourceName, d *data.ActuatorData) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, d)
	return true
}

func (r *recordingListener) HandleActuatorCommandRequest(_ data.ResourceName, d *data.ActuatorData) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, d)
	return true
}

func (r *recordingListener) HandleIncomingMessage(_ data.ResourceName, msg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, msg)
	return true
}

func (r *recordingListener) HandleSensorMessage(_ data.ResourceName, d *data.SensorData) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sensors = append(r.sensors, d)
	return true
}

func (r *recordingListener) HandleSystemPerformanceMessage(_ data.ResourceName, d *data.SystemPerformanceData) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.perf = append(r.perf, d)
	return true
}

func mustJSON(r data.Record) string {
	s, err := data.ToJSON(r)
	if err != nil {
		panic(err)
	}
	return s
}

func sensorPayload(name string, value float64, hasError bool) string {
	sd := data.NewSensorData()
	sd.SetName(name)
	sd.SetValue(value)
	sd.SetHasError(hasError)
	return mustJSON(sd)
}
