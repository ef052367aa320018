package connection

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-gateway/internal/data"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/influxdb"
)

// fakeCloudWriter records writes.
type fakeCloudWriter struct {
	mu       sync.Mutex
	sensors  []*data.SensorData
	perf     []*data.SystemPerformanceData
	actuator []*data.ActuatorData
	closed   int
}

func (f *fakeCloudWriter) WriteSensorData(_ data.ResourceName, d *data.SensorData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sensors = append(f.sensors, d)
}

func (f *fakeCloudWriter) WriteSystemPerformanceData(_ data.ResourceName, d *data.SystemPerformanceData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.perf = append(f.perf, d)
}

func (f *fakeCloudWriter) WriteActuatorData(_ data.ResourceName, d *data.ActuatorData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actuator = append(f.actuator, d)
}

func (f *fakeCloudWriter) Stats() influxdb.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return influxdb.Stats{Queued: uint64(len(f.sensors) + len(f.perf) + len(f.actuator))}
}

func (f *fakeCloudWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func newTestCloudConnector(w *fakeCloudWriter) *CloudClientConnector {
	c := NewCloudClientConnector(config.InfluxDBConfig{URL: "http://influx.test:8086"}, "gw-1", nil)
	c.connect = func(context.Context) (cloudWriter, error) {
		return w, nil
	}
	return c
}

func TestCloudConnectorPublish(t *testing.T) {
	w := &fakeCloudWriter{}
	c := newTestCloudConnector(w)

	if c.Publish(data.CDASensorMsgResource, sensorPayload("temp", 1, false), 1) {
		t.Error("Publish() before Start() = true")
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	perf := data.NewSystemPerformanceData()
	perf.SetCPUUtilization(12.5)

	tests := []struct {
		name    string
		res     data.ResourceName
		payload string
		want    bool
	}{
		{"sensor", data.CDASensorMsgResource, sensorPayload("temp", 21.5, false), true},
		{"performance", data.GDASystemPerfMsgResource, mustJSON(perf), true},
		{"actuator", data.CDAActuatorResponseResource, mustJSON(data.NewActuatorData()), true},
		{"system state", data.GDAMgmtStatusMsgResource, mustJSON(data.NewSystemStateData()), false},
		{"malformed", data.CDASensorMsgResource, "{", false},
		{"unknown resource", data.ResourceName("cda/nope"), "{}", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Publish(tt.res, tt.payload, 1); got != tt.want {
				t.Errorf("Publish() = %v, want %v", got, tt.want)
			}
		})
	}

	if len(w.sensors) != 1 || w.sensors[0].Value() != 21.5 {
		t.Errorf("sensor writes = %v", w.sensors)
	}
	if len(w.perf) != 1 || w.perf[0].CPUUtilization() != 12.5 {
		t.Errorf("perf writes = %v", w.perf)
	}
	if len(w.actuator) != 1 {
		t.Errorf("actuator writes = %d, want 1", len(w.actuator))
	}
}

func TestCloudConnectorStartError(t *testing.T) {
	c := NewCloudClientConnector(config.InfluxDBConfig{}, "gw-1", nil)

	// No URL configured: the real client refuses before any I/O.
	if err := c.Start(context.Background()); !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Start() error = %v, want ErrDisabled", err)
	}
}

func TestCloudConnectorLifecycle(t *testing.T) {
	w := &fakeCloudWriter{}
	c := newTestCloudConnector(w)
	ctx := context.Background()

	if err := c.Stop(); err != nil {
		t.Errorf("Stop() before Start() error = %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := c.Start(ctx); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		if err := c.Stop(); err != nil {
			t.Fatalf("Stop() error = %v", err)
		}
	}
	if w.closed != 1 {
		t.Errorf("writer closed %d times, want 1", w.closed)
	}
}
