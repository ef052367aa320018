package influxdb

import (
	"strconv"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-gateway/internal/data"
)

// Measurement names written by the gateway.
const (
	MeasurementSensor      = "sensor"
	MeasurementSystemPerf  = "system_perf"
	MeasurementActuator    = "actuator"
	tagGateway             = "gateway_id"
	tagName                = "name"
	tagResource            = "resource"
	tagTypeID              = "type_id"
	fieldValue             = "value"
	fieldStatusCode        = "status_code"
	fieldHasError          = "has_error"
	fieldCPUUtilization    = "cpu_util"
	fieldMemoryUtilization = "mem_util"
	fieldDiskUtilization   = "disk_util"
	fieldCommand           = "command"
)

// WriteSensorData writes one sensor reading, timestamped with the record's time.
// The write is non-blocking; data is batched and sent asynchronously.
func (c *Client) WriteSensorData(res data.ResourceName, d *data.SensorData) {
	if d == nil || !c.IsConnected() {
		return
	}
	c.queue(SensorPoint(res, d))
}

// WriteSystemPerformanceData writes one utilization snapshot.
func (c *Client) WriteSystemPerformanceData(res data.ResourceName, d *data.SystemPerformanceData) {
	if d == nil || !c.IsConnected() {
		return
	}
	c.queue(SystemPerformancePoint(res, d))
}

// WriteActuatorData writes an actuator command or response.
func (c *Client) WriteActuatorData(res data.ResourceName, d *data.ActuatorData) {
	if d == nil || !c.IsConnected() {
		return
	}
	c.queue(ActuatorPoint(res, d))
}

// SensorPoint builds the point for a sensor reading.
func SensorPoint(res data.ResourceName, d *data.SensorData) *write.Point {
	fields := baseFields(d)
	fields[fieldValue] = d.Value()
	return write.NewPoint(MeasurementSensor, baseTags(res, d), fields, d.TimeStamp())
}

// SystemPerformancePoint builds the point for a utilization snapshot.
func SystemPerformancePoint(res data.ResourceName, d *data.SystemPerformanceData) *write.Point {
	fields := baseFields(d)
	fields[fieldCPUUtilization] = d.CPUUtilization()
	fields[fieldMemoryUtilization] = d.MemoryUtilization()
	fields[fieldDiskUtilization] = d.DiskUtilization()
	return write.NewPoint(MeasurementSystemPerf, baseTags(res, d), fields, d.TimeStamp())
}

// ActuatorPoint builds the point for an actuator record.
func ActuatorPoint(res data.ResourceName, d *data.ActuatorData) *write.Point {
	fields := baseFields(d)
	fields[fieldCommand] = d.Command()
	fields[fieldValue] = d.Value()
	return write.NewPoint(MeasurementActuator, baseTags(res, d), fields, d.TimeStamp())
}

func baseTags(res data.ResourceName, r data.Record) map[string]string {
	return map[string]string{
		tagName:     r.Name(),
		tagResource: res.String(),
		tagTypeID:   strconv.Itoa(r.TypeID()),
	}
}

func baseFields(r data.Record) map[string]interface{} {
	return map[string]interface{}{
		fieldStatusCode: r.StatusCode(),
		fieldHasError:   r.HasError(),
	}
}
