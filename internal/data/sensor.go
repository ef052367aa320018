package data

import "encoding/json"

// SensorData is a single sensor reading.
type SensorData struct {
	Base
	value float64
}

// NewSensorData creates a sensor reading with default name and value.
func NewSensorData() *SensorData {
	return &SensorData{
		Base:  newBase(DefaultName),
		value: DefaultVal,
	}
}

// NewSensorDataWithType creates a sensor reading with the given type classification.
func NewSensorDataWithType(typeID int) *SensorData {
	d := NewSensorData()
	d.typeID = typeID
	return d
}

func (*SensorData) sealed() {}

// Kind returns KindSensor.
func (*SensorData) Kind() Kind { return KindSensor }

// Value returns the reading.
func (d *SensorData) Value() float64 { return d.value }

// SetValue sets the reading.
func (d *SensorData) SetValue(v float64) {
	d.value = v
	d.touch()
}

// UpdateData copies another sensor reading into d.
func (d *SensorData) UpdateData(other Record) {
	src, ok := other.(*SensorData)
	if !ok || src == nil || src == d {
		return
	}
	d.copyAttributes(&src.Base)
	d.value = src.value
	d.touch()
}

// Clone returns an independent copy of d, including version and timestamp.
func (d *SensorData) Clone() *SensorData {
	return &SensorData{Base: d.clone(), value: d.value}
}

// String returns the reading in key=value form.
func (d *SensorData) String() string {
	return d.Base.String() + ",value=" + formatFloat(d.value)
}

type sensorWire struct {
	baseWire
	Value float64 `json:"value"`
}

// MarshalJSON implements json.Marshaler.
func (d *SensorData) MarshalJSON() ([]byte, error) {
	return json.Marshal(sensorWire{baseWire: d.toWire(), Value: d.value})
}

// UnmarshalJSON implements json.Unmarshaler. Fields absent from the input
// keep their current values.
func (d *SensorData) UnmarshalJSON(b []byte) error {
	w := sensorWire{baseWire: d.toWire(), Value: d.value}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	d.fromWire(w.baseWire)
	d.value = w.Value
	return nil
}
