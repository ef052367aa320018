package data

import (
	"encoding/json"
	"strconv"
)

// ActuatorData is a command sent to (or a response from) an actuator on a
// constrained device.
type ActuatorData struct {
	Base
	command    int
	value      float64
	stateData  string
	isResponse bool
}

// NewActuatorData creates an actuator command with default name and no command.
func NewActuatorData() *ActuatorData {
	return &ActuatorData{
		Base:    newBase(DefaultName),
		command: DefaultCommand,
		value:   DefaultVal,
	}
}

func (*ActuatorData) sealed() {}

// Kind returns KindActuator.
func (*ActuatorData) Kind() Kind { return KindActuator }

// Command returns the action code.
func (d *ActuatorData) Command() int { return d.command }

// Value returns the command value (e.g. a set point).
func (d *ActuatorData) Value() float64 { return d.value }

// StateData returns free-form state text attached by the actuator.
func (d *ActuatorData) StateData() string { return d.stateData }

// IsResponse reports whether this record is a response from the actuator.
func (d *ActuatorData) IsResponse() bool { return d.isResponse }

// SetCommand sets the action code.
func (d *ActuatorData) SetCommand(cmd int) {
	d.command = cmd
	d.touch()
}

// SetValue sets the command value.
func (d *ActuatorData) SetValue(v float64) {
	d.value = v
	d.touch()
}

// SetStateData sets the free-form state text.
func (d *ActuatorData) SetStateData(s string) {
	d.stateData = s
	d.touch()
}

// SetAsResponse marks the record as an actuator response.
func (d *ActuatorData) SetAsResponse() {
	d.isResponse = true
	d.touch()
}

// UpdateData copies another actuator record into d.
func (d *ActuatorData) UpdateData(other Record) {
	src, ok := other.(*ActuatorData)
	if !ok || src == nil || src == d {
		return
	}
	d.copyAttributes(&src.Base)
	d.command = src.command
	d.value = src.value
	d.stateData = src.stateData
	d.isResponse = src.isResponse
	d.touch()
}

// Clone returns an independent copy of d, including version and timestamp.
func (d *ActuatorData) Clone() *ActuatorData {
	c := *d
	c.Base = d.clone()
	return &c
}

// String returns the command in key=value form.
func (d *ActuatorData) String() string {
	return d.Base.String() +
		",command=" + strconv.Itoa(d.command) +
		",value=" + formatFloat(d.value) +
		",stateData=" + d.stateData +
		",isResponse=" + strconv.FormatBool(d.isResponse)
}

type actuatorWire struct {
	baseWire
	Command    int     `json:"command"`
	Value      float64 `json:"value"`
	StateData  string  `json:"stateData"`
	IsResponse bool    `json:"isResponse"`
}

func (d *ActuatorData) toWire() actuatorWire {
	return actuatorWire{
		baseWire:   d.Base.toWire(),
		Command:    d.command,
		Value:      d.value,
		StateData:  d.stateData,
		IsResponse: d.isResponse,
	}
}

// MarshalJSON implements json.Marshaler.
func (d *ActuatorData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.toWire())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *ActuatorData) UnmarshalJSON(b []byte) error {
	w := d.toWire()
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	d.fromWire(w.baseWire)
	d.command = w.Command
	d.value = w.Value
	d.stateData = w.StateData
	d.isResponse = w.IsResponse
	return nil
}
