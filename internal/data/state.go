package data

import (
	"encoding/json"
	"strconv"
	"strings"
)

// SystemStateData aggregates a command with chronologically ordered sensor
// readings and performance snapshots.
//
// The lists are a record of what was observed, in order, so additions are
// appended and never deduplicated.
type SystemStateData struct {
	Base
	command        int
	sensorData     []*SensorData
	systemPerfData []*SystemPerformanceData
}

// NewSystemStateData creates an empty aggregate named SystemStateDataName.
func NewSystemStateData() *SystemStateData {
	return &SystemStateData{
		Base:           newBase(SystemStateDataName),
		command:        DefaultCommand,
		sensorData:     []*SensorData{},
		systemPerfData: []*SystemPerformanceData{},
	}
}

func (*SystemStateData) sealed() {}

// Kind returns KindSystemState.
func (*SystemStateData) Kind() Kind { return KindSystemState }

// Command returns the action code.
func (d *SystemStateData) Command() int { return d.command }

// SetCommand sets the action code.
func (d *SystemStateData) SetCommand(cmd int) {
	d.command = cmd
	d.touch()
}

// AddSensorData appends a reading. It returns false for a nil reading.
func (d *SystemStateData) AddSensorData(sd *SensorData) bool {
	if sd == nil {
		return false
	}
	d.sensorData = append(d.sensorData, sd)
	d.touch()
	return true
}

// AddSystemPerformanceData appends a snapshot. It returns false for a nil snapshot.
func (d *SystemStateData) AddSystemPerformanceData(pd *SystemPerformanceData) bool {
	if pd == nil {
		return false
	}
	d.systemPerfData = append(d.systemPerfData, pd)
	d.touch()
	return true
}

// SensorDataList returns the readings in insertion order. The returned slice
// is a copy; the readings themselves are shared.
func (d *SystemStateData) SensorDataList() []*SensorData {
	out := make([]*SensorData, len(d.sensorData))
	copy(out, d.sensorData)
	return out
}

// SystemPerformanceDataList returns the snapshots in insertion order. The
// returned slice is a copy; the snapshots themselves are shared.
func (d *SystemStateData) SystemPerformanceDataList() []*SystemPerformanceData {
	out := make([]*SystemPerformanceData, len(d.systemPerfData))
	copy(out, d.systemPerfData)
	return out
}

// UpdateData copies another aggregate into d, including deep copies of both lists.
func (d *SystemStateData) UpdateData(other Record) {
	src, ok := other.(*SystemStateData)
	if !ok || src == nil || src == d {
		return
	}
	d.copyAttributes(&src.Base)
	d.command = src.command
	d.sensorData = cloneSensorList(src.sensorData)
	d.systemPerfData = clonePerfList(src.systemPerfData)
	d.touch()
}

// Clone returns an independent deep copy of d, including version and timestamp.
func (d *SystemStateData) Clone() *SystemStateData {
	return &SystemStateData{
		Base:           d.clone(),
		command:        d.command,
		sensorData:     cloneSensorList(d.sensorData),
		systemPerfData: clonePerfList(d.systemPerfData),
	}
}

// String returns the aggregate in key=value form. Nested records are
// rendered inline between brackets, separated by semicolons.
func (d *SystemStateData) String() string {
	var sb strings.Builder
	sb.WriteString(d.Base.String())
	sb.WriteString(",command=")
	sb.WriteString(strconv.Itoa(d.command))

	sb.WriteString(",sensorDataList=[")
	for i, sd := range d.sensorData {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(sd.String())
	}
	sb.WriteString("],sysPerfDataList=[")
	for i, pd := range d.systemPerfData {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(pd.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

func cloneSensorList(in []*SensorData) []*SensorData {
	out := make([]*SensorData, 0, len(in))
	for _, sd := range in {
		if sd != nil {
			out = append(out, sd.Clone())
		}
	}
	return out
}

func clonePerfList(in []*SystemPerformanceData) []*SystemPerformanceData {
	out := make([]*SystemPerformanceData, 0, len(in))
	for _, pd := range in {
		if pd != nil {
			out = append(out, pd.Clone())
		}
	}
	return out
}

type stateWire struct {
	baseWire
	Command        int                      `json:"command"`
	SensorData     []*SensorData            `json:"sensorDataList"`
	SystemPerfData []*SystemPerformanceData `json:"sysPerfDataList"`
}

// MarshalJSON implements json.Marshaler.
func (d *SystemStateData) MarshalJSON() ([]byte, error) {
	w := stateWire{
		baseWire:       d.Base.toWire(),
		Command:        d.command,
		SensorData:     d.sensorData,
		SystemPerfData: d.systemPerfData,
	}
	if w.SensorData == nil {
		w.SensorData = []*SensorData{}
	}
	if w.SystemPerfData == nil {
		w.SystemPerfData = []*SystemPerformanceData{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. Null list elements are dropped.
func (d *SystemStateData) UnmarshalJSON(b []byte) error {
	w := stateWire{
		baseWire: d.Base.toWire(),
		Command:  d.command,
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	d.fromWire(w.baseWire)
	d.command = w.Command
	d.sensorData = make([]*SensorData, 0, len(w.SensorData))
	for _, sd := range w.SensorData {
		if sd != nil {
			d.sensorData = append(d.sensorData, sd)
		}
	}
	d.systemPerfData = make([]*SystemPerformanceData, 0, len(w.SystemPerfData))
	for _, pd := range w.SystemPerfData {
		if pd != nil {
			d.systemPerfData = append(d.systemPerfData, pd)
		}
	}
	return nil
}
