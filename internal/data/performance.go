package data

import "encoding/json"

// SystemPerformanceData is a snapshot of host utilization, in percent.
//
// Values are conceptually in [0,100] but are not clamped; whatever the
// producer measured is passed through.
type SystemPerformanceData struct {
	Base
	cpuUtil  float64
	diskUtil float64
	memUtil  float64
}

// NewSystemPerformanceData creates a snapshot named SystemPerfDataName with
// all utilization values at DefaultVal.
func NewSystemPerformanceData() *SystemPerformanceData {
	return &SystemPerformanceData{
		Base:     newBase(SystemPerfDataName),
		cpuUtil:  DefaultVal,
		diskUtil: DefaultVal,
		memUtil:  DefaultVal,
	}
}

func (*SystemPerformanceData) sealed() {}

// Kind returns KindSystemPerformance.
func (*SystemPerformanceData) Kind() Kind { return KindSystemPerformance }

// CPUUtilization returns the CPU utilization percentage.
func (d *SystemPerformanceData) CPUUtilization() float64 { return d.cpuUtil }

// DiskUtilization returns the disk utilization percentage.
func (d *SystemPerformanceData) DiskUtilization() float64 { return d.diskUtil }

// MemoryUtilization returns the memory utilization percentage.
func (d *SystemPerformanceData) MemoryUtilization() float64 { return d.memUtil }

// SetCPUUtilization sets the CPU utilization percentage.
func (d *SystemPerformanceData) SetCPUUtilization(v float64) {
	d.cpuUtil = v
	d.touch()
}

// SetDiskUtilization sets the disk utilization percentage.
func (d *SystemPerformanceData) SetDiskUtilization(v float64) {
	d.diskUtil = v
	d.touch()
}

// SetMemoryUtilization sets the memory utilization percentage.
func (d *SystemPerformanceData) SetMemoryUtilization(v float64) {
	d.memUtil = v
	d.touch()
}

// UpdateData copies another performance snapshot into d.
func (d *SystemPerformanceData) UpdateData(other Record) {
	src, ok := other.(*SystemPerformanceData)
	if !ok || src == nil || src == d {
		return
	}
	d.copyAttributes(&src.Base)
	d.cpuUtil = src.cpuUtil
	d.diskUtil = src.diskUtil
	d.memUtil = src.memUtil
	d.touch()
}

// Clone returns an independent copy of d, including version and timestamp.
func (d *SystemPerformanceData) Clone() *SystemPerformanceData {
	return &SystemPerformanceData{
		Base:     d.clone(),
		cpuUtil:  d.cpuUtil,
		diskUtil: d.diskUtil,
		memUtil:  d.memUtil,
	}
}

// String returns the snapshot in key=value form.
func (d *SystemPerformanceData) String() string {
	return d.Base.String() +
		",cpuUtil=" + formatFloat(d.cpuUtil) +
		",diskUtil=" + formatFloat(d.diskUtil) +
		",memUtil=" + formatFloat(d.memUtil)
}

type performanceWire struct {
	baseWire
	CPUUtil  float64 `json:"cpuUtil"`
	DiskUtil float64 `json:"diskUtil"`
	MemUtil  float64 `json:"memUtil"`
}

func (d *SystemPerformanceData) toWire() performanceWire {
	return performanceWire{
		baseWire: d.Base.toWire(),
		CPUUtil:  d.cpuUtil,
		DiskUtil: d.diskUtil,
		MemUtil:  d.memUtil,
	}
}

// MarshalJSON implements json.Marshaler.
func (d *SystemPerformanceData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.toWire())
}

// UnmarshalJSON implements json.Unmarshaler. Fields absent from the input
// keep their current values.
func (d *SystemPerformanceData) UnmarshalJSON(b []byte) error {
	w := d.toWire()
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	d.fromWire(w.baseWire)
	d.cpuUtil = w.CPUUtil
	d.diskUtil = w.DiskUtil
	d.memUtil = w.MemUtil
	return nil
}
