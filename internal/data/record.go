package data

import (
	"strconv"
	"strings"
	"time"
)

// Record defaults.
const (
	// DefaultName is the name given to records that have no variant-specific name.
	DefaultName = "Not Set"

	// SystemPerfDataName is the default name of a SystemPerformanceData record.
	SystemPerfDataName = "SystemPerfData"

	// SystemStateDataName is the default name of a SystemStateData record.
	SystemStateDataName = "SystemStateData"

	// DefaultTypeID is the type classification used when none is set.
	DefaultTypeID = 0

	// DefaultStatusCode is the status code used when none is set.
	DefaultStatusCode = 0

	// DefaultCommand means "no command" for state aggregates and actuators.
	DefaultCommand = 0

	// DefaultVal is the sentinel value for unset numeric readings.
	DefaultVal = 0.0
)

// Kind identifies a record variant.
type Kind int

// Record variants.
const (
	KindSensor Kind = iota + 1
	KindSystemPerformance
	KindSystemState
	KindActuator
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindSensor:
		return "sensor"
	case KindSystemPerformance:
		return "system_performance"
	case KindSystemState:
		return "system_state"
	case KindActuator:
		return "actuator"
	default:
		return "unknown"
	}
}

// Record is the closed set of data record variants.
//
// The unexported sealed method keeps implementations inside this package,
// so a type switch over the four variants is exhaustive.
type Record interface {
	Kind() Kind
	Name() string
	TypeID() int
	TimeStamp() time.Time
	Version() int
	Location() (Location, bool)
	StatusCode() int
	HasError() bool

	// UpdateData copies the fields of other into the receiver when other is
	// the same variant. A different variant (or nil) leaves the receiver unchanged.
	UpdateData(other Record)

	String() string

	sealed()
}

// Location is an optional geographic position attached to a record.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation"`
}

// Base holds the attributes shared by every record variant.
//
// Fields are unexported so that every change goes through a mutator, which
// is what keeps the version/timestamp invariant intact.
type Base struct {
	name       string
	typeID     int
	timeStamp  time.Time
	version    int
	location   *Location
	statusCode int
	hasError   bool
}

func newBase(name string) Base {
	return Base{
		name:       name,
		typeID:     DefaultTypeID,
		timeStamp:  time.Now().UTC(),
		statusCode: DefaultStatusCode,
	}
}

// Name returns the record name.
func (b *Base) Name() string { return b.name }

// TypeID returns the record's type classification.
func (b *Base) TypeID() int { return b.typeID }

// TimeStamp returns the time of the last mutation (UTC).
func (b *Base) TimeStamp() time.Time { return b.timeStamp }

// Version returns the mutation counter.
func (b *Base) Version() int { return b.version }

// StatusCode returns the record status code.
func (b *Base) StatusCode() int { return b.statusCode }

// HasError reports whether the producer flagged this record as erroneous.
func (b *Base) HasError() bool { return b.hasError }

// Location returns the record location and whether one is set.
func (b *Base) Location() (Location, bool) {
	if b.location == nil {
		return Location{}, false
	}
	return *b.location, true
}

// SetName sets the record name.
func (b *Base) SetName(name string) {
	b.name = name
	b.touch()
}

// SetTypeID sets the record type classification.
func (b *Base) SetTypeID(typeID int) {
	b.typeID = typeID
	b.touch()
}

// SetStatusCode sets the record status code.
func (b *Base) SetStatusCode(code int) {
	b.statusCode = code
	b.touch()
}

// SetHasError sets the advisory error flag.
func (b *Base) SetHasError(hasError bool) {
	b.hasError = hasError
	b.touch()
}

// SetLocation attaches a location to the record.
func (b *Base) SetLocation(loc Location) {
	b.location = &loc
	b.touch()
}

// ClearLocation removes the record location.
func (b *Base) ClearLocation() {
	b.location = nil
	b.touch()
}

// touch bumps the version and moves the timestamp forward. The timestamp
// never goes backwards, even if the wall clock does.
func (b *Base) touch() {
	now := time.Now().UTC()
	if now.Before(b.timeStamp) {
		now = b.timeStamp
	}
	b.timeStamp = now
	b.version++
}

// copyAttributes copies the shared attributes of src without touching the
// version or timestamp; callers touch once after copying variant fields.
func (b *Base) copyAttributes(src *Base) {
	b.name = src.name
	b.typeID = src.typeID
	b.statusCode = src.statusCode
	b.hasError = src.hasError
	if src.location != nil {
		loc := *src.location
		b.location = &loc
	} else {
		b.location = nil
	}
}

// clone returns an exact copy including version and timestamp.
func (b *Base) clone() Base {
	c := *b
	if b.location != nil {
		loc := *b.location
		c.location = &loc
	}
	return c
}

// String returns the shared attributes in key=value form.
func (b *Base) String() string {
	var sb strings.Builder
	writeField(&sb, "name", b.name)
	writeField(&sb, "typeId", strconv.Itoa(b.typeID))
	writeField(&sb, "timeStamp", b.timeStamp.Format(time.RFC3339Nano))
	writeField(&sb, "statusCode", strconv.Itoa(b.statusCode))
	writeField(&sb, "hasError", strconv.FormatBool(b.hasError))
	writeField(&sb, "version", strconv.Itoa(b.version))
	if b.location != nil {
		writeField(&sb, "latitude", formatFloat(b.location.Latitude))
		writeField(&sb, "longitude", formatFloat(b.location.Longitude))
		writeField(&sb, "elevation", formatFloat(b.location.Elevation))
	}
	return sb.String()
}

func writeField(sb *strings.Builder, key, value string) {
	if sb.Len() > 0 {
		sb.WriteByte(',')
	}
	sb.WriteString(key)
	sb.WriteByte('=')
	sb.WriteString(value)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// baseWire is the JSON shape of the shared attributes.
type baseWire struct {
	Name       string    `json:"name"`
	TypeID     int       `json:"typeId"`
	TimeStamp  time.Time `json:"timeStamp"`
	Version    int       `json:"version"`
	Location   *Location `json:"location,omitempty"`
	StatusCode int       `json:"statusCode"`
	HasError   bool      `json:"hasError"`
}

func (b *Base) toWire() baseWire {
	c := b.clone()
	return baseWire{
		Name:       c.name,
		TypeID:     c.typeID,
		TimeStamp:  c.timeStamp,
		Version:    c.version,
		Location:   c.location,
		StatusCode: c.statusCode,
		HasError:   c.hasError,
	}
}

func (b *Base) fromWire(w baseWire) {
	b.name = w.Name
	b.typeID = w.TypeID
	b.timeStamp = w.TimeStamp.UTC()
	b.version = w.Version
	b.location = w.Location
	b.statusCode = w.StatusCode
	b.hasError = w.HasError
}
