package data

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// ToJSON serializes a record. It returns ErrInvalidInput for a nil record.
func ToJSON(r Record) (string, error) {
	if isNil(r) {
		return "", ErrInvalidInput
	}
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encoding %s record: %w", r.Kind(), err)
	}
	return string(b), nil
}

// FromJSON decodes text into a new record of the given kind.
//
// Empty or whitespace-only text returns ErrInvalidInput, as does any text
// that is not a JSON object, including the null literal. An unknown kind
// returns ErrUnknownKind. Malformed JSON is wrapped with ErrInvalidInput so
// callers can treat every rejected payload the same way.
func FromJSON(text string, kind Kind) (Record, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}
	if !strings.HasPrefix(trimmed, "{") {
		return nil, fmt.Errorf("%w: %s record must be a JSON object", ErrInvalidInput, kind)
	}

	var r Record
	switch kind {
	case KindSensor:
		r = NewSensorData()
	case KindSystemPerformance:
		r = NewSystemPerformanceData()
	case KindSystemState:
		r = NewSystemStateData()
	case KindActuator:
		r = NewActuatorData()
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}

	if err := json.Unmarshal([]byte(text), r); err != nil {
		return nil, fmt.Errorf("%w: decoding %s record: %v", ErrInvalidInput, kind, err)
	}
	return r, nil
}

// SensorDataFromJSON decodes a SensorData record.
func SensorDataFromJSON(text string) (*SensorData, error) {
	r, err := FromJSON(text, KindSensor)
	if err != nil {
		return nil, err
	}
	return r.(*SensorData), nil
}

// SystemPerformanceDataFromJSON decodes a SystemPerformanceData record.
func SystemPerformanceDataFromJSON(text string) (*SystemPerformanceData, error) {
	r, err := FromJSON(text, KindSystemPerformance)
	if err != nil {
		return nil, err
	}
	return r.(*SystemPerformanceData), nil
}

// SystemStateDataFromJSON decodes a SystemStateData record.
func SystemStateDataFromJSON(text string) (*SystemStateData, error) {
	r, err := FromJSON(text, KindSystemState)
	if err != nil {
		return nil, err
	}
	return r.(*SystemStateData), nil
}

// ActuatorDataFromJSON decodes an ActuatorData record.
func ActuatorDataFromJSON(text string) (*ActuatorData, error) {
	r, err := FromJSON(text, KindActuator)
	if err != nil {
		return nil, err
	}
	return r.(*ActuatorData), nil
}

// isNil reports whether r is nil or a typed nil pointer.
func isNil(r Record) bool {
	if r == nil {
		return true
	}
	v := reflect.ValueOf(r)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
