package message

import (
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-gateway/internal/data"
)

var (
	// ErrNoListener is returned by Dispatch when no listener is registered.
	ErrNoListener = errors.New("message: no listener registered")

	// ErrUnknownResource is returned by Dispatch for a resource with no
	// known payload kind.
	ErrUnknownResource = errors.New("message: unknown resource")
)

// Dispatch decodes payload according to the record kind carried on res and
// calls the matching Listener handler. It returns the handler's result.
//
// Management resources, and any payload that is not a typed record, are
// delivered as raw text through HandleIncomingMessage.
func Dispatch(l Listener, res data.ResourceName, payload []byte) (bool, error) {
	if l == nil {
		return false, ErrNoListener
	}

	kind, ok := res.PayloadKind()
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownResource, res)
	}

	text := string(payload)
	switch kind {
	case data.KindSensor:
		d, err := data.SensorDataFromJSON(text)
		if err != nil {
			return false, err
		}
		return l.HandleSensorMessage(res, d), nil

	case data.KindSystemPerformance:
		d, err := data.SystemPerformanceDataFromJSON(text)
		if err != nil {
			return false, err
		}
		return l.HandleSystemPerformanceMessage(res, d), nil

	case data.KindActuator:
		d, err := data.ActuatorDataFromJSON(text)
		if err != nil {
			return false, err
		}
		if res == data.CDAActuatorResponseResource {
			return l.HandleActuatorCommandResponse(res, d), nil
		}
		return l.HandleActuatorCommandRequest(res, d), nil

	default:
		return l.HandleIncomingMessage(res, text), nil
	}
}
