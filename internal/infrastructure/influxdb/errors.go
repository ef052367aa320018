package influxdb

import "errors"

var (
	// ErrDisabled is returned by Connect when no URL is configured. The
	// cloud connector treats it as "component not wanted" rather than a fault.
	ErrDisabled = errors.New("influxdb: no url configured")

	// ErrConnectionFailed means the server could not be reached or reported
	// itself unhealthy during Connect.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotConnected is returned by HealthCheck after Close.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrWriteFailed wraps batch failures reported by the async write API.
	ErrWriteFailed = errors.New("influxdb: write failed")
)
