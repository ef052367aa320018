// Package api implements the gateway's request/response server: an HTTP
// REST API and WebSocket stream that constrained devices and local tools use
// instead of the MQTT broker.
//
// This package provides:
//   - POST /api/v1/resources/{resource} for inbound device messages, routed
//     through message.Dispatch to the gateway's Listener
//   - GET /api/v1/resources/{resource} returning the latest payload the
//     gateway published or commanded on that resource
//   - A WebSocket hub that streams the same payloads to clients subscribed
//     by resource, replaying the latest value on subscribe
//   - Health, status and runtime endpoints, plus Prometheus exposition at /metrics
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Architecture
//
// The Server is a gateway component. The gateway Manager starts and stops
// it, registers itself as the data message listener, hands it upstream
// transmissions through Publish, and, when the server is enabled, routes
// actuator commands to it through OnActuatorDataUpdate. Devices that cannot
// hold a WebSocket open poll the command resource with GET.
//
// # WebSocket Frames
//
//	-> {"type":"subscribe","id":"1","resources":["gda/system/perf"]}
//	<- {"type":"ack","id":"1","resources":["gda/system/perf"]}
//	<- {"type":"event","resource":"gda/system/perf","payload":{...}}
//
// "*" subscribes to every resource. Frames that cannot be queued for a slow
// client are dropped and counted in /api/v1/metrics.
//
// # Status Codes
//
//	202 Accepted            listener accepted the message
//	400 Bad Request         payload could not be decoded
//	404 Not Found           unknown resource, or nothing published yet
//	422 Unprocessable       listener rejected the message
//	413 Payload Too Large   body over 1 MB
//	503 Service Unavailable no listener registered
//
// Error responses carry a Problem body with the request ID.
package api
