// Package gateway implements the device-side gateway mediator.
//
// Manager sits between constrained devices and upstream services. It owns
// the optional sub-components selected by the gateway configuration flags
// (system performance sampler, MQTT client, request/response gateway,
// cloud client, persistence client, SMTP alerts), registers itself as
// their message.Listener and cascades start/stop to them.
//
// Inbound messages are validated and logged; sensor readings and
// performance snapshots are serialised to JSON and forwarded to every
// upstream publisher. Actuator commands are dispatched to the single
// registered actuator listener.
//
// Thread Safety:
//   - Handlers take no Manager lock and may run concurrently.
//   - The actuator listener is published atomically; last writer wins.
//   - StartManager and StopManager are serialised by one checkpoint.
package gateway
