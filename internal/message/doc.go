// Package message defines the contracts between the gateway mediator and the
// components around it.
//
// Connectors receive records from the outside world and hand them to a
// Listener. The mediator sends serialized records upstream through
// Publishers. Every component with a lifecycle implements Connector.
//
// Components hold a Listener, never the concrete mediator, so they can be
// tested with a fake and wired in any order.
package message
