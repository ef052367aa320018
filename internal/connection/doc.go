// Package connection provides the gateway's outbound connectors.
//
// Each connector wraps one infrastructure client and adapts it to the
// message contracts used by the gateway manager:
//
//   - MQTTClientConnector: device-facing MQTT (paho). Subscribes to the
//     inbound resource topics and decodes records for the listener;
//     publishes upstream records and actuator commands.
//   - CloudClientConnector: writes sensor and performance records to
//     InfluxDB.
//   - PersistenceClientConnector: stores every upstream record in the local
//     SQLite database and serves history queries.
//   - SMTPClientConnector: mails an alert for records carrying the error flag.
//
// Constructors perform no I/O. Start connects; Stop disconnects. Both are
// idempotent. Publish on a connector that is not started returns false.
package connection
