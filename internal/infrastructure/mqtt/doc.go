// Package mqtt provides the gateway's MQTT broker connection.
//
// Inbound traffic is organised by data.ResourceName: each subscription
// names a resource, and its handler receives the resource back with the
// payload, so callers never parse topics. Outbound traffic is published on
// plain topics built by Topics.
//
// # Topics
//
//	gateway/cda/...          constrained devices publish here
//	gateway/gda/...          gateway management and its own records
//	gateway/upstream/...     records the gateway forwards upstream
//	gateway/system/status    retained online/offline status (also the will)
//
// Forwarded records go to gateway/upstream/ so the gateway never receives
// what it publishes.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, logger)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(data.CDASensorMsgResource, 1,
//	    func(res data.ResourceName, payload []byte) error {
//	        _, err := message.Dispatch(listener, res, payload)
//	        return err
//	    })
//
//	client.Publish(mqtt.Topics{}.Upstream(res), payload, 1, false)
package mqtt
