package mqtt

import "github.com/nerrad567/gray-logic-gateway/internal/data"

// TopicPrefixSystem is the base for gateway system topics.
const TopicPrefixSystem = "gateway/system"

// Topics builds gateway topic names.
type Topics struct{}

// Resource returns the topic that carries records for a resource.
//
// Example: gateway/cda/sensor
func (Topics) Resource(res data.ResourceName) string {
	return res.Topic()
}

// SystemStatus returns the gateway online/offline status topic.
//
// Example: gateway/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// Upstream returns the topic the gateway forwards records on. It is kept
// apart from the resource topics so the gateway never receives its own
// upstream traffic.
//
// Example: gateway/upstream/cda/sensor
func (Topics) Upstream(res data.ResourceName) string {
	return data.TopicPrefix + "upstream/" + string(res)
}
