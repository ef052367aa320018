package data

import "strings"

// ResourceName identifies a message channel between the constrained device
// application (CDA), the gateway (GDA), and upstream services.
type ResourceName string

// Known resources.
const (
	CDASensorMsgResource        ResourceName = "cda/sensor"
	CDAActuatorCmdResource      ResourceName = "cda/actuator/command"
	CDAActuatorResponseResource ResourceName = "cda/actuator/response"
	CDASystemPerfMsgResource    ResourceName = "cda/system/perf"
	CDAMgmtStatusMsgResource    ResourceName = "cda/mgmt/status"
	CDAMgmtStatusCmdResource    ResourceName = "cda/mgmt/command"
	GDASystemPerfMsgResource    ResourceName = "gda/system/perf"
	GDAMgmtStatusMsgResource    ResourceName = "gda/mgmt/status"
	GDAMgmtStatusCmdResource    ResourceName = "gda/mgmt/command"
)

// TopicPrefix is prepended to every resource to form its MQTT topic.
const TopicPrefix = "gateway/"

var allResources = []ResourceName{
	CDASensorMsgResource,
	CDAActuatorCmdResource,
	CDAActuatorResponseResource,
	CDASystemPerfMsgResource,
	CDAMgmtStatusMsgResource,
	CDAMgmtStatusCmdResource,
	GDASystemPerfMsgResource,
	GDAMgmtStatusMsgResource,
	GDAMgmtStatusCmdResource,
}

// AllResources returns every known resource in declaration order.
func AllResources() []ResourceName {
	out := make([]ResourceName, len(allResources))
	copy(out, allResources)
	return out
}

// InboundResources returns the resources addressed to the gateway: device
// telemetry, actuator responses and gateway management commands. Resources
// the gateway itself sends to devices are excluded.
func InboundResources() []ResourceName {
	return []ResourceName{
		CDASensorMsgResource,
		CDAActuatorResponseResource,
		CDASystemPerfMsgResource,
		CDAMgmtStatusMsgResource,
		GDAMgmtStatusCmdResource,
	}
}

// ParseResourceName accepts a resource name, its MQTT topic, or its HTTP
// path and returns the matching resource.
func ParseResourceName(s string) (ResourceName, bool) {
	s = strings.TrimPrefix(s, TopicPrefix)
	s = strings.Trim(s, "/")
	for _, r := range allResources {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// String returns the resource name.
func (r ResourceName) String() string { return string(r) }

// Topic returns the MQTT topic for the resource.
func (r ResourceName) Topic() string { return TopicPrefix + string(r) }

// Path returns the HTTP path for the resource, with a leading slash.
func (r ResourceName) Path() string { return "/" + string(r) }

// IsCDA reports whether the resource originates on the constrained device side.
func (r ResourceName) IsCDA() bool { return strings.HasPrefix(string(r), "cda/") }

// IsManagementCommand reports whether the resource carries management commands.
func (r ResourceName) IsManagementCommand() bool {
	return r == CDAMgmtStatusCmdResource || r == GDAMgmtStatusCmdResource
}

// PayloadKind returns the record kind normally carried on the resource.
// Management resources carry SystemStateData.
func (r ResourceName) PayloadKind() (Kind, bool) {
	switch r {
	case CDASensorMsgResource:
		return KindSensor, true
	case CDAActuatorCmdResource, CDAActuatorResponseResource:
		return KindActuator, true
	case CDASystemPerfMsgResource, GDASystemPerfMsgResource:
		return KindSystemPerformance, true
	case CDAMgmtStatusMsgResource, CDAMgmtStatusCmdResource,
		GDAMgmtStatusMsgResource, GDAMgmtStatusCmdResource:
		return KindSystemState, true
	default:
		return 0, false
	}
}
