package domain

import "github.com/stenite/planner2mqtt/pkg/batteryplanner"

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_PLANNER      = "planner"
	ACTOR_ID_PLANPOLL     = "planpoll"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

// Config flow error codes surfaced to the host when registering a system.
const (
	FLOW_ERROR_CANNOT_CONNECT = "cannot_connect"
	FLOW_ERROR_INVALID_AUTH   = "invalid_auth"
	FLOW_ERROR_UNKNOWN        = "unknown"
)

// SystemEntry is one registered battery system: the credentials needed to
// reach the planner plus optional default plan inputs for periodic polling.
type SystemEntry struct {
	ID       string
	Name     string
	SystemID string
	APIToken string
	Defaults *batteryplanner.PlanParams
}

// PlanResult is the outcome of a plan request as surfaced to callers.
// On failure only Success and Error are set; cost fields use pointers so
// a failed result serializes without misleading zero costs.
type PlanResult struct {
	Success       bool                           `json:"success"`
	BaselineCost  *float64                       `json:"baseline_cost,omitempty"`
	OptimizedCost *float64                       `json:"optimized_cost,omitempty"`
	Schedule      []batteryplanner.ScheduleEntry `json:"schedule,omitempty"`
	Error         string                         `json:"error,omitempty"`
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors []GenericSensor
	// Remove publishes empty retained payloads so the host forgets the
	// entities instead of announcing them.
	Remove bool
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}

// SystemRegistered is sent to the parent after a runtime registration
// succeeds, so discovery can announce the new entities.
type SystemRegistered struct {
	Entry SystemEntry
}

// SystemRemoved is sent to the parent after an entry is removed.
type SystemRemoved struct {
	EntryID string
}
