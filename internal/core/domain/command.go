package domain

import (
	"fmt"

	"github.com/stenite/planner2mqtt/pkg/batteryplanner"
)

// PlannerRequest

type PlannerRequest interface {
	ActorRequest
	PlannerCommand() string
}

type PlannerRequestMixIn struct {
	ActorRequestMixIn
}

func (r PlannerRequestMixIn) PlannerCommand() string {
	return fmt.Sprintf("%T", r)
}

// PlannerResponse

type PlannerResponse interface {
	ActorResponse
	PlannerResponse() string
}

type PlannerResponseMixIn struct {
	ActorResponseMixIn
}

func (r PlannerResponseMixIn) PlannerResponse() string {
	return fmt.Sprintf("%T", r)
}

// Planner commands

// CreatePlanRequest asks for a new plan for one entry. A nil Params falls
// back to the entry's configured defaults. When UpdateSensors is set, a
// successful plan is published to the host sensors as one atomic batch.
type CreatePlanRequest struct {
	PlannerRequestMixIn
	EntryID       string
	Params        *batteryplanner.PlanParams
	UpdateSensors bool
}

type CreatePlanResponse struct {
	PlannerResponseMixIn
	EntryID string
	Result  PlanResult
}

type RegisterSystemRequest struct {
	PlannerRequestMixIn
	Entry SystemEntry
}

// RegisterSystemResponse carries a config flow error code on failure.
// An empty ErrorCode means the entry was accepted.
type RegisterSystemResponse struct {
	PlannerResponseMixIn
	ErrorCode string
}

type RemoveSystemRequest struct {
	PlannerRequestMixIn
	EntryID string
}

type RemoveSystemResponse struct {
	PlannerResponseMixIn
	Removed bool
}

// ensure interface compliance
var _ PlannerRequest = (*CreatePlanRequest)(nil)

// Parsed MQTT commands

type ParsedCommand interface{}

// CreatePlanCommand is a create_plan command received over MQTT, already
// parsed but not yet validated against the entry's configuration.
type CreatePlanCommand struct {
	EntryID       string
	Params        *batteryplanner.PlanParams
	UpdateSensors bool
}
