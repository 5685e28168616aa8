package actor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stenite/planner2mqtt/internal/config"
	"github.com/stenite/planner2mqtt/internal/core/domain"
	"github.com/stenite/planner2mqtt/internal/core/events"
	"github.com/stenite/planner2mqtt/internal/core/port"
	"github.com/stenite/planner2mqtt/internal/core/service"
	"github.com/stenite/planner2mqtt/internal/util/actorutil"
	"github.com/stenite/planner2mqtt/pkg/batteryplanner"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

// PlannerActor owns all traffic to the remote planner API. Requests are
// serialized: while a plan or token validation is in flight the actor
// stashes everything else, so one entry's update can never interleave
// with another's.
type PlannerActor struct {
	behavior       actor.Behavior
	stash          *actorutil.Stash
	client         batteryplanner.Client
	credentials    port.CredentialStore
	plans          port.PlanStateStore
	eventStream    *eventstream.EventStream
	requestTimeout time.Duration
	logger         *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

type planTaskOutcome struct {
	entryID       string
	updateSensors bool
	plan          *batteryplanner.Plan
	err           error
}

type registerTaskOutcome struct {
	entry domain.SystemEntry
	err   error
}

func NewPlannerActor(client batteryplanner.Client, credentials port.CredentialStore, plans port.PlanStateStore,
	eventStream *eventstream.EventStream, requestTimeout time.Duration, logger *zap.Logger) *PlannerActor {
	act := &PlannerActor{
		client:         client,
		credentials:    credentials,
		plans:          plans,
		eventStream:    eventStream,
		requestTimeout: requestTimeout,
		behavior:       actor.NewBehavior(),
		stash:          &actorutil.Stash{},
		logger:         actorutil.ActorLogger(domain.ACTOR_ID_PLANNER, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *PlannerActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *PlannerActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("planner@starting started")
		// token sweep of configured entries. Log-only: a bad token must
		// not keep the bridge from starting.
		for _, entry := range state.credentials.List() {
			if err := state.validateToken(entry.APIToken); err != nil {
				state.logger.Warn("planner@starting token validation failed",
					zap.String("entry", entry.ID), zap.Error(err))
			}
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("planner@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *PlannerActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("planner@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_PLANNER,
			Healthy: true,
			State:   "idle",
		})
	case domain.CreatePlanRequest:
		state.logger.Debug("planner@default: CreatePlanRequest", zap.String("entry", msg.EntryID))
		state.handleCreatePlan(ctx, msg)
	case domain.RegisterSystemRequest:
		state.logger.Debug("planner@default: RegisterSystemRequest", zap.String("entry", msg.Entry.ID))
		state.handleRegisterSystem(ctx, msg)
	case domain.RemoveSystemRequest:
		state.logger.Debug("planner@default: RemoveSystemRequest", zap.String("entry", msg.EntryID))
		removed := state.credentials.Remove(msg.EntryID)
		if removed {
			state.plans.Remove(msg.EntryID)
			if ctx.Parent() != nil {
				ctx.Send(ctx.Parent(), domain.SystemRemoved{EntryID: msg.EntryID})
			}
		}
		actorutil.ForRequest(msg).Respond(ctx, domain.RemoveSystemResponse{
			Removed: removed,
		})
	case *actor.Stopping:
	default:
		state.logger.Debug("planner@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// handleCreatePlan checks everything that can fail locally before any
// network traffic. A request that fails here costs no upstream call and
// leaves the sensors untouched.
func (state *PlannerActor) handleCreatePlan(ctx actor.Context, msg domain.CreatePlanRequest) {
	entry, ok := state.credentials.Get(msg.EntryID)
	if !ok {
		actorutil.ForRequest(msg).Respond(ctx, failedPlanResponse(msg.EntryID,
			fmt.Errorf("%w: %q", service.ErrUnknownEntry, msg.EntryID)))
		return
	}
	params, err := service.ResolvePlanParams(msg.Params, entry.Defaults)
	if err != nil {
		actorutil.ForRequest(msg).Respond(ctx, failedPlanResponse(msg.EntryID, err))
		return
	}

	sender := actorutil.ForRequest(msg).ReplyTo(ctx)
	entryID := msg.EntryID
	updateSensors := msg.UpdateSensors

	actorutil.NewBackgroundTaskNoError(ctx, func() *backgroundTaskResult {
		tctx, cancel := context.WithTimeout(context.Background(), state.requestTimeout)
		defer cancel()
		plan, err := state.client.CreatePlan(tctx, entry.SystemID, entry.APIToken, params)
		if err != nil {
			logger.Error(err)
		}
		return &backgroundTaskResult{
			message: planTaskOutcome{
				entryID:       entryID,
				updateSensors: updateSensors,
				plan:          plan,
				err:           err,
			},
			replyTo: sender,
		}
	}).WithTimeout(state.requestTimeout + 1*time.Second).Recover(func(err error) backgroundTaskResult {
		return backgroundTaskResult{
			message: planTaskOutcome{
				entryID:       entryID,
				updateSensors: updateSensors,
				err:           err,
			},
			replyTo: sender,
		}
	}).PipeTo(ctx.Self())
	state.behavior.BecomeStacked(state.WaitingPlanner)
}

func (state *PlannerActor) handleRegisterSystem(ctx actor.Context, msg domain.RegisterSystemRequest) {
	entry := msg.Entry
	entryID, err := config.CheckEntryID(entry.ID)
	if err != nil || entry.SystemID == "" || entry.APIToken == "" {
		if err == nil {
			err = errors.New("system_id and api_token are required")
		}
		actorutil.ForRequest(msg).Respond(ctx, domain.RegisterSystemResponse{
			PlannerResponseMixIn: domain.PlannerResponseMixIn{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
			},
			ErrorCode: domain.FLOW_ERROR_UNKNOWN,
		})
		return
	}
	entry.ID = entryID

	sender := actorutil.ForRequest(msg).ReplyTo(ctx)

	actorutil.NewBackgroundTaskNoError(ctx, func() *backgroundTaskResult {
		err := state.validateToken(entry.APIToken)
		if err != nil {
			logger.Error(err)
		}
		return &backgroundTaskResult{
			message: registerTaskOutcome{
				entry: entry,
				err:   err,
			},
			replyTo: sender,
		}
	}).WithTimeout(state.requestTimeout + 1*time.Second).Recover(func(err error) backgroundTaskResult {
		return backgroundTaskResult{
			message: registerTaskOutcome{
				entry: entry,
				err:   err,
			},
			replyTo: sender,
		}
	}).PipeTo(ctx.Self())
	state.behavior.BecomeStacked(state.WaitingPlanner)
}

func (state *PlannerActor) WaitingPlanner(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("planner@waiting backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		var resp any
		switch m := msg.message.(type) {
		case planTaskOutcome:
			resp = state.completePlan(m)
		case registerTaskOutcome:
			resp = state.completeRegister(ctx, m)
		}
		if msg.replyTo != nil && resp != nil {
			ctx.Send(msg.replyTo, resp)
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
	default:
		state.logger.Debug("planner@waiting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// completePlan turns a finished plan task into the caller response.
// With updateSensors set, a successful plan is committed: store first,
// then the sensor update batch published back to back so the host sees
// one consistent plan. Without it the result only reaches the caller,
// the host-visible plan state stays on the last published plan.
func (state *PlannerActor) completePlan(outcome planTaskOutcome) domain.CreatePlanResponse {
	if outcome.err != nil {
		state.logger.Error("planner@waiting plan request failed",
			zap.String("entry", outcome.entryID), zap.Error(outcome.err))
		return failedPlanResponse(outcome.entryID, outcome.err)
	}

	plan := outcome.plan

	if outcome.updateSensors {
		state.plans.Put(outcome.entryID, plan)
		evs, err := events.PlanToUpdateEvents(outcome.entryID, plan, time.Now())
		if err != nil {
			state.logger.Error("planner@waiting could not build sensor updates",
				zap.String("entry", outcome.entryID), zap.Error(err))
		} else {
			for _, ev := range evs {
				state.eventStream.Publish(ev)
			}
		}
	}

	return domain.CreatePlanResponse{
		EntryID: outcome.entryID,
		Result: domain.PlanResult{
			Success:       true,
			BaselineCost:  &plan.BaselineCost,
			OptimizedCost: &plan.OptimizedCost,
			Schedule:      plan.Schedule,
		},
	}
}

func (state *PlannerActor) completeRegister(ctx actor.Context, outcome registerTaskOutcome) domain.RegisterSystemResponse {
	if outcome.err != nil {
		state.logger.Error("planner@waiting registration failed",
			zap.String("entry", outcome.entry.ID), zap.Error(outcome.err))
		return domain.RegisterSystemResponse{
			PlannerResponseMixIn: domain.PlannerResponseMixIn{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: outcome.err},
			},
			ErrorCode: flowErrorCode(outcome.err),
		}
	}
	state.credentials.Put(outcome.entry)
	if ctx.Parent() != nil {
		ctx.Send(ctx.Parent(), domain.SystemRegistered{Entry: outcome.entry})
	}
	return domain.RegisterSystemResponse{}
}

func (state *PlannerActor) validateToken(apiToken string) error {
	tctx, cancel := context.WithTimeout(context.Background(), state.requestTimeout)
	defer cancel()
	return state.client.ValidateToken(tctx, apiToken)
}

func failedPlanResponse(entryID string, err error) domain.CreatePlanResponse {
	return domain.CreatePlanResponse{
		PlannerResponseMixIn: domain.PlannerResponseMixIn{
			ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
		},
		EntryID: entryID,
		Result: domain.PlanResult{
			Success: false,
			Error:   err.Error(),
		},
	}
}

func flowErrorCode(err error) string {
	if errors.Is(err, batteryplanner.ErrInvalidAuth) {
		return domain.FLOW_ERROR_INVALID_AUTH
	}
	var statusErr *batteryplanner.StatusError
	if errors.As(err, &statusErr) {
		return domain.FLOW_ERROR_UNKNOWN
	}
	return domain.FLOW_ERROR_CANNOT_CONNECT
}
