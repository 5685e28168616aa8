package actor

import (
	"fmt"
	"time"

	"github.com/stenite/planner2mqtt/internal/config"
	"github.com/stenite/planner2mqtt/internal/core/domain"
	"github.com/stenite/planner2mqtt/internal/core/port"
	. "github.com/stenite/planner2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// PlanPollActor periodically requests a fresh plan for every entry that
// carries default plan inputs. Entries without defaults are on-demand
// only.
type PlanPollActor struct {
	behavior  actor.Behavior
	stash     *Stash
	scheduler *scheduler.TimerScheduler

	plannerActor *actor.PID
	config       *config.Config
	credentials  port.CredentialStore

	logger *zap.Logger
}

type planPollTick struct {
}

func NewPlanPollActor(config *config.Config, plannerActor *actor.PID, credentials port.CredentialStore, logger *zap.Logger) *PlanPollActor {
	act := &PlanPollActor{
		config:       config,
		plannerActor: plannerActor,
		credentials:  credentials,
		behavior:     actor.NewBehavior(),
		stash:        &Stash{},
		logger:       ActorLogger(domain.ACTOR_ID_PLANPOLL, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *PlanPollActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *PlanPollActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("planpoll@starting started")

		if state.config.Planner.PollIntervalMillis > 0 {
			state.scheduler = scheduler.NewTimerScheduler(ctx)
			state.scheduler.RequestOnce(time.Duration(state.config.Planner.PollIntervalMillis)*time.Millisecond, ctx.Self(), planPollTick{})
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("planpoll@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *PlanPollActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("planpoll@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_PLANPOLL,
			Healthy: true,
			State:   "idle",
		})
	case planPollTick:
		state.logger.Debug("planpoll@default tick")
		timeout := time.Duration(state.config.Planner.RequestTimeoutMillis)*time.Millisecond + 2*time.Second
		for _, entry := range state.credentials.List() {
			if entry.Defaults == nil {
				continue
			}
			entryID := entry.ID
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.plannerActor, domain.CreatePlanRequest{
				EntryID:       entryID,
				UpdateSensors: true,
			}, timeout), func(err error) any {
				return domain.CreatePlanResponse{
					PlannerResponseMixIn: domain.PlannerResponseMixIn{
						ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
					},
					EntryID: entryID,
					Result:  domain.PlanResult{Success: false, Error: err.Error()},
				}
			})
		}

		// schedule next tick
		state.scheduler.RequestOnce(time.Duration(state.config.Planner.PollIntervalMillis)*time.Millisecond, ctx.Self(), planPollTick{})
	case domain.CreatePlanResponse:
		// poll results are log-only, sensors are already updated by the
		// planner on success
		if msg.Result.Success {
			state.logger.Info("planpoll@default plan refreshed", zap.String("entry", msg.EntryID))
		} else {
			state.logger.Warn("planpoll@default plan refresh failed",
				zap.String("entry", msg.EntryID), zap.String("error", msg.Result.Error))
		}
	default:
		state.logger.Debug("planpoll@default: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}
