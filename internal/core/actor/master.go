package actor

import (
	"errors"
	"fmt"
	"log"
	"time"

	adactor "github.com/stenite/planner2mqtt/internal/adapter/actor"
	"github.com/stenite/planner2mqtt/internal/config"
	"github.com/stenite/planner2mqtt/internal/core/domain"
	"github.com/stenite/planner2mqtt/internal/core/port"
	. "github.com/stenite/planner2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type PlannerActorProvider func(*eventstream.EventStream) *adactor.PlannerActor

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck   healthCheckResult
	eventStream          *eventstream.EventStream
	plannerActor         *actor.PID
	mqttActor            *actor.PID
	planPollActor        *actor.PID
	haDiscoveryActor     *actor.PID
	credentials          port.CredentialStore
	plannerActorProvider PlannerActorProvider
	mqttActorProvider    MQTTActorProvider
	logger               *zap.Logger
}

type healthCheckResult struct {
	plannerActorHealthy  bool
	mqttActorHealthy     bool
	planPollActorHealthy bool
	checksReceived       int
	checksExpected       int
	respondTo            *actor.PID
}

func NewMasterOfPuppetsActor(config config.Config, credentials port.CredentialStore,
	plannerActorProvider PlannerActorProvider, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:               config,
		behavior:             actor.NewBehavior(),
		stash:                &Stash{},
		logger:               ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:          &eventstream.EventStream{},
		credentials:          credentials,
		plannerActorProvider: plannerActorProvider,
		mqttActorProvider:    mqttActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset()

		// start Planner child
		plannerActorPID, err := state.startPlannerActor(ctx)
		if err != nil {
			panic(err)
		}
		state.plannerActor = plannerActorPID

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// start PlanPoll child
		if state.config.Planner.PollIntervalMillis > 0 {
			planPollActorPID, err := state.startPlanPollActor(ctx)
			if err != nil {
				panic(err)
			}
			state.planPollActor = planPollActorPID
		}

		// start HA Discovery
		if state.config.MQTT.HADiscoveryEnable {
			haDiscPID, err := state.startHADiscoveryActor(ctx)
			if err != nil {
				panic(err)
			}
			state.haDiscoveryActor = haDiscPID
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		state.currentHealthCheck.checksExpected = 2
		// Planner Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.plannerActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_PLANNER,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		// PlanPoll Actor Request
		if state.planPollActor != nil {
			state.currentHealthCheck.checksExpected++
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.planPollActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.ActorHealthResponse{
					Id:      domain.ACTOR_ID_PLANPOLL,
					Healthy: false,
				}
			})
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case adactor.ParsedCommand:
		// redirect parsedCommand to actor
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command != nil {
			cmd, err := ParsedMQTTCommandToCommand(*msg.Command)
			if err != nil {
				state.logger.Warn("master@default invalid command", zap.Error(err))
			} else if cmd != nil {
				switch pcmd := cmd.(type) {
				case domain.CreatePlanCommand:
					ctx.Send(state.plannerActor, domain.CreatePlanRequest{
						EntryID:       pcmd.EntryID,
						Params:        pcmd.Params,
						UpdateSensors: pcmd.UpdateSensors,
					})
				}
			}
		}
	case domain.CreatePlanRequest:
		// forward keeps the original sender so the planner responds
		// straight to the requester
		ctx.Forward(state.plannerActor)
	case domain.RegisterSystemRequest:
		ctx.Forward(state.plannerActor)
	case domain.RemoveSystemRequest:
		ctx.Forward(state.plannerActor)
	case domain.SystemRegistered:
		state.logger.Info("master@default system registered", zap.String("entry", msg.Entry.ID))
		if state.haDiscoveryActor != nil {
			entry := msg.Entry
			ctx.Send(state.haDiscoveryActor, RunDiscovery{Entry: &entry})
		}
	case domain.SystemRemoved:
		state.logger.Info("master@default system removed", zap.String("entry", msg.EntryID))
		if state.haDiscoveryActor != nil {
			ctx.Send(state.haDiscoveryActor, RemoveDiscovery{EntryID: msg.EntryID})
		}
	case *actor.Terminated:
		// if some actor fails on boot, terminate
		if msg.Who.Id == fmt.Sprintf("%s/%s", domain.ACTOR_ID_MASTER, domain.ACTOR_ID_PLANNER) {
			state.logger.Error("master@default planner error")
			panic(errors.New("planner terminated"))
		}
	default:
		state.logger.Debug("master@default stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		state.currentHealthCheck.respond(ctx, state.planPollActor != nil)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			if msg.Id == domain.ACTOR_ID_PLANNER {
				state.currentHealthCheck.plannerActorHealthy = true
			} else if msg.Id == domain.ACTOR_ID_MQTT {
				state.currentHealthCheck.mqttActorHealthy = true
			} else if msg.Id == domain.ACTOR_ID_PLANPOLL {
				state.currentHealthCheck.planPollActorHealthy = true
			}
		}
		if state.currentHealthCheck.allReceived() {

			state.currentHealthCheck.respond(ctx, state.planPollActor != nil)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) startPlannerActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	plannerProps := actor.PropsFromProducer(func() actor.Actor {
		return state.plannerActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	plannerActorPID, err := ctx.SpawnNamed(plannerProps, domain.ACTOR_ID_PLANNER)
	if err != nil {
		return nil, err
	}

	return plannerActorPID, nil
}

func (state *MasterOfPuppetsActor) startPlanPollActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	planPollProps := actor.PropsFromProducer(func() actor.Actor {
		return NewPlanPollActor(&state.config, state.plannerActor, state.credentials, state.logger)
	}, actor.WithSupervisor(supervisor))
	planPollActorPID, err := ctx.SpawnNamed(planPollProps, domain.ACTOR_ID_PLANPOLL)
	if err != nil {
		return nil, err
	}

	return planPollActorPID, nil
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.plannerActor, state.mqttActor, state.credentials, state.logger)
	}, actor.WithSupervisor(supervisor))
	haDiscPID, err := ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
	if err != nil {
		return nil, err
	}

	return haDiscPID, nil
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *healthCheckResult) reset() {
	state.plannerActorHealthy = false
	state.mqttActorHealthy = false
	state.planPollActorHealthy = false
	state.checksReceived = 0
	state.checksExpected = 2
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == state.checksExpected
}

func (state *healthCheckResult) allHealthy(withPlanPoll bool) bool {
	healthy := state.plannerActorHealthy && state.mqttActorHealthy
	if withPlanPoll {
		healthy = healthy && state.planPollActorHealthy
	}
	return healthy
}

func (state *healthCheckResult) respond(ctx actor.Context, withPlanPoll bool) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(withPlanPoll),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
