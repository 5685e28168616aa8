package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/stenite/planner2mqtt/internal/config"
	"github.com/stenite/planner2mqtt/internal/core/domain"
	"github.com/stenite/planner2mqtt/internal/core/port"
	"github.com/stenite/planner2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// RunDiscovery re-announces entities. With a nil Entry the bridge and
// every registered system are announced; with an Entry only that system.
type RunDiscovery struct {
	Entry *domain.SystemEntry
}

// RemoveDiscovery clears the retained discovery payloads of one entry so
// the host forgets its entities.
type RemoveDiscovery struct {
	EntryID string
}

type HADiscoveryActor struct {
	config              *config.Config
	behavior            actor.Behavior
	stash               *actorutil.Stash
	plannerActor        *actor.PID
	mqttActor           *actor.PID
	credentials         port.CredentialStore
	plannerActorHealthy bool
	mqttActorHealthy    bool
	healthyRecv         int

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, plannerActor *actor.PID, mqttActor *actor.PID,
	credentials port.CredentialStore, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:       config,
		plannerActor: plannerActor,
		mqttActor:    mqttActor,
		credentials:  credentials,
		behavior:     actor.NewBehavior(),
		stash:        &actorutil.Stash{},
		logger:       actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		// Check Planner and MQTT actor healthy
		state.healthyRecv = 0
		state.plannerActorHealthy = false
		state.mqttActorHealthy = false
		// Planner Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.plannerActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_PLANNER,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.healthyRecv++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_PLANNER:
				state.plannerActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.mqttActorHealthy = true
			}
		}
		if state.healthyRecv == 2 {

			if state.plannerActorHealthy && state.mqttActorHealthy {
				state.publishDiscovery(ctx, nil)
				state.behavior.Become(state.Done)
				state.stash.UnstashAll(ctx)
			} else {
				panic(errors.New("MQTT Actor or Planner Actor are not healthy"))
			}
		}
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) Done(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case RunDiscovery:
		state.logger.Debug("hadiscovery@done RunDiscovery")
		state.publishDiscovery(ctx, msg.Entry)
	case RemoveDiscovery:
		state.logger.Debug("hadiscovery@done RemoveDiscovery", zap.String("entry", msg.EntryID))
		// sensor ids derive from the entry id alone, so a synthetic
		// entry is enough to address the retained config topics
		bridgeDevice := domain.BridgeDevice(state.config.MQTT.BaseTopic)
		sensors := state.systemSensors(domain.SystemEntry{ID: msg.EntryID}, bridgeDevice)
		ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
			Sensors: sensors,
			Remove:  true,
		})
	default:
		state.logger.Debug("hadiscovery@done: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *HADiscoveryActor) publishDiscovery(ctx actor.Context, only *domain.SystemEntry) {
	var sensors []domain.GenericSensor

	bridgeDevice := domain.BridgeDevice(state.config.MQTT.BaseTopic)

	if only != nil {
		sensors = state.systemSensors(*only, bridgeDevice)
	} else {
		sensors = append(sensors, domain.BridgeSensors(bridgeDevice)...)
		for _, entry := range state.credentials.List() {
			sensors = append(sensors, state.systemSensors(entry, bridgeDevice)...)
		}
	}

	ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
		Sensors: sensors,
	})
}

func (state *HADiscoveryActor) systemSensors(entry domain.SystemEntry, bridgeDevice domain.Device) []domain.GenericSensor {
	systemDevice := domain.PlannerSystemDevice(entry, bridgeDevice)
	sensors := domain.PlannerSystemSensors(systemDevice, entry, state.config.Planner.Currency)
	for i := range sensors {
		if i > 0 {
			sensors[i].Device = domain.IdDevice(systemDevice)
		}
	}
	return sensors
}
