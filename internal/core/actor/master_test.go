package actor

import (
	"fmt"
	"testing"
	"time"

	adactor "github.com/stenite/planner2mqtt/internal/adapter/actor"
	"github.com/stenite/planner2mqtt/internal/core/domain"
	"github.com/stenite/planner2mqtt/internal/core/service"
	"github.com/stenite/planner2mqtt/internal/util"
	"github.com/stenite/planner2mqtt/pkg/batteryplanner"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMasterActor(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	credentials := service.NewMemoryCredentialStore([]domain.SystemEntry{
		{
			ID:       "home",
			SystemID: "sys42",
			APIToken: "test-token",
			Defaults: &batteryplanner.PlanParams{
				PowerKw:           []float64{1.2, -0.5},
				BatteryCurrentSOC: 50,
			},
		},
	})
	plans := service.NewMemoryPlanStateStore()
	client := &batteryplanner.TestClient{
		Plan: &batteryplanner.Plan{
			BaselineCost:  2.5,
			OptimizedCost: 1.75,
		},
	}

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, credentials, func(es *eventstream.EventStream) *adactor.PlannerActor {
			return adactor.NewPlannerActor(client, credentials, plans, es, 2*time.Second, logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, logger)
		}, logger)
	})
	pid, err := context.SpawnNamed(props, "master")
	if err != nil {
		t.Error(err)
		return
	}

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
	}
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	fmt.Printf("Health response: %+v\n", healthResp)
	assert.NotNil(t, healthResp)

	assert.True(t, healthResp.Healthy, "healthy is true")

	// a plan request to the master is forwarded to the planner and the
	// response reaches the original requester
	res, err = context.RequestFuture(pid, domain.CreatePlanRequest{
		EntryID:       "home",
		UpdateSensors: true,
	}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	planResp, ok := res.(domain.CreatePlanResponse)
	assert.True(t, ok)
	assert.True(t, planResp.Result.Success, "plan succeeds")

	_, ok = plans.Get("home")
	assert.True(t, ok, "plan stored")

	context.Stop(pid)

	as.Shutdown()
}
