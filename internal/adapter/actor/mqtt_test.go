package actor

import (
	"testing"
	"time"

	"github.com/stenite/planner2mqtt/internal/core/domain"
	"github.com/stenite/planner2mqtt/internal/mqtt"
	"github.com/stenite/planner2mqtt/internal/util"
	"github.com/stenite/planner2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMQTTActor(t *testing.T) {

	cfg := util.LoadTestConfig()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	msg := domain.ActorHealthRequest{}
	result, err := context.RequestFuture(pid, msg, 2*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp, ok := result.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.NotNil(t, resp)
	assert.True(t, resp.Healthy)

	// discovery publish responds when asked
	discResult, err := context.RequestFuture(pid, domain.PublishDiscoveryRequest{
		Sensors: domain.BridgeSensors(domain.BridgeDevice(cfg.MQTT.BaseTopic)),
	}, 2*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	_, ok = discResult.(domain.PublishDiscoveryResponse)
	assert.True(t, ok)

	context.Stop(pid)

	time.Sleep(1 * time.Second)

	as.Shutdown()
}

func TestEvent2MQTTMessage(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())

	act := NewTestMQTTActor(&cfg, logger)
	act.client = mqtt.CreateMQTTClient(&cfg, mqtt.OptsFromConfig(&cfg), nil, nil)

	msg := act.event2MQTTMessage(domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: domain.SystemSensorId("home", domain.SENSOR_ID_BASELINE_COST),
		},
		Value:    2.504,
		Decimals: 2,
	})
	if assert.NotNil(msg) {
		assert.Equal("planner2mqtt/sensor/home_baseline_cost/state", msg.topic)
		assert.Equal("2.50", msg.message)
	}

	msg = act.event2MQTTMessage(domain.TextSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: domain.SystemSensorId("home", domain.SENSOR_ID_CURRENT_ACTION),
		},
		Value: "charge",
	})
	if assert.NotNil(msg) {
		assert.Equal("planner2mqtt/sensor/home_current_action/state", msg.topic)
		assert.Equal("charge", msg.message)
	}

	msg = act.event2MQTTMessage(domain.AttributesSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: domain.SystemSensorId("home", domain.SENSOR_ID_PLAN),
		},
		JSON: `{"baseline_cost":2.5}`,
	})
	if assert.NotNil(msg) {
		assert.Equal("planner2mqtt/sensor/home_plan/attributes", msg.topic)
		assert.True(msg.retain, "attributes are retained")
	}

	msg = act.event2MQTTMessage(domain.BridgeStateUpdateEvent{Value: true})
	if assert.NotNil(msg) {
		assert.Equal("planner2mqtt/bridge/state", msg.topic)
		assert.Equal("online", msg.message)
	}
}
