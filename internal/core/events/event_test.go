package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stenite/planner2mqtt/internal/core/domain"
	"github.com/stenite/planner2mqtt/pkg/batteryplanner"
)

func testPlan() *batteryplanner.Plan {
	return &batteryplanner.Plan{
		BaselineCost:  10.1,
		OptimizedCost: 10.0,
		Schedule: []batteryplanner.ScheduleEntry{
			{
				Time:   time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC),
				Action: batteryplanner.Action{Name: batteryplanner.ACTION_CHARGE, Power: 2.5},
				Cost:   batteryplanner.Cost{Baseline: 1.2, Optimized: 0.9},
				Price:  batteryplanner.Price{Import: 0.31, Export: 0.09},
				SOC:    batteryplanner.SOC{Start: 40, End: 60, Delta: 20},
			},
			{
				Time:   time.Date(2026, 8, 23, 11, 0, 0, 0, time.UTC),
				Action: batteryplanner.Action{Name: batteryplanner.ACTION_DISCHARGE, Power: 1.0},
				Cost:   batteryplanner.Cost{Baseline: 0.8, Optimized: 0.7},
				Price:  batteryplanner.Price{Import: 0.28, Export: 0.11},
				SOC:    batteryplanner.SOC{Start: 60, End: 45, Delta: -15},
			},
		},
	}
}

func eventsById(t *testing.T, events []any) map[string][]any {
	t.Helper()
	byId := make(map[string][]any)
	for _, e := range events {
		ev, ok := e.(domain.SensorUpdateEvent)
		require.True(t, ok, "event must implement SensorUpdateEvent")
		byId[ev.SensorId()] = append(byId[ev.SensorId()], e)
	}
	return byId
}

func TestPlanToUpdateEventsCosts(t *testing.T) {
	now := time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC)
	events, err := PlanToUpdateEvents("home", testPlan(), now)
	require.NoError(t, err)

	byId := eventsById(t, events)

	baseline := byId["home_baseline_cost"][0].(domain.FloatSensorUpdateEvent)
	assert.Equal(t, 10.1, baseline.Value)

	optimized := byId["home_optimized_cost"][0].(domain.FloatSensorUpdateEvent)
	assert.Equal(t, 10.0, optimized.Value)

	// exact money subtraction, no float residue
	delta := byId["home_cost_delta"][0].(domain.FloatSensorUpdateEvent)
	assert.Equal(t, 0.1, delta.Value)
}

func TestPlanToUpdateEventsScheduleAttributes(t *testing.T) {
	now := time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC)
	plan := testPlan()
	events, err := PlanToUpdateEvents("home", plan, now)
	require.NoError(t, err)

	byId := eventsById(t, events)

	planEvents := byId["home_plan"]
	require.Len(t, planEvents, 2)
	state := planEvents[0].(domain.TextSensorUpdateEvent)
	assert.Equal(t, domain.PLAN_STATE_ACTIVE, state.Value)

	attrs := planEvents[1].(domain.AttributesSensorUpdateEvent)
	var decoded planAttributes
	require.NoError(t, json.Unmarshal([]byte(attrs.JSON), &decoded))
	assert.Equal(t, plan.BaselineCost, decoded.BaselineCost)
	assert.Equal(t, plan.OptimizedCost, decoded.OptimizedCost)
	// the full schedule round-trips: time, action, cost, price and soc
	assert.Equal(t, plan.Schedule, decoded.Schedule)
}

func TestPlanToUpdateEventsCurrentAction(t *testing.T) {
	plan := testPlan()

	// inside the first step
	now := time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC)
	events, err := PlanToUpdateEvents("home", plan, now)
	require.NoError(t, err)
	byId := eventsById(t, events)
	action := byId["home_current_action"][0].(domain.TextSensorUpdateEvent)
	assert.Equal(t, batteryplanner.ACTION_CHARGE, action.Value)

	// second step started
	now = time.Date(2026, 8, 23, 11, 0, 0, 0, time.UTC)
	events, err = PlanToUpdateEvents("home", plan, now)
	require.NoError(t, err)
	byId = eventsById(t, events)
	action = byId["home_current_action"][0].(domain.TextSensorUpdateEvent)
	assert.Equal(t, batteryplanner.ACTION_DISCHARGE, action.Value)

	// schedule entirely in the future falls back to the first step
	now = time.Date(2026, 8, 23, 8, 0, 0, 0, time.UTC)
	events, err = PlanToUpdateEvents("home", plan, now)
	require.NoError(t, err)
	byId = eventsById(t, events)
	action = byId["home_current_action"][0].(domain.TextSensorUpdateEvent)
	assert.Equal(t, batteryplanner.ACTION_CHARGE, action.Value)
}

func TestPlanToUpdateEventsEmptySchedule(t *testing.T) {
	plan := &batteryplanner.Plan{
		BaselineCost:  5,
		OptimizedCost: 5,
		Schedule:      []batteryplanner.ScheduleEntry{},
	}
	events, err := PlanToUpdateEvents("home", plan, time.Now())
	require.NoError(t, err)

	byId := eventsById(t, events)
	actionEvents := byId["home_current_action"]
	require.Len(t, actionEvents, 1)
	action := actionEvents[0].(domain.TextSensorUpdateEvent)
	assert.Equal(t, batteryplanner.ACTION_IDLE, action.Value)
}

func TestCurrentScheduleEntryEmpty(t *testing.T) {
	assert.Nil(t, CurrentScheduleEntry(nil, time.Now()))
}
