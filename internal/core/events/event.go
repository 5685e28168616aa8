package events

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	. "github.com/stenite/planner2mqtt/internal/core/domain"
	"github.com/stenite/planner2mqtt/pkg/batteryplanner"
)

type planAttributes struct {
	BaselineCost  float64                        `json:"baseline_cost"`
	OptimizedCost float64                        `json:"optimized_cost"`
	Schedule      []batteryplanner.ScheduleEntry `json:"schedule"`
}

type actionAttributes struct {
	Power float64              `json:"power"`
	Since time.Time            `json:"since"`
	Cost  batteryplanner.Cost  `json:"cost"`
	Price batteryplanner.Price `json:"price"`
	SOC   batteryplanner.SOC   `json:"soc"`
}

// PlanToUpdateEvents maps a successful plan to the full set of sensor
// updates for one entry. The caller publishes them as one batch so the
// host never observes a half-updated plan.
func PlanToUpdateEvents(entryID string, plan *batteryplanner.Plan, now time.Time) ([]any, error) {
	var events []any

	// Baseline cost
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SystemSensorId(entryID, SENSOR_ID_BASELINE_COST),
		},
		Value:    plan.BaselineCost,
		Decimals: 2,
	})
	// Optimized cost
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SystemSensorId(entryID, SENSOR_ID_OPTIMIZED_COST),
		},
		Value:    plan.OptimizedCost,
		Decimals: 2,
	})
	// Cost delta. Plain float subtraction of near-equal money values
	// bleeds representation noise into the sensor, so compute exactly.
	delta := decimal.NewFromFloat(plan.BaselineCost).
		Sub(decimal.NewFromFloat(plan.OptimizedCost))
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SystemSensorId(entryID, SENSOR_ID_COST_DELTA),
		},
		Value:    delta.InexactFloat64(),
		Decimals: 2,
	})

	// Plan state, full schedule on the attribute topic
	planAttrs, err := json.Marshal(planAttributes{
		BaselineCost:  plan.BaselineCost,
		OptimizedCost: plan.OptimizedCost,
		Schedule:      plan.Schedule,
	})
	if err != nil {
		return nil, err
	}
	events = append(events, TextSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SystemSensorId(entryID, SENSOR_ID_PLAN),
		},
		Value: PLAN_STATE_ACTIVE,
	})
	events = append(events, AttributesSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SystemSensorId(entryID, SENSOR_ID_PLAN),
		},
		JSON: string(planAttrs),
	})

	// Current action
	if entry := CurrentScheduleEntry(plan.Schedule, now); entry != nil {
		actionAttrs, err := json.Marshal(actionAttributes{
			Power: entry.Action.Power,
			Since: entry.Time,
			Cost:  entry.Cost,
			Price: entry.Price,
			SOC:   entry.SOC,
		})
		if err != nil {
			return nil, err
		}
		events = append(events, TextSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SystemSensorId(entryID, SENSOR_ID_CURRENT_ACTION),
			},
			Value: entry.Action.Name,
		})
		events = append(events, AttributesSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SystemSensorId(entryID, SENSOR_ID_CURRENT_ACTION),
			},
			JSON: string(actionAttrs),
		})
	} else {
		events = append(events, TextSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SystemSensorId(entryID, SENSOR_ID_CURRENT_ACTION),
			},
			Value: batteryplanner.ACTION_IDLE,
		})
	}

	return events, nil
}

// CurrentScheduleEntry picks the schedule step that covers now: the last
// entry whose start time is not in the future, or the first entry when
// the whole schedule still lies ahead. Nil when the schedule is empty.
func CurrentScheduleEntry(schedule []batteryplanner.ScheduleEntry, now time.Time) *batteryplanner.ScheduleEntry {
	if len(schedule) == 0 {
		return nil
	}
	current := &schedule[0]
	for i := range schedule {
		if schedule[i].Time.After(now) {
			break
		}
		current = &schedule[i]
	}
	return current
}
