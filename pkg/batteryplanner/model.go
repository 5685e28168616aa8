package batteryplanner

import "time"

// Action names the planner emits in schedule entries.
const (
	ACTION_CHARGE    = "charge"
	ACTION_DISCHARGE = "discharge"
	ACTION_IDLE      = "idle"
)

// PlanParams are the inputs of a plan computation. The API token and
// system id are carried out of band (header and URL path respectively),
// so they are not part of the JSON body.
type PlanParams struct {
	PowerKw           []float64 `json:"power_kw"`
	BatteryCurrentSOC float64   `json:"battery_current_soc"`
	AllowExport       bool      `json:"allow_export"`
}

type Action struct {
	Name  string  `json:"name"`
	Power float64 `json:"power"`
}

type Cost struct {
	Baseline  float64 `json:"baseline"`
	Optimized float64 `json:"optimized"`
}

type Price struct {
	Import float64 `json:"import"`
	Export float64 `json:"export"`
}

type SOC struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Delta float64 `json:"delta"`
}

// ScheduleEntry is one timestamped step of a plan. Entries are immutable
// once received and keep the order the planner returned them in.
type ScheduleEntry struct {
	Time   time.Time `json:"time"`
	Action Action    `json:"action"`
	Cost   Cost      `json:"cost"`
	Price  Price     `json:"price"`
	SOC    SOC       `json:"soc"`
}

// Plan is a successful planner response.
type Plan struct {
	BaselineCost  float64         `json:"baseline_cost"`
	OptimizedCost float64         `json:"optimized_cost"`
	Schedule      []ScheduleEntry `json:"schedule"`
}
