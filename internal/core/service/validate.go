package service

import (
	"errors"
	"fmt"
	"math"

	"github.com/stenite/planner2mqtt/pkg/batteryplanner"
)

var (
	ErrUnknownEntry   = errors.New("unknown config entry")
	ErrNoParams       = errors.New("no plan parameters given and the entry has no defaults")
	ErrEmptyPower     = errors.New("power_kw must contain at least one value")
	ErrNonFinitePower = errors.New("power_kw values must be finite numbers")
	ErrSOCOutOfRange  = errors.New("battery_current_soc must be between 0 and 100")
)

// ValidatePlanParams rejects inputs the planner would reject anyway, so a
// bad request never costs an upstream call.
func ValidatePlanParams(params batteryplanner.PlanParams) error {
	if len(params.PowerKw) == 0 {
		return ErrEmptyPower
	}
	for i, p := range params.PowerKw {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w (index %d)", ErrNonFinitePower, i)
		}
	}
	if math.IsNaN(params.BatteryCurrentSOC) ||
		params.BatteryCurrentSOC < 0 || params.BatteryCurrentSOC > 100 {
		return ErrSOCOutOfRange
	}
	return nil
}

// ResolvePlanParams picks the request params or falls back to the entry's
// configured defaults, then validates the result.
func ResolvePlanParams(params *batteryplanner.PlanParams, defaults *batteryplanner.PlanParams) (batteryplanner.PlanParams, error) {
	if params == nil {
		if defaults == nil {
			return batteryplanner.PlanParams{}, ErrNoParams
		}
		params = defaults
	}
	if err := ValidatePlanParams(*params); err != nil {
		return batteryplanner.PlanParams{}, err
	}
	return *params, nil
}
