package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stenite/planner2mqtt/pkg/batteryplanner"
)

func validParams() batteryplanner.PlanParams {
	return batteryplanner.PlanParams{
		PowerKw:           []float64{1.2, -0.4},
		BatteryCurrentSOC: 50,
		AllowExport:       true,
	}
}

func TestValidatePlanParamsOK(t *testing.T) {
	require.NoError(t, ValidatePlanParams(validParams()))
}

func TestValidatePlanParamsEmptyPower(t *testing.T) {
	params := validParams()
	params.PowerKw = nil
	assert.ErrorIs(t, ValidatePlanParams(params), ErrEmptyPower)
}

func TestValidatePlanParamsNonFinitePower(t *testing.T) {
	params := validParams()
	params.PowerKw = []float64{1.0, math.NaN()}
	assert.ErrorIs(t, ValidatePlanParams(params), ErrNonFinitePower)

	params.PowerKw = []float64{math.Inf(1)}
	assert.ErrorIs(t, ValidatePlanParams(params), ErrNonFinitePower)
}

func TestValidatePlanParamsSOCBounds(t *testing.T) {
	params := validParams()

	params.BatteryCurrentSOC = 0
	assert.NoError(t, ValidatePlanParams(params))

	params.BatteryCurrentSOC = 100
	assert.NoError(t, ValidatePlanParams(params))

	params.BatteryCurrentSOC = -0.1
	assert.ErrorIs(t, ValidatePlanParams(params), ErrSOCOutOfRange)

	params.BatteryCurrentSOC = 101
	assert.ErrorIs(t, ValidatePlanParams(params), ErrSOCOutOfRange)
}

func TestResolvePlanParamsPrefersRequest(t *testing.T) {
	request := validParams()
	defaults := validParams()
	defaults.BatteryCurrentSOC = 10

	resolved, err := ResolvePlanParams(&request, &defaults)
	require.NoError(t, err)
	assert.Equal(t, request, resolved)
}

func TestResolvePlanParamsFallsBackToDefaults(t *testing.T) {
	defaults := validParams()

	resolved, err := ResolvePlanParams(nil, &defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, resolved)
}

func TestResolvePlanParamsNoParamsNoDefaults(t *testing.T) {
	_, err := ResolvePlanParams(nil, nil)
	assert.ErrorIs(t, err, ErrNoParams)
}

func TestResolvePlanParamsValidatesDefaults(t *testing.T) {
	defaults := validParams()
	defaults.PowerKw = nil

	_, err := ResolvePlanParams(nil, &defaults)
	assert.ErrorIs(t, err, ErrEmptyPower)
}
