package batteryplanner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() PlanParams {
	return PlanParams{
		PowerKw:           []float64{1.5, -0.5, 2.0},
		BatteryCurrentSOC: 55,
		AllowExport:       true,
	}
}

func TestCreatePlanRequestShape(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotBody PlanParams

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"baseline_cost": 10.5, "optimized_cost": 8.25, "schedule": []}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, 5*time.Second)
	plan, err := client.CreatePlan(context.Background(), "sys42", "secret-token", testParams())
	require.NoError(t, err)

	assert.Equal(t, "/api/battery_planner/sys42/plan", gotPath)
	assert.Equal(t, "Token secret-token", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, testParams(), gotBody)
	assert.Equal(t, 10.5, plan.BaselineCost)
	assert.Equal(t, 8.25, plan.OptimizedCost)
	assert.Empty(t, plan.Schedule)
}

func TestCreatePlanDecodesSchedule(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"baseline_cost": 12.0,
			"optimized_cost": 9.0,
			"schedule": [
				{
					"time": "2026-08-23T10:00:00Z",
					"action": {"name": "charge", "power": 3.3},
					"cost": {"baseline": 1.0, "optimized": 0.5},
					"price": {"import": 0.30, "export": 0.10},
					"soc": {"start": 50, "end": 60, "delta": 10}
				}
			]
		}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, 5*time.Second)
	plan, err := client.CreatePlan(context.Background(), "sys1", "tok", testParams())
	require.NoError(t, err)
	require.Len(t, plan.Schedule, 1)

	entry := plan.Schedule[0]
	assert.Equal(t, ACTION_CHARGE, entry.Action.Name)
	assert.Equal(t, 3.3, entry.Action.Power)
	assert.Equal(t, time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC), entry.Time)
	assert.Equal(t, 10.0, entry.SOC.Delta)
}

func TestCreatePlanHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail": "unknown system"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, 5*time.Second)
	_, err := client.CreatePlan(context.Background(), "nope", "tok", testParams())
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "unknown system")
	assert.False(t, errors.Is(err, ErrInvalidAuth))
}

func TestCreatePlanInvalidAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, 5*time.Second)
	_, err := client.CreatePlan(context.Background(), "sys1", "badtok", testParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidAuth))
}

func TestCreatePlanMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"baseline_cost": `))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, 5*time.Second)
	_, err := client.CreatePlan(context.Background(), "sys1", "tok", testParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestCreatePlanMissingFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"baseline_cost": 10.0}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, 5*time.Second)
	_, err := client.CreatePlan(context.Background(), "sys1", "tok", testParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required fields")
}

func TestValidateToken(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, 5*time.Second)
	require.NoError(t, client.ValidateToken(context.Background(), "tok"))
	assert.Equal(t, "/auth/api/validate-api-token", gotPath)
	assert.Equal(t, "Token tok", gotAuth)
}

func TestValidateTokenRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, 5*time.Second)
	err := client.ValidateToken(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidAuth))
}
