package batteryplanner

import (
	"context"
	"sync"
)

// TestClient is a configurable stand-in for actor and service tests.
type TestClient struct {
	mu sync.Mutex

	Plan        *Plan
	PlanErr     error
	ValidateErr error

	planCalls     int
	validateCalls int
	lastParams    PlanParams
	lastSystemID  string
}

func (c *TestClient) CreatePlan(_ context.Context, systemID, _ string, params PlanParams) (*Plan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.planCalls++
	c.lastSystemID = systemID
	c.lastParams = params
	if c.PlanErr != nil {
		return nil, c.PlanErr
	}
	return c.Plan, nil
}

func (c *TestClient) ValidateToken(context.Context, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.validateCalls++
	return c.ValidateErr
}

func (c *TestClient) PlanCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.planCalls
}

func (c *TestClient) ValidateCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateCalls
}

func (c *TestClient) LastParams() PlanParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastParams
}

// ensure interface compliance
var _ Client = (*TestClient)(nil)
