package service

import (
	"sync"

	"github.com/stenite/planner2mqtt/internal/core/port"
	"github.com/stenite/planner2mqtt/pkg/batteryplanner"
)

// MemoryPlanStateStore keeps the last published plan per entry. A plan
// is replaced only by a newer published plan, never by a failure, so
// readers always see the complete plan the host sensors show.
type MemoryPlanStateStore struct {
	mu    sync.RWMutex
	plans map[string]*batteryplanner.Plan
}

func NewMemoryPlanStateStore() *MemoryPlanStateStore {
	return &MemoryPlanStateStore{
		plans: make(map[string]*batteryplanner.Plan),
	}
}

func (s *MemoryPlanStateStore) Get(entryID string) (*batteryplanner.Plan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan, ok := s.plans[entryID]
	return plan, ok
}

func (s *MemoryPlanStateStore) Put(entryID string, plan *batteryplanner.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[entryID] = plan
}

func (s *MemoryPlanStateStore) Remove(entryID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.plans, entryID)
}

// ensure interface compliance
var _ port.PlanStateStore = (*MemoryPlanStateStore)(nil)
