package port

import (
	"github.com/stenite/planner2mqtt/internal/core/domain"
	"github.com/stenite/planner2mqtt/pkg/batteryplanner"
)

// CredentialStore holds the registered system entries keyed by config
// entry id. Entries seeded from configuration and entries registered at
// runtime live in the same store.
type CredentialStore interface {
	Get(entryID string) (domain.SystemEntry, bool)
	Put(entry domain.SystemEntry)
	Remove(entryID string) bool
	List() []domain.SystemEntry
}

// PlanStateStore keeps the last plan published to the host per entry so
// HTTP reads don't trigger a new upstream request. Plans requested with
// update_sensors off never land here.
type PlanStateStore interface {
	Get(entryID string) (*batteryplanner.Plan, bool)
	Put(entryID string, plan *batteryplanner.Plan)
	Remove(entryID string)
}
