package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stenite/planner2mqtt/internal/core/domain"
	"github.com/stenite/planner2mqtt/pkg/batteryplanner"
)

func TestCredentialStoreSeedAndLookup(t *testing.T) {
	store := NewMemoryCredentialStore([]domain.SystemEntry{
		{ID: "home", SystemID: "sys1", APIToken: "tok1"},
		{ID: "cabin", SystemID: "sys2", APIToken: "tok2"},
	})

	entry, ok := store.Get("home")
	require.True(t, ok)
	assert.Equal(t, "sys1", entry.SystemID)

	_, ok = store.Get("garage")
	assert.False(t, ok)
}

func TestCredentialStorePutRemove(t *testing.T) {
	store := NewMemoryCredentialStore(nil)

	store.Put(domain.SystemEntry{ID: "home", SystemID: "sys1"})
	_, ok := store.Get("home")
	require.True(t, ok)

	assert.True(t, store.Remove("home"))
	assert.False(t, store.Remove("home"))
	_, ok = store.Get("home")
	assert.False(t, ok)
}

func TestCredentialStoreListIsSorted(t *testing.T) {
	store := NewMemoryCredentialStore([]domain.SystemEntry{
		{ID: "zulu"},
		{ID: "alpha"},
		{ID: "mike"},
	})

	list := store.List()
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].ID)
	assert.Equal(t, "mike", list[1].ID)
	assert.Equal(t, "zulu", list[2].ID)
}

func TestPlanStateStoreKeepsLastPlan(t *testing.T) {
	store := NewMemoryPlanStateStore()

	_, ok := store.Get("home")
	require.False(t, ok)

	first := &batteryplanner.Plan{BaselineCost: 10, OptimizedCost: 8}
	store.Put("home", first)

	got, ok := store.Get("home")
	require.True(t, ok)
	assert.Same(t, first, got)

	second := &batteryplanner.Plan{BaselineCost: 12, OptimizedCost: 9}
	store.Put("home", second)

	got, ok = store.Get("home")
	require.True(t, ok)
	assert.Same(t, second, got)

	store.Remove("home")
	_, ok = store.Get("home")
	assert.False(t, ok)
}
