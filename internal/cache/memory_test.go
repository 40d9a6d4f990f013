package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confrent/roombooking/internal/domain"
)

func TestMemoryStore_GetUnknownBuilding(t *testing.T) {
	store := NewMemoryStore()

	snap, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestMemoryStore_PutReplacesExistingEntry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, domain.BuildingSnapshot{
		BuildingID: "b1",
		Rooms:      []domain.RoomState{{RoomID: "r1", IsBooked: false}},
	}))
	require.NoError(t, store.Put(ctx, domain.BuildingSnapshot{
		BuildingID: "b1",
		Rooms:      []domain.RoomState{{RoomID: "r1", IsBooked: true}},
	}))

	// Re-broadcast for a known building replaces, never appends.
	snaps, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.True(t, snaps[0].Rooms[0].IsBooked)

	snap, err := store.Get(ctx, "b1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.True(t, snap.Rooms[0].IsBooked)
}

func TestMemoryStore_ListGrowsWithDistinctBuildings(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, domain.BuildingSnapshot{BuildingID: "b1"}))
	require.NoError(t, store.Put(ctx, domain.BuildingSnapshot{BuildingID: "b2"}))
	require.NoError(t, store.Put(ctx, domain.BuildingSnapshot{BuildingID: "b1"}))

	snaps, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)
}
