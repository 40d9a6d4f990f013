// Package cache holds the agent-side view of building snapshots fed by the
// broadcast stream. The view is eventually consistent: the building always
// re-validates authoritatively.
package cache

import (
	"context"

	"github.com/confrent/roombooking/internal/domain"
)

type SnapshotStore interface {
	// Put stores snap, replacing any previous snapshot for the same
	// building id (last writer wins).
	Put(ctx context.Context, snap domain.BuildingSnapshot) error

	// Get returns the latest snapshot for buildingID, or (nil, nil) when
	// the building is unknown.
	Get(ctx context.Context, buildingID string) (*domain.BuildingSnapshot, error)

	// List returns every known snapshot. Order is unspecified.
	List(ctx context.Context) ([]domain.BuildingSnapshot, error)
}
