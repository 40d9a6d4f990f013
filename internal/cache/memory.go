package cache

import (
	"context"
	"sync"

	"github.com/confrent/roombooking/internal/domain"
)

// MemoryStore is the default per-agent snapshot store.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]domain.BuildingSnapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]domain.BuildingSnapshot)}
}

func (s *MemoryStore) Put(ctx context.Context, snap domain.BuildingSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.BuildingID] = snap
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, buildingID string) (*domain.BuildingSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[buildingID]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]domain.BuildingSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.BuildingSnapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		out = append(out, snap)
	}
	return out, nil
}

var _ SnapshotStore = (*MemoryStore)(nil)
