package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/confrent/roombooking/config"
	"github.com/confrent/roombooking/internal/domain"
)

// RedisStore shares one snapshot view across agent replicas. Snapshots live
// in a single hash keyed by building id; HSET gives last-writer-wins.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(cfg config.RedisConfig) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
	}
}

func (s *RedisStore) Put(ctx context.Context, snap domain.BuildingSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", snap.BuildingID, err)
	}
	return s.client.HSet(ctx, snapshotsKey(), snap.BuildingID, payload).Err()
}

func (s *RedisStore) Get(ctx context.Context, buildingID string) (*domain.BuildingSnapshot, error) {
	data, err := s.client.HGet(ctx, snapshotsKey(), buildingID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var snap domain.BuildingSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", buildingID, err)
	}
	return &snap, nil
}

func (s *RedisStore) List(ctx context.Context) ([]domain.BuildingSnapshot, error) {
	entries, err := s.client.HGetAll(ctx, snapshotsKey()).Result()
	if err != nil {
		return nil, err
	}

	out := make([]domain.BuildingSnapshot, 0, len(entries))
	for id, data := range entries {
		var snap domain.BuildingSnapshot
		if err := json.Unmarshal([]byte(data), &snap); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot %s: %w", id, err)
		}
		out = append(out, snap)
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func snapshotsKey() string {
	return "cache:building_snapshots"
}

var _ SnapshotStore = (*RedisStore)(nil)
