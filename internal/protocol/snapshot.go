package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/confrent/roombooking/internal/domain"
)

// EncodeSnapshot serializes a building snapshot for the broadcast topic.
// EncodeSnapshot and DecodeSnapshot round-trip exactly.
func EncodeSnapshot(snap domain.BuildingSnapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot for building %s: %w", snap.BuildingID, err)
	}
	return data, nil
}

func DecodeSnapshot(data []byte) (domain.BuildingSnapshot, error) {
	var snap domain.BuildingSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.BuildingSnapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.BuildingID == "" {
		return domain.BuildingSnapshot{}, fmt.Errorf("decode snapshot: missing building id")
	}
	return snap, nil
}
