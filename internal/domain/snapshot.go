package domain

// RoomState is the externally visible projection of a room.
type RoomState struct {
	RoomID   string `json:"room_id"`
	IsBooked bool   `json:"is_booked"`
}

// BuildingSnapshot is a point-in-time projection of a building's rooms,
// broadcast after every committed booking-state change. Reservations are
// building-internal and never appear here.
type BuildingSnapshot struct {
	BuildingID string      `json:"building_id"`
	Rooms      []RoomState `json:"rooms"`
}

// HasRoom reports whether the snapshot lists the given room id.
func (s BuildingSnapshot) HasRoom(roomID string) bool {
	for _, r := range s.Rooms {
		if r.RoomID == roomID {
			return true
		}
	}
	return false
}
