// Package reservation implements the room booking state machine a building
// owns. All three operations run under one mutex: the building is the sole
// writer, which is what keeps two concurrent reservations off the same room.
package reservation

import (
	"fmt"
	"sync"

	"github.com/confrent/roombooking/internal/domain"
	"github.com/confrent/roombooking/internal/protocol"
)

// ValidationError is a rejected transition: answered with a negative
// outcome message, never fatal.
type ValidationError struct {
	Outcome protocol.ReplyType
	Reason  string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

type Service struct {
	mu           sync.Mutex
	buildingID   string
	rooms        map[string]*domain.Room
	roomOrder    []string
	reservations map[string]*domain.Reservation
}

func NewService(buildingID string, roomIDs []string) *Service {
	s := &Service{
		buildingID:   buildingID,
		rooms:        make(map[string]*domain.Room, len(roomIDs)),
		roomOrder:    append([]string(nil), roomIDs...),
		reservations: make(map[string]*domain.Reservation),
	}
	for _, id := range roomIDs {
		s.rooms[id] = &domain.Room{ID: id}
	}
	return s
}

// MakeBooking provisionally claims a room for a customer. The checks run in
// a fixed order: unknown room, live reservation, already booked.
func (s *Service) MakeBooking(roomID, customerID, agentID string) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, &ValidationError{
			Outcome: protocol.InvalidBookingDetails,
			Reason:  fmt.Sprintf("can't book a room with ID: %s, it does not exist", roomID),
		}
	}
	if s.hasLiveReservation(roomID) {
		return nil, &ValidationError{
			Outcome: protocol.InvalidBookingDetails,
			Reason:  fmt.Sprintf("can't book a room with ID: %s, it is already reserved, though not confirmed", roomID),
		}
	}
	if room.Booked {
		return nil, &ValidationError{
			Outcome: protocol.InvalidBookingDetails,
			Reason:  fmt.Sprintf("can't book a room with ID: %s, it is already booked", roomID),
		}
	}

	res := &domain.Reservation{
		ID:                 protocol.NewID(),
		CustomerID:         customerID,
		RoomID:             roomID,
		OriginatingAgentID: agentID,
	}
	s.reservations[res.ID] = res
	return res, nil
}

// ConfirmBooking turns a pending reservation into a committed booking. The
// reservation record survives, marked confirmed, so a later cancellation
// can still find it by id.
func (s *Service) ConfirmBooking(reservationID, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return &ValidationError{
			Outcome: protocol.InvalidConfirmationDetails,
			Reason:  fmt.Sprintf("can't confirm a reservation with ID: %s, the room does not exist", reservationID),
		}
	}
	if room.Booked {
		return &ValidationError{
			Outcome: protocol.InvalidConfirmationDetails,
			Reason:  fmt.Sprintf("can't confirm a reservation with ID: %s, the room is already booked", reservationID),
		}
	}

	res, ok := s.reservations[reservationID]
	if !ok {
		return &ValidationError{
			Outcome: protocol.InvalidConfirmationDetails,
			Reason:  fmt.Sprintf("can't confirm a reservation with ID: %s, it doesn't exist", reservationID),
		}
	}
	if res.RoomID != roomID {
		return &ValidationError{
			Outcome: protocol.InvalidConfirmationDetails,
			Reason:  fmt.Sprintf("can't confirm a reservation with ID: %s, it is not for room with ID: %s", reservationID, roomID),
		}
	}

	room.Book()
	res.Confirmed = true
	return nil
}

// CancelBooking frees a booked room and removes its reservation.
func (s *Service) CancelBooking(reservationID, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return &ValidationError{
			Outcome: protocol.InvalidCancellationDetails,
			Reason:  fmt.Sprintf("can't cancel a reservation with ID: %s, the room does not exist", reservationID),
		}
	}
	if !room.Booked {
		return &ValidationError{
			Outcome: protocol.InvalidCancellationDetails,
			Reason:  fmt.Sprintf("can't cancel a reservation with ID: %s, the room is not booked", reservationID),
		}
	}

	res, ok := s.reservations[reservationID]
	if !ok {
		return &ValidationError{
			Outcome: protocol.InvalidCancellationDetails,
			Reason:  fmt.Sprintf("can't cancel a reservation with ID: %s, it doesn't exist", reservationID),
		}
	}
	if res.RoomID != roomID {
		return &ValidationError{
			Outcome: protocol.InvalidCancellationDetails,
			Reason:  fmt.Sprintf("can't cancel a reservation with ID: %s, it is not for room with ID: %s", reservationID, roomID),
		}
	}

	room.CancelBooking()
	delete(s.reservations, reservationID)
	return nil
}

// Snapshot projects the current room states in creation order. Reservations
// are never part of the snapshot.
func (s *Service) Snapshot() domain.BuildingSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := domain.BuildingSnapshot{
		BuildingID: s.buildingID,
		Rooms:      make([]domain.RoomState, 0, len(s.roomOrder)),
	}
	for _, id := range s.roomOrder {
		room := s.rooms[id]
		snap.Rooms = append(snap.Rooms, domain.RoomState{RoomID: room.ID, IsBooked: room.Booked})
	}
	return snap
}

// hasLiveReservation reports whether an unconfirmed reservation references
// roomID. Callers hold s.mu.
func (s *Service) hasLiveReservation(roomID string) bool {
	for _, res := range s.reservations {
		if res.RoomID == roomID && !res.Confirmed {
			return true
		}
	}
	return false
}
