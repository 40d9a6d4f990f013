package domain

// Reservation is a pending booking claim on a room. It is created when a
// MAKE_BOOKING is accepted, marked confirmed by CONFIRM_BOOKING, and removed
// by CANCEL_BOOKING. At most one unconfirmed reservation may reference a
// room at any time.
type Reservation struct {
	ID                 string
	CustomerID         string
	RoomID             string
	OriginatingAgentID string
	Confirmed          bool
}
