package domain

// Room is owned exclusively by its building; only the reservation service
// mutates it, under the building's single-writer loop.
type Room struct {
	ID     string
	Booked bool
}

// Book marks the room booked. Callers must have checked Booked first;
// booking an already-booked room is a contract violation, not user error.
func (r *Room) Book() {
	if r.Booked {
		panic("room " + r.ID + " is already booked")
	}
	r.Booked = true
}

// CancelBooking frees a booked room. Same contract as Book.
func (r *Room) CancelBooking() {
	if !r.Booked {
		panic("room " + r.ID + " is not booked")
	}
	r.Booked = false
}
