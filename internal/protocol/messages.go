// Package protocol defines the messages exchanged between customers, agents
// and buildings, and their wire encoding.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/confrent/roombooking/internal/domain"
)

type RequestType string

const (
	GetBuildingsList RequestType = "GET_BUILDINGS_LIST"
	MakeBooking      RequestType = "MAKE_BOOKING"
	ConfirmBooking   RequestType = "CONFIRM_BOOKING"
	CancelBooking    RequestType = "CANCEL_BOOKING"
)

type ReplyType string

const (
	BuildingsList              ReplyType = "BUILDINGS_LIST"
	BookingMade                ReplyType = "BOOKING_MADE"
	InvalidBookingDetails      ReplyType = "INVALID_BOOKING_DETAILS"
	BookingConfirmed           ReplyType = "BOOKING_CONFIRMED"
	InvalidConfirmationDetails ReplyType = "INVALID_CONFIRMATION_DETAILS"
	BookingCancelled           ReplyType = "BOOKING_CANCELLED"
	InvalidCancellationDetails ReplyType = "INVALID_CANCELLATION_DETAILS"
)

// Request travels customer -> agent -> building. CorrelationID and
// CustomerID are set by the customer and carried unchanged through every
// hop; AgentID is filled in by the forwarding agent so the building knows
// which inbox to answer on. Reply routing never depends on agent state.
type Request struct {
	Type          RequestType `json:"type"`
	CorrelationID string      `json:"correlation_id"`
	CustomerID    string      `json:"customer_id"`
	AgentID       string      `json:"agent_id,omitempty"`
	BuildingID    string      `json:"building_id,omitempty"`
	RoomID        string      `json:"room_id,omitempty"`
	ReservationID string      `json:"reservation_id,omitempty"`
}

// Reply travels building -> agent -> customer. Detail is operator-facing
// free text and is not machine-parsed.
type Reply struct {
	Type          ReplyType                 `json:"type"`
	CorrelationID string                    `json:"correlation_id"`
	CustomerID    string                    `json:"customer_id"`
	Detail        string                    `json:"detail,omitempty"`
	ReservationID string                    `json:"reservation_id,omitempty"`
	Buildings     []domain.BuildingSnapshot `json:"buildings,omitempty"`
}

func EncodeRequest(req Request) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", req.Type, err)
	}
	return data, nil
}

func DecodeRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	if req.Type == "" {
		return Request{}, fmt.Errorf("decode request: missing type")
	}
	return req, nil
}

func EncodeReply(rep Reply) ([]byte, error) {
	data, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("encode %s reply: %w", rep.Type, err)
	}
	return data, nil
}

func DecodeReply(data []byte) (Reply, error) {
	var rep Reply
	if err := json.Unmarshal(data, &rep); err != nil {
		return Reply{}, fmt.Errorf("decode reply: %w", err)
	}
	if rep.Type == "" {
		return Reply{}, fmt.Errorf("decode reply: missing type")
	}
	return rep, nil
}

// NewID returns a short opaque identifier used for actors, reservations and
// request correlation.
func NewID() string {
	return uuid.NewString()[:8]
}
