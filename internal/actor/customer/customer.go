// Package customer implements the requesting side of the protocol: one
// request at a time, suspended until the matching reply arrives on the
// customer's personal inbox or the timeout fires.
package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/confrent/roombooking/config"
	"github.com/confrent/roombooking/internal/bus"
	"github.com/confrent/roombooking/internal/domain"
	"github.com/confrent/roombooking/internal/protocol"
)

var (
	ErrRequestInFlight = errors.New("a request is already in flight")
	ErrRequestTimedOut = errors.New("request timed out")
)

type Session struct {
	id      string
	bus     bus.Bus
	topo    config.TopologyConfig
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	pending *pendingRequest
}

// pendingRequest is the single-slot future for the one in-flight request.
// done is buffered so a reply arriving before the caller reaches its select
// is never lost.
type pendingRequest struct {
	correlationID string
	done          chan protocol.Reply
}

func NewSession(id string, b bus.Bus, topo config.TopologyConfig, timeout time.Duration, logger *slog.Logger) *Session {
	return &Session{
		id:      id,
		bus:     b,
		topo:    topo,
		timeout: timeout,
		logger:  logger.With("customer_id", id),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Start subscribes the customer's personal inbox and dispatches replies in
// the background until ctx is done.
func (s *Session) Start(ctx context.Context) error {
	replies, err := s.bus.Subscribe(ctx, s.topo.CustomerInboxFor(s.id))
	if err != nil {
		return fmt.Errorf("subscribe customer inbox: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-replies:
				if !ok {
					return
				}
				s.dispatch(msg.Payload)
			}
		}
	}()
	return nil
}

// ListBuildings returns every building snapshot the answering agent knows.
// Before any building has broadcast, the list is empty.
func (s *Session) ListBuildings(ctx context.Context) ([]domain.BuildingSnapshot, error) {
	rep, err := s.roundTrip(ctx, protocol.Request{Type: protocol.GetBuildingsList})
	if err != nil {
		return nil, err
	}
	return rep.Buildings, nil
}

// MakeBooking asks the named building to provisionally claim a room. The
// returned reply is either BOOKING_MADE carrying the reservation id, or an
// INVALID_BOOKING_DETAILS rejection.
func (s *Session) MakeBooking(ctx context.Context, buildingID, roomID string) (protocol.Reply, error) {
	return s.roundTrip(ctx, protocol.Request{
		Type:       protocol.MakeBooking,
		BuildingID: buildingID,
		RoomID:     roomID,
	})
}

func (s *Session) ConfirmBooking(ctx context.Context, reservationID, buildingID, roomID string) (protocol.Reply, error) {
	return s.roundTrip(ctx, protocol.Request{
		Type:          protocol.ConfirmBooking,
		ReservationID: reservationID,
		BuildingID:    buildingID,
		RoomID:        roomID,
	})
}

func (s *Session) CancelBooking(ctx context.Context, reservationID, buildingID, roomID string) (protocol.Reply, error) {
	return s.roundTrip(ctx, protocol.Request{
		Type:          protocol.CancelBooking,
		ReservationID: reservationID,
		BuildingID:    buildingID,
		RoomID:        roomID,
	})
}

func (s *Session) roundTrip(ctx context.Context, req protocol.Request) (protocol.Reply, error) {
	req.CustomerID = s.id
	req.CorrelationID = protocol.NewID()

	p := &pendingRequest{
		correlationID: req.CorrelationID,
		done:          make(chan protocol.Reply, 1),
	}
	s.mu.Lock()
	if s.pending != nil {
		s.mu.Unlock()
		return protocol.Reply{}, ErrRequestInFlight
	}
	s.pending = p
	s.mu.Unlock()

	payload, err := protocol.EncodeRequest(req)
	if err != nil {
		s.clear(p)
		return protocol.Reply{}, err
	}
	if err := s.bus.Send(ctx, s.topo.CustomerInbox, payload); err != nil {
		s.clear(p)
		return protocol.Reply{}, fmt.Errorf("send %s request: %w", req.Type, err)
	}
	s.logger.Info("request sent", "type", string(req.Type), "correlation_id", req.CorrelationID)

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case rep := <-p.done:
		return rep, nil
	case <-timer.C:
		s.clear(p)
		return protocol.Reply{}, ErrRequestTimedOut
	case <-ctx.Done():
		s.clear(p)
		return protocol.Reply{}, ctx.Err()
	}
}

// dispatch resolves the in-flight request if the reply's correlation id
// matches; anything else is a late or stray reply and is discarded, never
// applied to a later request.
func (s *Session) dispatch(payload []byte) {
	rep, err := protocol.DecodeReply(payload)
	if err != nil {
		s.logger.Warn("dropping unparseable reply", "error", err)
		return
	}

	s.mu.Lock()
	p := s.pending
	if p != nil && p.correlationID == rep.CorrelationID {
		s.pending = nil
	} else {
		p = nil
	}
	s.mu.Unlock()

	if p == nil {
		s.logger.Warn("discarding uncorrelated reply", "type", string(rep.Type), "correlation_id", rep.CorrelationID)
		return
	}
	p.done <- rep
}

func (s *Session) clear(p *pendingRequest) {
	s.mu.Lock()
	if s.pending == p {
		s.pending = nil
	}
	s.mu.Unlock()
}
