// Package building runs the coordinator that owns a building's rooms. It
// consumes the building's direct inbox sequentially, applies each request
// to the reservation state machine, answers on the originating agent's
// inbox, and broadcasts a fresh snapshot after every committed change.
package building

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/confrent/roombooking/config"
	"github.com/confrent/roombooking/internal/bus"
	"github.com/confrent/roombooking/internal/protocol"
	"github.com/confrent/roombooking/internal/service/reservation"
)

type Coordinator struct {
	id      string
	bus     bus.Bus
	topo    config.TopologyConfig
	service *reservation.Service
	logger  *slog.Logger
}

func New(id string, roomIDs []string, b bus.Bus, topo config.TopologyConfig, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		id:      id,
		bus:     b,
		topo:    topo,
		service: reservation.NewService(id, roomIDs),
		logger:  logger.With("building_id", id),
	}
}

func (c *Coordinator) ID() string {
	return c.id
}

// Run subscribes the building's inbox, announces the initial snapshot, and
// processes requests one at a time until ctx is done.
func (c *Coordinator) Run(ctx context.Context) error {
	msgs, err := c.bus.Subscribe(ctx, c.topo.BuildingInbox(c.id))
	if err != nil {
		return fmt.Errorf("subscribe building inbox: %w", err)
	}

	if err := c.broadcastSnapshot(ctx); err != nil {
		return fmt.Errorf("announce building: %w", err)
	}
	c.logger.Info("building online", "rooms", len(c.service.Snapshot().Rooms))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			c.handle(ctx, msg.Payload)
		}
	}
}

func (c *Coordinator) handle(ctx context.Context, payload []byte) {
	req, err := protocol.DecodeRequest(payload)
	if err != nil {
		c.logger.Warn("dropping unparseable request", "error", err)
		return
	}

	var reply protocol.Reply
	switch req.Type {
	case protocol.MakeBooking:
		reply = c.makeBooking(req)
	case protocol.ConfirmBooking:
		reply = c.confirmBooking(ctx, req)
	case protocol.CancelBooking:
		reply = c.cancelBooking(ctx, req)
	default:
		c.logger.Warn("dropping unrecognized request", "type", string(req.Type))
		return
	}

	reply.CorrelationID = req.CorrelationID
	reply.CustomerID = req.CustomerID
	c.send(ctx, req.AgentID, reply)
}

func (c *Coordinator) makeBooking(req protocol.Request) protocol.Reply {
	c.logger.Info("booking requested", "room_id", req.RoomID, "customer_id", req.CustomerID, "agent_id", req.AgentID)

	res, err := c.service.MakeBooking(req.RoomID, req.CustomerID, req.AgentID)
	if err != nil {
		return rejection(err)
	}
	return protocol.Reply{
		Type:          protocol.BookingMade,
		ReservationID: res.ID,
		Detail: fmt.Sprintf("reservation for room with ID: %s was registered, awaiting booking confirmation with RESERVATION_ID %s",
			req.RoomID, res.ID),
	}
}

func (c *Coordinator) confirmBooking(ctx context.Context, req protocol.Request) protocol.Reply {
	c.logger.Info("confirmation requested", "reservation_id", req.ReservationID, "agent_id", req.AgentID)

	if err := c.service.ConfirmBooking(req.ReservationID, req.RoomID); err != nil {
		return rejection(err)
	}
	if err := c.broadcastSnapshot(ctx); err != nil {
		c.logger.Error("snapshot broadcast failed", "error", err)
	}
	return protocol.Reply{
		Type:          protocol.BookingConfirmed,
		ReservationID: req.ReservationID,
		Detail:        fmt.Sprintf("booking with reservation ID: %s was confirmed successfully", req.ReservationID),
	}
}

func (c *Coordinator) cancelBooking(ctx context.Context, req protocol.Request) protocol.Reply {
	c.logger.Info("cancellation requested", "reservation_id", req.ReservationID, "agent_id", req.AgentID)

	if err := c.service.CancelBooking(req.ReservationID, req.RoomID); err != nil {
		return rejection(err)
	}
	if err := c.broadcastSnapshot(ctx); err != nil {
		c.logger.Error("snapshot broadcast failed", "error", err)
	}
	return protocol.Reply{
		Type:          protocol.BookingCancelled,
		ReservationID: req.ReservationID,
		Detail:        fmt.Sprintf("booking with ID: %s was cancelled successfully", req.ReservationID),
	}
}

func (c *Coordinator) broadcastSnapshot(ctx context.Context) error {
	payload, err := protocol.EncodeSnapshot(c.service.Snapshot())
	if err != nil {
		return err
	}
	return c.bus.Broadcast(ctx, c.topo.SnapshotTopic, payload)
}

func (c *Coordinator) send(ctx context.Context, agentID string, reply protocol.Reply) {
	payload, err := protocol.EncodeReply(reply)
	if err != nil {
		c.logger.Error("encode reply failed", "type", string(reply.Type), "error", err)
		return
	}
	if err := c.bus.Send(ctx, c.topo.AgentInbox(agentID), payload); err != nil {
		c.logger.Error("send reply failed", "agent_id", agentID, "error", err)
	}
}

func rejection(err error) protocol.Reply {
	var ve *reservation.ValidationError
	if errors.As(err, &ve) {
		return protocol.Reply{Type: ve.Outcome, Detail: ve.Reason}
	}
	// The service only returns validation errors; anything else is a bug.
	panic(err)
}
