// Package agent runs the router between customers and buildings. An agent
// keeps an eventually consistent snapshot cache fed by the broadcast topic,
// competes with its peers on the shared customer inbox, and forwards
// building replies to the customer named inside the message. No routing
// decision depends on agent instance state: the correlation fields travel
// in the payload.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/confrent/roombooking/config"
	"github.com/confrent/roombooking/internal/bus"
	"github.com/confrent/roombooking/internal/cache"
	"github.com/confrent/roombooking/internal/protocol"
)

type Router struct {
	id     string
	bus    bus.Bus
	topo   config.TopologyConfig
	store  cache.SnapshotStore
	logger *slog.Logger

	// The reply inbox is bound lazily: a building round trip is the first
	// moment the agent knows a building exists to answer it.
	bindOnce sync.Once
	bindErr  error
	replies  <-chan bus.Message
}

func New(id string, b bus.Bus, topo config.TopologyConfig, store cache.SnapshotStore, logger *slog.Logger) *Router {
	return &Router{
		id:     id,
		bus:    b,
		topo:   topo,
		store:  store,
		logger: logger.With("agent_id", id),
	}
}

func (r *Router) ID() string {
	return r.id
}

// Run services the snapshot stream, the shared customer inbox, and (once
// bound) the agent's building-reply inbox until ctx is done.
func (r *Router) Run(ctx context.Context) error {
	snapshots, err := r.bus.SubscribeBroadcast(ctx, r.topo.SnapshotTopic)
	if err != nil {
		return fmt.Errorf("subscribe snapshot topic: %w", err)
	}
	requests, err := r.bus.Subscribe(ctx, r.topo.CustomerInbox)
	if err != nil {
		return fmt.Errorf("subscribe customer inbox: %w", err)
	}
	r.logger.Info("agent online")

	for {
		// r.replies stays nil until the first forwarded request binds it;
		// a nil channel never fires.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-snapshots:
			if !ok {
				return nil
			}
			r.handleSnapshot(ctx, msg.Payload)
		case msg, ok := <-requests:
			if !ok {
				return nil
			}
			r.handleCustomerRequest(ctx, msg.Payload)
		case msg, ok := <-r.replies:
			if !ok {
				return nil
			}
			r.handleBuildingReply(ctx, msg.Payload)
		}
	}
}

func (r *Router) handleSnapshot(ctx context.Context, payload []byte) {
	snap, err := protocol.DecodeSnapshot(payload)
	if err != nil {
		r.logger.Warn("dropping unparseable snapshot", "error", err)
		return
	}
	if err := r.store.Put(ctx, snap); err != nil {
		r.logger.Error("snapshot cache update failed", "building_id", snap.BuildingID, "error", err)
		return
	}
	r.logger.Debug("snapshot cached", "building_id", snap.BuildingID, "rooms", len(snap.Rooms))
}

func (r *Router) handleCustomerRequest(ctx context.Context, payload []byte) {
	req, err := protocol.DecodeRequest(payload)
	if err != nil {
		r.logger.Warn("dropping unparseable customer request", "error", err)
		return
	}
	r.logger.Info("customer request", "type", string(req.Type), "customer_id", req.CustomerID)

	switch req.Type {
	case protocol.GetBuildingsList:
		r.sendBuildingsList(ctx, req)
	case protocol.MakeBooking:
		r.forwardMakeBooking(ctx, req)
	case protocol.ConfirmBooking, protocol.CancelBooking:
		// The building is authoritative for reservation ids; forward as is.
		r.forwardToBuilding(ctx, req)
	default:
		r.logger.Warn("dropping unrecognized customer request", "type", string(req.Type))
	}
}

// sendBuildingsList answers from the cache with no building round trip. An
// empty cache yields an empty list, not an error.
func (r *Router) sendBuildingsList(ctx context.Context, req protocol.Request) {
	snaps, err := r.store.List(ctx)
	if err != nil {
		r.logger.Error("snapshot cache read failed", "error", err)
		return
	}
	r.replyToCustomer(ctx, req.CustomerID, protocol.Reply{
		Type:          protocol.BuildingsList,
		CorrelationID: req.CorrelationID,
		CustomerID:    req.CustomerID,
		Buildings:     snaps,
	})
}

// forwardMakeBooking validates building and room against the cache first so
// an obviously bad request fails fast without touching the building. The
// cache may be stale; the building re-checks authoritatively.
func (r *Router) forwardMakeBooking(ctx context.Context, req protocol.Request) {
	snap, err := r.store.Get(ctx, req.BuildingID)
	if err != nil {
		r.logger.Error("snapshot cache read failed", "building_id", req.BuildingID, "error", err)
		return
	}
	if snap == nil || !snap.HasRoom(req.RoomID) {
		r.replyToCustomer(ctx, req.CustomerID, protocol.Reply{
			Type:          protocol.InvalidBookingDetails,
			CorrelationID: req.CorrelationID,
			CustomerID:    req.CustomerID,
			Detail:        "Booking failed, invalid building or room ID",
		})
		return
	}
	r.forwardToBuilding(ctx, req)
}

func (r *Router) forwardToBuilding(ctx context.Context, req protocol.Request) {
	if err := r.ensureReplyInbox(ctx); err != nil {
		r.logger.Error("bind reply inbox failed", "error", err)
		return
	}

	req.AgentID = r.id
	payload, err := protocol.EncodeRequest(req)
	if err != nil {
		r.logger.Error("encode forwarded request failed", "type", string(req.Type), "error", err)
		return
	}
	if err := r.bus.Send(ctx, r.topo.BuildingInbox(req.BuildingID), payload); err != nil {
		r.logger.Error("forward to building failed", "building_id", req.BuildingID, "error", err)
	}
}

// handleBuildingReply passes the reply through to the customer it names.
func (r *Router) handleBuildingReply(ctx context.Context, payload []byte) {
	rep, err := protocol.DecodeReply(payload)
	if err != nil {
		r.logger.Warn("dropping unparseable building reply", "error", err)
		return
	}
	r.replyToCustomer(ctx, rep.CustomerID, rep)
}

func (r *Router) replyToCustomer(ctx context.Context, customerID string, rep protocol.Reply) {
	payload, err := protocol.EncodeReply(rep)
	if err != nil {
		r.logger.Error("encode reply failed", "type", string(rep.Type), "error", err)
		return
	}
	if err := r.bus.Send(ctx, r.topo.CustomerInboxFor(customerID), payload); err != nil {
		r.logger.Error("send reply failed", "customer_id", customerID, "error", err)
	}
}

func (r *Router) ensureReplyInbox(ctx context.Context) error {
	r.bindOnce.Do(func() {
		r.replies, r.bindErr = r.bus.Subscribe(ctx, r.topo.AgentInbox(r.id))
	})
	return r.bindErr
}
