package agent

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confrent/roombooking/config"
	"github.com/confrent/roombooking/internal/bus"
	"github.com/confrent/roombooking/internal/cache"
	"github.com/confrent/roombooking/internal/domain"
	"github.com/confrent/roombooking/internal/protocol"
)

type fixture struct {
	ctx   context.Context
	bus   *bus.MemoryBus
	topo  config.TopologyConfig
	store *cache.MemoryStore
	// replies observes the personal inbox of customer c1.
	replies <-chan bus.Message
}

func startAgent(t *testing.T) *fixture {
	t.Helper()
	b := bus.NewMemoryBus()
	t.Cleanup(func() { b.Close() })
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	topo := config.DefaultTopology()
	store := cache.NewMemoryStore()

	replies, err := b.Subscribe(ctx, topo.CustomerInboxFor("c1"))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := New("a1", b, topo, store, logger)
	started := make(chan struct{})
	go func() {
		close(started)
		_ = router.Run(ctx)
	}()
	<-started
	// Give Run a moment to bind its subscriptions before tests broadcast.
	f := &fixture{ctx: ctx, bus: b, topo: topo, store: store, replies: replies}
	f.waitSubscribed(t)
	return f
}

// waitSubscribed broadcasts probe snapshots until one lands in the cache,
// proving the agent's broadcast subscription is live.
func (f *fixture) waitSubscribed(t *testing.T) {
	t.Helper()
	probe := domain.BuildingSnapshot{BuildingID: "probe", Rooms: []domain.RoomState{}}
	payload, err := protocol.EncodeSnapshot(probe)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_ = f.bus.Broadcast(f.ctx, f.topo.SnapshotTopic, payload)
		snap, err := f.store.Get(f.ctx, "probe")
		return err == nil && snap != nil
	}, 2*time.Second, 10*time.Millisecond)
}

func (f *fixture) broadcastSnapshot(t *testing.T, snap domain.BuildingSnapshot) {
	t.Helper()
	payload, err := protocol.EncodeSnapshot(snap)
	require.NoError(t, err)
	require.NoError(t, f.bus.Broadcast(f.ctx, f.topo.SnapshotTopic, payload))
	require.Eventually(t, func() bool {
		got, err := f.store.Get(f.ctx, snap.BuildingID)
		return err == nil && got != nil && len(got.Rooms) == len(snap.Rooms)
	}, 2*time.Second, 10*time.Millisecond)
}

func (f *fixture) sendRequest(t *testing.T, req protocol.Request) {
	t.Helper()
	payload, err := protocol.EncodeRequest(req)
	require.NoError(t, err)
	require.NoError(t, f.bus.Send(f.ctx, f.topo.CustomerInbox, payload))
}

func (f *fixture) customerReply(t *testing.T) protocol.Reply {
	t.Helper()
	select {
	case msg := <-f.replies:
		rep, err := protocol.DecodeReply(msg.Payload)
		require.NoError(t, err)
		return rep
	case <-time.After(2 * time.Second):
		t.Fatal("no reply on customer inbox")
		return protocol.Reply{}
	}
}

func TestRouter_BuildingsListFromEmptyCache(t *testing.T) {
	b := bus.NewMemoryBus()
	defer b.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	topo := config.DefaultTopology()
	store := cache.NewMemoryStore()

	replies, err := b.Subscribe(ctx, topo.CustomerInboxFor("c1"))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := New("a1", b, topo, store, logger)
	go func() { _ = router.Run(ctx) }()

	payload, err := protocol.EncodeRequest(protocol.Request{
		Type: protocol.GetBuildingsList, CorrelationID: "k1", CustomerID: "c1",
	})
	require.NoError(t, err)
	require.NoError(t, b.Send(ctx, topo.CustomerInbox, payload))

	select {
	case msg := <-replies:
		rep, err := protocol.DecodeReply(msg.Payload)
		require.NoError(t, err)
		// No broadcast has happened: empty list, not an error.
		assert.Equal(t, protocol.BuildingsList, rep.Type)
		assert.Equal(t, "k1", rep.CorrelationID)
		assert.Empty(t, rep.Buildings)
	case <-time.After(2 * time.Second):
		t.Fatal("no reply on customer inbox")
	}
}

func TestRouter_BuildingsListReflectsBroadcasts(t *testing.T) {
	f := startAgent(t)
	f.broadcastSnapshot(t, domain.BuildingSnapshot{
		BuildingID: "b1",
		Rooms:      []domain.RoomState{{RoomID: "r1"}},
	})

	f.sendRequest(t, protocol.Request{Type: protocol.GetBuildingsList, CorrelationID: "k1", CustomerID: "c1"})

	rep := f.customerReply(t)
	assert.Equal(t, protocol.BuildingsList, rep.Type)
	ids := make([]string, 0, len(rep.Buildings))
	for _, snap := range rep.Buildings {
		ids = append(ids, snap.BuildingID)
	}
	assert.Contains(t, ids, "b1")
}

func TestRouter_MakeBookingFailsFastOnUnknownBuilding(t *testing.T) {
	f := startAgent(t)

	buildingInbox, err := f.bus.Subscribe(f.ctx, f.topo.BuildingInbox("ghost"))
	require.NoError(t, err)

	f.sendRequest(t, protocol.Request{
		Type: protocol.MakeBooking, CorrelationID: "k1", CustomerID: "c1",
		BuildingID: "ghost", RoomID: "r1",
	})

	rep := f.customerReply(t)
	assert.Equal(t, protocol.InvalidBookingDetails, rep.Type)
	assert.Equal(t, "Booking failed, invalid building or room ID", rep.Detail)

	// The building was never contacted.
	select {
	case <-buildingInbox:
		t.Fatal("request reached the building despite failing validation")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRouter_MakeBookingFailsFastOnUnknownRoom(t *testing.T) {
	f := startAgent(t)
	f.broadcastSnapshot(t, domain.BuildingSnapshot{
		BuildingID: "b1",
		Rooms:      []domain.RoomState{{RoomID: "r1"}},
	})

	f.sendRequest(t, protocol.Request{
		Type: protocol.MakeBooking, CorrelationID: "k1", CustomerID: "c1",
		BuildingID: "b1", RoomID: "ghost",
	})

	rep := f.customerReply(t)
	assert.Equal(t, protocol.InvalidBookingDetails, rep.Type)
}

func TestRouter_MakeBookingForwardedWithAgentID(t *testing.T) {
	f := startAgent(t)
	f.broadcastSnapshot(t, domain.BuildingSnapshot{
		BuildingID: "b1",
		Rooms:      []domain.RoomState{{RoomID: "r1"}},
	})

	buildingInbox, err := f.bus.Subscribe(f.ctx, f.topo.BuildingInbox("b1"))
	require.NoError(t, err)

	f.sendRequest(t, protocol.Request{
		Type: protocol.MakeBooking, CorrelationID: "k1", CustomerID: "c1",
		BuildingID: "b1", RoomID: "r1",
	})

	select {
	case msg := <-buildingInbox:
		req, err := protocol.DecodeRequest(msg.Payload)
		require.NoError(t, err)
		assert.Equal(t, protocol.MakeBooking, req.Type)
		assert.Equal(t, "a1", req.AgentID)
		assert.Equal(t, "c1", req.CustomerID)
		assert.Equal(t, "k1", req.CorrelationID)
		assert.Equal(t, "r1", req.RoomID)
	case <-time.After(2 * time.Second):
		t.Fatal("request never reached the building inbox")
	}
}

func TestRouter_ConfirmForwardedWithoutLocalValidation(t *testing.T) {
	f := startAgent(t)

	buildingInbox, err := f.bus.Subscribe(f.ctx, f.topo.BuildingInbox("b1"))
	require.NoError(t, err)

	// The cache knows nothing about b1; confirmation is still forwarded,
	// the building owns reservation validity.
	f.sendRequest(t, protocol.Request{
		Type: protocol.ConfirmBooking, CorrelationID: "k1", CustomerID: "c1",
		BuildingID: "b1", RoomID: "r1", ReservationID: "x1",
	})

	select {
	case msg := <-buildingInbox:
		req, err := protocol.DecodeRequest(msg.Payload)
		require.NoError(t, err)
		assert.Equal(t, protocol.ConfirmBooking, req.Type)
		assert.Equal(t, "x1", req.ReservationID)
		assert.Equal(t, "a1", req.AgentID)
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation never reached the building inbox")
	}
}

func TestRouter_ForwardsBuildingReplyToNamedCustomer(t *testing.T) {
	f := startAgent(t)
	f.broadcastSnapshot(t, domain.BuildingSnapshot{
		BuildingID: "b1",
		Rooms:      []domain.RoomState{{RoomID: "r1"}},
	})

	// Trigger a forward so the agent binds its reply inbox.
	f.sendRequest(t, protocol.Request{
		Type: protocol.MakeBooking, CorrelationID: "k1", CustomerID: "c1",
		BuildingID: "b1", RoomID: "r1",
	})

	rep := protocol.Reply{
		Type: protocol.BookingMade, CorrelationID: "k1", CustomerID: "c1",
		ReservationID: "x1", Detail: "registered",
	}
	payload, err := protocol.EncodeReply(rep)
	require.NoError(t, err)
	require.NoError(t, f.bus.Send(f.ctx, f.topo.AgentInbox("a1"), payload))

	got := f.customerReply(t)
	assert.Equal(t, rep, got)
}
