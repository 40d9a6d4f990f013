package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/confrent/roombooking/internal/domain"
	"github.com/confrent/roombooking/internal/protocol"
)

// BookingSession is the customer-side protocol surface the gateway drives.
type BookingSession interface {
	ListBuildings(ctx context.Context) ([]domain.BuildingSnapshot, error)
	MakeBooking(ctx context.Context, buildingID, roomID string) (protocol.Reply, error)
	ConfirmBooking(ctx context.Context, reservationID, buildingID, roomID string) (protocol.Reply, error)
	CancelBooking(ctx context.Context, reservationID, buildingID, roomID string) (protocol.Reply, error)
}

type BuildingHandler struct {
	session BookingSession
}

type roomResponse struct {
	RoomID   string `json:"room_id"`
	IsBooked bool   `json:"is_booked"`
}

type buildingResponse struct {
	BuildingID string         `json:"building_id"`
	Rooms      []roomResponse `json:"rooms"`
}

func NewBuildingHandler(session BookingSession) *BuildingHandler {
	return &BuildingHandler{session: session}
}

func (h *BuildingHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
}

func (h *BuildingHandler) list(c *gin.Context) {
	snaps, err := h.session.ListBuildings(c.Request.Context())
	if err != nil {
		c.JSON(sessionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	out := make([]buildingResponse, 0, len(snaps))
	for _, snap := range snaps {
		rooms := make([]roomResponse, 0, len(snap.Rooms))
		for _, r := range snap.Rooms {
			rooms = append(rooms, roomResponse{RoomID: r.RoomID, IsBooked: r.IsBooked})
		}
		out = append(out, buildingResponse{BuildingID: snap.BuildingID, Rooms: rooms})
	}

	c.JSON(http.StatusOK, gin.H{"buildings": out})
}
