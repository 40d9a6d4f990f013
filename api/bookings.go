package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/confrent/roombooking/internal/actor/customer"
	"github.com/confrent/roombooking/internal/protocol"
)

type BookingHandler struct {
	session BookingSession
}

type createBookingRequest struct {
	BuildingID string `json:"building_id" binding:"required"`
	RoomID     string `json:"room_id" binding:"required"`
}

type resolveBookingRequest struct {
	BuildingID string `json:"building_id" binding:"required"`
	RoomID     string `json:"room_id" binding:"required"`
}

type bookingResponse struct {
	Outcome       string `json:"outcome"`
	ReservationID string `json:"reservation_id,omitempty"`
	Detail        string `json:"detail"`
}

func NewBookingHandler(session BookingSession) *BookingHandler {
	return &BookingHandler{session: session}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.POST("/:reservationId/confirm", h.confirm)
	router.POST("/:reservationId/cancel", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := h.session.MakeBooking(c.Request.Context(), req.BuildingID, req.RoomID)
	if err != nil {
		c.JSON(sessionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	h.respond(c, reply, http.StatusCreated)
}

func (h *BookingHandler) confirm(c *gin.Context) {
	h.resolve(c, h.session.ConfirmBooking)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	h.resolve(c, h.session.CancelBooking)
}

type resolveOp func(ctx context.Context, reservationID, buildingID, roomID string) (protocol.Reply, error)

func (h *BookingHandler) resolve(c *gin.Context, op resolveOp) {
	var req resolveBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := op(c.Request.Context(), c.Param("reservationId"), req.BuildingID, req.RoomID)
	if err != nil {
		c.JSON(sessionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	h.respond(c, reply, http.StatusOK)
}

func (h *BookingHandler) respond(c *gin.Context, reply protocol.Reply, okStatus int) {
	c.JSON(replyStatus(reply, okStatus), bookingResponse{
		Outcome:       string(reply.Type),
		ReservationID: reply.ReservationID,
		Detail:        reply.Detail,
	})
}

// replyStatus maps protocol outcomes to HTTP statuses: rejections are 409,
// everything else keeps the handler's success status.
func replyStatus(reply protocol.Reply, okStatus int) int {
	switch reply.Type {
	case protocol.InvalidBookingDetails, protocol.InvalidConfirmationDetails, protocol.InvalidCancellationDetails:
		return http.StatusConflict
	default:
		return okStatus
	}
}

func sessionErrorStatus(err error) int {
	switch {
	case errors.Is(err, customer.ErrRequestTimedOut):
		return http.StatusGatewayTimeout
	case errors.Is(err, customer.ErrRequestInFlight):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
