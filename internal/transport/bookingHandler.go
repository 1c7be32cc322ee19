package transport

import (
	"net/http"

	"github.com/ds124wfegd/ticketbooker/internal/entity"
	"github.com/ds124wfegd/ticketbooker/internal/service"
	"github.com/ds124wfegd/ticketbooker/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookingService service.BookingService
}

func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// ReserveSeats books seats for the authenticated user.
func (h *BookingHandler) ReserveSeats(c *gin.Context) {
	var req service.ReserveSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body: "+err.Error())
		return
	}

	principal, _ := middleware.PrincipalFrom(c)
	req.UserID = principal.UserID

	booking, err := h.bookingService.ReserveSeats(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Booking confirmed", booking)
}

func (h *BookingHandler) GetUserBookings(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	bookings, err := h.bookingService.GetUserBookings(c.Request.Context(), principal.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	if bookings == nil {
		bookings = []*entity.Booking{}
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    bookings,
		Meta:    gin.H{"count": len(bookings)},
	})
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	booking, err := h.bookingService.GetBooking(c.Request.Context(), principal.UserID, id)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, "", booking)
}
