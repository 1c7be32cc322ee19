package transport

import (
	"net/http"
	"strings"

	"github.com/ds124wfegd/ticketbooker/internal/entity"
	"github.com/ds124wfegd/ticketbooker/internal/service"
	"github.com/ds124wfegd/ticketbooker/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	eventService service.EventService
}

func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// SeatsRequest is the body of PATCH /api/events/:id/seats.
type SeatsRequest struct {
	Expected       *int `json:"expected"`
	AvailableSeats *int `json:"availableSeats"`
}

func (h *EventHandler) ListEvents(c *gin.Context) {
	filter := entity.EventFilter{
		Category: entity.EventCategory(strings.TrimSpace(c.Query("category"))),
		Search:   c.Query("search"),
	}

	events, err := h.eventService.ListEvents(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    events,
		Meta:    gin.H{"count": len(events)},
	})
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	event, err := h.eventService.GetEvent(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, "", event)
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body: "+err.Error())
		return
	}

	principal, _ := middleware.PrincipalFrom(c)
	event, err := h.eventService.CreateEvent(c.Request.Context(), principal.UserID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Event created successfully", event)
}

func (h *EventHandler) UpdateEvent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body: "+err.Error())
		return
	}

	event, err := h.eventService.UpdateEvent(c.Request.Context(), id, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, "Event updated successfully", event)
}

func (h *EventHandler) DeleteEvent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.eventService.DeleteEvent(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, "Event deleted successfully", nil)
}

func (h *EventHandler) UpdateAvailableSeats(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req SeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body: "+err.Error())
		return
	}
	if req.Expected == nil || req.AvailableSeats == nil {
		writeError(c, &entity.ValidationError{Fields: missingSeatFields(req)})
		return
	}

	event, err := h.eventService.UpdateAvailableSeats(c.Request.Context(), id, *req.Expected, *req.AvailableSeats)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, "Available seats updated", event)
}

func missingSeatFields(req SeatsRequest) map[string]string {
	fields := make(map[string]string)
	if req.Expected == nil {
		fields["expected"] = "is required"
	}
	if req.AvailableSeats == nil {
		fields["availableSeats"] = "is required"
	}
	return fields
}
