package transport

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ds124wfegd/ticketbooker/internal/service"
	"github.com/ds124wfegd/ticketbooker/pkg/queue"
	"github.com/gin-gonic/gin"
)

const (
	defaultFailedLimit = 20
	maxFailedLimit     = 200
)

// QueueHandler serves the operator view of the background task queue.
type QueueHandler struct {
	queue service.QueueAdmin
}

func NewQueueHandler(q service.QueueAdmin) *QueueHandler {
	return &QueueHandler{queue: q}
}

// GetQueue returns list sizes and the most recent dead letters.
func (h *QueueHandler) GetQueue(c *gin.Context) {
	if !h.available(c) {
		return
	}

	limit := defaultFailedLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxFailedLimit {
			badRequest(c, "limit must be between 1 and "+strconv.Itoa(maxFailedLimit))
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	stats, err := h.queue.GetQueueStats(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	failed, err := h.queue.GetFailedTasks(ctx, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if failed == nil {
		failed = []*queue.FailedTask{}
	}

	respond(c, http.StatusOK, "", gin.H{
		"stats":  stats,
		"failed": failed,
	})
}

// RequeueTask moves one dead-lettered task back onto the main queue.
func (h *QueueHandler) RequeueTask(c *gin.Context) {
	if !h.available(c) {
		return
	}

	taskID := strings.TrimSpace(c.Param("taskId"))
	if taskID == "" {
		badRequest(c, "invalid taskId")
		return
	}

	if err := h.queue.RequeueFailedTask(c.Request.Context(), taskID); err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, "Task requeued", gin.H{"task_id": taskID})
}

func (h *QueueHandler) available(c *gin.Context) bool {
	if h.queue != nil {
		return true
	}
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{
		Success: false,
		Error:   "task queue is not configured",
		Code:    CodeUnavailable,
	})
	return false
}
