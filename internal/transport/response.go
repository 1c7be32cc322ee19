package transport

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/ds124wfegd/ticketbooker/internal/entity"
	"github.com/ds124wfegd/ticketbooker/pkg/queue"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	CodeNotFound         = "NOT_FOUND"
	CodeCapacityExceeded = "CAPACITY_EXCEEDED"
	CodeValidation       = "VALIDATION_ERROR"
	CodeConflict         = "CONFLICT"
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeForbidden        = "FORBIDDEN"
	CodeInternal         = "INTERNAL"
	CodeUnavailable      = "UNAVAILABLE"
)

// SuccessResponse представляет успешный ответ
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Success   bool              `json:"success"`
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Available *int              `json:"available,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

func respond(c *gin.Context, status int, msg string, data interface{}) {
	c.JSON(status, SuccessResponse{Success: true, Message: msg, Data: data})
}

// classify maps domain errors onto HTTP status and error code.
func classify(err error) (int, string) {
	var capErr *entity.CapacityError
	switch {
	case errors.As(err, &capErr):
		return http.StatusBadRequest, CodeCapacityExceeded
	case errors.Is(err, entity.ErrEventNotFound),
		errors.Is(err, entity.ErrBookingNotFound),
		errors.Is(err, entity.ErrUserNotFound),
		errors.Is(err, queue.ErrTaskNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, entity.ErrInvalidInput),
		errors.Is(err, entity.ErrEventNotActive):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, entity.ErrUnauthorized),
		errors.Is(err, entity.ErrInvalidCredentials):
		return http.StatusUnauthorized, CodeUnauthenticated
	case errors.Is(err, entity.ErrForbidden):
		return http.StatusForbidden, CodeForbidden
	case errors.Is(err, entity.ErrConcurrentUpdate),
		errors.Is(err, entity.ErrDuplicateReference),
		errors.Is(err, entity.ErrEventHasBookings),
		errors.Is(err, entity.ErrSeatsBelowBooked),
		errors.Is(err, entity.ErrUserAlreadyExists):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, queue.ErrDLQDisabled):
		return http.StatusServiceUnavailable, CodeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeInternal
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func writeError(c *gin.Context, err error) {
	status, code := classify(err)
	body := ErrorResponse{Success: false, Error: err.Error(), Code: code}

	var capErr *entity.CapacityError
	if errors.As(err, &capErr) {
		available := capErr.Available
		body.Available = &available
	}
	var verr *entity.ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}

	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Request failed with internal error")
		body.Error = http.StatusText(status)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: msg, Code: CodeValidation})
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
