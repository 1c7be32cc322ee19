package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"testing"

	"github.com/ds124wfegd/ticketbooker/internal/entity"
	"github.com/ds124wfegd/ticketbooker/pkg/queue"
	"github.com/stretchr/testify/assert"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{&entity.CapacityError{Requested: 5, Available: 2}, http.StatusBadRequest, CodeCapacityExceeded},
		{fmt.Errorf("reserve: %w", entity.ErrEventNotFound), http.StatusNotFound, CodeNotFound},
		{entity.ErrBookingNotFound, http.StatusNotFound, CodeNotFound},
		{entity.NewValidationError("title", "is required"), http.StatusBadRequest, CodeValidation},
		{entity.ErrEventNotActive, http.StatusBadRequest, CodeValidation},
		{entity.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthenticated},
		{entity.ErrInvalidCredentials, http.StatusUnauthorized, CodeUnauthenticated},
		{entity.ErrForbidden, http.StatusForbidden, CodeForbidden},
		{entity.ErrConcurrentUpdate, http.StatusConflict, CodeConflict},
		{entity.ErrEventHasBookings, http.StatusConflict, CodeConflict},
		{entity.ErrUserAlreadyExists, http.StatusConflict, CodeConflict},
		{fmt.Errorf("%w: task_9", queue.ErrTaskNotFound), http.StatusNotFound, CodeNotFound},
		{queue.ErrDLQDisabled, http.StatusServiceUnavailable, CodeUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, CodeInternal},
		{errors.New("disk on fire"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, code := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}
