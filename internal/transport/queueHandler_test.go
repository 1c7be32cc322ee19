package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/ds124wfegd/ticketbooker/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type queueAdminMock struct {
	mock.Mock
}

func (m *queueAdminMock) GetQueueStats(ctx context.Context) (*queue.QueueStats, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.(*queue.QueueStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *queueAdminMock) GetFailedTasks(ctx context.Context, limit int) ([]*queue.FailedTask, error) {
	args := m.Called(ctx, limit)
	if s := args.Get(0); s != nil {
		return s.([]*queue.FailedTask), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *queueAdminMock) RequeueFailedTask(ctx context.Context, taskID string) error {
	return m.Called(ctx, taskID).Error(0)
}

func TestGetQueueEndpoint(t *testing.T) {
	q := new(queueAdminMock)
	api := newTestAPIWithQueue(t, q)

	failed := &queue.FailedTask{
		Task:     &queue.Task{ID: "task_1", Type: queue.TaskTypeBookingNotification},
		Error:    "permanent task failure",
		FailedAt: time.Now().UTC(),
		Attempts: 1,
	}
	q.On("GetQueueStats", mock.Anything).Return(&queue.QueueStats{MainQueue: 2, DelayedQueue: 5}, nil)
	q.On("GetFailedTasks", mock.Anything, defaultFailedLimit).Return([]*queue.FailedTask{failed}, nil).Once()
	q.On("GetFailedTasks", mock.Anything, 5).Return(nil, nil).Once()

	code, env := api.do(http.MethodGet, "/api/admin/queue", api.admin, nil)
	require.Equal(t, http.StatusOK, code, env.Error)

	var body struct {
		Stats  queue.QueueStats    `json:"stats"`
		Failed []*queue.FailedTask `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, int64(2), body.Stats.MainQueue)
	assert.Equal(t, int64(5), body.Stats.DelayedQueue)
	require.Len(t, body.Failed, 1)
	assert.Equal(t, "task_1", body.Failed[0].Task.ID)

	code, env = api.do(http.MethodGet, "/api/admin/queue?limit=5", api.admin, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.JSONEq(t, `{"stats":{"main_queue":2,"delayed_queue":5,"processing_queue":0,"timestamp":"0001-01-01T00:00:00Z"},"failed":[]}`, string(env.Data))

	q.AssertExpectations(t)
}

func TestGetQueueRejectsBadLimit(t *testing.T) {
	q := new(queueAdminMock)
	api := newTestAPIWithQueue(t, q)

	for _, limit := range []string{"0", "-3", "abc", "500"} {
		code, env := api.do(http.MethodGet, "/api/admin/queue?limit="+limit, api.admin, nil)
		assert.Equal(t, http.StatusBadRequest, code, limit)
		assert.Equal(t, CodeValidation, env.Code)
	}
	q.AssertNotCalled(t, "GetQueueStats", mock.Anything)
}

func TestRequeueEndpoint(t *testing.T) {
	q := new(queueAdminMock)
	api := newTestAPIWithQueue(t, q)

	q.On("RequeueFailedTask", mock.Anything, "task_ok").Return(nil).Once()
	q.On("RequeueFailedTask", mock.Anything, "task_gone").
		Return(fmt.Errorf("%w: task_gone", queue.ErrTaskNotFound)).Once()

	code, env := api.do(http.MethodPost, "/api/admin/queue/requeue/task_ok", api.admin, nil)
	assert.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, "Task requeued", env.Message)

	code, env = api.do(http.MethodPost, "/api/admin/queue/requeue/task_gone", api.admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, CodeNotFound, env.Code)

	q.AssertExpectations(t)
}

func TestQueueEndpointsRequireAdmin(t *testing.T) {
	q := new(queueAdminMock)
	api := newTestAPIWithQueue(t, q)

	code, env := api.do(http.MethodGet, "/api/admin/queue", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, CodeUnauthenticated, env.Code)

	code, env = api.do(http.MethodPost, "/api/admin/queue/requeue/task_1", api.userToken(7), nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, CodeForbidden, env.Code)

	q.AssertNotCalled(t, "RequeueFailedTask", mock.Anything, mock.Anything)
}

func TestQueueEndpointsWithoutQueue(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(http.MethodGet, "/api/admin/queue", api.admin, nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, CodeUnavailable, env.Code)

	code, env = api.do(http.MethodPost, "/api/admin/queue/requeue/task_1", api.admin, nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, CodeUnavailable, env.Code)
}
