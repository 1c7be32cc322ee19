package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Queue интерфейс очереди
type Queue interface {
	Publish(ctx context.Context, task *Task) error
	Subscribe(ctx context.Context, handler func(*Task) error) error
	Close() error
}

type TaskType string

const (
	// TaskTypeBookingNotification tells the ops chat about a confirmed booking.
	TaskTypeBookingNotification TaskType = "booking_notification"
	// TaskTypeEventReminder publishes a reminder shortly before the event starts.
	TaskTypeEventReminder TaskType = "event_reminder"
)

var (
	// ErrPermanent marks handler failures that must not be retried.
	ErrPermanent = errors.New("permanent task failure")
	// ErrTaskNotFound is returned when a dead-lettered task id is unknown.
	ErrTaskNotFound = errors.New("task not found in DLQ")
	ErrDLQDisabled  = errors.New("dead letter queue disabled")
)

// Task represents a unit of work in the queue
type Task struct {
	ID         string                 `json:"id"`
	Type       TaskType               `json:"type"`
	Data       map[string]interface{} `json:"data"`
	ExecuteAt  time.Time              `json:"execute_at"`
	CreatedAt  time.Time              `json:"created_at"`
	Attempts   int                    `json:"attempts"`
	MaxRetries int                    `json:"max_retries"`
}

// NewTask builds a task due at executeAt; zero means now.
func NewTask(taskType TaskType, data map[string]interface{}, executeAt time.Time) *Task {
	now := time.Now().UTC()
	if executeAt.IsZero() {
		executeAt = now
	}
	return &Task{
		ID:        "task_" + uuid.New().String(),
		Type:      taskType,
		Data:      data,
		ExecuteAt: executeAt,
		CreatedAt: now,
	}
}

func (t *Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("task ID is required")
	}
	if strings.TrimSpace(string(t.Type)) == "" {
		return fmt.Errorf("task type is required")
	}
	if t.Data == nil {
		t.Data = make(map[string]interface{})
	}
	return nil
}

func (t *Task) GetString(key string) string {
	if val, ok := t.Data[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetInt64 accepts the native int types as well as float64 and numeric
// strings, since values come back from JSON as float64.
func (t *Task) GetInt64(key string) int64 {
	switch v := t.Data[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

func (t *Task) GetFloat(key string) float64 {
	switch v := t.Data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// GetTime parses an RFC3339 value from task data.
func (t *Task) GetTime(key string) time.Time {
	if str, ok := t.Data[key].(string); ok {
		if ts, err := time.Parse(time.RFC3339, str); err == nil {
			return ts
		}
	}
	return time.Time{}
}
