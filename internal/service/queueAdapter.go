package service

import (
	"context"
	"errors"
	"time"

	"github.com/ds124wfegd/ticketbooker/internal/entity"
	"github.com/ds124wfegd/ticketbooker/pkg/queue"
)

// QueueAdapter turns a confirmed booking into its follow-up queue tasks.
type QueueAdapter struct {
	queue          TaskPublisher
	reminderBefore time.Duration
	now            func() time.Time
}

func NewQueueAdapter(q TaskPublisher, reminderBefore time.Duration) *QueueAdapter {
	return &QueueAdapter{queue: q, reminderBefore: reminderBefore, now: time.Now}
}

// ScheduleBookingTasks enqueues the ops notification right away and the
// reminder reminderBefore the event starts. The reminder is skipped when
// that moment has already passed.
func (a *QueueAdapter) ScheduleBookingTasks(ctx context.Context, booking *entity.Booking, event *entity.Event) error {
	if a == nil || a.queue == nil {
		return nil
	}

	data := map[string]interface{}{
		"booking_id":        booking.ID,
		"booking_reference": booking.BookingReference,
		"event_id":          event.ID,
	}

	var errs []error
	if err := a.queue.Publish(ctx, queue.NewTask(queue.TaskTypeBookingNotification, data, time.Time{})); err != nil {
		errs = append(errs, err)
	}

	remindAt := event.Date.Add(-a.reminderBefore)
	if remindAt.After(a.now()) {
		if err := a.queue.Publish(ctx, queue.NewTask(queue.TaskTypeEventReminder, data, remindAt)); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
