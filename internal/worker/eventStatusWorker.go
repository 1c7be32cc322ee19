package worker

import (
	"context"
	"time"

	"github.com/ds124wfegd/ticketbooker/pkg/scheduler"
	"github.com/sirupsen/logrus"
)

type PastEventCompleter interface {
	CompletePastEvents(ctx context.Context, now time.Time) (int64, error)
}

// EventStatusWorker closes events whose date has passed so they stop
// showing in the catalog and refuse bookings.
type EventStatusWorker struct {
	events   PastEventCompleter
	interval time.Duration
	now      func() time.Time
}

func NewEventStatusWorker(events PastEventCompleter, interval time.Duration) *EventStatusWorker {
	return &EventStatusWorker{
		events:   events,
		interval: interval,
		now:      time.Now,
	}
}

// Register schedules the worker on s.
func (w *EventStatusWorker) Register(s *scheduler.Scheduler) error {
	return s.Every("complete_past_events", w.interval, w.Run)
}

// Run performs one pass.
func (w *EventStatusWorker) Run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	n, err := w.events.CompletePastEvents(ctx, w.now().UTC())
	if err != nil {
		logrus.WithError(err).Error("Failed to complete past events")
		return
	}

	if n > 0 {
		logrus.WithField("count", n).Info("Past events marked completed")
	} else {
		logrus.Debug("No past events to complete")
	}
}
