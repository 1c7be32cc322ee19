package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// Scheduler runs periodic jobs. Each job gets a context that is cancelled
// on Shutdown.
type Scheduler struct {
	inner  gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
}

func New() (*Scheduler, error) {
	inner, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{inner: inner, ctx: ctx, cancel: cancel}, nil
}

// Every registers fn to run each interval. A run that is still going when
// the next one is due causes that tick to be skipped.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(ctx context.Context)) error {
	job, err := s.inner.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { fn(s.ctx) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", name, err)
	}

	logrus.WithFields(logrus.Fields{
		"job":      name,
		"job_id":   job.ID().String(),
		"interval": interval.String(),
	}).Info("Job registered")
	return nil
}

func (s *Scheduler) Start() {
	s.inner.Start()
	logrus.WithField("jobs", len(s.inner.Jobs())).Info("Scheduler started")
}

func (s *Scheduler) Shutdown() error {
	s.cancel()
	return s.inner.Shutdown()
}
