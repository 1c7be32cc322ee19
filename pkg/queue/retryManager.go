package queue

import (
	"errors"
	"math/rand"
	"time"
)

// RetryManager decides whether a failed task runs again and when.
type RetryManager struct {
	baseDelay time.Duration
	maxDelay  time.Duration
}

func NewRetryManager(baseDelay time.Duration) *RetryManager {
	return &RetryManager{
		baseDelay: baseDelay,
		maxDelay:  baseDelay * 16,
	}
}

// ShouldRetry determines if a task should be retried and returns the delay
func (r *RetryManager) ShouldRetry(task *Task, err error) (bool, time.Duration) {
	if err == nil || errors.Is(err, ErrPermanent) {
		return false, 0
	}
	if task.Attempts >= task.MaxRetries {
		return false, 0
	}
	return true, r.Backoff(task.Attempts)
}

// Backoff is base * 2^(attempt-1) with ±25% jitter, capped at 16x base.
func (r *RetryManager) Backoff(attempt int) time.Duration {
	if attempt <= 0 || r.baseDelay <= 0 {
		return r.baseDelay
	}

	backoff := r.baseDelay * time.Duration(1<<(attempt-1))
	if backoff > r.maxDelay {
		backoff = r.maxDelay
	}

	if quarter := int64(backoff / 4); quarter > 0 {
		backoff += time.Duration(rand.Int63n(2*quarter+1) - quarter)
	}
	return backoff
}
