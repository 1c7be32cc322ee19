package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	defaultMaxRetries   = 3
	defaultBaseDelay    = 5 * time.Second
	defaultQueueTimeout = 5 * time.Second
	defaultPollInterval = 10 * time.Second
)

// RedisQueue keeps ready tasks in a list and delayed tasks in a sorted set
// scored by due time. A poller moves due tasks onto the list.
type RedisQueue struct {
	client          *redis.Client
	mainQueue       string
	delayedQueue    string
	processingQueue string
	retryManager    *RetryManager
	dlqHandler      DLQHandler
	config          *RedisQueueConfig
	logger          logrus.FieldLogger
	stopChan        chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup
}

type RedisQueueConfig struct {
	// Key prefix for every queue key
	Prefix string

	MaxRetries   int
	BaseDelay    time.Duration
	QueueTimeout time.Duration
	PollInterval time.Duration
	EnableDLQ    bool
}

func DefaultRedisQueueConfig() *RedisQueueConfig {
	return &RedisQueueConfig{
		Prefix:       "ticketbooker",
		MaxRetries:   defaultMaxRetries,
		BaseDelay:    defaultBaseDelay,
		QueueTimeout: defaultQueueTimeout,
		PollInterval: defaultPollInterval,
		EnableDLQ:    true,
	}
}

// NewRedisQueue wires the queue onto an existing client. Passing nil for
// cfg uses DefaultRedisQueueConfig.
func NewRedisQueue(client *redis.Client, cfg *RedisQueueConfig) *RedisQueue {
	if cfg == nil {
		cfg = DefaultRedisQueueConfig()
	}

	q := &RedisQueue{
		client:          client,
		mainQueue:       cfg.Prefix + ":tasks",
		delayedQueue:    cfg.Prefix + ":tasks:delayed",
		processingQueue: cfg.Prefix + ":tasks:processing",
		retryManager:    NewRetryManager(cfg.BaseDelay),
		config:          cfg,
		logger:          logrus.WithField("component", "queue"),
		stopChan:        make(chan struct{}),
	}
	if cfg.EnableDLQ {
		q.dlqHandler = NewRedisDLQHandler(client, cfg.Prefix+":dlq", q.mainQueue)
	}

	q.logger.WithFields(logrus.Fields{
		"main":    q.mainQueue,
		"delayed": q.delayedQueue,
	}).Info("RedisQueue initialized")
	return q
}

// GetFailedTasks lists the newest dead-lettered tasks.
func (r *RedisQueue) GetFailedTasks(ctx context.Context, limit int) ([]*FailedTask, error) {
	if r.dlqHandler == nil {
		return nil, ErrDLQDisabled
	}
	return r.dlqHandler.GetFailedTasks(ctx, limit)
}

// RequeueFailedTask puts a dead-lettered task back on the main list with
// its attempt counter reset.
func (r *RedisQueue) RequeueFailedTask(ctx context.Context, taskID string) error {
	if r.dlqHandler == nil {
		return ErrDLQDisabled
	}
	return r.dlqHandler.RequeueFailedTask(ctx, taskID)
}

// Publish sends a task to the queue
func (r *RedisQueue) Publish(ctx context.Context, task *Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	r.applyDefaults(task)
	if err := task.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	taskData, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if task.ExecuteAt.After(time.Now()) {
		err = r.client.ZAdd(ctx, r.delayedQueue, &redis.Z{
			Score:  float64(task.ExecuteAt.Unix()),
			Member: taskData,
		}).Err()
		if err != nil {
			return fmt.Errorf("failed to publish delayed task: %w", err)
		}

		r.logger.WithFields(logrus.Fields{
			"task_id":    task.ID,
			"task_type":  task.Type,
			"execute_at": task.ExecuteAt.Format(time.RFC3339),
		}).Debug("Task scheduled")
		return nil
	}

	if err := r.client.LPush(ctx, r.mainQueue, taskData).Err(); err != nil {
		return fmt.Errorf("failed to publish immediate task: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"task_id":   task.ID,
		"task_type": task.Type,
	}).Debug("Task published to main queue")
	return nil
}

// Subscribe starts the delayed-task poller and the consumer loop.
func (r *RedisQueue) Subscribe(ctx context.Context, handler func(*Task) error) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	r.wg.Add(2)
	go r.processDelayedTasks(ctx)
	go r.processMainQueue(ctx, handler)

	r.logger.Info("RedisQueue subscriber started")
	return nil
}

func (r *RedisQueue) processMainQueue(ctx context.Context, handler func(*Task) error) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		default:
			if err := r.processNext(ctx, handler); err != nil {
				r.logger.WithError(err).Error("Error processing task")
				r.sleep(ctx, time.Second)
			}
		}
	}
}

// processNext moves one task to the processing list, runs it and removes
// it again whatever the outcome.
func (r *RedisQueue) processNext(ctx context.Context, handler func(*Task) error) error {
	taskData, err := r.client.BRPopLPush(ctx, r.mainQueue, r.processingQueue, r.config.QueueTimeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to move task to processing queue: %w", err)
	}

	defer func() {
		if err := r.client.LRem(context.Background(), r.processingQueue, 1, taskData).Err(); err != nil {
			r.logger.WithError(err).Warn("Failed to remove task from processing queue")
		}
	}()

	var task Task
	if err := json.Unmarshal([]byte(taskData), &task); err != nil {
		corrupted := NewTask("corrupted", map[string]interface{}{"raw_data": taskData}, time.Time{})
		r.deadLetter(ctx, corrupted, fmt.Errorf("invalid task format: %w", err))
		return nil
	}

	if err := r.executeTaskWithRetry(ctx, &task, handler); err != nil {
		r.deadLetter(ctx, &task, err)
		return nil
	}

	r.logger.WithFields(logrus.Fields{
		"task_id":   task.ID,
		"task_type": task.Type,
		"attempts":  task.Attempts,
	}).Info("Task completed")
	return nil
}

func (r *RedisQueue) processDelayedTasks(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case <-ticker.C:
			if _, err := r.MoveDueTasks(ctx, time.Now()); err != nil {
				r.logger.WithError(err).Error("Failed to process delayed tasks")
			}
		}
	}
}

// MoveDueTasks moves delayed tasks due at or before now onto the main list.
func (r *RedisQueue) MoveDueTasks(ctx context.Context, now time.Time) (int, error) {
	max := fmt.Sprintf("%d", now.Unix())

	tasks, err := r.client.ZRangeByScore(ctx, r.delayedQueue, &redis.ZRangeBy{
		Min: "-inf",
		Max: max,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get delayed tasks: %w", err)
	}
	if len(tasks) == 0 {
		return 0, nil
	}

	members := make([]interface{}, len(tasks))
	pipe := r.client.TxPipeline()
	for i, taskData := range tasks {
		pipe.LPush(ctx, r.mainQueue, taskData)
		members[i] = taskData
	}
	pipe.ZRem(ctx, r.delayedQueue, members...)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to move delayed tasks: %w", err)
	}

	r.logger.WithField("count", len(tasks)).Debug("Moved delayed tasks to main queue")
	return len(tasks), nil
}

func (r *RedisQueue) executeTaskWithRetry(ctx context.Context, task *Task, handler func(*Task) error) error {
	for {
		task.Attempts++

		err := handler(task)
		if err == nil {
			return nil
		}

		shouldRetry, delay := r.retryManager.ShouldRetry(task, err)
		if !shouldRetry {
			return err
		}

		r.logger.WithFields(logrus.Fields{
			"task_id":  task.ID,
			"attempt":  task.Attempts,
			"max":      task.MaxRetries,
			"retry_in": delay.String(),
		}).WithError(err).Warn("Task failed, retrying")

		if !r.sleep(ctx, delay) {
			return ctx.Err()
		}
	}
}

func (r *RedisQueue) deadLetter(ctx context.Context, task *Task, err error) {
	r.logger.WithFields(logrus.Fields{
		"task_id":   task.ID,
		"task_type": task.Type,
	}).WithError(err).Error("Task failed")

	if r.dlqHandler != nil {
		r.dlqHandler.HandleFailedTask(ctx, task, err)
	}
}

// sleep waits for d and reports false if the queue is stopping.
func (r *RedisQueue) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-r.stopChan:
		return false
	case <-timer.C:
		return true
	}
}

func (r *RedisQueue) applyDefaults(task *Task) {
	if task.MaxRetries == 0 {
		task.MaxRetries = r.config.MaxRetries
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	if task.ExecuteAt.IsZero() {
		task.ExecuteAt = task.CreatedAt
	}
}

type QueueStats struct {
	MainQueue       int64     `json:"main_queue"`
	DelayedQueue    int64     `json:"delayed_queue"`
	ProcessingQueue int64     `json:"processing_queue"`
	Timestamp       time.Time `json:"timestamp"`
}

func (r *RedisQueue) GetQueueStats(ctx context.Context) (*QueueStats, error) {
	pipe := r.client.Pipeline()

	mainLen := pipe.LLen(ctx, r.mainQueue)
	delayedLen := pipe.ZCard(ctx, r.delayedQueue)
	processingLen := pipe.LLen(ctx, r.processingQueue)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to get queue stats: %w", err)
	}

	return &QueueStats{
		MainQueue:       mainLen.Val(),
		DelayedQueue:    delayedLen.Val(),
		ProcessingQueue: processingLen.Val(),
		Timestamp:       time.Now().UTC(),
	}, nil
}

// Close stops the background loops. The redis client belongs to the caller.
func (r *RedisQueue) Close() error {
	r.stopOnce.Do(func() { close(r.stopChan) })
	r.wg.Wait()

	r.logger.Info("RedisQueue closed")
	return nil
}
