package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/ds124wfegd/ticketbooker/internal/database"
	"github.com/ds124wfegd/ticketbooker/internal/entity"
	"github.com/go-redis/redis/v8"
)

const eventKeyPrefix = "event:"

// EventCache stores events as JSON under event:<id> and counts
// invalidations under event:<id>:version.
type EventCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewEventCache(client *redis.Client, ttl time.Duration) *EventCache {
	return &EventCache{
		client: client,
		ttl:    ttl,
	}
}

func eventKey(id int64) string {
	return eventKeyPrefix + strconv.FormatInt(id, 10)
}

func versionKey(id int64) string {
	return eventKey(id) + ":version"
}

func (c *EventCache) Version(ctx context.Context, id int64) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// SetEvent writes the event only while its version still equals version.
func (c *EventCache) SetEvent(ctx context.Context, event *entity.Event, version int64) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	vkey := versionKey(event.ID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vkey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return database.ErrCacheStale
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, eventKey(event.ID), data, c.ttl)
			return nil
		})
		return err
	}, vkey)

	if errors.Is(err, redis.TxFailedErr) {
		return database.ErrCacheStale
	}
	return err
}

func (c *EventCache) GetEvent(ctx context.Context, id int64) (*entity.Event, error) {
	data, err := c.client.Get(ctx, eventKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, database.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var event entity.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}

	return &event, nil
}

func (c *EventCache) DeleteEvent(ctx context.Context, id int64) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(id))
		pipe.Del(ctx, eventKey(id))
		return nil
	})
	return err
}
