package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ds124wfegd/ticketbooker/internal/database"
	"github.com/ds124wfegd/ticketbooker/internal/entity"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*EventCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewEventCache(client, 5*time.Minute), mr
}

func sampleEvent(id int64) *entity.Event {
	return &entity.Event{
		ID:             id,
		Title:          "Go Conf",
		Venue:          "Main Hall",
		Category:       entity.CategoryConference,
		Price:          49.5,
		TotalSeats:     100,
		AvailableSeats: 60,
		Status:         entity.EventStatusActive,
		Date:           time.Date(2030, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestGetEventMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	_, err := cache.GetEvent(context.Background(), 1)
	assert.ErrorIs(t, err, database.ErrCacheMiss)
}

func TestSetAndGetEvent(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	event := sampleEvent(2)

	version, err := cache.Version(ctx, event.ID)
	require.NoError(t, err)
	assert.Zero(t, version)

	require.NoError(t, cache.SetEvent(ctx, event, version))
	assert.Equal(t, 5*time.Minute, mr.TTL("event:2"))

	got, err := cache.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.Title, got.Title)
	assert.Equal(t, event.AvailableSeats, got.AvailableSeats)
	assert.Equal(t, event.Category, got.Category)
	assert.True(t, event.Date.Equal(got.Date))
}

func TestDeleteEventBumpsVersion(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	event := sampleEvent(3)

	require.NoError(t, cache.SetEvent(ctx, event, 0))
	require.NoError(t, cache.DeleteEvent(ctx, event.ID))

	assert.False(t, mr.Exists("event:3"))
	version, err := cache.Version(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	_, err = cache.GetEvent(ctx, event.ID)
	assert.ErrorIs(t, err, database.ErrCacheMiss)
}

func TestFillAfterInvalidationIsRefused(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	event := sampleEvent(4)

	version, err := cache.Version(ctx, event.ID)
	require.NoError(t, err)

	// a writer invalidates between the reader's version read and its fill
	require.NoError(t, cache.DeleteEvent(ctx, event.ID))

	err = cache.SetEvent(ctx, event, version)
	assert.ErrorIs(t, err, database.ErrCacheStale)
	assert.False(t, mr.Exists("event:4"))

	current, err := cache.Version(ctx, event.ID)
	require.NoError(t, err)
	require.NoError(t, cache.SetEvent(ctx, event, current))
	assert.True(t, mr.Exists("event:4"))
}

func TestGetEventCorruptedEntry(t *testing.T) {
	cache, mr := newTestCache(t)

	require.NoError(t, mr.Set("event:5", "{broken"))

	_, err := cache.GetEvent(context.Background(), 5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, database.ErrCacheMiss)
}
