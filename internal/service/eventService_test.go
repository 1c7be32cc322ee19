package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ds124wfegd/ticketbooker/internal/database"
	"github.com/ds124wfegd/ticketbooker/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetEventCacheHit(t *testing.T) {
	repo := new(eventRepoMock)
	cache := new(cacheMock)
	cache.On("GetEvent", mock.Anything, int64(1)).Return(&entity.Event{ID: 1, Title: "cached"}, nil)

	svc := NewEventService(repo, cache)
	event, err := svc.GetEvent(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, "cached", event.Title)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestGetEventCacheMissFillsCache(t *testing.T) {
	repo := new(eventRepoMock)
	cache := new(cacheMock)
	stored := &entity.Event{ID: 2, Title: "from db"}

	cache.On("GetEvent", mock.Anything, int64(2)).Return(nil, database.ErrCacheMiss)
	cache.On("Version", mock.Anything, int64(2)).Return(int64(4), nil)
	repo.On("GetByID", mock.Anything, int64(2)).Return(stored, nil)
	cache.On("SetEvent", mock.Anything, stored, int64(4)).Return(nil).Once()

	svc := NewEventService(repo, cache)
	event, err := svc.GetEvent(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, "from db", event.Title)
	cache.AssertExpectations(t)
}

func TestGetEventCacheErrorFallsBack(t *testing.T) {
	repo := new(eventRepoMock)
	cache := new(cacheMock)

	cache.On("GetEvent", mock.Anything, int64(3)).Return(nil, errors.New("redis: connection refused"))
	cache.On("Version", mock.Anything, int64(3)).Return(int64(0), errors.New("redis: connection refused"))
	repo.On("GetByID", mock.Anything, int64(3)).Return(&entity.Event{ID: 3}, nil)

	event, err := NewEventService(repo, cache).GetEvent(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), event.ID)
	cache.AssertNotCalled(t, "SetEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetEventRefusedFillStillReturnsEvent(t *testing.T) {
	repo := new(eventRepoMock)
	cache := new(cacheMock)
	stored := &entity.Event{ID: 9, AvailableSeats: 4}

	cache.On("GetEvent", mock.Anything, int64(9)).Return(nil, database.ErrCacheMiss)
	cache.On("Version", mock.Anything, int64(9)).Return(int64(1), nil)
	repo.On("GetByID", mock.Anything, int64(9)).Return(stored, nil)
	cache.On("SetEvent", mock.Anything, stored, int64(1)).Return(database.ErrCacheStale).Once()

	event, err := NewEventService(repo, cache).GetEvent(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 4, event.AvailableSeats)
	cache.AssertExpectations(t)
}

func TestGetEventNotFoundIsNotCached(t *testing.T) {
	repo := new(eventRepoMock)
	cache := new(cacheMock)

	cache.On("GetEvent", mock.Anything, int64(4)).Return(nil, database.ErrCacheMiss)
	cache.On("Version", mock.Anything, int64(4)).Return(int64(0), nil)
	repo.On("GetByID", mock.Anything, int64(4)).Return(nil, entity.ErrEventNotFound)

	_, err := NewEventService(repo, cache).GetEvent(context.Background(), 4)
	assert.ErrorIs(t, err, entity.ErrEventNotFound)
	cache.AssertNotCalled(t, "SetEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestListEventsForcesActiveStatus(t *testing.T) {
	repo := new(eventRepoMock)
	repo.On("List", mock.Anything, entity.EventFilter{
		Category: entity.CategoryConcert,
		Search:   "jazz",
		Status:   entity.EventStatusActive,
	}).Return([]*entity.Event{{ID: 1}}, nil)

	events, err := NewEventService(repo, nil).ListEvents(context.Background(), entity.EventFilter{
		Category: entity.CategoryConcert,
		Search:   "jazz",
		Status:   entity.EventStatusCancelled,
	})

	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestListEventsRejectsUnknownCategory(t *testing.T) {
	repo := new(eventRepoMock)

	_, err := NewEventService(repo, nil).ListEvents(context.Background(), entity.EventFilter{Category: "opera"})
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestCreateEventValidation(t *testing.T) {
	repo := new(eventRepoMock)
	svc := NewEventService(repo, nil)

	_, err := svc.CreateEvent(context.Background(), 1, &CreateEventRequest{
		Title:    "   ",
		Category: "opera",
		Price:    -1,
	})

	var verr *entity.ValidationError
	require.True(t, errors.As(err, &verr))
	for _, field := range []string{"title", "description", "date", "venue", "category", "price", "totalSeats"} {
		assert.Contains(t, verr.Fields, field)
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateEventSetsOrganizerAndStatus(t *testing.T) {
	repo := new(eventRepoMock)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(e *entity.Event) bool {
		return e.OrganizerID == 9 && e.Status == entity.EventStatusActive && e.Title == "Expo"
	})).Return(nil).Once()

	_, err := NewEventService(repo, nil).CreateEvent(context.Background(), 9, &CreateEventRequest{
		Title:       " Expo ",
		Description: "Trade show",
		Date:        time.Now().Add(48 * time.Hour),
		Time:        "10:00 AM",
		Venue:       "Center",
		Address:     "2 Side St",
		Category:    entity.CategoryOther,
		TotalSeats:  100,
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpdateEventInvalidatesCache(t *testing.T) {
	repo := new(eventRepoMock)
	cache := new(cacheMock)

	repo.On("GetByID", mock.Anything, int64(5)).Return(&entity.Event{ID: 5, Title: "Old", TotalSeats: 10, AvailableSeats: 4}, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(e *entity.Event) bool {
		return e.Title == "New" && e.TotalSeats == 20
	})).Return(nil).Once()
	cache.On("DeleteEvent", mock.Anything, int64(5)).Return(nil).Once()

	title, seats := "New", 20
	event, err := NewEventService(repo, cache).UpdateEvent(context.Background(), 5, &UpdateEventRequest{
		Title:      &title,
		TotalSeats: &seats,
	})

	require.NoError(t, err)
	assert.Equal(t, "New", event.Title)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestUpdateEventSeatsBelowBooked(t *testing.T) {
	f := newMemoryFixture(t)
	event := f.event(t, 10, 5)

	_, err := f.bookings.ReserveSeats(context.Background(), &ReserveSeatsRequest{
		UserID: 1, EventID: event.ID, NumberOfTickets: 6, Attendee: validAttendee(),
	})
	require.NoError(t, err)

	seats := 5
	_, err = f.events.UpdateEvent(context.Background(), event.ID, &UpdateEventRequest{TotalSeats: &seats})
	assert.ErrorIs(t, err, entity.ErrSeatsBelowBooked)

	seats = 12
	updated, err := f.events.UpdateEvent(context.Background(), event.ID, &UpdateEventRequest{TotalSeats: &seats})
	require.NoError(t, err)
	assert.Equal(t, 6, updated.AvailableSeats)
}

func TestDeleteEvent(t *testing.T) {
	repo := new(eventRepoMock)
	cache := new(cacheMock)

	repo.On("Delete", mock.Anything, int64(6)).Return(nil).Once()
	repo.On("Delete", mock.Anything, int64(7)).Return(entity.ErrEventHasBookings).Once()
	cache.On("DeleteEvent", mock.Anything, int64(6)).Return(nil).Once()

	svc := NewEventService(repo, cache)
	require.NoError(t, svc.DeleteEvent(context.Background(), 6))
	assert.ErrorIs(t, svc.DeleteEvent(context.Background(), 7), entity.ErrEventHasBookings)

	cache.AssertExpectations(t)
	cache.AssertNotCalled(t, "DeleteEvent", mock.Anything, int64(7))
}

func TestUpdateAvailableSeats(t *testing.T) {
	repo := new(eventRepoMock)

	repo.On("UpdateAvailableSeats", mock.Anything, int64(8), 5, 3).Return(nil).Once()
	repo.On("GetByID", mock.Anything, int64(8)).Return(&entity.Event{ID: 8, AvailableSeats: 3}, nil)
	repo.On("UpdateAvailableSeats", mock.Anything, int64(8), 5, 2).Return(entity.ErrConcurrentUpdate).Once()

	svc := NewEventService(repo, nil)

	event, err := svc.UpdateAvailableSeats(context.Background(), 8, 5, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, event.AvailableSeats)

	_, err = svc.UpdateAvailableSeats(context.Background(), 8, 5, 2)
	assert.ErrorIs(t, err, entity.ErrConcurrentUpdate)
}

func TestCompletePastEvents(t *testing.T) {
	now := time.Now()
	repo := new(eventRepoMock)
	repo.On("CompletePast", mock.Anything, now).Return(int64(2), nil)

	n, err := NewEventService(repo, nil).CompletePastEvents(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
