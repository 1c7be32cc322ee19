package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ds124wfegd/ticketbooker/internal/database"
	"github.com/ds124wfegd/ticketbooker/internal/entity"
)

type eventRepository struct {
	store *Store
}

func NewEventRepository(store *Store) database.EventRepository {
	return &eventRepository{store: store}
}

func (r *eventRepository) Create(ctx context.Context, event *entity.Event) error {
	now := time.Now().UTC()
	if event.Status == "" {
		event.Status = entity.EventStatusActive
	}
	if event.Image == "" {
		event.Image = entity.DefaultEventImage
	}
	event.AvailableSeats = event.TotalSeats
	event.CreatedAt = now
	event.UpdatedAt = now

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.nextEventID++
	event.ID = r.store.nextEventID
	r.store.events[event.ID] = copyEvent(event)
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*entity.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	event, ok := r.store.events[id]
	if !ok {
		return nil, entity.ErrEventNotFound
	}
	return copyEvent(event), nil
}

func (r *eventRepository) List(ctx context.Context, filter entity.EventFilter) ([]*entity.Event, error) {
	status := filter.Status
	if status == "" {
		status = entity.EventStatusActive
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	r.store.mu.RLock()
	events := make([]*entity.Event, 0, len(r.store.events))
	for _, e := range r.store.events {
		if e.Status != status {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(e.Title), search) &&
			!strings.Contains(strings.ToLower(e.Description), search) {
			continue
		}
		events = append(events, copyEvent(e))
	}
	r.store.mu.RUnlock()

	sort.Slice(events, func(i, j int) bool {
		if events[i].Date.Equal(events[j].Date) {
			return events[i].ID < events[j].ID
		}
		return events[i].Date.Before(events[j].Date)
	})
	return events, nil
}

func (r *eventRepository) Update(ctx context.Context, event *entity.Event) error {
	unlock := r.store.eventLocks.Lock(event.ID)
	defer unlock()

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.events[event.ID]
	if !ok {
		return entity.ErrEventNotFound
	}

	available := current.AvailableSeats + (event.TotalSeats - current.TotalSeats)
	if available < 0 {
		return entity.ErrSeatsBelowBooked
	}

	updated := copyEvent(event)
	updated.AvailableSeats = available
	updated.OrganizerID = current.OrganizerID
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.store.events[event.ID] = updated
	*event = *copyEvent(updated)
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	unlock := r.store.eventLocks.Lock(id)
	defer unlock()

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.events[id]; !ok {
		return entity.ErrEventNotFound
	}
	for _, b := range r.store.bookings {
		if b.EventID == id {
			return entity.ErrEventHasBookings
		}
	}

	delete(r.store.events, id)
	return nil
}

func (r *eventRepository) UpdateAvailableSeats(ctx context.Context, id int64, expected, newCount int) error {
	unlock := r.store.eventLocks.Lock(id)
	defer unlock()

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	event, ok := r.store.events[id]
	if !ok {
		return entity.ErrEventNotFound
	}
	if newCount < 0 || newCount > event.TotalSeats {
		return entity.NewValidationError("availableSeats", fmt.Sprintf("must be between 0 and %d", event.TotalSeats))
	}
	if event.AvailableSeats != expected {
		return entity.ErrConcurrentUpdate
	}

	event.AvailableSeats = newCount
	event.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *eventRepository) CompletePast(ctx context.Context, now time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var n int64
	for _, e := range r.store.events {
		if e.Status == entity.EventStatusActive && e.Date.Before(now) {
			e.Status = entity.EventStatusCompleted
			e.UpdatedAt = now
			n++
		}
	}
	return n, nil
}
