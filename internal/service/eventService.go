package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ds124wfegd/ticketbooker/internal/database"
	"github.com/ds124wfegd/ticketbooker/internal/entity"
	"github.com/sirupsen/logrus"
)

type CreateEventRequest struct {
	Title       string               `json:"title" validate:"required,max=100"`
	Description string               `json:"description" validate:"required,max=1000"`
	Date        time.Time            `json:"date" validate:"required"`
	Time        string               `json:"time" validate:"required,max=20"`
	Venue       string               `json:"venue" validate:"required,max=200"`
	Address     string               `json:"address" validate:"required,max=300"`
	Category    entity.EventCategory `json:"category" validate:"required,oneof=conference concert sports theater workshop other"`
	Price       float64              `json:"price" validate:"gte=0"`
	TotalSeats  int                  `json:"totalSeats" validate:"required,min=1"`
	Image       string               `json:"image" validate:"omitempty,max=255"`
}

// UpdateEventRequest is a partial update; nil fields stay as they are.
type UpdateEventRequest struct {
	Title       *string               `json:"title" validate:"omitempty,min=1,max=100"`
	Description *string               `json:"description" validate:"omitempty,min=1,max=1000"`
	Date        *time.Time            `json:"date"`
	Time        *string               `json:"time" validate:"omitempty,min=1,max=20"`
	Venue       *string               `json:"venue" validate:"omitempty,min=1,max=200"`
	Address     *string               `json:"address" validate:"omitempty,min=1,max=300"`
	Category    *entity.EventCategory `json:"category" validate:"omitempty,oneof=conference concert sports theater workshop other"`
	Price       *float64              `json:"price" validate:"omitempty,gte=0"`
	TotalSeats  *int                  `json:"totalSeats" validate:"omitempty,min=1"`
	Image       *string               `json:"image" validate:"omitempty,max=255"`
	Status      *entity.EventStatus   `json:"status" validate:"omitempty,oneof=active cancelled completed"`
}

func (r *UpdateEventRequest) apply(e *entity.Event) {
	if r.Title != nil {
		e.Title = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		e.Description = *r.Description
	}
	if r.Date != nil {
		e.Date = *r.Date
	}
	if r.Time != nil {
		e.Time = *r.Time
	}
	if r.Venue != nil {
		e.Venue = *r.Venue
	}
	if r.Address != nil {
		e.Address = *r.Address
	}
	if r.Category != nil {
		e.Category = *r.Category
	}
	if r.Price != nil {
		e.Price = *r.Price
	}
	if r.TotalSeats != nil {
		e.TotalSeats = *r.TotalSeats
	}
	if r.Image != nil {
		e.Image = *r.Image
	}
	if r.Status != nil {
		e.Status = *r.Status
	}
}

type eventService struct {
	eventRepo database.EventRepository
	cache     database.EventCache
	logger    logrus.FieldLogger
}

// NewEventService builds the catalog service; cache may be nil.
func NewEventService(eventRepo database.EventRepository, cache database.EventCache) EventService {
	return &eventService{
		eventRepo: eventRepo,
		cache:     cache,
		logger:    logrus.WithField("component", "event_service"),
	}
}

// GetEvent reads through the cache. The fill is tied to the version read
// before the store lookup, so an invalidation racing with it wins.
func (s *eventService) GetEvent(ctx context.Context, id int64) (*entity.Event, error) {
	var (
		version   int64
		cacheable bool
	)
	if s.cache != nil {
		event, err := s.cache.GetEvent(ctx, id)
		if err == nil {
			return event, nil
		}
		if !errors.Is(err, database.ErrCacheMiss) {
			s.logger.WithError(err).WithField("event_id", id).Warn("Event cache read failed")
		}

		version, err = s.cache.Version(ctx, id)
		if err != nil {
			s.logger.WithError(err).WithField("event_id", id).Warn("Event cache version read failed")
		} else {
			cacheable = true
		}
	}

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cacheable {
		err := s.cache.SetEvent(ctx, event, version)
		switch {
		case errors.Is(err, database.ErrCacheStale):
			s.logger.WithField("event_id", id).Debug("Event changed during cache fill, not cached")
		case err != nil:
			s.logger.WithError(err).WithField("event_id", id).Warn("Event cache write failed")
		}
	}
	return event, nil
}

// ListEvents returns active events sorted by date.
func (s *eventService) ListEvents(ctx context.Context, filter entity.EventFilter) ([]*entity.Event, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, entity.NewValidationError("category", "unknown category")
	}
	filter.Status = entity.EventStatusActive

	return s.eventRepo.List(ctx, filter)
}

func (s *eventService) CreateEvent(ctx context.Context, organizerID int64, req *CreateEventRequest) (*entity.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	event := &entity.Event{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Venue:       req.Venue,
		Address:     req.Address,
		Category:    req.Category,
		Price:       req.Price,
		TotalSeats:  req.TotalSeats,
		Image:       req.Image,
		OrganizerID: organizerID,
		Status:      entity.EventStatusActive,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"event_id":     event.ID,
		"organizer_id": organizerID,
		"total_seats":  event.TotalSeats,
	}).Info("Event created")
	return event, nil
}

// UpdateEvent applies the partial update. A TotalSeats change moves
// AvailableSeats by the same delta.
func (s *eventService) UpdateEvent(ctx context.Context, id int64, req *UpdateEventRequest) (*entity.Event, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	req.apply(event)
	if event.Title == "" {
		return nil, entity.NewValidationError("title", "is required")
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	s.logger.WithField("event_id", id).Info("Event updated")
	return event, nil
}

// DeleteEvent refuses events that already have bookings.
func (s *eventService) DeleteEvent(ctx context.Context, id int64) error {
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)

	s.logger.WithField("event_id", id).Info("Event deleted")
	return nil
}

func (s *eventService) UpdateAvailableSeats(ctx context.Context, id int64, expected, newCount int) (*entity.Event, error) {
	if err := s.eventRepo.UpdateAvailableSeats(ctx, id, expected, newCount); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	s.logger.WithFields(logrus.Fields{
		"event_id": id,
		"from":     expected,
		"to":       newCount,
	}).Info("Available seats adjusted")

	return s.eventRepo.GetByID(ctx, id)
}

func (s *eventService) CompletePastEvents(ctx context.Context, now time.Time) (int64, error) {
	return s.eventRepo.CompletePast(ctx, now)
}

func (s *eventService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteEvent(ctx, id); err != nil {
		s.logger.WithError(err).WithField("event_id", id).Warn("Failed to invalidate event cache")
	}
}
