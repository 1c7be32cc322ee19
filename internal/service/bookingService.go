package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ds124wfegd/ticketbooker/internal/database"
	"github.com/ds124wfegd/ticketbooker/internal/entity"
	"github.com/ds124wfegd/ticketbooker/pkg/broker"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const followUpTimeout = 5 * time.Second

// ReserveSeatsRequest представляет данные для бронирования мест
type ReserveSeatsRequest struct {
	UserID          int64               `json:"-"`
	EventID         int64               `json:"eventId" validate:"required"`
	NumberOfTickets int                 `json:"numberOfTickets"`
	Attendee        entity.AttendeeInfo `json:"attendeeInfo"`
}

type BookingConfig struct {
	MaxTickets int
	MaxRetries int
}

// BookingConfirmed is the body of a booking.confirmed broker message.
type BookingConfirmed struct {
	BookingID        int64     `json:"bookingId"`
	BookingReference string    `json:"bookingReference"`
	UserID           int64     `json:"userId"`
	EventID          int64     `json:"eventId"`
	NumberOfTickets  int       `json:"numberOfTickets"`
	TotalAmount      float64   `json:"totalAmount"`
	AvailableSeats   int       `json:"availableSeats"`
	BookingDate      time.Time `json:"bookingDate"`
}

type bookingService struct {
	bookingRepo database.BookingRepository
	cache       database.EventCache
	publisher   broker.Publisher
	tasks       *QueueAdapter
	cfg         BookingConfig
	newRef      func(time.Time) string
	logger      logrus.FieldLogger
}

// NewBookingService создает новый экземпляр BookingService. cache,
// publisher and tasks are optional.
func NewBookingService(
	bookingRepo database.BookingRepository,
	cache database.EventCache,
	publisher broker.Publisher,
	tasks *QueueAdapter,
	cfg BookingConfig,
) BookingService {
	if cfg.MaxTickets <= 0 || cfg.MaxTickets > entity.MaxTicketsPerBooking {
		cfg.MaxTickets = entity.MaxTicketsPerBooking
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &bookingService{
		bookingRepo: bookingRepo,
		cache:       cache,
		publisher:   publisher,
		tasks:       tasks,
		cfg:         cfg,
		newRef:      NewBookingReference,
		logger:      logrus.WithField("component", "booking_service"),
	}
}

// NewBookingReference returns BK-<yyyymmdd>-<8 upper hex chars>.
func NewBookingReference(now time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("BK-%s-%s", now.UTC().Format("20060102"), strings.ToUpper(hex.EncodeToString(id[:4])))
}

func (s *bookingService) validate(req *ReserveSeatsRequest) error {
	req.Attendee.Name = strings.TrimSpace(req.Attendee.Name)
	req.Attendee.Email = strings.TrimSpace(req.Attendee.Email)
	req.Attendee.Phone = strings.TrimSpace(req.Attendee.Phone)

	fields := make(map[string]string)

	var verr *entity.ValidationError
	if err := validateStruct(req); err != nil {
		if !errors.As(err, &verr) {
			return err
		}
		for k, v := range verr.Fields {
			fields[k] = v
		}
	}

	if req.NumberOfTickets < entity.MinTicketsPerBooking || req.NumberOfTickets > s.cfg.MaxTickets {
		fields["numberOfTickets"] = fmt.Sprintf("must be between %d and %d", entity.MinTicketsPerBooking, s.cfg.MaxTickets)
	}

	if len(fields) > 0 {
		return &entity.ValidationError{Fields: fields}
	}
	return nil
}

// ReserveSeats validates the request, then hands the reservation to the
// repository, which decrements seats and stores the booking atomically.
// Conflicts and reference collisions are retried with a new reference.
func (s *bookingService) ReserveSeats(ctx context.Context, req *ReserveSeatsRequest) (*entity.Booking, error) {
	if req.UserID <= 0 {
		return nil, entity.ErrUnauthorized
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{
		"user_id":  req.UserID,
		"event_id": req.EventID,
		"tickets":  req.NumberOfTickets,
	})

	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		booking := &entity.Booking{
			BookingReference: s.newRef(time.Now()),
			UserID:           req.UserID,
			EventID:          req.EventID,
			NumberOfTickets:  req.NumberOfTickets,
			Status:           entity.BookingStatusConfirmed,
			PaymentStatus:    entity.PaymentStatusPaid,
			Attendee:         req.Attendee,
		}

		event, err := s.bookingRepo.ReserveSeats(ctx, booking)
		if err == nil {
			log.WithFields(logrus.Fields{
				"booking_reference": booking.BookingReference,
				"available_seats":   event.AvailableSeats,
			}).Info("Seats reserved")

			s.afterReserve(ctx, booking, event)
			return booking, nil
		}

		if !errors.Is(err, entity.ErrConcurrentUpdate) && !errors.Is(err, entity.ErrDuplicateReference) {
			return nil, err
		}

		lastErr = err
		log.WithError(err).WithField("attempt", attempt+1).Warn("Reservation conflict, retrying")
	}

	return nil, fmt.Errorf("reservation failed after %d attempts: %w (last: %v)",
		s.cfg.MaxRetries+1, entity.ErrConcurrentUpdate, lastErr)
}

// afterReserve runs the best-effort follow-ups. None of them can undo the
// booking, so failures are only logged.
func (s *bookingService) afterReserve(ctx context.Context, booking *entity.Booking, event *entity.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), followUpTimeout)
	defer cancel()

	log := s.logger.WithField("booking_reference", booking.BookingReference)

	if s.cache != nil {
		if err := s.cache.DeleteEvent(ctx, event.ID); err != nil {
			log.WithError(err).Warn("Failed to invalidate event cache")
		}
	}

	if s.publisher != nil {
		msg, err := broker.NewMessage(broker.TopicBookingConfirmed, booking.BookingReference, BookingConfirmed{
			BookingID:        booking.ID,
			BookingReference: booking.BookingReference,
			UserID:           booking.UserID,
			EventID:          booking.EventID,
			NumberOfTickets:  booking.NumberOfTickets,
			TotalAmount:      booking.TotalAmount,
			AvailableSeats:   event.AvailableSeats,
			BookingDate:      booking.BookingDate,
		})
		if err == nil {
			err = s.publisher.Publish(ctx, msg)
		}
		if err != nil {
			log.WithError(err).Warn("Failed to publish booking.confirmed")
		}
	}

	if err := s.tasks.ScheduleBookingTasks(ctx, booking, event); err != nil {
		log.WithError(err).Warn("Failed to enqueue booking tasks")
	}
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID int64) ([]*entity.Booking, error) {
	if userID <= 0 {
		return nil, entity.ErrUnauthorized
	}
	return s.bookingRepo.GetByUserID(ctx, userID)
}

// GetBooking returns the booking only to its owner.
func (s *bookingService) GetBooking(ctx context.Context, requesterID, bookingID int64) (*entity.Booking, error) {
	if requesterID <= 0 {
		return nil, entity.ErrUnauthorized
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != requesterID {
		return nil, entity.ErrForbidden
	}
	return booking, nil
}
