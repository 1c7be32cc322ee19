package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/ticketbooker/internal/database"
	"github.com/ds124wfegd/ticketbooker/internal/entity"
	"github.com/ds124wfegd/ticketbooker/pkg/broker"
	"github.com/sirupsen/logrus"
)

const taskTimeout = 30 * time.Second

// Notifier интерфейс для Telegram бота
type Notifier interface {
	SendMessage(chatID, text string) error
}

// TaskHandler обрабатывает задачи из очереди
type TaskHandler struct {
	events    database.EventRepository
	bookings  database.BookingRepository
	publisher broker.Publisher
	notifier  Notifier
	chatID    string
	logger    logrus.FieldLogger
}

// NewTaskHandler builds the handler; notifier may be nil when the ops chat
// is not configured.
func NewTaskHandler(
	events database.EventRepository,
	bookings database.BookingRepository,
	publisher broker.Publisher,
	notifier Notifier,
	chatID string,
) *TaskHandler {
	return &TaskHandler{
		events:    events,
		bookings:  bookings,
		publisher: publisher,
		notifier:  notifier,
		chatID:    chatID,
		logger:    logrus.WithField("component", "task_handler"),
	}
}

func (h *TaskHandler) HandleTask(task *Task) error {
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	h.logger.WithFields(logrus.Fields{
		"task_id":   task.ID,
		"task_type": task.Type,
		"attempt":   task.Attempts,
	}).Debug("Handling task")

	switch task.Type {
	case TaskTypeBookingNotification:
		return h.handleBookingNotification(ctx, task)
	case TaskTypeEventReminder:
		return h.handleEventReminder(ctx, task)
	default:
		return fmt.Errorf("%w: unknown task type %q", ErrPermanent, task.Type)
	}
}

func (h *TaskHandler) loadBooking(ctx context.Context, task *Task) (*entity.Booking, error) {
	bookingID := task.GetInt64("booking_id")
	if bookingID == 0 {
		return nil, fmt.Errorf("%w: booking_id missing", ErrPermanent)
	}

	booking, err := h.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, entity.ErrBookingNotFound) {
		return nil, fmt.Errorf("%w: booking %d: %v", ErrPermanent, bookingID, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking %d: %w", bookingID, err)
	}
	return booking, nil
}

// handleBookingNotification пишет в чат операторов о новом бронировании
func (h *TaskHandler) handleBookingNotification(ctx context.Context, task *Task) error {
	booking, err := h.loadBooking(ctx, task)
	if err != nil {
		return err
	}

	if h.notifier == nil || h.chatID == "" {
		h.logger.WithField("booking_reference", booking.BookingReference).Info("Ops notification skipped, no chat configured")
		return nil
	}

	title := ""
	if booking.Event != nil {
		title = booking.Event.Title
	}

	message := fmt.Sprintf(
		"New booking %s\n\nEvent: %s\nTickets: %d\nAmount: %.2f\nAttendee: %s <%s>",
		booking.BookingReference,
		title,
		booking.NumberOfTickets,
		booking.TotalAmount,
		booking.Attendee.Name,
		booking.Attendee.Email,
	)

	if err := h.notifier.SendMessage(h.chatID, message); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	h.logger.WithField("booking_reference", booking.BookingReference).Info("Ops notification sent")
	return nil
}

// ReminderPayload is the body of an event.reminder broker message.
type ReminderPayload struct {
	BookingReference string    `json:"bookingReference"`
	EventID          int64     `json:"eventId"`
	Title            string    `json:"title"`
	Date             time.Time `json:"date"`
	Time             string    `json:"time"`
	Venue            string    `json:"venue"`
	Tickets          int       `json:"tickets"`
	AttendeeName     string    `json:"attendeeName"`
	AttendeeEmail    string    `json:"attendeeEmail"`
}

// handleEventReminder публикует напоминание, если мероприятие все еще активно
func (h *TaskHandler) handleEventReminder(ctx context.Context, task *Task) error {
	booking, err := h.loadBooking(ctx, task)
	if err != nil {
		return err
	}

	event, err := h.events.GetByID(ctx, booking.EventID)
	if errors.Is(err, entity.ErrEventNotFound) {
		return fmt.Errorf("%w: event %d: %v", ErrPermanent, booking.EventID, err)
	}
	if err != nil {
		return fmt.Errorf("failed to load event %d: %w", booking.EventID, err)
	}

	if event.Status != entity.EventStatusActive {
		h.logger.WithFields(logrus.Fields{
			"event_id": event.ID,
			"status":   event.Status,
		}).Info("Reminder skipped, event no longer active")
		return nil
	}

	msg, err := broker.NewMessage(broker.TopicEventReminder, booking.BookingReference, ReminderPayload{
		BookingReference: booking.BookingReference,
		EventID:          event.ID,
		Title:            event.Title,
		Date:             event.Date,
		Time:             event.Time,
		Venue:            event.Venue,
		Tickets:          booking.NumberOfTickets,
		AttendeeName:     booking.Attendee.Name,
		AttendeeEmail:    booking.Attendee.Email,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermanent, err)
	}

	if err := h.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish reminder: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"booking_reference": booking.BookingReference,
		"event_id":          event.ID,
	}).Info("Event reminder published")
	return nil
}
