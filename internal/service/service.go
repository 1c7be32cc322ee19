package service

import (
	"context"
	"time"

	"github.com/ds124wfegd/ticketbooker/internal/entity"
	"github.com/ds124wfegd/ticketbooker/pkg/queue"
)

type EventService interface {
	GetEvent(ctx context.Context, id int64) (*entity.Event, error)
	ListEvents(ctx context.Context, filter entity.EventFilter) ([]*entity.Event, error)
	CreateEvent(ctx context.Context, organizerID int64, req *CreateEventRequest) (*entity.Event, error)
	UpdateEvent(ctx context.Context, id int64, req *UpdateEventRequest) (*entity.Event, error)
	DeleteEvent(ctx context.Context, id int64) error

	// UpdateAvailableSeats sets the seat counter only if it still equals expected.
	UpdateAvailableSeats(ctx context.Context, id int64, expected, newCount int) (*entity.Event, error)
	CompletePastEvents(ctx context.Context, now time.Time) (int64, error)
}

// BookingService определяет интерфейс для операций с бронированиями
type BookingService interface {
	ReserveSeats(ctx context.Context, req *ReserveSeatsRequest) (*entity.Booking, error)
	GetUserBookings(ctx context.Context, userID int64) ([]*entity.Booking, error)
	GetBooking(ctx context.Context, requesterID, bookingID int64) (*entity.Booking, error)
}

type UserService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResult, error)
	Me(ctx context.Context, userID int64) (*entity.User, error)
}

// TaskPublisher интерфейс для публикации задач в очередь
type TaskPublisher interface {
	Publish(ctx context.Context, task *queue.Task) error
}

// QueueAdmin exposes the background queue to operators.
type QueueAdmin interface {
	GetQueueStats(ctx context.Context) (*queue.QueueStats, error)
	GetFailedTasks(ctx context.Context, limit int) ([]*queue.FailedTask, error)
	RequeueFailedTask(ctx context.Context, taskID string) error
}

// Service bundles everything the transport layer needs. Queue is nil when
// no Redis queue is configured.
type Service struct {
	Events   EventService
	Bookings BookingService
	Users    UserService
	Queue    QueueAdmin
}
