package service

import (
	"context"
	"time"

	"github.com/ds124wfegd/ticketbooker/internal/entity"
	"github.com/ds124wfegd/ticketbooker/pkg/broker"
	"github.com/ds124wfegd/ticketbooker/pkg/queue"
	"github.com/stretchr/testify/mock"
)

type bookingRepoMock struct {
	mock.Mock
}

func (m *bookingRepoMock) ReserveSeats(ctx context.Context, booking *entity.Booking) (*entity.Event, error) {
	args := m.Called(ctx, booking)
	event, _ := args.Get(0).(*entity.Event)
	return event, args.Error(1)
}

func (m *bookingRepoMock) GetByID(ctx context.Context, id int64) (*entity.Booking, error) {
	args := m.Called(ctx, id)
	booking, _ := args.Get(0).(*entity.Booking)
	return booking, args.Error(1)
}

func (m *bookingRepoMock) GetByUserID(ctx context.Context, userID int64) ([]*entity.Booking, error) {
	args := m.Called(ctx, userID)
	bookings, _ := args.Get(0).([]*entity.Booking)
	return bookings, args.Error(1)
}

func (m *bookingRepoMock) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

type eventRepoMock struct {
	mock.Mock
}

func (m *eventRepoMock) Create(ctx context.Context, event *entity.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *eventRepoMock) GetByID(ctx context.Context, id int64) (*entity.Event, error) {
	args := m.Called(ctx, id)
	event, _ := args.Get(0).(*entity.Event)
	return event, args.Error(1)
}

func (m *eventRepoMock) List(ctx context.Context, filter entity.EventFilter) ([]*entity.Event, error) {
	args := m.Called(ctx, filter)
	events, _ := args.Get(0).([]*entity.Event)
	return events, args.Error(1)
}

func (m *eventRepoMock) Update(ctx context.Context, event *entity.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *eventRepoMock) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *eventRepoMock) UpdateAvailableSeats(ctx context.Context, id int64, expected, newCount int) error {
	return m.Called(ctx, id, expected, newCount).Error(0)
}

func (m *eventRepoMock) CompletePast(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type cacheMock struct {
	mock.Mock
}

func (m *cacheMock) GetEvent(ctx context.Context, id int64) (*entity.Event, error) {
	args := m.Called(ctx, id)
	event, _ := args.Get(0).(*entity.Event)
	return event, args.Error(1)
}

func (m *cacheMock) Version(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *cacheMock) SetEvent(ctx context.Context, event *entity.Event, version int64) error {
	return m.Called(ctx, event, version).Error(0)
}

func (m *cacheMock) DeleteEvent(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) Publish(ctx context.Context, msg broker.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *publisherMock) Close() error { return nil }

type taskPublisherMock struct {
	mock.Mock
}

func (m *taskPublisherMock) Publish(ctx context.Context, task *queue.Task) error {
	return m.Called(ctx, task).Error(0)
}
