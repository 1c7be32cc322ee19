package entity

import (
	"math"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusFailed  PaymentStatus = "failed"
)

const (
	MinTicketsPerBooking = 1
	MaxTicketsPerBooking = 10
)

type AttendeeInfo struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,max=50"`
}

type Booking struct {
	ID               int64         `json:"id" db:"id"`
	BookingReference string        `json:"bookingReference" db:"booking_reference"`
	UserID           int64         `json:"user" db:"user_id"`
	EventID          int64         `json:"-" db:"event_id"`
	NumberOfTickets  int           `json:"numberOfTickets" db:"number_of_tickets"`
	TotalAmount      float64       `json:"totalAmount" db:"total_amount"`
	BookingDate      time.Time     `json:"bookingDate" db:"booking_date"`
	Status           BookingStatus `json:"status" db:"status"`
	PaymentStatus    PaymentStatus `json:"paymentStatus" db:"payment_status"`
	Attendee         AttendeeInfo  `json:"attendeeInfo" db:"-"`
	Event            *EventSummary `json:"event,omitempty" db:"-"`
}

// ChargeFor returns the amount owed for tickets at the given unit price.
// Amounts are rounded to cents so repeated float math cannot drift.
func ChargeFor(price float64, tickets int) float64 {
	cents := int64(math.Round(price*100)) * int64(tickets)
	return float64(cents) / 100
}
