package entity

import (
	"time"
)

type EventCategory string

const (
	CategoryConference EventCategory = "conference"
	CategoryConcert    EventCategory = "concert"
	CategorySports     EventCategory = "sports"
	CategoryTheater    EventCategory = "theater"
	CategoryWorkshop   EventCategory = "workshop"
	CategoryOther      EventCategory = "other"
)

// Valid reports whether c is one of the known categories.
func (c EventCategory) Valid() bool {
	switch c {
	case CategoryConference, CategoryConcert, CategorySports,
		CategoryTheater, CategoryWorkshop, CategoryOther:
		return true
	}
	return false
}

type EventStatus string

const (
	EventStatusActive    EventStatus = "active"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusActive, EventStatusCancelled, EventStatusCompleted:
		return true
	}
	return false
}

const DefaultEventImage = "default-event.jpg"

type Event struct {
	ID             int64         `json:"id" db:"id"`
	Title          string        `json:"title" db:"title"`
	Description    string        `json:"description" db:"description"`
	Date           time.Time     `json:"date" db:"date"`
	Time           string        `json:"time" db:"time"`
	Venue          string        `json:"venue" db:"venue"`
	Address        string        `json:"address" db:"address"`
	Category       EventCategory `json:"category" db:"category"`
	Price          float64       `json:"price" db:"price"`
	TotalSeats     int           `json:"totalSeats" db:"total_seats"`
	AvailableSeats int           `json:"availableSeats" db:"available_seats"`
	Image          string        `json:"image" db:"image"`
	OrganizerID    int64         `json:"organizer" db:"organizer_id"`
	Status         EventStatus   `json:"status" db:"status"`
	CreatedAt      time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time     `json:"updatedAt" db:"updated_at"`
}

// BookedSeats is the number of seats already claimed by bookings.
func (e *Event) BookedSeats() int {
	return e.TotalSeats - e.AvailableSeats
}

// IsBookable reports whether the event accepts new bookings at all.
func (e *Event) IsBookable() bool {
	return e.Status == EventStatusActive
}

// Summary is the partial event view attached to bookings.
func (e *Event) Summary() *EventSummary {
	return &EventSummary{
		ID:      e.ID,
		Title:   e.Title,
		Date:    e.Date,
		Venue:   e.Venue,
		Price:   e.Price,
		Address: e.Address,
	}
}

type EventSummary struct {
	ID      int64     `json:"id"`
	Title   string    `json:"title"`
	Date    time.Time `json:"date"`
	Venue   string    `json:"venue"`
	Price   float64   `json:"price,omitempty"`
	Address string    `json:"address,omitempty"`
}

// EventFilter narrows catalog listings. Zero values mean "any".
type EventFilter struct {
	Category EventCategory
	Search   string
	Status   EventStatus
}
