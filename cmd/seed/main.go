// seed fills the database with demo users, events and bookings.
package main

import (
	"context"
	"errors"
	"time"

	"github.com/ds124wfegd/ticketbooker/config"
	"github.com/ds124wfegd/ticketbooker/internal/appServer"
	"github.com/ds124wfegd/ticketbooker/internal/database"
	"github.com/ds124wfegd/ticketbooker/internal/entity"
	"github.com/ds124wfegd/ticketbooker/internal/service"
	"github.com/ds124wfegd/ticketbooker/pkg/auth"
	"github.com/sirupsen/logrus"
)

type seedUser struct {
	name, email, password, phone string
	role                         entity.Role
}

var users = []seedUser{
	{"John Doe", "user@example.com", "password123", "+1234567890", entity.RoleUser},
	{"Admin User", "admin@example.com", "admin123", "+1234567891", entity.RoleAdmin},
	{"Jane Smith", "jane@example.com", "password123", "+1234567892", entity.RoleUser},
}

// event dates are offsets from today so the demo catalog never goes stale
var events = []struct {
	inDays int
	req    service.CreateEventRequest
}{
	{60, service.CreateEventRequest{
		Title:       "Tech Conference",
		Description: "Annual technology conference featuring the latest innovations in AI, blockchain, and web development.",
		Time:        "09:00 AM", Venue: "Convention Center", Address: "123 Tech Street, Silicon Valley, CA",
		Category: entity.CategoryConference, Price: 299, TotalSeats: 500, Image: "tech-conference.jpg",
	}},
	{90, service.CreateEventRequest{
		Title:       "Summer Music Festival",
		Description: "Three-day music festival featuring top artists from around the world.",
		Time:        "06:00 PM", Venue: "Central Park", Address: "Central Park, New York, NY",
		Category: entity.CategoryConcert, Price: 150, TotalSeats: 2000, Image: "music-festival.jpg",
	}},
	{30, service.CreateEventRequest{
		Title:       "Basketball Championship",
		Description: "City basketball championship finals.",
		Time:        "07:30 PM", Venue: "Sports Arena", Address: "456 Sports Ave, Los Angeles, CA",
		Category: entity.CategorySports, Price: 75, TotalSeats: 15000, Image: "basketball.jpg",
	}},
	{14, service.CreateEventRequest{
		Title:       "Web Development Workshop",
		Description: "Hands-on workshop on modern web development.",
		Time:        "10:00 AM", Venue: "Learning Center", Address: "789 Education Blvd, Boston, MA",
		Category: entity.CategoryWorkshop, Price: 99, TotalSeats: 50, Image: "workshop.jpg",
	}},
	{45, service.CreateEventRequest{
		Title:       "Shakespeare in the Park",
		Description: "Classic theater performance of Hamlet in the beautiful outdoor setting.",
		Time:        "08:00 PM", Venue: "Park Theater", Address: "Shakespeare Garden, London, UK",
		Category: entity.CategoryTheater, Price: 45, TotalSeats: 300, Image: "theater.jpg",
	}},
}

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	v, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Cannot load config. Error: {%s}", err.Error())
	}
	cfg, err := config.ParseConfig(v)
	if err != nil {
		logrus.Fatalf("Cannot parse config. Error: {%s}", err.Error())
	}
	if cfg.Database.Driver == "memory" {
		logrus.Fatal("Seeding the in-memory store is pointless, set database.driver=postgres")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repos, err := appServer.OpenRepositories(ctx, &cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer repos.Close()

	created, err := seedUsers(ctx, repos.Users, cfg.JWT.BcryptCost)
	if err != nil {
		logrus.Fatalf("Failed to seed users: %v", err)
	}

	eventsSvc := service.NewEventService(repos.Events, nil)
	bookingsSvc := service.NewBookingService(repos.Bookings, nil, nil, nil, service.BookingConfig{
		MaxTickets: cfg.Booking.MaxTickets,
		MaxRetries: cfg.Booking.MaxRetries,
	})

	today := time.Now().UTC().Truncate(24 * time.Hour)
	var seeded []*entity.Event
	for _, e := range events {
		req := e.req
		req.Date = today.AddDate(0, 0, e.inDays)

		event, err := eventsSvc.CreateEvent(ctx, created[entity.RoleAdmin].ID, &req)
		if err != nil {
			logrus.Fatalf("Failed to seed event %q: %v", req.Title, err)
		}
		seeded = append(seeded, event)
	}
	logrus.WithField("count", len(seeded)).Info("Events created")

	user := created[entity.RoleUser]
	for i, tickets := range []int{2, 1} {
		booking, err := bookingsSvc.ReserveSeats(ctx, &service.ReserveSeatsRequest{
			UserID:          user.ID,
			EventID:         seeded[i].ID,
			NumberOfTickets: tickets,
			Attendee:        entity.AttendeeInfo{Name: user.Name, Email: user.Email, Phone: user.Phone},
		})
		if err != nil {
			logrus.Fatalf("Failed to seed booking: %v", err)
		}
		logrus.WithField("booking_reference", booking.BookingReference).Info("Booking created")
	}

	logrus.Info("Seed completed")
}

// seedUsers creates the demo accounts, reusing any that already exist.
// It returns the first account per role.
func seedUsers(ctx context.Context, repo database.UserRepository, cost int) (map[entity.Role]*entity.User, error) {
	byRole := make(map[entity.Role]*entity.User)

	for _, u := range users {
		hash, err := auth.HashPassword(u.password, cost)
		if err != nil {
			return nil, err
		}

		user := &entity.User{Name: u.name, Email: u.email, PasswordHash: hash, Role: u.role, Phone: u.phone}
		err = repo.Create(ctx, user)
		if errors.Is(err, entity.ErrUserAlreadyExists) {
			user, err = repo.GetByEmail(ctx, u.email)
		}
		if err != nil {
			return nil, err
		}

		if _, ok := byRole[user.Role]; !ok {
			byRole[user.Role] = user
		}
		logrus.WithFields(logrus.Fields{"email": user.Email, "role": user.Role}).Info("User ready")
	}
	return byRole, nil
}
