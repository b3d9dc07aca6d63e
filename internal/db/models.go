package db

import "time"

type Location struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	Address         string    `json:"address"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	HourlyRateCents int       `json:"hourly_rate_cents"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Schedule is the weekly operating window for a location. There is at most one
// row per (LocationID, DayOfWeek); the table's primary key enforces it.
type Schedule struct {
	LocationID int       `json:"location_id"`
	DayOfWeek  int       `json:"day_of_week"` // 0=Sunday .. 6=Saturday
	StartTime  string    `json:"start_time"`  // "HH:MM"
	EndTime    string    `json:"end_time"`    // "HH:MM"
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Booking struct {
	ID          int
	RequesterID string // user id, or the guest cancel code for guest bookings
	GuestName   string
	GuestEmail  string
	GuestPhone  string
	LocationID  int
	StartTime   time.Time
	EndTime     time.Time
	Status      BookingStatus
	PriceCents  int
	Notes       string
	// PaymentStatus tracks the payment collaborator only; it never drives the
	// booking status state machine.
	PaymentStatus   string
	StripeSessionID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
