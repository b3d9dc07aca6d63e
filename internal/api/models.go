package api

import (
	"time"

	"valetbay/internal/db"
)

// Availability
type AvailabilityRequest struct {
	LocationID      int    `json:"location_id"`
	Date            string `json:"date"` // "2006-01-02"
	DurationMinutes int    `json:"duration_minutes"`
}

// Booking
type CreateBookingRequest struct {
	LocationID int       `json:"location_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Notes      string    `json:"notes"`
	GuestName  string    `json:"guest_name"`
	GuestEmail string    `json:"guest_email"`
	GuestPhone string    `json:"guest_phone"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type BookingResponse struct {
	ID            int       `json:"id"`
	RequesterID   string    `json:"requester_id"`
	LocationID    int       `json:"location_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        string    `json:"status"`
	PriceCents    int       `json:"price_cents"`
	Notes         string    `json:"notes,omitempty"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toBookingResponse(b *db.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		RequesterID:   b.RequesterID,
		LocationID:    b.LocationID,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		Status:        string(b.Status),
		PriceCents:    b.PriceCents,
		Notes:         b.Notes,
		PaymentStatus: b.PaymentStatus,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func toBookingResponses(bookings []db.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	return out
}

// Schedules (admin)
type UpsertScheduleRequest struct {
	LocationID int    `json:"location_id"`
	DayOfWeek  int    `json:"day_of_week"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	IsActive   bool   `json:"is_active"`
}

// Locations (admin)
type LocationRequest struct {
	Name            string  `json:"name"`
	Address         string  `json:"address"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	HourlyRateCents int     `json:"hourly_rate_cents"`
	IsActive        bool    `json:"is_active"`
}
