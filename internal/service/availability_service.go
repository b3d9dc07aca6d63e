package service

import (
	"fmt"
	"log"
	"time"

	"valetbay/internal/db"
	apperrors "valetbay/internal/errors"
	"valetbay/internal/repository"
)

// SlotStepMinutes is the granularity at which candidate slot starts are
// enumerated inside an operating window.
const SlotStepMinutes = 30

// Slot is a candidate bookable interval. Both bounds are half-open:
// [Start, End).
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AvailabilityService produces free slots by intersecting a location's
// operating window with the requested duration and subtracting the active
// bookings already on the ledger.
type AvailabilityService struct {
	Bookings  repository.BookingStore
	Locations repository.LocationStore
	Schedules *ScheduleService
	Cache     *AvailabilityCache
}

func NewAvailabilityService(bookings repository.BookingStore, locations repository.LocationStore, schedules *ScheduleService, cache *AvailabilityCache) *AvailabilityService {
	return &AvailabilityService{
		Bookings:  bookings,
		Locations: locations,
		Schedules: schedules,
		Cache:     cache,
	}
}

// GetAvailability returns the free slots of the given duration on the given
// calendar day, in chronological order. A day with no active window, or an
// inactive location, yields an empty list rather than an error.
func (s *AvailabilityService) GetAvailability(locationID int, date time.Time, durationMinutes int) ([]Slot, error) {
	if durationMinutes <= 0 {
		return nil, apperrors.Validation("duration_minutes must be positive")
	}

	location, err := s.Locations.GetByID(locationID)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, apperrors.NotFound(fmt.Sprintf("location %d not found", locationID))
	}
	if !location.IsActive {
		return []Slot{}, nil
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	cacheKey := availabilityKey(locationID, day, durationMinutes)
	if s.Cache != nil {
		var cached []Slot
		hit, err := s.Cache.Get(cacheKey, &cached)
		if err != nil {
			log.Printf("Availability cache read failed, falling back to DB: %v", err)
		} else if hit {
			return cached, nil
		}
	}

	schedule, err := s.Schedules.FindForLocationAndDay(locationID, int(day.Weekday()), true)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return []Slot{}, nil
	}

	startMin, err := parseClock(schedule.StartTime)
	if err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("schedule start_time %q is malformed", schedule.StartTime))
	}
	endMin, err := parseClock(schedule.EndTime)
	if err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("schedule end_time %q is malformed", schedule.EndTime))
	}
	// Windows spanning midnight are unsupported: reject instead of silently
	// truncating.
	if endMin <= startMin {
		return nil, apperrors.Validation("operating window must end after it starts within the same day")
	}

	windowStart := day.Add(time.Duration(startMin) * time.Minute)
	windowEnd := day.Add(time.Duration(endMin) * time.Minute)

	booked, err := s.Bookings.ListActiveInRange(locationID, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(durationMinutes) * time.Minute
	step := SlotStepMinutes * time.Minute

	slots := []Slot{}
	for start := windowStart; !start.Add(duration).After(windowEnd); start = start.Add(step) {
		end := start.Add(duration)
		if !overlapsAny(start, end, booked) {
			slots = append(slots, Slot{Start: start, End: end})
		}
	}

	if s.Cache != nil {
		if err := s.Cache.Set(cacheKey, slots); err != nil {
			log.Printf("Availability cache write failed: %v", err)
		}
	}
	return slots, nil
}

// overlapsAny applies the half-open overlap test against every booking.
func overlapsAny(start, end time.Time, bookings []db.Booking) bool {
	for _, b := range bookings {
		if start.Before(b.EndTime) && b.StartTime.Before(end) {
			return true
		}
	}
	return false
}

func availabilityKey(locationID int, day time.Time, durationMinutes int) string {
	return fmt.Sprintf("availability:%d:%s:%d", locationID, day.Format("2006-01-02"), durationMinutes)
}
