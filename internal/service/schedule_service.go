package service

import (
	"fmt"
	"log"

	"valetbay/internal/db"
	apperrors "valetbay/internal/errors"
	"valetbay/internal/repository"
)

// ScheduleService validates and stores the weekly operating windows and
// answers point-in-time "is open" queries.
type ScheduleService struct {
	Repo      repository.ScheduleStore
	Locations repository.LocationStore
	Cache     *AvailabilityCache
}

func NewScheduleService(repo repository.ScheduleStore, locations repository.LocationStore, cache *AvailabilityCache) *ScheduleService {
	return &ScheduleService{Repo: repo, Locations: locations, Cache: cache}
}

// Upsert creates or replaces the window for (locationID, dayOfWeek). Keying by
// day makes two active windows for the same day unrepresentable, so there is
// never more than one applicable schedule to pick from.
func (s *ScheduleService) Upsert(locationID, dayOfWeek int, startTime, endTime string, isActive bool) (*db.Schedule, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, apperrors.Validation(fmt.Sprintf("day_of_week must be between 0 and 6, got %d", dayOfWeek))
	}
	if _, err := parseClock(startTime); err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("start_time %q is not a valid HH:MM time", startTime))
	}
	if _, err := parseClock(endTime); err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("end_time %q is not a valid HH:MM time", endTime))
	}
	// Fixed-width zero-padded format, so string order is time order.
	if endTime <= startTime {
		return nil, apperrors.Validation("end_time must be after start_time")
	}

	location, err := s.Locations.GetByID(locationID)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, apperrors.NotFound(fmt.Sprintf("location %d not found", locationID))
	}

	schedule := &db.Schedule{
		LocationID: locationID,
		DayOfWeek:  dayOfWeek,
		StartTime:  startTime,
		EndTime:    endTime,
		IsActive:   isActive,
	}
	if err := s.Repo.Upsert(schedule); err != nil {
		return nil, err
	}
	s.invalidateCache(locationID)
	return schedule, nil
}

// IsOpenAt reports whether the schedule covers the given "HH:MM" time of day.
// The opening boundary is inclusive, the closing boundary exclusive. Inactive
// schedules and unparseable inputs both read as closed.
func (s *ScheduleService) IsOpenAt(schedule *db.Schedule, timeOfDay string) bool {
	if schedule == nil || !schedule.IsActive {
		return false
	}
	t, err := parseClock(timeOfDay)
	if err != nil {
		return false
	}
	start, err := parseClock(schedule.StartTime)
	if err != nil {
		return false
	}
	end, err := parseClock(schedule.EndTime)
	if err != nil {
		return false
	}
	return start <= t && t < end
}

// FindForLocationAndDay returns the window for the day, or nil when none
// exists. With activeOnly false it also returns disabled windows, which the
// admin surface uses.
func (s *ScheduleService) FindForLocationAndDay(locationID, dayOfWeek int, activeOnly bool) (*db.Schedule, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, apperrors.Validation(fmt.Sprintf("day_of_week must be between 0 and 6, got %d", dayOfWeek))
	}
	return s.Repo.FindForLocationAndDay(locationID, dayOfWeek, activeOnly)
}

func (s *ScheduleService) ListForLocation(locationID int) ([]db.Schedule, error) {
	return s.Repo.ListForLocation(locationID)
}

func (s *ScheduleService) Delete(locationID, dayOfWeek int) error {
	deleted, err := s.Repo.Delete(locationID, dayOfWeek)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NotFound(fmt.Sprintf("no schedule for location %d on day %d", locationID, dayOfWeek))
	}
	s.invalidateCache(locationID)
	return nil
}

func (s *ScheduleService) invalidateCache(locationID int) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.InvalidateLocation(locationID); err != nil {
		log.Printf("Failed to invalidate availability cache for location %d: %v", locationID, err)
	}
}

// parseClock parses a strict "HH:MM" string into minutes since midnight.
// Exactly two digits, a colon, two digits; no signs or spaces.
func parseClock(clock string) (int, error) {
	if len(clock) != 5 || clock[2] != ':' {
		return 0, fmt.Errorf("time %q is not in HH:MM format", clock)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if clock[i] < '0' || clock[i] > '9' {
			return 0, fmt.Errorf("time %q is not in HH:MM format", clock)
		}
	}
	hour := int(clock[0]-'0')*10 + int(clock[1]-'0')
	minute := int(clock[3]-'0')*10 + int(clock[4]-'0')
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("time %q is out of range", clock)
	}
	return hour*60 + minute, nil
}
