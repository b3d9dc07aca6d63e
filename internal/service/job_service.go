package service

import (
	"fmt"
	"log"
	"time"

	"valetbay/internal/repository"
)

type JobService struct {
	Repo      repository.JobStore
	Locations repository.LocationStore
	Sender    *SenderService
}

func NewJobService(repo repository.JobStore, locations repository.LocationStore, sender *SenderService) *JobService {
	return &JobService{Repo: repo, Locations: locations, Sender: sender}
}

// ExpireStalePendingBookings cancels bookings that were never confirmed and
// whose start time has passed, freeing the interval for others.
func (s *JobService) ExpireStalePendingBookings() error {
	log.Println("Cron Job: checking for stale PENDING bookings...")

	ids, err := s.Repo.GetPendingIDsPastStartTime(time.Now().UTC())
	if err != nil {
		return fmt.Errorf("cron job: failed to get stale pending bookings: %w", err)
	}
	if len(ids) == 0 {
		log.Println("Cron Job: no stale PENDING bookings found.")
		return nil
	}

	cancelled, err := s.Repo.CancelPendingBookings(ids)
	if err != nil {
		return fmt.Errorf("cron job: failed to cancel stale bookings: %w", err)
	}
	log.Printf("Cron Job: cancelled %d stale PENDING bookings. IDs: %v", cancelled, ids)
	return nil
}

// SendUpcomingReminders notifies confirmed bookings starting within the next
// 24 hours.
func (s *JobService) SendUpcomingReminders() error {
	now := time.Now().UTC()
	bookings, err := s.Repo.GetBookingsStartingBetween(now, now.Add(24*time.Hour))
	if err != nil {
		return fmt.Errorf("cron job: failed to get upcoming bookings: %w", err)
	}

	for i := range bookings {
		booking := &bookings[i]
		location, err := s.Locations.GetByID(booking.LocationID)
		if err != nil || location == nil {
			log.Printf("Cron Job: could not load location %d for reminder: %v", booking.LocationID, err)
			continue
		}
		s.Sender.BookingReminder(booking, location)
	}
	if len(bookings) > 0 {
		log.Printf("Cron Job: sent %d booking reminders.", len(bookings))
	}
	return nil
}
