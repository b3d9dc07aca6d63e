package service

import (
	"fmt"
	"log"
	"time"

	"valetbay/internal/db"
	apperrors "valetbay/internal/errors"
	"valetbay/internal/repository"
)

// BookingNotifier receives lifecycle events for out-of-band delivery (email,
// SMS). Implementations must not fail the calling request.
type BookingNotifier interface {
	BookingCreated(booking *db.Booking, location *db.Location)
	BookingStatusChanged(booking *db.Booking, location *db.Location)
}

// CreateBookingRequest is the service-level input for a new booking. Either
// RequesterID (an authenticated user) or the guest fields must be set.
type CreateBookingRequest struct {
	RequesterID string
	GuestName   string
	GuestEmail  string
	GuestPhone  string
	LocationID  int
	StartTime   time.Time
	EndTime     time.Time
	Notes       string
}

// BookingService is the booking ledger and lifecycle in one place: it owns the
// reserve path (conflict-free interval booking) and the role-gated status
// state machine.
type BookingService struct {
	Bookings  repository.BookingStore
	Locations repository.LocationStore
	Schedules *ScheduleService
	Notifier  BookingNotifier
	Cache     *AvailabilityCache

	// Payments, when set, refunds paid bookings after a cancellation
	// commits. Payment state never gates a transition.
	Payments *PaymentService
}

func NewBookingService(bookings repository.BookingStore, locations repository.LocationStore, schedules *ScheduleService, notifier BookingNotifier, cache *AvailabilityCache) *BookingService {
	return &BookingService{
		Bookings:  bookings,
		Locations: locations,
		Schedules: schedules,
		Notifier:  notifier,
		Cache:     cache,
	}
}

// CreateBooking validates the candidate interval, prices it, and hands it to
// the ledger's atomic conditional insert. The overlap check and the insert are
// one storage operation, so two concurrent calls for overlapping intervals
// can never both succeed.
func (s *BookingService) CreateBooking(req CreateBookingRequest) (*db.Booking, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, apperrors.Validation("end_time must be after start_time")
	}
	if req.RequesterID == "" && req.GuestEmail == "" {
		return nil, apperrors.Validation("an authenticated requester or guest contact details are required")
	}

	location, err := s.Locations.GetByID(req.LocationID)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, apperrors.NotFound(fmt.Sprintf("location %d not found", req.LocationID))
	}
	if !location.IsActive {
		return nil, apperrors.Validation("location is not available for bookings")
	}

	if err := s.checkWithinOperatingWindow(req.LocationID, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	requesterID := req.RequesterID
	if requesterID == "" {
		// Guest bookings get a cancel code in place of a user id; it is
		// emailed to the guest and doubles as their ownership proof.
		requesterID = fmt.Sprintf("guest-%08X", time.Now().UnixNano()%0x100000000)
	}

	booking := &db.Booking{
		RequesterID:   requesterID,
		GuestName:     req.GuestName,
		GuestEmail:    req.GuestEmail,
		GuestPhone:    req.GuestPhone,
		LocationID:    req.LocationID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Status:        db.StatusPending,
		PriceCents:    QuotePriceCents(req.StartTime, req.EndTime, location.HourlyRateCents),
		Notes:         req.Notes,
		PaymentStatus: paymentStatusUnpaid,
	}

	created, err := s.Bookings.CreateIfFree(booking)
	if err != nil {
		log.Printf("Error creating booking in repository: %v", err)
		return nil, err
	}
	if !created {
		return nil, apperrors.Conflict("requested interval overlaps an existing booking")
	}

	s.invalidateAvailability(booking)
	if s.Notifier != nil {
		s.Notifier.BookingCreated(booking, location)
	}
	return booking, nil
}

// UpdateStatus drives a booking through the lifecycle. The transition table
// decides which targets are legal from the current status and which roles may
// trigger them; the commit itself is a compare-and-set on the current status,
// so a racing transition loses with InvalidStateError instead of clobbering
// the winner.
func (s *BookingService) UpdateStatus(bookingID int, newStatus, requesterID string, role db.Role) (*db.Booking, error) {
	target, err := db.ParseBookingStatus(newStatus)
	if err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("unknown status %q", newStatus))
	}

	booking, err := s.Bookings.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, apperrors.NotFound(fmt.Sprintf("booking %d not found", bookingID))
	}

	current := booking.Status
	if current.IsTerminal() {
		return nil, terminalError(current, target)
	}
	if !current.CanTransitionTo(target) {
		return nil, apperrors.InvalidState(fmt.Sprintf("booking cannot move from %s to %s", current, target))
	}
	if !current.RoleMayTransition(target, role) {
		return nil, apperrors.Forbidden(fmt.Sprintf("role %s may not move a booking from %s to %s", role, current, target))
	}
	// Customers may only cancel bookings they own.
	if role == db.RoleCustomer && booking.RequesterID != requesterID {
		return nil, apperrors.Forbidden("only the booking owner may cancel it")
	}

	updated, err := s.Bookings.UpdateStatusIfCurrent(bookingID, current, target)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Another actor committed first; the source state we validated
		// against is stale.
		return nil, apperrors.InvalidState(fmt.Sprintf("booking status is no longer %s", current))
	}

	s.invalidateAvailability(updated)
	if target == db.StatusCancelled && s.Payments != nil {
		s.Payments.RefundBooking(updated)
	}
	if s.Notifier != nil {
		location, err := s.Locations.GetByID(updated.LocationID)
		if err != nil {
			log.Printf("Could not load location %d for notification: %v", updated.LocationID, err)
		} else {
			s.Notifier.BookingStatusChanged(updated, location)
		}
	}
	return updated, nil
}

// Cancel is updateStatus with a CANCELLED target; same table, same role rules.
func (s *BookingService) Cancel(bookingID int, requesterID string, role db.Role) (*db.Booking, error) {
	return s.UpdateStatus(bookingID, string(db.StatusCancelled), requesterID, role)
}

// GetBooking returns the booking when the requester may see it: staff see
// everything, customers only their own.
func (s *BookingService) GetBooking(bookingID int, requesterID string, role db.Role) (*db.Booking, error) {
	booking, err := s.Bookings.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, apperrors.NotFound(fmt.Sprintf("booking %d not found", bookingID))
	}
	if role != db.RoleAdmin && role != db.RoleValet && booking.RequesterID != requesterID {
		return nil, apperrors.Forbidden("not allowed to view this booking")
	}
	return booking, nil
}

func (s *BookingService) ListBookings(date string, locationID int, status string) ([]db.Booking, error) {
	if status != "" {
		if _, err := db.ParseBookingStatus(status); err != nil {
			return nil, apperrors.Validation(fmt.Sprintf("unknown status %q", status))
		}
	}
	return s.Bookings.List(date, locationID, status)
}

func (s *BookingService) ListByRequester(requesterID string) ([]db.Booking, error) {
	return s.Bookings.ListByRequester(requesterID)
}

// checkWithinOperatingWindow rejects intervals the location's weekly schedule
// does not cover. The whole interval must fall inside a single day's window.
func (s *BookingService) checkWithinOperatingWindow(locationID int, start, end time.Time) error {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	schedule, err := s.Schedules.FindForLocationAndDay(locationID, int(day.Weekday()), true)
	if err != nil {
		return err
	}
	if schedule == nil {
		return apperrors.Validation("location is closed on the requested day")
	}

	startMin, err := parseClock(schedule.StartTime)
	if err != nil {
		return apperrors.Validation(fmt.Sprintf("schedule start_time %q is malformed", schedule.StartTime))
	}
	endMin, err := parseClock(schedule.EndTime)
	if err != nil {
		return apperrors.Validation(fmt.Sprintf("schedule end_time %q is malformed", schedule.EndTime))
	}

	windowStart := day.Add(time.Duration(startMin) * time.Minute)
	windowEnd := day.Add(time.Duration(endMin) * time.Minute)
	if start.Before(windowStart) || end.After(windowEnd) {
		return apperrors.Validation(fmt.Sprintf("requested interval is outside the operating window %s-%s", schedule.StartTime, schedule.EndTime))
	}
	return nil
}

func (s *BookingService) invalidateAvailability(booking *db.Booking) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.InvalidateDay(booking.LocationID, booking.StartTime); err != nil {
		log.Printf("Availability cache invalidation failed for location %d: %v", booking.LocationID, err)
	}
}

// terminalError keeps the caller-facing wording specific: cancel attempts on a
// finished booking read differently from other mutations.
func terminalError(current, target db.BookingStatus) error {
	action := "modified"
	if target == db.StatusCancelled {
		action = "cancelled"
	}
	switch current {
	case db.StatusCompleted:
		return apperrors.InvalidState(fmt.Sprintf("Completed bookings cannot be %s", action))
	default:
		return apperrors.InvalidState(fmt.Sprintf("Cancelled bookings cannot be %s", action))
	}
}
