package service

import (
	"strings"
	"sync"
	"testing"
	"time"

	"valetbay/internal/db"
	apperrors "valetbay/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingFixture struct {
	bookings     *fakeBookingStore
	locations    *fakeLocationStore
	notifier     *fakeNotifier
	svc          *BookingService
	availability *AvailabilityService
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	bookings := newFakeBookingStore()
	locations := newFakeLocationStore()
	require.NoError(t, locations.Create(&db.Location{Name: "Central Garage", HourlyRateCents: 500, IsActive: true}))
	schedules := NewScheduleService(newFakeScheduleStore(), locations, nil)
	_, err := schedules.Upsert(1, 1, "09:00", "18:00", true) // Mondays
	require.NoError(t, err)

	notifier := &fakeNotifier{}
	return &bookingFixture{
		bookings:     bookings,
		locations:    locations,
		notifier:     notifier,
		svc:          NewBookingService(bookings, locations, schedules, notifier, nil),
		availability: NewAvailabilityService(bookings, locations, schedules, nil),
	}
}

func (f *bookingFixture) request(startHour, endHour int) CreateBookingRequest {
	return CreateBookingRequest{
		RequesterID: "u-alice",
		LocationID:  1,
		StartTime:   monday.Add(time.Duration(startHour) * time.Hour),
		EndTime:     monday.Add(time.Duration(endHour) * time.Hour),
	}
}

func TestCreateBooking(t *testing.T) {
	f := newBookingFixture(t)

	booking, err := f.svc.CreateBooking(f.request(10, 11))
	require.NoError(t, err)
	assert.Equal(t, db.StatusPending, booking.Status)
	assert.Equal(t, 500, booking.PriceCents)
	assert.Equal(t, "u-alice", booking.RequesterID)
	assert.Equal(t, []int{booking.ID}, f.notifier.created)
}

func TestCreateBookingPricesPartialHours(t *testing.T) {
	f := newBookingFixture(t)

	req := f.request(10, 11)
	req.EndTime = monday.Add(11*time.Hour + 30*time.Minute)
	booking, err := f.svc.CreateBooking(req)
	require.NoError(t, err)
	assert.Equal(t, 1000, booking.PriceCents, "90 minutes bill as two full hours")
}

func TestCreateBookingValidation(t *testing.T) {
	f := newBookingFixture(t)

	// Non-chronological interval.
	req := f.request(11, 10)
	_, err := f.svc.CreateBooking(req)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// Zero-length interval.
	req = f.request(10, 10)
	_, err = f.svc.CreateBooking(req)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// Unknown location.
	req = f.request(10, 11)
	req.LocationID = 42
	_, err = f.svc.CreateBooking(req)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	// No requester and no guest contact.
	req = f.request(10, 11)
	req.RequesterID = ""
	_, err = f.svc.CreateBooking(req)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// Outside the operating window.
	req = f.request(7, 8)
	_, err = f.svc.CreateBooking(req)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// Closed day (no Tuesday schedule).
	req = f.request(10, 11)
	req.StartTime = req.StartTime.AddDate(0, 0, 1)
	req.EndTime = req.EndTime.AddDate(0, 0, 1)
	_, err = f.svc.CreateBooking(req)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestCreateBookingInactiveLocation(t *testing.T) {
	f := newBookingFixture(t)
	_, err := f.locations.SetActive(1, false)
	require.NoError(t, err)

	_, err = f.svc.CreateBooking(f.request(10, 11))
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestCreateBookingConflict(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.svc.CreateBooking(f.request(10, 12))
	require.NoError(t, err)

	// Identical, fully contained, and straddling intervals all conflict.
	for _, hours := range [][2]int{{10, 12}, {10, 11}, {11, 13}, {9, 11}} {
		_, err := f.svc.CreateBooking(f.request(hours[0], hours[1]))
		assert.True(t, apperrors.IsKind(err, apperrors.KindConflict), "interval %v should conflict", hours)
	}

	// Half-open intervals: back-to-back bookings touch but do not overlap.
	_, err = f.svc.CreateBooking(f.request(12, 13))
	assert.NoError(t, err)
	_, err = f.svc.CreateBooking(f.request(9, 10))
	assert.NoError(t, err)
}

func TestCreateBookingCancelledSlotReusable(t *testing.T) {
	f := newBookingFixture(t)

	booking, err := f.svc.CreateBooking(f.request(10, 11))
	require.NoError(t, err)
	_, err = f.svc.Cancel(booking.ID, "u-alice", db.RoleCustomer)
	require.NoError(t, err)

	_, err = f.svc.CreateBooking(f.request(10, 11))
	assert.NoError(t, err, "a cancelled booking frees its interval")
}

func TestConcurrentReserveOnlyOneWins(t *testing.T) {
	f := newBookingFixture(t)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CreateBooking(f.request(10, 11))
		}(i)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case apperrors.IsKind(err, apperrors.KindConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
}

func TestConcurrentReserveDifferentLocationsBothWin(t *testing.T) {
	f := newBookingFixture(t)
	require.NoError(t, f.locations.Create(&db.Location{Name: "Harbor Garage", HourlyRateCents: 700, IsActive: true}))
	_, err := f.svc.Schedules.Upsert(2, 1, "09:00", "18:00", true)
	require.NoError(t, err)

	// Reserves only contend within a location: the same interval at two
	// locations books independently.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := f.request(10, 11)
			req.LocationID = i + 1
			_, errs[i] = f.svc.CreateBooking(req)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "location %d", i+1)
	}
}

func TestBookingExcludedFromAvailability(t *testing.T) {
	f := newBookingFixture(t)

	booking, err := f.svc.CreateBooking(f.request(10, 11))
	require.NoError(t, err)

	slots, err := f.availability.GetAvailability(1, monday, 60)
	require.NoError(t, err)
	starts := slotStarts(slots)
	assert.NotContains(t, starts, booking.StartTime)
	assert.Contains(t, starts, monday.Add(9*time.Hour))
	assert.Contains(t, starts, monday.Add(11*time.Hour))
}

func TestUpdateStatusLifecycle(t *testing.T) {
	f := newBookingFixture(t)
	booking, err := f.svc.CreateBooking(f.request(10, 11))
	require.NoError(t, err)

	// Unknown target status leaves the booking untouched.
	_, err = f.svc.UpdateStatus(booking.ID, "NOT_A_STATUS", "admin-1", db.RoleAdmin)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	stored, _ := f.bookings.GetByID(booking.ID)
	assert.Equal(t, db.StatusPending, stored.Status)

	// Unknown booking.
	_, err = f.svc.UpdateStatus(999, "CONFIRMED", "admin-1", db.RoleAdmin)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	// PENDING -> CONFIRMED requires ADMIN; a VALET gets Forbidden, never
	// InvalidState.
	_, err = f.svc.UpdateStatus(booking.ID, "CONFIRMED", "valet-1", db.RoleValet)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	updated, err := f.svc.UpdateStatus(booking.ID, "CONFIRMED", "admin-1", db.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, db.StatusConfirmed, updated.Status)

	// PENDING-only transitions are now stale.
	_, err = f.svc.UpdateStatus(booking.ID, "CONFIRMED", "admin-1", db.RoleAdmin)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))

	// CONFIRMED -> IN_PROGRESS is valet work.
	updated, err = f.svc.UpdateStatus(booking.ID, "IN_PROGRESS", "valet-1", db.RoleValet)
	require.NoError(t, err)
	assert.Equal(t, db.StatusInProgress, updated.Status)

	// IN_PROGRESS -> COMPLETED is ADMIN only.
	_, err = f.svc.UpdateStatus(booking.ID, "COMPLETED", "valet-1", db.RoleValet)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
	updated, err = f.svc.UpdateStatus(booking.ID, "COMPLETED", "admin-1", db.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, db.StatusCompleted, updated.Status)

	// Terminal: every further mutation fails and the status sticks.
	_, err = f.svc.UpdateStatus(booking.ID, "CONFIRMED", "admin-1", db.RoleAdmin)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
	_, err = f.svc.Cancel(booking.ID, "admin-1", db.RoleAdmin)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
	assert.Contains(t, err.Error(), "cannot be cancelled")
	stored, _ = f.bookings.GetByID(booking.ID)
	assert.Equal(t, db.StatusCompleted, stored.Status)
}

func TestCancelOwnership(t *testing.T) {
	f := newBookingFixture(t)
	booking, err := f.svc.CreateBooking(f.request(10, 11))
	require.NoError(t, err)

	// Another customer may not cancel someone else's booking.
	_, err = f.svc.Cancel(booking.ID, "u-mallory", db.RoleCustomer)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	// A valet may not cancel at all.
	_, err = f.svc.Cancel(booking.ID, "valet-1", db.RoleValet)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	// The owner cancels; a second cancel is a stale terminal mutation.
	cancelled, err := f.svc.Cancel(booking.ID, "u-alice", db.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, db.StatusCancelled, cancelled.Status)

	_, err = f.svc.Cancel(booking.ID, "u-alice", db.RoleCustomer)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
	assert.Contains(t, err.Error(), "cannot be cancelled")
}

func TestAdminCancelsAnyActiveStatus(t *testing.T) {
	f := newBookingFixture(t)

	for _, setup := range []func(id int){
		func(id int) {},
		func(id int) {
			_, err := f.svc.UpdateStatus(id, "CONFIRMED", "admin-1", db.RoleAdmin)
			require.NoError(t, err)
		},
		func(id int) {
			_, err := f.svc.UpdateStatus(id, "CONFIRMED", "admin-1", db.RoleAdmin)
			require.NoError(t, err)
			_, err = f.svc.UpdateStatus(id, "IN_PROGRESS", "admin-1", db.RoleAdmin)
			require.NoError(t, err)
		},
	} {
		booking, err := f.svc.CreateBooking(f.request(10, 11))
		require.NoError(t, err)
		setup(booking.ID)

		cancelled, err := f.svc.Cancel(booking.ID, "admin-1", db.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, db.StatusCancelled, cancelled.Status)
	}
}

func TestConcurrentTransitionsExactlyOneWins(t *testing.T) {
	f := newBookingFixture(t)
	booking, err := f.svc.CreateBooking(f.request(10, 11))
	require.NoError(t, err)

	// A customer cancel racing an admin confirm: whichever commits first
	// wins, the loser observes a stale source state.
	var wg sync.WaitGroup
	var cancelErr, confirmErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, cancelErr = f.svc.Cancel(booking.ID, "u-alice", db.RoleCustomer)
	}()
	go func() {
		defer wg.Done()
		_, confirmErr = f.svc.UpdateStatus(booking.ID, "CONFIRMED", "admin-1", db.RoleAdmin)
	}()
	wg.Wait()

	stored, _ := f.bookings.GetByID(booking.ID)
	if cancelErr == nil && confirmErr == nil {
		// Both may legitimately succeed when the confirm lands first and the
		// cancel then runs from CONFIRMED.
		assert.Equal(t, db.StatusCancelled, stored.Status)
		return
	}
	if cancelErr != nil {
		assert.True(t, apperrors.IsKind(cancelErr, apperrors.KindInvalidState))
		assert.Equal(t, db.StatusConfirmed, stored.Status)
	}
	if confirmErr != nil {
		assert.True(t, apperrors.IsKind(confirmErr, apperrors.KindInvalidState))
		assert.Equal(t, db.StatusCancelled, stored.Status)
	}
}

func TestGuestBooking(t *testing.T) {
	f := newBookingFixture(t)

	req := f.request(10, 11)
	req.RequesterID = ""
	req.GuestName = "Bob"
	req.GuestEmail = "bob@example.com"
	booking, err := f.svc.CreateBooking(req)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(booking.RequesterID, "guest-"))

	// The cancel code gates guest cancellation.
	_, err = f.svc.Cancel(booking.ID, "guest-WRONG", db.RoleCustomer)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	cancelled, err := f.svc.Cancel(booking.ID, booking.RequesterID, db.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, db.StatusCancelled, cancelled.Status)
}

func TestGetBookingVisibility(t *testing.T) {
	f := newBookingFixture(t)
	booking, err := f.svc.CreateBooking(f.request(10, 11))
	require.NoError(t, err)

	_, err = f.svc.GetBooking(booking.ID, "u-alice", db.RoleCustomer)
	assert.NoError(t, err)
	_, err = f.svc.GetBooking(booking.ID, "valet-1", db.RoleValet)
	assert.NoError(t, err)
	_, err = f.svc.GetBooking(booking.ID, "u-mallory", db.RoleCustomer)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
	_, err = f.svc.GetBooking(999, "u-alice", db.RoleCustomer)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestListBookingsRejectsUnknownStatusFilter(t *testing.T) {
	f := newBookingFixture(t)
	_, err := f.svc.ListBookings("", 0, "NOT_A_STATUS")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestNoTwoActiveBookingsOverlap(t *testing.T) {
	f := newBookingFixture(t)

	// Hammer the ledger with racing, partially overlapping requests, then
	// check the global invariant over whatever survived.
	intervals := [][2]int{{9, 10}, {9, 11}, {10, 11}, {10, 12}, {11, 13}, {12, 14}, {13, 14}, {9, 12}}
	var wg sync.WaitGroup
	for _, iv := range intervals {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			f.svc.CreateBooking(f.request(start, end))
		}(iv[0], iv[1])
	}
	wg.Wait()

	active, err := f.bookings.ListActiveInRange(1, monday, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.NotEmpty(t, active)
	for i := range active {
		for j := i + 1; j < len(active); j++ {
			a, b := active[i], active[j]
			assert.False(t, a.StartTime.Before(b.EndTime) && b.StartTime.Before(a.EndTime),
				"bookings %d and %d overlap", a.ID, b.ID)
		}
	}
}
