package service

import (
	"sync"
	"time"

	"valetbay/internal/db"
)

// fakeBookingStore is an in-memory BookingStore. CreateIfFree and
// UpdateStatusIfCurrent hold the mutex across check and write, matching the
// atomicity contract the real Postgres statements provide.
type fakeBookingStore struct {
	mu       sync.Mutex
	nextID   int
	bookings map[int]*db.Booking
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{nextID: 1, bookings: make(map[int]*db.Booking)}
}

func (f *fakeBookingStore) CreateIfFree(b *db.Booking) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.bookings {
		if existing.LocationID == b.LocationID &&
			existing.Status.IsActive() &&
			existing.StartTime.Before(b.EndTime) && b.StartTime.Before(existing.EndTime) {
			return false, nil
		}
	}
	b.ID = f.nextID
	f.nextID++
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	clone := *b
	f.bookings[b.ID] = &clone
	return true, nil
}

func (f *fakeBookingStore) GetByID(id int) (*db.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	clone := *b
	return &clone, nil
}

func (f *fakeBookingStore) ListActiveInRange(locationID int, from, to time.Time) ([]db.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Booking
	for _, b := range f.bookings {
		if b.LocationID == locationID && b.Status.IsActive() &&
			b.StartTime.Before(to) && from.Before(b.EndTime) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) UpdateStatusIfCurrent(id int, from, to db.BookingStatus) (*db.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.Status != from {
		return nil, nil
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	clone := *b
	return &clone, nil
}

func (f *fakeBookingStore) List(date string, locationID int, status string) ([]db.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Booking
	for _, b := range f.bookings {
		if locationID != 0 && b.LocationID != locationID {
			continue
		}
		if status != "" && string(b.Status) != status {
			continue
		}
		if date != "" && b.StartTime.Format("2006-01-02") != date {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeBookingStore) ListByRequester(requesterID string) ([]db.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Booking
	for _, b := range f.bookings {
		if b.RequesterID == requesterID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) SetStripeSession(id int, sessionID, paymentStatus string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.bookings[id]; ok {
		b.StripeSessionID = sessionID
		b.PaymentStatus = paymentStatus
	}
	return nil
}

func (f *fakeBookingStore) UpdatePaymentStatusBySession(sessionID, paymentStatus string) (*db.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.StripeSessionID == sessionID {
			b.PaymentStatus = paymentStatus
			clone := *b
			return &clone, nil
		}
	}
	return nil, nil
}

type fakeLocationStore struct {
	mu        sync.Mutex
	nextID    int
	locations map[int]*db.Location
}

func newFakeLocationStore() *fakeLocationStore {
	return &fakeLocationStore{nextID: 1, locations: make(map[int]*db.Location)}
}

func (f *fakeLocationStore) GetByID(id int) (*db.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locations[id]
	if !ok {
		return nil, nil
	}
	clone := *l
	return &clone, nil
}

func (f *fakeLocationStore) ListActive() ([]db.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Location
	for _, l := range f.locations {
		if l.IsActive {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeLocationStore) Create(l *db.Location) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l.ID = f.nextID
	f.nextID++
	clone := *l
	f.locations[l.ID] = &clone
	return nil
}

func (f *fakeLocationStore) Update(l *db.Location) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *l
	f.locations[l.ID] = &clone
	return nil
}

func (f *fakeLocationStore) SetActive(id int, active bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locations[id]
	if !ok {
		return false, nil
	}
	l.IsActive = active
	return true, nil
}

type scheduleKey struct {
	locationID int
	dayOfWeek  int
}

type fakeScheduleStore struct {
	mu        sync.Mutex
	schedules map[scheduleKey]*db.Schedule
}

func newFakeScheduleStore() *fakeScheduleStore {
	return &fakeScheduleStore{schedules: make(map[scheduleKey]*db.Schedule)}
}

func (f *fakeScheduleStore) Upsert(s *db.Schedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *s
	f.schedules[scheduleKey{s.LocationID, s.DayOfWeek}] = &clone
	return nil
}

func (f *fakeScheduleStore) FindForLocationAndDay(locationID, dayOfWeek int, activeOnly bool) (*db.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[scheduleKey{locationID, dayOfWeek}]
	if !ok || (activeOnly && !s.IsActive) {
		return nil, nil
	}
	clone := *s
	return &clone, nil
}

func (f *fakeScheduleStore) ListForLocation(locationID int) ([]db.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Schedule
	for _, s := range f.schedules {
		if s.LocationID == locationID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeScheduleStore) Delete(locationID, dayOfWeek int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := scheduleKey{locationID, dayOfWeek}
	if _, ok := f.schedules[key]; !ok {
		return false, nil
	}
	delete(f.schedules, key)
	return true, nil
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*db.User // keyed by email
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*db.User)}
}

func (f *fakeUserStore) GetByEmail(email string) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserStore) GetByID(id string) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) Create(u *db.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.CreatedAt = time.Now().UTC()
	clone := *u
	f.users[u.Email] = &clone
	return nil
}

// fakeNotifier records notifications synchronously.
type fakeNotifier struct {
	mu      sync.Mutex
	created []int
	changed []int
}

func (f *fakeNotifier) BookingCreated(b *db.Booking, _ *db.Location) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, b.ID)
}

func (f *fakeNotifier) BookingStatusChanged(b *db.Booking, _ *db.Location) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changed = append(f.changed, b.ID)
}
