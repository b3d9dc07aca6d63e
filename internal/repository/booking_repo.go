package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"valetbay/internal/db"

	"github.com/lib/pq"
)

const bookingColumns = `id, requester_id, guest_name, guest_email, guest_phone, location_id,
	start_time, end_time, status, price_cents, notes, payment_status, stripe_session_id,
	created_at, updated_at`

// BookingStore is the ledger of bookings. CreateIfFree and UpdateStatusIfCurrent
// are the two operations that must be atomic at the storage boundary: the first
// is a conditional insert that only commits when no active booking at the same
// location overlaps the candidate interval, the second is a compare-and-set on
// the current status.
type BookingStore interface {
	CreateIfFree(b *db.Booking) (bool, error)
	GetByID(id int) (*db.Booking, error)
	ListActiveInRange(locationID int, from, to time.Time) ([]db.Booking, error)
	UpdateStatusIfCurrent(id int, from, to db.BookingStatus) (*db.Booking, error)
	List(date string, locationID int, status string) ([]db.Booking, error)
	ListByRequester(requesterID string) ([]db.Booking, error)
	SetStripeSession(id int, sessionID, paymentStatus string) error
	UpdatePaymentStatusBySession(sessionID, paymentStatus string) (*db.Booking, error)
}

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(database *sql.DB) BookingStore {
	return &bookingRepository{db: database}
}

// reserveLockClass namespaces the advisory locks CreateIfFree takes so they
// cannot collide with advisory locks other features might use.
const reserveLockClass = 0x626179 // "bay"

// CreateIfFree inserts the booking only when no active booking at the same
// location overlaps [b.StartTime, b.EndTime). Under READ COMMITTED two
// concurrent NOT EXISTS checks would each miss the other's uncommitted row,
// so the check and insert run inside a transaction holding a per-location
// advisory lock: reserves for one location serialize, reserves for different
// locations do not contend. Returns false when the interval was already
// taken.
func (r *bookingRepository) CreateIfFree(b *db.Booking) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("error starting reserve transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`SELECT pg_advisory_xact_lock($1, $2)`, reserveLockClass, b.LocationID); err != nil {
		return false, fmt.Errorf("error locking location %d for reserve: %w", b.LocationID, err)
	}

	query := `
		INSERT INTO bookings
			(requester_id, guest_name, guest_email, guest_phone, location_id,
			 start_time, end_time, status, price_cents, notes, payment_status,
			 created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW()
		WHERE NOT EXISTS (
			SELECT 1 FROM bookings
			WHERE location_id = $5
			  AND status = ANY($12)
			  AND start_time < $7
			  AND end_time > $6
		)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRow(query,
		b.RequesterID,
		b.GuestName,
		b.GuestEmail,
		b.GuestPhone,
		b.LocationID,
		b.StartTime,
		b.EndTime,
		string(b.Status),
		b.PriceCents,
		b.Notes,
		b.PaymentStatus,
		pq.Array(db.ActiveStatuses()),
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("error inserting booking: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("error committing booking insert: %w", err)
	}
	return true, nil
}

func (r *bookingRepository) GetByID(id int) (*db.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying booking %d: %w", id, err)
	}
	return b, nil
}

// ListActiveInRange returns the active-status bookings at a location whose
// interval intersects [from, to), ordered by start time.
func (r *bookingRepository) ListActiveInRange(locationID int, from, to time.Time) ([]db.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE location_id = $1
		  AND status = ANY($2)
		  AND start_time < $4
		  AND end_time > $3
		ORDER BY start_time`

	rows, err := r.db.Query(query, locationID, pq.Array(db.ActiveStatuses()), from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying active bookings: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

// UpdateStatusIfCurrent commits the new status only if the stored status still
// equals from. Returns (nil, nil) when the row exists but its status moved on,
// so a racing transition surfaces as a stale source state instead of a blind
// overwrite.
func (r *bookingRepository) UpdateStatusIfCurrent(id int, from, to db.BookingStatus) (*db.Booking, error) {
	query := `
		UPDATE bookings SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING ` + bookingColumns

	b, err := scanBooking(r.db.QueryRow(query, string(to), id, string(from)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error updating booking %d status: %w", id, err)
	}
	return b, nil
}

func (r *bookingRepository) List(date string, locationID int, status string) ([]db.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	args := []interface{}{}
	if date != "" {
		args = append(args, date)
		query += fmt.Sprintf(" AND start_time::date = $%d", len(args))
	}
	if locationID != 0 {
		args = append(args, locationID)
		query += fmt.Sprintf(" AND location_id = $%d", len(args))
	}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY start_time"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *bookingRepository) ListByRequester(requesterID string) ([]db.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE requester_id = $1 ORDER BY start_time DESC`
	rows, err := r.db.Query(query, requesterID)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings for requester: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *bookingRepository) SetStripeSession(id int, sessionID, paymentStatus string) error {
	query := `UPDATE bookings SET stripe_session_id = $1, payment_status = $2, updated_at = NOW() WHERE id = $3`
	_, err := r.db.Exec(query, sessionID, paymentStatus, id)
	if err != nil {
		return fmt.Errorf("error storing stripe session for booking %d: %w", id, err)
	}
	return nil
}

func (r *bookingRepository) UpdatePaymentStatusBySession(sessionID, paymentStatus string) (*db.Booking, error) {
	query := `
		UPDATE bookings SET payment_status = $1, updated_at = NOW()
		WHERE stripe_session_id = $2
		RETURNING ` + bookingColumns

	b, err := scanBooking(r.db.QueryRow(query, paymentStatus, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error updating payment status for session %s: %w", sessionID, err)
	}
	return b, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*db.Booking, error) {
	var b db.Booking
	var status string
	err := row.Scan(
		&b.ID, &b.RequesterID, &b.GuestName, &b.GuestEmail, &b.GuestPhone, &b.LocationID,
		&b.StartTime, &b.EndTime, &status, &b.PriceCents, &b.Notes, &b.PaymentStatus,
		&b.StripeSessionID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Status = db.BookingStatus(status)
	return &b, nil
}

func collectBookings(rows *sql.Rows) ([]db.Booking, error) {
	var bookings []db.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating booking rows: %w", err)
	}
	return bookings, nil
}
