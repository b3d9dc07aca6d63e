package repository

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"valetbay/internal/db"

	"github.com/lib/pq"
)

type JobStore interface {
	GetPendingIDsPastStartTime(now time.Time) ([]int, error)
	CancelPendingBookings(ids []int) (int64, error)
	GetBookingsStartingBetween(from, to time.Time) ([]db.Booking, error)
}

type jobRepository struct {
	db *sql.DB
}

func NewJobRepository(database *sql.DB) JobStore {
	return &jobRepository{db: database}
}

// GetPendingIDsPastStartTime finds bookings still PENDING whose start time has
// already passed (never confirmed, treated as no-shows).
func (r *jobRepository) GetPendingIDsPastStartTime(now time.Time) ([]int, error) {
	query := `SELECT id FROM bookings WHERE status = $1 AND start_time < $2`
	rows, err := r.db.Query(query, string(db.StatusPending), now)
	if err != nil {
		return nil, fmt.Errorf("error querying stale pending bookings: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning booking ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return ids, nil
}

// CancelPendingBookings cancels the given bookings in bulk. The status filter
// in the WHERE clause keeps the update compare-and-set shaped: a booking that
// was confirmed between the read and this write is left alone.
func (r *jobRepository) CancelPendingBookings(ids []int) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = ANY($2) AND status = $3`
	result, err := r.db.Exec(query, string(db.StatusCancelled), pq.Array(ids), string(db.StatusPending))
	if err != nil {
		return 0, fmt.Errorf("error cancelling stale bookings: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		log.Printf("Could not get rows affected: %v", err)
		return 0, nil
	}
	return affected, nil
}

// GetBookingsStartingBetween returns confirmed bookings starting inside the
// window, used for reminder notifications.
func (r *jobRepository) GetBookingsStartingBetween(from, to time.Time) ([]db.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time`

	rows, err := r.db.Query(query, string(db.StatusConfirmed), from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying upcoming bookings: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}
