package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"valetbay/internal/db"
)

// ScheduleStore holds the weekly operating windows. Rows are keyed by
// (location_id, day_of_week), so upserting is the only write path and two
// active windows for the same day cannot exist.
type ScheduleStore interface {
	Upsert(s *db.Schedule) error
	FindForLocationAndDay(locationID, dayOfWeek int, activeOnly bool) (*db.Schedule, error)
	ListForLocation(locationID int) ([]db.Schedule, error)
	Delete(locationID, dayOfWeek int) (bool, error)
}

type scheduleRepository struct {
	db *sql.DB
}

func NewScheduleRepository(database *sql.DB) ScheduleStore {
	return &scheduleRepository{db: database}
}

func (r *scheduleRepository) Upsert(s *db.Schedule) error {
	query := `
		INSERT INTO schedules (location_id, day_of_week, start_time, end_time, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (location_id, day_of_week)
		DO UPDATE SET start_time = $3, end_time = $4, is_active = $5, updated_at = NOW()
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(query, s.LocationID, s.DayOfWeek, s.StartTime, s.EndTime, s.IsActive).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error upserting schedule: %w", err)
	}
	return nil
}

func (r *scheduleRepository) FindForLocationAndDay(locationID, dayOfWeek int, activeOnly bool) (*db.Schedule, error) {
	query := `
		SELECT location_id, day_of_week, start_time, end_time, is_active, created_at, updated_at
		FROM schedules
		WHERE location_id = $1 AND day_of_week = $2`
	if activeOnly {
		query += " AND is_active = TRUE"
	}

	var s db.Schedule
	err := r.db.QueryRow(query, locationID, dayOfWeek).Scan(
		&s.LocationID, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying schedule: %w", err)
	}
	return &s, nil
}

func (r *scheduleRepository) ListForLocation(locationID int) ([]db.Schedule, error) {
	query := `
		SELECT location_id, day_of_week, start_time, end_time, is_active, created_at, updated_at
		FROM schedules WHERE location_id = $1 ORDER BY day_of_week`

	rows, err := r.db.Query(query, locationID)
	if err != nil {
		return nil, fmt.Errorf("error listing schedules: %w", err)
	}
	defer rows.Close()

	var schedules []db.Schedule
	for rows.Next() {
		var s db.Schedule
		if err := rows.Scan(&s.LocationID, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating schedule rows: %w", err)
	}
	return schedules, nil
}

func (r *scheduleRepository) Delete(locationID, dayOfWeek int) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM schedules WHERE location_id = $1 AND day_of_week = $2`, locationID, dayOfWeek)
	if err != nil {
		return false, fmt.Errorf("error deleting schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
