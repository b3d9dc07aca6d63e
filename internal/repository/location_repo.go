package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"valetbay/internal/db"
)

// LocationStore reads and administers locations. The booking core only reads;
// writes come from the admin surface.
type LocationStore interface {
	GetByID(id int) (*db.Location, error)
	ListActive() ([]db.Location, error)
	Create(l *db.Location) error
	Update(l *db.Location) error
	SetActive(id int, active bool) (bool, error)
}

type locationRepository struct {
	db *sql.DB
}

func NewLocationRepository(database *sql.DB) LocationStore {
	return &locationRepository{db: database}
}

const locationColumns = `id, name, address, latitude, longitude, hourly_rate_cents, is_active, created_at, updated_at`

func (r *locationRepository) GetByID(id int) (*db.Location, error) {
	var l db.Location
	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(
		&l.ID, &l.Name, &l.Address, &l.Latitude, &l.Longitude, &l.HourlyRateCents,
		&l.IsActive, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying location %d: %w", id, err)
	}
	return &l, nil
}

func (r *locationRepository) ListActive() ([]db.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE is_active = TRUE ORDER BY name`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error listing locations: %w", err)
	}
	defer rows.Close()

	var locations []db.Location
	for rows.Next() {
		var l db.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Address, &l.Latitude, &l.Longitude, &l.HourlyRateCents, &l.IsActive, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning location: %w", err)
		}
		locations = append(locations, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating location rows: %w", err)
	}
	return locations, nil
}

func (r *locationRepository) Create(l *db.Location) error {
	query := `
		INSERT INTO locations (name, address, latitude, longitude, hourly_rate_cents, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query, l.Name, l.Address, l.Latitude, l.Longitude, l.HourlyRateCents, l.IsActive).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating location: %w", err)
	}
	return nil
}

func (r *locationRepository) Update(l *db.Location) error {
	query := `
		UPDATE locations
		SET name = $1, address = $2, latitude = $3, longitude = $4, hourly_rate_cents = $5, is_active = $6, updated_at = NOW()
		WHERE id = $7`
	result, err := r.db.Exec(query, l.Name, l.Address, l.Latitude, l.Longitude, l.HourlyRateCents, l.IsActive, l.ID)
	if err != nil {
		return fmt.Errorf("error updating location %d: %w", l.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("location %d not found", l.ID)
	}
	return nil
}

func (r *locationRepository) SetActive(id int, active bool) (bool, error) {
	result, err := r.db.Exec(`UPDATE locations SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return false, fmt.Errorf("error toggling location %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
