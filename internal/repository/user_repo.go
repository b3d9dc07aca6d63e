package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"valetbay/internal/db"
)

type UserStore interface {
	GetByEmail(email string) (*db.User, error)
	GetByID(id string) (*db.User, error)
	Create(u *db.User) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(database *sql.DB) UserStore {
	return &userRepository{db: database}
}

func (r *userRepository) GetByEmail(email string) (*db.User, error) {
	var u db.User
	var role string
	err := r.db.QueryRow(
		`SELECT id, name, email, phone, password_hash, role, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying user by email: %w", err)
	}
	u.Role = db.Role(role)
	return &u, nil
}

func (r *userRepository) GetByID(id string) (*db.User, error) {
	var u db.User
	var role string
	err := r.db.QueryRow(
		`SELECT id, name, email, phone, password_hash, role, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying user %s: %w", id, err)
	}
	u.Role = db.Role(role)
	return &u, nil
}

func (r *userRepository) Create(u *db.User) error {
	query := `
		INSERT INTO users (id, name, email, phone, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at`
	err := r.db.QueryRow(query, u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, string(u.Role)).
		Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}
