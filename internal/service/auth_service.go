package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"valetbay/internal/db"
	apperrors "valetbay/internal/errors"
	"valetbay/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Login(email, password string) (string, error)
	Register(name, email, phone, password string, role db.Role) (*db.User, error)
}

type authService struct {
	repo repository.UserStore
}

func NewAuthService(repo repository.UserStore) AuthService {
	return &authService{repo: repo}
}

// Login verifies the credentials and issues a JWT carrying the requester id
// and role, which the middleware later hands to the booking core.
func (s *authService) Login(email, password string) (string, error) {
	user, err := s.repo.GetByEmail(strings.ToLower(email))
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", apperrors.Forbidden("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperrors.Forbidden("invalid credentials")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", fmt.Errorf("JWT_SECRET not set")
	}

	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"exp":  time.Now().Add(12 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func (s *authService) Register(name, email, phone, password string, role db.Role) (*db.User, error) {
	if email == "" || password == "" {
		return nil, apperrors.Validation("email and password cannot be empty")
	}
	// Emails are stored lowercased; compare lowercased too so the duplicate
	// check cannot be sidestepped by casing.
	email = strings.ToLower(email)
	if _, err := db.ParseRole(string(role)); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	existing, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Conflict("a user with this email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &db.User{
		ID:           newUserID(),
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hashed),
		Role:         role,
	}
	if err := s.repo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func newUserID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("u-%d", time.Now().UnixNano())
	}
	return "u-" + hex.EncodeToString(buf)
}
