package models

import (
	"errors"
	"strings"
	"time"
)

// User represents a row in the PostgreSQL users table.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialize
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterRequest is the JSON body for POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the registration fields against the account rules.
func (r *RegisterRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	switch {
	case r.Username == "" || r.Email == "" || r.Password == "":
		return errors.New("username, email, and password are required")
	case len(r.Username) < 3 || len(r.Username) > 50:
		return errors.New("username must be 3-50 characters")
	case len(r.Password) < 6:
		return errors.New("password must be at least 6 characters")
	case !strings.Contains(r.Email, "@"):
		return errors.New("email is not valid")
	}
	return nil
}

// LoginRequest is the JSON body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
