package auth

import (
	"errors"
	"time"
)

// User is a backoffice account. PasswordHash is a bcrypt hash and never
// leaves the package.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RoleAdmin is the only role the backoffice accepts today.
const RoleAdmin = "admin"

var (
	// ErrInvalidCredentials is returned for a bad email/password pair. One
	// message for both cases, so login probing learns nothing.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when registering an existing email.
	ErrEmailTaken = errors.New("email already registered")
)
