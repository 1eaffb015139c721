package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Role is the closed set of roles an identity can hold.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole returns the Role for s, or an error for anything outside the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Valid reports whether the role is one of the closed set.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity is a registered principal. PasswordHash is excluded from every
// JSON representation; it must never leave the service.
type Identity struct {
	ID                  string     `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Role                Role       `json:"role"`
	Active              bool       `json:"active"`
	LastAuthenticatedAt *time.Time `json:"lastAuthenticatedAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailRe    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// ValidateUsername checks the username shape: 3–30 characters, letters,
// numbers, and underscores only.
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username is required")
	}
	if len(username) < 3 || len(username) > 30 {
		return errors.New("username must be between 3 and 30 characters")
	}
	if !usernameRe.MatchString(username) {
		return errors.New("username can only contain letters, numbers, and underscores")
	}
	return nil
}

// ValidateEmail checks the email shape.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if !emailRe.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}

// Validate validates the identity for persistence and fills defaults
// (role user, active true on a zero value is the caller's job; role only here).
func (i *Identity) Validate() error {
	if err := ValidateUsername(i.Username); err != nil {
		return err
	}
	if err := ValidateEmail(i.Email); err != nil {
		return err
	}
	if i.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if i.Role == "" {
		i.Role = RoleUser
	}
	if !i.Role.Valid() {
		return fmt.Errorf("unknown role %q", i.Role)
	}
	return nil
}
