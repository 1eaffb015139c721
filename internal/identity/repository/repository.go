package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blog-platform/server/internal/identity/domain"
)

// ErrNotFound is returned when no identity matches the lookup.
var ErrNotFound = errors.New("identity not found")

// ConflictError reports a unique-constraint violation on save.
// Field names the colliding column ("username" or "email").
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("identity conflict: %s already taken", e.Field)
}

// Repository is the credential store consulted by the auth subsystem.
// Implementations must enforce username and email uniqueness and surface
// violations as *ConflictError, including under concurrent registration.
type Repository interface {
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	// FindByUsernameOrEmail returns an identity matching either key. When
	// separate identities match both, the email match is returned.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.Identity, error)
	Save(ctx context.Context, i *domain.Identity) error
	// TouchLastAuthenticated records a successful login without rewriting the
	// rest of the record.
	TouchLastAuthenticated(ctx context.Context, id string, at time.Time) error
}
