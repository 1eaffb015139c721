// Package service implements registration and login orchestration on top of
// the credential store, the password hasher, and the token provider.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"blog-platform/server/internal/identity/domain"
	"blog-platform/server/internal/identity/repository"
	"blog-platform/server/internal/security"
)

// Sentinel errors for the auth service; the HTTP handler maps them to statuses.
var (
	// ErrInvalidCredentials covers both "no such account" and "wrong password"
	// so login failures never reveal whether an email is registered.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrIdentityUnavailable is returned when an identity does not exist or is inactive.
	ErrIdentityUnavailable = errors.New("identity not found or inactive")
	// ErrStoreFault wraps credential store failures that are not auth outcomes.
	ErrStoreFault = errors.New("credential store fault")
)

// AlreadyExistsError reports which unique field collided during registration.
// When both username and email collide, email is reported.
type AlreadyExistsError struct {
	Field string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("user already exists: %s taken", e.Field)
}

// ValidationError reports a rejected registration or login input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthResult holds the outcome of Register or Login: the identity and a
// freshly issued bearer token.
type AuthResult struct {
	Identity  *domain.Identity
	Token     string
	ExpiresAt time.Time
}

// AuthService implements registration and login. It holds no request state;
// the credential store is the only shared resource.
type AuthService struct {
	repo   repository.Repository
	hasher *security.Hasher
	tokens *security.TokenProvider
	now    func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(repo repository.Repository, hasher *security.Hasher, tokens *security.TokenProvider) *AuthService {
	return &AuthService{repo: repo, hasher: hasher, tokens: tokens, now: time.Now}
}

// WithClock overrides the service clock. Test hook.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Register validates input, checks username/email uniqueness as one probe,
// hashes the password, persists the identity, and issues a token.
// Collisions come back as *AlreadyExistsError naming the field; when both
// fields collide, email wins.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))

	if err := domain.ValidateUsername(username); err != nil {
		return nil, &ValidationError{Field: "username", Reason: err.Error()}
	}
	if err := domain.ValidateEmail(email); err != nil {
		return nil, &ValidationError{Field: "email", Reason: err.Error()}
	}
	if err := validatePassword(password); err != nil {
		return nil, &ValidationError{Field: "password", Reason: err.Error()}
	}

	existing, err := s.repo.FindByUsernameOrEmail(ctx, username, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, storeFault(err)
	}
	if existing != nil {
		if existing.Email == email {
			return nil, &AlreadyExistsError{Field: "email"}
		}
		return nil, &AlreadyExistsError{Field: "username"}
	}

	hash, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, storeFault(err)
	}
	now := s.now().UTC()
	ident := &domain.Identity{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := ident.Validate(); err != nil {
		return nil, &ValidationError{Field: "identity", Reason: err.Error()}
	}
	if err := s.repo.Save(ctx, ident); err != nil {
		// A racing registration can lose the uniqueness check above and hit
		// the unique index instead; report it the same way.
		var conflict *repository.ConflictError
		if errors.As(err, &conflict) {
			return nil, &AlreadyExistsError{Field: conflict.Field}
		}
		return nil, storeFault(err)
	}

	return s.issue(ident, now)
}

// Login resolves the identity by email only and verifies the password.
// A missing account, an inactive account, and a wrong password all yield
// ErrInvalidCredentials. On success, last_authenticated_at is stamped and a
// token is issued.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	ident, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeFault(err)
	}
	if !ident.Active {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(ident.PasswordHash, []byte(password)); err != nil {
		// Corrupt stored hashes also read as a failed login; details never
		// reach the caller.
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.repo.TouchLastAuthenticated(ctx, ident.ID, now); err != nil {
		return nil, storeFault(err)
	}
	ident.LastAuthenticatedAt = &now
	ident.UpdatedAt = now

	return s.issue(ident, now)
}

// GetByID returns the identity for id if it exists and is active.
func (s *AuthService) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	ident, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrIdentityUnavailable
		}
		return nil, storeFault(err)
	}
	if !ident.Active {
		return nil, ErrIdentityUnavailable
	}
	return ident, nil
}

func (s *AuthService) issue(ident *domain.Identity, now time.Time) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(ident.ID, ident.Username, ident.Email, string(ident.Role), now)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Identity: ident, Token: token, ExpiresAt: expiresAt}, nil
}

func storeFault(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreFault, err)
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters long")
	}
	var hasUpper, hasLower, hasNumber bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasNumber = true
		}
	}
	if !hasUpper || !hasLower || !hasNumber {
		return errors.New("password must contain at least one uppercase letter, one lowercase letter, and one number")
	}
	return nil
}
