package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"blog-platform/server/internal/identity/domain"
)

const identityColumns = `id, username, email, password_hash, role, active, last_authenticated_at, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an identity repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindByID returns the identity for id, or ErrNotFound.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// FindByEmail returns the identity with the given email, or ErrNotFound.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// FindByUsernameOrEmail returns an identity matching either key, preferring
// the email match when distinct identities match both. Returns ErrNotFound
// when neither matches.
func (r *PostgresRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.Identity, error) {
	query := `SELECT ` + identityColumns + `
		 FROM identities
		 WHERE username = $1 OR email = $2
		 ORDER BY (email = $2) DESC
		 LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, username, email))
}

// Save inserts the identity, or updates the existing row with the same id.
// Unique-index violations on username or email are returned as *ConflictError.
func (r *PostgresRepository) Save(ctx context.Context, i *domain.Identity) error {
	query := `INSERT INTO identities (` + identityColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			active = EXCLUDED.active,
			last_authenticated_at = EXCLUDED.last_authenticated_at,
			updated_at = EXCLUDED.updated_at`
	var lastAuth sql.NullTime
	if i.LastAuthenticatedAt != nil {
		lastAuth = sql.NullTime{Time: *i.LastAuthenticatedAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, query,
		i.ID, i.Username, i.Email, i.PasswordHash, string(i.Role), i.Active,
		lastAuth, i.CreatedAt, i.UpdatedAt)
	if err != nil {
		if conflict := conflictFrom(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// TouchLastAuthenticated stamps a successful login on the identity row.
func (r *PostgresRepository) TouchLastAuthenticated(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE identities SET last_authenticated_at = $2, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*domain.Identity, error) {
	var (
		i        domain.Identity
		role     string
		lastAuth sql.NullTime
	)
	err := row.Scan(&i.ID, &i.Username, &i.Email, &i.PasswordHash, &role, &i.Active,
		&lastAuth, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	i.Role = domain.Role(role)
	if lastAuth.Valid {
		t := lastAuth.Time
		i.LastAuthenticatedAt = &t
	}
	return &i, nil
}

// conflictFrom maps a postgres unique-violation (23505) to a *ConflictError,
// using the constraint name to name the colliding field. Returns nil for any
// other error.
func conflictFrom(err error) *ConflictError {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "email"):
		return &ConflictError{Field: "email"}
	case strings.Contains(pgErr.ConstraintName, "username"):
		return &ConflictError{Field: "username"}
	default:
		return &ConflictError{Field: "email"}
	}
}
