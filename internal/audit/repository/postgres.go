package repository

import (
	"context"
	"database/sql"

	"blog-platform/server/internal/audit/domain"
)

// PostgresRepository persists audit events in the auth_audit table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists one audit event. The event must have ID and CreatedAt set.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.Event) error {
	identityID := sql.NullString{String: e.IdentityID, Valid: e.IdentityID != ""}
	metadata := sql.NullString{String: e.Metadata, Valid: e.Metadata != ""}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auth_audit (id, identity_id, action, ip, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, identityID, e.Action, e.IP, metadata, e.CreatedAt,
	)
	return err
}

// ListRecent returns audit events newest first, paginated by limit and offset.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit, offset int32) ([]*domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, identity_id, action, ip, metadata, created_at
		FROM auth_audit
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Event
	for rows.Next() {
		var (
			e          domain.Event
			identityID sql.NullString
			metadata   sql.NullString
		)
		if err := rows.Scan(&e.ID, &identityID, &e.Action, &e.IP, &metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.IdentityID = identityID.String
		e.Metadata = metadata.String
		out = append(out, &e)
	}
	return out, rows.Err()
}
