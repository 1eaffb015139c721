package repository

import (
	"context"

	"blog-platform/server/internal/audit/domain"
)

// Repository defines persistence for auth audit events.
type Repository interface {
	Create(ctx context.Context, e *domain.Event) error
	ListRecent(ctx context.Context, limit, offset int32) ([]*domain.Event, error)
}
