package middleware

import (
	"context"

	"blog-platform/server/internal/identity/domain"
)

// Identity is the verified request identity attached by Authenticate. It is a
// projection of the stored record and lives only for the request.
type Identity struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
}

type contextKey struct{ name string }

var identityKey = contextKey{"identity"}

// WithIdentity returns a context carrying the verified request identity.
func WithIdentity(ctx context.Context, ident *Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// IdentityFrom returns the verified identity from ctx and true if set.
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	ident, ok := ctx.Value(identityKey).(*Identity)
	if !ok || ident == nil {
		return nil, false
	}
	return ident, true
}
