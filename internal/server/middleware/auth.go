package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"blog-platform/server/internal/identity/domain"
	"blog-platform/server/internal/identity/repository"
	"blog-platform/server/internal/security"
)

const bearerScheme = "Bearer"

// ExtractToken returns the bearer token from an Authorization header value.
// ok is false when the header is absent or carries a different scheme. The
// scheme match is case-sensitive. A header of exactly "Bearer" yields
// ("", true): the scheme is present but the token is empty.
func ExtractToken(header string) (token string, ok bool) {
	if header == "" {
		return "", false
	}
	if header == bearerScheme {
		return "", true
	}
	if !strings.HasPrefix(header, bearerScheme+" ") {
		return "", false
	}
	return header[len(bearerScheme)+1:], true
}

// Auth authenticates requests from a bearer token and re-resolves the identity
// against the credential store. It never mutates the store.
type Auth struct {
	tokens *security.TokenProvider
	repo   repository.Repository
	log    *logrus.Logger
	now    func() time.Time
}

// NewAuth returns the authentication middleware.
func NewAuth(tokens *security.TokenProvider, repo repository.Repository, log *logrus.Logger) *Auth {
	return &Auth{tokens: tokens, repo: repo, log: log, now: time.Now}
}

// WithClock overrides the middleware clock. Test hook.
func (a *Auth) WithClock(now func() time.Time) *Auth {
	a.now = now
	return a
}

// Authenticate wraps next with the authentication gate. A request passes only
// when it carries a well-formed, authentic, unexpired token whose identity
// still exists and is active; the verified identity is then attached to the
// request context. Every failure short-circuits with its own status and code;
// store failures are logged in full and answered opaquely.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := ExtractToken(r.Header.Get("Authorization"))
		if !ok || token == "" {
			WriteError(w, http.StatusUnauthorized, CodeNoToken, "Access denied. No token provided.")
			return
		}

		claims, err := a.tokens.Verify(token, a.now())
		if err != nil {
			if errors.Is(err, security.ErrTokenExpired) {
				WriteError(w, http.StatusUnauthorized, CodeTokenExpired, "Access denied. Token expired.")
				return
			}
			WriteError(w, http.StatusUnauthorized, CodeInvalidToken, "Access denied. Invalid token.")
			return
		}

		ident, err := a.repo.FindByID(r.Context(), claims.IdentityID())
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				WriteError(w, http.StatusUnauthorized, CodeIdentityUnavailable, "Access denied. User not found or inactive.")
				return
			}
			a.log.WithError(err).Error("auth: credential store lookup failed")
			WriteError(w, http.StatusInternalServerError, CodeStoreFault, "Internal server error during authentication.")
			return
		}
		if !ident.Active {
			WriteError(w, http.StatusUnauthorized, CodeIdentityUnavailable, "Access denied. User not found or inactive.")
			return
		}

		ctx := WithIdentity(r.Context(), &Identity{
			ID:       ident.ID,
			Username: ident.Username,
			Email:    ident.Email,
			Role:     ident.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole wraps a handler with the authorization gate. It must run after
// Authenticate; a request with no verified identity is a wiring bug and is
// reported as unauthenticated rather than silently allowed.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := IdentityFrom(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, CodeUnauthenticated, "Authentication required.")
				return
			}
			for _, role := range roles {
				if ident.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			WriteError(w, http.StatusForbidden, CodeInsufficientRole, "Insufficient permissions.")
		})
	}
}
