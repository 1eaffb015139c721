package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenMalformed is returned when a token is structurally invalid or its signature does not verify.
	ErrTokenMalformed = errors.New("malformed token")
	// ErrTokenExpired is returned when a token's signature verifies but its expiry has passed.
	ErrTokenExpired = errors.New("token expired")
)

// Claims holds the bearer token claim set: the identity projection plus iat/exp.
// The identity id travels in the registered sub claim.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// IdentityID returns the identity id carried in the sub claim.
func (c *Claims) IdentityID() string { return c.Subject }

// TokenProvider issues and verifies self-contained HS256 bearer tokens with a
// fixed lifetime. The signing secret is injected at construction; time is
// always supplied by the caller so expiry behavior is deterministic under test.
type TokenProvider struct {
	secret   []byte
	lifetime time.Duration
}

// NewTokenProvider returns a TokenProvider signing with secret. lifetime is the
// fixed interval between a token's iat and exp.
func NewTokenProvider(secret []byte, lifetime time.Duration) *TokenProvider {
	return &TokenProvider{secret: secret, lifetime: lifetime}
}

// Issue signs a bearer token for the identity with iat=now and exp=now+lifetime.
// Returns the compact JWS string and the expiry instant.
func (p *TokenProvider) Issue(id, username, email, role string, now time.Time) (string, time.Time, error) {
	now = now.UTC().Truncate(time.Second)
	expiresAt := now.Add(p.lifetime)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: username,
		Email:    email,
		Role:     role,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks the signature before anything else, then checks expiry against
// the caller-supplied now. Expiry is inclusive: a token is still valid at
// exactly its exp instant and expired strictly after it.
// Returns ErrTokenMalformed for structural or signature failures and
// ErrTokenExpired for an authentic but stale token.
func (p *TokenProvider) Verify(tokenString string, now time.Time) (*Claims, error) {
	claims := &Claims{}
	// Claims validation is done by hand below so expiry is measured against
	// the supplied now, not the wall clock.
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenMalformed
		}
		return p.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || !token.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.ExpiresAt == nil {
		return nil, ErrTokenMalformed
	}
	if now.After(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}
