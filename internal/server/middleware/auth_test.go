package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"blog-platform/server/internal/identity/domain"
	"blog-platform/server/internal/identity/repository"
	"blog-platform/server/internal/security"
)

// mockRepo implements repository.Repository for gate tests.
type mockRepo struct {
	identities map[string]*domain.Identity
	err        error
}

func (m *mockRepo) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	if m.err != nil {
		return nil, m.err
	}
	if i, ok := m.identities[id]; ok {
		return i, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockRepo) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return nil, repository.ErrNotFound
}

func (m *mockRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.Identity, error) {
	return nil, repository.ErrNotFound
}

func (m *mockRepo) Save(ctx context.Context, i *domain.Identity) error { return nil }

func (m *mockRepo) TouchLastAuthenticated(ctx context.Context, id string, at time.Time) error {
	return nil
}

var gateNow = time.Unix(1700000000, 0).UTC()

func newGate(repo repository.Repository) (*Auth, *security.TokenProvider) {
	tokens := security.NewTokenProvider([]byte("test-secret"), time.Hour)
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewAuth(tokens, repo, log).WithClock(func() time.Time { return gateNow }), tokens
}

func activeIdentity(id string, role domain.Role) *domain.Identity {
	return &domain.Identity{
		ID: id, Username: "alice", Email: "alice@example.com",
		Role: role, Active: true, PasswordHash: "h",
	}
}

func TestExtractToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"Bearer", "", true}, // scheme present, token empty
		{"Bearer ", "", true},
		{"Basic abc", "", false},
		{"bearer abc", "", false}, // scheme is case-sensitive
		{"", "", false},
	}
	for _, tc := range cases {
		token, ok := ExtractToken(tc.header)
		if token != tc.token || ok != tc.ok {
			t.Errorf("ExtractToken(%q) = (%q, %v), want (%q, %v)", tc.header, token, ok, tc.token, tc.ok)
		}
	}
}

// doAuth runs one request through the authentication gate and returns the
// recorder plus whether the inner handler ran.
func doAuth(t *testing.T, a *Auth, header string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	called := false
	h := a.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		ident, ok := IdentityFrom(r.Context())
		if !ok {
			t.Error("no identity attached on success path")
		} else {
			WriteJSON(w, http.StatusOK, ident)
		}
	}))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, called
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestAuthenticate_Success(t *testing.T) {
	repo := &mockRepo{identities: map[string]*domain.Identity{"u1": activeIdentity("u1", domain.RoleUser)}}
	a, tokens := newGate(repo)
	token, _, err := tokens.Issue("u1", "alice", "alice@example.com", "user", gateNow)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	rec, called := doAuth(t, a, "Bearer "+token)
	if !called {
		t.Fatalf("handler not called: %d %s", rec.Code, rec.Body.String())
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	var ident Identity
	if err := json.Unmarshal(rec.Body.Bytes(), &ident); err != nil {
		t.Fatalf("decode identity: %v", err)
	}
	if ident.ID != "u1" || ident.Role != domain.RoleUser {
		t.Errorf("identity = %+v", ident)
	}
}

func TestAuthenticate_NoToken(t *testing.T) {
	repo := &mockRepo{identities: map[string]*domain.Identity{}}
	a, _ := newGate(repo)

	for _, header := range []string{"", "Bearer", "Basic abc", "bearer xyz"} {
		rec, called := doAuth(t, a, header)
		if called {
			t.Fatalf("header %q: handler should not run", header)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, rec.Code)
		}
		if body := decodeError(t, rec); body.Code != CodeNoToken {
			t.Errorf("header %q: code = %q, want %q", header, body.Code, CodeNoToken)
		}
	}
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	repo := &mockRepo{identities: map[string]*domain.Identity{}}
	a, _ := newGate(repo)

	rec, called := doAuth(t, a, "Bearer not-a-valid-token")
	if called {
		t.Fatal("handler should not run")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if body := decodeError(t, rec); body.Code != CodeInvalidToken {
		t.Errorf("code = %q, want %q", body.Code, CodeInvalidToken)
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	repo := &mockRepo{identities: map[string]*domain.Identity{"u1": activeIdentity("u1", domain.RoleUser)}}
	a, tokens := newGate(repo)
	issued := gateNow.Add(-2 * time.Hour) // lifetime is 1h, so this is stale
	token, _, err := tokens.Issue("u1", "alice", "alice@example.com", "user", issued)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	rec, called := doAuth(t, a, "Bearer "+token)
	if called {
		t.Fatal("handler should not run")
	}
	if body := decodeError(t, rec); body.Code != CodeTokenExpired {
		t.Errorf("code = %q, want %q", body.Code, CodeTokenExpired)
	}
}

func TestAuthenticate_IdentityUnavailable(t *testing.T) {
	inactive := activeIdentity("u2", domain.RoleUser)
	inactive.Active = false
	repo := &mockRepo{identities: map[string]*domain.Identity{"u2": inactive}}
	a, tokens := newGate(repo)

	// Token for a deleted identity.
	ghost, _, err := tokens.Issue("ghost", "ghost", "ghost@example.com", "user", gateNow)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	rec, called := doAuth(t, a, "Bearer "+ghost)
	if called {
		t.Fatal("handler should not run for a deleted identity")
	}
	if body := decodeError(t, rec); body.Code != CodeIdentityUnavailable {
		t.Errorf("deleted: code = %q, want %q", body.Code, CodeIdentityUnavailable)
	}

	// Valid, unexpired token for an inactive identity.
	stale, _, err := tokens.Issue("u2", "alice", "alice@example.com", "user", gateNow)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	rec, called = doAuth(t, a, "Bearer "+stale)
	if called {
		t.Fatal("handler should not run for an inactive identity")
	}
	if body := decodeError(t, rec); body.Code != CodeIdentityUnavailable {
		t.Errorf("inactive: code = %q, want %q", body.Code, CodeIdentityUnavailable)
	}
}

func TestAuthenticate_StoreFault(t *testing.T) {
	repo := &mockRepo{err: errors.New("connection refused")}
	a, tokens := newGate(repo)
	token, _, err := tokens.Issue("u1", "alice", "alice@example.com", "user", gateNow)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	rec, called := doAuth(t, a, "Bearer "+token)
	if called {
		t.Fatal("handler should not run")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	body := decodeError(t, rec)
	if body.Code != CodeStoreFault {
		t.Errorf("code = %q, want %q", body.Code, CodeStoreFault)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Error("store fault detail leaked to the client")
	}
}

func TestRequireRole(t *testing.T) {
	called := false
	h := RequireRole(domain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	// No identity: misconfigured chain reports unauthenticated.
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if called {
		t.Fatal("handler should not run without identity")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no identity: status = %d, want 401", rec.Code)
	}
	if body := decodeError(t, rec); body.Code != CodeUnauthenticated {
		t.Errorf("no identity: code = %q, want %q", body.Code, CodeUnauthenticated)
	}

	// Wrong role.
	ctx := WithIdentity(context.Background(), &Identity{ID: "u1", Role: domain.RoleUser})
	req = httptest.NewRequest(http.MethodGet, "/admin", nil).WithContext(ctx)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if called {
		t.Fatal("handler should not run for user role")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("user role: status = %d, want 403", rec.Code)
	}
	if body := decodeError(t, rec); body.Code != CodeInsufficientRole {
		t.Errorf("user role: code = %q, want %q", body.Code, CodeInsufficientRole)
	}

	// Matching role passes through unchanged.
	ctx = WithIdentity(context.Background(), &Identity{ID: "u2", Role: domain.RoleAdmin})
	req = httptest.NewRequest(http.MethodGet, "/admin", nil).WithContext(ctx)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if !called {
		t.Fatal("handler should run for admin role")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("admin role: status = %d, want 200", rec.Code)
	}
}

func TestRequireRole_MultipleRoles(t *testing.T) {
	h := RequireRole(domain.RoleUser, domain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	ctx := WithIdentity(context.Background(), &Identity{ID: "u1", Role: domain.RoleUser})
	req := httptest.NewRequest(http.MethodGet, "/any", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
