// Package server assembles the HTTP surface: routes, middleware chain, and
// the listener lifecycle.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	audithandler "blog-platform/server/internal/audit/handler"
	healthhandler "blog-platform/server/internal/health/handler"
	"blog-platform/server/internal/identity/domain"
	identityhandler "blog-platform/server/internal/identity/handler"
	"blog-platform/server/internal/server/middleware"
)

// Deps holds the wired handlers and middleware for the router.
type Deps struct {
	Auth      *identityhandler.AuthHandler
	Audit     *audithandler.Handler
	Health    *healthhandler.Handler
	Gate      *middleware.Auth
	RateLimit *middleware.RateLimiter
	Log       *logrus.Logger
}

// NewRouter builds the full route table.
//
// Route → handler mapping:
//   - GET  /health                → internal/health/handler
//   - POST /api/auth/register     → internal/identity/handler
//   - POST /api/auth/login        → internal/identity/handler
//   - GET  /api/auth/me           → internal/identity/handler (authenticated)
//   - POST /api/auth/logout       → internal/identity/handler (authenticated)
//   - GET  /api/admin/audit       → internal/audit/handler (admin only)
func NewRouter(deps Deps) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.HandleFunc("/health", deps.Health.Check).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", deps.Auth.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", deps.Auth.Login).Methods(http.MethodPost)

	authed := api.PathPrefix("/auth").Subrouter()
	authed.Use(deps.Gate.Authenticate)
	authed.HandleFunc("/me", deps.Auth.Me).Methods(http.MethodGet)
	authed.HandleFunc("/logout", deps.Auth.Logout).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(deps.Gate.Authenticate, middleware.RequireRole(domain.RoleAdmin))
	admin.HandleFunc("/audit", deps.Audit.List).Methods(http.MethodGet)

	var h http.Handler = r
	if deps.RateLimit != nil {
		h = deps.RateLimit.Handler(h)
	}
	h = middleware.SecurityHeaders(h)
	h = middleware.Logging(deps.Log)(h)
	h = otelhttp.NewHandler(h, "http.server")
	return h
}

func notFound(w http.ResponseWriter, r *http.Request) {
	middleware.WriteError(w, http.StatusNotFound, middleware.CodeNotFound, "Route not found")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	middleware.WriteError(w, http.StatusMethodNotAllowed, middleware.CodeNotFound, "Method not allowed")
}

// Server wraps http.Server with a graceful lifecycle.
type Server struct {
	srv *http.Server
	log *logrus.Logger
}

// New returns a Server listening on addr once Start is called.
func New(addr string, handler http.Handler, log *logrus.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		log: log,
	}
}

// Start serves until the listener fails or Shutdown is called.
// http.ErrServerClosed is swallowed; it is the normal shutdown signal.
func (s *Server) Start() error {
	s.log.WithField("addr", s.srv.Addr).Info("http server listening")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("http server shutting down")
	return s.srv.Shutdown(ctx)
}
