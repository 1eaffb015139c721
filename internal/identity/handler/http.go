// Package handler exposes the auth routes: register, login, me, logout.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"blog-platform/server/internal/audit"
	auditdomain "blog-platform/server/internal/audit/domain"
	"blog-platform/server/internal/identity/domain"
	"blog-platform/server/internal/identity/service"
	"blog-platform/server/internal/server/middleware"
)

// AuthHandler serves the authentication routes.
type AuthHandler struct {
	svc   *service.AuthService
	audit audit.Recorder
	log   *logrus.Logger
}

// NewAuthHandler returns the auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, recorder audit.Recorder, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, audit: recorder, log: log}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string           `json:"message"`
	User    *domain.Identity `json:"user"`
	Token   string           `json:"token"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.CodeValidationFailed, "Invalid request body.")
		return
	}

	result, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.writeRegisterError(w, err)
		return
	}

	h.audit.Record(r.Context(), result.Identity.ID, auditdomain.ActionRegister, middleware.ClientIP(r), "")
	middleware.WriteJSON(w, http.StatusCreated, authResponse{
		Message: "User registered successfully",
		User:    result.Identity,
		Token:   result.Token,
	})
}

func (h *AuthHandler) writeRegisterError(w http.ResponseWriter, err error) {
	var conflict *service.AlreadyExistsError
	if errors.As(err, &conflict) {
		middleware.WriteFieldError(w, http.StatusConflict, middleware.CodeAlreadyExists, "User already exists", conflict.Field)
		return
	}
	var invalid *service.ValidationError
	if errors.As(err, &invalid) {
		middleware.WriteFieldError(w, http.StatusBadRequest, middleware.CodeValidationFailed, invalid.Reason, invalid.Field)
		return
	}
	h.log.WithError(err).Error("auth: register failed")
	middleware.WriteError(w, http.StatusInternalServerError, middleware.CodeStoreFault, "Internal server error.")
}

// Login handles POST /api/auth/login. Unknown email and wrong password produce
// the same response, byte for byte.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.CodeValidationFailed, "Invalid request body.")
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.audit.Record(r.Context(), "", auditdomain.ActionLoginFailure, middleware.ClientIP(r), "")
			middleware.WriteError(w, http.StatusUnauthorized, middleware.CodeInvalidCredentials, "Invalid credentials")
			return
		}
		h.log.WithError(err).Error("auth: login failed")
		middleware.WriteError(w, http.StatusInternalServerError, middleware.CodeStoreFault, "Internal server error.")
		return
	}

	h.audit.Record(r.Context(), result.Identity.ID, auditdomain.ActionLoginSuccess, middleware.ClientIP(r), "")
	middleware.WriteJSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		User:    result.Identity,
		Token:   result.Token,
	})
}

// Me handles GET /api/auth/me. Requires the authentication gate.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, middleware.CodeUnauthenticated, "Authentication required.")
		return
	}

	user, err := h.svc.GetByID(r.Context(), ident.ID)
	if err != nil {
		if errors.Is(err, service.ErrIdentityUnavailable) {
			middleware.WriteError(w, http.StatusUnauthorized, middleware.CodeIdentityUnavailable, "Access denied. User not found or inactive.")
			return
		}
		h.log.WithError(err).Error("auth: me lookup failed")
		middleware.WriteError(w, http.StatusInternalServerError, middleware.CodeStoreFault, "Internal server error.")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]*domain.Identity{"user": user})
}

// Logout handles POST /api/auth/logout. Tokens are self-contained, so logout
// records the event and leaves discarding the token to the client.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, middleware.CodeUnauthenticated, "Authentication required.")
		return
	}

	h.audit.Record(r.Context(), ident.ID, auditdomain.ActionLogout, middleware.ClientIP(r), "")
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}
