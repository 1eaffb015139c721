package handler

import (
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	auditrepo "blog-platform/server/internal/audit/repository"
	"blog-platform/server/internal/server/middleware"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Handler serves the admin-only audit trail listing.
type Handler struct {
	repo auditrepo.Repository
	log  *logrus.Logger
}

// NewHandler returns the audit HTTP handler.
func NewHandler(repo auditrepo.Repository, log *logrus.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

// List handles GET /api/admin/audit with optional limit and offset query
// parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := int32(defaultLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n < 1 || n > maxLimit {
			middleware.WriteFieldError(w, http.StatusBadRequest, middleware.CodeValidationFailed, "limit must be an integer between 1 and 200", "limit")
			return
		}
		limit = int32(n)
	}
	offset := int32(0)
	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n < 0 {
			middleware.WriteFieldError(w, http.StatusBadRequest, middleware.CodeValidationFailed, "offset must be a non-negative integer", "offset")
			return
		}
		offset = int32(n)
	}

	events, err := h.repo.ListRecent(r.Context(), limit, offset)
	if err != nil {
		h.log.WithError(err).Error("audit: list failed")
		middleware.WriteError(w, http.StatusInternalServerError, middleware.CodeStoreFault, "Internal server error.")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"limit":  limit,
		"offset": offset,
	})
}
