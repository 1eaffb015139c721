package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"blog-platform/server/internal/audit/domain"
)

type mockRepo struct {
	events []*domain.Event
	err    error

	gotLimit  int32
	gotOffset int32
}

func (m *mockRepo) Create(ctx context.Context, e *domain.Event) error { return nil }

func (m *mockRepo) ListRecent(ctx context.Context, limit, offset int32) ([]*domain.Event, error) {
	m.gotLimit, m.gotOffset = limit, offset
	if m.err != nil {
		return nil, m.err
	}
	return m.events, nil
}

func newHandler(repo *mockRepo) *Handler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewHandler(repo, log)
}

func TestList(t *testing.T) {
	repo := &mockRepo{events: []*domain.Event{
		{ID: "e1", Action: domain.ActionLoginSuccess, IP: "1.2.3.4", CreatedAt: time.Unix(1700000000, 0).UTC()},
	}}
	h := newHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/audit?limit=10&offset=5", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if repo.gotLimit != 10 || repo.gotOffset != 5 {
		t.Errorf("pagination = (%d, %d), want (10, 5)", repo.gotLimit, repo.gotOffset)
	}
	var body struct {
		Events []*domain.Event `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Events) != 1 || body.Events[0].ID != "e1" {
		t.Errorf("events = %+v", body.Events)
	}
}

func TestList_Defaults(t *testing.T) {
	repo := &mockRepo{}
	h := newHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/audit", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if repo.gotLimit != defaultLimit || repo.gotOffset != 0 {
		t.Errorf("pagination = (%d, %d), want (%d, 0)", repo.gotLimit, repo.gotOffset, defaultLimit)
	}
}

func TestList_BadPagination(t *testing.T) {
	h := newHandler(&mockRepo{})
	for _, query := range []string{"?limit=0", "?limit=9999", "?limit=abc", "?offset=-1"} {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/audit"+query, nil)
		rec := httptest.NewRecorder()
		h.List(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", query, rec.Code)
		}
	}
}

func TestList_StoreFault(t *testing.T) {
	h := newHandler(&mockRepo{err: errors.New("db down")})
	req := httptest.NewRequest(http.MethodGet, "/api/admin/audit", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
