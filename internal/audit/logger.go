// Package audit records authentication events best-effort: a failure to write
// an event never affects the request that produced it.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"blog-platform/server/internal/audit/domain"
	auditrepo "blog-platform/server/internal/audit/repository"
)

// Recorder writes a single audit event. Used by the auth code paths.
type Recorder interface {
	Record(ctx context.Context, identityID, action, ip, metadata string)
}

// Logger implements Recorder on top of the audit repository.
type Logger struct {
	repo auditrepo.Repository
	log  *logrus.Logger
	now  func() time.Time
}

// NewLogger returns a Recorder that persists to repo. repo may be nil; then
// Record is a no-op.
func NewLogger(repo auditrepo.Repository, log *logrus.Logger) *Logger {
	return &Logger{repo: repo, log: log, now: time.Now}
}

// WithClock overrides the logger clock. Test hook.
func (l *Logger) WithClock(now func() time.Time) *Logger {
	l.now = now
	return l
}

// Record writes one audit event. Best-effort: errors are logged, not returned.
func (l *Logger) Record(ctx context.Context, identityID, action, ip, metadata string) {
	if l.repo == nil {
		return
	}
	event := &domain.Event{
		ID:         uuid.New().String(),
		IdentityID: identityID,
		Action:     action,
		IP:         ip,
		Metadata:   metadata,
		CreatedAt:  l.now().UTC(),
	}
	if err := l.repo.Create(ctx, event); err != nil {
		l.log.WithError(err).WithField("action", action).Warn("audit: event not recorded")
	}
}
