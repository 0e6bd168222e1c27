// Package session persists verification sessions. Sessions are written
// wholesale; the service layer owns all mutation and concurrency control.
package session

import (
	"context"
	"time"

	"pkdconsole/internal/verification/models"
	id "pkdconsole/pkg/domain"
)

// DefaultTTL bounds how long an untouched session survives. The console
// page re-creates a session on load, so expiry is cheap for operators.
const DefaultTTL = 30 * time.Minute

// Store is the session persistence seam.
// Implementations return sentinel.ErrNotFound for missing or expired
// sessions.
type Store interface {
	Save(ctx context.Context, s *models.Session) error
	Find(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	// Update applies fn to the stored session and persists the result
	// atomically with respect to other Updates on the same session. An
	// error from fn aborts the write and is returned unchanged, so fn can
	// reject the update (e.g. with sentinel.ErrStale) after inspecting the
	// current state.
	Update(ctx context.Context, sessionID id.SessionID, fn func(*models.Session) error) (*models.Session, error)
	Delete(ctx context.Context, sessionID id.SessionID) error
}
