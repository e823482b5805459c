package ports

import (
	"context"

	"github.com/rosterdesk/roster/internal/core/domain"
)

// SessionStore keeps the set of live sessions and announces when one ends.
type SessionStore interface {
	Create(ctx context.Context, s *domain.Session) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	// Revoke deletes the session. It reports false when the session was
	// already gone.
	Revoke(ctx context.Context, sessionID string) (bool, error)
	Publish(ctx context.Context, event domain.SessionEvent) error
}
