// Package console holds the client side of the roster: the session gate,
// the local mirror of the students collection, the add-student overlay and
// the shell that composes them. Transport lives behind IdentityProvider and
// DocumentStore so the same logic drives the terminal UI, the CLI and tests.
package console

import (
	"context"
	"time"

	"github.com/rosterdesk/roster/internal/core/domain"
)

// Credentials are what the sign-in form collects.
type Credentials struct {
	Email    string
	Password string
}

// Session is the client's view of a signed-in identity.
type Session struct {
	Token     string    `yaml:"token"`
	Email     string    `yaml:"email"`
	Role      string    `yaml:"role"`
	ExpiresAt time.Time `yaml:"expires_at"`
}

// SessionChange is a push from the identity provider. A nil Session means
// the session is over.
type SessionChange struct {
	Session *Session
	Reason  domain.SessionEventReason
}

// StudentFields are the free-text fields of a new student.
type StudentFields struct {
	Name       string
	Class      string
	Section    string
	RollNumber string
	// IdempotencyKey, when set, makes a repeated insert of the same draft
	// return the first result.
	IdempotencyKey string
}

// IdentityProvider verifies credentials and issues, revokes and watches sessions.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, s *Session) error
	// Resume exchanges a persisted token for the session it belongs to.
	Resume(ctx context.Context, token string) (*Session, error)
	// Watch streams changes to s until ctx ends or the provider closes the stream.
	Watch(ctx context.Context, s *Session) (<-chan SessionChange, error)
}

// DocumentStore is the remote students collection.
type DocumentStore interface {
	ListAll(ctx context.Context) ([]domain.Student, error)
	Insert(ctx context.Context, fields StudentFields) (domain.Student, error)
	RemoveByID(ctx context.Context, id string) error
}
