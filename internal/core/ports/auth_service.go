package ports

import (
	"context"
	"time"

	"github.com/rosterdesk/roster/internal/core/domain"
)

// LoginResult is what a successful sign-in hands back to the transport layer.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

type AuthService interface {
	Register(ctx context.Context, email, password, role string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}
