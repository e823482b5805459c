package client

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rosterdesk/roster/internal/console"
	"github.com/rosterdesk/roster/internal/core/domain"
)

// Identity is the console.IdentityProvider backed by the /auth endpoints.
type Identity struct {
	c *Client
}

func NewIdentity(c *Client) *Identity {
	return &Identity{c: c}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

type sessionResponse struct {
	Authenticated bool      `json:"authenticated"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func (i *Identity) SignIn(ctx context.Context, email, password string) (*console.Session, error) {
	var resp loginResponse
	if err := i.c.doJSON(ctx, http.MethodPost, "/auth/login", "", loginRequest{Email: email, Password: password}, &resp, nil); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, errors.New("login response without token")
	}

	s := &console.Session{Token: resp.Token, ExpiresAt: resp.ExpiresAt, Email: email}
	if resp.User != nil {
		s.Email = resp.User.Email
		s.Role = resp.User.Role
	}
	return s, nil
}

// SignOut revokes s. A token the server already refuses (revoked elsewhere
// or expired) is signed out, so a 401 is success.
func (i *Identity) SignOut(ctx context.Context, s *console.Session) error {
	err := i.c.doJSON(ctx, http.MethodPost, "/auth/logout", s.Token, nil, nil, nil)
	if errors.Is(err, ErrUnauthorized) {
		i.c.log.Debug().Msg("sign out of a refused token")
		return nil
	}
	return err
}

func (i *Identity) Resume(ctx context.Context, token string) (*console.Session, error) {
	var resp sessionResponse
	if err := i.c.doJSON(ctx, http.MethodGet, "/auth/session", token, nil, &resp, nil); err != nil {
		return nil, err
	}
	if !resp.Authenticated {
		return nil, ErrUnauthorized
	}
	return &console.Session{Token: token, Email: resp.Email, Role: resp.Role, ExpiresAt: resp.ExpiresAt}, nil
}
