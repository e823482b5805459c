package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/rosterdesk/roster/internal/api/metrics"
	"github.com/rosterdesk/roster/internal/core/domain"
	"github.com/rosterdesk/roster/internal/core/ports"
)

// AuthService implements sign-in, sign-out and registration.
type AuthService struct {
	repo      ports.AuthRepository
	sessions  ports.SessionStore
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

func NewAuthService(repo ports.AuthRepository, sessions ports.SessionStore, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		repo:      repo,
		sessions:  sessions,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
		now:       time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password, role string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" || !domain.ValidRole(role) {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	return s.repo.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// EnsureAdmin creates the admin account when no account with that email exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" {
		return nil
	}
	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("ensure admin: %w", err)
	}

	if _, err := s.Register(ctx, email, password, domain.RoleAdmin); err != nil && !errors.Is(err, domain.ErrUserExists) {
		return fmt.Errorf("ensure admin: %w", err)
	}
	s.log.Info().Str("email", email).Msg("admin account seeded")
	return nil
}

// Login verifies the credentials and opens a session. Every failure is
// reported as domain.ErrInvalidCredentials; the real cause is only logged.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	result, err := s.login(ctx, email, password)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
		s.log.Info().Err(err).Str("email", email).Msg("sign-in rejected")
		return nil, domain.ErrInvalidCredentials
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("email", result.User.Email).Msg("signed in")
	return result, nil
}

func (s *AuthService) login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	now := s.now().UTC()
	sess := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.tokenTTL),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}

	token, err := s.generateToken(sess)
	if err != nil {
		return nil, err
	}
	return &ports.LoginResult{Token: token, ExpiresAt: sess.ExpiresAt, User: user}, nil
}

// Logout revokes the session and notifies anyone watching it.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.ErrSessionRevoked
	}

	revoked, err := s.sessions.Revoke(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if !revoked {
		return domain.ErrSessionRevoked
	}

	event := domain.SessionEvent{SessionID: sessionID, Reason: domain.ReasonSignedOut}
	if err := s.sessions.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to publish sign-out")
	}
	s.log.Info().Str("session_id", sessionID).Msg("signed out")
	return nil
}

func (s *AuthService) generateToken(sess *domain.Session) (string, error) {
	claims := jwt.MapClaims{
		"sub":   sess.UserID,
		"sid":   sess.ID,
		"email": sess.Email,
		"role":  sess.Role,
		"iat":   sess.IssuedAt.Unix(),
		"exp":   sess.ExpiresAt.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
