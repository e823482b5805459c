package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rosterdesk/roster/internal/api/middleware"
	"github.com/rosterdesk/roster/internal/core/domain"
	"github.com/rosterdesk/roster/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, email, password, role string) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.LoginResult, error)
	logoutFn   func(ctx context.Context, sessionID string) error
}

func (s *stubAuthService) Register(ctx context.Context, email, password, role string) (*domain.User, error) {
	return s.registerFn(ctx, email, password, role)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Logout(ctx context.Context, sessionID string) error {
	return s.logoutFn(ctx, sessionID)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(e *echo.Echo, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp.Error
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, email, password, role string) (*domain.User, error) {
			if email != "alice@example.com" || role != domain.RoleOperator {
				t.Fatalf("unexpected args: %s %s", email, role)
			}
			return &domain.User{ID: "u1", Email: email, Role: role, PasswordHash: "hash"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := jsonRequest(e, http.MethodPost, "/auth/register", `{"email":"alice@example.com","password":"longenough","role":"operator"}`)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["email"] != "alice@example.com" || user["role"] != domain.RoleOperator {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatalf("password hash must not be serialised")
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, email, password, role string) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := jsonRequest(e, http.MethodPost, "/auth/register", `{"email":"bob@example.com","password":"longenough","role":"admin"}`)
	_ = handler.Register(c)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, email, password, role string) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub)

	for _, body := range []string{"not-json", `{"email":"x","password":"short","role":"root"}`} {
		c, rec := jsonRequest(e, http.MethodPost, "/auth/register", body)
		_ = handler.Register(c)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.LoginResult, error) {
			if email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &ports.LoginResult{Token: "token123", ExpiresAt: exp, User: &domain.User{Email: email, Role: domain.RoleAdmin}}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := jsonRequest(e, http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"secret"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "token123" || !resp.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.User == nil || resp.User.Role != domain.RoleAdmin {
		t.Fatalf("unexpected user payload: %+v", resp.User)
	}
}

func TestAuthHandler_Login_AnyFailureIsInvalidCredentials(t *testing.T) {
	cases := map[string]struct {
		body string
		err  error
	}{
		"rejected":      {body: `{"email":"alice@example.com","password":"bad"}`, err: domain.ErrInvalidCredentials},
		"backend error": {body: `{"email":"alice@example.com","password":"pwd"}`, err: errors.New("mongo down")},
		"empty fields":  {body: `{"email":"","password":""}`},
		"malformed":     {body: `{`},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			e := newTestEcho()
			stub := &stubAuthService{
				loginFn: func(ctx context.Context, email, password string) (*ports.LoginResult, error) {
					if tc.err == nil {
						t.Fatalf("should not be called")
					}
					return nil, tc.err
				},
			}
			c, rec := jsonRequest(e, http.MethodPost, "/auth/login", tc.body)
			_ = NewAuthHandler(stub).Login(c)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if msg := decodeError(t, rec); msg != "Invalid credentials" {
				t.Fatalf("expected %q, got %q", "Invalid credentials", msg)
			}
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	e := newTestEcho()
	var got string
	stub := &stubAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			got = sessionID
			return nil
		},
	}

	c, rec := jsonRequest(e, http.MethodPost, "/auth/logout", "")
	c.Set(middleware.KeySessionID, "sess-1")
	if err := NewAuthHandler(stub).Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent || got != "sess-1" {
		t.Fatalf("expected 204 for sess-1, got %d for %q", rec.Code, got)
	}
}

func TestAuthHandler_Logout_AlreadyRevoked(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error { return domain.ErrSessionRevoked },
	}

	c, rec := jsonRequest(e, http.MethodPost, "/auth/logout", "")
	_ = NewAuthHandler(stub).Logout(c)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthHandler_Session(t *testing.T) {
	e := newTestEcho()
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	c, rec := jsonRequest(e, http.MethodGet, "/auth/session", "")
	c.Set(middleware.KeyEmail, "alice@example.com")
	c.Set(middleware.KeyRole, domain.RoleAdmin)
	c.Set(middleware.KeyExpiresAt, exp)

	if err := NewAuthHandler(&stubAuthService{}).Session(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Authenticated || resp.Email != "alice@example.com" || !resp.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
