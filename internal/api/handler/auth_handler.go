package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rosterdesk/roster/internal/api/middleware"
	"github.com/rosterdesk/roster/internal/core/domain"
	"github.com/rosterdesk/roster/internal/core/ports"
)

// invalidCredentials is the only message a rejected sign-in ever produces.
const invalidCredentials = "Invalid credentials"

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role"     validate:"required,role"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

type registerResponse struct {
	User *domain.User `json:"user"`
}

type sessionResponse struct {
	Authenticated bool      `json:"authenticated"`
	Email         string    `json:"email,omitempty"`
	Role          string    `json:"role,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitzero"`
}

// Register creates a new user account. Admin only.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	user, err := h.authService.Register(c.Request().Context(), req.Email, req.Password, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserExists):
			return c.JSON(http.StatusConflict, errorResponse{Error: "user already exists"})
		case errors.Is(err, domain.ErrInvalidCredentials):
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid user details"})
		}
		return err
	}

	return c.JSON(http.StatusCreated, registerResponse{User: user})
}

// Login authenticates a user and returns a JWT bound to a new session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: invalidCredentials})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: invalidCredentials})
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: invalidCredentials})
	}

	return c.JSON(http.StatusOK, loginResponse{Token: result.Token, ExpiresAt: result.ExpiresAt, User: result.User})
}

// Logout revokes the caller's session.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	sid, _ := c.Get(middleware.KeySessionID).(string)

	if err := h.authService.Logout(c.Request().Context(), sid); err != nil {
		if errors.Is(err, domain.ErrSessionRevoked) {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "session revoked"})
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Session reports the identity behind a still-valid token.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	email, _ := c.Get(middleware.KeyEmail).(string)
	role, _ := c.Get(middleware.KeyRole).(string)

	return c.JSON(http.StatusOK, sessionResponse{
		Authenticated: true,
		Email:         email,
		Role:          role,
		ExpiresAt:     middleware.ExpiresAt(c),
	})
}
