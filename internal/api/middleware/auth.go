package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys set by Auth.
const (
	KeyUserID    = "user_id"
	KeySessionID = "session_id"
	KeyEmail     = "email"
	KeyRole      = "role"
	KeyExpiresAt = "expires_at"
)

// SessionChecker reports whether a server-side session is still live.
type SessionChecker interface {
	Exists(ctx context.Context, sessionID string) (bool, error)
}

// Auth validates the JWT, checks that its session has not been revoked and
// injects the claims into context. sessions may be nil to skip the
// revocation check.
func Auth(jwtSecret string, sessions SessionChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sid, _ := claims["sid"].(string)
			if sid == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if sessions != nil {
				live, err := sessions.Exists(c.Request().Context(), sid)
				if err != nil {
					return echo.NewHTTPError(http.StatusServiceUnavailable, "session store unavailable").SetInternal(err)
				}
				if !live {
					return echo.NewHTTPError(http.StatusUnauthorized, "session revoked")
				}
			}

			c.Set(KeySessionID, sid)
			c.Set(KeyUserID, claims["sub"])
			c.Set(KeyEmail, claims["email"])
			c.Set(KeyRole, claims["role"])
			if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
				c.Set(KeyExpiresAt, exp.Time)
			}

			return next(c)
		}
	}
}

// ExpiresAt returns the token expiry injected by Auth, or the zero time.
func ExpiresAt(c echo.Context) time.Time {
	exp, _ := c.Get(KeyExpiresAt).(time.Time)
	return exp
}
