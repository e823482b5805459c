package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/rosterdesk/roster/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// domainStatus maps sentinel errors to the status and public message they
// render as. Order matters only when one error wraps another.
var domainStatus = []struct {
	err  error
	code int
	msg  string
}{
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{domain.ErrSessionRevoked, http.StatusUnauthorized, "session revoked"},
	{domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
	{domain.ErrInvalidStudentID, http.StatusBadRequest, "invalid student id"},
	{domain.ErrStudentNotFound, http.StatusNotFound, "student not found"},
	{domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{domain.ErrUserExists, http.StatusConflict, "user already exists"},
	{domain.ErrRequestInFlight, http.StatusConflict, "request with this idempotency key is still in progress"},
}

// NewHTTPErrorHandler renders every error returned by a handler as
// {"error": "..."}. Unknown errors are logged and answered with a generic 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, requestLog(log, c))
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func requestLog(log zerolog.Logger, c echo.Context) zerolog.Logger {
	return log.With().
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Logger()
}

func resolveError(err error, log zerolog.Logger) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Warn().Err(he.Internal).Int("status", he.Code).Msg("request failed")
		}
		return he.Code, fmt.Sprint(he.Message)
	}

	for _, m := range domainStatus {
		if errors.Is(err, m.err) {
			return m.code, m.msg
		}
	}

	log.Error().Err(err).Msg("unhandled error")
	return http.StatusInternalServerError, "internal server error"
}
