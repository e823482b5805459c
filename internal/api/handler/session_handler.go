package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/rosterdesk/roster/internal/api/metrics"
	"github.com/rosterdesk/roster/internal/api/middleware"
	"github.com/rosterdesk/roster/internal/core/domain"
)

const defaultHeartbeat = 15 * time.Second

// SessionWatcher hands out per-session event subscriptions.
type SessionWatcher interface {
	Subscribe(sessionID string) (<-chan domain.SessionEvent, func())
}

// SessionHandler streams session-change notifications as server-sent events.
type SessionHandler struct {
	watcher   SessionWatcher
	sessions  middleware.SessionChecker
	heartbeat time.Duration
	log       zerolog.Logger

	closing   chan struct{}
	closeOnce sync.Once
}

func NewSessionHandler(watcher SessionWatcher, sessions middleware.SessionChecker, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		watcher:   watcher,
		sessions:  sessions,
		heartbeat: defaultHeartbeat,
		log:       log,
		closing:   make(chan struct{}),
	}
}

// Shutdown ends every open stream, and streams opened later end after their
// first event. Register it with http.Server.RegisterOnShutdown; Shutdown
// does not cancel request contexts.
func (h *SessionHandler) Shutdown() {
	h.closeOnce.Do(func() { close(h.closing) })
}

// sessionState is the payload of every "session" event.
type sessionState struct {
	Authenticated bool                      `json:"authenticated"`
	Email         string                    `json:"email,omitempty"`
	Role          string                    `json:"role,omitempty"`
	ExpiresAt     time.Time                 `json:"expires_at,omitzero"`
	Reason        domain.SessionEventReason `json:"reason,omitempty"`
}

// Events holds the connection open and reports when the caller's session ends.
// The first event confirms the session; the stream closes after the single
// authenticated:false event.
//
// @Summary      Watch the current session
// @Tags         auth
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200
// @Failure      401  {object}  errorResponse
// @Router       /auth/session/events [get]
func (h *SessionHandler) Events(c echo.Context) error {
	sid, _ := c.Get(middleware.KeySessionID).(string)
	email, _ := c.Get(middleware.KeyEmail).(string)
	role, _ := c.Get(middleware.KeyRole).(string)
	expiresAt := middleware.ExpiresAt(c)
	ctx := c.Request().Context()

	events, unsubscribe := h.watcher.Subscribe(sid)
	defer unsubscribe()

	metrics.SessionStreamsActive.Inc()
	defer metrics.SessionStreamsActive.Dec()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	if err := h.send(c, sessionState{Authenticated: true, Email: email, Role: role, ExpiresAt: expiresAt}); err != nil {
		return nil
	}

	// The session may have been revoked between authentication and subscribe.
	if h.sessions != nil {
		if live, err := h.sessions.Exists(ctx, sid); err == nil && !live {
			_ = h.send(c, sessionState{Reason: domain.ReasonSignedOut})
			return nil
		}
	}

	expiry := expiryTimer(expiresAt)
	defer expiry.Stop()
	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	h.log.Debug().Str("session_id", sid).Msg("session stream opened")
	for {
		select {
		case <-ctx.Done():
			h.log.Debug().Str("session_id", sid).Msg("session stream closed by client")
			return nil
		case <-h.closing:
			h.log.Debug().Str("session_id", sid).Msg("session stream closed for shutdown")
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case <-expiry.C:
			_ = h.send(c, sessionState{Reason: domain.ReasonExpired})
			h.log.Info().Str("session_id", sid).Msg("session expired")
			return nil
		case ev := <-events:
			_ = h.send(c, sessionState{Reason: ev.Reason})
			h.log.Info().Str("session_id", sid).Str("reason", string(ev.Reason)).Msg("session ended")
			return nil
		}
	}
}

func (h *SessionHandler) send(c echo.Context, state sessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	res := c.Response()
	if _, err := fmt.Fprintf(res, "event: session\ndata: %s\n\n", data); err != nil {
		return err
	}
	res.Flush()
	return nil
}

// expiryTimer fires when the token expires. A zero expiry never fires.
func expiryTimer(expiresAt time.Time) *time.Timer {
	if expiresAt.IsZero() {
		t := time.NewTimer(time.Hour)
		t.Stop()
		return t
	}
	d := time.Until(expiresAt)
	if d < 0 {
		d = 0
	}
	return time.NewTimer(d)
}
