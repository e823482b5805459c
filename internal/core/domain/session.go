package domain

import "time"

// Session is a server-side sign-in. Its ID travels in the token as the sid claim.
type Session struct {
	ID        string
	UserID    string
	Email     string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionEventReason explains why a session stopped being valid.
type SessionEventReason string

const (
	ReasonSignedOut SessionEventReason = "signed_out"
	ReasonExpired   SessionEventReason = "expired"
)

// SessionEvent is pushed to clients watching a session.
type SessionEvent struct {
	SessionID string             `json:"session_id"`
	Reason    SessionEventReason `json:"reason"`
}
