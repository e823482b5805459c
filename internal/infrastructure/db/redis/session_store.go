package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rosterdesk/roster/internal/core/domain"
)

// SessionEventsChannel is the pub/sub channel carrying domain.SessionEvent payloads.
const SessionEventsChannel = "roster:session-events"

// SessionStore keeps live sessions in Redis.
// Key format: session:<session_id>, expiring with the token.
type SessionStore struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client, log zerolog.Logger) *SessionStore {
	return &SessionStore{client: client, log: log}
}

// Create stores the session until its expiry.
func (s *SessionStore) Create(ctx context.Context, sess *domain.Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session store: session %s already expired", sess.ID)
	}
	if err := s.client.Set(ctx, s.key(sess.ID), sess.UserID, ttl).Err(); err != nil {
		return fmt.Errorf("session store: create: %w", err)
	}
	return nil
}

// Exists reports whether the session is still live.
func (s *SessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("session store: exists: %w", err)
	}
	return n > 0, nil
}

// Revoke deletes the session and reports whether it was still live.
func (s *SessionStore) Revoke(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Del(ctx, s.key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("session store: revoke: %w", err)
	}
	return n > 0, nil
}

// Publish announces a session event to every server instance.
func (s *SessionStore) Publish(ctx context.Context, event domain.SessionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("session store: encode event: %w", err)
	}
	if err := s.client.Publish(ctx, SessionEventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("session store: publish: %w", err)
	}
	return nil
}

// Subscribe streams session events until ctx is cancelled. The returned
// channel is closed when the subscription ends.
func (s *SessionStore) Subscribe(ctx context.Context) <-chan domain.SessionEvent {
	out := make(chan domain.SessionEvent)
	pubsub := s.client.Subscribe(ctx, SessionEventsChannel)

	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event domain.SessionEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					s.log.Warn().Err(err).Str("payload", msg.Payload).Msg("dropping malformed session event")
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

func (s *SessionStore) key(sessionID string) string {
	return "session:" + sessionID
}
