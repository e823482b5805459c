package console

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rosterdesk/roster/internal/core/domain"
)

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestGate_EstablishRejected(t *testing.T) {
	gate := NewGate(newFakeIDP("right"), zerolog.Nop())

	_, err := gate.Establish(context.Background(), Credentials{Email: "a@example.com", Password: "wrong"})

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %T", err)
	}
	if err.Error() != "Invalid credentials" {
		t.Fatalf("expected literal message, got %q", err.Error())
	}
	if !errors.Is(err, errRejected) {
		t.Fatalf("expected cause to be preserved")
	}
	if gate.State() != Unauthenticated || gate.Current() != nil {
		t.Fatalf("expected gate to stay unauthenticated")
	}
}

func TestGate_EstablishAndEnd(t *testing.T) {
	gate := NewGate(newFakeIDP("right"), zerolog.Nop())

	var seen []*Session
	unsubscribe := gate.Subscribe(func(s *Session) { seen = append(seen, s) })
	defer unsubscribe()

	s, err := gate.Establish(context.Background(), Credentials{Email: "a@example.com", Password: "right"})
	if err != nil {
		t.Fatalf("establish failed: %v", err)
	}
	if gate.State() != Authenticated || gate.Token() != s.Token {
		t.Fatalf("expected authenticated with token %q", s.Token)
	}

	if err := gate.End(context.Background()); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if gate.State() != Unauthenticated || gate.Token() != "" {
		t.Fatalf("expected unauthenticated after end")
	}
	if len(seen) != 2 || seen[0] == nil || seen[1] != nil {
		t.Fatalf("unexpected transitions: %+v", seen)
	}
}

func TestGate_EndFailureKeepsSession(t *testing.T) {
	idp := newFakeIDP("right")
	idp.signOutErr = errors.New("network down")
	gate := NewGate(idp, zerolog.Nop())
	_, _ = gate.Establish(context.Background(), Credentials{Email: "a@example.com", Password: "right"})

	if err := gate.End(context.Background()); err == nil {
		t.Fatal("expected sign-out error to reach the caller")
	}
	if gate.State() != Authenticated {
		t.Fatalf("expected session to be kept")
	}
}

func TestGate_Resume(t *testing.T) {
	idp := newFakeIDP("right")
	idp.resumable["saved"] = &Session{Token: "saved", Email: "a@example.com"}
	gate := NewGate(idp, zerolog.Nop())

	if _, err := gate.Resume(context.Background(), "stale"); err == nil || gate.State() != Unauthenticated {
		t.Fatalf("expected stale token to be refused, got %v", err)
	}
	if _, err := gate.Resume(context.Background(), "saved"); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if gate.State() != Authenticated || gate.Current().Email != "a@example.com" {
		t.Fatalf("expected resumed session")
	}
}

func TestGate_ObservePushSignsOut(t *testing.T) {
	idp := newFakeIDP("right")
	gate := NewGate(idp, zerolog.Nop())
	stop := gate.Observe(context.Background())
	defer stop()

	s, _ := gate.Establish(context.Background(), Credentials{Email: "a@example.com", Password: "right"})
	eventually(t, "watch to start", func() bool { return idp.watching(s.Token) })

	idp.push(s.Token, SessionChange{Reason: domain.ReasonExpired})
	eventually(t, "push to sign out", func() bool { return gate.State() == Unauthenticated })
}

func TestGate_ObservePushReplacesSession(t *testing.T) {
	idp := newFakeIDP("right")
	gate := NewGate(idp, zerolog.Nop())
	stop := gate.Observe(context.Background())
	defer stop()

	s, _ := gate.Establish(context.Background(), Credentials{Email: "a@example.com", Password: "right"})
	eventually(t, "watch to start", func() bool { return idp.watching(s.Token) })

	idp.push(s.Token, SessionChange{Session: &Session{Token: "refreshed", Email: "a@example.com"}})
	eventually(t, "session replacement", func() bool { return gate.Token() == "refreshed" })
	eventually(t, "rewatch of new session", func() bool { return idp.watching("refreshed") })
}

func TestGate_ObserveIgnoresStalePush(t *testing.T) {
	idp := newFakeIDP("right")
	gate := NewGate(idp, zerolog.Nop())

	first, _ := gate.Establish(context.Background(), Credentials{Email: "a@example.com", Password: "right"})
	watched := gate.current()

	second, _ := gate.Establish(context.Background(), Credentials{Email: "a@example.com", Password: "right"})
	gate.apply(watched, SessionChange{Reason: domain.ReasonSignedOut})

	if gate.Token() != second.Token || second.Token == first.Token {
		t.Fatalf("stale push for %q must not end %q", first.Token, second.Token)
	}
}

func TestGate_StopPreventsLaterUpdates(t *testing.T) {
	idp := newFakeIDP("right")
	gate := NewGate(idp, zerolog.Nop())
	stop := gate.Observe(context.Background())

	s, _ := gate.Establish(context.Background(), Credentials{Email: "a@example.com", Password: "right"})
	eventually(t, "watch to start", func() bool { return idp.watching(s.Token) })

	stop()
	stop()

	idp.push(s.Token, SessionChange{Reason: domain.ReasonSignedOut})
	time.Sleep(20 * time.Millisecond)
	if gate.State() != Authenticated {
		t.Fatalf("no transition may happen after stop")
	}
}
