package console

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rosterdesk/roster/internal/core/domain"
)

type eventLog struct {
	mu     sync.Mutex
	events []ShellEvent
}

func (l *eventLog) add(ev ShellEvent) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) lastRecords() ([]domain.Student, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Records != nil {
			return l.events[i].Records, true
		}
	}
	return nil, false
}

func TestShell_ViewFollowsGate(t *testing.T) {
	idp := newFakeIDP("right")
	store := &fakeStore{records: []domain.Student{{ID: "1", Name: "Amy"}}}
	shell := NewShell(NewGate(idp, zerolog.Nop()), NewRoster(store, zerolog.Nop()), zerolog.Nop())

	log := &eventLog{}
	shell.OnChange(log.add)
	teardown := shell.Mount(context.Background())
	defer teardown()

	if shell.View() != ViewLogin {
		t.Fatalf("expected login view before sign-in")
	}

	if _, err := shell.Gate.Establish(context.Background(), Credentials{Email: "a@example.com", Password: "right"}); err != nil {
		t.Fatalf("establish failed: %v", err)
	}
	if shell.View() != ViewStudents {
		t.Fatalf("expected students view after sign-in")
	}
	eventually(t, "roster load", func() bool {
		records, ok := log.lastRecords()
		return ok && len(records) == 1 && records[0].Name == "Amy"
	})

	if err := shell.Logout(context.Background()); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if shell.View() != ViewLogin || len(shell.Roster.Records()) != 0 {
		t.Fatalf("expected login view and empty mirror after logout")
	}
}

func TestShell_MountRefreshesWhenAlreadySignedIn(t *testing.T) {
	idp := newFakeIDP("right")
	store := &fakeStore{records: []domain.Student{{ID: "1", Name: "Amy"}}}
	gate := NewGate(idp, zerolog.Nop())
	_, _ = gate.Establish(context.Background(), Credentials{Email: "a@example.com", Password: "right"})

	shell := NewShell(gate, NewRoster(store, zerolog.Nop()), zerolog.Nop())
	teardown := shell.Mount(context.Background())
	eventually(t, "initial refresh", func() bool { return len(shell.Roster.Records()) == 1 })
	teardown()
	teardown()
}

func TestShell_MountWhileSessionChanges(t *testing.T) {
	idp := newFakeIDP("right")
	gate := NewGate(idp, zerolog.Nop())
	store := &fakeStore{records: []domain.Student{{ID: "1", Name: "Amy"}}}
	shell := NewShell(gate, NewRoster(store, zerolog.Nop()), zerolog.Nop())

	creds := Credentials{Email: "a@example.com", Password: "right"}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			if _, err := gate.Establish(context.Background(), creds); err != nil {
				t.Errorf("establish failed: %v", err)
				return
			}
			if err := gate.End(context.Background()); err != nil {
				t.Errorf("end failed: %v", err)
				return
			}
		}
	}()

	for i := 0; i < 50; i++ {
		shell.Mount(context.Background())()
	}
	<-done

	// Once the churn stops, a fresh mount behaves normally.
	if _, err := gate.Establish(context.Background(), creds); err != nil {
		t.Fatalf("establish failed: %v", err)
	}
	log := &eventLog{}
	shell.OnChange(log.add)
	teardown := shell.Mount(context.Background())
	defer teardown()
	eventually(t, "roster load", func() bool {
		records, ok := log.lastRecords()
		return ok && len(records) == 1
	})
}

func TestShell_Navigate(t *testing.T) {
	shell := NewShell(NewGate(newFakeIDP("x"), zerolog.Nop()), NewRoster(&fakeStore{}, zerolog.Nop()), zerolog.Nop())
	for _, path := range []string{"/students", "/", "/students/1", "/anything"} {
		if got := shell.Navigate(path); got != StudentsRoute {
			t.Fatalf("Navigate(%q) = %q", path, got)
		}
	}
}
