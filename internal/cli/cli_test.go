package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rosterdesk/roster/internal/client"
	"github.com/rosterdesk/roster/internal/console"
	"github.com/rosterdesk/roster/internal/core/domain"
)

func withFlags(t *testing.T, server, profile string) {
	t.Helper()
	prevServer, prevProfile := serverURL, profilePath
	serverURL, profilePath = server, profile
	t.Cleanup(func() { serverURL, profilePath = prevServer, prevProfile })
}

func TestClientEnv_RememberIsScopedToServer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	withFlags(t, "http://a.example", path)

	env, err := loadClientEnv(context.Background(), io.Discard)
	if err != nil {
		t.Fatalf("loadClientEnv: %v", err)
	}
	if _, err := env.students(); !errors.Is(err, errNotSignedIn) {
		t.Fatalf("expected errNotSignedIn without a session, got %v", err)
	}
	if err := env.remember(&console.Session{Token: "tok", Email: "amy@school.org"}); err != nil {
		t.Fatalf("remember: %v", err)
	}

	again, err := loadClientEnv(context.Background(), io.Discard)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if s := again.savedSession(); s == nil || s.Token != "tok" {
		t.Fatalf("expected saved session, got %+v", s)
	}

	withFlags(t, "http://b.example", path)
	other, err := loadClientEnv(context.Background(), io.Discard)
	if err != nil {
		t.Fatalf("reload for other server: %v", err)
	}
	if s := other.savedSession(); s != nil {
		t.Fatalf("session for another server must not be used, got %+v", s)
	}
}

func TestExplain(t *testing.T) {
	if err := explain(nil); err != nil {
		t.Fatalf("explain(nil) = %v", err)
	}
	unauthorized := fmt.Errorf("list: %w", &client.APIError{Status: 401, Message: "session revoked"})
	if err := explain(unauthorized); !errors.Is(err, errNotSignedIn) {
		t.Fatalf("expected errNotSignedIn, got %v", err)
	}
	other := errors.New("boom")
	if err := explain(other); err != other {
		t.Fatalf("expected passthrough, got %v", err)
	}
}

func TestPrintStudents(t *testing.T) {
	var buf bytes.Buffer
	printStudents(&buf, nil)
	if !strings.Contains(buf.String(), "No students.") {
		t.Fatalf("unexpected empty output: %q", buf.String())
	}

	buf.Reset()
	printStudents(&buf, []domain.Student{{ID: "id-1", Name: "Amy", Class: "5", Section: "A", RollNumber: "12"}})
	out := buf.String()
	if !strings.Contains(out, "Amy") || !strings.Contains(out, "1 student(s)") {
		t.Fatalf("unexpected output: %q", out)
	}
}
