package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rosterdesk/roster/internal/console"
	"github.com/rosterdesk/roster/internal/core/domain"
)

type sessionEvent struct {
	Authenticated bool                      `json:"authenticated"`
	Reason        domain.SessionEventReason `json:"reason"`
}

// Watch opens the session event stream. The returned channel yields at most
// one change, a nil Session, and is closed when the stream ends or ctx is
// done. A token the server already refuses is reported the same way.
func (i *Identity) Watch(ctx context.Context, s *console.Session) (<-chan console.SessionChange, error) {
	req, err := i.c.newRequest(ctx, http.MethodGet, "/auth/session/events", s.Token, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := i.c.stream.Do(req)
	if err != nil {
		return nil, err
	}

	out := make(chan console.SessionChange, 1)
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		if !errors.Is(err, ErrUnauthorized) {
			return nil, err
		}
		out <- console.SessionChange{Reason: domain.ReasonSignedOut}
		close(out)
		return out, nil
	}

	go func() {
		defer close(out)
		defer resp.Body.Close()

		err := readEvents(resp.Body, func(name, data string) bool {
			if name != "session" {
				return true
			}
			var ev sessionEvent
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				i.c.log.Warn().Err(err).Msg("malformed session event")
				return true
			}
			if ev.Authenticated {
				return true
			}
			select {
			case out <- console.SessionChange{Reason: ev.Reason}:
			case <-ctx.Done():
			}
			return false
		})
		if err != nil && ctx.Err() == nil {
			i.c.log.Debug().Err(err).Msg("session stream interrupted")
		}
	}()
	return out, nil
}

// readEvents parses a text/event-stream body and calls fn for every complete
// event until fn returns false or the body ends. Comment lines are skipped.
func readEvents(r io.Reader, fn func(name, data string) bool) error {
	sc := bufio.NewScanner(r)
	var name string
	var data []string

	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if len(data) > 0 {
				if !fn(name, strings.Join(data, "\n")) {
					return nil
				}
			}
			name, data = "", nil
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	return sc.Err()
}
