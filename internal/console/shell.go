package console

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rosterdesk/roster/internal/core/domain"
)

// StudentsRoute is the only route; everything else falls back to it.
const StudentsRoute = "/students"

// View is what the shell shows.
type View int

const (
	ViewLogin View = iota
	ViewStudents
)

func (v View) String() string {
	if v == ViewStudents {
		return "students"
	}
	return "login"
}

// ShellEvent reports a change the presentation layer should render.
type ShellEvent struct {
	View    View
	Session *Session
	Records []domain.Student
	// Err is set when the refresh that produced Records failed.
	Err error
}

// Shell composes the gate, the roster and the overlay.
type Shell struct {
	Gate    *Gate
	Roster  *Roster
	Overlay *Overlay
	log     zerolog.Logger

	mu     sync.Mutex
	notify func(ShellEvent)
}

func NewShell(gate *Gate, roster *Roster, log zerolog.Logger) *Shell {
	return &Shell{
		Gate:    gate,
		Roster:  roster,
		Overlay: NewOverlay(roster),
		log:     log,
	}
}

// OnChange sets the callback that receives ShellEvents. Set it before Mount.
func (s *Shell) OnChange(fn func(ShellEvent)) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

func (s *Shell) View() View {
	if s.Gate.State() == Authenticated {
		return ViewStudents
	}
	return ViewLogin
}

// Navigate resolves path to a route.
func (s *Shell) Navigate(path string) string {
	if path != StudentsRoute {
		s.log.Debug().Str("path", path).Msg("unknown route, falling back")
	}
	return StudentsRoute
}

// Mount starts session observation and loads the roster whenever the gate
// becomes authenticated. teardown stops both and waits for them.
func (s *Shell) Mount(ctx context.Context) (teardown func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup

	var mu sync.Mutex
	closed := false
	refresh := func() {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			records, err := s.Roster.Refresh(ctx)
			if ctx.Err() != nil {
				return
			}
			s.emit(ShellEvent{View: s.View(), Session: s.Gate.Current(), Records: records, Err: err})
		}()
	}

	initial := s.Gate.State() == Authenticated
	authenticated := initial
	unsubscribe := s.Gate.Subscribe(func(sess *Session) {
		mu.Lock()
		was := authenticated
		authenticated = sess != nil
		mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		switch {
		case sess == nil:
			s.Overlay.Close()
			s.Roster.Reset()
			s.emit(ShellEvent{View: ViewLogin})
		case !was:
			s.emit(ShellEvent{View: ViewStudents, Session: sess})
			refresh()
		}
	})

	stop := s.Gate.Observe(ctx)
	// A sign-in seen by the subscriber has already loaded the roster, and a
	// sign-out since the first read means there is nothing to load.
	mu.Lock()
	load := initial && authenticated
	mu.Unlock()
	if load {
		refresh()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			cancel()
			stop()
			mu.Lock()
			closed = true
			mu.Unlock()
			wg.Wait()
		})
	}
}

// Logout is the shell's fixed sign-out affordance.
func (s *Shell) Logout(ctx context.Context) error {
	return s.Gate.End(ctx)
}

func (s *Shell) emit(ev ShellEvent) {
	s.mu.Lock()
	fn := s.notify
	s.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}
