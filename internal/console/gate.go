package console

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is the gate's authentication state. There is no pending state.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

const defaultRewatchDelay = 2 * time.Second

// Gate tracks the current session and is the only way in or out of it.
type Gate struct {
	idp          IdentityProvider
	log          zerolog.Logger
	rewatchDelay time.Duration

	mu        sync.RWMutex
	session   *Session
	changed   chan struct{}
	listeners map[int]func(*Session)
	nextID    int
}

func NewGate(idp IdentityProvider, log zerolog.Logger) *Gate {
	return &Gate{
		idp:          idp,
		log:          log,
		rewatchDelay: defaultRewatchDelay,
		changed:      make(chan struct{}),
		listeners:    make(map[int]func(*Session)),
	}
}

// Establish signs in. Any failure, including a transport error, comes back
// as *AuthError and leaves the state untouched.
func (g *Gate) Establish(ctx context.Context, creds Credentials) (*Session, error) {
	s, err := g.idp.SignIn(ctx, creds.Email, creds.Password)
	if err == nil && s == nil {
		err = errors.New("provider returned no session")
	}
	if err != nil {
		g.log.Debug().Err(err).Str("email", creds.Email).Msg("sign-in rejected")
		return nil, &AuthError{cause: err}
	}

	g.set(s)
	g.log.Info().Str("email", s.Email).Msg("signed in")
	return cloneSession(s), nil
}

// End signs out. On failure the session is kept and the error returned;
// nothing is retried.
func (g *Gate) End(ctx context.Context) error {
	current := g.current()
	if current == nil {
		return nil
	}

	if err := g.idp.SignOut(ctx, cloneSession(current)); err != nil {
		g.log.Warn().Err(err).Msg("sign-out failed")
		return fmt.Errorf("sign out: %w", err)
	}

	g.set(nil)
	g.log.Info().Str("email", current.Email).Msg("signed out")
	return nil
}

// Resume restores a session from a persisted token.
func (g *Gate) Resume(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, errors.New("resume session: no token")
	}
	s, err := g.idp.Resume(ctx, token)
	if err == nil && s == nil {
		err = errors.New("provider returned no session")
	}
	if err != nil {
		g.log.Debug().Err(err).Msg("stored session not resumable")
		return nil, fmt.Errorf("resume session: %w", err)
	}

	g.set(s)
	return cloneSession(s), nil
}

// Current returns a copy of the session, or nil when signed out.
func (g *Gate) Current() *Session {
	return cloneSession(g.current())
}

func (g *Gate) State() State {
	if g.current() == nil {
		return Unauthenticated
	}
	return Authenticated
}

// Token returns the bearer token of the current session, or "".
func (g *Gate) Token() string {
	if s := g.current(); s != nil {
		return s.Token
	}
	return ""
}

// Subscribe registers fn to run after every session transition. fn receives
// the new session (nil when signed out) and runs on the goroutine that
// caused the transition.
func (g *Gate) Subscribe(fn func(*Session)) (unsubscribe func()) {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.listeners, id)
			g.mu.Unlock()
		})
	}
}

// Observe follows provider pushes for whichever session is current until
// stop is called. stop blocks until the watcher has exited; no transition
// happens after it returns.
func (g *Gate) Observe(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.watch(ctx)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

func (g *Gate) watch(ctx context.Context) {
	for {
		g.mu.RLock()
		watched, changed := g.session, g.changed
		g.mu.RUnlock()

		if watched == nil {
			select {
			case <-ctx.Done():
				return
			case <-changed:
				continue
			}
		}

		if !g.follow(ctx, watched, changed) {
			return
		}
	}
}

// follow watches one session. It returns false once ctx is done.
func (g *Gate) follow(ctx context.Context, watched *Session, changed <-chan struct{}) bool {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pushes, err := g.idp.Watch(wctx, cloneSession(watched))
	if err != nil {
		g.log.Warn().Err(err).Msg("session watch failed")
		return g.pause(ctx, changed)
	}

	for {
		select {
		case <-ctx.Done():
			return false
		case <-changed:
			return true
		case change, ok := <-pushes:
			if !ok {
				g.log.Debug().Msg("session watch closed by provider")
				return g.pause(ctx, changed)
			}
			g.apply(watched, change)
		}
	}
}

func (g *Gate) pause(ctx context.Context, changed <-chan struct{}) bool {
	t := time.NewTimer(g.rewatchDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-changed:
	case <-t.C:
	}
	return true
}

// apply takes a push for watched. Pushes for a session that is no longer
// current are dropped.
func (g *Gate) apply(watched *Session, change SessionChange) {
	g.mu.Lock()
	if g.session != watched {
		g.mu.Unlock()
		return
	}
	if change.Session == nil {
		g.log.Info().Str("reason", string(change.Reason)).Msg("session ended by provider")
	}
	listeners := g.swapLocked(change.Session)
	g.mu.Unlock()

	g.notify(listeners, change.Session)
}

func (g *Gate) set(s *Session) {
	g.mu.Lock()
	listeners := g.swapLocked(s)
	g.mu.Unlock()

	g.notify(listeners, s)
}

func (g *Gate) swapLocked(s *Session) []func(*Session) {
	g.session = cloneSession(s)
	close(g.changed)
	g.changed = make(chan struct{})

	listeners := make([]func(*Session), 0, len(g.listeners))
	for _, fn := range g.listeners {
		listeners = append(listeners, fn)
	}
	return listeners
}

func (g *Gate) notify(listeners []func(*Session), s *Session) {
	for _, fn := range listeners {
		fn(cloneSession(s))
	}
}

func (g *Gate) current() *Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session
}

func cloneSession(s *Session) *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
