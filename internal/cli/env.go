package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"github.com/rosterdesk/roster/internal/client"
	"github.com/rosterdesk/roster/internal/console"
	"github.com/rosterdesk/roster/internal/pkg/config"
	"github.com/rosterdesk/roster/pkg/logger"
)

const consoleLogFile = "console.log"

var errNotSignedIn = errors.New("not signed in; run: roster login")

// clientEnv is what every client-side command starts from.
type clientEnv struct {
	server      string
	profilePath string
	profile     *client.Profile
	api         *client.Client
	log         zerolog.Logger
	closeLog    func()
}

// loadClientEnv resolves flags over environment, opens the profile and
// builds the HTTP client. Logs go to logOut, or to a file next to the
// profile when logOut is nil.
func loadClientEnv(ctx context.Context, logOut io.Writer) (*clientEnv, error) {
	cfg, err := config.LoadClient(ctx, envconfig.OsLookuper())
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.Server = serverURL
	}
	if profilePath != "" {
		cfg.Profile = profilePath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if cfg.Profile == "" {
		if cfg.Profile, err = client.DefaultProfilePath(); err != nil {
			return nil, err
		}
	}

	env := &clientEnv{server: cfg.Server, profilePath: cfg.Profile, closeLog: func() {}}
	if logOut == nil {
		f, err := logger.OpenFile(filepath.Join(filepath.Dir(cfg.Profile), consoleLogFile))
		if err != nil {
			return nil, err
		}
		logOut = f
		env.closeLog = func() { _ = f.Close() }
	}
	env.log = logger.New(logger.Options{Level: cfg.LogLevel, Output: logOut, Service: "roster-console"})

	if env.profile, err = client.LoadProfile(cfg.Profile); err != nil {
		env.closeLog()
		return nil, err
	}
	env.api = client.New(cfg.Server, client.WithLogger(env.log))
	return env, nil
}

// savedSession returns the persisted session if it belongs to the current
// server.
func (e *clientEnv) savedSession() *console.Session {
	if e.profile.Session == nil || e.profile.Server != e.server {
		return nil
	}
	return e.profile.Session
}

// remember persists s (nil clears it) for the current server.
func (e *clientEnv) remember(s *console.Session) error {
	e.profile.Server = e.server
	e.profile.Session = s
	if err := e.profile.Save(e.profilePath); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// students returns a document store authorised with the saved session.
func (e *clientEnv) students() (*client.Students, error) {
	s := e.savedSession()
	if s == nil {
		return nil, errNotSignedIn
	}
	return client.NewStudents(e.api, client.StaticToken(s.Token)), nil
}

// explain turns a rejected token into the sign-in hint.
func explain(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		return errNotSignedIn
	}
	return err
}
