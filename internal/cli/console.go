package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rosterdesk/roster/internal/client"
	"github.com/rosterdesk/roster/internal/console"
	"github.com/rosterdesk/roster/internal/tui"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open the interactive student console",
	Long: `Open the terminal console. A session saved by "roster login" or a
previous console run is resumed; otherwise the sign-in form is shown.`,
	RunE: runConsole,
}

func runConsole(cmd *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("console needs a terminal; use the students commands for scripting")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	env, err := loadClientEnv(ctx, nil)
	if err != nil {
		return err
	}
	defer env.closeLog()

	gate := console.NewGate(client.NewIdentity(env.api), env.log)
	roster := console.NewRoster(client.NewStudents(env.api, gate), env.log)
	shell := console.NewShell(gate, roster, env.log)

	if saved := env.savedSession(); saved != nil {
		if _, err := gate.Resume(ctx, saved.Token); err != nil {
			env.log.Info().Err(err).Msg("saved session not resumed")
			if err := env.remember(nil); err != nil {
				env.log.Warn().Err(err).Msg("clearing saved session")
			}
		}
	}

	unsubscribe := gate.Subscribe(func(s *console.Session) {
		if err := env.remember(s); err != nil {
			env.log.Warn().Err(err).Msg("persisting session")
		}
	})
	defer unsubscribe()

	env.log.Info().Str("server", env.server).Str("route", shell.Navigate(console.StudentsRoute)).Msg("console started")
	return tui.Run(ctx, shell)
}
