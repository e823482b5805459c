// Package cli defines the Cobra commands of the roster binary: the API
// server, the terminal console and a handful of scriptable client commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL   string
	profilePath string
	logLevel    string
	version     = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "roster",
	Short: "Student roster server and console",
	Long: `Roster keeps a school's student list behind a signed-in session.
Run "roster serve" for the API, then "roster console" to manage students
from the terminal.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "API base URL (overrides ROSTER_SERVER)")
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "profile file holding the saved session (overrides ROSTER_PROFILE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "client log level (overrides ROSTER_LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(studentsCmd)
}
