package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rosterdesk/roster/internal/client"
	"github.com/rosterdesk/roster/internal/console"
)

var loginEmail string

// stdin is shared so a piped email and password are read from one buffer.
var stdin = bufio.NewReader(os.Stdin)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and save the session to the profile",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the saved session",
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email (prompted when empty)")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	env, err := loadClientEnv(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer env.closeLog()

	email := loginEmail
	if email == "" {
		fmt.Print("Email: ")
		line, err := stdin.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading email: %w", err)
		}
		email = strings.TrimSpace(line)
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	gate := console.NewGate(client.NewIdentity(env.api), env.log)
	s, err := gate.Establish(cmd.Context(), console.Credentials{Email: email, Password: password})
	if err != nil {
		return err
	}
	if err := env.remember(s); err != nil {
		return err
	}

	fmt.Printf("Signed in as %s (%s), session expires %s\n", s.Email, s.Role, s.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := stdin.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Print("Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	env, err := loadClientEnv(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer env.closeLog()

	s := env.savedSession()
	if s == nil {
		fmt.Println("Not signed in.")
		return nil
	}

	if err := client.NewIdentity(env.api).SignOut(cmd.Context(), s); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	if err := env.remember(nil); err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}
