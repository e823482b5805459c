// Package tui is the terminal front end of the roster console. It renders
// console.Shell with bubbletea and never talks to the server directly.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rosterdesk/roster/internal/console"
)

// App is the root model.
type App struct {
	ctx   context.Context
	shell *console.Shell

	login    loginModel
	table    table.Model
	form     overlayModel
	formOpen bool

	banner    string
	bannerErr bool
	width     int
}

func New(ctx context.Context, shell *console.Shell) App {
	a := App{
		ctx:   ctx,
		shell: shell,
		login: newLoginModel(),
		table: newStudentTable(),
	}
	a.syncRows()
	return a
}

// Run mounts the shell and drives the UI until the user quits or ctx ends.
func Run(ctx context.Context, shell *console.Shell) error {
	p := tea.NewProgram(New(ctx, shell), tea.WithAltScreen(), tea.WithContext(ctx))
	shell.OnChange(func(ev console.ShellEvent) {
		p.Send(shellMsg(ev))
	})
	teardown := shell.Mount(ctx)
	defer teardown()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (a App) Init() tea.Cmd {
	return textinput.Blink
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.table.SetHeight(max(msg.Height-10, 5))
		return a, nil

	case shellMsg:
		if msg.View == console.ViewLogin {
			a.login = newLoginModel()
			a.formOpen = false
			a.clearBanner()
			a.syncRows()
			return a, nil
		}
		a.login.pending = false
		a.syncRows()
		if msg.Err != nil {
			a.setError(msg.Err)
		}
		return a, nil

	case signInMsg:
		a.login.pending = false
		if msg.err != nil {
			a.login.err = msg.err.Error()
		}
		return a, nil

	case signOutMsg:
		if msg.err != nil {
			a.setError(msg.err)
		}
		return a, nil

	case storeMsg:
		a.syncRows()
		switch {
		case msg.err != nil:
			a.setError(msg.err)
		case msg.op == console.OpDelete:
			a.setInfo("Student deleted")
		default:
			a.clearBanner()
		}
		return a, nil

	case submitMsg:
		if errors.Is(msg.err, console.ErrSubmitInProgress) {
			return a, nil
		}
		a.form.submitting = false
		if a.shell.Overlay.Visible() {
			if msg.err != nil {
				a.form.err = msg.err.Error()
			}
			return a, nil
		}
		a.formOpen = false
		a.syncRows()
		if msg.err != nil {
			a.setError(msg.err)
		} else {
			a.setInfo("Added " + msg.student.Name)
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == keyCtrlC {
			return a, tea.Quit
		}
		return a.handleKey(msg)
	}

	return a.forward(msg)
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.shell.View() == console.ViewLogin {
		var (
			cmd       tea.Cmd
			submitted bool
		)
		a.login, cmd, submitted = a.login.update(msg)
		if submitted {
			return a, a.signIn()
		}
		return a, cmd
	}

	if a.formOpen {
		if msg.String() == keyEsc {
			a.shell.Overlay.Close()
			a.formOpen = false
			return a, nil
		}
		var (
			cmd       tea.Cmd
			submitted bool
		)
		a.form, cmd, submitted = a.form.update(msg)
		if submitted {
			return a, a.submit()
		}
		return a, cmd
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "a":
		a.shell.Overlay.Open()
		a.form = newOverlayModel(a.shell.Overlay)
		a.formOpen = true
		return a, textinput.Blink
	case "v":
		if id := selectedID(a.table); id != "" {
			a.setInfo(a.shell.Roster.View(id))
		}
		return a, nil
	case "e":
		if id := selectedID(a.table); id != "" {
			a.setInfo(a.shell.Roster.Edit(id))
		}
		return a, nil
	case "d":
		if id := selectedID(a.table); id != "" {
			return a, a.remove(id)
		}
		return a, nil
	case "r":
		return a, a.refresh()
	case "L":
		return a, a.signOut()
	}

	var cmd tea.Cmd
	a.table, cmd = a.table.Update(msg)
	return a, cmd
}

// forward hands non-key messages (cursor blink) to the focused inputs.
func (a App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case a.shell.View() == console.ViewLogin:
		a.login.inputs[a.login.focus], cmd = a.login.inputs[a.login.focus].Update(msg)
	case a.formOpen:
		a.form.inputs[a.form.focus], cmd = a.form.inputs[a.form.focus].Update(msg)
	}
	return a, cmd
}

func (a App) signIn() tea.Cmd {
	ctx, gate := a.ctx, a.shell.Gate
	creds := console.Credentials{Email: a.login.email(), Password: a.login.password()}
	return func() tea.Msg {
		_, err := gate.Establish(ctx, creds)
		return signInMsg{err: err}
	}
}

func (a App) signOut() tea.Cmd {
	ctx, shell := a.ctx, a.shell
	return func() tea.Msg {
		return signOutMsg{err: shell.Logout(ctx)}
	}
}

func (a App) refresh() tea.Cmd {
	ctx, roster := a.ctx, a.shell.Roster
	return func() tea.Msg {
		_, err := roster.Refresh(ctx)
		return storeMsg{op: console.OpRefresh, err: err}
	}
}

func (a App) remove(id string) tea.Cmd {
	ctx, roster := a.ctx, a.shell.Roster
	return func() tea.Msg {
		return storeMsg{op: console.OpDelete, err: roster.Delete(ctx, id)}
	}
}

func (a App) submit() tea.Cmd {
	ctx, overlay := a.ctx, a.shell.Overlay
	return func() tea.Msg {
		created, err := overlay.Submit(ctx)
		return submitMsg{student: created, err: err}
	}
}

func (a *App) syncRows() {
	a.table.SetRows(studentRows(a.shell.Roster.Records()))
}

func (a *App) setError(err error) {
	a.banner = err.Error()
	a.bannerErr = true
}

func (a *App) setInfo(s string) {
	a.banner = s
	a.bannerErr = false
}

func (a *App) clearBanner() {
	a.banner = ""
	a.bannerErr = false
}

func (a App) View() string {
	if a.shell.View() == console.ViewLogin {
		return a.login.view()
	}

	var b strings.Builder
	title := "Students"
	if s := a.shell.Gate.Current(); s != nil {
		title += dimStyle.Render("  signed in as " + s.Email)
	}
	b.WriteString(titleStyle.Render(title) + "\n")

	switch {
	case a.banner == "":
		b.WriteString("\n")
	case a.bannerErr:
		b.WriteString(errorStyle.Render(a.banner) + "\n")
	default:
		b.WriteString(successStyle.Render(a.banner) + "\n")
	}

	if len(a.table.Rows()) == 0 {
		b.WriteString(dimStyle.Render("No students yet. Press a to add one.") + "\n")
	} else {
		b.WriteString(a.table.View() + "\n")
	}

	if a.formOpen {
		b.WriteString(a.form.view() + "\n")
	}

	b.WriteString(a.footer())
	return b.String()
}

func (a App) footer() string {
	keys := "a add  v view  e edit  d delete  r refresh  q quit"
	logout := "L Logout"
	gap := a.width - lipgloss.Width(keys) - lipgloss.Width(logout) - 2
	if gap < 2 {
		gap = 2
	}
	return footerStyle.Render(keys + strings.Repeat(" ", gap) + logout)
}
