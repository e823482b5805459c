package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// loginModel is the credential form.
type loginModel struct {
	inputs  []textinput.Model
	focus   int
	err     string
	pending bool
}

func newLoginModel() loginModel {
	email := textinput.New()
	email.Placeholder = "you@school.org"
	email.CharLimit = 254
	email.Width = 36
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128
	password.Width = 36

	return loginModel{inputs: []textinput.Model{email, password}}
}

func (m loginModel) email() string    { return strings.TrimSpace(m.inputs[0].Value()) }
func (m loginModel) password() string { return m.inputs[1].Value() }

// update handles a key and reports whether the form was submitted.
func (m loginModel) update(msg tea.Msg) (loginModel, tea.Cmd, bool) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case keyTab, keyDown:
			return m.moveFocus(1), nil, false
		case keyShiftTab, keyUp:
			return m.moveFocus(-1), nil, false
		case keyEnter:
			if m.focus < len(m.inputs)-1 {
				return m.moveFocus(1), nil, false
			}
			m.pending = true
			m.err = ""
			return m, nil, true
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd, false
}

func (m loginModel) moveFocus(delta int) loginModel {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focus].Focus()
	return m
}

func (m loginModel) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Roster sign in"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Email") + m.inputs[0].View() + "\n")
	b.WriteString(labelStyle.Render("Password") + m.inputs[1].View() + "\n\n")

	switch {
	case m.err != "":
		b.WriteString(errorStyle.Render(m.err))
	case m.pending:
		b.WriteString(dimStyle.Render("Signing in..."))
	default:
		b.WriteString(dimStyle.Render("enter to sign in, ctrl+c to quit"))
	}
	return boxStyle.Render(b.String())
}
