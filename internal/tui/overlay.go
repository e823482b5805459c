package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rosterdesk/roster/internal/console"
)

// overlayModel renders console.Overlay as a form. Every keystroke is mirrored
// into the overlay's draft so the draft stays the source of truth.
type overlayModel struct {
	overlay *console.Overlay
	inputs  []textinput.Model
	focus   int
	err     string
	// submitting is set from the enter that submits until its submitMsg.
	submitting bool
}

func newOverlayModel(o *console.Overlay) overlayModel {
	m := overlayModel{overlay: o}
	draft := o.Draft()
	for i, label := range console.DraftFields {
		in := textinput.New()
		in.Placeholder = strings.ToLower(label)
		in.CharLimit = 64
		in.Width = 30
		in.SetValue(draft[label])
		if i == 0 {
			in.Focus()
		}
		m.inputs = append(m.inputs, in)
	}
	return m
}

// update handles a key and reports whether the draft was submitted.
func (m overlayModel) update(msg tea.Msg) (overlayModel, tea.Cmd, bool) {
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
			if m.submitting {
				return m, nil, false
			}
			m.err = ""
			m.submitting = true
			return m, nil, true
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if err := m.overlay.SetField(console.DraftFields[m.focus], m.inputs[m.focus].Value()); err != nil {
		m.err = err.Error()
	}
	return m, cmd, false
}

func (m overlayModel) moveFocus(delta int) overlayModel {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focus].Focus()
	return m
}

func (m overlayModel) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Add student"))
	b.WriteString("\n\n")
	for i, label := range console.DraftFields {
		b.WriteString(labelStyle.Render(label) + m.inputs[i].View() + "\n")
	}
	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(dimStyle.Render("Saving...") + "\n")
	case m.err != "":
		b.WriteString(errorStyle.Render(m.err) + "\n")
	}
	b.WriteString(dimStyle.Render("enter on last field to save, esc to cancel"))
	return boxStyle.Render(b.String())
}
