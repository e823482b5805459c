package tui

import (
	"github.com/rosterdesk/roster/internal/console"
	"github.com/rosterdesk/roster/internal/core/domain"
)

// shellMsg carries a console.ShellEvent into the update loop.
type shellMsg console.ShellEvent

// signInMsg is the outcome of a credential submission.
type signInMsg struct {
	err error
}

// signOutMsg is the outcome of the logout affordance.
type signOutMsg struct {
	err error
}

// storeMsg is the outcome of a refresh or delete.
type storeMsg struct {
	op  string
	err error
}

// submitMsg is the outcome of submitting the overlay.
type submitMsg struct {
	student domain.Student
	err     error
}

const (
	keyCtrlC    = "ctrl+c"
	keyEnter    = "enter"
	keyEsc      = "esc"
	keyTab      = "tab"
	keyShiftTab = "shift+tab"
	keyUp       = "up"
	keyDown     = "down"
)
