package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/rosterdesk/roster/internal/core/domain"
)

var studentColumns = []table.Column{
	{Title: "ID", Width: 26},
	{Title: "Name", Width: 24},
	{Title: "Class", Width: 8},
	{Title: "Section", Width: 8},
	{Title: "Roll Number", Width: 12},
}

func newStudentTable() table.Model {
	t := table.New(
		table.WithColumns(studentColumns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(dimColor)).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color(primaryColor))
	t.SetStyles(s)
	return t
}

func studentRows(records []domain.Student) []table.Row {
	rows := make([]table.Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, table.Row{r.ID, r.Name, r.Class, r.Section, r.RollNumber})
	}
	return rows
}

// selectedID is the id of the highlighted row, or "" for an empty table.
func selectedID(t table.Model) string {
	row := t.SelectedRow()
	if len(row) == 0 {
		return ""
	}
	return row[0]
}
