// Package sheet reads and writes the roster as spreadsheets.
//
// Import expects the first sheet of an xlsx workbook with a header row
// followed by Name, Class, Section and Roll Number columns. Export writes the
// same layout, prefixed with the store-assigned ID.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rosterdesk/roster/internal/core/domain"
	"github.com/rosterdesk/roster/internal/core/ports"
)

const sheetName = "Students"

// Headers is the column layout of an export.
var Headers = []string{"ID", "Name", "Class", "Section", "Roll Number"}

var ErrNoSheets = errors.New("workbook does not contain any sheets")

// ParseXLSX reads student rows from the first sheet of an xlsx workbook.
// The first row is treated as a header. Rows with every cell blank are skipped.
func ParseXLSX(r io.Reader) ([]ports.CreateStudentInput, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", name, err)
	}

	out := make([]ports.CreateStudentInput, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue
		}
		in := ports.CreateStudentInput{
			Name:       cell(row, 0),
			Class:      cell(row, 1),
			Section:    cell(row, 2),
			RollNumber: cell(row, 3),
		}
		if in.Name == "" && in.Class == "" && in.Section == "" && in.RollNumber == "" {
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

// WriteXLSX writes students as a single-sheet workbook.
func WriteXLSX(w io.Writer, students []*domain.Student) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &Headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, s := range students {
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{s.ID, s.Name, s.Class, s.Section, s.RollNumber}
		if err := f.SetSheetRow(sheetName, axis, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 28)
	_ = f.SetColWidth(sheetName, "B", "B", 24)
	_ = f.SetColWidth(sheetName, "C", "E", 12)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteCSV writes students as CSV with a header row.
func WriteCSV(w io.Writer, students []*domain.Student) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return err
	}
	for _, s := range students {
		if err := cw.Write([]string{s.ID, s.Name, s.Class, s.Section, s.RollNumber}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
