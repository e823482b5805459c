package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rosterdesk/roster/internal/console"
	"github.com/rosterdesk/roster/internal/core/domain"
)

var (
	addFields    console.StudentFields
	exportFormat string
	exportOutput string
)

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "Manage students with the saved session",
}

var studentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all students",
	Args:  cobra.NoArgs,
	RunE:  runStudentsList,
}

var studentsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a student",
	Args:  cobra.NoArgs,
	RunE:  runStudentsAdd,
}

var studentsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a student by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudentsDelete,
}

var studentsImportCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Bulk-create students from a spreadsheet",
	Long: `Import students from the first sheet of an .xlsx workbook. The first
row is a header; columns are Name, Class, Section, Roll Number.`,
	Args: cobra.ExactArgs(1),
	RunE: runStudentsImport,
}

var studentsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download all students as csv or xlsx",
	Args:  cobra.NoArgs,
	RunE:  runStudentsExport,
}

func init() {
	studentsAddCmd.Flags().StringVar(&addFields.Name, "name", "", "student name")
	studentsAddCmd.Flags().StringVar(&addFields.Class, "class", "", "class")
	studentsAddCmd.Flags().StringVar(&addFields.Section, "section", "", "section")
	studentsAddCmd.Flags().StringVar(&addFields.RollNumber, "roll-number", "", "roll number")
	studentsAddCmd.Flags().StringVar(&addFields.IdempotencyKey, "idempotency-key", "", "reuse to make a retried add create one student")

	studentsExportCmd.Flags().StringVar(&exportFormat, "format", "csv", "csv or xlsx")
	studentsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")

	studentsCmd.AddCommand(studentsListCmd)
	studentsCmd.AddCommand(studentsAddCmd)
	studentsCmd.AddCommand(studentsDeleteCmd)
	studentsCmd.AddCommand(studentsImportCmd)
	studentsCmd.AddCommand(studentsExportCmd)
}

func runStudentsList(cmd *cobra.Command, _ []string) error {
	env, err := loadClientEnv(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer env.closeLog()

	store, err := env.students()
	if err != nil {
		return err
	}
	records, err := store.ListAll(cmd.Context())
	if err != nil {
		return explain(err)
	}

	printStudents(cmd.OutOrStdout(), records)
	return nil
}

func printStudents(w io.Writer, records []domain.Student) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No students.")
		return
	}
	fmt.Fprintf(w, "  %-24s  %-24s  %-8s  %-8s  %s\n", "ID", "NAME", "CLASS", "SECTION", "ROLL NUMBER")
	for _, s := range records {
		fmt.Fprintf(w, "  %-24s  %-24s  %-8s  %-8s  %s\n", s.ID, s.Name, s.Class, s.Section, s.RollNumber)
	}
	fmt.Fprintf(w, "\n%d student(s)\n", len(records))
}

func runStudentsAdd(cmd *cobra.Command, _ []string) error {
	env, err := loadClientEnv(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer env.closeLog()

	store, err := env.students()
	if err != nil {
		return err
	}
	created, err := store.Insert(cmd.Context(), addFields)
	if err != nil {
		return explain(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", created.Name, created.ID)
	return nil
}

func runStudentsDelete(cmd *cobra.Command, args []string) error {
	env, err := loadClientEnv(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer env.closeLog()

	store, err := env.students()
	if err != nil {
		return err
	}
	if err := store.RemoveByID(cmd.Context(), args[0]); err != nil {
		return explain(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

func runStudentsImport(cmd *cobra.Command, args []string) error {
	env, err := loadClientEnv(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer env.closeLog()

	store, err := env.students()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	res, err := store.Import(cmd.Context(), filepath.Base(args[0]), f)
	if err != nil {
		return explain(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d, failed %d\n", res.Imported, res.Failed)
	return nil
}

func runStudentsExport(cmd *cobra.Command, _ []string) error {
	if exportFormat != "csv" && exportFormat != "xlsx" {
		return fmt.Errorf("unknown format %q (want csv or xlsx)", exportFormat)
	}

	env, err := loadClientEnv(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer env.closeLog()

	store, err := env.students()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		out = f
	}
	return explain(store.Export(cmd.Context(), exportFormat, out))
}
