package ports

import (
	"context"

	"github.com/rosterdesk/roster/internal/core/domain"
)

// CreateStudentInput carries the free-text fields of a new student.
type CreateStudentInput struct {
	Name           string
	Class          string
	Section        string
	RollNumber     string
	IdempotencyKey string
}

// CreateStudentResult is returned after a create.
type CreateStudentResult struct {
	Student *domain.Student
	// AlreadyExisted is true when the Idempotency-Key matched an earlier create.
	AlreadyExisted bool
}

// ImportResult summarises a bulk import.
type ImportResult struct {
	Imported int
	Failed   int
}

// StudentService defines use-case operations on the roster.
type StudentService interface {
	ListStudents(ctx context.Context) ([]*domain.Student, error)
	CreateStudent(ctx context.Context, input CreateStudentInput) (*CreateStudentResult, error)
	DeleteStudent(ctx context.Context, id string) error
	ImportStudents(ctx context.Context, rows []CreateStudentInput) (*ImportResult, error)
}
