package ports

import (
	"context"

	"github.com/rosterdesk/roster/internal/core/domain"
)

// StudentRepository defines persistence operations for the students collection.
type StudentRepository interface {
	// List returns the whole collection in insertion order.
	List(ctx context.Context) ([]*domain.Student, error)
	Create(ctx context.Context, s *domain.Student) error
	FindByID(ctx context.Context, id string) (*domain.Student, error)
	// Delete removes the student. Removing an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}

// IdempotencyStore remembers which student a given Idempotency-Key created.
// Reserve claims a free key; only the caller that wins the claim inserts.
// Until Remember or Release runs, Lookup reports the key as found with an
// empty student id.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string) (bool, error)
	Lookup(ctx context.Context, key string) (string, bool, error)
	Remember(ctx context.Context, key, studentID string) error
	Release(ctx context.Context, key string) error
}
