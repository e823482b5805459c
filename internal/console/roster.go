package console

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rosterdesk/roster/internal/core/domain"
)

// Roster mirrors the remote students collection. Every mutation is followed
// by a full refresh, except Delete which drops the record locally.
type Roster struct {
	store DocumentStore
	log   zerolog.Logger

	mu      sync.RWMutex
	records []domain.Student
}

func NewRoster(store DocumentStore, log zerolog.Logger) *Roster {
	return &Roster{store: store, log: log}
}

// Refresh replaces the mirror with the store's current contents. On failure
// the mirror is left as it was.
func (r *Roster) Refresh(ctx context.Context) ([]domain.Student, error) {
	records, err := r.store.ListAll(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("refresh students failed")
		return nil, &StoreError{Op: OpRefresh, Err: err}
	}

	r.mu.Lock()
	r.records = append([]domain.Student(nil), records...)
	r.mu.Unlock()

	r.log.Debug().Int("count", len(records)).Msg("students refreshed")
	return append([]domain.Student(nil), records...), nil
}

// Create inserts a student and then refreshes. If only the refresh fails the
// created record is returned together with the refresh error.
func (r *Roster) Create(ctx context.Context, fields StudentFields) (domain.Student, error) {
	created, err := r.store.Insert(ctx, fields)
	if err != nil {
		r.log.Error().Err(err).Msg("create student failed")
		return domain.Student{}, &StoreError{Op: OpCreate, Err: err}
	}
	r.log.Info().Str("student_id", created.ID).Msg("student created")

	if _, err := r.Refresh(ctx); err != nil {
		return created, err
	}
	return created, nil
}

// Delete removes the student from the store and then from the mirror,
// without a refresh.
func (r *Roster) Delete(ctx context.Context, id string) error {
	if err := r.store.RemoveByID(ctx, id); err != nil {
		r.log.Error().Err(err).Str("student_id", id).Msg("delete student failed")
		return &StoreError{Op: OpDelete, Err: err}
	}

	r.mu.Lock()
	kept := r.records[:0:0]
	for _, rec := range r.records {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	r.records = kept
	r.mu.Unlock()

	r.log.Info().Str("student_id", id).Msg("student deleted")
	return nil
}

// View acknowledges a view request. There is no detail page.
func (r *Roster) View(id string) string {
	r.log.Debug().Str("student_id", id).Msg("view requested")
	return "View"
}

// Edit acknowledges an edit request. There is no edit path.
func (r *Roster) Edit(id string) string {
	r.log.Debug().Str("student_id", id).Msg("edit requested")
	return "Edit"
}

// Records returns a copy of the mirror.
func (r *Roster) Records() []domain.Student {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Student(nil), r.records...)
}

// Reset empties the mirror, for use after sign-out.
func (r *Roster) Reset() {
	r.mu.Lock()
	r.records = nil
	r.mu.Unlock()
}
