package console

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rosterdesk/roster/internal/core/domain"
)

// Draft field labels, in form order.
const (
	FieldName       = "Name"
	FieldClass      = "Class"
	FieldSection    = "Section"
	FieldRollNumber = "Roll Number"
)

// DraftFields lists the labels the overlay accepts.
var DraftFields = []string{FieldName, FieldClass, FieldSection, FieldRollNumber}

// Draft maps a field label to its value while the overlay is open.
type Draft map[string]string

// Fields converts the draft into store fields. Missing labels are empty.
func (d Draft) Fields() StudentFields {
	return StudentFields{
		Name:       d[FieldName],
		Class:      d[FieldClass],
		Section:    d[FieldSection],
		RollNumber: d[FieldRollNumber],
	}
}

// Overlay is the add-student form.
type Overlay struct {
	roster *Roster

	mu      sync.Mutex
	visible bool
	draft   Draft
	// key identifies the open draft so a double submit creates one record.
	key        string
	submitting bool
}

func NewOverlay(roster *Roster) *Overlay {
	return &Overlay{roster: roster}
}

// Open shows the overlay. Reopening an open overlay keeps its draft.
func (o *Overlay) Open() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.visible {
		o.draft = Draft{}
		o.key = uuid.NewString()
	}
	o.visible = true
}

// Close hides the overlay and discards the draft.
func (o *Overlay) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.visible = false
	o.draft = nil
	o.key = ""
}

// Submitting reports whether a Submit is in flight.
func (o *Overlay) Submitting() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.submitting
}

func (o *Overlay) Visible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visible
}

func (o *Overlay) SetField(label, value string) error {
	if !knownField(label) {
		return fmt.Errorf("%w: %q", ErrUnknownField, label)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.visible {
		return ErrOverlayClosed
	}
	o.draft[label] = value
	return nil
}

// Draft returns a copy of the current draft, nil when closed.
func (o *Overlay) Draft() Draft {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.draft == nil {
		return nil
	}
	out := make(Draft, len(o.draft))
	for k, v := range o.draft {
		out[k] = v
	}
	return out
}

// Submit creates the student. The overlay closes once the insert has
// succeeded, even if the follow-up refresh failed; if the insert itself
// failed it stays open with the draft intact. A Submit while another is in
// flight returns ErrSubmitInProgress without touching the store.
func (o *Overlay) Submit(ctx context.Context) (domain.Student, error) {
	o.mu.Lock()
	if !o.visible {
		o.mu.Unlock()
		return domain.Student{}, ErrOverlayClosed
	}
	if o.submitting {
		o.mu.Unlock()
		return domain.Student{}, ErrSubmitInProgress
	}
	o.submitting = true
	fields := o.draft.Fields()
	fields.IdempotencyKey = o.key
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.submitting = false
		o.mu.Unlock()
	}()

	created, err := o.roster.Create(ctx, fields)
	if err != nil && IsStoreOp(err, OpCreate) {
		return domain.Student{}, err
	}

	o.Close()
	return created, err
}

func knownField(label string) bool {
	for _, f := range DraftFields {
		if f == label {
			return true
		}
	}
	return false
}
