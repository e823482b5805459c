package console

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func fillDraft(t *testing.T, o *Overlay) {
	t.Helper()
	values := map[string]string{FieldName: "A", FieldClass: "5", FieldSection: "B", FieldRollNumber: "12"}
	for label, v := range values {
		if err := o.SetField(label, v); err != nil {
			t.Fatalf("SetField(%q): %v", label, err)
		}
	}
}

func TestOverlay_SubmitClosesAndClears(t *testing.T) {
	store := &fakeStore{}
	o := NewOverlay(NewRoster(store, zerolog.Nop()))

	o.Open()
	fillDraft(t, o)

	created, err := o.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if created.RollNumber != "12" || created.Name != "A" {
		t.Fatalf("unexpected record: %+v", created)
	}
	if o.Visible() || o.Draft() != nil {
		t.Fatalf("expected overlay closed and draft cleared")
	}
}

func TestOverlay_InsertFailureKeepsDraft(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("down")}
	o := NewOverlay(NewRoster(store, zerolog.Nop()))

	o.Open()
	fillDraft(t, o)

	if _, err := o.Submit(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !o.Visible() || o.Draft()[FieldName] != "A" {
		t.Fatalf("expected overlay to stay open with its draft")
	}
}

func TestOverlay_RefreshFailureStillCloses(t *testing.T) {
	store := &fakeStore{listErr: errors.New("down")}
	o := NewOverlay(NewRoster(store, zerolog.Nop()))

	o.Open()
	fillDraft(t, o)

	created, err := o.Submit(context.Background())
	if !IsStoreOp(err, OpRefresh) || created.ID == "" {
		t.Fatalf("expected created record with refresh error, got %+v %v", created, err)
	}
	if o.Visible() {
		t.Fatalf("expected overlay to close once the insert succeeded")
	}
}

func TestOverlay_Fields(t *testing.T) {
	o := NewOverlay(NewRoster(&fakeStore{}, zerolog.Nop()))

	if err := o.SetField(FieldName, "A"); !errors.Is(err, ErrOverlayClosed) {
		t.Fatalf("expected ErrOverlayClosed, got %v", err)
	}

	o.Open()
	if err := o.SetField("Age", "9"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	_ = o.SetField(FieldName, "A")
	o.Open()
	if o.Draft()[FieldName] != "A" {
		t.Fatalf("reopening must keep the draft")
	}

	o.Close()
	if o.Visible() || o.Draft() != nil {
		t.Fatalf("close must discard the draft")
	}
	if _, err := o.Submit(context.Background()); !errors.Is(err, ErrOverlayClosed) {
		t.Fatalf("expected ErrOverlayClosed, got %v", err)
	}
}

func TestOverlay_SecondSubmitWhileInFlightIsRejected(t *testing.T) {
	gate := make(chan struct{})
	store := &fakeStore{insertGate: gate}
	o := NewOverlay(NewRoster(store, zerolog.Nop()))

	o.Open()
	fillDraft(t, o)

	done := make(chan error, 1)
	go func() {
		_, err := o.Submit(context.Background())
		done <- err
	}()
	eventually(t, "first submit in flight", o.Submitting)

	if _, err := o.Submit(context.Background()); !errors.Is(err, ErrSubmitInProgress) {
		t.Fatalf("expected ErrSubmitInProgress, got %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if n := store.inserts(); n != 1 {
		t.Fatalf("expected one insert, got %d", n)
	}
	if o.Submitting() || o.Visible() {
		t.Fatal("expected overlay closed and idle after the submit")
	}
}
