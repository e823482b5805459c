package console

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rosterdesk/roster/internal/core/domain"
)

var errRejected = errors.New("wrong password")

type fakeIDP struct {
	mu         sync.Mutex
	password   string
	signOutErr error
	resumable  map[string]*Session
	watchers   map[string]chan SessionChange
	watchCalls int
	nextToken  int
}

func newFakeIDP(password string) *fakeIDP {
	return &fakeIDP{
		password:  password,
		resumable: make(map[string]*Session),
		watchers:  make(map[string]chan SessionChange),
	}
}

func (f *fakeIDP) SignIn(_ context.Context, email, password string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if password != f.password {
		return nil, errRejected
	}
	f.nextToken++
	return &Session{Token: fmt.Sprintf("tok-%d", f.nextToken), Email: email, Role: "admin"}, nil
}

func (f *fakeIDP) SignOut(_ context.Context, _ *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signOutErr
}

func (f *fakeIDP) Resume(_ context.Context, token string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.resumable[token]; ok {
		return s, nil
	}
	return nil, errors.New("unknown token")
}

func (f *fakeIDP) Watch(ctx context.Context, s *Session) (<-chan SessionChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watchCalls++
	ch := make(chan SessionChange, 1)
	f.watchers[s.Token] = ch
	return ch, nil
}

// push delivers a change to the watcher of token, if one is running.
func (f *fakeIDP) push(token string, change SessionChange) bool {
	f.mu.Lock()
	ch, ok := f.watchers[token]
	f.mu.Unlock()
	if !ok {
		return false
	}
	ch <- change
	return true
}

func (f *fakeIDP) watching(token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.watchers[token]
	return ok
}

type fakeStore struct {
	mu        sync.Mutex
	records   []domain.Student
	nextID    int
	listCalls int
	listErr   error
	insertErr error
	removeErr error
	// insertGate, when set, holds every Insert until it is closed.
	insertGate  chan struct{}
	insertCalls int
}

func (f *fakeStore) ListAll(context.Context) ([]domain.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Student(nil), f.records...), nil
}

func (f *fakeStore) Insert(_ context.Context, fields StudentFields) (domain.Student, error) {
	if f.insertGate != nil {
		<-f.insertGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.insertErr != nil {
		return domain.Student{}, f.insertErr
	}
	f.nextID++
	s := domain.Student{
		ID:         fmt.Sprintf("id-%d", f.nextID),
		Name:       fields.Name,
		Class:      fields.Class,
		Section:    fields.Section,
		RollNumber: fields.RollNumber,
	}
	f.records = append(f.records, s)
	return s, nil
}

func (f *fakeStore) RemoveByID(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	for i, r := range f.records {
		if r.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) lists() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *fakeStore) inserts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insertCalls
}
