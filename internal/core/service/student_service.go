package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rosterdesk/roster/internal/api/metrics"
	"github.com/rosterdesk/roster/internal/core/domain"
	"github.com/rosterdesk/roster/internal/core/ports"
)

const (
	sourceAPI    = "api"
	sourceImport = "import"

	defaultReplayWait = 5 * time.Second
	defaultReplayPoll = 50 * time.Millisecond
)

type StudentService struct {
	repo        ports.StudentRepository
	idempotency ports.IdempotencyStore
	logger      zerolog.Logger

	// replayWait bounds how long a request waits on another request holding
	// the same idempotency key.
	replayWait time.Duration
	replayPoll time.Duration
}

// NewStudentService builds the roster use cases. idempotency may be nil, in
// which case Idempotency-Key headers are ignored.
func NewStudentService(repo ports.StudentRepository, idempotency ports.IdempotencyStore, logger zerolog.Logger) *StudentService {
	return &StudentService{
		repo:        repo,
		idempotency: idempotency,
		logger:      logger,
		replayWait:  defaultReplayWait,
		replayPoll:  defaultReplayPoll,
	}
}

func (s *StudentService) ListStudents(ctx context.Context) ([]*domain.Student, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("list").Inc()
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// CreateStudent inserts a new student. With an idempotency key, only the
// first request holding the key inserts; every other request with the same
// key gets that student back, waiting for it while the first is in flight.
func (s *StudentService) CreateStudent(ctx context.Context, input ports.CreateStudentInput) (*ports.CreateStudentResult, error) {
	if input.IdempotencyKey == "" || s.idempotency == nil {
		student, err := s.create(ctx, input, sourceAPI)
		if err != nil {
			return nil, err
		}
		return &ports.CreateStudentResult{Student: student}, nil
	}
	return s.createOnce(ctx, input)
}

func (s *StudentService) createOnce(ctx context.Context, input ports.CreateStudentInput) (*ports.CreateStudentResult, error) {
	key := input.IdempotencyKey
	log := s.logger.With().Str("idempotency_key", key).Logger()
	deadline := time.Now().Add(s.replayWait)

	for {
		won, err := s.idempotency.Reserve(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("idempotency reserve failed, creating unguarded")
			return s.createAndRemember(ctx, input)
		}
		if won {
			return s.createReserved(ctx, input)
		}

		existing, state := s.replay(ctx, key)
		switch state {
		case keyDone:
			return &ports.CreateStudentResult{Student: existing, AlreadyExisted: true}, nil
		case keyStale:
			return s.createAndRemember(ctx, input)
		}
		// Pending, or released by a failed holder: wait and claim again.
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("create student: %w", domain.ErrRequestInFlight)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.replayPoll):
		}
	}
}

// createReserved inserts under a won claim, resolving the claim to the new
// id or releasing it when the insert fails.
func (s *StudentService) createReserved(ctx context.Context, input ports.CreateStudentInput) (*ports.CreateStudentResult, error) {
	key := input.IdempotencyKey
	student, err := s.create(ctx, input, sourceAPI)
	if err != nil {
		if rerr := s.idempotency.Release(context.WithoutCancel(ctx), key); rerr != nil {
			s.logger.Warn().Err(rerr).Str("idempotency_key", key).Msg("failed to release idempotency key")
		}
		return nil, err
	}
	s.remember(ctx, key, student.ID)
	return &ports.CreateStudentResult{Student: student}, nil
}

func (s *StudentService) createAndRemember(ctx context.Context, input ports.CreateStudentInput) (*ports.CreateStudentResult, error) {
	student, err := s.create(ctx, input, sourceAPI)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, input.IdempotencyKey, student.ID)
	return &ports.CreateStudentResult{Student: student}, nil
}

func (s *StudentService) remember(ctx context.Context, key, studentID string) {
	if err := s.idempotency.Remember(context.WithoutCancel(ctx), key, studentID); err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("failed to remember idempotency key")
	}
}

func (s *StudentService) DeleteStudent(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrInvalidStudentID) {
			metrics.StoreErrorsTotal.WithLabelValues("delete").Inc()
		}
		return fmt.Errorf("delete student %s: %w", id, err)
	}
	metrics.StudentsDeletedTotal.Inc()
	s.logger.Info().Str("student_id", id).Msg("student removed")
	return nil
}

// ImportStudents inserts every row in order. A failing row is counted and
// skipped; the import only aborts when ctx is done.
func (s *StudentService) ImportStudents(ctx context.Context, rows []ports.CreateStudentInput) (*ports.ImportResult, error) {
	result := &ports.ImportResult{}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := s.create(ctx, row, sourceImport); err != nil {
			result.Failed++
			s.logger.Warn().Err(err).Int("row", i+1).Msg("import row failed")
			continue
		}
		result.Imported++
	}

	s.logger.Info().Int("imported", result.Imported).Int("failed", result.Failed).Msg("students imported")
	return result, nil
}

func (s *StudentService) create(ctx context.Context, input ports.CreateStudentInput, source string) (*domain.Student, error) {
	student := &domain.Student{
		Name:       input.Name,
		Class:      input.Class,
		Section:    input.Section,
		RollNumber: input.RollNumber,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, student); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues(opFor(source)).Inc()
		s.logger.Error().Err(err).Str("source", source).Msg("failed to create student")
		return nil, fmt.Errorf("create student: %w", err)
	}

	metrics.StudentsCreatedTotal.WithLabelValues(source).Inc()
	s.logger.Info().Str("student_id", student.ID).Str("source", source).Msg("student created")
	return student, nil
}

type keyState int

const (
	keyFree keyState = iota
	keyPending
	keyDone
	// keyStale: the key cannot be replayed (lookup failed or its student
	// is gone), so the request creates afresh.
	keyStale
)

// replay resolves key to the student an earlier request created.
func (s *StudentService) replay(ctx context.Context, key string) (*domain.Student, keyState) {
	id, found, err := s.idempotency.Lookup(ctx, key)
	switch {
	case err != nil:
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency lookup failed")
		return nil, keyStale
	case !found:
		return nil, keyFree
	case id == "":
		return nil, keyPending
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotent student no longer available")
		return nil, keyStale
	}
	s.logger.Info().Str("idempotency_key", key).Str("student_id", existing.ID).Msg("idempotent replay")
	return existing, keyDone
}

func opFor(source string) string {
	if source == sourceImport {
		return "import"
	}
	return "create"
}
