package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"greensys-quiz-service/internal/domain"
)

// StaticSource serves quiz groups, profiles and results from in-memory
// maps. It backs the demo mode (no backend URL, no Postgres URL) and the
// unit tests, the same way a static loader stands in for the document DB
// during development.
type StaticSource struct {
	groups   map[string]domain.QuizPayload
	students map[string]domain.Student // token -> student

	mu      sync.Mutex
	results map[string]domain.StoredResult
}

func NewStaticSource(groups map[string]domain.QuizPayload, students map[string]domain.Student) *StaticSource {
	return &StaticSource{
		groups:   groups,
		students: students,
		results:  make(map[string]domain.StoredResult),
	}
}

func (s *StaticSource) FetchGroup(_ context.Context, _, groupID string) (domain.QuizPayload, error) {
	if payload, ok := s.groups[groupID]; ok {
		return payload, nil
	}
	return domain.QuizPayload{}, fmt.Errorf("%w: %s", domain.ErrNotFound, groupID)
}

func (s *StaticSource) FetchProfile(_ context.Context, token string) (domain.Student, error) {
	if student, ok := s.students[token]; ok {
		return student, nil
	}
	return domain.Student{}, fmt.Errorf("%w: unknown token", domain.ErrAuth)
}

func (s *StaticSource) SubmitResult(_ context.Context, _ string, sub domain.Submission) (domain.SubmitResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.results[id] = domain.StoredResult{
		ID:           id,
		SiswaID:      sub.SiswaID,
		GroupSoalID:  sub.GroupSoalID,
		Skor:         sub.Skor,
		CorrectCount: sub.CorrectCount,
		TotalCount:   len(sub.Details),
		Details:      sub.Details,
		CreatedAt:    time.Now(),
	}
	return domain.SubmitResponse{Success: true, NilaiID: id}, nil
}

func (s *StaticSource) FetchResult(_ context.Context, _, nilaiID string) (domain.StoredResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res, ok := s.results[nilaiID]; ok {
		return res, nil
	}
	return domain.StoredResult{}, fmt.Errorf("%w: result %s", domain.ErrNotFound, nilaiID)
}
