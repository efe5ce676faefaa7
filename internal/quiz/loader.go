package quiz

import (
	"context"
	"fmt"

	"greensys-quiz-service/internal/domain"
)

// GroupSource fetches quiz-group content (REST backend, Postgres, or a
// cache in front of either).
type GroupSource interface {
	FetchGroup(ctx context.Context, token, groupID string) (domain.QuizPayload, error)
}

// ProfileSource resolves the acting student from a session token.
type ProfileSource interface {
	FetchProfile(ctx context.Context, token string) (domain.Student, error)
}

// ResultSink persists a finished submission and issues the nilai ID.
type ResultSink interface {
	SubmitResult(ctx context.Context, token string, sub domain.Submission) (domain.SubmitResponse, error)
}

// ResultSource serves stored results for the result-display screen.
type ResultSource interface {
	FetchResult(ctx context.Context, token, nilaiID string) (domain.StoredResult, error)
}

// Attempt is the immutable payload backing one quiz session: who is
// taking the quiz, the definition, and the ordered question list. It is
// fetched once and never refreshed during the attempt, so the question
// set stays stable even if the catalog changes mid-quiz.
type Attempt struct {
	Student   domain.Student
	Group     domain.QuizGroup
	Questions []domain.Question
}

// Loader assembles an Attempt from the profile and group sources.
type Loader struct {
	groups   GroupSource
	profiles ProfileSource
}

func NewLoader(groups GroupSource, profiles ProfileSource) *Loader {
	return &Loader{groups: groups, profiles: profiles}
}

// Load resolves the student first (an expired token fails fast before
// any content is fetched), then the group payload.
func (l *Loader) Load(ctx context.Context, token, groupID string) (Attempt, error) {
	student, err := l.profiles.FetchProfile(ctx, token)
	if err != nil {
		return Attempt{}, err
	}

	payload, err := l.groups.FetchGroup(ctx, token, groupID)
	if err != nil {
		return Attempt{}, err
	}
	if len(payload.Questions) == 0 {
		return Attempt{}, fmt.Errorf("%w: group %s has no questions", domain.ErrNotFound, groupID)
	}

	return Attempt{
		Student:   student,
		Group:     payload.Group,
		Questions: payload.Questions,
	}, nil
}
