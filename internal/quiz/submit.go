package quiz

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"greensys-quiz-service/internal/domain"
)

// Submitter sends a finished attempt to the result sink. Preconditions
// are checked locally first; a submission that fails validation never
// reaches the network. There is no automatic retry: the backend is
// treated as append-only and a duplicate POST could double-record the
// attempt.
type Submitter struct {
	sink     ResultSink
	validate *validator.Validate
}

func NewSubmitter(sink ResultSink) *Submitter {
	return &Submitter{sink: sink, validate: validator.New()}
}

// BuildSubmission assembles the POST /quiz/submit payload from the
// attempt and the scored result.
func BuildSubmission(att Attempt, res domain.QuizResult) domain.Submission {
	return domain.Submission{
		Skor:         res.Percentage,
		CorrectCount: res.CorrectCount,
		SiswaID:      att.Student.ID,
		GroupSoalID:  att.Group.ID,
		Details:      res.Details,
	}
}

// Submit validates the payload, sends it exactly once, and returns the
// backend-issued nilai ID.
func (s *Submitter) Submit(ctx context.Context, token string, sub domain.Submission) (string, error) {
	if err := s.validate.Struct(sub); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	resp, err := s.sink.SubmitResult(ctx, token, sub)
	if err != nil {
		return "", err
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "submission rejected"
		}
		return "", fmt.Errorf("%w: %s", domain.ErrServer, msg)
	}
	return resp.NilaiID, nil
}
