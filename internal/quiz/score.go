package quiz

import (
	"math"

	"greensys-quiz-service/internal/domain"
)

// Score grades an answer sheet against the question list. It is pure: no
// network, no clock, same inputs always give the same result. The detail
// list preserves question order for the audit/history display. Comparison
// against the correct label is case-sensitive; an unanswered question
// never matches.
func Score(questions []domain.Question, answers map[string]string) domain.QuizResult {
	total := len(questions)
	details := make([]domain.DetailedAnswer, 0, total)
	correct := 0

	for _, q := range questions {
		detail := domain.DetailedAnswer{SoalID: q.ID}
		if label, ok := answers[q.ID]; ok {
			chosen := label
			detail.Answer = &chosen
			detail.Correct = chosen == q.Answer
		}
		if detail.Correct {
			correct++
		}
		details = append(details, detail)
	}

	percentage := 0
	if total > 0 {
		percentage = int(math.Round(float64(correct) / float64(total) * 100))
	}

	return domain.QuizResult{
		Percentage:   percentage,
		CorrectCount: correct,
		TotalCount:   total,
		Details:      details,
	}
}

// ProgressPercent is the answered-vs-total ratio shown in the question
// navigator, rounded half-up like the score.
func ProgressPercent(answered, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(answered) / float64(total) * 100))
}
