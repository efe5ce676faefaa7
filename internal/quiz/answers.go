package quiz

// AnswerSheet maps question IDs to the student's chosen option label.
// Selecting again overwrites the prior choice; no history is kept. The
// sheet is owned by exactly one Session and is only touched under the
// session's lock, so it needs no locking of its own.
type AnswerSheet struct {
	chosen map[string]string
}

func NewAnswerSheet() *AnswerSheet {
	return &AnswerSheet{chosen: make(map[string]string)}
}

// Select upserts the chosen label for a question. The option is not
// validated against the question; the caller is trusted.
func (a *AnswerSheet) Select(questionID, label string) {
	a.chosen[questionID] = label
}

// Get returns the chosen label for a question, if any.
func (a *AnswerSheet) Get(questionID string) (string, bool) {
	label, ok := a.chosen[questionID]
	return label, ok
}

// Count reports how many questions have an answer.
func (a *AnswerSheet) Count() int {
	return len(a.chosen)
}

// Snapshot copies the sheet for scoring.
func (a *AnswerSheet) Snapshot() map[string]string {
	out := make(map[string]string, len(a.chosen))
	for id, label := range a.chosen {
		out[id] = label
	}
	return out
}

// Clear drops all answers. Called when the session ends.
func (a *AnswerSheet) Clear() {
	a.chosen = make(map[string]string)
}
