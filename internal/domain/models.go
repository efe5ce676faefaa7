package domain

import "time"

// OptionLabels are the five allowed choice labels, in display order.
var OptionLabels = [5]string{"A", "B", "C", "D", "E"}

// QuizGroup is the definition of a timed quiz: a named question set bound
// to a class and a module. Immutable once loaded.
type QuizGroup struct {
	ID              string `json:"id"`
	Title           string `json:"judul"`
	DurationMinutes int    `json:"durasi"`
	KelasID         string `json:"kelasId"`
	ModulID         string `json:"modulId"`
}

// Option pairs a label with its display text.
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question models a single multiple-choice item with up to five labeled
// options and exactly one correct label. Absent options are nil.
type Question struct {
	ID      string  `json:"id"`
	Prompt  string  `json:"soal"`
	OptionA *string `json:"optionA"`
	OptionB *string `json:"optionB"`
	OptionC *string `json:"optionC"`
	OptionD *string `json:"optionD"`
	OptionE *string `json:"optionE"`
	Answer  string  `json:"jawaban"`
}

// Options returns the present options in label order.
func (q Question) Options() []Option {
	texts := [5]*string{q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.OptionE}
	opts := make([]Option, 0, len(texts))
	for i, text := range texts {
		if text != nil {
			opts = append(opts, Option{Label: OptionLabels[i], Text: *text})
		}
	}
	return opts
}

// QuizPayload is the GET /quiz/{groupId} response body.
type QuizPayload struct {
	Group     QuizGroup  `json:"groupSoal"`
	Questions []Question `json:"soals"`
}

// Student identifies the authenticated quiz taker (GET /profile-siswa).
type Student struct {
	ID   string `json:"id"`
	Name string `json:"nama"`
}

// DetailedAnswer records what was submitted for one question. Answer is
// nil when the question was left unanswered; an unanswered question is
// never correct.
type DetailedAnswer struct {
	SoalID  string  `json:"soalId"`
	Answer  *string `json:"jawaban"`
	Correct bool    `json:"benar"`
}

// QuizResult is the outcome computed by the scoring engine. It is created
// once at submission time and never mutated afterward.
type QuizResult struct {
	Percentage   int              `json:"skor"`
	CorrectCount int              `json:"jumlahJawabanBenar"`
	TotalCount   int              `json:"jumlahSoal"`
	Details      []DetailedAnswer `json:"detailedAnswers"`
}

// Submission is the POST /quiz/submit request body.
type Submission struct {
	Skor         int              `json:"skor" validate:"min=0,max=100"`
	CorrectCount int              `json:"jumlahJawabanBenar" validate:"min=0"`
	SiswaID      string           `json:"siswaId" validate:"required"`
	GroupSoalID  string           `json:"groupSoalId" validate:"required"`
	Details      []DetailedAnswer `json:"detailedAnswers" validate:"required,min=1"`
}

// SubmitResponse is the POST /quiz/submit response body.
type SubmitResponse struct {
	Success bool   `json:"success"`
	NilaiID string `json:"nilaiId"`
	Message string `json:"message,omitempty"`
}

// StoredResult is the persisted record served by GET /quiz-result/{id},
// consumed by the downstream result-display screen.
type StoredResult struct {
	ID           string           `json:"id"`
	SiswaID      string           `json:"siswaId"`
	GroupSoalID  string           `json:"groupSoalId"`
	Skor         int              `json:"skor"`
	CorrectCount int              `json:"jumlahJawabanBenar"`
	TotalCount   int              `json:"jumlahSoal"`
	Details      []DetailedAnswer `json:"detailedAnswers"`
	CreatedAt    time.Time        `json:"createdAt"`
}
