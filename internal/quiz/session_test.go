package quiz_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"greensys-quiz-service/internal/domain"
	"greensys-quiz-service/internal/quiz"
)

func TestSessionHappyPath(t *testing.T) {
	sink := &fakeSink{resp: domain.SubmitResponse{Success: true, NilaiID: "nilai-1"}}
	session := newTestSession(t, 5, 1, sink)

	if session.State() != quiz.StateInstructions {
		t.Fatalf("expected instructions state, got %v", session.State())
	}
	if err := session.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}

	// Four correct answers, one wrong, through the normal navigation flow.
	questions := testQuestions(5)
	for i, q := range questions {
		label := q.Answer
		if i == 4 {
			label = "B"
		}
		if err := session.SelectAnswer(q.ID, label); err != nil {
			t.Fatalf("select answer %d: %v", i, err)
		}
		if session.AnsweredCount() > len(questions) {
			t.Fatalf("answered count exceeded total: %d", session.AnsweredCount())
		}
		session.Next()
	}

	if err := session.Finish(context.Background()); err != nil {
		t.Fatalf("finish: %v", err)
	}

	if session.State() != quiz.StateCompleted {
		t.Fatalf("expected completed, got %v", session.State())
	}
	if session.NilaiID() != "nilai-1" {
		t.Fatalf("expected nilai-1, got %q", session.NilaiID())
	}
	res := session.Result()
	if res == nil || res.Percentage != 80 || res.CorrectCount != 4 || res.TotalCount != 5 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if sink.count() != 1 {
		t.Fatalf("expected exactly one submission, got %d", sink.count())
	}
	if sink.lastSubmission().SiswaID != "siswa-1" || sink.lastSubmission().GroupSoalID != "group-1" {
		t.Fatalf("submission missing identity: %+v", sink.lastSubmission())
	}
}

func TestSessionSubmitFailureKeepsLocalResult(t *testing.T) {
	sink := &fakeSink{err: fmt.Errorf("%w: connection refused", domain.ErrNetwork)}
	session := newTestSession(t, 3, 1, sink)

	if err := session.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	questions := testQuestions(3)
	_ = session.SelectAnswer(questions[0].ID, questions[0].Answer)

	if err := session.Finish(context.Background()); err != nil {
		t.Fatalf("finish: %v", err)
	}

	if session.State() != quiz.StateFailed {
		t.Fatalf("expected failed, got %v", session.State())
	}
	res := session.Result()
	if res == nil || res.CorrectCount != 1 || res.Percentage != 33 {
		t.Fatalf("local result should survive a failed submit, got %+v", res)
	}
	if session.FailureMessage() == "" {
		t.Fatalf("expected a user-facing failure message")
	}
}

func TestSessionExpiryAutoSubmits(t *testing.T) {
	sink := &fakeSink{resp: domain.SubmitResponse{Success: true, NilaiID: "nilai-2"}}
	session := newTestSession(t, 10, 1, sink)

	if err := session.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	questions := testQuestions(10)
	_ = session.SelectAnswer(questions[0].ID, questions[0].Answer)
	_ = session.SelectAnswer(questions[1].ID, questions[1].Answer)

	for i := 0; i < 60; i++ {
		session.Tick()
	}

	if session.State() != quiz.StateCompleted {
		t.Fatalf("expected completed after expiry, got %v", session.State())
	}
	res := session.Result()
	if res == nil || res.CorrectCount != 2 || res.Percentage != 20 {
		t.Fatalf("expected 2/10 scored from the answered questions, got %+v", res)
	}

	// The clock keeps getting ticked; nothing may submit twice.
	for i := 0; i < 10; i++ {
		session.Tick()
	}
	if sink.count() != 1 {
		t.Fatalf("expected exactly one submission, got %d", sink.count())
	}
}

func TestSessionIsOneWay(t *testing.T) {
	sink := &fakeSink{resp: domain.SubmitResponse{Success: true, NilaiID: "nilai-3"}}
	session := newTestSession(t, 2, 1, sink)

	if err := session.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := session.Begin(); !errors.Is(err, quiz.ErrNotInstructions) {
		t.Fatalf("expected ErrNotInstructions on double begin, got %v", err)
	}

	if err := session.Finish(context.Background()); err != nil {
		t.Fatalf("finish: %v", err)
	}

	if err := session.Begin(); !errors.Is(err, quiz.ErrNotInstructions) {
		t.Fatalf("begin after completion should fail, got %v", err)
	}
	if err := session.SelectAnswer("soal-a", "A"); !errors.Is(err, quiz.ErrNotActive) {
		t.Fatalf("answer after completion should fail, got %v", err)
	}
	if err := session.Next(); !errors.Is(err, quiz.ErrNotActive) {
		t.Fatalf("navigation after completion should fail, got %v", err)
	}
	if err := session.Finish(context.Background()); !errors.Is(err, quiz.ErrNotActive) {
		t.Fatalf("second finish should fail, got %v", err)
	}
	if sink.count() != 1 {
		t.Fatalf("expected exactly one submission, got %d", sink.count())
	}
}

func TestSessionCloseDiscardsLateResponse(t *testing.T) {
	release := make(chan struct{})
	sink := &fakeSink{
		resp:  domain.SubmitResponse{Success: true, NilaiID: "nilai-4"},
		block: release,
	}
	session := newTestSession(t, 2, 1, sink)

	if err := session.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- session.Finish(context.Background()) }()

	sink.waitForCall(t)
	session.Close()
	close(release)

	if err := <-done; !errors.Is(err, quiz.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed for the late response, got %v", err)
	}
	if session.State() == quiz.StateCompleted {
		t.Fatalf("closed session must not complete from a late response")
	}
}

func TestSessionEmitsTerminalEvent(t *testing.T) {
	sink := &fakeSink{resp: domain.SubmitResponse{Success: true, NilaiID: "nilai-5"}}
	session := newTestSession(t, 2, 1, sink)

	events, cancel := session.Subscribe()
	defer cancel()
	<-events // initial snapshot

	if err := session.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := session.Finish(context.Background()); err != nil {
		t.Fatalf("finish: %v", err)
	}

	for ev := range events {
		if ev.Type == quiz.EventCompleted {
			if ev.NilaiID != "nilai-5" || ev.Result == nil {
				t.Fatalf("completed event incomplete: %+v", ev)
			}
			return
		}
	}
	t.Fatalf("never saw the completed event")
}

func newTestSession(t *testing.T, questionCount, durationMinutes int, sink *fakeSink) *quiz.Session {
	t.Helper()
	att := quiz.Attempt{
		Student: domain.Student{ID: "siswa-1", Name: "Siswa Uji"},
		Group: domain.QuizGroup{
			ID:              "group-1",
			Title:           "Kuis Uji",
			DurationMinutes: durationMinutes,
			KelasID:         "kelas-1",
			ModulID:         "modul-1",
		},
		Questions: testQuestions(questionCount),
	}
	session := quiz.NewSession(att, quiz.NewSubmitter(sink), "token-uji")
	t.Cleanup(session.Close)
	return session
}

func testQuestions(n int) []domain.Question {
	a, b := "pilihan a", "pilihan b"
	questions := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, domain.Question{
			ID:      fmt.Sprintf("soal-%d", i+1),
			Prompt:  "pertanyaan",
			OptionA: &a,
			OptionB: &b,
			Answer:  "A",
		})
	}
	return questions
}

type fakeSink struct {
	mu     sync.Mutex
	calls  int
	last   domain.Submission
	resp   domain.SubmitResponse
	err    error
	block  chan struct{}
	called chan struct{}
}

func (f *fakeSink) SubmitResult(_ context.Context, _ string, sub domain.Submission) (domain.SubmitResponse, error) {
	f.mu.Lock()
	f.calls++
	f.last = sub
	if f.called != nil {
		close(f.called)
		f.called = nil
	}
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.err != nil {
		return domain.SubmitResponse{}, f.err
	}
	return f.resp, nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSink) lastSubmission() domain.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *fakeSink) waitForCall(t *testing.T) {
	t.Helper()
	f.mu.Lock()
	if f.calls > 0 {
		f.mu.Unlock()
		return
	}
	ch := make(chan struct{})
	f.called = ch
	f.mu.Unlock()
	<-ch
}
