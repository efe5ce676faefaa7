package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"greensys-quiz-service/internal/domain"
)

// State is the top-level session state. Transitions only ever move to a
// higher state; Instructions and Active are not re-enterable once
// Submitting is reached, which is what enforces at-most-one attempt per
// session instance.
type State int

const (
	StateIdle State = iota
	StateInstructions
	StateActive
	StateSubmitting
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInstructions:
		return "instructions"
	case StateActive:
		return "active"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// MarshalJSON renders the state name, not the ordinal, on the wire.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

var (
	// ErrNotActive is returned for answer/navigation/finish operations
	// outside the Active state.
	ErrNotActive = errors.New("session is not active")
	// ErrNotInstructions is returned when Begin is called twice or after
	// the attempt has moved on.
	ErrNotInstructions = errors.New("attempt already started")
	// ErrSessionClosed is returned once the session has been torn down.
	ErrSessionClosed = errors.New("session closed")
)

// EventType tags the events a session pushes to its subscriber.
type EventType string

const (
	EventState     EventType = "state"
	EventTick      EventType = "tick"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
)

// Event is one session update. Snapshot is set for state events; Result,
// NilaiID and Message accompany the terminal events.
type Event struct {
	Type      EventType
	Remaining int
	Snapshot  Snapshot
	Result    *domain.QuizResult
	NilaiID   string
	Message   string
}

// Snapshot is a self-contained view of the session for rendering: the
// current question, the chosen label (empty if unanswered), and the
// answered-vs-total progress shown on the confirmation step.
type Snapshot struct {
	State     State           `json:"state"`
	Index     int             `json:"index"`
	Question  domain.Question `json:"question"`
	Chosen    string          `json:"chosen"`
	Answered  int             `json:"answered"`
	Total     int             `json:"total"`
	Progress  int             `json:"progress"`
	Remaining int             `json:"remaining"`
}

// Session is one student's single attempt at a quiz group, from
// instructions to submission. All mutable state lives behind one mutex;
// the timer goroutine and the user-interaction path both funnel into the
// same guarded methods, so whichever reaches Submitting first wins and
// the clock is stopped before the other trigger can fire.
type Session struct {
	mu        sync.Mutex
	state     State
	group     domain.QuizGroup
	questions []domain.Question
	student   domain.Student
	answers   *AnswerSheet
	nav       *Navigator
	clock     *Countdown

	result  *domain.QuizResult
	nilaiID string
	failure string
	closed  bool

	subscribers map[chan Event]struct{}

	submitter *Submitter
	token     string
}

// NewSession builds a session from a loaded attempt. Construction follows
// a successful load, so the session starts in Instructions (Idle exists
// only before the fetch completes).
func NewSession(att Attempt, submitter *Submitter, token string) *Session {
	s := &Session{
		state:       StateInstructions,
		group:       att.Group,
		questions:   att.Questions,
		student:     att.Student,
		answers:     NewAnswerSheet(),
		nav:         NewNavigator(len(att.Questions)),
		subscribers: make(map[chan Event]struct{}),
		submitter:   submitter,
		token:       token,
	}
	s.clock = NewCountdown(s.handleTick, s.handleExpiry)
	return s
}

// Begin starts the attempt: Instructions -> Active, clock armed with the
// full duration.
func (s *Session) Begin() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state != StateInstructions {
		s.mu.Unlock()
		return ErrNotInstructions
	}
	s.state = StateActive
	s.mu.Unlock()

	s.clock.Start(s.group.DurationMinutes * 60)
	s.broadcastState()
	return nil
}

// SelectAnswer upserts the chosen label for a question. Last write wins.
func (s *Session) SelectAnswer(questionID, label string) error {
	return s.mutateActive(func() {
		s.answers.Select(questionID, label)
	})
}

func (s *Session) Next() error {
	return s.mutateActive(func() { s.nav.Next() })
}

func (s *Session) Previous() error {
	return s.mutateActive(func() { s.nav.Previous() })
}

func (s *Session) JumpTo(index int) error {
	return s.mutateActive(func() { s.nav.JumpTo(index) })
}

func (s *Session) mutateActive(fn func()) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state != StateActive {
		s.mu.Unlock()
		return ErrNotActive
	}
	fn()
	s.mu.Unlock()
	s.broadcastState()
	return nil
}

// Finish is the user-confirmed completion trigger.
func (s *Session) Finish(ctx context.Context) error {
	return s.finish(ctx)
}

func (s *Session) handleTick(remaining int) {
	s.broadcast(Event{Type: EventTick, Remaining: remaining})
}

// handleExpiry runs on the timer goroutine. Time-out is a normal
// completion trigger, not a fault, so it takes the same path as Finish.
func (s *Session) handleExpiry() {
	_ = s.finish(context.Background())
}

// finish moves Active -> Submitting, scores the sheet, and sends the
// result once. The network call happens outside the lock; a response
// that lands after Close is discarded rather than mutating a dead
// session. The session always reaches Completed or Failed from here.
func (s *Session) finish(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateActive {
		// The other trigger (user finish vs expiry) got here first.
		s.mu.Unlock()
		return ErrNotActive
	}
	s.state = StateSubmitting
	s.clock.Stop()
	res := Score(s.questions, s.answers.Snapshot())
	s.result = &res
	sub := BuildSubmission(Attempt{Student: s.student, Group: s.group, Questions: s.questions}, res)
	token := s.token
	s.mu.Unlock()

	s.broadcastState()

	nilaiID, err := s.submitter.Submit(ctx, token, sub)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if err != nil {
		s.state = StateFailed
		s.failure = err.Error()
		s.answers.Clear()
		s.mu.Unlock()
		s.broadcast(Event{Type: EventFailed, Result: &res, Message: err.Error()})
		return nil
	}
	s.state = StateCompleted
	s.nilaiID = nilaiID
	s.answers.Clear()
	s.mu.Unlock()
	s.broadcast(Event{Type: EventCompleted, Result: &res, NilaiID: nilaiID})
	return nil
}

// Subscribe returns a channel of session events. The caller must invoke
// the cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := Event{Type: EventState, Snapshot: s.snapshotLocked()}
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close tears the session down: the clock stops, late submit responses
// are discarded, and subscriber channels are closed. Idempotent.
func (s *Session) Close() {
	s.clock.Stop()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.answers.Clear()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.mu.Unlock()
}

func (s *Session) broadcastState() {
	s.mu.Lock()
	ev := Event{Type: EventState, Snapshot: s.snapshotLocked()}
	s.mu.Unlock()
	s.broadcast(ev)
}

func (s *Session) broadcast(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest update so a slow reader never blocks the
			// timer or the submit path.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:     s.state,
		Index:     s.nav.Current(),
		Answered:  s.answers.Count(),
		Total:     len(s.questions),
		Remaining: s.clock.Remaining(),
	}
	snap.Progress = ProgressPercent(snap.Answered, snap.Total)
	if snap.Index >= 0 && snap.Index < len(s.questions) {
		snap.Question = s.questions[snap.Index]
		if label, ok := s.answers.Get(snap.Question.ID); ok {
			snap.Chosen = label
		}
	}
	return snap
}

// State returns the current top-level state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the locally computed result, if scoring has run. It
// survives a failed submission; persistence failing does not destroy the
// score.
func (s *Session) Result() *domain.QuizResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// NilaiID returns the backend-issued result identifier after Completed.
func (s *Session) NilaiID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nilaiID
}

// FailureMessage returns the user-facing message after Failed.
func (s *Session) FailureMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Snapshot returns a rendering view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// AnsweredCount reports how many questions have an answer.
func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Count()
}

// Student returns the quiz taker.
func (s *Session) Student() domain.Student {
	return s.student
}

// Group returns the quiz definition.
func (s *Session) Group() domain.QuizGroup {
	return s.group
}

// Tick exposes the clock's deterministic tick for tests.
func (s *Session) Tick() bool {
	return s.clock.Tick()
}
