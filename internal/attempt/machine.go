// Package attempt implements the evaluation attempt state machine: a
// single learner's run through an evaluation, from in_progress to
// submitted or expired. The machine is in-memory and safe for
// concurrent use by the HTTP handlers, the WebSocket stream, and the
// countdown timer.
package attempt

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/traindesk/traindesk-backend/internal/model"
)

// ErrClosed is returned for any mutation after the attempt has left
// in_progress. Callers must be told the attempt is closed rather than
// having writes silently dropped.
var ErrClosed = errors.New("attempt is closed")

// ErrUnknownQuestion is returned when an answer names a question that
// is not part of the evaluation. Rejecting it here keeps the Redis
// mirror and the attempt_answers rows free of stray IDs.
var ErrUnknownQuestion = errors.New("question is not part of this evaluation")

// Untimed marks a machine without a countdown.
const Untimed = -1

// Snapshot is an immutable copy of the machine state, taken at the
// instant of a transition. The Answers map is owned by the snapshot;
// late writes to the machine can never reach it.
type Snapshot struct {
	EvaluationID         uuid.UUID
	UserID               int
	Status               model.AttemptStatus
	CurrentQuestionIndex int
	Answers              map[uuid.UUID]string
	StartedAt            time.Time
	TimeRemainingSeconds int // Untimed (-1) when no countdown.
}

// Machine manages one attempt's lifecycle. All methods are safe for
// concurrent use.
type Machine struct {
	mu sync.Mutex

	evaluationID uuid.UUID
	userID       int
	questions    map[uuid.UUID]struct{}

	status    model.AttemptStatus
	index     int
	answers   map[uuid.UUID]string
	startedAt time.Time
	remaining int // Seconds; Untimed when no countdown.
}

// New creates an in_progress machine over the evaluation's question
// set. timeLimitMinutes <= 0 means untimed.
func New(evaluationID uuid.UUID, userID int, questionIDs []uuid.UUID, timeLimitMinutes int, startedAt time.Time) *Machine {
	remaining := Untimed
	if timeLimitMinutes > 0 {
		remaining = timeLimitMinutes * 60
	}
	questions := make(map[uuid.UUID]struct{}, len(questionIDs))
	for _, id := range questionIDs {
		questions[id] = struct{}{}
	}
	return &Machine{
		evaluationID: evaluationID,
		userID:       userID,
		questions:    questions,
		status:       model.AttemptStatusInProgress,
		answers:      make(map[uuid.UUID]string),
		startedAt:    startedAt,
		remaining:    remaining,
	}
}

// Resume rebuilds a machine from persisted state after a restart.
// remainingSeconds is clamped at zero; a resumed machine at zero will
// expire on its first tick. Mirrored answers for questions no longer in
// the evaluation are dropped.
func Resume(evaluationID uuid.UUID, userID int, questionIDs []uuid.UUID, answers map[uuid.UUID]string, startedAt time.Time, remainingSeconds int) *Machine {
	m := New(evaluationID, userID, questionIDs, 0, startedAt)
	if remainingSeconds != Untimed {
		if remainingSeconds < 0 {
			remainingSeconds = 0
		}
		m.remaining = remainingSeconds
	}
	for id, ans := range answers {
		if _, ok := m.questions[id]; ok {
			m.answers[id] = ans
		}
	}
	return m
}

// Answer records or overwrites the answer for a question. The cursor
// does not move. Question IDs outside the evaluation are rejected.
func (m *Machine) Answer(questionID uuid.UUID, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != model.AttemptStatusInProgress {
		return ErrClosed
	}
	if _, ok := m.questions[questionID]; !ok {
		return ErrUnknownQuestion
	}
	m.answers[questionID] = value
	return nil
}

// Goto moves the cursor, clamping to the question range. All jumps
// are permitted at any time; there is no forward-only restriction.
func (m *Machine) Goto(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != model.AttemptStatusInProgress {
		return ErrClosed
	}
	if index < 0 {
		index = 0
	}
	if max := len(m.questions) - 1; index > max {
		index = max
	}
	m.index = index
	return nil
}

// Tick decrements the countdown by one second. When it reaches zero the
// machine transitions to expired and the frozen snapshot is returned —
// this is normal termination, not an error path. Ticks on untimed or
// already-closed machines are no-ops.
func (m *Machine) Tick() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != model.AttemptStatusInProgress || m.remaining == Untimed {
		return Snapshot{}, false
	}
	if m.remaining > 0 {
		m.remaining--
	}
	if m.remaining > 0 {
		return Snapshot{}, false
	}
	return m.finalizeLocked(model.AttemptStatusExpired), true
}

// Submit transitions to submitted and returns the frozen snapshot.
func (m *Machine) Submit() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != model.AttemptStatusInProgress {
		return Snapshot{}, ErrClosed
	}
	return m.finalizeLocked(model.AttemptStatusSubmitted), nil
}

// Snapshot returns a copy of the current state without transitioning.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Closed reports whether the machine has left in_progress.
func (m *Machine) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status != model.AttemptStatusInProgress
}

func (m *Machine) finalizeLocked(status model.AttemptStatus) Snapshot {
	m.status = status
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	answers := make(map[uuid.UUID]string, len(m.answers))
	for id, ans := range m.answers {
		answers[id] = ans
	}
	return Snapshot{
		EvaluationID:         m.evaluationID,
		UserID:               m.userID,
		Status:               m.status,
		CurrentQuestionIndex: m.index,
		Answers:              answers,
		StartedAt:            m.startedAt,
		TimeRemainingSeconds: m.remaining,
	}
}

// Elapsed returns the time taken so far, derived from the countdown for
// timed attempts and from the wall clock otherwise.
func (s Snapshot) Elapsed(now time.Time, timeLimitMinutes int) time.Duration {
	if s.TimeRemainingSeconds != Untimed && timeLimitMinutes > 0 {
		return time.Duration(timeLimitMinutes*60-s.TimeRemainingSeconds) * time.Second
	}
	return now.Sub(s.StartedAt)
}

// State converts the snapshot into the learner-facing API shape.
func (s Snapshot) State() *model.AttemptState {
	answers := make(map[string]string, len(s.Answers))
	for id, ans := range s.Answers {
		answers[id.String()] = ans
	}
	state := &model.AttemptState{
		EvaluationID:         s.EvaluationID,
		UserID:               s.UserID,
		Status:               s.Status,
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		Answers:              answers,
		StartedAt:            s.StartedAt,
	}
	if s.TimeRemainingSeconds != Untimed {
		remaining := s.TimeRemainingSeconds
		state.TimeRemainingSeconds = &remaining
	}
	return state
}
