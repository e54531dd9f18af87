package attempt

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/traindesk/traindesk-backend/internal/model"
)

func questionIDs(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}

func TestNewMachine(t *testing.T) {
	evalID := uuid.New()
	started := time.Now()

	m := New(evalID, 7, questionIDs(5), 10, started)
	snap := m.Snapshot()

	if snap.Status != model.AttemptStatusInProgress {
		t.Errorf("expected in_progress, got %s", snap.Status)
	}
	if snap.TimeRemainingSeconds != 600 {
		t.Errorf("expected 600s remaining, got %d", snap.TimeRemainingSeconds)
	}
	if snap.CurrentQuestionIndex != 0 {
		t.Errorf("expected cursor 0, got %d", snap.CurrentQuestionIndex)
	}

	untimed := New(evalID, 7, questionIDs(5), 0, started)
	if untimed.Snapshot().TimeRemainingSeconds != Untimed {
		t.Error("zero limit should create an untimed machine")
	}
}

func TestAnswerOverwrite(t *testing.T) {
	ids := questionIDs(3)
	m := New(uuid.New(), 1, ids, 0, time.Now())

	if err := m.Answer(ids[0], "first"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := m.Answer(ids[0], "second"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got := m.Snapshot().Answers[ids[0]]; got != "second" {
		t.Errorf("expected overwritten answer, got %q", got)
	}
}

func TestAnswerUnknownQuestion(t *testing.T) {
	ids := questionIDs(2)
	m := New(uuid.New(), 1, ids, 0, time.Now())

	stray := uuid.New()
	if err := m.Answer(stray, "x"); !errors.Is(err, ErrUnknownQuestion) {
		t.Fatalf("expected ErrUnknownQuestion, got %v", err)
	}
	if _, ok := m.Snapshot().Answers[stray]; ok {
		t.Error("rejected answer must not be recorded")
	}

	// Known IDs are unaffected.
	if err := m.Answer(ids[1], "ok"); err != nil {
		t.Fatalf("answer to known question: %v", err)
	}
}

func TestGotoClamping(t *testing.T) {
	m := New(uuid.New(), 1, questionIDs(5), 0, time.Now())

	cases := []struct {
		request  int
		expected int
	}{
		{2, 2},
		{-3, 0},
		{99, 4},
		{0, 0},
	}
	for _, c := range cases {
		if err := m.Goto(c.request); err != nil {
			t.Fatalf("goto %d: %v", c.request, err)
		}
		if got := m.Snapshot().CurrentQuestionIndex; got != c.expected {
			t.Errorf("goto %d: expected cursor %d, got %d", c.request, c.expected, got)
		}
	}
}

func TestSubmitFreezesState(t *testing.T) {
	ids := questionIDs(3)
	m := New(uuid.New(), 1, ids, 0, time.Now())
	_ = m.Answer(ids[0], "final")

	snap, err := m.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if snap.Status != model.AttemptStatusSubmitted {
		t.Errorf("expected submitted, got %s", snap.Status)
	}
	if !m.Closed() {
		t.Error("machine should be closed after submit")
	}

	// Every mutation after close fails with ErrClosed.
	if err := m.Answer(ids[0], "late"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed on late answer, got %v", err)
	}
	if err := m.Goto(1); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed on late goto, got %v", err)
	}
	if _, err := m.Submit(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed on double submit, got %v", err)
	}

	// The snapshot owns its answers map: late writes cannot reach it.
	if snap.Answers[ids[0]] != "final" {
		t.Errorf("frozen snapshot changed: %q", snap.Answers[ids[0]])
	}
}

func TestTickExpiry(t *testing.T) {
	ids := questionIDs(2)
	m := New(uuid.New(), 1, ids, 1, time.Now()) // 60 seconds
	_ = m.Answer(ids[0], "answered before the clock ran out")

	for i := 0; i < 59; i++ {
		if snap, expired := m.Tick(); expired {
			t.Fatalf("expired early at tick %d: %+v", i+1, snap)
		}
	}

	snap, expired := m.Tick()
	if !expired {
		t.Fatal("expected expiry on the 60th tick")
	}
	if snap.Status != model.AttemptStatusExpired {
		t.Errorf("expected expired, got %s", snap.Status)
	}
	if snap.Answers[ids[0]] == "" {
		t.Error("expiry must grade the recorded answers")
	}

	// Further ticks are no-ops.
	if _, again := m.Tick(); again {
		t.Error("tick after expiry should be a no-op")
	}
}

func TestTickUntimed(t *testing.T) {
	m := New(uuid.New(), 1, questionIDs(2), 0, time.Now())
	for i := 0; i < 100; i++ {
		if _, expired := m.Tick(); expired {
			t.Fatal("untimed machine must never expire")
		}
	}
}

func TestResume(t *testing.T) {
	evalID := uuid.New()
	ids := questionIDs(3)
	started := time.Now().Add(-30 * time.Second)

	m := Resume(evalID, 1, ids, map[uuid.UUID]string{ids[0]: "kept"}, started, 30)
	snap := m.Snapshot()

	if snap.Status != model.AttemptStatusInProgress {
		t.Errorf("resumed machine should be in_progress, got %s", snap.Status)
	}
	if snap.TimeRemainingSeconds != 30 {
		t.Errorf("expected 30s remaining, got %d", snap.TimeRemainingSeconds)
	}
	if snap.Answers[ids[0]] != "kept" {
		t.Error("resumed machine lost recorded answers")
	}
}

func TestResumeDropsStrayAnswers(t *testing.T) {
	ids := questionIDs(2)
	stray := uuid.New()
	mirror := map[uuid.UUID]string{
		ids[0]: "kept",
		stray:  "from a deleted question",
	}

	m := Resume(uuid.New(), 1, ids, mirror, time.Now(), Untimed)
	snap := m.Snapshot()

	if snap.Answers[ids[0]] != "kept" {
		t.Error("resume lost a valid answer")
	}
	if _, ok := snap.Answers[stray]; ok {
		t.Error("resume kept an answer for a question outside the evaluation")
	}
}

func TestResumePastDeadline(t *testing.T) {
	m := Resume(uuid.New(), 1, questionIDs(3), nil, time.Now().Add(-time.Hour), -120)

	snap, expired := m.Tick()
	if !expired {
		t.Fatal("machine resumed past its deadline should expire on first tick")
	}
	if snap.Status != model.AttemptStatusExpired {
		t.Errorf("expected expired, got %s", snap.Status)
	}
}

func TestSnapshotElapsed(t *testing.T) {
	now := time.Now()

	timed := Snapshot{TimeRemainingSeconds: 540, StartedAt: now.Add(-time.Minute)}
	if got := timed.Elapsed(now, 10); got != time.Minute {
		t.Errorf("expected 1m elapsed from countdown, got %s", got)
	}

	untimed := Snapshot{TimeRemainingSeconds: Untimed, StartedAt: now.Add(-5 * time.Minute)}
	if got := untimed.Elapsed(now, 0); got != 5*time.Minute {
		t.Errorf("expected 5m elapsed from wall clock, got %s", got)
	}
}

func TestSnapshotState(t *testing.T) {
	qID := uuid.New()
	snap := Snapshot{
		EvaluationID:         uuid.New(),
		UserID:               3,
		Status:               model.AttemptStatusInProgress,
		Answers:              map[uuid.UUID]string{qID: "a"},
		TimeRemainingSeconds: 42,
	}

	state := snap.State()
	if state.TimeRemainingSeconds == nil || *state.TimeRemainingSeconds != 42 {
		t.Error("timed state should expose remaining seconds")
	}
	if state.Answers[qID.String()] != "a" {
		t.Error("state lost answers")
	}

	snap.TimeRemainingSeconds = Untimed
	if snap.State().TimeRemainingSeconds != nil {
		t.Error("untimed state should omit remaining seconds")
	}
}
