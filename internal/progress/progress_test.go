package progress

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/traindesk/traindesk-backend/internal/model"
)

func chain(n int) []model.Lesson {
	lessons := make([]model.Lesson, n)
	for i := range lessons {
		lessons[i] = model.Lesson{ID: uuid.New(), OrderNum: i + 1}
	}
	return lessons
}

func completedSet(ids ...uuid.UUID) func(uuid.UUID) bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return func(id uuid.UUID) bool { return set[id] }
}

func TestReduceMonotonic(t *testing.T) {
	now := time.Now()
	p := &model.UserProgress{CompletionPercentage: 60}

	if !Reduce(p, 80, now) {
		t.Error("higher value should apply")
	}
	if p.CompletionPercentage != 80 {
		t.Errorf("expected 80, got %d", p.CompletionPercentage)
	}

	// Lower and equal reports leave the stored value untouched.
	if Reduce(p, 40, now) {
		t.Error("lower value should not apply")
	}
	if Reduce(p, 80, now) {
		t.Error("equal value should not apply")
	}
	if p.CompletionPercentage != 80 {
		t.Errorf("expected 80 after stale reports, got %d", p.CompletionPercentage)
	}
}

func TestReduceClamping(t *testing.T) {
	now := time.Now()

	p := &model.UserProgress{}
	Reduce(p, 250, now)
	if p.CompletionPercentage != Completed {
		t.Errorf("expected clamp to 100, got %d", p.CompletionPercentage)
	}

	p = &model.UserProgress{CompletionPercentage: 10}
	if Reduce(p, -5, now) {
		t.Error("negative report should clamp to 0 and not apply")
	}
}

func TestReduceCompletedAtStampedOnce(t *testing.T) {
	first := time.Now()
	p := &model.UserProgress{}

	Reduce(p, 100, first)
	if !p.IsCompleted || p.CompletedAt == nil {
		t.Fatal("expected completion on reaching 100")
	}
	stamped := *p.CompletedAt

	// A later re-report must not move the completion timestamp.
	Reduce(p, 100, first.Add(time.Hour))
	if !p.CompletedAt.Equal(stamped) {
		t.Error("completed_at must be stamped exactly once")
	}
}

func TestReduceUpdatesLastAccessed(t *testing.T) {
	now := time.Now()
	p := &model.UserProgress{CompletionPercentage: 90}

	// Even a rejected report counts as access.
	Reduce(p, 10, now)
	if !p.LastAccessedAt.Equal(now) {
		t.Error("last_accessed_at should update on every report")
	}
}

func TestModulePercentage(t *testing.T) {
	lessons := chain(3)
	byLesson := map[uuid.UUID]int{
		lessons[0].ID: 100,
		lessons[1].ID: 50,
		// Third lesson untouched: counts as 0.
	}

	if got := ModulePercentage(lessons, byLesson); got != 50 {
		t.Errorf("expected mean 50, got %d", got)
	}
	if got := ModulePercentage(nil, nil); got != 0 {
		t.Errorf("empty module should be 0, got %d", got)
	}
}

func TestModulePercentageRounding(t *testing.T) {
	lessons := chain(3)
	byLesson := map[uuid.UUID]int{
		lessons[0].ID: 100,
		lessons[1].ID: 100,
	}
	// 200/3 = 66.67, rounds to 67.
	if got := ModulePercentage(lessons, byLesson); got != 67 {
		t.Errorf("expected 67, got %d", got)
	}
}

func TestIsLessonUnlocked(t *testing.T) {
	lessons := chain(4)
	done := completedSet(lessons[0].ID, lessons[1].ID)

	if !IsLessonUnlocked(lessons[0], lessons, done) {
		t.Error("first lesson is always unlocked")
	}
	if !IsLessonUnlocked(lessons[2], lessons, done) {
		t.Error("lesson 3 should unlock once lesson 2 is completed")
	}
	if IsLessonUnlocked(lessons[3], lessons, done) {
		t.Error("lesson 4 should stay locked behind incomplete lesson 3")
	}
}

func TestIsLessonUnlockedMissingPredecessor(t *testing.T) {
	// Orders 1 and 3 with no 2: the gap fails open.
	lessons := []model.Lesson{
		{ID: uuid.New(), OrderNum: 1},
		{ID: uuid.New(), OrderNum: 3},
	}
	if !IsLessonUnlocked(lessons[1], lessons, completedSet()) {
		t.Error("missing predecessor should fail open")
	}
}

func TestNextUnlockedLesson(t *testing.T) {
	lessons := chain(4)
	done := completedSet(lessons[0].ID, lessons[1].ID)

	next := NextUnlockedLesson(lessons, done)
	if next == nil {
		t.Fatal("expected a frontier lesson")
	}
	if next.ID != lessons[2].ID {
		t.Errorf("expected lesson 3 on the frontier, got order %d", next.OrderNum)
	}
}

func TestNextUnlockedLessonAllCompleted(t *testing.T) {
	lessons := chain(2)
	done := completedSet(lessons[0].ID, lessons[1].ID)

	if next := NextUnlockedLesson(lessons, done); next != nil {
		t.Errorf("finished module should have no frontier, got order %d", next.OrderNum)
	}
}

func TestNextUnlockedLessonUnordered(t *testing.T) {
	// Input order must not matter.
	lessons := chain(3)
	shuffled := []model.Lesson{lessons[2], lessons[0], lessons[1]}

	next := NextUnlockedLesson(shuffled, completedSet())
	if next == nil || next.OrderNum != 1 {
		t.Error("frontier of a fresh module is lesson 1")
	}
}
