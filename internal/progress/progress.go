// Package progress holds the pure lesson-unlocking and aggregation
// rules: monotonic per-lesson progress, module completion as the mean
// of its lessons, and the strictly linear unlock frontier.
package progress

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/traindesk/traindesk-backend/internal/model"
)

// Completed is the completion threshold for a lesson.
const Completed = 100

// Reduce merges an incoming completion percentage into a progress row,
// enforcing the monotonic rule: a lower or equal value never overwrites
// the stored one, so stale or out-of-order updates are harmless.
// CompletedAt is stamped once, on the first transition to completed.
// Returns true when the row changed.
func Reduce(p *model.UserProgress, percentage int, now time.Time) bool {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > Completed {
		percentage = Completed
	}

	p.LastAccessedAt = now
	if percentage <= p.CompletionPercentage {
		return false
	}

	p.CompletionPercentage = percentage
	if percentage >= Completed && !p.IsCompleted {
		p.IsCompleted = true
		completedAt := now
		p.CompletedAt = &completedAt
	}
	return true
}

// ModulePercentage is the arithmetic mean of the lessons' completion
// percentages, rounded. A module with no lessons is 0.
func ModulePercentage(lessons []model.Lesson, byLesson map[uuid.UUID]int) int {
	if len(lessons) == 0 {
		return 0
	}
	sum := 0
	for _, l := range lessons {
		sum += byLesson[l.ID]
	}
	return int(math.Round(float64(sum) / float64(len(lessons))))
}

// IsLessonUnlocked reports whether a lesson is reachable. The lesson
// with order 1 is always unlocked; lesson n requires lesson n-1 to be
// completed. A missing predecessor is a content-authoring gap and fails
// open — blocking all progress on a data error is worse than an
// accidental early unlock.
func IsLessonUnlocked(lesson model.Lesson, all []model.Lesson, completed func(uuid.UUID) bool) bool {
	if lesson.OrderNum <= 1 {
		return true
	}
	for _, prev := range all {
		if prev.OrderNum == lesson.OrderNum-1 {
			return completed(prev.ID)
		}
	}
	return true
}

// NextUnlockedLesson scans lessons in ascending order and returns the
// first one that is unlocked and not completed, or nil when the module
// is fully finished.
func NextUnlockedLesson(lessons []model.Lesson, completed func(uuid.UUID) bool) *model.Lesson {
	sorted := make([]model.Lesson, len(lessons))
	copy(sorted, lessons)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].OrderNum < sorted[j].OrderNum })

	for i := range sorted {
		if completed(sorted[i].ID) {
			continue
		}
		if IsLessonUnlocked(sorted[i], sorted, completed) {
			return &sorted[i]
		}
	}
	return nil
}
