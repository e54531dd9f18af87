// Package grading is the pure scoring engine: it maps questions and
// submitted answers to earned points, and folds per-question verdicts
// into a final evaluation result. Nothing in here touches storage or
// the clock.
package grading

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/traindesk/traindesk-backend/internal/model"
)

// ErrNoGradablePoints is returned when every question in an evaluation
// is worth zero points. Such a configuration has no defined percentage
// and must be rejected before any attempt starts.
var ErrNoGradablePoints = errors.New("evaluation has zero total points")

// Verdict is the outcome of grading one question. IsCorrect is nil for
// open-ended types, which have no deterministic correctness test.
type Verdict struct {
	IsCorrect    *bool
	PointsEarned int
}

// Grade scores a single question against a submitted answer.
//
// Multiple-choice and true/false questions compare with exact string
// equality — option strings are canonical, so no normalization is
// applied. Short-answer and essay questions are never auto-graded: the
// reference answer is advisory and PointsEarned stays zero pending a
// manual grading step. An absent or empty answer always scores zero.
func Grade(q model.Question, submitted string) Verdict {
	if submitted == "" {
		incorrect := false
		return Verdict{IsCorrect: &incorrect}
	}

	if !q.QuestionType.AutoGradable() {
		return Verdict{}
	}

	correct := submitted == q.CorrectAnswer
	v := Verdict{IsCorrect: &correct}
	if correct {
		v.PointsEarned = q.Points
	}
	return v
}

// TotalPoints sums the point values of a question set.
func TotalPoints(questions []model.Question) int {
	total := 0
	for _, q := range questions {
		total += q.Points
	}
	return total
}

// Aggregate grades every question of an evaluation against the answers
// recorded at the instant the attempt left in_progress, and builds the
// final result. Identity and timing fields beyond TimeTakenMinutes are
// filled by the caller.
func Aggregate(eval *model.Evaluation, questions []model.Question, answers map[uuid.UUID]string, timeTaken time.Duration) model.Result {
	score := 0
	total := 0
	for _, q := range questions {
		total += q.Points
		score += Grade(q, answers[q.ID]).PointsEarned
	}

	percentage := 0
	if total > 0 {
		percentage = int(math.Round(100 * float64(score) / float64(total)))
	}

	return model.Result{
		EvaluationID:     eval.ID,
		Score:            score,
		TotalPoints:      total,
		Percentage:       percentage,
		IsPassed:         percentage >= eval.PassingScore,
		TimeTakenMinutes: int(timeTaken.Minutes()),
	}
}

// Review builds the post-submission review list: every question with
// the learner's answer, its verdict, and the reference answer for
// open-ended types.
func Review(questions []model.Question, answers map[uuid.UUID]string) []model.QuestionReview {
	reviews := make([]model.QuestionReview, len(questions))
	for i, q := range questions {
		v := Grade(q, answers[q.ID])
		reviews[i] = model.QuestionReview{
			QuestionID:      q.ID,
			QuestionType:    q.QuestionType,
			SubmittedAnswer: answers[q.ID],
			ReferenceAnswer: q.CorrectAnswer,
			IsCorrect:       v.IsCorrect,
			PointsEarned:    v.PointsEarned,
			Points:          q.Points,
		}
	}
	return reviews
}
