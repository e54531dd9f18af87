package grading

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/traindesk/traindesk-backend/internal/model"
)

func question(qType model.QuestionType, correct string, points int) model.Question {
	return model.Question{
		ID:            uuid.New(),
		QuestionType:  qType,
		CorrectAnswer: correct,
		Points:        points,
	}
}

func TestGradeExactMatch(t *testing.T) {
	q := question(model.QuestionTypeMultipleChoice, "4", 10)

	v := Grade(q, "4")
	if v.IsCorrect == nil || !*v.IsCorrect {
		t.Error("expected correct verdict for exact match")
	}
	if v.PointsEarned != 10 {
		t.Errorf("expected 10 points, got %d", v.PointsEarned)
	}

	v = Grade(q, "5")
	if v.IsCorrect == nil || *v.IsCorrect {
		t.Error("expected incorrect verdict for mismatch")
	}
	if v.PointsEarned != 0 {
		t.Errorf("expected 0 points, got %d", v.PointsEarned)
	}
}

func TestGradeNoNormalization(t *testing.T) {
	q := question(model.QuestionTypeTrueFalse, "true", 5)

	// Comparison is byte-exact: case and whitespace differences fail.
	for _, submitted := range []string{"True", "TRUE", " true", "true "} {
		v := Grade(q, submitted)
		if v.IsCorrect == nil || *v.IsCorrect {
			t.Errorf("expected %q to be incorrect", submitted)
		}
		if v.PointsEarned != 0 {
			t.Errorf("expected 0 points for %q, got %d", submitted, v.PointsEarned)
		}
	}
}

func TestGradeEmptyAnswer(t *testing.T) {
	// An empty answer is always incorrect, even on open-ended types.
	for _, qType := range []model.QuestionType{
		model.QuestionTypeMultipleChoice,
		model.QuestionTypeTrueFalse,
		model.QuestionTypeShortAnswer,
		model.QuestionTypeEssay,
	} {
		v := Grade(question(qType, "anything", 10), "")
		if v.IsCorrect == nil || *v.IsCorrect {
			t.Errorf("%s: expected incorrect verdict for empty answer", qType)
		}
		if v.PointsEarned != 0 {
			t.Errorf("%s: expected 0 points, got %d", qType, v.PointsEarned)
		}
	}
}

func TestGradeOpenEndedNeverAutoGraded(t *testing.T) {
	// Even a byte-exact match with the reference answer earns nothing.
	for _, qType := range []model.QuestionType{model.QuestionTypeShortAnswer, model.QuestionTypeEssay} {
		v := Grade(question(qType, "photosynthesis", 10), "photosynthesis")
		if v.IsCorrect != nil {
			t.Errorf("%s: expected nil verdict, got %v", qType, *v.IsCorrect)
		}
		if v.PointsEarned != 0 {
			t.Errorf("%s: expected 0 points, got %d", qType, v.PointsEarned)
		}
	}
}

func TestAggregate(t *testing.T) {
	q1 := question(model.QuestionTypeMultipleChoice, "4", 10)
	q2 := question(model.QuestionTypeTrueFalse, "true", 5)
	q3 := question(model.QuestionTypeEssay, "", 15)

	eval := &model.Evaluation{ID: uuid.New(), PassingScore: 50}
	questions := []model.Question{q1, q2, q3}

	// q1 correct, q2 wrong, q3 answered but essay: 10 of 30 = 33%.
	answers := map[uuid.UUID]string{
		q1.ID: "4",
		q2.ID: "false",
		q3.ID: "some prose",
	}
	result := Aggregate(eval, questions, answers, 5*time.Minute)
	if result.Score != 10 {
		t.Errorf("expected score 10, got %d", result.Score)
	}
	if result.TotalPoints != 30 {
		t.Errorf("expected total 30, got %d", result.TotalPoints)
	}
	if result.Percentage != 33 {
		t.Errorf("expected 33%%, got %d%%", result.Percentage)
	}
	if result.IsPassed {
		t.Error("33%% should not pass at threshold 50")
	}
	if result.TimeTakenMinutes != 5 {
		t.Errorf("expected 5 minutes, got %d", result.TimeTakenMinutes)
	}
}

func TestAggregatePassAtThreshold(t *testing.T) {
	q1 := question(model.QuestionTypeMultipleChoice, "a", 1)
	q2 := question(model.QuestionTypeMultipleChoice, "b", 1)
	eval := &model.Evaluation{ID: uuid.New(), PassingScore: 50}

	result := Aggregate(eval, []model.Question{q1, q2}, map[uuid.UUID]string{q1.ID: "a"}, 0)
	if result.Percentage != 50 {
		t.Errorf("expected 50%%, got %d%%", result.Percentage)
	}
	if !result.IsPassed {
		t.Error("passing score is inclusive: 50%% must pass at threshold 50")
	}
}

func TestAggregateUnanswered(t *testing.T) {
	q1 := question(model.QuestionTypeMultipleChoice, "a", 10)
	eval := &model.Evaluation{ID: uuid.New(), PassingScore: 70}

	result := Aggregate(eval, []model.Question{q1}, nil, 0)
	if result.Score != 0 || result.Percentage != 0 {
		t.Errorf("expected zero result, got score %d, %d%%", result.Score, result.Percentage)
	}
	if result.IsPassed {
		t.Error("empty attempt must not pass")
	}
}

func TestAggregateZeroTotalPoints(t *testing.T) {
	q1 := question(model.QuestionTypeEssay, "", 0)
	eval := &model.Evaluation{ID: uuid.New(), PassingScore: 0}

	result := Aggregate(eval, []model.Question{q1}, nil, 0)
	if result.Percentage != 0 {
		t.Errorf("expected 0%% with zero total points, got %d%%", result.Percentage)
	}
}

func TestReview(t *testing.T) {
	q1 := question(model.QuestionTypeMultipleChoice, "4", 10)
	q2 := question(model.QuestionTypeEssay, "model answer", 5)
	answers := map[uuid.UUID]string{q1.ID: "4", q2.ID: "my essay"}

	reviews := Review([]model.Question{q1, q2}, answers)
	if len(reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(reviews))
	}
	if reviews[0].IsCorrect == nil || !*reviews[0].IsCorrect || reviews[0].PointsEarned != 10 {
		t.Error("first review should be correct with 10 points")
	}
	if reviews[1].IsCorrect != nil {
		t.Error("essay review should have nil verdict")
	}
	if reviews[1].ReferenceAnswer != "model answer" {
		t.Errorf("expected reference answer, got %q", reviews[1].ReferenceAnswer)
	}
}

func TestTotalPoints(t *testing.T) {
	questions := []model.Question{
		question(model.QuestionTypeMultipleChoice, "a", 10),
		question(model.QuestionTypeTrueFalse, "true", 5),
	}
	if got := TotalPoints(questions); got != 15 {
		t.Errorf("expected 15, got %d", got)
	}
	if got := TotalPoints(nil); got != 0 {
		t.Errorf("expected 0 for empty set, got %d", got)
	}
}
