package service

import (
	"errors"
	"testing"

	"github.com/traindesk/traindesk-backend/internal/model"
)

func authoredQuestion(qt model.QuestionType, options []string, answer string, order int) model.Question {
	return model.Question{
		QuestionText:  "What is 2+2?",
		QuestionType:  qt,
		Options:       options,
		CorrectAnswer: answer,
		Points:        10,
		OrderNum:      order,
	}
}

func TestValidateQuestion(t *testing.T) {
	cases := []struct {
		name     string
		question model.Question
		expected error
	}{
		{
			name:     "multiple choice fully configured",
			question: authoredQuestion(model.QuestionTypeMultipleChoice, []string{"3", "4"}, "4", 1),
			expected: nil,
		},
		{
			name:     "multiple choice without correct answer",
			question: authoredQuestion(model.QuestionTypeMultipleChoice, []string{"3", "4"}, "", 1),
			expected: ErrQuestionNotGradable,
		},
		{
			name:     "multiple choice without options",
			question: authoredQuestion(model.QuestionTypeMultipleChoice, nil, "4", 1),
			expected: ErrQuestionOptionsRequired,
		},
		{
			name:     "true false without options",
			question: authoredQuestion(model.QuestionTypeTrueFalse, nil, "true", 1),
			expected: ErrQuestionOptionsRequired,
		},
		{
			name:     "true false fully configured",
			question: authoredQuestion(model.QuestionTypeTrueFalse, []string{"true", "false"}, "true", 1),
			expected: nil,
		},
		{
			name:     "essay with options",
			question: authoredQuestion(model.QuestionTypeEssay, []string{"a", "b"}, "", 1),
			expected: ErrQuestionOptionsNotAllowed,
		},
		{
			name:     "short answer plain",
			question: authoredQuestion(model.QuestionTypeShortAnswer, nil, "reference answer", 1),
			expected: nil,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := validateQuestion(&c.question)
			if !errors.Is(err, c.expected) {
				t.Errorf("expected %v, got %v", c.expected, err)
			}
		})
	}
}

func TestValidateQuestionSetDuplicateOrder(t *testing.T) {
	questions := []model.Question{
		authoredQuestion(model.QuestionTypeMultipleChoice, []string{"3", "4"}, "4", 1),
		authoredQuestion(model.QuestionTypeTrueFalse, []string{"true", "false"}, "true", 1),
	}
	if err := validateQuestionSet(questions); !errors.Is(err, ErrQuestionOrderDuplicate) {
		t.Errorf("expected ErrQuestionOrderDuplicate, got %v", err)
	}

	questions[1].OrderNum = 2
	if err := validateQuestionSet(questions); err != nil {
		t.Errorf("unique orders should pass, got %v", err)
	}
}

func TestValidateQuestionSetRejectsInvalidMember(t *testing.T) {
	questions := []model.Question{
		authoredQuestion(model.QuestionTypeMultipleChoice, []string{"3", "4"}, "4", 1),
		authoredQuestion(model.QuestionTypeMultipleChoice, nil, "4", 2),
	}
	if err := validateQuestionSet(questions); !errors.Is(err, ErrQuestionOptionsRequired) {
		t.Errorf("expected ErrQuestionOptionsRequired, got %v", err)
	}
}
