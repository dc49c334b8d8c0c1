package validator

import (
	"fmt"
	"strings"

	apperrors "github.com/SAP-F-2025/grading-service/internal/errors"
	"github.com/SAP-F-2025/grading-service/internal/models"
)

// QuestionValidator checks that a quiz is gradable before any attempt is scored.
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuiz collects every structural problem in the quiz and reports them
// together as a configuration error.
func (v *QuestionValidator) ValidateQuiz(quiz *models.Quiz) error {
	var problems []string

	if len(quiz.Questions) == 0 {
		problems = append(problems, "quiz has no questions")
	}
	if quiz.PassingScore < 0 || quiz.PassingScore > 100 {
		problems = append(problems, fmt.Sprintf("passing score %g outside [0, 100]", quiz.PassingScore))
	}

	ids := make(map[string]struct{}, len(quiz.Questions))
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		if _, dup := ids[q.ID]; dup {
			problems = append(problems, fmt.Sprintf("question %s appears more than once", q.ID))
		}
		ids[q.ID] = struct{}{}

		if err := v.ValidateQuestion(q); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if len(problems) > 0 {
		return apperrors.NewConfigurationError("quiz "+quiz.ID, strings.Join(problems, "; "))
	}
	return nil
}

// ValidateQuestion validates a single question against the rules of its type.
func (v *QuestionValidator) ValidateQuestion(q *models.Question) error {
	if q.Points <= 0 {
		return fmt.Errorf("question %s: points must be positive", q.ID)
	}

	switch q.Type {
	case models.SingleChoice:
		return v.validateChoice(q, 2, true)
	case models.TrueFalse:
		if len(q.Options) != 2 {
			return fmt.Errorf("question %s: true/false needs exactly 2 options", q.ID)
		}
		return v.validateChoice(q, 2, true)
	case models.MultipleChoice:
		return v.validateChoice(q, 2, false)
	case models.ShortAnswer:
		if len(q.Options) > 0 {
			return fmt.Errorf("question %s: short answer cannot have options", q.ID)
		}
		return nil
	default:
		return fmt.Errorf("question %s: unsupported question type %q", q.ID, q.Type)
	}
}

func (v *QuestionValidator) validateChoice(q *models.Question, minOptions int, exactlyOne bool) error {
	if len(q.Options) < minOptions {
		return fmt.Errorf("question %s: must have at least %d options", q.ID, minOptions)
	}

	optionIDs := make(map[string]bool, len(q.Options))
	correct := 0
	for _, option := range q.Options {
		if optionIDs[option.ID] {
			return fmt.Errorf("question %s: option %s appears more than once", q.ID, option.ID)
		}
		optionIDs[option.ID] = true
		if option.IsCorrect {
			correct++
		}
	}

	switch {
	case exactlyOne && correct != 1:
		return fmt.Errorf("question %s: needs exactly one correct option, has %d", q.ID, correct)
	case correct == 0:
		return fmt.Errorf("question %s: needs at least one correct option", q.ID)
	}
	return nil
}
