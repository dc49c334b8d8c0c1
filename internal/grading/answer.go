// Package grading holds the scoring and gradebook aggregation rules. Every
// function is pure: it takes its full context as arguments, never mutates
// them, and is safe to call concurrently.
package grading

import (
	"fmt"

	apperrors "github.com/SAP-F-2025/grading-service/internal/errors"
	"github.com/SAP-F-2025/grading-service/internal/models"
)

// AnswerResult is the outcome of grading one answer. PointsAwarded is nil
// while the answer is pending manual review.
type AnswerResult struct {
	QuestionID    string         `json:"question_id"`
	Outcome       models.Outcome `json:"outcome"`
	PointsAwarded *float64       `json:"points_awarded"`
	MaxPoints     float64        `json:"max_points"`
	Answered      bool           `json:"answered"`
}

// Points returns the awarded points, counting pending answers as zero.
func (r AnswerResult) Points() float64 {
	if r.PointsAwarded == nil {
		return 0
	}
	return *r.PointsAwarded
}

// strategy auto-grades one question type.
type strategy interface {
	grade(q *models.Question, selected map[string]struct{}, a *models.Answer) (models.Outcome, error)
}

var strategies = map[models.QuestionType]strategy{
	models.SingleChoice:   singleChoiceStrategy{},
	models.TrueFalse:      singleChoiceStrategy{},
	models.MultipleChoice: multipleChoiceStrategy{},
	models.ShortAnswer:    shortAnswerStrategy{},
}

// GradeAnswer scores a single answer against its question. A nil or blank
// answer is incorrect. Short answers come back pending manual review.
// Selecting an option the question does not own is a validation error.
func GradeAnswer(q *models.Question, a *models.Answer) (AnswerResult, error) {
	res := AnswerResult{QuestionID: q.ID, MaxPoints: q.Points}

	s, ok := strategies[q.Type]
	if !ok {
		return res, apperrors.NewConfigurationError("question_type",
			fmt.Sprintf("question %s has unknown type %q", q.ID, q.Type))
	}

	if a.IsEmpty() {
		res.Outcome = models.OutcomeIncorrect
		res.PointsAwarded = floatPtr(0)
		return res, nil
	}
	res.Answered = true

	selected, err := selectedOptions(q, a)
	if err != nil {
		return res, err
	}

	outcome, err := s.grade(q, selected, a)
	if err != nil {
		if apperrors.IsUnsupported(err) {
			res.Outcome = models.OutcomePendingManualReview
			return res, nil
		}
		return res, err
	}

	res.Outcome = outcome
	if outcome == models.OutcomeCorrect {
		res.PointsAwarded = floatPtr(q.Points)
	} else {
		res.PointsAwarded = floatPtr(0)
	}
	return res, nil
}

// ManualGrade records an instructor's score for an answer. Points must lie
// within [0, question points]; the outcome is correct only on full credit.
func ManualGrade(q *models.Question, a *models.Answer, points float64) (AnswerResult, error) {
	res := AnswerResult{QuestionID: q.ID, MaxPoints: q.Points, Answered: !a.IsEmpty()}
	if points < 0 || points > q.Points {
		return res, apperrors.NewValidationErrorWithRule("points",
			fmt.Sprintf("must be between 0 and %g", q.Points), "score_range", points)
	}

	res.PointsAwarded = floatPtr(points)
	res.Outcome = models.OutcomeIncorrect
	if points == q.Points {
		res.Outcome = models.OutcomeCorrect
	}
	return res, nil
}

// selectedOptions builds the selection set keyed by option id, rejecting ids
// that do not belong to the question.
func selectedOptions(q *models.Question, a *models.Answer) (map[string]struct{}, error) {
	if len(a.SelectedOptionIDs) == 0 {
		return nil, nil
	}
	if !q.Type.IsChoice() {
		return nil, apperrors.NewValidationError("selected_option_ids",
			fmt.Sprintf("question %s does not take option selections", q.ID), a.SelectedOptionIDs)
	}

	known := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		known[opt.ID] = struct{}{}
	}
	selected := make(map[string]struct{}, len(a.SelectedOptionIDs))
	for _, id := range a.SelectedOptionIDs {
		if _, ok := known[id]; !ok {
			return nil, apperrors.NewValidationErrorWithCause("selected_option_ids",
				fmt.Sprintf("option %s does not belong to question %s", id, q.ID), id, apperrors.ErrUnknownOption)
		}
		selected[id] = struct{}{}
	}
	return selected, nil
}

func correctOptions(q *models.Question) map[string]struct{} {
	correct := make(map[string]struct{})
	for _, opt := range q.Options {
		if opt.IsCorrect {
			correct[opt.ID] = struct{}{}
		}
	}
	return correct
}

// --- Strategies ---

type singleChoiceStrategy struct{}

func (singleChoiceStrategy) grade(q *models.Question, selected map[string]struct{}, _ *models.Answer) (models.Outcome, error) {
	correct := correctOptions(q)
	if len(correct) != 1 {
		return "", apperrors.NewConfigurationError("options",
			fmt.Sprintf("question %s must have exactly one correct option, has %d", q.ID, len(correct)))
	}
	if len(selected) != 1 {
		return models.OutcomeIncorrect, nil
	}
	if setEqual(selected, correct) {
		return models.OutcomeCorrect, nil
	}
	return models.OutcomeIncorrect, nil
}

// multipleChoiceStrategy gives credit only for the exact correct set; any
// subset or superset scores zero.
type multipleChoiceStrategy struct{}

func (multipleChoiceStrategy) grade(q *models.Question, selected map[string]struct{}, _ *models.Answer) (models.Outcome, error) {
	correct := correctOptions(q)
	if len(correct) == 0 {
		return "", apperrors.NewConfigurationError("options",
			fmt.Sprintf("question %s has no correct option", q.ID))
	}
	if setEqual(selected, correct) {
		return models.OutcomeCorrect, nil
	}
	return models.OutcomeIncorrect, nil
}

type shortAnswerStrategy struct{}

func (shortAnswerStrategy) grade(q *models.Question, _ map[string]struct{}, _ *models.Answer) (models.Outcome, error) {
	return "", apperrors.NewUnsupportedOperationError("auto_grade", string(q.Type))
}

// helpers

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func floatPtr(v float64) *float64 {
	return &v
}
