package grading

import (
	"fmt"
	"sort"
	"time"

	apperrors "github.com/SAP-F-2025/grading-service/internal/errors"
	"github.com/SAP-F-2025/grading-service/internal/models"
)

type QuizResult struct {
	Score      float64 `json:"score"`
	MaxScore   float64 `json:"max_score"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
	// PendingReview counts answers awaiting manual grading; while non-zero
	// the score and pass state are provisional.
	PendingReview int            `json:"pending_review"`
	Provisional   bool           `json:"provisional"`
	PerQuestion   []AnswerResult `json:"per_question"`
}

// GradeQuiz scores an attempt against the quiz. Questions are walked in the
// quiz's own order so unanswered questions count as incorrect. Answers
// recorded after the attempt deadline are ignored.
func GradeQuiz(quiz *models.Quiz, attempt *models.Attempt) (*QuizResult, error) {
	maxScore := quiz.MaxPoints()
	if maxScore <= 0 {
		return nil, apperrors.NewConfigurationError("max_score",
			fmt.Sprintf("quiz %s has no points to award", quiz.ID))
	}

	answers, err := indexAnswers(quiz, attempt)
	if err != nil {
		return nil, err
	}

	deadline, timed := AttemptDeadline(attempt, quiz)
	result := &QuizResult{
		MaxScore:    maxScore,
		PerQuestion: make([]AnswerResult, 0, len(quiz.Questions)),
	}

	for _, q := range orderedQuestions(quiz) {
		answer := answers[q.ID]
		if timed && answer != nil && answer.AnsweredAt != nil && answer.AnsweredAt.After(deadline) {
			answer = nil
		}

		res, err := GradeAnswer(q, answer)
		if err != nil {
			return nil, fmt.Errorf("grading question %s: %w", q.ID, err)
		}
		if res.Outcome == models.OutcomePendingManualReview {
			result.PendingReview++
		}
		result.Score += res.Points()
		result.PerQuestion = append(result.PerQuestion, res)
	}

	result.Percentage = result.Score * 100 / result.MaxScore
	result.Passed = result.Percentage >= quiz.PassingScore
	result.Provisional = result.PendingReview > 0
	return result, nil
}

// RegradeWithManual recomputes a quiz result after manual grades were stored
// on the attempt's answers. Stored manual scores take precedence over the
// pending outcome produced by auto-grading.
func RegradeWithManual(quiz *models.Quiz, attempt *models.Attempt) (*QuizResult, error) {
	result, err := GradeQuiz(quiz, attempt)
	if err != nil {
		return nil, err
	}

	manual := make(map[string]*models.Answer)
	for i := range attempt.Answers {
		a := &attempt.Answers[i]
		if a.GradedBy != nil && a.PointsAwarded != nil {
			manual[a.QuestionID] = a
		}
	}
	if len(manual) == 0 {
		return result, nil
	}

	result.Score = 0
	result.PendingReview = 0
	for i, res := range result.PerQuestion {
		if a, ok := manual[res.QuestionID]; ok {
			res.PointsAwarded = floatPtr(*a.PointsAwarded)
			res.Outcome = a.Outcome
			result.PerQuestion[i] = res
		}
		if res.Outcome == models.OutcomePendingManualReview {
			result.PendingReview++
		}
		result.Score += res.Points()
	}
	result.Percentage = result.Score * 100 / result.MaxScore
	result.Passed = result.Percentage >= quiz.PassingScore
	result.Provisional = result.PendingReview > 0
	return result, nil
}

// AttemptDeadline returns when the attempt must end. The second value is
// false for untimed quizzes.
func AttemptDeadline(attempt *models.Attempt, quiz *models.Quiz) (time.Time, bool) {
	limit := quiz.TimeLimit()
	if limit <= 0 {
		return time.Time{}, false
	}
	return attempt.StartedAt.Add(limit), true
}

// IsQuizTimedOut reports whether an unsubmitted attempt has run past the
// quiz time limit at now. A timed-out attempt is force-submitted, not forfeited.
func IsQuizTimedOut(attempt *models.Attempt, quiz *models.Quiz, now time.Time) bool {
	if attempt.SubmittedAt != nil {
		return false
	}
	limit := quiz.TimeLimit()
	if limit <= 0 {
		return false
	}
	return now.Sub(attempt.StartedAt) > limit
}

func indexAnswers(quiz *models.Quiz, attempt *models.Attempt) (map[string]*models.Answer, error) {
	questions := make(map[string]struct{}, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions[q.ID] = struct{}{}
	}

	answers := make(map[string]*models.Answer, len(attempt.Answers))
	for i := range attempt.Answers {
		a := &attempt.Answers[i]
		if _, ok := questions[a.QuestionID]; !ok {
			return nil, apperrors.NewValidationError("question_id",
				fmt.Sprintf("question %s is not part of quiz %s", a.QuestionID, quiz.ID), a.QuestionID)
		}
		if _, dup := answers[a.QuestionID]; dup {
			return nil, apperrors.NewValidationError("question_id",
				fmt.Sprintf("question %s answered more than once", a.QuestionID), a.QuestionID)
		}
		answers[a.QuestionID] = a
	}
	return answers, nil
}

// orderedQuestions returns pointers to the quiz questions sorted by position
// without reordering the caller's slice.
func orderedQuestions(quiz *models.Quiz) []*models.Question {
	out := make([]*models.Question, len(quiz.Questions))
	for i := range quiz.Questions {
		out[i] = &quiz.Questions[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}
