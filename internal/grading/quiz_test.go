package grading

import (
	"testing"
	"time"

	apperrors "github.com/SAP-F-2025/grading-service/internal/errors"
	"github.com/SAP-F-2025/grading-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quizStart = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func twoQuestionQuiz() *models.Quiz {
	q1 := singleChoiceQuestion()
	q1.Position = 1
	q2 := multipleChoiceQuestion()
	q2.Position = 2
	return &models.Quiz{
		ID:           "quiz-1",
		PassingScore: 60,
		// Stored out of order on purpose.
		Questions: []models.Question{*q2, *q1},
	}
}

func TestGradeQuiz_Scenario(t *testing.T) {
	attempt := &models.Attempt{
		ID:        "att-1",
		StartedAt: quizStart,
		Answers: []models.Answer{
			{QuestionID: "q2", SelectedOptionIDs: []string{"a"}},
			{QuestionID: "q1", SelectedOptionIDs: []string{"b"}},
		},
	}

	res, err := GradeQuiz(twoQuestionQuiz(), attempt)
	require.NoError(t, err)

	assert.Equal(t, 4.0, res.Score)
	assert.Equal(t, 10.0, res.MaxScore)
	assert.InDelta(t, 40.0, res.Percentage, 1e-9)
	assert.False(t, res.Passed)
	assert.False(t, res.Provisional)

	require.Len(t, res.PerQuestion, 2)
	assert.Equal(t, "q1", res.PerQuestion[0].QuestionID)
	assert.Equal(t, "q2", res.PerQuestion[1].QuestionID)
}

func TestGradeQuiz_AllUnanswered(t *testing.T) {
	res, err := GradeQuiz(twoQuestionQuiz(), &models.Attempt{StartedAt: quizStart})
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.Score)
	assert.False(t, res.Passed)
	for _, q := range res.PerQuestion {
		assert.Equal(t, models.OutcomeIncorrect, q.Outcome)
		assert.False(t, q.Answered)
	}
}

func TestGradeQuiz_PassingBoundary(t *testing.T) {
	quiz := twoQuestionQuiz()
	quiz.PassingScore = 60
	attempt := &models.Attempt{
		StartedAt: quizStart,
		Answers:   []models.Answer{{QuestionID: "q2", SelectedOptionIDs: []string{"a", "c"}}},
	}

	res, err := GradeQuiz(quiz, attempt)
	require.NoError(t, err)
	assert.Equal(t, 6.0, res.Score)
	assert.True(t, res.Passed, "60%% must pass a 60%% threshold")
}

func TestGradeQuiz_ZeroPointsIsConfigurationError(t *testing.T) {
	_, err := GradeQuiz(&models.Quiz{ID: "empty"}, &models.Attempt{})
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestGradeQuiz_RejectsForeignAndDuplicateAnswers(t *testing.T) {
	foreign := &models.Attempt{Answers: []models.Answer{{QuestionID: "other"}}}
	_, err := GradeQuiz(twoQuestionQuiz(), foreign)
	assert.True(t, apperrors.IsValidation(err))

	duplicate := &models.Attempt{Answers: []models.Answer{
		{QuestionID: "q1", SelectedOptionIDs: []string{"b"}},
		{QuestionID: "q1", SelectedOptionIDs: []string{"a"}},
	}}
	_, err = GradeQuiz(twoQuestionQuiz(), duplicate)
	assert.True(t, apperrors.IsValidation(err))
}

func TestGradeQuiz_ShortAnswerMakesResultProvisional(t *testing.T) {
	quiz := twoQuestionQuiz()
	quiz.Questions = append(quiz.Questions, models.Question{ID: "q3", Type: models.ShortAnswer, Points: 10, Position: 3})
	attempt := &models.Attempt{Answers: []models.Answer{
		{QuestionID: "q1", SelectedOptionIDs: []string{"b"}},
		{QuestionID: "q3", Text: strPtr("mitochondria")},
	}}

	res, err := GradeQuiz(quiz, attempt)
	require.NoError(t, err)
	assert.Equal(t, 1, res.PendingReview)
	assert.True(t, res.Provisional)
	assert.Equal(t, 4.0, res.Score)
	assert.Equal(t, 20.0, res.MaxScore)
}

func TestRegradeWithManual(t *testing.T) {
	quiz := twoQuestionQuiz()
	quiz.Questions = append(quiz.Questions, models.Question{ID: "q3", Type: models.ShortAnswer, Points: 10, Position: 3})
	grader := "teacher-1"
	points := 8.0
	attempt := &models.Attempt{Answers: []models.Answer{
		{QuestionID: "q1", SelectedOptionIDs: []string{"b"}},
		{QuestionID: "q3", Text: strPtr("mitochondria"), GradedBy: &grader, PointsAwarded: &points, Outcome: models.OutcomeIncorrect},
	}}

	res, err := RegradeWithManual(quiz, attempt)
	require.NoError(t, err)
	assert.Equal(t, 0, res.PendingReview)
	assert.False(t, res.Provisional)
	assert.Equal(t, 12.0, res.Score)
	assert.InDelta(t, 60.0, res.Percentage, 1e-9)
	assert.True(t, res.Passed)
}

func TestGradeQuiz_IgnoresAnswersAfterDeadline(t *testing.T) {
	quiz := twoQuestionQuiz()
	quiz.TimeLimitSeconds = 600
	early := quizStart.Add(5 * time.Minute)
	late := quizStart.Add(11 * time.Minute)
	attempt := &models.Attempt{
		StartedAt: quizStart,
		Answers: []models.Answer{
			{QuestionID: "q1", SelectedOptionIDs: []string{"b"}, AnsweredAt: &early},
			{QuestionID: "q2", SelectedOptionIDs: []string{"a", "c"}, AnsweredAt: &late},
		},
	}

	res, err := GradeQuiz(quiz, attempt)
	require.NoError(t, err)
	assert.Equal(t, 4.0, res.Score)
	assert.False(t, res.PerQuestion[1].Answered)
}

func TestIsQuizTimedOut(t *testing.T) {
	quiz := &models.Quiz{TimeLimitSeconds: 600}
	submitted := quizStart.Add(time.Minute)

	tests := []struct {
		name     string
		quiz     *models.Quiz
		attempt  *models.Attempt
		now      time.Time
		expected bool
	}{
		{"within limit", quiz, &models.Attempt{StartedAt: quizStart}, quizStart.Add(9 * time.Minute), false},
		{"exactly at limit", quiz, &models.Attempt{StartedAt: quizStart}, quizStart.Add(10 * time.Minute), false},
		{"past limit", quiz, &models.Attempt{StartedAt: quizStart}, quizStart.Add(11 * time.Minute), true},
		{"already submitted", quiz, &models.Attempt{StartedAt: quizStart, SubmittedAt: &submitted}, quizStart.Add(time.Hour), false},
		{"untimed quiz", &models.Quiz{}, &models.Attempt{StartedAt: quizStart}, quizStart.Add(48 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsQuizTimedOut(tt.attempt, tt.quiz, tt.now))
		})
	}
}

func TestGradeQuiz_DoesNotMutateInputs(t *testing.T) {
	quiz := twoQuestionQuiz()
	attempt := &models.Attempt{Answers: []models.Answer{{QuestionID: "q1", SelectedOptionIDs: []string{"b"}}}}

	_, err := GradeQuiz(quiz, attempt)
	require.NoError(t, err)

	assert.Equal(t, "q2", quiz.Questions[0].ID)
	assert.Equal(t, models.OutcomeUngraded, attempt.Answers[0].Outcome)
	assert.Nil(t, attempt.Answers[0].PointsAwarded)
}
