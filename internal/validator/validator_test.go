package validator

import (
	"testing"
	"time"

	apperrors "github.com/SAP-F-2025/grading-service/internal/errors"
	"github.com/SAP-F-2025/grading-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_RecordGradeRequest(t *testing.T) {
	v := New()

	valid := &models.RecordGradeRequest{
		StudentID:  "s1",
		SourceType: models.SourceAssignment,
		SourceID:   "hw-1",
		Category:   "Assignments",
		RawScore:   8,
		MaxScore:   10,
	}
	assert.NoError(t, v.Validate(valid))

	tests := []struct {
		name   string
		mutate func(r *models.RecordGradeRequest)
		field  string
	}{
		{"missing student", func(r *models.RecordGradeRequest) { r.StudentID = "" }, "student_id"},
		{"unknown source", func(r *models.RecordGradeRequest) { r.SourceType = "exam" }, "source_type"},
		{"zero max", func(r *models.RecordGradeRequest) { r.MaxScore = 0 }, "max_score"},
		{"score above max", func(r *models.RecordGradeRequest) { r.RawScore = 11 }, "raw_score"},
		{"quiz source", func(r *models.RecordGradeRequest) { r.SourceType = models.SourceQuiz }, "source_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := *valid
			tt.mutate(&req)

			err := v.Validate(&req)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))

			errs, ok := err.(ValidationErrors)
			require.True(t, ok)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidate_GradingScheme(t *testing.T) {
	v := New()

	req := &models.UpdateGradingSchemeRequest{
		Weights: []models.CategoryWeight{
			{Category: "Assignments", Weight: 60},
			{Category: "Quizzes", Weight: 40},
		},
		GradeRanges: models.DefaultGradeRanges(),
	}
	assert.NoError(t, v.Validate(req))

	dup := *req
	dup.Weights = []models.CategoryWeight{{Category: "A", Weight: 50}, {Category: "A", Weight: 50}}
	assert.True(t, apperrors.IsValidation(v.Validate(&dup)))

	overlap := *req
	overlap.GradeRanges = []models.GradeRange{
		{MinScore: 0, MaxScore: 60, Grade: "F"},
		{MinScore: 50, MaxScore: 100, Grade: "P"},
	}
	errs := v.ValidateBusiness(&overlap)
	require.Len(t, errs, 1)
	assert.Equal(t, "grade_ranges", errs[0].Field)

	floor := *req
	floor.GradeRanges = []models.GradeRange{{MinScore: 50, MaxScore: 100, Grade: "P"}}
	assert.Len(t, v.ValidateBusiness(&floor), 1)

	noWeights := *req
	noWeights.Weights = nil
	assert.Error(t, v.Validate(&noWeights))
}

func TestValidate_SubmissionRejectsDuplicateAnswers(t *testing.T) {
	v := New()
	req := &models.SubmitAttemptRequest{Answers: []models.SubmittedAnswer{
		{QuestionID: "q1", SelectedOptionIDs: []string{"a"}},
		{QuestionID: "q1", SelectedOptionIDs: []string{"b"}},
	}}

	err := v.Validate(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "answers[1].question_id")

	req.Answers[1].QuestionID = ""
	assert.Error(t, v.Validate(req))
}

func TestValidate_LatePenaltyRequest(t *testing.T) {
	v := New()
	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, v.Validate(&models.LatePenaltyRequest{DueAt: due, SubmittedAt: due.Add(time.Hour), PercentPerDay: 0.1}))
	assert.Error(t, v.Validate(&models.LatePenaltyRequest{DueAt: due, SubmittedAt: due, PercentPerDay: 10}))
	assert.Error(t, v.Validate(&models.LatePenaltyRequest{SubmittedAt: due}))
}

func TestQuestionValidator_ValidateQuiz(t *testing.T) {
	v := NewQuestionValidator()

	good := &models.Quiz{
		ID:           "quiz-1",
		PassingScore: 60,
		Questions: []models.Question{
			{ID: "q1", Type: models.SingleChoice, Points: 2, Options: []models.Option{{ID: "a", IsCorrect: true}, {ID: "b"}}},
			{ID: "q2", Type: models.TrueFalse, Points: 1, Options: []models.Option{{ID: "t"}, {ID: "f", IsCorrect: true}}},
			{ID: "q3", Type: models.MultipleChoice, Points: 3, Options: []models.Option{{ID: "a", IsCorrect: true}, {ID: "b", IsCorrect: true}, {ID: "c"}}},
			{ID: "q4", Type: models.ShortAnswer, Points: 5},
		},
	}
	assert.NoError(t, v.ValidateQuiz(good))

	bad := &models.Quiz{
		ID: "quiz-2",
		Questions: []models.Question{
			{ID: "q1", Type: models.SingleChoice, Points: 2, Options: []models.Option{{ID: "a", IsCorrect: true}, {ID: "b", IsCorrect: true}}},
			{ID: "q2", Type: models.MultipleChoice, Points: 1, Options: []models.Option{{ID: "a"}, {ID: "b"}}},
			{ID: "q3", Type: models.ShortAnswer, Points: 0},
			{ID: "q4", Type: "essay", Points: 1},
		},
	}
	err := v.ValidateQuiz(bad)
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
	for _, id := range []string{"q1", "q2", "q3", "q4"} {
		assert.Contains(t, err.Error(), "question "+id)
	}

	assert.Error(t, v.ValidateQuiz(&models.Quiz{ID: "empty"}))
}
