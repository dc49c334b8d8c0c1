package validator

import (
	"fmt"
	"sort"

	"github.com/SAP-F-2025/grading-service/internal/grading"
	"github.com/SAP-F-2025/grading-service/internal/models"
)

// BusinessValidator checks rules that span several fields of a request.
type BusinessValidator struct{}

func NewBusinessValidator() *BusinessValidator {
	return &BusinessValidator{}
}

// Validate dispatches on the request type. Unknown types have no business rules.
func (b *BusinessValidator) Validate(s interface{}) ValidationErrors {
	switch req := s.(type) {
	case *models.SubmitAttemptRequest:
		return b.ValidateSubmission(req)
	case *models.RecordGradeRequest:
		return b.ValidateGradeRecord(req)
	case *models.UpdateGradingSchemeRequest:
		return b.ValidateGradingScheme(req)
	case *models.LatePenaltyRequest:
		return b.ValidateLatePenalty(req)
	}
	return nil
}

func (b *BusinessValidator) ValidateSubmission(req *models.SubmitAttemptRequest) ValidationErrors {
	var errors ValidationErrors
	seen := make(map[string]struct{}, len(req.Answers))
	for i, a := range req.Answers {
		if _, dup := seen[a.QuestionID]; dup {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("answers[%d].question_id", i),
				Message: "question answered more than once",
				Value:   a.QuestionID,
			})
		}
		seen[a.QuestionID] = struct{}{}
	}
	return errors
}

func (b *BusinessValidator) ValidateGradeRecord(req *models.RecordGradeRequest) ValidationErrors {
	var errors ValidationErrors
	if req.RawScore > req.MaxScore {
		errors = append(errors, ValidationError{
			Field:   "raw_score",
			Message: fmt.Sprintf("must be between 0 and %g", req.MaxScore),
			Value:   req.RawScore,
			Rule:    "score_range",
		})
	}
	if req.SourceType == models.SourceQuiz {
		errors = append(errors, ValidationError{
			Field:   "source_type",
			Message: "quiz grades are recorded by grading attempts",
			Value:   req.SourceType,
		})
	}
	return errors
}

func (b *BusinessValidator) ValidateGradingScheme(req *models.UpdateGradingSchemeRequest) ValidationErrors {
	var errors ValidationErrors

	if err := grading.ValidateWeights(models.CategoryWeights(req.Weights)); err != nil {
		errors = append(errors, ValidationError{
			Field:   "weights",
			Message: err.Error(),
			Rule:    "category_weight",
			Err:     err,
		})
	}

	if len(req.GradeRanges) == 0 {
		return errors
	}

	ranges := append([]models.GradeRange(nil), req.GradeRanges...)
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].MinScore < ranges[j].MinScore })

	grades := make(map[string]struct{}, len(ranges))
	for i, r := range ranges {
		if _, dup := grades[r.Grade]; dup {
			errors = append(errors, ValidationError{
				Field:   "grade_ranges",
				Message: fmt.Sprintf("grade %q appears more than once", r.Grade),
				Value:   r.Grade,
			})
		}
		grades[r.Grade] = struct{}{}

		if i > 0 && r.MinScore < ranges[i-1].MaxScore {
			errors = append(errors, ValidationError{
				Field:   "grade_ranges",
				Message: fmt.Sprintf("range for %q overlaps %q", r.Grade, ranges[i-1].Grade),
				Value:   r.MinScore,
			})
		}
	}
	if ranges[0].MinScore != 0 {
		errors = append(errors, ValidationError{
			Field:   "grade_ranges",
			Message: "lowest range must start at 0",
			Value:   ranges[0].MinScore,
		})
	}
	return errors
}

func (b *BusinessValidator) ValidateLatePenalty(req *models.LatePenaltyRequest) ValidationErrors {
	if req.DueAt.IsZero() || req.SubmittedAt.IsZero() {
		return ValidationErrors{{Field: "due_at", Message: "submitted_at and due_at are required"}}
	}
	return nil
}
