package grading

import (
	"fmt"
	"sort"

	apperrors "github.com/SAP-F-2025/grading-service/internal/errors"
	"github.com/SAP-F-2025/grading-service/internal/models"
)

// Student identifies the owner of a set of grade items.
type Student struct {
	ID          string
	DisplayName string
}

// StudentItems is one roster entry for a course-wide aggregation.
type StudentItems struct {
	Student Student
	Items   []models.GradeItem
}

// ValidateWeights rejects weight configurations that normalization cannot
// repair. Weights that merely do not sum to 100 are accepted.
func ValidateWeights(weights models.CategoryWeights) error {
	if len(weights) == 0 {
		return apperrors.NewConfigurationError("weights", "no grade categories configured")
	}
	seen := make(map[string]struct{}, len(weights))
	for _, w := range weights {
		if w.Category == "" {
			return apperrors.NewConfigurationError("weights", "category name is empty")
		}
		if _, dup := seen[w.Category]; dup {
			return apperrors.NewConfigurationError("weights",
				fmt.Sprintf("category %q configured more than once", w.Category))
		}
		seen[w.Category] = struct{}{}
		if w.Weight < 0 || w.Weight > 100 {
			return apperrors.NewConfigurationError("weights",
				fmt.Sprintf("weight %g for %q outside [0, 100]", w.Weight, w.Category))
		}
	}
	if weights.Total() <= 0 {
		return apperrors.NewConfigurationError("weights", "category weights sum to zero")
	}
	return nil
}

// Aggregate combines one student's grade items into per-category and overall
// percentages. Categories without items are flagged and left out of the
// overall grade, which is renormalized over the weights that have data.
func Aggregate(student Student, items []models.GradeItem, weights models.CategoryWeights, scale []models.GradeRange) (*models.StudentGradeSummary, error) {
	if err := ValidateWeights(weights); err != nil {
		return nil, err
	}
	return aggregate(student, items, weights, scale)
}

func aggregate(student Student, items []models.GradeItem, weights models.CategoryWeights, scale []models.GradeRange) (*models.StudentGradeSummary, error) {
	summary := &models.StudentGradeSummary{
		StudentID:   student.ID,
		StudentName: student.DisplayName,
		Categories:  make(map[string]*models.CategoryGradeSummary, len(weights)),
	}
	for _, w := range weights {
		summary.Categories[w.Category] = &models.CategoryGradeSummary{
			Category: w.Category,
			Weight:   w.Weight,
		}
	}

	for _, item := range canonicalOrder(items) {
		if err := validateItem(student, item); err != nil {
			return nil, err
		}
		cat, ok := summary.Categories[item.Category]
		if !ok {
			// Unconfigured category: reported, but weightless.
			cat = &models.CategoryGradeSummary{Category: item.Category}
			summary.Categories[item.Category] = cat
		}
		w := item.EffectiveWeight()
		cat.WeightedScore += w * item.AdjustedScore
		cat.WeightedMax += w * item.MaxScore
		cat.ItemCount++
	}

	for _, cat := range summary.Categories {
		if cat.ItemCount > 0 && cat.WeightedMax > 0 {
			cat.HasData = true
			cat.Percentage = cat.WeightedScore / cat.WeightedMax * 100
		}
	}

	// Summed in configuration order to keep results bit-for-bit repeatable.
	weightWithData := 0.0
	weighted := 0.0
	for _, w := range weights {
		cat := summary.Categories[w.Category]
		if !cat.HasData || cat.Weight <= 0 {
			continue
		}
		weighted += cat.Percentage * cat.Weight
		weightWithData += cat.Weight
	}

	if weightWithData > 0 {
		summary.HasData = true
		summary.OverallPercentage = weighted / weightWithData
		summary.LetterGrade = LetterGrade(summary.OverallPercentage, scale)
	}
	return summary, nil
}

// AggregateCourse aggregates every student on the roster independently. A
// student whose items fail validation is reported in Failures without
// stopping the others; a bad weight configuration fails the whole run.
// Students are ordered by display name, then id.
func AggregateCourse(courseID string, roster []StudentItems, weights models.CategoryWeights, scale []models.GradeRange) (*models.CourseGradebook, error) {
	if err := ValidateWeights(weights); err != nil {
		return nil, err
	}

	gradebook := &models.CourseGradebook{
		CourseID:   courseID,
		Categories: append(models.CategoryWeights(nil), weights...),
		Students:   make([]models.StudentGradeSummary, 0, len(roster)),
	}

	for _, entry := range roster {
		summary, err := aggregate(entry.Student, entry.Items, weights, scale)
		if err != nil {
			gradebook.Failures = append(gradebook.Failures, models.AggregationFailure{
				StudentID:   entry.Student.ID,
				StudentName: entry.Student.DisplayName,
				Error:       err.Error(),
			})
			continue
		}
		gradebook.Students = append(gradebook.Students, *summary)
	}

	sort.SliceStable(gradebook.Students, func(i, j int) bool {
		a, b := gradebook.Students[i], gradebook.Students[j]
		if a.StudentName != b.StudentName {
			return a.StudentName < b.StudentName
		}
		return a.StudentID < b.StudentID
	})
	sort.SliceStable(gradebook.Failures, func(i, j int) bool {
		return gradebook.Failures[i].StudentID < gradebook.Failures[j].StudentID
	})
	return gradebook, nil
}

// LetterGrade maps a percentage onto the scale, falling back to the default
// A-F scale when none is configured. The highest matching range wins.
func LetterGrade(percentage float64, scale []models.GradeRange) string {
	if len(scale) == 0 {
		scale = models.DefaultGradeRanges()
	}
	best := ""
	bestMin := -1.0
	for _, r := range scale {
		if percentage >= r.MinScore && r.MinScore > bestMin {
			best = r.Grade
			bestMin = r.MinScore
		}
	}
	return best
}

func validateItem(student Student, item models.GradeItem) error {
	if item.StudentID != "" && item.StudentID != student.ID {
		return apperrors.NewValidationError("student_id",
			fmt.Sprintf("grade item %s belongs to student %s", item.ID, item.StudentID), item.StudentID)
	}
	if item.MaxScore <= 0 {
		return apperrors.NewValidationError("max_score",
			fmt.Sprintf("grade item %s must have a positive max score", item.ID), item.MaxScore)
	}
	if item.RawScore < 0 || item.RawScore > item.MaxScore {
		return apperrors.NewValidationErrorWithRule("raw_score",
			fmt.Sprintf("grade item %s score must be between 0 and %g", item.ID, item.MaxScore), "score_range", item.RawScore)
	}
	if item.AdjustedScore < 0 || item.AdjustedScore > item.MaxScore {
		return apperrors.NewValidationErrorWithRule("adjusted_score",
			fmt.Sprintf("grade item %s adjusted score must be between 0 and %g", item.ID, item.MaxScore), "score_range", item.AdjustedScore)
	}
	return nil
}

// canonicalOrder sorts a copy of items so floating point sums do not depend
// on the order rows came back from storage.
func canonicalOrder(items []models.GradeItem) []models.GradeItem {
	out := append([]models.GradeItem(nil), items...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].SourceID < out[j].SourceID
	})
	return out
}
