package grading

import (
	"math"
	"time"

	"github.com/SAP-F-2025/grading-service/internal/models"
)

const day = 24 * time.Hour

// CalculateLatePenalty returns the multiplier in [0, 1] applied to a late
// submission. Partial days round up against the student, and anything past
// the policy cutoff scores zero.
func CalculateLatePenalty(submittedAt, dueAt time.Time, policy models.LatePenaltyPolicy) float64 {
	if !submittedAt.After(dueAt) {
		return 1
	}

	daysLate := DaysLate(submittedAt, dueAt)
	if policy.CutoffDays != nil && daysLate > *policy.CutoffDays {
		return 0
	}

	multiplier := 1 - policy.PercentPerDay*float64(daysLate)
	return math.Min(1, math.Max(0, multiplier))
}

// DaysLate counts started days between dueAt and submittedAt.
func DaysLate(submittedAt, dueAt time.Time) int {
	late := submittedAt.Sub(dueAt)
	if late <= 0 {
		return 0
	}
	return int(math.Ceil(float64(late) / float64(day)))
}

// ApplyLatePenalty returns a copy of item with AdjustedScore set from the
// raw score and the penalty multiplier. Items without both timestamps are
// not penalized.
func ApplyLatePenalty(item models.GradeItem, policy models.LatePenaltyPolicy) models.GradeItem {
	multiplier := 1.0
	if item.SubmittedAt != nil && item.DueAt != nil {
		multiplier = CalculateLatePenalty(*item.SubmittedAt, *item.DueAt, policy)
	}
	item.AdjustedScore = item.RawScore * multiplier
	return item
}
