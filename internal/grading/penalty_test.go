package grading

import (
	"testing"
	"time"

	"github.com/SAP-F-2025/grading-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int {
	return &v
}

func TestCalculateLatePenalty(t *testing.T) {
	due := time.Date(2024, 1, 10, 23, 59, 0, 0, time.UTC)
	tenPercent := models.LatePenaltyPolicy{PercentPerDay: 0.1}
	withCutoff := models.LatePenaltyPolicy{PercentPerDay: 0.1, CutoffDays: intPtr(5)}

	tests := []struct {
		name      string
		submitted time.Time
		policy    models.LatePenaltyPolicy
		expected  float64
	}{
		{"on the deadline", due, tenPercent, 1},
		{"early", due.Add(-48 * time.Hour), tenPercent, 1},
		{"two days late", due.Add(48 * time.Hour), tenPercent, 0.8},
		{"one minute late rounds up to a day", due.Add(time.Minute), tenPercent, 0.9},
		{"one day and one second", due.Add(24*time.Hour + time.Second), tenPercent, 0.8},
		{"linear formula floors at zero", due.Add(15 * 24 * time.Hour), tenPercent, 0},
		{"at the cutoff", due.Add(5 * 24 * time.Hour), withCutoff, 0.5},
		{"past the cutoff", due.Add(100 * 24 * time.Hour), withCutoff, 0},
		{"zero cutoff", due.Add(time.Hour), models.LatePenaltyPolicy{PercentPerDay: 0.01, CutoffDays: intPtr(0)}, 0},
		{"no penalty configured", due.Add(72 * time.Hour), models.LatePenaltyPolicy{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateLatePenalty(tt.submitted, due, tt.policy)
			assert.InDelta(t, tt.expected, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestApplyLatePenalty(t *testing.T) {
	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	submitted := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)
	item := models.GradeItem{RawScore: 90, MaxScore: 100, DueAt: &due, SubmittedAt: &submitted}

	adjusted := ApplyLatePenalty(item, models.LatePenaltyPolicy{PercentPerDay: 0.1})
	assert.InDelta(t, 72.0, adjusted.AdjustedScore, 1e-9)
	assert.Equal(t, 0.0, item.AdjustedScore, "input must not be modified")

	noDue := item
	noDue.DueAt = nil
	assert.Equal(t, 90.0, ApplyLatePenalty(noDue, models.LatePenaltyPolicy{PercentPerDay: 0.1}).AdjustedScore)
}

func TestDaysLate(t *testing.T) {
	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysLate(due.Add(-time.Hour), due))
	assert.Equal(t, 1, DaysLate(due.Add(time.Nanosecond), due))
	assert.Equal(t, 2, DaysLate(due.Add(48*time.Hour), due))
}
