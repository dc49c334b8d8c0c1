package models

import (
	"time"

	"gorm.io/datatypes"
)

type GradeRange struct {
	MinScore float64  `json:"min_score" validate:"min=0,max=100"`
	MaxScore float64  `json:"max_score" validate:"min=0,max=100,gtefield=MinScore"`
	Grade    string   `json:"grade" validate:"required,max=5"`
	GPA      *float64 `json:"gpa,omitempty"`
	Label    string   `json:"label,omitempty"`
}

// CategoryWeight is the percentage contribution of a category to the course grade.
type CategoryWeight struct {
	Category string  `json:"category" validate:"required,max=100"`
	Weight   float64 `json:"weight" validate:"min=0,max=100"`
}

// CategoryWeights keeps configuration order, which is also the export column order.
type CategoryWeights []CategoryWeight

// Total returns the configured weight sum.
func (w CategoryWeights) Total() float64 {
	total := 0.0
	for _, cw := range w {
		total += cw.Weight
	}
	return total
}

// Lookup returns the weight configured for category.
func (w CategoryWeights) Lookup(category string) (float64, bool) {
	for _, cw := range w {
		if cw.Category == category {
			return cw.Weight, true
		}
	}
	return 0, false
}

type LatePenaltyPolicy struct {
	// Fraction deducted per started day, e.g. 0.1 for 10%.
	PercentPerDay float64 `json:"percent_per_day" validate:"min=0,max=1"`
	// Beyond this many days late the item scores zero. Nil disables the cutoff.
	CutoffDays *int `json:"cutoff_days,omitempty" validate:"omitempty,min=0"`
}

// GradingScheme is the per-course gradebook configuration.
type GradingScheme struct {
	CourseID    string                                `json:"course_id" gorm:"primaryKey;size:36"`
	Weights     datatypes.JSONSlice[CategoryWeight]   `json:"weights" gorm:"type:jsonb"`
	GradeRanges datatypes.JSONSlice[GradeRange]       `json:"grade_ranges" gorm:"type:jsonb"`
	LatePolicy  datatypes.JSONType[LatePenaltyPolicy] `json:"late_policy" gorm:"type:jsonb"`
	RoundTo     int                                   `json:"round_to" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryWeights returns the configured weights in order.
func (s *GradingScheme) CategoryWeights() CategoryWeights {
	return CategoryWeights(s.Weights)
}

func (GradingScheme) TableName() string {
	return "grading_schemes"
}

// DefaultGradeRanges is the scale used when a course configures none.
func DefaultGradeRanges() []GradeRange {
	return []GradeRange{
		{MinScore: 90, MaxScore: 100, Grade: "A"},
		{MinScore: 80, MaxScore: 90, Grade: "B"},
		{MinScore: 70, MaxScore: 80, Grade: "C"},
		{MinScore: 60, MaxScore: 70, Grade: "D"},
		{MinScore: 0, MaxScore: 60, Grade: "F"},
	}
}
