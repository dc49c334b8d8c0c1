package models

import "time"

type GradeSource string

const (
	SourceAssignment GradeSource = "assignment"
	SourceQuiz       GradeSource = "quiz"
)

// GradeItem is one scored unit of work contributing to a course grade.
type GradeItem struct {
	ID         string      `json:"id" gorm:"primaryKey;size:36"`
	CourseID   string      `json:"course_id" gorm:"not null;index;size:36"`
	StudentID  string      `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_grade_item_source"`
	SourceType GradeSource `json:"source_type" gorm:"not null;size:20;uniqueIndex:idx_grade_item_source"`
	SourceID   string      `json:"source_id" gorm:"not null;size:36;uniqueIndex:idx_grade_item_source"`
	Title      string      `json:"title" gorm:"size:200"`
	Category   string      `json:"category" gorm:"not null;size:100;index"`

	RawScore      float64 `json:"raw_score"`
	MaxScore      float64 `json:"max_score"`
	AdjustedScore float64 `json:"adjusted_score"`
	// Relative weight inside the category; zero counts as one.
	Weight float64 `json:"weight" gorm:"default:1"`

	SubmittedAt *time.Time `json:"submitted_at"`
	DueAt       *time.Time `json:"due_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (GradeItem) TableName() string {
	return "grade_items"
}

// EffectiveWeight returns the item weight with the zero value mapped to one.
func (g *GradeItem) EffectiveWeight() float64 {
	if g.Weight <= 0 {
		return 1
	}
	return g.Weight
}

type CategoryGradeSummary struct {
	Category      string  `json:"category"`
	Weight        float64 `json:"weight"`
	WeightedScore float64 `json:"weighted_score"`
	WeightedMax   float64 `json:"weighted_max"`
	ItemCount     int     `json:"item_count"`
	Percentage    float64 `json:"percentage"`
	// False when the category has no items, which is not the same as scoring zero.
	HasData bool `json:"has_data"`
}

type StudentGradeSummary struct {
	StudentID         string                           `json:"student_id"`
	StudentName       string                           `json:"student_name"`
	Categories        map[string]*CategoryGradeSummary `json:"categories"`
	OverallPercentage float64                          `json:"overall_percentage"`
	HasData           bool                             `json:"has_data"`
	LetterGrade       string                           `json:"letter_grade"`
}

type AggregationFailure struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Error       string `json:"error"`
}

type CourseGradebook struct {
	CourseID    string                `json:"course_id"`
	Categories  CategoryWeights       `json:"categories"`
	Students    []StudentGradeSummary `json:"students"`
	Failures    []AggregationFailure  `json:"failures,omitempty"`
	GeneratedAt time.Time             `json:"generated_at"`
}
