package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
	AttemptGraded     AttemptStatus = "graded"
)

type EndReason string

const (
	EndReasonSubmitted EndReason = "submitted"
	EndReasonTimeout   EndReason = "timeout"
)

// Outcome is the grading state of a single answer.
type Outcome string

const (
	OutcomeUngraded            Outcome = ""
	OutcomeCorrect             Outcome = "correct"
	OutcomeIncorrect           Outcome = "incorrect"
	OutcomePendingManualReview Outcome = "pending_manual_review"
)

type Attempt struct {
	ID          string        `json:"id" gorm:"primaryKey;size:36"`
	QuizID      string        `json:"quiz_id" gorm:"not null;index;size:36"`
	StudentID   string        `json:"student_id" gorm:"not null;index;size:255"`
	Status      AttemptStatus `json:"status" gorm:"not null;default:in_progress;index"`
	StartedAt   time.Time     `json:"started_at" gorm:"not null"`
	SubmittedAt *time.Time    `json:"submitted_at"`
	EndReason   *EndReason    `json:"end_reason,omitempty" gorm:"size:20"`

	// Set by grading
	Score       float64    `json:"score"`
	MaxScore    float64    `json:"max_score"`
	Percentage  float64    `json:"percentage"`
	Passed      bool       `json:"passed"`
	Provisional bool       `json:"provisional"`
	GradedAt    *time.Time `json:"graded_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Answers []Answer `json:"answers" gorm:"foreignKey:AttemptID"`
	Quiz    *Quiz    `json:"quiz,omitempty" gorm:"foreignKey:QuizID"`
}

type Answer struct {
	ID                string                      `json:"id" gorm:"primaryKey;size:36"`
	AttemptID         string                      `json:"attempt_id" gorm:"not null;size:36;uniqueIndex:idx_attempt_question"`
	QuestionID        string                      `json:"question_id" gorm:"not null;size:36;uniqueIndex:idx_attempt_question"`
	SelectedOptionIDs datatypes.JSONSlice[string] `json:"selected_option_ids" gorm:"type:jsonb"`
	Text              *string                     `json:"text,omitempty" gorm:"type:text"`
	AnsweredAt        *time.Time                  `json:"answered_at"`

	Outcome       Outcome    `json:"outcome" gorm:"size:30"`
	PointsAwarded *float64   `json:"points_awarded"`
	GradedBy      *string    `json:"graded_by,omitempty" gorm:"size:255"`
	GradedAt      *time.Time `json:"graded_at,omitempty"`
	Feedback      *string    `json:"feedback,omitempty" gorm:"type:text"`
}

// IsEmpty reports whether the student left the question blank.
func (a *Answer) IsEmpty() bool {
	if a == nil {
		return true
	}
	if len(a.SelectedOptionIDs) > 0 {
		return false
	}
	return a.Text == nil || *a.Text == ""
}

func (Attempt) TableName() string {
	return "quiz_attempts"
}

func (Answer) TableName() string {
	return "attempt_answers"
}
