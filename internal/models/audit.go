package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditEventType string

const (
	AuditAttemptGraded      AuditEventType = "attempt_graded"
	AuditAttemptTimedOut    AuditEventType = "attempt_timed_out"
	AuditAnswerManualGraded AuditEventType = "answer_manual_graded"
	AuditGradeRecorded      AuditEventType = "grade_recorded"
	AuditSchemeUpdated      AuditEventType = "grading_scheme_updated"
	AuditGradebookExported  AuditEventType = "gradebook_exported"
)

// GradeAuditLog records who changed a grade and what it was before.
type GradeAuditLog struct {
	ID        string         `json:"id" gorm:"primaryKey;size:36"`
	EventType AuditEventType `json:"event_type" gorm:"not null;size:40;index"`
	CourseID  string         `json:"course_id" gorm:"size:36;index"`

	// Actor; "system" for the timeout sweeper.
	ActorID string `json:"actor_id" gorm:"not null;size:255;index"`

	TargetType string `json:"target_type" gorm:"size:30;index"` // attempt, answer, grade_item, course
	TargetID   string `json:"target_id" gorm:"size:36;index"`

	Description string         `json:"description" gorm:"type:text"`
	Changes     datatypes.JSON `json:"changes" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (GradeAuditLog) TableName() string {
	return "grade_audit_logs"
}

// AuditChange is the before/after pair stored in GradeAuditLog.Changes.
type AuditChange struct {
	Before interface{} `json:"before,omitempty"`
	After  interface{} `json:"after,omitempty"`
}
