package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the grading events this service emits
type EventType string

const (
	EventAttemptGraded         EventType = "attempt.graded"
	EventAttemptTimedOut       EventType = "attempt.timed_out"
	EventManualGradingRequired EventType = "grading.manual_required"
	EventGradebookUpdated      EventType = "gradebook.updated"
)

const (
	eventSource  = "grading-service"
	eventVersion = "1.0"
)

// GradingEvent is the envelope published for every grading event
type GradingEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	CourseID  string                 `json:"course_id"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type AttemptGradedEvent struct {
	AttemptID   string    `json:"attempt_id"`
	QuizID      string    `json:"quiz_id"`
	QuizTitle   string    `json:"quiz_title"`
	StudentID   string    `json:"student_id"`
	GradedAt    time.Time `json:"graded_at"`
	Score       float64   `json:"score"`
	MaxScore    float64   `json:"max_score"`
	Percentage  float64   `json:"percentage"`
	Passed      bool      `json:"passed"`
	Provisional bool      `json:"provisional"`
	EndReason   string    `json:"end_reason"`
	// Empty when graded automatically.
	GraderID string `json:"grader_id,omitempty"`
}

type AttemptTimedOutEvent struct {
	AttemptID string    `json:"attempt_id"`
	QuizID    string    `json:"quiz_id"`
	StudentID string    `json:"student_id"`
	StartedAt time.Time `json:"started_at"`
	Deadline  time.Time `json:"deadline"`
}

type ManualGradingRequiredEvent struct {
	AttemptID    string   `json:"attempt_id"`
	QuizID       string   `json:"quiz_id"`
	QuizTitle    string   `json:"quiz_title"`
	StudentID    string   `json:"student_id"`
	QuestionIDs  []string `json:"question_ids"`
	InstructorID string   `json:"instructor_id"`
}

type GradebookUpdatedEvent struct {
	StudentID  string `json:"student_id"`
	SourceType string `json:"source_type"`
	SourceID   string `json:"source_id"`
	Category   string `json:"category"`
	// Reason is "grade_recorded" or "scheme_updated".
	Reason string `json:"reason"`
}

// Event factory functions

func newEvent(eventType EventType, courseID string, data interface{}) *GradingEvent {
	return &GradingEvent{
		ID:        generateEventID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		CourseID:  courseID,
		Data:      data,
	}
}

func NewAttemptGradedEvent(courseID string, payload AttemptGradedEvent) *GradingEvent {
	return newEvent(EventAttemptGraded, courseID, payload)
}

func NewAttemptTimedOutEvent(courseID string, payload AttemptTimedOutEvent) *GradingEvent {
	return newEvent(EventAttemptTimedOut, courseID, payload)
}

func NewManualGradingRequiredEvent(courseID string, payload ManualGradingRequiredEvent) *GradingEvent {
	return newEvent(EventManualGradingRequired, courseID, payload)
}

func NewGradebookUpdatedEvent(courseID string, payload GradebookUpdatedEvent) *GradingEvent {
	return newEvent(EventGradebookUpdated, courseID, payload)
}

func generateEventID() string {
	return uuid.NewString()
}
