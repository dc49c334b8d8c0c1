package models

import "time"

// SubmittedAnswer carries no timestamp; answers are stamped with server time
// when they are stored.
type SubmittedAnswer struct {
	QuestionID        string   `json:"question_id" validate:"required"`
	SelectedOptionIDs []string `json:"selected_option_ids" validate:"omitempty,max=20"`
	Text              *string  `json:"text" validate:"omitempty,max=5000"`
}

type SubmitAttemptRequest struct {
	Answers []SubmittedAnswer `json:"answers" validate:"max=500,dive"`
}

type ManualGradeRequest struct {
	Points   float64 `json:"points" validate:"min=0"`
	Feedback *string `json:"feedback" validate:"omitempty,max=2000"`
}

type RecordGradeRequest struct {
	StudentID   string      `json:"student_id" validate:"required,max=255"`
	SourceType  GradeSource `json:"source_type" validate:"required,grade_source"`
	SourceID    string      `json:"source_id" validate:"required,max=36"`
	Title       string      `json:"title" validate:"max=200"`
	Category    string      `json:"category" validate:"required,max=100"`
	RawScore    float64     `json:"raw_score" validate:"min=0"`
	MaxScore    float64     `json:"max_score" validate:"gt=0"`
	Weight      float64     `json:"weight" validate:"min=0"`
	SubmittedAt *time.Time  `json:"submitted_at"`
	DueAt       *time.Time  `json:"due_at"`
}

type UpdateGradingSchemeRequest struct {
	Weights     []CategoryWeight  `json:"weights" validate:"required,min=1,max=50,dive"`
	GradeRanges []GradeRange      `json:"grade_ranges" validate:"omitempty,max=30,dive"`
	LatePolicy  LatePenaltyPolicy `json:"late_policy"`
	// Decimal places kept in gradebook percentages; nil keeps two.
	RoundTo *int `json:"round_to" validate:"omitempty,min=0,max=4"`
}

type LatePenaltyRequest struct {
	SubmittedAt   time.Time `json:"submitted_at" validate:"required"`
	DueAt         time.Time `json:"due_at" validate:"required"`
	PercentPerDay float64   `json:"percent_per_day" validate:"min=0,max=1"`
	CutoffDays    *int      `json:"cutoff_days" validate:"omitempty,min=0"`
	RawScore      *float64  `json:"raw_score" validate:"omitempty,min=0"`
}

type LatePenaltyResponse struct {
	DaysLate      int      `json:"days_late"`
	Multiplier    float64  `json:"multiplier"`
	AdjustedScore *float64 `json:"adjusted_score,omitempty"`
}

type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

type GradebookExportRequest struct {
	Format ExportFormat `form:"format" validate:"omitempty,oneof=csv xlsx"`
}

// AttemptResult is returned after an attempt is graded.
type AttemptResult struct {
	AttemptID     string         `json:"attempt_id"`
	Status        AttemptStatus  `json:"status"`
	EndReason     *EndReason     `json:"end_reason,omitempty"`
	Score         float64        `json:"score"`
	MaxScore      float64        `json:"max_score"`
	Percentage    float64        `json:"percentage"`
	Passed        bool           `json:"passed"`
	Provisional   bool           `json:"provisional"`
	PendingReview int            `json:"pending_review"`
	Questions     []AnswerResult `json:"questions"`
	GradedAt      *time.Time     `json:"graded_at"`
}

type AnswerResult struct {
	QuestionID    string   `json:"question_id"`
	Outcome       Outcome  `json:"outcome"`
	PointsAwarded *float64 `json:"points_awarded"`
	MaxPoints     float64  `json:"max_points"`
}

type AttemptEligibility struct {
	QuizID       string `json:"quiz_id"`
	StudentID    string `json:"student_id"`
	AttemptsUsed int64  `json:"attempts_used"`
	// Zero means unlimited.
	MaxAttempts int    `json:"max_attempts"`
	CanStart    bool   `json:"can_start"`
	Reason      string `json:"reason,omitempty"`
	// Set when an attempt is already open and should be resumed.
	OpenAttemptID *string `json:"open_attempt_id,omitempty"`
}

type TimeoutStatus struct {
	AttemptID string     `json:"attempt_id"`
	TimedOut  bool       `json:"timed_out"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Submitted bool       `json:"submitted"`
}

// SweepReport summarizes one pass of the timeout sweeper.
type SweepReport struct {
	Checked        int      `json:"checked"`
	ForceSubmitted []string `json:"force_submitted"`
	Failed         []string `json:"failed,omitempty"`
}
