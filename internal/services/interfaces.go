package services

import (
	"context"

	"github.com/SAP-F-2025/grading-service/internal/models"
	"github.com/SAP-F-2025/grading-service/internal/repositories"
)

// GradingService owns the attempt lifecycle from start to graded result.
type GradingService interface {
	StartAttempt(ctx context.Context, quizID string, actor Actor) (*models.Attempt, error)
	CanStartAttempt(ctx context.Context, quizID, studentID string) (*models.AttemptEligibility, error)
	// SaveAnswers stores answers of an open attempt without submitting it.
	SaveAnswers(ctx context.Context, attemptID string, req *models.SubmitAttemptRequest, actor Actor) error
	SubmitAttempt(ctx context.Context, attemptID string, req *models.SubmitAttemptRequest, actor Actor) (*models.AttemptResult, error)
	GradeAttempt(ctx context.Context, attemptID string, actor Actor) (*models.AttemptResult, error)
	GetAttemptResult(ctx context.Context, attemptID string, actor Actor) (*models.AttemptResult, error)
	ManualGradeAnswer(ctx context.Context, answerID string, req *models.ManualGradeRequest, actor Actor) (*models.AttemptResult, error)
	GetTimeoutStatus(ctx context.Context, attemptID string, actor Actor) (*models.TimeoutStatus, error)
	// ForceSubmitTimedOut submits and grades every open attempt past its deadline.
	ForceSubmitTimedOut(ctx context.Context) (*models.SweepReport, error)
}

// GradebookService records grade items and aggregates course gradebooks.
type GradebookService interface {
	RecordAssignmentGrade(ctx context.Context, courseID string, req *models.RecordGradeRequest, actor Actor) (*models.GradeItem, error)
	GetStudentSummary(ctx context.Context, courseID, studentID string, actor Actor) (*models.StudentGradeSummary, error)
	GetCourseGradebook(ctx context.Context, courseID string, actor Actor) (*models.CourseGradebook, error)
	GetGradingScheme(ctx context.Context, courseID string, actor Actor) (*models.GradingScheme, error)
	UpdateGradingScheme(ctx context.Context, courseID string, req *models.UpdateGradingSchemeRequest, actor Actor) (*models.GradingScheme, error)
	ExportCSV(ctx context.Context, courseID string, actor Actor) (string, error)
	ExportXLSX(ctx context.Context, courseID string, actor Actor) ([]byte, error)
	ListAudit(ctx context.Context, courseID string, filters repositories.AuditFilters, actor Actor) ([]*models.GradeAuditLog, int64, error)
	PreviewLatePenalty(ctx context.Context, req *models.LatePenaltyRequest) (*models.LatePenaltyResponse, error)
}
