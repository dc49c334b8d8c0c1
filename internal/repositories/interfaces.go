package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/grading-service/internal/models"
	"gorm.io/gorm"
)

// Repository groups the per-entity repositories behind one handle. Every
// method accepts an optional *gorm.DB; a nil tx uses the root connection.
type Repository interface {
	Quiz() QuizRepository
	Attempt() AttemptRepository
	Answer() AnswerRepository
	GradeItem() GradeItemRepository
	Course() CourseRepository
	Audit() AuditRepository

	// WithTransaction runs fn in a database transaction, committing when fn
	// returns nil and rolling back otherwise.
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Ping(ctx context.Context) error
}

// IsNotFoundError reports whether err means the requested row does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// ===== SHARED FILTER STRUCTS =====

type OpenAttemptFilters struct {
	// Only timed attempts whose deadline passed before this instant are
	// returned, earliest deadline first.
	ExpiredBefore *time.Time `json:"expired_before"`
	TimedOnly     bool       `json:"timed_only"`
	Limit         int        `json:"limit"`
}

type GradeItemFilters struct {
	StudentID  *string             `json:"student_id"`
	Category   *string             `json:"category"`
	SourceType *models.GradeSource `json:"source_type"`
}

type AuditFilters struct {
	EventType *models.AuditEventType `json:"event_type"`
	TargetID  *string                `json:"target_id"`
	Limit     int                    `json:"limit"`
	Offset    int                    `json:"offset"`
}

// ===== PER-ENTITY REPOSITORIES =====

type QuizRepository interface {
	// GetWithQuestions loads the quiz with questions and options in position order.
	GetWithQuestions(ctx context.Context, tx *gorm.DB, id string) (*models.Quiz, error)
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
}

type AttemptRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Attempt, error)
	// GetWithAnswers loads the attempt, its answers and its quiz.
	GetWithAnswers(ctx context.Context, tx *gorm.DB, id string) (*models.Attempt, error)
	// GetForUpdate locks the attempt row for the rest of the transaction.
	GetForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Attempt, error)
	Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error
	// Update saves the attempt row without touching its answers.
	Update(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error
	ListOpen(ctx context.Context, tx *gorm.DB, filters OpenAttemptFilters) ([]*models.Attempt, error)
	CountByStudentAndQuiz(ctx context.Context, tx *gorm.DB, studentID, quizID string) (int64, error)
	// GetOpenByStudentAndQuiz returns nil without error when no attempt is in progress.
	GetOpenByStudentAndQuiz(ctx context.Context, tx *gorm.DB, studentID, quizID string) (*models.Attempt, error)
	// BestGraded returns the graded attempt with the highest percentage.
	BestGraded(ctx context.Context, tx *gorm.DB, studentID, quizID string) (*models.Attempt, error)
}

type AnswerRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Answer, error)
	// UpsertBatch stores submitted answers, replacing any earlier answer to the same question.
	UpsertBatch(ctx context.Context, tx *gorm.DB, answers []*models.Answer) error
	// SaveOutcomes writes grading columns only.
	SaveOutcomes(ctx context.Context, tx *gorm.DB, answers []*models.Answer) error
}

type GradeItemRepository interface {
	// Upsert inserts or replaces the item identified by student and source.
	Upsert(ctx context.Context, tx *gorm.DB, item *models.GradeItem) error
	GetBySource(ctx context.Context, tx *gorm.DB, studentID string, sourceType models.GradeSource, sourceID string) (*models.GradeItem, error)
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID string, filters GradeItemFilters) ([]*models.GradeItem, error)
}

type CourseRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Course, error)
	GetGradingScheme(ctx context.Context, tx *gorm.DB, courseID string) (*models.GradingScheme, error)
	SaveGradingScheme(ctx context.Context, tx *gorm.DB, scheme *models.GradingScheme) error
	// GetRoster returns active enrollments ordered by display name.
	GetRoster(ctx context.Context, tx *gorm.DB, courseID string) ([]*models.Enrollment, error)
	GetEnrollment(ctx context.Context, tx *gorm.DB, courseID, studentID string) (*models.Enrollment, error)
}

type AuditRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *models.GradeAuditLog) error
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID string, filters AuditFilters) ([]*models.GradeAuditLog, int64, error)
}
