package postgres

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/grading-service/internal/models"
	"github.com/SAP-F-2025/grading-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Attempt, error) {
	var attempt models.Attempt
	if err := getDB(a.db, tx).WithContext(ctx).Where("id = ?", id).First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetWithAnswers(ctx context.Context, tx *gorm.DB, id string) (*models.Attempt, error) {
	var attempt models.Attempt
	if err := getDB(a.db, tx).WithContext(ctx).
		Preload("Answers").
		Preload("Quiz").
		Preload("Quiz.Questions", byPosition).
		Preload("Quiz.Questions.Options", byPosition).
		Where("id = ?", id).
		First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Attempt, error) {
	var attempt models.Attempt
	if err := getDB(a.db, tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	return getDB(a.db, tx).WithContext(ctx).Omit(clause.Associations).Create(attempt).Error
}

func (a *AttemptPostgreSQL) Update(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	return getDB(a.db, tx).WithContext(ctx).Omit(clause.Associations).Save(attempt).Error
}

func (a *AttemptPostgreSQL) ListOpen(ctx context.Context, tx *gorm.DB, filters repositories.OpenAttemptFilters) ([]*models.Attempt, error) {
	var attempts []*models.Attempt

	query := openAttemptsQuery(getDB(a.db, tx).WithContext(ctx), filters)
	if err := query.Preload("Quiz").Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

const attemptDeadlineSQL = "quiz_attempts.started_at + quizzes.time_limit_seconds * interval '1 second'"

func openAttemptsQuery(db *gorm.DB, filters repositories.OpenAttemptFilters) *gorm.DB {
	query := db.Model(&models.Attempt{}).
		Select("quiz_attempts.*").
		Where("quiz_attempts.status = ?", models.AttemptInProgress)

	if filters.TimedOnly || filters.ExpiredBefore != nil {
		query = query.
			Joins("JOIN quizzes ON quizzes.id = quiz_attempts.quiz_id").
			Where("quizzes.time_limit_seconds > 0")
	}
	if filters.ExpiredBefore != nil {
		query = query.
			Where(attemptDeadlineSQL+" < ?", *filters.ExpiredBefore).
			Order(attemptDeadlineSQL + " ASC")
	} else {
		query = query.Order("quiz_attempts.started_at ASC")
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	return query
}

func (a *AttemptPostgreSQL) CountByStudentAndQuiz(ctx context.Context, tx *gorm.DB, studentID, quizID string) (int64, error) {
	var count int64
	if err := getDB(a.db, tx).WithContext(ctx).
		Model(&models.Attempt{}).
		Where("student_id = ? AND quiz_id = ?", studentID, quizID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (a *AttemptPostgreSQL) GetOpenByStudentAndQuiz(ctx context.Context, tx *gorm.DB, studentID, quizID string) (*models.Attempt, error) {
	var attempt models.Attempt
	if err := getDB(a.db, tx).WithContext(ctx).
		Where("student_id = ? AND quiz_id = ? AND status = ?", studentID, quizID, models.AttemptInProgress).
		First(&attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) BestGraded(ctx context.Context, tx *gorm.DB, studentID, quizID string) (*models.Attempt, error) {
	var attempt models.Attempt
	if err := getDB(a.db, tx).WithContext(ctx).
		Where("student_id = ? AND quiz_id = ? AND status = ?", studentID, quizID, models.AttemptGraded).
		Order("percentage DESC, graded_at ASC").
		First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}
