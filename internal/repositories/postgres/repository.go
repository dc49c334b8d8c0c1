package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/grading-service/internal/repositories"
	"gorm.io/gorm"
)

type Repository struct {
	db        *gorm.DB
	quiz      repositories.QuizRepository
	attempt   repositories.AttemptRepository
	answer    repositories.AnswerRepository
	gradeItem repositories.GradeItemRepository
	course    repositories.CourseRepository
	audit     repositories.AuditRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &Repository{
		db:        db,
		quiz:      NewQuizPostgreSQL(db),
		attempt:   NewAttemptPostgreSQL(db),
		answer:    NewAnswerPostgreSQL(db),
		gradeItem: NewGradeItemPostgreSQL(db),
		course:    NewCoursePostgreSQL(db),
		audit:     NewAuditPostgreSQL(db),
	}
}

func (r *Repository) Quiz() repositories.QuizRepository           { return r.quiz }
func (r *Repository) Attempt() repositories.AttemptRepository     { return r.attempt }
func (r *Repository) Answer() repositories.AnswerRepository       { return r.answer }
func (r *Repository) GradeItem() repositories.GradeItemRepository { return r.gradeItem }
func (r *Repository) Course() repositories.CourseRepository       { return r.course }
func (r *Repository) Audit() repositories.AuditRepository         { return r.audit }

func (r *Repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// getDB returns tx when the caller is inside a transaction.
func getDB(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
