package postgres

import (
	"context"

	"github.com/SAP-F-2025/grading-service/internal/models"
	"github.com/SAP-F-2025/grading-service/internal/repositories"
	"gorm.io/gorm"
)

type QuizPostgreSQL struct {
	db *gorm.DB
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{db: db}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

func (q *QuizPostgreSQL) GetWithQuestions(ctx context.Context, tx *gorm.DB, id string) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := getDB(q.db, tx).WithContext(ctx).
		Preload("Questions", byPosition).
		Preload("Questions.Options", byPosition).
		Where("id = ?", id).
		First(&quiz).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

// Create inserts the quiz together with its questions and options.
func (q *QuizPostgreSQL) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	return getDB(q.db, tx).WithContext(ctx).Create(quiz).Error
}
