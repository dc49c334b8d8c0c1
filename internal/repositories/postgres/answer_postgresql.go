package postgres

import (
	"context"

	"github.com/SAP-F-2025/grading-service/internal/models"
	"github.com/SAP-F-2025/grading-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (a *AnswerPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Answer, error) {
	var answer models.Answer
	if err := getDB(a.db, tx).WithContext(ctx).Where("id = ?", id).First(&answer).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (a *AnswerPostgreSQL) UpsertBatch(ctx context.Context, tx *gorm.DB, answers []*models.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	return getDB(a.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"selected_option_ids", "text", "answered_at"}),
		}).
		Create(&answers).Error
}

func (a *AnswerPostgreSQL) SaveOutcomes(ctx context.Context, tx *gorm.DB, answers []*models.Answer) error {
	db := getDB(a.db, tx).WithContext(ctx)
	for _, answer := range answers {
		// A map so nil pointers clear the column instead of being skipped.
		if err := db.Model(&models.Answer{}).
			Where("id = ?", answer.ID).
			Updates(map[string]interface{}{
				"outcome":        answer.Outcome,
				"points_awarded": answer.PointsAwarded,
				"graded_by":      answer.GradedBy,
				"graded_at":      answer.GradedAt,
				"feedback":       answer.Feedback,
			}).Error; err != nil {
			return err
		}
	}
	return nil
}
