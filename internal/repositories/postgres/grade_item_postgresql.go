package postgres

import (
	"context"

	"github.com/SAP-F-2025/grading-service/internal/models"
	"github.com/SAP-F-2025/grading-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GradeItemPostgreSQL struct {
	db *gorm.DB
}

func NewGradeItemPostgreSQL(db *gorm.DB) repositories.GradeItemRepository {
	return &GradeItemPostgreSQL{db: db}
}

func (g *GradeItemPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, item *models.GradeItem) error {
	return getDB(g.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "source_type"}, {Name: "source_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "category", "raw_score", "max_score", "adjusted_score",
				"weight", "submitted_at", "due_at", "updated_at",
			}),
		}).
		Create(item).Error
}

func (g *GradeItemPostgreSQL) GetBySource(ctx context.Context, tx *gorm.DB, studentID string, sourceType models.GradeSource, sourceID string) (*models.GradeItem, error) {
	var item models.GradeItem
	if err := getDB(g.db, tx).WithContext(ctx).
		Where("student_id = ? AND source_type = ? AND source_id = ?", studentID, sourceType, sourceID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (g *GradeItemPostgreSQL) ListByCourse(ctx context.Context, tx *gorm.DB, courseID string, filters repositories.GradeItemFilters) ([]*models.GradeItem, error) {
	var items []*models.GradeItem

	query := getDB(g.db, tx).WithContext(ctx).Where("course_id = ?", courseID)
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	if filters.SourceType != nil {
		query = query.Where("source_type = ?", *filters.SourceType)
	}

	if err := query.Order("student_id ASC, category ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
