package postgres

import (
	"context"

	"github.com/SAP-F-2025/grading-service/internal/models"
	"github.com/SAP-F-2025/grading-service/internal/repositories"
	"gorm.io/gorm"
)

type AuditPostgreSQL struct {
	db *gorm.DB
}

func NewAuditPostgreSQL(db *gorm.DB) repositories.AuditRepository {
	return &AuditPostgreSQL{db: db}
}

func (a *AuditPostgreSQL) Create(ctx context.Context, tx *gorm.DB, entry *models.GradeAuditLog) error {
	return getDB(a.db, tx).WithContext(ctx).Create(entry).Error
}

func (a *AuditPostgreSQL) ListByCourse(ctx context.Context, tx *gorm.DB, courseID string, filters repositories.AuditFilters) ([]*models.GradeAuditLog, int64, error) {
	var entries []*models.GradeAuditLog
	var total int64

	query := getDB(a.db, tx).WithContext(ctx).Model(&models.GradeAuditLog{}).Where("course_id = ?", courseID)
	if filters.EventType != nil {
		query = query.Where("event_type = ?", *filters.EventType)
	}
	if filters.TargetID != nil {
		query = query.Where("target_id = ?", *filters.TargetID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filters.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if err := query.Order("created_at DESC").Limit(limit).Offset(filters.Offset).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
