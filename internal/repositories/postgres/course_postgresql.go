package postgres

import (
	"context"

	"github.com/SAP-F-2025/grading-service/internal/models"
	"github.com/SAP-F-2025/grading-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CoursePostgreSQL struct {
	db *gorm.DB
}

func NewCoursePostgreSQL(db *gorm.DB) repositories.CourseRepository {
	return &CoursePostgreSQL{db: db}
}

func (c *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Course, error) {
	var course models.Course
	if err := getDB(c.db, tx).WithContext(ctx).
		Preload("GradingScheme").
		Where("id = ?", id).
		First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *CoursePostgreSQL) GetGradingScheme(ctx context.Context, tx *gorm.DB, courseID string) (*models.GradingScheme, error) {
	var scheme models.GradingScheme
	if err := getDB(c.db, tx).WithContext(ctx).Where("course_id = ?", courseID).First(&scheme).Error; err != nil {
		return nil, err
	}
	return &scheme, nil
}

func (c *CoursePostgreSQL) SaveGradingScheme(ctx context.Context, tx *gorm.DB, scheme *models.GradingScheme) error {
	return getDB(c.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"weights", "grade_ranges", "late_policy", "round_to", "updated_at"}),
		}).
		Create(scheme).Error
}

func (c *CoursePostgreSQL) GetRoster(ctx context.Context, tx *gorm.DB, courseID string) ([]*models.Enrollment, error) {
	var roster []*models.Enrollment
	if err := getDB(c.db, tx).WithContext(ctx).
		Where("course_id = ? AND is_active = ?", courseID, true).
		Order("display_name ASC, student_id ASC").
		Find(&roster).Error; err != nil {
		return nil, err
	}
	return roster, nil
}

func (c *CoursePostgreSQL) GetEnrollment(ctx context.Context, tx *gorm.DB, courseID, studentID string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := getDB(c.db, tx).WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		First(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}
