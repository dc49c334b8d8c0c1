package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

type Course struct {
	ID           string         `json:"id" gorm:"primaryKey;size:36"`
	Title        string         `json:"title" gorm:"not null;size:200"`
	InstructorID string         `json:"instructor_id" gorm:"not null;index;size:255"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	GradingScheme *GradingScheme `json:"grading_scheme,omitempty" gorm:"foreignKey:CourseID"`
}

func (Course) TableName() string {
	return "courses"
}

// Enrollment is a student on a course roster. DisplayName is denormalized
// from the identity provider so gradebooks sort without a user lookup.
type Enrollment struct {
	CourseID    string    `json:"course_id" gorm:"primaryKey;size:36"`
	StudentID   string    `json:"student_id" gorm:"primaryKey;size:255"`
	DisplayName string    `json:"display_name" gorm:"not null;size:200"`
	Email       string    `json:"email" gorm:"size:255"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	EnrolledAt  time.Time `json:"enrolled_at"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
