package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Primary keys are UUID strings assigned on insert when the caller left them empty.

func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	assignID(&q.ID)
	return nil
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	assignID(&q.ID)
	return nil
}

func (o *Option) BeforeCreate(tx *gorm.DB) error {
	assignID(&o.ID)
	return nil
}

func (a *Attempt) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}

func (g *GradeItem) BeforeCreate(tx *gorm.DB) error {
	assignID(&g.ID)
	return nil
}

func (l *GradeAuditLog) BeforeCreate(tx *gorm.DB) error {
	assignID(&l.ID)
	return nil
}
