package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/grading-service/internal/cache"
	"github.com/SAP-F-2025/grading-service/internal/events"
	"github.com/SAP-F-2025/grading-service/internal/models"
	"gorm.io/datatypes"
)

// SystemActorID is recorded as the actor of unattended operations.
const SystemActorID = "system"

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   string
	Role models.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// canManageCourse reports whether the actor may grade or configure the course.
func (a Actor) canManageCourse(course *models.Course) bool {
	if a.IsAdmin() {
		return true
	}
	return a.Role == models.RoleTeacher && course.InstructorID == a.ID
}

func requireCourseManager(course *models.Course, actor Actor, action string) error {
	if actor.canManageCourse(course) {
		return nil
	}
	return NewPermissionError(actor.ID, course.ID, "course", action, "not the course instructor")
}

func newAuditEntry(eventType models.AuditEventType, courseID, actorID, targetType, targetID, description string, before, after interface{}) *models.GradeAuditLog {
	entry := &models.GradeAuditLog{
		EventType:   eventType,
		CourseID:    courseID,
		ActorID:     actorID,
		TargetType:  targetType,
		TargetID:    targetID,
		Description: description,
	}
	if before != nil || after != nil {
		if raw, err := json.Marshal(models.AuditChange{Before: before, After: after}); err == nil {
			entry.Changes = datatypes.JSON(raw)
		}
	}
	return entry
}

// invalidateCourse drops every cached gradebook view of the course. Cache
// failures are logged; the entries expire on their own.
func invalidateCourse(ctx context.Context, c cache.CacheService, logger *slog.Logger, courseID string) {
	if c == nil {
		return
	}
	if err := c.Delete(ctx, cache.GradebookKey(courseID)); err != nil {
		logger.WarnContext(ctx, "Failed to invalidate gradebook cache", "course_id", courseID, "error", err)
	}
	if err := c.DeletePattern(ctx, cache.StudentSummaryPattern(courseID)); err != nil {
		logger.WarnContext(ctx, "Failed to invalidate student summary cache", "course_id", courseID, "error", err)
	}
}

// publish sends the event after the transaction committed. Delivery failures
// do not undo the grade.
func publish(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, event *events.GradingEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishGradingEvent(ctx, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish grading event",
			"event_id", event.ID,
			"event_type", event.Type,
			"course_id", event.CourseID,
			"error", err)
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func floatPtr(v float64) *float64 {
	return &v
}

func stringPtr(s string) *string {
	return &s
}
