package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/SAP-F-2025/grading-service/internal/cache"
	"github.com/SAP-F-2025/grading-service/internal/events"
	"github.com/SAP-F-2025/grading-service/internal/grading"
	"github.com/SAP-F-2025/grading-service/internal/models"
	"github.com/SAP-F-2025/grading-service/internal/repositories"
	"github.com/SAP-F-2025/grading-service/internal/validator"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultRoundTo    = 2
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

type gradebookService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    *slog.Logger
	log       *ServiceLogger
	validator *validator.Validator
	cacheTTL  time.Duration
	now       func() time.Time
}

func NewGradebookService(repo repositories.Repository, cache cache.CacheService, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator, cacheTTL time.Duration) GradebookService {
	return &gradebookService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		log:       NewServiceLogger(logger, LogConfig{Service: "grading", Component: "gradebook"}),
		validator: validator,
		cacheTTL:  cacheTTL,
		now:       time.Now,
	}
}

// ===== GRADE ITEMS =====

func (s *gradebookService) RecordAssignmentGrade(ctx context.Context, courseID string, req *models.RecordGradeRequest, actor Actor) (*models.GradeItem, error) {
	op := s.log.WithOperation(ctx, "record_grade", actor.ID)

	item, err := s.recordAssignmentGrade(ctx, courseID, req, actor)
	if err != nil {
		op.LogResult(courseID, "course", err)
		return nil, err
	}
	op.LogResult(item.ID, "grade_item", nil)
	return item, nil
}

func (s *gradebookService) recordAssignmentGrade(ctx context.Context, courseID string, req *models.RecordGradeRequest, actor Actor) (*models.GradeItem, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := requireCourseManager(course, actor, "record grades"); err != nil {
		return nil, err
	}
	if _, err := s.repo.Course().GetEnrollment(ctx, nil, courseID, req.StudentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotEnrolled
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	var policy models.LatePenaltyPolicy
	scheme, err := s.repo.Course().GetGradingScheme(ctx, nil, courseID)
	switch {
	case err == nil:
		policy = scheme.LatePolicy.Data()
		if _, ok := scheme.CategoryWeights().Lookup(req.Category); !ok {
			s.logger.WarnContext(ctx, "Grade recorded in a category without weight",
				"course_id", courseID,
				"category", req.Category)
		}
	case !repositories.IsNotFoundError(err):
		return nil, fmt.Errorf("failed to get grading scheme: %w", err)
	}

	item := grading.ApplyLatePenalty(models.GradeItem{
		CourseID:    courseID,
		StudentID:   req.StudentID,
		SourceType:  req.SourceType,
		SourceID:    req.SourceID,
		Title:       req.Title,
		Category:    req.Category,
		RawScore:    req.RawScore,
		MaxScore:    req.MaxScore,
		Weight:      req.Weight,
		SubmittedAt: req.SubmittedAt,
		DueAt:       req.DueAt,
	}, policy)

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		previous, err := s.repo.GradeItem().GetBySource(ctx, tx, req.StudentID, req.SourceType, req.SourceID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to get grade item: %w", err)
		}

		var before interface{}
		if previous != nil {
			item.ID = previous.ID
			item.CreatedAt = previous.CreatedAt
			before = itemScore(previous)
		}
		if err := s.repo.GradeItem().Upsert(ctx, tx, &item); err != nil {
			return fmt.Errorf("failed to save grade item: %w", err)
		}

		entry := newAuditEntry(models.AuditGradeRecorded, courseID, actor.ID, "grade_item", item.ID,
			fmt.Sprintf("Grade recorded for %s %s", req.SourceType, req.SourceID),
			before, itemScore(&item))
		return s.repo.Audit().Create(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	invalidateCourse(ctx, s.cache, s.logger, courseID)
	publish(ctx, s.publisher, s.logger, events.NewGradebookUpdatedEvent(courseID, events.GradebookUpdatedEvent{
		StudentID:  item.StudentID,
		SourceType: string(item.SourceType),
		SourceID:   item.SourceID,
		Category:   item.Category,
		Reason:     "grade_recorded",
	}))
	return &item, nil
}

// ===== AGGREGATION =====

func (s *gradebookService) GetStudentSummary(ctx context.Context, courseID, studentID string, actor Actor) (*models.StudentGradeSummary, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if actor.ID != studentID {
		if err := requireCourseManager(course, actor, "view grades"); err != nil {
			return nil, err
		}
	}

	key := cache.StudentSummaryKey(courseID, studentID)
	var cached models.StudentGradeSummary
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	enrollment, err := s.repo.Course().GetEnrollment(ctx, nil, courseID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotEnrolled
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	scheme, err := s.loadScheme(ctx, courseID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.GradeItem().ListByCourse(ctx, nil, courseID, repositories.GradeItemFilters{StudentID: &studentID})
	if err != nil {
		return nil, fmt.Errorf("failed to list grade items: %w", err)
	}

	summary, err := grading.Aggregate(
		grading.Student{ID: enrollment.StudentID, DisplayName: enrollment.DisplayName},
		derefItems(items), scheme.CategoryWeights(), scheme.GradeRanges)
	if err != nil {
		return nil, err
	}
	roundSummary(summary, scheme.RoundTo)

	s.toCache(ctx, key, summary)
	return summary, nil
}

func (s *gradebookService) GetCourseGradebook(ctx context.Context, courseID string, actor Actor) (*models.CourseGradebook, error) {
	op := s.log.WithOperation(ctx, "get_gradebook", actor.ID)

	course, err := s.loadCourse(ctx, courseID)
	if err == nil {
		err = requireCourseManager(course, actor, "view gradebook")
	}
	if err != nil {
		op.LogResult(courseID, "course", err)
		return nil, err
	}

	gradebook, err := s.courseGradebook(ctx, courseID)
	op.LogResult(courseID, "course", err)
	return gradebook, err
}

// courseGradebook serves the cached gradebook or rebuilds it. A student whose
// items fail validation lands in Failures instead of failing the run.
func (s *gradebookService) courseGradebook(ctx context.Context, courseID string) (*models.CourseGradebook, error) {
	key := cache.GradebookKey(courseID)
	var cached models.CourseGradebook
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	scheme, err := s.loadScheme(ctx, courseID)
	if err != nil {
		return nil, err
	}
	roster, err := s.repo.Course().GetRoster(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roster: %w", err)
	}
	items, err := s.repo.GradeItem().ListByCourse(ctx, nil, courseID, repositories.GradeItemFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list grade items: %w", err)
	}

	byStudent := make(map[string][]models.GradeItem, len(roster))
	for _, item := range items {
		byStudent[item.StudentID] = append(byStudent[item.StudentID], *item)
	}
	entries := make([]grading.StudentItems, 0, len(roster))
	for _, enrollment := range roster {
		entries = append(entries, grading.StudentItems{
			Student: grading.Student{ID: enrollment.StudentID, DisplayName: enrollment.DisplayName},
			Items:   byStudent[enrollment.StudentID],
		})
	}

	gradebook, err := grading.AggregateCourse(courseID, entries, scheme.CategoryWeights(), scheme.GradeRanges)
	if err != nil {
		return nil, err
	}
	gradebook.GeneratedAt = s.now()
	for i := range gradebook.Students {
		roundSummary(&gradebook.Students[i], scheme.RoundTo)
	}
	for _, failure := range gradebook.Failures {
		s.logger.WarnContext(ctx, "Student excluded from gradebook",
			"course_id", courseID,
			"student_id", failure.StudentID,
			"error", failure.Error)
	}

	s.toCache(ctx, key, gradebook)
	return gradebook, nil
}

// ===== GRADING SCHEME =====

func (s *gradebookService) GetGradingScheme(ctx context.Context, courseID string, actor Actor) (*models.GradingScheme, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !actor.canManageCourse(course) {
		if _, err := s.repo.Course().GetEnrollment(ctx, nil, courseID, actor.ID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, NewPermissionError(actor.ID, courseID, "course", "view grading scheme", "not enrolled")
			}
			return nil, fmt.Errorf("failed to get enrollment: %w", err)
		}
	}
	return s.loadScheme(ctx, courseID)
}

// UpdateGradingScheme replaces the course scheme and re-applies the late
// policy to every assignment grade with a due date.
func (s *gradebookService) UpdateGradingScheme(ctx context.Context, courseID string, req *models.UpdateGradingSchemeRequest, actor Actor) (*models.GradingScheme, error) {
	op := s.log.WithOperation(ctx, "update_grading_scheme", actor.ID)

	scheme, err := s.updateGradingScheme(ctx, courseID, req, actor)
	op.LogResult(courseID, "course", err)
	return scheme, err
}

func (s *gradebookService) updateGradingScheme(ctx context.Context, courseID string, req *models.UpdateGradingSchemeRequest, actor Actor) (*models.GradingScheme, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := requireCourseManager(course, actor, "configure grading"); err != nil {
		return nil, err
	}

	ranges := req.GradeRanges
	if len(ranges) == 0 {
		ranges = models.DefaultGradeRanges()
	}
	roundTo := defaultRoundTo
	if req.RoundTo != nil {
		roundTo = *req.RoundTo
	}
	scheme := &models.GradingScheme{
		CourseID:    courseID,
		Weights:     datatypes.JSONSlice[models.CategoryWeight](req.Weights),
		GradeRanges: datatypes.JSONSlice[models.GradeRange](ranges),
		LatePolicy:  datatypes.NewJSONType(req.LatePolicy),
		RoundTo:     roundTo,
	}

	recomputed := 0
	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		previous, err := s.repo.Course().GetGradingScheme(ctx, tx, courseID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to get grading scheme: %w", err)
		}
		if err := s.repo.Course().SaveGradingScheme(ctx, tx, scheme); err != nil {
			return fmt.Errorf("failed to save grading scheme: %w", err)
		}

		assignments := models.SourceAssignment
		items, err := s.repo.GradeItem().ListByCourse(ctx, tx, courseID, repositories.GradeItemFilters{SourceType: &assignments})
		if err != nil {
			return fmt.Errorf("failed to list grade items: %w", err)
		}
		for _, item := range items {
			adjusted := grading.ApplyLatePenalty(*item, req.LatePolicy)
			if adjusted.AdjustedScore == item.AdjustedScore {
				continue
			}
			if err := s.repo.GradeItem().Upsert(ctx, tx, &adjusted); err != nil {
				return fmt.Errorf("failed to update grade item %s: %w", item.ID, err)
			}
			recomputed++
		}

		var before interface{}
		if previous != nil {
			before = previous
		}
		entry := newAuditEntry(models.AuditSchemeUpdated, courseID, actor.ID, "course", courseID,
			fmt.Sprintf("Grading scheme updated, %d late penalties recomputed", recomputed),
			before, scheme)
		return s.repo.Audit().Create(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	invalidateCourse(ctx, s.cache, s.logger, courseID)
	publish(ctx, s.publisher, s.logger, events.NewGradebookUpdatedEvent(courseID, events.GradebookUpdatedEvent{
		Reason: "scheme_updated",
	}))

	s.logger.InfoContext(ctx, "Grading scheme updated",
		"course_id", courseID,
		"categories", len(scheme.Weights),
		"recomputed_items", recomputed)
	return scheme, nil
}

// ===== EXPORT =====

func (s *gradebookService) ExportCSV(ctx context.Context, courseID string, actor Actor) (string, error) {
	gradebook, err := s.GetCourseGradebook(ctx, courseID, actor)
	if err != nil {
		return "", err
	}
	out, err := grading.ExportGradebookCSV(gradebook)
	if err != nil {
		return "", fmt.Errorf("failed to write gradebook csv: %w", err)
	}
	s.auditExport(ctx, courseID, actor, models.ExportCSV, len(gradebook.Students))
	return out, nil
}

// ExportXLSX writes the gradebook, the category weights and any excluded
// students to separate sheets.
func (s *gradebookService) ExportXLSX(ctx context.Context, courseID string, actor Actor) ([]byte, error) {
	gradebook, err := s.GetCourseGradebook(ctx, courseID, actor)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Gradebook"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	headers := append(grading.GradebookHeader(gradebook), "Letter")
	if err := writeRow(f, sheetName, 1, toCells(headers)); err != nil {
		return nil, err
	}
	for i := range gradebook.Students {
		student := &gradebook.Students[i]
		row := []interface{}{student.StudentName}
		for _, cw := range gradebook.Categories {
			if summary, ok := student.Categories[cw.Category]; ok && summary.HasData {
				row = append(row, summary.Percentage)
			} else {
				row = append(row, nil)
			}
		}
		if student.HasData {
			row = append(row, student.OverallPercentage, student.LetterGrade)
		} else {
			row = append(row, nil, nil)
		}
		if err := writeRow(f, sheetName, i+2, row); err != nil {
			return nil, err
		}
	}
	if err := f.SetRowStyle(sheetName, 1, 1, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	if err := s.writeWeightsSheet(f, gradebook.Categories, headerStyle); err != nil {
		return nil, err
	}
	if len(gradebook.Failures) > 0 {
		if err := writeFailuresSheet(f, gradebook.Failures); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	s.auditExport(ctx, courseID, actor, models.ExportXLSX, len(gradebook.Students))
	return buf.Bytes(), nil
}

func (s *gradebookService) writeWeightsSheet(f *excelize.File, weights models.CategoryWeights, headerStyle int) error {
	const sheetName = "Weights"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := writeRow(f, sheetName, 1, []interface{}{"Category", "Weight"}); err != nil {
		return err
	}
	for i, cw := range weights {
		if err := writeRow(f, sheetName, i+2, []interface{}{cw.Category, cw.Weight}); err != nil {
			return err
		}
	}
	return f.SetRowStyle(sheetName, 1, 1, headerStyle)
}

func writeFailuresSheet(f *excelize.File, failures []models.AggregationFailure) error {
	const sheetName = "Excluded"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := writeRow(f, sheetName, 1, []interface{}{"Student", "Error"}); err != nil {
		return err
	}
	for i, failure := range failures {
		if err := writeRow(f, sheetName, i+2, []interface{}{failure.StudentName, failure.Error}); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, value := range values {
		if value == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func (s *gradebookService) auditExport(ctx context.Context, courseID string, actor Actor, format models.ExportFormat, students int) {
	entry := newAuditEntry(models.AuditGradebookExported, courseID, actor.ID, "course", courseID,
		fmt.Sprintf("Gradebook exported as %s with %d students", format, students), nil, nil)
	if err := s.repo.Audit().Create(ctx, nil, entry); err != nil {
		s.logger.WarnContext(ctx, "Failed to record export audit entry", "course_id", courseID, "error", err)
	}
}

// ===== AUDIT AND TOOLS =====

func (s *gradebookService) ListAudit(ctx context.Context, courseID string, filters repositories.AuditFilters, actor Actor) ([]*models.GradeAuditLog, int64, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, 0, err
	}
	if err := requireCourseManager(course, actor, "view audit log"); err != nil {
		return nil, 0, err
	}

	filters = NormalizeAuditFilters(filters)

	entries, total, err := s.repo.Audit().ListByCourse(ctx, nil, courseID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit log: %w", err)
	}
	return entries, total, nil
}

// NormalizeAuditFilters applies the default and maximum page size.
func NormalizeAuditFilters(filters repositories.AuditFilters) repositories.AuditFilters {
	if filters.Limit <= 0 {
		filters.Limit = defaultAuditLimit
	}
	if filters.Limit > maxAuditLimit {
		filters.Limit = maxAuditLimit
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}
	return filters
}

func (s *gradebookService) PreviewLatePenalty(ctx context.Context, req *models.LatePenaltyRequest) (*models.LatePenaltyResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	policy := models.LatePenaltyPolicy{PercentPerDay: req.PercentPerDay, CutoffDays: req.CutoffDays}
	resp := &models.LatePenaltyResponse{
		DaysLate:   grading.DaysLate(req.SubmittedAt, req.DueAt),
		Multiplier: grading.CalculateLatePenalty(req.SubmittedAt, req.DueAt, policy),
	}
	if req.RawScore != nil {
		resp.AdjustedScore = floatPtr(*req.RawScore * resp.Multiplier)
	}
	return resp, nil
}

// ===== HELPERS =====

func (s *gradebookService) loadCourse(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

func (s *gradebookService) loadScheme(ctx context.Context, courseID string) (*models.GradingScheme, error) {
	scheme, err := s.repo.Course().GetGradingScheme(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSchemeNotConfigured
		}
		return nil, fmt.Errorf("failed to get grading scheme: %w", err)
	}
	return scheme, nil
}

func (s *gradebookService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WarnContext(ctx, "Gradebook cache read failed", "key", key, "error", err)
	}
	return false
}

func (s *gradebookService) toCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "Gradebook cache write failed", "key", key, "error", err)
	}
}

func derefItems(items []*models.GradeItem) []models.GradeItem {
	out := make([]models.GradeItem, len(items))
	for i, item := range items {
		out[i] = *item
	}
	return out
}

// roundSummary rounds percentages for display. Letter grades were assigned
// from the unrounded values.
func roundSummary(summary *models.StudentGradeSummary, places int) {
	summary.OverallPercentage = roundTo(summary.OverallPercentage, places)
	for _, category := range summary.Categories {
		category.Percentage = roundTo(category.Percentage, places)
	}
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func itemScore(item *models.GradeItem) map[string]interface{} {
	return map[string]interface{}{
		"raw_score":      item.RawScore,
		"max_score":      item.MaxScore,
		"adjusted_score": item.AdjustedScore,
	}
}
