package handlers

import (
	"context"

	"github.com/SAP-F-2025/grading-service/internal/models"
	"github.com/SAP-F-2025/grading-service/internal/repositories"
	"github.com/SAP-F-2025/grading-service/internal/services"
	"github.com/stretchr/testify/mock"
)

type MockGradingService struct {
	mock.Mock
}

func (m *MockGradingService) StartAttempt(ctx context.Context, quizID string, actor services.Actor) (*models.Attempt, error) {
	args := m.Called(ctx, quizID, actor)
	attempt, _ := args.Get(0).(*models.Attempt)
	return attempt, args.Error(1)
}

func (m *MockGradingService) CanStartAttempt(ctx context.Context, quizID, studentID string) (*models.AttemptEligibility, error) {
	args := m.Called(ctx, quizID, studentID)
	eligibility, _ := args.Get(0).(*models.AttemptEligibility)
	return eligibility, args.Error(1)
}

func (m *MockGradingService) SaveAnswers(ctx context.Context, attemptID string, req *models.SubmitAttemptRequest, actor services.Actor) error {
	args := m.Called(ctx, attemptID, req, actor)
	return args.Error(0)
}

func (m *MockGradingService) SubmitAttempt(ctx context.Context, attemptID string, req *models.SubmitAttemptRequest, actor services.Actor) (*models.AttemptResult, error) {
	args := m.Called(ctx, attemptID, req, actor)
	result, _ := args.Get(0).(*models.AttemptResult)
	return result, args.Error(1)
}

func (m *MockGradingService) GradeAttempt(ctx context.Context, attemptID string, actor services.Actor) (*models.AttemptResult, error) {
	args := m.Called(ctx, attemptID, actor)
	result, _ := args.Get(0).(*models.AttemptResult)
	return result, args.Error(1)
}

func (m *MockGradingService) GetAttemptResult(ctx context.Context, attemptID string, actor services.Actor) (*models.AttemptResult, error) {
	args := m.Called(ctx, attemptID, actor)
	result, _ := args.Get(0).(*models.AttemptResult)
	return result, args.Error(1)
}

func (m *MockGradingService) ManualGradeAnswer(ctx context.Context, answerID string, req *models.ManualGradeRequest, actor services.Actor) (*models.AttemptResult, error) {
	args := m.Called(ctx, answerID, req, actor)
	result, _ := args.Get(0).(*models.AttemptResult)
	return result, args.Error(1)
}

func (m *MockGradingService) GetTimeoutStatus(ctx context.Context, attemptID string, actor services.Actor) (*models.TimeoutStatus, error) {
	args := m.Called(ctx, attemptID, actor)
	status, _ := args.Get(0).(*models.TimeoutStatus)
	return status, args.Error(1)
}

func (m *MockGradingService) ForceSubmitTimedOut(ctx context.Context) (*models.SweepReport, error) {
	args := m.Called(ctx)
	report, _ := args.Get(0).(*models.SweepReport)
	return report, args.Error(1)
}

type MockGradebookService struct {
	mock.Mock
}

func (m *MockGradebookService) RecordAssignmentGrade(ctx context.Context, courseID string, req *models.RecordGradeRequest, actor services.Actor) (*models.GradeItem, error) {
	args := m.Called(ctx, courseID, req, actor)
	item, _ := args.Get(0).(*models.GradeItem)
	return item, args.Error(1)
}

func (m *MockGradebookService) GetStudentSummary(ctx context.Context, courseID, studentID string, actor services.Actor) (*models.StudentGradeSummary, error) {
	args := m.Called(ctx, courseID, studentID, actor)
	summary, _ := args.Get(0).(*models.StudentGradeSummary)
	return summary, args.Error(1)
}

func (m *MockGradebookService) GetCourseGradebook(ctx context.Context, courseID string, actor services.Actor) (*models.CourseGradebook, error) {
	args := m.Called(ctx, courseID, actor)
	gradebook, _ := args.Get(0).(*models.CourseGradebook)
	return gradebook, args.Error(1)
}

func (m *MockGradebookService) GetGradingScheme(ctx context.Context, courseID string, actor services.Actor) (*models.GradingScheme, error) {
	args := m.Called(ctx, courseID, actor)
	scheme, _ := args.Get(0).(*models.GradingScheme)
	return scheme, args.Error(1)
}

func (m *MockGradebookService) UpdateGradingScheme(ctx context.Context, courseID string, req *models.UpdateGradingSchemeRequest, actor services.Actor) (*models.GradingScheme, error) {
	args := m.Called(ctx, courseID, req, actor)
	scheme, _ := args.Get(0).(*models.GradingScheme)
	return scheme, args.Error(1)
}

func (m *MockGradebookService) ExportCSV(ctx context.Context, courseID string, actor services.Actor) (string, error) {
	args := m.Called(ctx, courseID, actor)
	return args.String(0), args.Error(1)
}

func (m *MockGradebookService) ExportXLSX(ctx context.Context, courseID string, actor services.Actor) ([]byte, error) {
	args := m.Called(ctx, courseID, actor)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockGradebookService) ListAudit(ctx context.Context, courseID string, filters repositories.AuditFilters, actor services.Actor) ([]*models.GradeAuditLog, int64, error) {
	args := m.Called(ctx, courseID, filters, actor)
	entries, _ := args.Get(0).([]*models.GradeAuditLog)
	return entries, args.Get(1).(int64), args.Error(2)
}

func (m *MockGradebookService) PreviewLatePenalty(ctx context.Context, req *models.LatePenaltyRequest) (*models.LatePenaltyResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.LatePenaltyResponse)
	return resp, args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error { return p.err }
