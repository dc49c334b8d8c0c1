package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SAP-F-2025/grading-service/internal/models"
	"github.com/SAP-F-2025/grading-service/internal/repositories"
	"github.com/SAP-F-2025/grading-service/internal/services"
	"github.com/SAP-F-2025/grading-service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

var (
	studentActor = services.Actor{ID: "stu-1", Role: models.RoleStudent}
	teacherActor = services.Actor{ID: "teacher-1", Role: models.RoleTeacher}
)

type routerFixture struct {
	engine    *gin.Engine
	grading   *MockGradingService
	gradebook *MockGradebookService
	verifier  *HMACVerifier
}

func newRouterFixture(db Pinger) *routerFixture {
	gin.SetMode(gin.TestMode)
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	f := &routerFixture{
		engine:    gin.New(),
		grading:   &MockGradingService{},
		gradebook: &MockGradebookService{},
		verifier:  NewHMACVerifier(testSecret, "grading-service"),
	}
	NewHandlerManager(f.grading, f.gradebook, f.verifier, db, logger).SetupRoutes(f.engine)
	return f
}

func (f *routerFixture) do(t *testing.T, method, path, body string, actor *services.Actor) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != nil {
		token, err := f.verifier.Issue(actor.ID, actor.Role, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest))
}

func TestHealthCheck(t *testing.T) {
	f := newRouterFixture(stubPinger{})
	w := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	f = newRouterFixture(stubPinger{err: errors.New("connection refused")})
	w = f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAuth_RejectsMissingAndForeignTokens(t *testing.T) {
	f := newRouterFixture(stubPinger{})

	w := f.do(t, http.MethodGet, "/api/v1/attempts/att-1/result", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	other := NewHMACVerifier("other-secret", "grading-service")
	token, err := other.Issue("stu-1", models.RoleStudent, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/attempts/att-1/result", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_RoleGate(t *testing.T) {
	f := newRouterFixture(stubPinger{})

	w := f.do(t, http.MethodPost, "/api/v1/attempts/att-1/grade", "", &studentActor)
	assert.Equal(t, http.StatusForbidden, w.Code)
	f.grading.AssertNotCalled(t, "GradeAttempt", mock.Anything, mock.Anything, mock.Anything)

	admin := services.Actor{ID: "root", Role: models.RoleAdmin}
	f.grading.On("GradeAttempt", mock.Anything, "att-1", admin).Return(&models.AttemptResult{AttemptID: "att-1"}, nil)
	w = f.do(t, http.MethodPost, "/api/v1/attempts/att-1/grade", "", &admin)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHMACVerifier(t *testing.T) {
	v := NewHMACVerifier(testSecret, "grading-service")

	token, err := v.Issue("teacher-1", models.RoleTeacher, time.Hour)
	require.NoError(t, err)
	actor, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, teacherActor, actor)

	expired, err := v.Issue("teacher-1", models.RoleTeacher, -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.Error(t, err)

	unknown, err := v.Issue("x", models.UserRole("guest"), time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(unknown)
	assert.ErrorIs(t, err, errUnknownRole)

	foreign, err := NewHMACVerifier(testSecret, "someone-else").Issue("x", models.RoleStudent, time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(foreign)
	assert.Error(t, err)
}

func TestGradingHandler_SubmitAttempt(t *testing.T) {
	f := newRouterFixture(stubPinger{})
	f.grading.On("SubmitAttempt", mock.Anything, "att-1", mock.MatchedBy(func(req *models.SubmitAttemptRequest) bool {
		return len(req.Answers) == 1 && req.Answers[0].QuestionID == "q1"
	}), studentActor).Return(&models.AttemptResult{AttemptID: "att-1", Score: 2, MaxScore: 5, Percentage: 40}, nil)

	w := f.do(t, http.MethodPost, "/api/v1/attempts/att-1/submit",
		`{"answers":[{"question_id":"q1","selected_option_ids":["o1"]}]}`, &studentActor)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result models.AttemptResult
	decode(t, w, &result)
	assert.Equal(t, 40.0, result.Percentage)
}

func TestGradingHandler_SubmitAttemptWithoutBody(t *testing.T) {
	f := newRouterFixture(stubPinger{})
	f.grading.On("SubmitAttempt", mock.Anything, "att-1", &models.SubmitAttemptRequest{}, studentActor).
		Return(&models.AttemptResult{AttemptID: "att-1"}, nil)

	w := f.do(t, http.MethodPost, "/api/v1/attempts/att-1/submit", "", &studentActor)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestGradingHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"already submitted", services.ErrAttemptAlreadySubmitted, http.StatusConflict},
		{"time expired", services.ErrAttemptTimeExpired, http.StatusConflict},
		{"not found", services.ErrAttemptNotFound, http.StatusNotFound},
		{"permission", services.NewPermissionError("stu-1", "att-1", "attempt", "submit", "not the owner"), http.StatusForbidden},
		{"validation", services.ValidationErrors{{Field: "answers[0].question_id", Message: "question answered more than once"}}, http.StatusBadRequest},
		{"single validation", services.NewValidationError("question_id", "not part of quiz", "q9"), http.StatusBadRequest},
		{"configuration", services.ErrSchemeNotConfigured, http.StatusUnprocessableEntity},
		{"foreign attempt", fmt.Errorf("%w: %w", services.ErrAttemptAccessDenied,
			services.NewPermissionError("stu-2", "att-1", "attempt", "submit", "not owned by student")), http.StatusForbidden},
		{"unexpected", errors.New("database down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(stubPinger{})
			f.grading.On("SaveAnswers", mock.Anything, "att-1", mock.Anything, studentActor).Return(tt.err)

			w := f.do(t, http.MethodPut, "/api/v1/attempts/att-1/answers", `{"answers":[]}`, &studentActor)
			assert.Equal(t, tt.status, w.Code)

			var resp ErrorResponse
			decode(t, w, &resp)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestGradingHandler_SaveAnswersRejectsMalformedJSON(t *testing.T) {
	f := newRouterFixture(stubPinger{})
	w := f.do(t, http.MethodPut, "/api/v1/attempts/att-1/answers", `{"answers":`, &studentActor)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.grading.AssertNotCalled(t, "SaveAnswers", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGradingHandler_ManualGradeAnswer(t *testing.T) {
	f := newRouterFixture(stubPinger{})
	f.grading.On("ManualGradeAnswer", mock.Anything, "ans-2", mock.MatchedBy(func(req *models.ManualGradeRequest) bool {
		return req.Points == 3 && req.Feedback != nil && *req.Feedback == "good"
	}), teacherActor).Return(&models.AttemptResult{AttemptID: "att-1", Score: 5}, nil)

	w := f.do(t, http.MethodPost, "/api/v1/answers/ans-2/grade", `{"points":3,"feedback":"good"}`, &teacherActor)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestGradingHandler_StartAttemptAndEligibility(t *testing.T) {
	f := newRouterFixture(stubPinger{})
	f.grading.On("StartAttempt", mock.Anything, "quiz-1", studentActor).Return(&models.Attempt{ID: "att-1"}, nil)
	f.grading.On("CanStartAttempt", mock.Anything, "quiz-1", "stu-1").Return(&models.AttemptEligibility{CanStart: true}, nil)

	w := f.do(t, http.MethodPost, "/api/v1/quizzes/quiz-1/attempts", "", &studentActor)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/quizzes/quiz-1/eligibility", "", &studentActor)
	require.Equal(t, http.StatusOK, w.Code)
	var eligibility models.AttemptEligibility
	decode(t, w, &eligibility)
	assert.True(t, eligibility.CanStart)
}

func TestGradebookHandler_Export(t *testing.T) {
	f := newRouterFixture(stubPinger{})
	f.gradebook.On("ExportCSV", mock.Anything, "course-1", teacherActor).Return("Student,Overall\nAda,82.00\n", nil)
	f.gradebook.On("ExportXLSX", mock.Anything, "course-1", teacherActor).Return([]byte("PK"), nil)

	w := f.do(t, http.MethodGet, "/api/v1/courses/course-1/export", "", &teacherActor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "gradebook-course-1.csv")
	assert.Contains(t, w.Body.String(), "Ada,82.00")

	w = f.do(t, http.MethodGet, "/api/v1/courses/course-1/export?format=xlsx", "", &teacherActor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))

	w = f.do(t, http.MethodGet, "/api/v1/courses/course-1/export?format=pdf", "", &teacherActor)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGradebookHandler_StudentSummaryAndScheme(t *testing.T) {
	f := newRouterFixture(stubPinger{})
	f.gradebook.On("GetStudentSummary", mock.Anything, "course-1", "stu-1", studentActor).
		Return(&models.StudentGradeSummary{StudentID: "stu-1", OverallPercentage: 82, LetterGrade: "B"}, nil)
	f.gradebook.On("GetGradingScheme", mock.Anything, "course-1", studentActor).Return(nil, services.ErrSchemeNotConfigured)

	w := f.do(t, http.MethodGet, "/api/v1/courses/course-1/students/stu-1/summary", "", &studentActor)
	require.Equal(t, http.StatusOK, w.Code)
	var summary models.StudentGradeSummary
	decode(t, w, &summary)
	assert.Equal(t, "B", summary.LetterGrade)

	w = f.do(t, http.MethodGet, "/api/v1/courses/course-1/grading-scheme", "", &studentActor)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/courses/course-1/gradebook", "", &studentActor)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGradebookHandler_RecordGrade(t *testing.T) {
	f := newRouterFixture(stubPinger{})
	f.gradebook.On("RecordAssignmentGrade", mock.Anything, "course-1", mock.MatchedBy(func(req *models.RecordGradeRequest) bool {
		return req.StudentID == "stu-1" && req.RawScore == 8 && req.DueAt != nil
	}), teacherActor).Return(&models.GradeItem{ID: "item-1", AdjustedScore: 7.2}, nil)

	body := `{"student_id":"stu-1","source_type":"assignment","source_id":"hw-1","category":"Assignments",` +
		`"raw_score":8,"max_score":10,"due_at":"2024-02-01T00:00:00Z","submitted_at":"2024-02-01T10:00:00Z"}`
	w := f.do(t, http.MethodPost, "/api/v1/courses/course-1/grades", body, &teacherActor)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var item models.GradeItem
	decode(t, w, &item)
	assert.Equal(t, 7.2, item.AdjustedScore)
}

func TestGradebookHandler_ListAudit(t *testing.T) {
	f := newRouterFixture(stubPinger{})
	f.gradebook.On("ListAudit", mock.Anything, "course-1", mock.MatchedBy(func(filters repositories.AuditFilters) bool {
		return filters.Limit == 20 && filters.Offset == 40 &&
			filters.EventType != nil && *filters.EventType == models.AuditGradeRecorded
	}), teacherActor).Return([]*models.GradeAuditLog{{ID: "log-1"}}, int64(41), nil)

	w := f.do(t, http.MethodGet, "/api/v1/courses/course-1/grade-audit?limit=20&offset=40&event_type=grade_recorded", "", &teacherActor)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data  []models.GradeAuditLog `json:"data"`
		Total int64                  `json:"total"`
	}
	decode(t, w, &resp)
	assert.Equal(t, int64(41), resp.Total)
	assert.Len(t, resp.Data, 1)
}

func TestGradebookHandler_PreviewLatePenalty(t *testing.T) {
	f := newRouterFixture(stubPinger{})
	f.gradebook.On("PreviewLatePenalty", mock.Anything, mock.MatchedBy(func(req *models.LatePenaltyRequest) bool {
		return req.PercentPerDay == 0.1
	})).Return(&models.LatePenaltyResponse{DaysLate: 1, Multiplier: 0.9}, nil)

	w := f.do(t, http.MethodPost, "/api/v1/tools/late-penalty",
		`{"submitted_at":"2024-02-01T10:00:00Z","due_at":"2024-02-01T00:00:00Z","percent_per_day":0.1}`, &studentActor)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.LatePenaltyResponse
	decode(t, w, &resp)
	assert.Equal(t, 0.9, resp.Multiplier)
}

func TestGradebookHandler_ListAuditClampsPage(t *testing.T) {
	f := newRouterFixture(stubPinger{})
	f.gradebook.On("ListAudit", mock.Anything, "course-1", mock.Anything, teacherActor).
		Return([]*models.GradeAuditLog{}, int64(0), nil)

	w := f.do(t, http.MethodGet, "/api/v1/courses/course-1/grade-audit?limit=1000&offset=-5", "", &teacherActor)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	}
	decode(t, w, &resp)
	assert.Equal(t, 200, resp.Limit)
	assert.Equal(t, 0, resp.Offset)
}
