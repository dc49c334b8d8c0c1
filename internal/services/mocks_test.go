package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/SAP-F-2025/grading-service/internal/cache"
	"github.com/SAP-F-2025/grading-service/internal/models"
	"github.com/SAP-F-2025/grading-service/internal/repositories"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockRepository hands out per-entity mocks and runs transactions inline.
type MockRepository struct {
	quiz      *MockQuizRepository
	attempt   *MockAttemptRepository
	answer    *MockAnswerRepository
	gradeItem *MockGradeItemRepository
	course    *MockCourseRepository
	audit     *MockAuditRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		quiz:      &MockQuizRepository{},
		attempt:   &MockAttemptRepository{},
		answer:    &MockAnswerRepository{},
		gradeItem: &MockGradeItemRepository{},
		course:    &MockCourseRepository{},
		audit:     &MockAuditRepository{},
	}
}

func (m *MockRepository) Quiz() repositories.QuizRepository           { return m.quiz }
func (m *MockRepository) Attempt() repositories.AttemptRepository     { return m.attempt }
func (m *MockRepository) Answer() repositories.AnswerRepository       { return m.answer }
func (m *MockRepository) GradeItem() repositories.GradeItemRepository { return m.gradeItem }
func (m *MockRepository) Course() repositories.CourseRepository       { return m.course }
func (m *MockRepository) Audit() repositories.AuditRepository         { return m.audit }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (m *MockRepository) Ping(ctx context.Context) error { return nil }

// MockQuizRepository is a mock implementation of QuizRepository
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) GetWithQuestions(ctx context.Context, tx *gorm.DB, id string) (*models.Quiz, error) {
	args := m.Called(ctx, tx, id)
	quiz, _ := args.Get(0).(*models.Quiz)
	return quiz, args.Error(1)
}

func (m *MockQuizRepository) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	args := m.Called(ctx, tx, quiz)
	return args.Error(0)
}

// MockAttemptRepository is a mock implementation of AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Attempt, error) {
	args := m.Called(ctx, tx, id)
	attempt, _ := args.Get(0).(*models.Attempt)
	return attempt, args.Error(1)
}

func (m *MockAttemptRepository) GetWithAnswers(ctx context.Context, tx *gorm.DB, id string) (*models.Attempt, error) {
	args := m.Called(ctx, tx, id)
	attempt, _ := args.Get(0).(*models.Attempt)
	return attempt, args.Error(1)
}

func (m *MockAttemptRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Attempt, error) {
	args := m.Called(ctx, tx, id)
	attempt, _ := args.Get(0).(*models.Attempt)
	return attempt, args.Error(1)
}

func (m *MockAttemptRepository) Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	args := m.Called(ctx, tx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) Update(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	args := m.Called(ctx, tx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) ListOpen(ctx context.Context, tx *gorm.DB, filters repositories.OpenAttemptFilters) ([]*models.Attempt, error) {
	args := m.Called(ctx, tx, filters)
	attempts, _ := args.Get(0).([]*models.Attempt)
	return attempts, args.Error(1)
}

func (m *MockAttemptRepository) CountByStudentAndQuiz(ctx context.Context, tx *gorm.DB, studentID, quizID string) (int64, error) {
	args := m.Called(ctx, tx, studentID, quizID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAttemptRepository) GetOpenByStudentAndQuiz(ctx context.Context, tx *gorm.DB, studentID, quizID string) (*models.Attempt, error) {
	args := m.Called(ctx, tx, studentID, quizID)
	attempt, _ := args.Get(0).(*models.Attempt)
	return attempt, args.Error(1)
}

func (m *MockAttemptRepository) BestGraded(ctx context.Context, tx *gorm.DB, studentID, quizID string) (*models.Attempt, error) {
	args := m.Called(ctx, tx, studentID, quizID)
	attempt, _ := args.Get(0).(*models.Attempt)
	return attempt, args.Error(1)
}

// MockAnswerRepository is a mock implementation of AnswerRepository
type MockAnswerRepository struct {
	mock.Mock
}

func (m *MockAnswerRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Answer, error) {
	args := m.Called(ctx, tx, id)
	answer, _ := args.Get(0).(*models.Answer)
	return answer, args.Error(1)
}

func (m *MockAnswerRepository) UpsertBatch(ctx context.Context, tx *gorm.DB, answers []*models.Answer) error {
	args := m.Called(ctx, tx, answers)
	return args.Error(0)
}

func (m *MockAnswerRepository) SaveOutcomes(ctx context.Context, tx *gorm.DB, answers []*models.Answer) error {
	args := m.Called(ctx, tx, answers)
	return args.Error(0)
}

// MockGradeItemRepository is a mock implementation of GradeItemRepository
type MockGradeItemRepository struct {
	mock.Mock
}

func (m *MockGradeItemRepository) Upsert(ctx context.Context, tx *gorm.DB, item *models.GradeItem) error {
	args := m.Called(ctx, tx, item)
	return args.Error(0)
}

func (m *MockGradeItemRepository) GetBySource(ctx context.Context, tx *gorm.DB, studentID string, sourceType models.GradeSource, sourceID string) (*models.GradeItem, error) {
	args := m.Called(ctx, tx, studentID, sourceType, sourceID)
	item, _ := args.Get(0).(*models.GradeItem)
	return item, args.Error(1)
}

func (m *MockGradeItemRepository) ListByCourse(ctx context.Context, tx *gorm.DB, courseID string, filters repositories.GradeItemFilters) ([]*models.GradeItem, error) {
	args := m.Called(ctx, tx, courseID, filters)
	items, _ := args.Get(0).([]*models.GradeItem)
	return items, args.Error(1)
}

// MockCourseRepository is a mock implementation of CourseRepository
type MockCourseRepository struct {
	mock.Mock
}

func (m *MockCourseRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Course, error) {
	args := m.Called(ctx, tx, id)
	course, _ := args.Get(0).(*models.Course)
	return course, args.Error(1)
}

func (m *MockCourseRepository) GetGradingScheme(ctx context.Context, tx *gorm.DB, courseID string) (*models.GradingScheme, error) {
	args := m.Called(ctx, tx, courseID)
	scheme, _ := args.Get(0).(*models.GradingScheme)
	return scheme, args.Error(1)
}

func (m *MockCourseRepository) SaveGradingScheme(ctx context.Context, tx *gorm.DB, scheme *models.GradingScheme) error {
	args := m.Called(ctx, tx, scheme)
	return args.Error(0)
}

func (m *MockCourseRepository) GetRoster(ctx context.Context, tx *gorm.DB, courseID string) ([]*models.Enrollment, error) {
	args := m.Called(ctx, tx, courseID)
	roster, _ := args.Get(0).([]*models.Enrollment)
	return roster, args.Error(1)
}

func (m *MockCourseRepository) GetEnrollment(ctx context.Context, tx *gorm.DB, courseID, studentID string) (*models.Enrollment, error) {
	args := m.Called(ctx, tx, courseID, studentID)
	enrollment, _ := args.Get(0).(*models.Enrollment)
	return enrollment, args.Error(1)
}

// MockAuditRepository is a mock implementation of AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, tx *gorm.DB, entry *models.GradeAuditLog) error {
	args := m.Called(ctx, tx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) ListByCourse(ctx context.Context, tx *gorm.DB, courseID string, filters repositories.AuditFilters) ([]*models.GradeAuditLog, int64, error) {
	args := m.Called(ctx, tx, courseID, filters)
	entries, _ := args.Get(0).([]*models.GradeAuditLog)
	return entries, args.Get(1).(int64), args.Error(2)
}

// memoryCache stores JSON like the redis cache so cached reads decode fresh values.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	data, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.deletes = append(c.deletes, key)
	return nil
}

func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.deletes = append(c.deletes, pattern)
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}
