package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/grading-service/internal/cache"
	"github.com/SAP-F-2025/grading-service/internal/events"
	"github.com/SAP-F-2025/grading-service/internal/grading"
	"github.com/SAP-F-2025/grading-service/internal/models"
	"github.com/SAP-F-2025/grading-service/internal/repositories"
	"github.com/SAP-F-2025/grading-service/internal/validator"
	"gorm.io/gorm"
)

// sweepBatchSize bounds one pass of ForceSubmitTimedOut.
const sweepBatchSize = 200

type gradingService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    *slog.Logger
	log       *ServiceLogger
	validator *validator.Validator
	now       func() time.Time
}

func NewGradingService(repo repositories.Repository, cache cache.CacheService, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) GradingService {
	return &gradingService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		log:       NewServiceLogger(logger, LogConfig{Service: "grading", Component: "attempts"}),
		validator: validator,
		now:       time.Now,
	}
}

// ===== ATTEMPT LIFECYCLE =====

func (s *gradingService) StartAttempt(ctx context.Context, quizID string, actor Actor) (*models.Attempt, error) {
	op := s.log.WithOperation(ctx, "start_attempt", actor.ID)

	attempt, err := s.startAttempt(ctx, quizID, actor)
	if err != nil {
		op.LogResult(quizID, "quiz", err)
		return nil, err
	}
	op.LogResult(attempt.ID, "attempt", nil)
	return attempt, nil
}

func (s *gradingService) startAttempt(ctx context.Context, quizID string, actor Actor) (*models.Attempt, error) {
	quiz, err := s.loadQuiz(ctx, nil, quizID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.Course().GetEnrollment(ctx, nil, quiz.CourseID, actor.ID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotEnrolled
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	if err := s.validator.Question().ValidateQuiz(quiz); err != nil {
		return nil, err
	}

	eligibility, err := s.eligibility(ctx, quiz, actor.ID)
	if err != nil {
		return nil, err
	}
	if eligibility.OpenAttemptID != nil {
		s.logger.InfoContext(ctx, "Resuming existing attempt", "attempt_id", *eligibility.OpenAttemptID)
		return s.repo.Attempt().GetByID(ctx, nil, *eligibility.OpenAttemptID)
	}
	if !eligibility.CanStart {
		return nil, ErrAttemptLimitExceeded
	}

	attempt := &models.Attempt{
		QuizID:    quiz.ID,
		StudentID: actor.ID,
		Status:    models.AttemptInProgress,
		StartedAt: s.now(),
	}
	if err := s.repo.Attempt().Create(ctx, nil, attempt); err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.logger.InfoContext(ctx, "Quiz attempt started",
		"attempt_id", attempt.ID,
		"quiz_id", quiz.ID,
		"student_id", actor.ID)
	return attempt, nil
}

func (s *gradingService) CanStartAttempt(ctx context.Context, quizID, studentID string) (*models.AttemptEligibility, error) {
	quiz, err := s.loadQuiz(ctx, nil, quizID)
	if err != nil {
		return nil, err
	}
	return s.eligibility(ctx, quiz, studentID)
}

func (s *gradingService) eligibility(ctx context.Context, quiz *models.Quiz, studentID string) (*models.AttemptEligibility, error) {
	open, err := s.repo.Attempt().GetOpenByStudentAndQuiz(ctx, nil, studentID, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check open attempts: %w", err)
	}
	used, err := s.repo.Attempt().CountByStudentAndQuiz(ctx, nil, studentID, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}

	result := &models.AttemptEligibility{
		QuizID:       quiz.ID,
		StudentID:    studentID,
		AttemptsUsed: used,
		MaxAttempts:  quiz.MaxAttempts,
	}
	switch {
	case open != nil:
		result.Reason = ErrAttemptInProgress.Error()
		result.OpenAttemptID = stringPtr(open.ID)
	case quiz.MaxAttempts > 0 && used >= int64(quiz.MaxAttempts):
		result.Reason = ErrAttemptLimitExceeded.Error()
	default:
		result.CanStart = true
	}
	return result, nil
}

func (s *gradingService) SaveAnswers(ctx context.Context, attemptID string, req *models.SubmitAttemptRequest, actor Actor) error {
	op := s.log.WithOperation(ctx, "save_answers", actor.ID)

	if err := s.validator.Validate(req); err != nil {
		op.LogResult(attemptID, "attempt", err)
		return err
	}

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		attempt, quiz, err := s.lockOpenAttempt(ctx, tx, attemptID, actor)
		if err != nil {
			return err
		}
		now := s.now()
		if deadline, timed := grading.AttemptDeadline(attempt, quiz); timed && now.After(deadline) {
			return ErrAttemptTimeExpired
		}
		return s.storeAnswers(ctx, tx, attempt, quiz, req.Answers, now)
	})
	op.LogResult(attemptID, "attempt", err)
	return err
}

// SubmitAttempt stores the final answers, closes the attempt and grades it.
// A submission arriving after the deadline closes the attempt as timed out
// at the deadline and keeps only the answers saved before it.
func (s *gradingService) SubmitAttempt(ctx context.Context, attemptID string, req *models.SubmitAttemptRequest, actor Actor) (*models.AttemptResult, error) {
	op := s.log.WithOperation(ctx, "submit_attempt", actor.ID)

	if err := s.validator.Validate(req); err != nil {
		op.LogResult(attemptID, "attempt", err)
		return nil, err
	}

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		attempt, quiz, err := s.lockOpenAttempt(ctx, tx, attemptID, actor)
		if err != nil {
			return err
		}

		now := s.now()
		reason := models.EndReasonSubmitted
		submittedAt := now
		if deadline, timed := grading.AttemptDeadline(attempt, quiz); timed && now.After(deadline) {
			reason = models.EndReasonTimeout
			submittedAt = deadline
		} else if err := s.storeAnswers(ctx, tx, attempt, quiz, req.Answers, now); err != nil {
			return err
		}
		attempt.Status = models.AttemptSubmitted
		attempt.SubmittedAt = &submittedAt
		attempt.EndReason = &reason
		if err := s.repo.Attempt().Update(ctx, tx, attempt); err != nil {
			return fmt.Errorf("failed to submit attempt: %w", err)
		}
		return nil
	})
	if err != nil {
		op.LogResult(attemptID, "attempt", err)
		return nil, err
	}

	result, err := s.gradeAttempt(ctx, attemptID, "", nil)
	op.LogResult(attemptID, "attempt", err)
	return result, err
}

// ===== GRADING =====

// GradeAttempt regrades a submitted attempt on instructor request.
func (s *gradingService) GradeAttempt(ctx context.Context, attemptID string, actor Actor) (*models.AttemptResult, error) {
	op := s.log.WithOperation(ctx, "grade_attempt", actor.ID)

	attempt, err := s.repo.Attempt().GetByID(ctx, nil, attemptID)
	if err == nil {
		err = s.authorizeManager(ctx, attempt, actor, "grade")
	} else if repositories.IsNotFoundError(err) {
		err = ErrAttemptNotFound
	}
	if err != nil {
		op.LogResult(attemptID, "attempt", err)
		return nil, err
	}

	result, err := s.gradeAttempt(ctx, attemptID, actor.ID, nil)
	op.LogResult(attemptID, "attempt", err)
	return result, err
}

func (s *gradingService) GetAttemptResult(ctx context.Context, attemptID string, actor Actor) (*models.AttemptResult, error) {
	attempt, err := s.repo.Attempt().GetWithAnswers(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.StudentID != actor.ID {
		if err := s.authorizeManager(ctx, attempt, actor, "view"); err != nil {
			return nil, err
		}
	}
	if attempt.Status == models.AttemptInProgress {
		return nil, ErrAttemptNotGradable
	}

	quiz, err := s.quizOf(ctx, nil, attempt)
	if err != nil {
		return nil, err
	}
	result, err := grading.RegradeWithManual(quiz, attempt)
	if err != nil {
		return nil, err
	}
	return toAttemptResult(attempt, result), nil
}

func (s *gradingService) ManualGradeAnswer(ctx context.Context, answerID string, req *models.ManualGradeRequest, actor Actor) (*models.AttemptResult, error) {
	op := s.log.WithOperation(ctx, "manual_grade_answer", actor.ID)

	result, err := s.manualGradeAnswer(ctx, answerID, req, actor)
	op.LogResult(answerID, "answer", err)
	return result, err
}

func (s *gradingService) manualGradeAnswer(ctx context.Context, answerID string, req *models.ManualGradeRequest, actor Actor) (*models.AttemptResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	answer, err := s.repo.Answer().GetByID(ctx, nil, answerID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAnswerNotFound
		}
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	attempt, err := s.repo.Attempt().GetByID(ctx, nil, answer.AttemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if err := s.authorizeManager(ctx, attempt, actor, "grade"); err != nil {
		return nil, err
	}

	setManualGrade := func(tx *gorm.DB, attempt *models.Attempt, quiz *models.Quiz) error {
		stored := findAnswer(attempt, answerID)
		question := findQuestion(quiz, answer.QuestionID)
		if stored == nil || question == nil {
			return ErrAnswerNotFound
		}

		res, err := grading.ManualGrade(question, stored, req.Points)
		if err != nil {
			return err
		}

		before := stored.PointsAwarded
		now := s.now()
		stored.Outcome = res.Outcome
		stored.PointsAwarded = res.PointsAwarded
		stored.GradedBy = stringPtr(actor.ID)
		stored.GradedAt = &now
		if req.Feedback != nil {
			stored.Feedback = req.Feedback
		}
		if err := s.repo.Answer().SaveOutcomes(ctx, tx, []*models.Answer{stored}); err != nil {
			return fmt.Errorf("failed to save manual grade: %w", err)
		}

		entry := newAuditEntry(models.AuditAnswerManualGraded, quiz.CourseID, actor.ID, "answer", stored.ID,
			fmt.Sprintf("Answer to question %s graded manually", stored.QuestionID),
			before, res.PointsAwarded)
		return s.repo.Audit().Create(ctx, tx, entry)
	}

	return s.gradeAttempt(ctx, attempt.ID, actor.ID, setManualGrade)
}

// gradeAttempt grades a submitted attempt inside one transaction: prepare
// runs first with the locked attempt, then outcomes are stored, the attempt
// is marked graded and the best attempt feeds the quiz grade item.
func (s *gradingService) gradeAttempt(ctx context.Context, attemptID, graderID string, prepare func(tx *gorm.DB, attempt *models.Attempt, quiz *models.Quiz) error) (*models.AttemptResult, error) {
	var (
		attempt *models.Attempt
		quiz    *models.Quiz
		result  *grading.QuizResult
	)

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.Attempt().GetForUpdate(ctx, tx, attemptID); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAttemptNotFound
			}
			return fmt.Errorf("failed to lock attempt: %w", err)
		}

		var err error
		attempt, err = s.repo.Attempt().GetWithAnswers(ctx, tx, attemptID)
		if err != nil {
			return fmt.Errorf("failed to load attempt: %w", err)
		}
		if attempt.Status == models.AttemptInProgress {
			return ErrAttemptNotGradable
		}
		if quiz, err = s.quizOf(ctx, tx, attempt); err != nil {
			return err
		}
		if err := s.validator.Question().ValidateQuiz(quiz); err != nil {
			return err
		}

		if prepare != nil {
			if err := prepare(tx, attempt, quiz); err != nil {
				return err
			}
		}

		if result, err = grading.RegradeWithManual(quiz, attempt); err != nil {
			return err
		}

		now := s.now()
		if autoGraded := applyAutoOutcomes(attempt, result, now); len(autoGraded) > 0 {
			if err := s.repo.Answer().SaveOutcomes(ctx, tx, autoGraded); err != nil {
				return fmt.Errorf("failed to save answer outcomes: %w", err)
			}
		}

		before := attemptScore(attempt)
		attempt.Score = result.Score
		attempt.MaxScore = result.MaxScore
		attempt.Percentage = result.Percentage
		attempt.Passed = result.Passed
		attempt.Provisional = result.Provisional
		attempt.Status = models.AttemptGraded
		attempt.GradedAt = &now
		if err := s.repo.Attempt().Update(ctx, tx, attempt); err != nil {
			return fmt.Errorf("failed to save attempt grade: %w", err)
		}

		best, err := s.repo.Attempt().BestGraded(ctx, tx, attempt.StudentID, quiz.ID)
		if err != nil {
			return fmt.Errorf("failed to find best attempt: %w", err)
		}
		if err := s.repo.GradeItem().Upsert(ctx, tx, quizGradeItem(quiz, best)); err != nil {
			return fmt.Errorf("failed to record quiz grade: %w", err)
		}

		actorID := graderID
		if actorID == "" {
			actorID = SystemActorID
		}
		entry := newAuditEntry(models.AuditAttemptGraded, quiz.CourseID, actorID, "attempt", attempt.ID,
			fmt.Sprintf("Attempt graded %.2f/%.2f", result.Score, result.MaxScore),
			before, attemptScore(attempt))
		return s.repo.Audit().Create(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	invalidateCourse(ctx, s.cache, s.logger, quiz.CourseID)
	s.publishGraded(ctx, attempt, quiz, result, graderID)

	s.logger.InfoContext(ctx, "Attempt graded",
		"attempt_id", attempt.ID,
		"score", result.Score,
		"max_score", result.MaxScore,
		"provisional", result.Provisional)
	return toAttemptResult(attempt, result), nil
}

func (s *gradingService) publishGraded(ctx context.Context, attempt *models.Attempt, quiz *models.Quiz, result *grading.QuizResult, graderID string) {
	endReason := ""
	if attempt.EndReason != nil {
		endReason = string(*attempt.EndReason)
	}
	publish(ctx, s.publisher, s.logger, events.NewAttemptGradedEvent(quiz.CourseID, events.AttemptGradedEvent{
		AttemptID:   attempt.ID,
		QuizID:      quiz.ID,
		QuizTitle:   quiz.Title,
		StudentID:   attempt.StudentID,
		GradedAt:    *attempt.GradedAt,
		Score:       result.Score,
		MaxScore:    result.MaxScore,
		Percentage:  result.Percentage,
		Passed:      result.Passed,
		Provisional: result.Provisional,
		EndReason:   endReason,
		GraderID:    graderID,
	}))

	if !result.Provisional {
		return
	}

	pending := make([]string, 0, result.PendingReview)
	for _, q := range result.PerQuestion {
		if q.Outcome == models.OutcomePendingManualReview {
			pending = append(pending, q.QuestionID)
		}
	}
	instructorID := ""
	if course, err := s.repo.Course().GetByID(ctx, nil, quiz.CourseID); err == nil {
		instructorID = course.InstructorID
	} else {
		s.logger.WarnContext(ctx, "Failed to resolve course instructor", "course_id", quiz.CourseID, "error", err)
	}
	publish(ctx, s.publisher, s.logger, events.NewManualGradingRequiredEvent(quiz.CourseID, events.ManualGradingRequiredEvent{
		AttemptID:    attempt.ID,
		QuizID:       quiz.ID,
		QuizTitle:    quiz.Title,
		StudentID:    attempt.StudentID,
		QuestionIDs:  pending,
		InstructorID: instructorID,
	}))
}

// ===== TIMEOUTS =====

func (s *gradingService) GetTimeoutStatus(ctx context.Context, attemptID string, actor Actor) (*models.TimeoutStatus, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.StudentID != actor.ID {
		if err := s.authorizeManager(ctx, attempt, actor, "view"); err != nil {
			return nil, err
		}
	}
	quiz, err := s.loadQuiz(ctx, nil, attempt.QuizID)
	if err != nil {
		return nil, err
	}

	status := &models.TimeoutStatus{
		AttemptID: attempt.ID,
		Submitted: attempt.SubmittedAt != nil,
		TimedOut:  grading.IsQuizTimedOut(attempt, quiz, s.now()),
	}
	if attempt.EndReason != nil && *attempt.EndReason == models.EndReasonTimeout {
		status.TimedOut = true
	}
	if deadline, timed := grading.AttemptDeadline(attempt, quiz); timed {
		status.Deadline = &deadline
	}
	return status, nil
}

func (s *gradingService) ForceSubmitTimedOut(ctx context.Context) (*models.SweepReport, error) {
	now := s.now()
	open, err := s.repo.Attempt().ListOpen(ctx, nil, repositories.OpenAttemptFilters{
		ExpiredBefore: &now,
		TimedOnly:     true,
		Limit:         sweepBatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list open attempts: %w", err)
	}

	report := &models.SweepReport{ForceSubmitted: []string{}}
	for _, attempt := range open {
		report.Checked++
		if attempt.Quiz == nil || !grading.IsQuizTimedOut(attempt, attempt.Quiz, now) {
			s.log.Debug(ctx, "Skipping attempt still within its time limit", "attempt_id", attempt.ID)
			continue
		}

		if err := s.forceSubmit(ctx, attempt.ID, attempt.Quiz); err != nil {
			if errors.Is(err, ErrAttemptAlreadySubmitted) {
				s.log.Debug(ctx, "Attempt submitted before the sweep reached it", "attempt_id", attempt.ID)
				continue
			}
			s.logger.ErrorContext(ctx, "Failed to force-submit attempt", "attempt_id", attempt.ID, "error", err)
			report.Failed = append(report.Failed, attempt.ID)
			continue
		}
		report.ForceSubmitted = append(report.ForceSubmitted, attempt.ID)

		if _, err := s.gradeAttempt(ctx, attempt.ID, "", nil); err != nil {
			s.logger.ErrorContext(ctx, "Failed to grade timed-out attempt", "attempt_id", attempt.ID, "error", err)
			report.Failed = append(report.Failed, attempt.ID)
		}
	}

	if report.Checked > 0 {
		s.logger.InfoContext(ctx, "Timeout sweep finished",
			"checked", report.Checked,
			"force_submitted", len(report.ForceSubmitted),
			"failed", len(report.Failed))
	}
	return report, nil
}

// forceSubmit closes an expired attempt as of its deadline.
func (s *gradingService) forceSubmit(ctx context.Context, attemptID string, quiz *models.Quiz) error {
	var attempt *models.Attempt
	var deadline time.Time

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		attempt, err = s.repo.Attempt().GetForUpdate(ctx, tx, attemptID)
		if err != nil {
			return fmt.Errorf("failed to lock attempt: %w", err)
		}
		if attempt.Status != models.AttemptInProgress {
			return ErrAttemptAlreadySubmitted
		}

		deadline, _ = grading.AttemptDeadline(attempt, quiz)
		reason := models.EndReasonTimeout
		attempt.Status = models.AttemptSubmitted
		attempt.SubmittedAt = &deadline
		attempt.EndReason = &reason
		if err := s.repo.Attempt().Update(ctx, tx, attempt); err != nil {
			return fmt.Errorf("failed to close attempt: %w", err)
		}

		entry := newAuditEntry(models.AuditAttemptTimedOut, quiz.CourseID, SystemActorID, "attempt", attempt.ID,
			"Attempt force-submitted after the time limit", nil, map[string]interface{}{"deadline": deadline})
		return s.repo.Audit().Create(ctx, tx, entry)
	})
	if err != nil {
		return err
	}

	publish(ctx, s.publisher, s.logger, events.NewAttemptTimedOutEvent(quiz.CourseID, events.AttemptTimedOutEvent{
		AttemptID: attempt.ID,
		QuizID:    quiz.ID,
		StudentID: attempt.StudentID,
		StartedAt: attempt.StartedAt,
		Deadline:  deadline,
	}))
	return nil
}

// ===== HELPERS =====

func (s *gradingService) loadQuiz(ctx context.Context, tx *gorm.DB, quizID string) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetWithQuestions(ctx, tx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

// quizOf returns the quiz preloaded on the attempt, loading it when absent.
func (s *gradingService) quizOf(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) (*models.Quiz, error) {
	if attempt.Quiz != nil && len(attempt.Quiz.Questions) > 0 {
		return attempt.Quiz, nil
	}
	return s.loadQuiz(ctx, tx, attempt.QuizID)
}

// lockOpenAttempt locks an attempt owned by actor that is still in progress.
func (s *gradingService) lockOpenAttempt(ctx context.Context, tx *gorm.DB, attemptID string, actor Actor) (*models.Attempt, *models.Quiz, error) {
	attempt, err := s.repo.Attempt().GetForUpdate(ctx, tx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrAttemptNotFound
		}
		return nil, nil, fmt.Errorf("failed to lock attempt: %w", err)
	}
	if attempt.StudentID != actor.ID {
		return nil, nil, fmt.Errorf("%w: %w", ErrAttemptAccessDenied,
			NewPermissionError(actor.ID, attemptID, "attempt", "submit", "not owned by student"))
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, nil, ErrAttemptAlreadySubmitted
	}

	quiz, err := s.loadQuiz(ctx, tx, attempt.QuizID)
	if err != nil {
		return nil, nil, err
	}
	return attempt, quiz, nil
}

// storeAnswers checks each answer against its question before storing it
// with the server time.
func (s *gradingService) storeAnswers(ctx context.Context, tx *gorm.DB, attempt *models.Attempt, quiz *models.Quiz, submitted []models.SubmittedAnswer, now time.Time) error {
	answers := make([]*models.Answer, 0, len(submitted))
	for i, sa := range submitted {
		question := findQuestion(quiz, sa.QuestionID)
		if question == nil {
			return NewValidationError(fmt.Sprintf("answers[%d].question_id", i),
				fmt.Sprintf("question %s is not part of quiz %s", sa.QuestionID, quiz.ID), sa.QuestionID)
		}

		answer := &models.Answer{
			AttemptID:         attempt.ID,
			QuestionID:        sa.QuestionID,
			SelectedOptionIDs: sa.SelectedOptionIDs,
			Text:              sa.Text,
			AnsweredAt:        timePtr(now),
		}
		if _, err := grading.GradeAnswer(question, answer); err != nil {
			return err
		}
		answers = append(answers, answer)
	}

	if err := s.repo.Answer().UpsertBatch(ctx, tx, answers); err != nil {
		return fmt.Errorf("failed to save answers: %w", err)
	}
	return nil
}

// authorizeManager allows the course instructor and admins.
func (s *gradingService) authorizeManager(ctx context.Context, attempt *models.Attempt, actor Actor, action string) error {
	if actor.IsAdmin() {
		return nil
	}
	quiz, err := s.loadQuiz(ctx, nil, attempt.QuizID)
	if err != nil {
		return err
	}
	course, err := s.repo.Course().GetByID(ctx, nil, quiz.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to get course: %w", err)
	}
	if !actor.canManageCourse(course) {
		return NewPermissionError(actor.ID, attempt.ID, "attempt", action, "not the course instructor")
	}
	return nil
}

// applyAutoOutcomes copies machine outcomes onto stored answers that no
// instructor has graded and returns the ones that changed.
func applyAutoOutcomes(attempt *models.Attempt, result *grading.QuizResult, now time.Time) []*models.Answer {
	byQuestion := make(map[string]grading.AnswerResult, len(result.PerQuestion))
	for _, res := range result.PerQuestion {
		byQuestion[res.QuestionID] = res
	}

	var changed []*models.Answer
	for i := range attempt.Answers {
		answer := &attempt.Answers[i]
		if answer.GradedBy != nil {
			continue
		}
		res, ok := byQuestion[answer.QuestionID]
		if !ok {
			continue
		}
		answer.Outcome = res.Outcome
		answer.PointsAwarded = res.PointsAwarded
		answer.GradedAt = timePtr(now)
		changed = append(changed, answer)
	}
	return changed
}

func quizGradeItem(quiz *models.Quiz, attempt *models.Attempt) *models.GradeItem {
	return &models.GradeItem{
		CourseID:      quiz.CourseID,
		StudentID:     attempt.StudentID,
		SourceType:    models.SourceQuiz,
		SourceID:      quiz.ID,
		Title:         quiz.Title,
		Category:      quiz.Category,
		RawScore:      attempt.Score,
		MaxScore:      attempt.MaxScore,
		AdjustedScore: attempt.Score,
		Weight:        1,
		SubmittedAt:   attempt.SubmittedAt,
	}
}

func toAttemptResult(attempt *models.Attempt, result *grading.QuizResult) *models.AttemptResult {
	out := &models.AttemptResult{
		AttemptID:     attempt.ID,
		Status:        attempt.Status,
		EndReason:     attempt.EndReason,
		Score:         result.Score,
		MaxScore:      result.MaxScore,
		Percentage:    result.Percentage,
		Passed:        result.Passed,
		Provisional:   result.Provisional,
		PendingReview: result.PendingReview,
		Questions:     make([]models.AnswerResult, 0, len(result.PerQuestion)),
		GradedAt:      attempt.GradedAt,
	}
	for _, res := range result.PerQuestion {
		out.Questions = append(out.Questions, models.AnswerResult{
			QuestionID:    res.QuestionID,
			Outcome:       res.Outcome,
			PointsAwarded: res.PointsAwarded,
			MaxPoints:     res.MaxPoints,
		})
	}
	return out
}

func attemptScore(attempt *models.Attempt) map[string]interface{} {
	return map[string]interface{}{
		"status":      attempt.Status,
		"score":       attempt.Score,
		"max_score":   attempt.MaxScore,
		"provisional": attempt.Provisional,
	}
}

func findQuestion(quiz *models.Quiz, questionID string) *models.Question {
	for i := range quiz.Questions {
		if quiz.Questions[i].ID == questionID {
			return &quiz.Questions[i]
		}
	}
	return nil
}

func findAnswer(attempt *models.Attempt, answerID string) *models.Answer {
	for i := range attempt.Answers {
		if attempt.Answers[i].ID == answerID {
			return &attempt.Answers[i]
		}
	}
	return nil
}
