package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/SAP-F-2025/grading-service/internal/models"
	"github.com/SAP-F-2025/grading-service/internal/services"
	"github.com/SAP-F-2025/grading-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by the repository; /health reports its result.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HandlerManager struct {
	gradingHandler   *GradingHandler
	gradebookHandler *GradebookHandler
	verifier         TokenVerifier
	db               Pinger
	logger           utils.Logger
}

func NewHandlerManager(
	grading services.GradingService,
	gradebook services.GradebookService,
	verifier TokenVerifier,
	db Pinger,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		gradingHandler:   NewGradingHandler(grading, logger),
		gradebookHandler: NewGradebookHandler(gradebook, logger),
		verifier:         verifier,
		db:               db,
		logger:           logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.Use(utils.ContextLogger(hm.logger), utils.LoggerMiddleware(hm.logger), gin.Recovery())

	router.GET("/health", hm.HealthCheck)

	teacherOnly := RequireRole(models.RoleTeacher)
	studentOnly := RequireRole(models.RoleStudent)

	v1 := router.Group("/api/v1", AuthMiddleware(hm.verifier))
	{
		quizzes := v1.Group("/quizzes/:quiz_id")
		{
			quizzes.POST("/attempts", studentOnly, hm.gradingHandler.StartAttempt)
			quizzes.GET("/eligibility", studentOnly, hm.gradingHandler.GetEligibility)
		}

		attempts := v1.Group("/attempts/:attempt_id")
		{
			attempts.PUT("/answers", studentOnly, hm.gradingHandler.SaveAnswers)
			attempts.POST("/submit", studentOnly, hm.gradingHandler.SubmitAttempt)
			attempts.POST("/grade", teacherOnly, hm.gradingHandler.GradeAttempt)
			attempts.GET("/result", hm.gradingHandler.GetAttemptResult)
			attempts.GET("/timeout", hm.gradingHandler.GetTimeoutStatus)
		}

		v1.POST("/answers/:answer_id/grade", teacherOnly, hm.gradingHandler.ManualGradeAnswer)

		courses := v1.Group("/courses/:course_id")
		{
			courses.POST("/grades", teacherOnly, hm.gradebookHandler.RecordGrade)
			courses.GET("/gradebook", teacherOnly, hm.gradebookHandler.GetCourseGradebook)
			courses.GET("/students/:student_id/summary", hm.gradebookHandler.GetStudentSummary)
			courses.GET("/grading-scheme", hm.gradebookHandler.GetGradingScheme)
			courses.PUT("/grading-scheme", teacherOnly, hm.gradebookHandler.UpdateGradingScheme)
			courses.GET("/export", teacherOnly, hm.gradebookHandler.ExportGradebook)
			courses.GET("/grade-audit", teacherOnly, hm.gradebookHandler.ListAudit)
		}

		v1.POST("/tools/late-penalty", hm.gradebookHandler.PreviewLatePenalty)
	}
}

// HealthCheck reports database reachability.
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := hm.db.Ping(ctx); err != nil {
		hm.logger.Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "grading-service",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "grading-service",
	})
}
