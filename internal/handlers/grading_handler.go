package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/SAP-F-2025/grading-service/internal/models"
	"github.com/SAP-F-2025/grading-service/internal/services"
	"github.com/SAP-F-2025/grading-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
}

func NewGradingHandler(gradingService services.GradingService, logger utils.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
	}
}

// StartAttempt opens an attempt on a quiz, or returns the one already open
// @Summary Start attempt
// @Tags attempts
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Success 201 {object} models.Attempt
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /quizzes/{quiz_id}/attempts [post]
func (h *GradingHandler) StartAttempt(c *gin.Context) {
	quizID := ParseStringIDParam(c, "quiz_id")
	if quizID == "" {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Starting attempt", "quiz_id", quizID)

	attempt, err := h.gradingService.StartAttempt(c.Request.Context(), quizID, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, attempt)
}

// GetEligibility reports whether the caller may start another attempt
// @Summary Attempt eligibility
// @Tags attempts
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Success 200 {object} models.AttemptEligibility
// @Router /quizzes/{quiz_id}/eligibility [get]
func (h *GradingHandler) GetEligibility(c *gin.Context) {
	quizID := ParseStringIDParam(c, "quiz_id")
	if quizID == "" {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	eligibility, err := h.gradingService.CanStartAttempt(c.Request.Context(), quizID, actor.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, eligibility)
}

// SaveAnswers stores answers on an open attempt without submitting it
// @Summary Autosave answers
// @Tags attempts
// @Accept json
// @Param attempt_id path string true "Attempt ID"
// @Param answers body models.SubmitAttemptRequest true "Answers"
// @Success 204
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{attempt_id}/answers [put]
func (h *GradingHandler) SaveAnswers(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "attempt_id")
	if attemptID == "" {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req models.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	if err := h.gradingService.SaveAnswers(c.Request.Context(), attemptID, &req, actor); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitAttempt closes an attempt and grades it. The body is optional.
// @Summary Submit attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param attempt_id path string true "Attempt ID"
// @Param answers body models.SubmitAttemptRequest false "Final answers"
// @Success 200 {object} models.AttemptResult
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{attempt_id}/submit [post]
func (h *GradingHandler) SubmitAttempt(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "attempt_id")
	if attemptID == "" {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req models.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Submitting attempt", "attempt_id", attemptID, "answers", len(req.Answers))

	result, err := h.gradingService.SubmitAttempt(c.Request.Context(), attemptID, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GradeAttempt re-runs grading on a submitted attempt
// @Summary Grade attempt
// @Tags grading
// @Produce json
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {object} models.AttemptResult
// @Router /attempts/{attempt_id}/grade [post]
func (h *GradingHandler) GradeAttempt(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "attempt_id")
	if attemptID == "" {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Grading attempt", "attempt_id", attemptID)

	result, err := h.gradingService.GradeAttempt(c.Request.Context(), attemptID, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *GradingHandler) GetAttemptResult(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "attempt_id")
	if attemptID == "" {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	result, err := h.gradingService.GetAttemptResult(c.Request.Context(), attemptID, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *GradingHandler) GetTimeoutStatus(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "attempt_id")
	if attemptID == "" {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	status, err := h.gradingService.GetTimeoutStatus(c.Request.Context(), attemptID, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// ManualGradeAnswer scores a short answer
// @Summary Grade answer
// @Tags grading
// @Accept json
// @Produce json
// @Param answer_id path string true "Answer ID"
// @Param grade body models.ManualGradeRequest true "Points and feedback"
// @Success 200 {object} models.AttemptResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /answers/{answer_id}/grade [post]
func (h *GradingHandler) ManualGradeAnswer(c *gin.Context) {
	answerID := ParseStringIDParam(c, "answer_id")
	if answerID == "" {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req models.ManualGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Grading answer", "answer_id", answerID, "points", req.Points)

	result, err := h.gradingService.ManualGradeAnswer(c.Request.Context(), answerID, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
