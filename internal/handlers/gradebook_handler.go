package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/SAP-F-2025/grading-service/internal/models"
	"github.com/SAP-F-2025/grading-service/internal/repositories"
	"github.com/SAP-F-2025/grading-service/internal/services"
	"github.com/SAP-F-2025/grading-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type GradebookHandler struct {
	BaseHandler
	gradebookService services.GradebookService
}

func NewGradebookHandler(gradebookService services.GradebookService, logger utils.Logger) *GradebookHandler {
	return &GradebookHandler{
		BaseHandler:      NewBaseHandler(logger),
		gradebookService: gradebookService,
	}
}

// RecordGrade stores an assignment grade for a student
// @Summary Record grade
// @Tags gradebook
// @Accept json
// @Produce json
// @Param course_id path string true "Course ID"
// @Param grade body models.RecordGradeRequest true "Grade"
// @Success 201 {object} models.GradeItem
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{course_id}/grades [post]
func (h *GradebookHandler) RecordGrade(c *gin.Context) {
	courseID := ParseStringIDParam(c, "course_id")
	if courseID == "" {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req models.RecordGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Recording grade", "course_id", courseID, "student_id", req.StudentID, "source_id", req.SourceID)

	item, err := h.gradebookService.RecordAssignmentGrade(c.Request.Context(), courseID, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *GradebookHandler) GetCourseGradebook(c *gin.Context) {
	courseID := ParseStringIDParam(c, "course_id")
	if courseID == "" {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	gradebook, err := h.gradebookService.GetCourseGradebook(c.Request.Context(), courseID, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gradebook)
}

func (h *GradebookHandler) GetStudentSummary(c *gin.Context) {
	courseID := ParseStringIDParam(c, "course_id")
	if courseID == "" {
		return
	}
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	summary, err := h.gradebookService.GetStudentSummary(c.Request.Context(), courseID, studentID, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *GradebookHandler) GetGradingScheme(c *gin.Context) {
	courseID := ParseStringIDParam(c, "course_id")
	if courseID == "" {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	scheme, err := h.gradebookService.GetGradingScheme(c.Request.Context(), courseID, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scheme)
}

// UpdateGradingScheme replaces the course weights, grade ranges and late policy
// @Summary Update grading scheme
// @Tags gradebook
// @Accept json
// @Produce json
// @Param course_id path string true "Course ID"
// @Param scheme body models.UpdateGradingSchemeRequest true "Scheme"
// @Success 200 {object} models.GradingScheme
// @Failure 400 {object} ErrorResponse
// @Router /courses/{course_id}/grading-scheme [put]
func (h *GradebookHandler) UpdateGradingScheme(c *gin.Context) {
	courseID := ParseStringIDParam(c, "course_id")
	if courseID == "" {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req models.UpdateGradingSchemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Updating grading scheme", "course_id", courseID, "categories", len(req.Weights))

	scheme, err := h.gradebookService.UpdateGradingScheme(c.Request.Context(), courseID, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scheme)
}

// ExportGradebook downloads the gradebook as CSV (default) or XLSX
// @Summary Export gradebook
// @Tags gradebook
// @Produce text/csv
// @Param course_id path string true "Course ID"
// @Param format query string false "csv or xlsx"
// @Router /courses/{course_id}/export [get]
func (h *GradebookHandler) ExportGradebook(c *gin.Context) {
	courseID := ParseStringIDParam(c, "course_id")
	if courseID == "" {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req models.GradebookExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", err, err.Error())
		return
	}

	h.LogRequest(c, "Exporting gradebook", "course_id", courseID, "format", req.Format)

	switch models.ExportFormat(strings.ToLower(string(req.Format))) {
	case models.ExportCSV, "":
		out, err := h.gradebookService.ExportCSV(c.Request.Context(), courseID, actor)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.Header("Content-Disposition", attachment(courseID, "csv"))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(out))
	case models.ExportXLSX:
		data, err := h.gradebookService.ExportXLSX(c.Request.Context(), courseID, actor)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.Header("Content-Disposition", attachment(courseID, "xlsx"))
		c.Data(http.StatusOK, xlsxContentType, data)
	default:
		h.RespondWithError(c, http.StatusBadRequest, "Unsupported export format", nil, req.Format)
	}
}

func attachment(courseID, ext string) string {
	return fmt.Sprintf("attachment; filename=gradebook-%s.%s", courseID, ext)
}

func (h *GradebookHandler) ListAudit(c *gin.Context) {
	courseID := ParseStringIDParam(c, "course_id")
	if courseID == "" {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	filters := repositories.AuditFilters{
		Limit:  queryInt(c, "limit", 0),
		Offset: queryInt(c, "offset", 0),
	}
	if eventType := c.Query("event_type"); eventType != "" {
		t := models.AuditEventType(eventType)
		filters.EventType = &t
	}
	if targetID := c.Query("target_id"); targetID != "" {
		filters.TargetID = &targetID
	}

	entries, total, err := h.gradebookService.ListAudit(c.Request.Context(), courseID, filters, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	page := services.NormalizeAuditFilters(filters)
	c.JSON(http.StatusOK, ListResponse{
		Data:   entries,
		Total:  total,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

// PreviewLatePenalty computes the late multiplier for a hypothetical submission
// @Summary Late penalty preview
// @Tags tools
// @Accept json
// @Produce json
// @Param request body models.LatePenaltyRequest true "Timestamps and policy"
// @Success 200 {object} models.LatePenaltyResponse
// @Router /tools/late-penalty [post]
func (h *GradebookHandler) PreviewLatePenalty(c *gin.Context) {
	var req models.LatePenaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	resp, err := h.gradebookService.PreviewLatePenalty(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
