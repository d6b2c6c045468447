package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mohammedtarek206/elamid/internal/services"
	"github.com/mohammedtarek206/elamid/internal/utils"
)

// StudentHandler serves the grade-scoped student routes
type StudentHandler struct {
	BaseHandler
	portal  services.PortalService
	grading services.GradingService
}

func NewStudentHandler(portal services.PortalService, grading services.GradingService, logger utils.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler: NewBaseHandler(logger),
		portal:      portal,
		grading:     grading,
	}
}

// ===== STUDENT ENDPOINTS =====

// ListVideos returns the videos of the student's grade
// @Summary List videos
// @Tags student
// @Produce json
// @Success 200 {array} models.Video
// @Failure 401 {object} ErrorResponse
// @Router /student/videos [get]
func (h *StudentHandler) ListVideos(c *gin.Context) {
	student := studentFrom(c)

	videos, err := h.portal.ListVideos(c.Request.Context(), student)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list(videos))
}

// ListExams returns the active exams of the student's grade
// @Summary List exams
// @Tags student
// @Produce json
// @Success 200 {array} models.Exam
// @Failure 401 {object} ErrorResponse
// @Router /student/exams [get]
func (h *StudentHandler) ListExams(c *gin.Context) {
	student := studentFrom(c)

	exams, err := h.portal.ListExams(c.Request.Context(), student)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list(exams))
}

// GetExam returns an exam and its questions without the correct answers
// @Summary Get exam
// @Tags student
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} services.ExamView
// @Failure 403 {object} ErrorResponse "Exam belongs to another grade"
// @Failure 404 {object} ErrorResponse
// @Router /student/exams/{id} [get]
func (h *StudentHandler) GetExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	view, err := h.portal.GetExam(c.Request.Context(), studentFrom(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SubmitExam grades a submission and stores the result
// @Summary Submit exam
// @Tags student
// @Accept json
// @Produce json
// @Param id path uint true "Exam ID"
// @Param submission body services.SubmitExamRequest true "Answers"
// @Success 200 {object} models.Result
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /student/exams/{id}/submit [post]
func (h *StudentHandler) SubmitExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.SubmitExamRequest
	if !h.bindJSON(c, &req) {
		return
	}

	student := studentFrom(c)
	h.LogRequest(c, "Submitting exam", "exam_id", id, "student_id", student.ID, "answers", len(req.Answers))

	result, err := h.grading.Submit(c.Request.Context(), student, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListResults returns the caller's own results, newest first
// @Router /student/results [get]
func (h *StudentHandler) ListResults(c *gin.Context) {
	results, err := h.portal.ListMyResults(c.Request.Context(), studentFrom(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list(results))
}

// ===== PUBLIC =====

// ListFreeVideos serves the public landing page
// @Router /public/free-videos [get]
func (h *StudentHandler) ListFreeVideos(c *gin.Context) {
	videos, err := h.portal.ListFreeVideos(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list(videos))
}
