package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/repositories"
	"github.com/mohammedtarek206/elamid/internal/services"
	"github.com/mohammedtarek206/elamid/internal/utils"
)

// AdminHandler manages students and the video catalog
type AdminHandler struct {
	BaseHandler
	students services.StudentService
	content  services.ContentService
}

func NewAdminHandler(students services.StudentService, content services.ContentService, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler: NewBaseHandler(logger),
		students:    students,
		content:     content,
	}
}

// ===== STUDENTS =====

// CreateStudent registers a student; the access code is generated when omitted
// @Summary Create student
// @Tags admin
// @Accept json
// @Produce json
// @Param student body services.CreateStudentRequest true "Student data"
// @Success 201 {object} models.Student
// @Failure 400 {object} ErrorResponse
// @Router /admin/students [post]
func (h *AdminHandler) CreateStudent(c *gin.Context) {
	var req services.CreateStudentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	student, err := h.students.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, student)
}

// ListStudents accepts optional grade and active filters
// @Router /admin/students [get]
func (h *AdminHandler) ListStudents(c *gin.Context) {
	var filters repositories.StudentFilters
	var ok bool
	if filters.Grade, ok = h.gradeQuery(c); !ok {
		return
	}
	if filters.IsActive, ok = h.boolQuery(c, "active"); !ok {
		return
	}

	students, err := h.students.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list(students))
}

func (h *AdminHandler) GetStudent(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	student, err := h.students.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, student)
}

func (h *AdminHandler) UpdateStudent(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateStudentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating student", "student_id", id)

	student, err := h.students.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, student)
}

// DeleteStudent removes the student and ends their session. Results stay.
// @Router /admin/students/{id} [delete]
func (h *AdminHandler) DeleteStudent(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.students.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ToggleStudentStatus flips isActive
// @Router /admin/students/{id}/toggle-status [patch]
func (h *AdminHandler) ToggleStudentStatus(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	student, err := h.students.ToggleStatus(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, student)
}

// ===== VIDEOS =====

func (h *AdminHandler) CreateVideo(c *gin.Context) {
	var req services.CreateVideoRequest
	if !h.bindJSON(c, &req) {
		return
	}

	video, err := h.content.CreateVideo(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, video)
}

func (h *AdminHandler) ListVideos(c *gin.Context) {
	grade, ok := h.gradeQuery(c)
	if !ok {
		return
	}

	videos, err := h.content.ListVideos(c.Request.Context(), grade)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list(videos))
}

func (h *AdminHandler) GetVideo(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	video, err := h.content.GetVideo(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, video)
}

func (h *AdminHandler) UpdateVideo(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateVideoRequest
	if !h.bindJSON(c, &req) {
		return
	}

	video, err := h.content.UpdateVideo(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, video)
}

func (h *AdminHandler) DeleteVideo(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.content.DeleteVideo(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== FREE VIDEOS =====

func (h *AdminHandler) CreateFreeVideo(c *gin.Context) {
	var req services.CreateFreeVideoRequest
	if !h.bindJSON(c, &req) {
		return
	}

	video, err := h.content.CreateFreeVideo(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, video)
}

// ListFreeVideos returns all free videos, unlike the public route which is capped
func (h *AdminHandler) ListFreeVideos(c *gin.Context) {
	videos, err := h.content.ListFreeVideos(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list(videos))
}

func (h *AdminHandler) GetFreeVideo(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	video, err := h.content.GetFreeVideo(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, video)
}

func (h *AdminHandler) UpdateFreeVideo(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateFreeVideoRequest
	if !h.bindJSON(c, &req) {
		return
	}

	video, err := h.content.UpdateFreeVideo(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, video)
}

func (h *AdminHandler) DeleteFreeVideo(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.content.DeleteFreeVideo(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== QUERY HELPERS =====

// gradeQuery parses ?grade=. A missing parameter yields nil.
func (h *BaseHandler) gradeQuery(c *gin.Context) (*models.Grade, bool) {
	raw := c.Query("grade")
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	grade := models.Grade(n)
	if err != nil || !grade.Valid() {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid grade", nil)
		return nil, false
	}
	return &grade, true
}

func (h *BaseHandler) boolQuery(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid "+name, nil)
		return nil, false
	}
	return &b, true
}
