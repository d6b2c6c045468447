package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mohammedtarek206/elamid/internal/auth"
	"github.com/mohammedtarek206/elamid/internal/services"
	"github.com/mohammedtarek206/elamid/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DashboardHandler serves results and the admin overview
type DashboardHandler struct {
	BaseHandler
	results   services.ResultService
	dashboard services.DashboardService
}

func NewDashboardHandler(results services.ResultService, dashboard services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		results:     results,
		dashboard:   dashboard,
	}
}

// ===== DASHBOARD ENDPOINTS =====

// GetStats returns overall counts
// @Summary Get dashboard statistics
// @Description Counts of students, exams, videos, free videos and results
// @Tags admin
// @Produce json
// @Success 200 {object} services.DashboardStats
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /admin/stats [get]
func (h *DashboardHandler) GetStats(c *gin.Context) {
	h.LogRequest(c, "Getting dashboard stats")

	stats, err := h.dashboard.GetStats(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ===== RESULTS =====

// ListResults returns every result joined with student name and exam title/grade
// @Router /admin/results [get]
func (h *DashboardHandler) ListResults(c *gin.Context) {
	results, err := h.results.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list(results))
}

func (h *DashboardHandler) GetResult(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	result, err := h.results.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *DashboardHandler) DeleteResult(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.results.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ExportResults downloads all results as an XLSX workbook
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /admin/results/export [get]
func (h *DashboardHandler) ExportResults(c *gin.Context) {
	// The workbook is built in full before any status is written
	var buf bytes.Buffer
	if err := h.results.Export(c.Request.Context(), &buf); err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("results-%s.xlsx", auth.NowFunc().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
