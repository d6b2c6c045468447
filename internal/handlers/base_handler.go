package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mohammedtarek206/elamid/internal/services"
	"github.com/mohammedtarek206/elamid/internal/utils"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Message string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c, h.logger).Debug(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err, "path", c.FullPath())
	utils.FromContext(c, h.logger).Error(msg, args...)
}

func (h *BaseHandler) RespondWithError(c *gin.Context, status int, message string, err error) {
	resp := ErrorResponse{Message: message}
	if err != nil {
		resp.Details = err.Error()
	}
	c.AbortWithStatusJSON(status, resp)
}

// parseIDParam reads a positive numeric path parameter. It writes a 400 and
// returns 0 when the value is not one.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid "+name, nil)
		return 0
	}
	return uint(id)
}

// bindJSON decodes the body into req, answering 400 on malformed input
func (h *BaseHandler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// handleServiceError maps service errors to status codes
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrSessionSuperseded):
		h.RespondWithError(c, http.StatusUnauthorized, "Logged in from another device", nil)
	case errors.Is(err, services.ErrAccountDisabled):
		h.RespondWithError(c, http.StatusUnauthorized, "Account is disabled", nil)
	case errors.Is(err, services.ErrUnauthenticated):
		h.RespondWithError(c, http.StatusUnauthorized, "Please authenticate.", nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		h.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials", nil)
	case errors.Is(err, services.ErrInvalidStudentCode):
		h.RespondWithError(c, http.StatusNotFound, "Invalid student code", nil)
	case errors.Is(err, services.ErrInvalidAttemptToken):
		h.RespondWithError(c, http.StatusBadRequest, "Missing or invalid attempt token", nil)
	case errors.Is(err, services.ErrExamInactive):
		h.RespondWithError(c, http.StatusForbidden, "Exam is not active", nil)
	case errors.Is(err, services.ErrForbidden):
		h.RespondWithError(c, http.StatusForbidden, "Access denied", nil)
	case errors.Is(err, services.ErrNotFound):
		h.RespondWithError(c, http.StatusNotFound, notFoundMessage(err), nil)
	case errors.Is(err, services.ErrValidationFailed):
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err)
	case errors.Is(err, services.ErrConflict):
		h.RespondWithError(c, http.StatusConflict, "Resource conflict", nil)
	default:
		h.LogError(c, err, "Unexpected service error")
		h.RespondWithError(c, http.StatusInternalServerError, err.Error(), nil)
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrExamNotFound):
		return "Exam not found"
	case errors.Is(err, services.ErrQuestionNotFound):
		return "Question not found"
	case errors.Is(err, services.ErrStudentNotFound):
		return "Student not found"
	case errors.Is(err, services.ErrVideoNotFound):
		return "Video not found"
	case errors.Is(err, services.ErrResultNotFound):
		return "Result not found"
	default:
		return "Not found"
	}
}

// list keeps empty collections as [] on the wire
func list[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
