package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mohammedtarek206/elamid/internal/auth"
	"github.com/mohammedtarek206/elamid/internal/services"
	"github.com/mohammedtarek206/elamid/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	service      services.AuthService
	cookieSecure bool
}

func NewAuthHandler(service services.AuthService, cookieSecure bool, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler:  NewBaseHandler(logger),
		service:      service,
		cookieSecure: cookieSecure,
	}
}

// LoginStudent signs a student in with their access code
// @Router /auth/login/student [post]
func (h *AuthHandler) LoginStudent(c *gin.Context) {
	var req services.StudentLoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.LoginStudent(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.setTokenCookie(c, resp.Token, resp.ExpiresAt)
	c.JSON(http.StatusOK, resp)
}

// LoginAdmin
// @Router /auth/login/admin [post]
func (h *AuthHandler) LoginAdmin(c *gin.Context) {
	var req services.AdminLoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.LoginAdmin(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.setTokenCookie(c, resp.Token, resp.ExpiresAt)
	c.JSON(http.StatusOK, resp)
}

// Logout ends the caller's session and clears the cookie
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	principal, ok := PrincipalFrom(c)
	if !ok {
		h.RespondWithError(c, http.StatusUnauthorized, "Please authenticate.", nil)
		return
	}

	if err := h.service.Logout(c.Request.Context(), principal); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.clearTokenCookie(c)
	c.Status(http.StatusNoContent)
}

// Me returns the authenticated principal
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := PrincipalFrom(c)
	if !ok {
		h.RespondWithError(c, http.StatusUnauthorized, "Please authenticate.", nil)
		return
	}

	switch p := principal.(type) {
	case *auth.StudentPrincipal:
		c.JSON(http.StatusOK, gin.H{"role": p.Role(), "student": p.Student})
	case *auth.AdminPrincipal:
		c.JSON(http.StatusOK, gin.H{"role": p.Role(), "admin": p.Admin})
	default:
		h.RespondWithError(c, http.StatusUnauthorized, "Please authenticate.", nil)
	}
}

func (h *AuthHandler) setTokenCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookie, token, maxAge, "/", "", h.cookieSecure, true)
}

func (h *AuthHandler) clearTokenCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookie, "", -1, "/", "", h.cookieSecure, true)
}
