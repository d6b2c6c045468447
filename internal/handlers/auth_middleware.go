package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mohammedtarek206/elamid/internal/auth"
	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/services"
	"github.com/mohammedtarek206/elamid/internal/utils"
)

const (
	tokenCookie  = "token"
	principalKey = "principal"
)

// AuthMiddleware resolves the caller of every protected route
type AuthMiddleware struct {
	BaseHandler
	auth services.AuthService
}

func NewAuthMiddleware(authService services.AuthService, logger utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		BaseHandler: NewBaseHandler(logger),
		auth:        authService,
	}
}

// Authenticate reads the token from the Authorization header, falling back to
// the token cookie, and stores the resolved principal in the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := m.auth.Authenticate(c.Request.Context(), requestToken(c))
		if err != nil {
			m.handleServiceError(c, err)
			return
		}

		c.Set(principalKey, principal)
		c.Set("user_id", principal.ID())
		c.Set("user_role", principal.Role())
		c.Next()
	}
}

// RequireAdmin rejects every principal that is not an admin
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return m.requireRole(models.RoleAdmin)
}

func (m *AuthMiddleware) RequireStudent() gin.HandlerFunc {
	return m.requireRole(models.RoleStudent)
}

func (m *AuthMiddleware) requireRole(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			m.RespondWithError(c, http.StatusUnauthorized, "Please authenticate.", nil)
			return
		}
		if principal.Role() != role {
			m.LogRequest(c, "Role rejected", "user_id", principal.ID(), "role", principal.Role(), "required", role)
			m.RespondWithError(c, http.StatusForbidden, "Access denied", nil)
			return
		}
		c.Next()
	}
}

func PrincipalFrom(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

// studentFrom returns the calling student. Routes using it sit behind
// RequireStudent.
func studentFrom(c *gin.Context) *models.Student {
	if p, ok := PrincipalFrom(c); ok {
		if sp, ok := p.(*auth.StudentPrincipal); ok {
			return sp.Student
		}
	}
	return nil
}

func requestToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := c.Cookie(tokenCookie); err == nil {
		return cookie
	}
	return ""
}
