package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/elearning-service/internal/auth"
	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
	"github.com/SAP-F-2025/elearning-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/elearning-service/internal/utils"
)

// IdentityResolver turns a bearer token into a local user.
// *auth.LocalResolver and *casdoor.UserCasdoor implement it.
type IdentityResolver = repositories.IdentityResolver

// AuthMiddleware authenticates requests with the configured resolver
type AuthMiddleware struct {
	BaseHandler
	resolver IdentityResolver
}

func NewAuthMiddleware(resolver IdentityResolver, logger utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		BaseHandler: NewBaseHandler(logger),
		resolver:    resolver,
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func isTokenError(err error) bool {
	return errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, casdoor.ErrInvalidToken)
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(userKey, user)
	c.Set(userIDKey, user.ID)
	c.Set(roleKey, user.Role)
}

// Authenticate rejects requests without a valid bearer token
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			m.RespondWithError(c, http.StatusUnauthorized, policy.CodeNotAuthenticated,
				"Authentication credentials were not provided.", nil)
			return
		}
		token, ok := bearerToken(c)
		if !ok {
			m.RespondWithError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid authorization header format.", nil)
			return
		}

		user, err := m.resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if isTokenError(err) {
				utils.GetLogger(c, m.logger).Warn("Rejected token", "error", err.Error())
				m.RespondWithError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Given token not valid for any token type.", nil)
				return
			}
			m.LogError(c, err, "Failed to resolve token")
			m.RespondWithError(c, http.StatusInternalServerError, "UNEXPECTED_ERROR", "An unexpected error occurred.", nil)
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// Optional attaches the user when a valid token is present and never rejects
func (m *AuthMiddleware) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if user, err := m.resolver.Resolve(c.Request.Context(), token); err == nil {
				setUser(c, user)
			}
		}
		c.Next()
	}
}

// RequireRoles admits only the given roles; Admin always passes
func (m *AuthMiddleware) RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := policy.RequireRoles(actorFrom(c), roles...); err != nil {
			m.handleServiceError(c, err)
			return
		}
		c.Next()
	}
}
