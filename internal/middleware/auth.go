package middleware

import (
	"strings"

	"github.com/askhub-io/backend/internal/auth"
	"github.com/askhub-io/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// RequireAuth validates the Bearer token and loads the user into the
// Gin context under "user" and "user_id"
func RequireAuth(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			util.RespondUnauthorized(c, "no token provided")
			c.Abort()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token == "" {
			util.RespondUnauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}

		user, err := authService.ValidateToken(token)
		if err != nil {
			util.RespondUnauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

// OptionalAuth loads the user into the context when a valid token is
// present but lets anonymous requests through
func OptionalAuth(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token == "" {
			c.Next()
			return
		}

		if user, err := authService.ValidateToken(token); err == nil {
			c.Set("user", user)
			c.Set("user_id", user.ID)
		}
		c.Next()
	}
}
