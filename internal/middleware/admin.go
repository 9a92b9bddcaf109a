package middleware

import (
	"net/http"

	"github.com/askhub-io/backend/internal/database"
	"github.com/askhub-io/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// RequireAdmin middleware ensures the request is authenticated and the user is an admin.
// It checks for a valid JWT token (which must be set by an earlier auth middleware)
// and verifies the user has admin privileges.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDInterface, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": gin.H{"code": "UNAUTHORIZED"}})
			c.Abort()
			return
		}

		userID, ok := userIDInterface.(string)
		if !ok || userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": gin.H{"code": "UNAUTHORIZED", "message": "invalid user context"}})
			c.Abort()
			return
		}

		// Fetch user from database to check admin status
		var user models.User
		if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": gin.H{"code": "UNAUTHORIZED", "message": "user not found"}})
			c.Abort()
			return
		}

		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": gin.H{"code": "FORBIDDEN", "message": "admin access required"}})
			c.Abort()
			return
		}

		c.Next()
	}
}
