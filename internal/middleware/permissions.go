// internal/middleware/permissions.go

package middleware

import (
	"net/http"

	"elevatr/internal/models"

	"github.com/gin-gonic/gin"
)

// RequireRole checks that the authenticated user holds at least the given
// role in the hierarchy (student < recruiter < admin).
func RequireRole(minRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleInterface, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "User not authenticated",
			})
			c.Abort()
			return
		}

		roleStr, ok := roleInterface.(string)
		if !ok || roleStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid user role",
			})
			c.Abort()
			return
		}

		userRole := models.UserRole(roleStr)
		requiredRole := models.UserRole(minRole)

		if !userRole.IsValid() || !requiredRole.IsValid() {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Invalid role",
			})
			c.Abort()
			return
		}

		if !userRole.IsHigherOrEqual(requiredRole) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":         "Insufficient permissions",
				"required_role": minRole,
				"user_role":     roleStr,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAnyRole allows the request when the user holds one of the listed
// roles exactly. Used where the hierarchy does not apply, e.g. endpoints
// meant for students only.
func RequireAnyRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleInterface, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "User not authenticated",
			})
			c.Abort()
			return
		}

		roleStr, _ := roleInterface.(string)
		for _, role := range roles {
			if roleStr == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error":         "Insufficient permissions",
			"allowed_roles": roles,
			"user_role":     roleStr,
		})
		c.Abort()
	}
}
