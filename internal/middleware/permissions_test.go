// internal/middleware/permissions_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func roleRouter(role string, guard gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/guarded",
		func(c *gin.Context) {
			if role != "" {
				c.Set("role", role)
			}
			c.Next()
		},
		guard,
		func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true})
		})
	return router
}

func requestGuarded(router *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	router.ServeHTTP(w, req)
	return w
}

func TestRequireRoleHierarchy(t *testing.T) {
	tests := []struct {
		name     string
		userRole string
		minRole  string
		want     int
	}{
		{"recruiter meets recruiter", "recruiter", "recruiter", http.StatusOK},
		{"admin exceeds recruiter", "admin", "recruiter", http.StatusOK},
		{"student below recruiter", "student", "recruiter", http.StatusForbidden},
		{"student meets student", "student", "student", http.StatusOK},
		{"unknown role rejected", "ghost", "recruiter", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := requestGuarded(roleRouter(tt.userRole, RequireRole(tt.minRole)))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireRoleWithoutAuthentication(t *testing.T) {
	w := requestGuarded(roleRouter("", RequireRole("recruiter")))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAnyRoleExactMatch(t *testing.T) {
	// No hierarchy here: an admin is not a student
	w := requestGuarded(roleRouter("admin", RequireAnyRole("student")))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = requestGuarded(roleRouter("student", RequireAnyRole("student")))
	assert.Equal(t, http.StatusOK, w.Code)
}
