package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"greenintellect-backend/internal/shared/auth"
	"greenintellect-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
	userNameKey  = "userName"
	userRoleKey  = "userRole"
)

// Verifier turns a bearer token into claims.
type Verifier func(token string) (auth.Claims, error)

// Auth validates bearer JWTs and stores identity in context.
func Auth(verify Verifier) gin.HandlerFunc {
	if verify == nil {
		verify = auth.VerifyJWT
	}
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		claims, err := verify(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		c.Set(userIDKey, claims.Subject)
		if claims.Email != "" {
			c.Set(userEmailKey, claims.Email)
		}
		if claims.Name != "" {
			c.Set(userNameKey, claims.Name)
		}
		role := auth.RoleUser
		if claims.IsAdmin() {
			role = auth.RoleAdmin
		}
		c.Set(userRoleKey, role)
		c.Next()
	}
}

// RequireAdmin rejects callers whose token does not carry the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserIDFromContext(c) == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		if !IsAdmin(c) {
			respond.Error(c, http.StatusForbidden, "forbidden", "Admin access required", nil)
			return
		}
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	return stringFromContext(c, userIDKey)
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	return stringFromContext(c, userEmailKey)
}

// UserNameFromContext fetches the user name set by the auth middleware.
func UserNameFromContext(c *gin.Context) string {
	return stringFromContext(c, userNameKey)
}

// IsAdmin reports whether the authenticated caller has the admin role.
func IsAdmin(c *gin.Context) bool {
	return stringFromContext(c, userRoleKey) == auth.RoleAdmin
}

func stringFromContext(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
