package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"greenintellect-backend/internal/shared/telemetry"
)

// Context keys handlers set so the request log can carry domain identifiers.
const (
	UploadIDKey         = "uploadId"
	CompanyIDKey        = "companyId"
	StatusTransitionKey = "statusTransition"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":        RequestIDFromContext(c),
			"method":            c.Request.Method,
			"path":              c.Request.URL.Path,
			"status":            c.Writer.Status(),
			"status_transition": c.GetString(StatusTransitionKey),
			"duration_ms":       float64(latency.Microseconds()) / 1000.0,
			"user_id":           UserIDFromContext(c),
			"upload_id":         c.GetString(UploadIDKey),
			"company_id":        c.GetString(CompanyIDKey),
			"is_admin":          IsAdmin(c),
			"client_ip":         c.ClientIP(),
			"user_agent":        c.Request.UserAgent(),
		}
		if c.Writer.Status() >= 500 {
			telemetry.Warn("request.complete", fields)
			return
		}
		telemetry.Info("request.complete", fields)
	}
}
