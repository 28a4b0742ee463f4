package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"greenintellect-backend/internal/shared/server/respond"
	"greenintellect-backend/internal/shared/telemetry"
)

// Recovery turns handler panics into a 500 envelope. If the handler already
// started writing, the connection is only logged and aborted.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			telemetry.Error("http.panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"user_id":    UserIDFromContext(c),
				"route":      c.FullPath(),
				"method":     c.Request.Method,
				"error":      fmt.Sprint(rec),
				"stack":      string(debug.Stack()),
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
		}()
		c.Next()
	}
}
