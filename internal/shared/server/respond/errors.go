package respond

import (
	"github.com/gin-gonic/gin"

	"greenintellect-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// MessageResponse is the flat error shape used by the analysis proxy.
type MessageResponse struct {
	Error string `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	logError(c, status, code, message)
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// Message sends {"error": message} with the given status.
func Message(c *gin.Context, status int, message string) {
	logError(c, status, "", message)
	c.AbortWithStatusJSON(status, MessageResponse{Error: message})
}

func logError(c *gin.Context, status int, code, message string) {
	fields := map[string]any{
		"status":     status,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if code != "" {
		fields["code"] = code
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if status >= 500 {
		telemetry.Error("http.error", fields)
		return
	}
	telemetry.Warn("http.error", fields)
}
