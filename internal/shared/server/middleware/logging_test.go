package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"greenintellect-backend/internal/shared/auth"
	"greenintellect-backend/internal/shared/telemetry"
)

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	verify := stubVerifier(map[string]auth.Claims{
		"admin-token": {Role: auth.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{Subject: "admin-1"}},
	})
	router := gin.New()
	router.Use(RequestID(), Auth(verify), Logging())
	router.POST("/test", func(c *gin.Context) {
		c.Set(UploadIDKey, "upload-1")
		c.Set(StatusTransitionKey, "pending->approved")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	var buf bytes.Buffer
	telemetry.SetOutput(&buf)
	defer telemetry.SetOutput(os.Stdout)

	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatalf("expected log output")
	}
	last := lines[len(lines)-1]
	var payload map[string]any
	if err := json.Unmarshal([]byte(last), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}

	required := []string{"request_id", "user_id", "upload_id", "duration_ms", "status", "status_transition"}
	for _, key := range required {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if payload["user_id"] != "admin-1" {
		t.Fatalf("unexpected user_id: %v", payload["user_id"])
	}
	if payload["upload_id"] != "upload-1" {
		t.Fatalf("unexpected upload_id: %v", payload["upload_id"])
	}
	if payload["status_transition"] != "pending->approved" {
		t.Fatalf("unexpected status_transition: %v", payload["status_transition"])
	}
	if payload["is_admin"] != true {
		t.Fatalf("expected is_admin true, got %v", payload["is_admin"])
	}
}
