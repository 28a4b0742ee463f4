package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestErrorAndMessageShapes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/envelope", func(c *gin.Context) {
		Error(c, http.StatusConflict, "update_in_progress", "busy", nil)
	})
	r.GET("/flat", func(c *gin.Context) {
		Message(c, http.StatusBadRequest, "Prompt is required")
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/envelope", nil))
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	var env ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Error.Code != "update_in_progress" || env.Error.Message != "busy" {
		t.Fatalf("unexpected envelope %+v", env)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/flat", nil))
	var flat MessageResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &flat); err != nil {
		t.Fatalf("decode flat: %v", err)
	}
	if resp.Code != http.StatusBadRequest || flat.Error != "Prompt is required" {
		t.Fatalf("unexpected flat response %d %+v", resp.Code, flat)
	}
}

func TestIDParamRejectsNonUUID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/items/:id", func(c *gin.Context) {
		id, ok := IDParam(c, "item")
		if !ok {
			return
		}
		c.String(http.StatusOK, id)
	})

	const valid = "7b1f4c52-3f0e-4f7e-9a51-0c6f2f3e9d10"
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/items/"+valid, nil))
	if resp.Code != http.StatusOK || resp.Body.String() != valid {
		t.Fatalf("expected id echoed, got %d %q", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/items/not-a-uuid", nil))
	var env ErrorResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &env)
	if resp.Code != http.StatusNotFound || env.Error.Code != "not_found" || env.Error.Message != "item not found" {
		t.Fatalf("unexpected response %d %s", resp.Code, resp.Body.String())
	}
}
