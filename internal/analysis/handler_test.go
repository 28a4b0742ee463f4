package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"greenintellect-backend/internal/companies"
	"greenintellect-backend/internal/llm"
)

type fakeLLM struct {
	calls   int
	prompts []string
	text    string
	err     error
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func newRouter(svc *Service, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestGenerateStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantError  string
	}{
		{name: "missing prompt", body: `{}`, wantStatus: 400, wantError: "Prompt is required"},
		{name: "blank prompt", body: `{"prompt":"   "}`, wantStatus: 400, wantError: "Prompt is required"},
		{name: "rate limited", body: `{"prompt":"p"}`, err: &llm.Error{Kind: llm.KindRateLimited, Status: 429, Message: "Groq API rate limit exceeded. Please try again in a few moments."}, wantStatus: 429, wantError: "Groq API rate limit exceeded. Please try again in a few moments."},
		{name: "unauthorized", body: `{"prompt":"p"}`, err: &llm.Error{Kind: llm.KindUnauthorized, Status: 401, Message: "Invalid Groq API key. Please check your configuration."}, wantStatus: 401, wantError: "Invalid Groq API key. Please check your configuration."},
		{name: "provider status mirrored", body: `{"prompt":"p"}`, err: &llm.Error{Kind: llm.KindProvider, Status: 503, Message: "Groq API error: Service Unavailable."}, wantStatus: 503, wantError: "Groq API error: Service Unavailable."},
		{name: "malformed", body: `{"prompt":"p"}`, err: &llm.Error{Kind: llm.KindMalformed, Status: 200, Message: "Invalid response format from Groq API"}, wantStatus: 500, wantError: "Invalid response format from Groq API"},
		{name: "not configured", body: `{"prompt":"p"}`, err: &llm.Error{Kind: llm.KindNotConfigured, Message: llm.NotConfiguredMessage}, wantStatus: 500, wantError: llm.NotConfiguredMessage},
		{name: "unclassified", body: `{"prompt":"p"}`, err: errors.New("boom"), wantStatus: 500, wantError: msgUnexpected},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeLLM{err: tt.err}
			r := newRouter(NewService(fake, nil, 0, nil), "u1")

			resp := postJSON(r, "/api/v1/analysis", tt.body)
			if resp.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d body=%s", tt.wantStatus, resp.Code, resp.Body.String())
			}
			var body map[string]string
			if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["error"] != tt.wantError {
				t.Fatalf("unexpected error %q", body["error"])
			}
			if tt.wantStatus == 400 && fake.calls != 0 {
				t.Fatalf("provider must not be called for invalid prompt")
			}
		})
	}
}

func TestGenerateSuccess(t *testing.T) {
	fake := &fakeLLM{text: "## Overall Assessment"}
	r := newRouter(NewService(fake, nil, 0, nil), "u1")

	resp := postJSON(r, "/api/v1/analysis", `{"prompt":"Analyze Acme"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	if body["analysis"] != "## Overall Assessment" {
		t.Fatalf("unexpected body %v", body)
	}
	if fake.prompts[0] != "Analyze Acme" {
		t.Fatalf("prompt must be forwarded verbatim, got %q", fake.prompts[0])
	}
}

func TestAnalyzeCompanyEnforcesInterval(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	companySvc := &companies.Service{Repo: companies.NewMemoryRepo()}
	company, err := companySvc.Create(context.Background(), companies.Input{
		Name: "Acme", Industry: "Energy", ReportYear: 2024, OverallScore: 72, NetActionDirection: "positive",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	fake := &fakeLLM{text: "analysis"}
	svc := NewService(fake, companySvc, 5*time.Second, func() time.Time { return now })
	r := newRouter(svc, "u1")
	path := "/api/v1/companies/" + company.ID + "/analysis"

	resp := postJSON(r, path, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", resp.Code, resp.Body.String())
	}
	var body CompanyAnalysis
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.RiskLevel != companies.RiskLow || body.Analysis != "analysis" {
		t.Fatalf("unexpected body %+v", body)
	}
	if !strings.Contains(fake.prompts[0], "Classify this as LOW greenwashing risk") {
		t.Fatalf("prompt missing risk classification:\n%s", fake.prompts[0])
	}

	now = now.Add(2 * time.Second)
	resp = postJSON(r, path, "")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if got := resp.Header().Get("Retry-After"); got != "3" {
		t.Fatalf("expected Retry-After 3, got %q", got)
	}
	if fake.calls != 1 {
		t.Fatalf("throttled request must not reach provider, calls=%d", fake.calls)
	}

	now = now.Add(3 * time.Second)
	if resp := postJSON(r, path, ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 after interval, got %d", resp.Code)
	}

	if resp := postJSON(r, "/api/v1/companies/missing/analysis", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
