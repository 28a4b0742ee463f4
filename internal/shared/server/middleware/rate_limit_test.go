package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimitAnalysisGroupIsolatedFromDefault(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", "user-1")
		c.Next()
	})
	r.Use(RateLimit(RateLimitConfig{
		GroupFor: GroupByRoute(map[string]string{
			"POST /api/v1/analysis": RateGroupAnalysis,
		}),
		Limiter: limiter,
		Rules: map[string]RateLimitRule{
			RateGroupDefault:  {Rate: 5, Burst: 10},
			RateGroupAnalysis: {Rate: 0.2, Burst: 1},
		},
	}))
	r.POST("/api/v1/analysis", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/api/v1/uploads", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	do := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp.Code
	}

	if code := do(http.MethodPost, "/api/v1/analysis"); code != http.StatusOK {
		t.Fatalf("first analysis expected 200, got %d", code)
	}
	if code := do(http.MethodPost, "/api/v1/analysis"); code != http.StatusTooManyRequests {
		t.Fatalf("second analysis expected 429, got %d", code)
	}
	for i := 0; i < 3; i++ {
		if code := do(http.MethodGet, "/api/v1/uploads"); code != http.StatusOK {
			t.Fatalf("default request %d expected 200, got %d", i+1, code)
		}
	}

	now = now.Add(5 * time.Second)
	if code := do(http.MethodPost, "/api/v1/analysis"); code != http.StatusOK {
		t.Fatalf("analysis after refill expected 200, got %d", code)
	}
}

func TestRateLimit429IncludesRetryAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })

	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{
		Limiter: limiter,
		Rules: map[string]RateLimitRule{
			RateGroupDefault: {Rate: 1, Burst: 1},
		},
	}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/x", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if got := resp.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After 1, got %q", got)
	}
	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "rate_limited" {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
	if body.Error.Details["retryAfterMs"] != float64(1000) {
		t.Fatalf("expected retryAfterMs 1000, got %v", body.Error.Details["retryAfterMs"])
	}
}

func TestRetryAfterSecondsRoundsUp(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int
	}{
		{0, 1},
		{200 * time.Millisecond, 1},
		{1500 * time.Millisecond, 2},
		{5 * time.Second, 5},
	}
	for _, tt := range tests {
		if got := RetryAfterSeconds(tt.in); got != tt.want {
			t.Fatalf("RetryAfterSeconds(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRateLimiterPrunesIdleBuckets(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 1, Burst: 1}

	for i := 0; i < maxBuckets; i++ {
		l.Allow("idle-"+strconv.Itoa(i), rule)
	}
	now = now.Add(bucketIdleTTL + time.Second)
	l.Allow("fresh", rule)

	if got := l.Len(); got != 1 {
		t.Fatalf("expected idle buckets pruned, got %d", got)
	}
}
