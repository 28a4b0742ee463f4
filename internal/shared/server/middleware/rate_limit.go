package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"greenintellect-backend/internal/shared/server/respond"
)

// Buckets idle this long are dropped once the limiter tracks maxBuckets keys.
const (
	bucketIdleTTL = 10 * time.Minute
	maxBuckets    = 10000
)

// Rate limit groups used by the router.
const (
	RateGroupDefault  = "DEFAULT"
	RateGroupAnalysis = "ANALYSIS"
	RateGroupUpload   = "UPLOAD"
)

type RateLimitRule struct {
	Rate  float64
	Burst int
}

type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      *RateLimiter
}

// RateLimiter is a per-key token bucket.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	now     func() time.Time
}

type rateBucket struct {
	tokens float64
	last   time.Time
}

func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		buckets: make(map[string]*rateBucket),
		now:     now,
	}
}

// GroupByRoute maps "METHOD /route/pattern" keys to groups using gin's FullPath.
func GroupByRoute(routes map[string]string) func(*gin.Context) string {
	return func(c *gin.Context) string {
		return routes[c.Request.Method+" "+c.FullPath()]
	}
}

// RateLimit throttles requests per principal and route group. The principal is
// the authenticated user, or the client IP before auth has run.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = RateGroupDefault
	}
	return func(c *gin.Context) {
		group := cfg.groupOf(c)
		rule, ok := cfg.Rules[group]
		if !ok {
			c.Next()
			return
		}
		allowed, wait := cfg.Limiter.Allow(rateKey(c, group), rule)
		if allowed {
			c.Next()
			return
		}
		waitMs := wait.Milliseconds()
		if waitMs <= 0 {
			waitMs = 1000
		}
		c.Header("Retry-After", strconv.Itoa(RetryAfterSeconds(wait)))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited",
			"Too many requests. Please wait a moment and try again.",
			gin.H{"retryAfterMs": waitMs, "group": group})
	}
}

func (cfg RateLimitConfig) groupOf(c *gin.Context) string {
	if cfg.GroupFor == nil {
		return cfg.DefaultGroup
	}
	if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
		return g
	}
	return cfg.DefaultGroup
}

func rateKey(c *gin.Context, group string) string {
	who := strings.TrimSpace(UserIDFromContext(c))
	if who == "" {
		who = "ip:" + c.ClientIP()
	}
	return who + "|" + group
}

// RetryAfterSeconds rounds a wait up to whole seconds, never below one.
func RetryAfterSeconds(wait time.Duration) int {
	if secs := int(math.Ceil(wait.Seconds())); secs > 0 {
		return secs
	}
	return 1
}

// Allow takes a token from key's bucket. When empty it returns the time until
// the next token.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.buckets[key]
	if b == nil {
		if len(l.buckets) >= maxBuckets {
			l.pruneLocked(now)
		}
		b = &rateBucket{tokens: float64(rule.Burst), last: now}
		l.buckets[key] = b
	}
	return b.take(now, rule)
}

func (b *rateBucket) take(now time.Time, rule RateLimitRule) (bool, time.Duration) {
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = math.Min(float64(rule.Burst), b.tokens+elapsed*rule.Rate)
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	missing := (1 - b.tokens) / rule.Rate
	return false, time.Duration(math.Ceil(missing*1000)) * time.Millisecond
}

// Len reports the number of tracked buckets.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *RateLimiter) pruneLocked(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.last) > bucketIdleTTL {
			delete(l.buckets, key)
		}
	}
}
