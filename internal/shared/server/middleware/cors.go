package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods  = "GET,POST,PUT,DELETE,OPTIONS"
	corsAllowHeaders  = "Content-Type, Authorization, X-Client-Info, Apikey, X-Request-Id"
	corsExposeHeaders = "X-Request-Id, Retry-After, Content-Disposition"
	corsMaxAge        = "600"
)

// corsPolicy matches exact origins, "*" and single-level wildcard hosts
// such as "https://*.example.app".
type corsPolicy struct {
	any      bool
	exact    map[string]struct{}
	suffixes []string
}

func newCORSPolicy(allowed []string) corsPolicy {
	p := corsPolicy{exact: make(map[string]struct{})}
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch {
		case o == "":
		case o == "*":
			p.any = true
		case strings.Contains(o, "://*."):
			scheme, host, _ := strings.Cut(o, "://*")
			p.suffixes = append(p.suffixes, scheme+"://|"+host)
		default:
			p.exact[o] = struct{}{}
		}
	}
	return p
}

func (p corsPolicy) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if p.any {
		return true
	}
	if _, ok := p.exact[origin]; ok {
		return true
	}
	for _, s := range p.suffixes {
		scheme, host, _ := strings.Cut(s, "|")
		rest, ok := strings.CutPrefix(origin, scheme)
		if !ok || !strings.HasSuffix(rest, host) {
			continue
		}
		sub := strings.TrimSuffix(rest, host)
		if sub != "" && !strings.ContainsAny(sub, "./:") {
			return true
		}
	}
	return false
}

// CORS sets CORS headers for allowed origins and answers preflight requests.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	policy := newCORSPolicy(allowedOrigins)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if policy.allows(origin) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
			h.Set("Access-Control-Max-Age", corsMaxAge)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
