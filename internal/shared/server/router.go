package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"greenintellect-backend/internal/services/health"
	"greenintellect-backend/internal/shared/config"
	"greenintellect-backend/internal/shared/metrics"
	"greenintellect-backend/internal/shared/server/middleware"
	"greenintellect-backend/internal/shared/server/respond"
)

// RouteRegistrar attaches a feature's routes to a group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// AdminRouteRegistrar attaches admin-only routes.
type AdminRouteRegistrar interface {
	RegisterAdminRoutes(rg *gin.RouterGroup)
}

// RouterDeps holds handlers used to build the router.
type RouterDeps struct {
	Config      config.Config
	Verifier    middleware.Verifier
	RateLimiter *middleware.RateLimiter
	Health      *health.Service

	// Public routes need no token.
	Public []RouteRegistrar
	// Authed routes need a valid token.
	Authed []RouteRegistrar
	// Admin routes are mounted under /admin and need the admin role.
	Admin       []RouteRegistrar
	AdminExtras []AdminRouteRegistrar
}

var rateGroups = map[string]string{
	"POST /api/v1/analysis":               middleware.RateGroupAnalysis,
	"POST /api/v1/companies/:id/analysis": middleware.RateGroupAnalysis,
	"POST /api/v1/uploads":                middleware.RateGroupUpload,
}

// DefaultRateRules are the per-caller token buckets for each route group.
var DefaultRateRules = map[string]middleware.RateLimitRule{
	middleware.RateGroupDefault:  {Rate: 10, Burst: 40},
	middleware.RateGroupAnalysis: {Rate: 0.2, Burst: 3},
	middleware.RateGroupUpload:   {Rate: 0.1, Burst: 5},
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.IsDevLike() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(nil, deps.Config.ObjectStoreType)
	}
	api.GET("/health", func(c *gin.Context) {
		st := healthSvc.Check(c.Request.Context())
		code := http.StatusOK
		if !st.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, st)
	})
	for _, h := range deps.Public {
		h.RegisterRoutes(api)
	}

	limiter := deps.RateLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(nil)
	}
	authed := api.Group("")
	authed.Use(
		middleware.Auth(deps.Verifier),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    DefaultRateRules,
			GroupFor: middleware.GroupByRoute(rateGroups),
			Limiter:  limiter,
		}),
	)
	registerMeRoutes(authed)
	for _, h := range deps.Authed {
		h.RegisterRoutes(authed)
	}

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	for _, h := range deps.Admin {
		h.RegisterRoutes(admin)
	}
	for _, h := range deps.AdminExtras {
		h.RegisterAdminRoutes(admin)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
