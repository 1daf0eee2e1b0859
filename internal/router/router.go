package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-api/internal/handler/clinic"
	"github.com/jwalitptl/clinic-api/internal/handler/health"
	"github.com/jwalitptl/clinic-api/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Handlers groups everything the router mounts. Prometheus may be nil.
type Handlers struct {
	Health     *health.Handler
	Prometheus *prometheus.Handler
	Clinic     *clinic.Handler
	Draft      Handler
	Moderation Handler
}

type RouterConfig struct {
	ImportRateLimit rate.Limit
	ImportBurst     int
	CORSConfig      middleware.CORSConfig
	Timeout         time.Duration
	MaxBodySize     int64
	MetricsPath     string
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	config   RouterConfig
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, m *metrics.Metrics, config RouterConfig) *Router {
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		config:   config,
	}

	// Request id first so every later middleware can log it.
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.ErrorHandler(),
	)
	if m != nil {
		engine.Use(middleware.Metrics(m))
	}
	engine.Use(
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
		middleware.CORS(config.CORSConfig),
	)

	return r
}

func (r *Router) Setup() {
	r.handlers.Health.RegisterRoutes(r.engine)
	if r.handlers.Prometheus != nil {
		path := r.config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, r.handlers.Prometheus.Handler())
	}

	api := r.engine.Group("/api/v1")
	api.Use(middleware.SizeLimit(r.sizeLimit()))

	r.setupPublicRoutes(api)

	owner := api.Group("")
	owner.Use(r.auth.Authenticate(), r.auth.RequireClinicOwner())
	r.handlers.Draft.RegisterRoutes(owner)

	admin := api.Group("/admin")
	admin.Use(r.auth.Authenticate(), r.auth.RequireRole(auth.RoleAdmin))
	r.setupAdminRoutes(admin)
}

func (r *Router) setupPublicRoutes(rg *gin.RouterGroup) {
	r.handlers.Clinic.RegisterPublicRoutes(rg, middleware.Cache(middleware.PublicProfileCacheConfig()))
}

func (r *Router) setupAdminRoutes(rg *gin.RouterGroup) {
	var extra []gin.HandlerFunc
	if r.config.ImportRateLimit > 0 {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  r.config.ImportRateLimit,
			Burst: r.config.ImportBurst,
		})
		extra = append(extra, limiter.RateLimit())
	}
	r.handlers.Clinic.RegisterAdminRoutes(rg, extra...)
	r.handlers.Moderation.RegisterRoutes(rg)
}

func (r *Router) sizeLimit() middleware.SizeLimitConfig {
	if r.config.MaxBodySize > 0 {
		return middleware.SizeLimitConfig{MaxBodySize: r.config.MaxBodySize}
	}
	return middleware.DefaultSizeLimitConfig()
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
