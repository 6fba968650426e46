package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"filevault/internal/services/health"
	"filevault/internal/shared/config"
	"filevault/internal/shared/metrics"
	"filevault/internal/shared/server/middleware"
	"filevault/internal/shared/server/respond"
)

const transferRateGroup = "TRANSFER"

// RouteRegistrar attaches a feature's routes to the authenticated API group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	Config    config.Config
	Validator middleware.TokenValidator
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Health    *health.Service
	Features  []RouteRegistrar
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(deps.Metrics),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		status := deps.Health.Check(c.Request.Context())
		code := http.StatusOK
		if !status.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})
	if deps.Gatherer != nil {
		r.GET("/metrics", metrics.Handler(deps.Gatherer))
	}

	secured := api.Group("", middleware.Auth(deps.Validator))
	if limiter := rateLimit(deps.Config); limiter != nil {
		secured.Use(limiter)
	}
	registerMeRoutes(secured)
	for _, f := range deps.Features {
		if f != nil {
			f.RegisterRoutes(secured)
		}
	}

	return r
}

// rateLimit builds the per-subject limiter. Transfers get their own bucket so a burst of
// metadata calls does not starve uploads and downloads.
func rateLimit(cfg config.Config) gin.HandlerFunc {
	if cfg.RateLimitRPS <= 0 {
		return nil
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = int(cfg.RateLimitRPS)
		if burst < 1 {
			burst = 1
		}
	}
	rule := middleware.RateLimitRule{Rate: cfg.RateLimitRPS, Burst: burst}
	return middleware.RateLimit(middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			middleware.DefaultRateGroup: rule,
			transferRateGroup:           rule,
		},
		GroupFor: transferGroup,
	})
}

func transferGroup(c *gin.Context) string {
	route := c.FullPath()
	switch {
	case c.Request.Method == http.MethodPost && strings.HasSuffix(route, "/files"):
		return transferRateGroup
	case c.Request.Method == http.MethodGet && strings.HasSuffix(route, "/files/:id"):
		return transferRateGroup
	}
	return ""
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
