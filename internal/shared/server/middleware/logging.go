package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"filevault/internal/shared/telemetry"
)

// DurationObserver records request latency, typically into a histogram.
type DurationObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// Logging emits a structured log per request and reports its latency to obs when non-nil.
func Logging(obs DurationObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if obs != nil {
			obs.ObserveRequest(c.Request.Method, route, status, latency)
		}

		telemetry.Info("request.complete", map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       route,
			"status":      status,
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"subject":     SubjectFromContext(c),
			"object_id":   c.GetString("objectId"),
			"bytes_out":   c.Writer.Size(),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		})
	}
}
