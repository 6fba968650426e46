package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const corsMaxAge = 600 // seconds

// corsPolicy holds the allow-listed origins and the header values sent to them.
type corsPolicy struct {
	origins map[string]bool
	headers map[string]string
}

func newCORSPolicy(allowedOrigins []string) corsPolicy {
	p := corsPolicy{
		origins: make(map[string]bool, len(allowedOrigins)),
		headers: map[string]string{
			"Access-Control-Allow-Credentials": "true",
			"Access-Control-Allow-Methods":     strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}, ","),
			"Access-Control-Allow-Headers":     strings.Join([]string{"Authorization", "Content-Type", requestIDHeader}, ", "),
			// Downloads are only usable from a browser when their filename and size are readable.
			"Access-Control-Expose-Headers": strings.Join([]string{requestIDHeader, "Content-Disposition", "Content-Length"}, ", "),
			"Access-Control-Max-Age":        strconv.Itoa(corsMaxAge),
		},
	}
	for _, o := range allowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			p.origins[o] = true
		}
	}
	return p
}

// grant writes the CORS headers when origin is allow-listed and reports whether it did.
func (p corsPolicy) grant(h http.Header, origin string) bool {
	if origin == "" || !p.origins[origin] {
		return false
	}
	h.Set("Access-Control-Allow-Origin", origin)
	h.Add("Vary", "Origin")
	for k, v := range p.headers {
		h.Set(k, v)
	}
	return true
}

// CORS answers browser preflights and decorates responses for allow-listed origins.
// Every OPTIONS request ends here with 204 so it never reaches the auth layer.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	policy := newCORSPolicy(allowedOrigins)
	return func(c *gin.Context) {
		policy.grant(c.Writer.Header(), c.GetHeader("Origin"))
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
