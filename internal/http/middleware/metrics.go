package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/smartstudy-backend/internal/observability"
)

// Probe routes are left out so scrapes and liveness checks do not drown real traffic.
var unobservedRoutes = map[string]bool{
	"/metrics":     true,
	"/healthcheck": true,
}

// Metrics records per-route request counts, latency and in-flight requests. A nil registry
// turns it into a pass-through.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if unobservedRoutes[route] {
			c.Next()
			return
		}
		if route == "" {
			route = "unmatched"
		}

		start := time.Now()
		m.APIInflightInc()
		defer m.APIInflightDec()
		c.Next()
		m.ObserveAPI(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
