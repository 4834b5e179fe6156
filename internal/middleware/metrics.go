package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kosterror/time-flow-api/internal/service"
)

// unmatchedRoute labels requests that matched no route.
const unmatchedRoute = "unmatched"

// Metrics observes every request on the route template it matched.
// Paths in skip (e.g. the scrape endpoint itself) are not recorded.
func Metrics(metrics *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, path := range skip {
		skipped[path] = struct{}{}
	}
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if _, ok := skipped[route]; ok {
			return
		}
		if route == "" {
			route = unmatchedRoute
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
