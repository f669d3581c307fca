package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/labelbridge-backend/internal/observability"
)

// Metrics records per-route request counts, latency and in-flight requests.
// Probe routes are not counted; unmatched paths share one "unmatched" route label.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if probeRoutes[c.FullPath()] {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		start := time.Now()
		m.APIInflightInc(ctx)
		c.Next()
		m.APIInflightDec(ctx)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveAPI(ctx, c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
