package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/labelbridge-backend/internal/pkg/ctxutil"
	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
)

// probe routes are logged at debug so liveness polling does not flood the log.
var probeRoutes = map[string]bool{
	"/healthcheck": true,
	"/readyz":      true,
	"/metrics":     true,
}

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.With("middleware", "RequestLogger")

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		kv := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"client_ip", c.ClientIP(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			kv = append(kv, "trace_id", td.TraceID, "request_id", td.RequestID)
		}
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.Username != "" {
			kv = append(kv, "username", rd.Username, "role", rd.Role, "session_id", rd.SessionID)
		}
		if last := c.Errors.Last(); last != nil {
			kv = append(kv, "error", last.Error())
		}

		switch {
		case status >= 500:
			log.Error("request failed", kv...)
		case status >= 400:
			log.Warn("request rejected", kv...)
		case probeRoutes[route]:
			log.Debug("probe", kv...)
		default:
			log.Info("request", kv...)
		}
	}
}
