package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/labelbridge-backend/internal/observability"
	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
)

func TestMetricsMiddlewareSkipsProbes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	m, err := observability.NewMetrics(ctx, "mw-test", logger.Nop())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	defer m.Shutdown(ctx)

	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/healthcheck", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/api/worklist/current", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/healthcheck", "/api/worklist/current", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `http_route="/api/worklist/current"`) {
		t.Fatalf("worklist route not recorded:\n%s", body)
	}
	if !strings.Contains(body, `http_route="unmatched"`) {
		t.Fatalf("unmatched route not recorded")
	}
	if strings.Contains(body, `http_route="/healthcheck"`) {
		t.Fatalf("probe route should not be recorded")
	}
}
