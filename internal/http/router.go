package http

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
	httpH "github.com/yungbote/labelbridge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/labelbridge-backend/internal/http/middleware"
	"github.com/yungbote/labelbridge-backend/internal/observability"
	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string
	Metrics        *observability.Metrics

	AuthHandler       *httpH.AuthHandler
	AuthMiddleware    *httpMW.AuthMiddleware
	WorklistHandler   *httpH.WorklistHandler
	TaxonomyHandler   *httpH.TaxonomyHandler
	AnnotationHandler *httpH.AnnotationHandler
	AdminHandler      *httpH.AdminHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		name := cfg.ServiceName
		if name == "" {
			name = observability.DefaultServiceName
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	} else {
		protected.Use(func(c *gin.Context) {
			c.AbortWithStatus(nethttp.StatusUnauthorized)
		})
	}
	{
		if cfg.AuthHandler != nil {
			protected.POST("/logout", cfg.AuthHandler.Logout)
			protected.GET("/me", cfg.AuthHandler.Me)
		}

		if cfg.TaxonomyHandler != nil {
			protected.GET("/taxonomy", cfg.TaxonomyHandler.Get)
			protected.GET("/taxonomy/subintents", cfg.TaxonomyHandler.SubIntents)
		}

		if cfg.WorklistHandler != nil {
			protected.GET("/worklist/current", cfg.WorklistHandler.Current)
			protected.POST("/worklist/next", cfg.WorklistHandler.Next)
			protected.POST("/worklist/previous", cfg.WorklistHandler.Previous)
			protected.POST("/worklist/save-next", cfg.WorklistHandler.SaveNext)
			protected.POST("/worklist/refresh", cfg.WorklistHandler.Refresh)
		}
	}

	reviewers := protected.Group("/")
	reviewers.Use(httpMW.RequireRole(domlabel.RoleReviewer, domlabel.RoleAdmin))
	{
		if cfg.WorklistHandler != nil {
			reviewers.POST("/worklist/jump", cfg.WorklistHandler.Jump)
			reviewers.PUT("/worklist/settings", cfg.WorklistHandler.UpdateSettings)
		}
		if cfg.AnnotationHandler != nil {
			reviewers.GET("/annotations", cfg.AnnotationHandler.List)
		}
	}

	admins := protected.Group("/admin")
	admins.Use(httpMW.RequireRole(domlabel.RoleAdmin))
	{
		if cfg.AdminHandler != nil {
			admins.POST("/sources/reload", cfg.AdminHandler.ReloadSources)
		}
	}

	return r
}
