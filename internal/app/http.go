package app

import (
	"context"

	apphttp "github.com/yungbote/labelbridge-backend/internal/http"
	httpH "github.com/yungbote/labelbridge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/labelbridge-backend/internal/http/middleware"
	"github.com/yungbote/labelbridge-backend/internal/observability"
	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Auth       *httpH.AuthHandler
	Worklist   *httpH.WorklistHandler
	Taxonomy   *httpH.TaxonomyHandler
	Annotation *httpH.AnnotationHandler
	Admin      *httpH.AdminHandler
}

func wireHandlers(log *logger.Logger, clients Clients, services Services) Handlers {
	log.Info("Wiring handlers...")
	checks := map[string]httpH.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := clients.DB().DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if clients.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return clients.Redis.Ping(ctx).Err()
		}
	}
	return Handlers{
		Health:     httpH.NewHealthHandler(checks),
		Auth:       httpH.NewAuthHandler(services.Auth),
		Worklist:   httpH.NewWorklistHandler(services.Labeling),
		Taxonomy:   httpH.NewTaxonomyHandler(services.Labeling),
		Annotation: httpH.NewAnnotationHandler(services.Labeling),
		Admin:      httpH.NewAdminHandler(log, services.Catalog),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *apphttp.Server {
	return apphttp.NewServer(cfg.Server.Addr, apphttp.RouterConfig{
		Log:               log,
		ServiceName:       cfg.Observability.ServiceName,
		TracingEnabled:    cfg.Observability.TracingEnabled,
		CORSOrigins:       cfg.Server.CORSOrigins,
		Metrics:           metrics,
		HealthHandler:     handlers.Health,
		AuthHandler:       handlers.Auth,
		AuthMiddleware:    middleware.Auth,
		WorklistHandler:   handlers.Worklist,
		TaxonomyHandler:   handlers.Taxonomy,
		AnnotationHandler: handlers.Annotation,
		AdminHandler:      handlers.Admin,
	})
}
