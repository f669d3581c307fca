package app

import (
	"context"
	"errors"
	"fmt"

	apphttp "github.com/yungbote/labelbridge-backend/internal/http"
	"github.com/yungbote/labelbridge-backend/internal/observability"
	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics
	Server   *apphttp.Server

	shutdownTracing func(context.Context) error
	cancel          context.CancelFunc
}

func New(ctx context.Context, cfg Config, log *logger.Logger) (*App, error) {
	shutdownTracing, err := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Observability.TracingEnabled,
		ServiceName: cfg.Observability.ServiceName,
		Environment: cfg.Observability.Environment,
		Version:     cfg.Observability.Version,
		Endpoint:    cfg.Observability.OTLPEndpoint,
		Insecure:    cfg.Observability.OTLPInsecure,
		Headers:     observability.ParseHeaders(cfg.Observability.OTLPHeaders),
		SampleRatio: cfg.Observability.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics, err = observability.NewMetrics(ctx, cfg.Observability.ServiceName, log)
		if err != nil {
			_ = shutdownTracing(ctx)
			return nil, fmt.Errorf("init metrics: %w", err)
		}
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, err
	}
	reposet := wireRepos(clients.DB(), clients.Redis, log, cfg)
	serviceset, err := wireServices(log, cfg, reposet, clients.Source.Loader, metrics)
	if err != nil {
		clients.Close()
		_ = shutdownTracing(ctx)
		return nil, err
	}
	handlerset := wireHandlers(log, clients, serviceset)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, metrics, handlerset, middleware)

	return &App{
		Log:             log,
		Cfg:             cfg,
		Clients:         clients,
		Repos:           reposet,
		Services:        serviceset,
		Metrics:         metrics,
		Server:          server,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Start loads the sources once and schedules periodic reloads.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	if err := a.Services.Catalog.Reload(ctx); err != nil {
		return fmt.Errorf("initial source load: %w", err)
	}
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	if err := a.Services.Catalog.StartReloadScheduler(runCtx, a.Cfg.Sources.ReloadSchedule, a.Cfg.Location()); err != nil {
		cancel()
		a.cancel = nil
		return err
	}
	return nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.Server.Addr)
	return a.Server.Run()
}

// Shutdown drains the HTTP server and flushes telemetry.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.Server != nil {
		errs = append(errs, a.Server.Shutdown(ctx))
	}
	if a.Metrics != nil {
		errs = append(errs, a.Metrics.Shutdown(ctx))
	}
	if a.shutdownTracing != nil {
		errs = append(errs, a.shutdownTracing(ctx))
	}
	return errors.Join(errs...)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
}
