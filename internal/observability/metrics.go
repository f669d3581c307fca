package observability

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
)

const meterName = "github.com/yungbote/labelbridge-backend"

var (
	attrMethod = attribute.Key("http.method")
	attrRoute  = attribute.Key("http.route")
	attrStatus = attribute.Key("status")
	attrRole   = attribute.Key("role")
	attrAction = attribute.Key("action")
)

// Metrics owns a private Prometheus registry fed by an OpenTelemetry meter provider.
type Metrics struct {
	log      *logger.Logger
	provider *sdkmetric.MeterProvider
	handler  http.Handler

	apiRequests   metric.Int64Counter
	apiLatency    metric.Float64Histogram
	apiInflight   metric.Int64UpDownCounter
	navigations   metric.Int64Counter
	saves         metric.Int64Counter
	builds        metric.Int64Counter
	buildLatency  metric.Float64Histogram
	worklistSize  metric.Int64Histogram
	resets        metric.Int64Counter
	sourceReloads metric.Int64Counter
}

func NewMetrics(ctx context.Context, serviceName string, log *logger.Logger) (*Metrics, error) {
	if strings.TrimSpace(serviceName) == "" {
		serviceName = DefaultServiceName
	}
	reg := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	m := &Metrics{
		log:      log.With("component", "Metrics"),
		provider: provider,
		handler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}),
	}
	if err := m.initInstruments(provider.Meter(meterName)); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initInstruments(meter metric.Meter) error {
	var err error
	if m.apiRequests, err = meter.Int64Counter("lb_api_requests_total",
		metric.WithDescription("API requests by method/route/status.")); err != nil {
		return err
	}
	if m.apiLatency, err = meter.Float64Histogram("lb_api_request_duration_seconds",
		metric.WithDescription("API request latency in seconds."),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5)); err != nil {
		return err
	}
	if m.apiInflight, err = meter.Int64UpDownCounter("lb_api_inflight_requests",
		metric.WithDescription("In-flight API requests.")); err != nil {
		return err
	}
	if m.navigations, err = meter.Int64Counter("lb_navigation_actions_total",
		metric.WithDescription("Navigation actions by action/role.")); err != nil {
		return err
	}
	if m.saves, err = meter.Int64Counter("lb_annotation_saves_total",
		metric.WithDescription("Annotation saves by role/status.")); err != nil {
		return err
	}
	if m.builds, err = meter.Int64Counter("lb_worklist_builds_total",
		metric.WithDescription("Worklist builds by role/status.")); err != nil {
		return err
	}
	if m.buildLatency, err = meter.Float64Histogram("lb_worklist_build_duration_seconds",
		metric.WithDescription("Worklist build latency in seconds.")); err != nil {
		return err
	}
	if m.worklistSize, err = meter.Int64Histogram("lb_worklist_size",
		metric.WithDescription("Worklist length at build time."),
		metric.WithExplicitBucketBoundaries(0, 1, 10, 50, 100, 500, 1000, 5000)); err != nil {
		return err
	}
	if m.resets, err = meter.Int64Counter("lb_navigation_resets_total",
		metric.WithDescription("Navigation resets caused by worklist length changes.")); err != nil {
		return err
	}
	if m.sourceReloads, err = meter.Int64Counter("lb_source_reloads_total",
		metric.WithDescription("Source catalog reloads by status.")); err != nil {
		return err
	}
	return nil
}

// Handler serves the Prometheus exposition of this registry.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}

func (m *Metrics) APIInflightInc(ctx context.Context) {
	if m == nil {
		return
	}
	m.apiInflight.Add(ctx, 1)
}

func (m *Metrics) APIInflightDec(ctx context.Context) {
	if m == nil {
		return
	}
	m.apiInflight.Add(ctx, -1)
}

func (m *Metrics) ObserveAPI(ctx context.Context, method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attrMethod.String(method), attrRoute.String(route), attrStatus.String(status))
	m.apiRequests.Add(ctx, 1, attrs)
	m.apiLatency.Record(ctx, dur.Seconds(), attrs)
}

func (m *Metrics) RecordNavigation(ctx context.Context, action string, role string) {
	if m == nil {
		return
	}
	m.navigations.Add(ctx, 1, metric.WithAttributes(attrAction.String(action), attrRole.String(role)))
}

func (m *Metrics) RecordSave(ctx context.Context, role string, err error) {
	if m == nil {
		return
	}
	m.saves.Add(ctx, 1, metric.WithAttributes(attrRole.String(role), attrStatus.String(statusOf(err))))
}

func (m *Metrics) RecordWorklistBuild(ctx context.Context, role string, size int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attrRole.String(role), attrStatus.String(statusOf(err)))
	m.builds.Add(ctx, 1, attrs)
	m.buildLatency.Record(ctx, elapsed.Seconds(), attrs)
	if err == nil {
		m.worklistSize.Record(ctx, int64(size), metric.WithAttributes(attrRole.String(role)))
	}
}

func (m *Metrics) RecordReset(ctx context.Context, role string) {
	if m == nil {
		return
	}
	m.resets.Add(ctx, 1, metric.WithAttributes(attrRole.String(role)))
}

func (m *Metrics) RecordSourceReload(ctx context.Context, err error) {
	if m == nil {
		return
	}
	m.sourceReloads.Add(ctx, 1, metric.WithAttributes(attrStatus.String(statusOf(err))))
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
