package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	quotesSent       metric.Int64Counter
	docsRendered     metric.Int64Counter
	docsRenderFailed metric.Int64Counter
	orderResolutions metric.Int64Counter
	rateLimitAllowed metric.Int64Counter
	rateLimitDenied  metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "cotiza"
	}
	meter := provider.Meter(name)

	quotesSent, err := meter.Int64Counter("cotiza_quotes_sent_total")
	if err != nil {
		return nil, err
	}
	docsRendered, err := meter.Int64Counter("cotiza_docs_rendered_total")
	if err != nil {
		return nil, err
	}
	docsRenderFailed, err := meter.Int64Counter("cotiza_docs_render_failures_total")
	if err != nil {
		return nil, err
	}
	orderResolutions, err := meter.Int64Counter("cotiza_order_resolutions_total")
	if err != nil {
		return nil, err
	}
	rateLimitAllowed, err := meter.Int64Counter("cotiza_rate_limit_allowed_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("cotiza_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		quotesSent:       quotesSent,
		docsRendered:     docsRendered,
		docsRenderFailed: docsRenderFailed,
		orderResolutions: orderResolutions,
		rateLimitAllowed: rateLimitAllowed,
		rateLimitDenied:  rateLimitDenied,
	}, nil
}

// RecordQuoteSent increments the sent-quote counter.
func (m *Metrics) RecordQuoteSent(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.quotesSent.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", strings.TrimSpace(kind))))
}

// RecordDocRendered increments the rendered-document counter for one branding slot.
func (m *Metrics) RecordDocRendered(ctx context.Context, slot int) {
	if m == nil {
		return
	}
	m.docsRendered.Add(ctx, 1, metric.WithAttributes(attribute.Int("slot", slot)))
}

// RecordDocRenderFailure increments the render-failure counter.
func (m *Metrics) RecordDocRenderFailure(ctx context.Context, slot int) {
	if m == nil {
		return
	}
	m.docsRenderFailed.Add(ctx, 1, metric.WithAttributes(attribute.Int("slot", slot)))
}

// RecordOrderResolution increments the purchase-order resolution counter.
func (m *Metrics) RecordOrderResolution(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.orderResolutions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", strings.TrimSpace(status))))
}

// RecordRateLimit tracks limiter outcomes on the render path.
func (m *Metrics) RecordRateLimit(ctx context.Context, allowed bool) {
	if m == nil {
		return
	}
	if allowed {
		m.rateLimitAllowed.Add(ctx, 1)
		return
	}
	m.rateLimitDenied.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	ctx := context.Background()
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "", "grpc":
		return otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	case "http", "http/protobuf":
		return otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
	}
}
