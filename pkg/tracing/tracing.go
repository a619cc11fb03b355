// Package tracing sets up OpenTelemetry tracing for the pipeline.
package tracing

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/playdash/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	exporterTimeout = 10 * time.Second
	batchTimeout    = 5 * time.Second
	maxExportBatch  = 512
)

// Config holds the tracing settings.
type Config struct {
	ServiceName  string
	Enabled      bool
	Endpoint     string
	Insecure     bool
	SamplingRate float64
}

// Option applies a configuration option to NewProvider.
type Option func(*Provider)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.log = l
		}
	}
}

// WithSyncExporter exports spans synchronously to exp instead of OTLP.
func WithSyncExporter(exp sdktrace.SpanExporter) Option {
	return func(p *Provider) {
		p.syncExporter = exp
	}
}

// Provider owns the tracer provider. A disabled Provider hands out no-op tracers.
type Provider struct {
	tp           *sdktrace.TracerProvider
	cfg          Config
	log          logger.Logger
	syncExporter sdktrace.SpanExporter
}

// NewProvider creates a Provider. When tracing is enabled it becomes the global
// tracer provider.
func NewProvider(ctx context.Context, cfg Config, opts ...Option) (*Provider, error) {
	p := &Provider{cfg: cfg, log: logger.Get().Named("tracing")}
	for _, opt := range opts {
		opt(p)
	}
	if !cfg.Enabled {
		p.log.Debug(ctx, "tracing disabled")
		return p, nil
	}

	if cfg.ServiceName == "" {
		return nil, fmt.Errorf("%w: service name is required", ErrInvalidConfig)
	}
	if cfg.SamplingRate < 0 || cfg.SamplingRate > 1 {
		return nil, fmt.Errorf("%w: sampling rate must be between 0 and 1, got %f", ErrInvalidConfig, cfg.SamplingRate)
	}

	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SamplingRate)),
	}
	if p.syncExporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithSyncer(p.syncExporter))
	} else {
		exp, err := newHTTPExporter(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exp,
			sdktrace.WithBatchTimeout(batchTimeout),
			sdktrace.WithMaxExportBatchSize(maxExportBatch),
		))
	}

	p.tp = sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(p.tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	p.log.Info(ctx, "tracing initialized",
		logger.String("service", cfg.ServiceName),
		logger.String("endpoint", cfg.Endpoint),
		logger.Float64("sampling_rate", cfg.SamplingRate),
	)
	return p, nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch rate {
	case 1:
		return sdktrace.AlwaysSample()
	case 0:
		return sdktrace.NeverSample()
	}
	return sdktrace.TraceIDRatioBased(rate)
}

func newHTTPExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	var opts []otlptracehttp.Option
	if cfg.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	ctx, cancel := context.WithTimeout(ctx, exporterTimeout)
	defer cancel()
	return otlptracehttp.New(ctx, opts...)
}

// Shutdown flushes pending spans and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	if err := p.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	return nil
}

// Tracer returns a named tracer.
func (p *Provider) Tracer(name string) trace.Tracer {
	if p == nil || p.tp == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return p.tp.Tracer(name)
}

// IsEnabled reports whether spans are recorded.
func (p *Provider) IsEnabled() bool {
	return p != nil && p.tp != nil
}

// StartSpan starts a span on tracer and returns a function that ends it, recording
// err on the span when it is non-nil.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
