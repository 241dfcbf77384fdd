package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"hirescore/internal/config"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Metrics holds all custom metrics for hirescore.
type Metrics struct {
	// Analysis operation metrics
	AnalysisDuration metric.Float64Histogram
	AnalysisRequests metric.Int64Counter
	AnalysisErrors   metric.Int64Counter
	ParseFallbacks   metric.Int64Counter
	TokenUsage       metric.Int64Histogram

	// Business metrics
	DraftsSaved           metric.Int64Counter
	EvaluationsFinalized  metric.Int64Counter
	PromptTemplateReloads metric.Int64Counter

	// Rate limiting metrics
	RateLimitHits metric.Int64Counter
}

// Manager owns the OpenTelemetry setup: tracer provider, meter provider,
// exporters and the custom metric set. A disabled manager is a valid
// no-op value.
type Manager struct {
	cfg              *config.Config
	serviceVersion   string
	tracerProvider   *trace.TracerProvider
	meterProvider    *sdkmetric.MeterProvider
	metrics          *Metrics
	shutdownFuncs    []func(context.Context) error
	prometheusServer *http.ServeMux
}

// NewManager creates the observability manager. When observability is
// disabled in config it returns a manager whose middleware and tracer
// are no-ops.
func NewManager(cfg *config.Config, version string) (*Manager, error) {
	m := &Manager{
		cfg:            cfg,
		serviceVersion: version,
	}
	if !cfg.Observability.Enabled {
		return m, nil
	}

	if err := m.initTracing(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return m, nil
}

func (m *Manager) serviceName() string {
	return m.cfg.Observability.ServiceName
}

// createResource builds the OpenTelemetry resource shared by tracing and
// metrics.
func (m *Manager) createResource() (*resource.Resource, error) {
	version := m.cfg.Observability.ServiceVersion
	if version == "" {
		version = m.serviceVersion
	}
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(m.serviceName()),
			semconv.ServiceVersion(version),
			attribute.String("service.instance.id", m.cfg.Observability.ServiceInstance),
		),
	)
}

// initTracing sets up the tracer provider and the global propagator.
func (m *Manager) initTracing() error {
	var exporter trace.SpanExporter
	var err error

	obs := m.cfg.Observability
	switch {
	case obs.Console.Enabled:
		opts := []stdouttrace.Option{}
		if obs.Console.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(opts...)
	case obs.OTLP.Enabled:
		exporter, err = m.createOTLPTraceExporter()
	default:
		exporter = &noOpSpanExporter{}
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := m.createResource()
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	sampleRate := obs.SampleRate
	if obs.Tracing.SampleRate > 0 {
		sampleRate = obs.Tracing.SampleRate
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.TraceIDRatioBased(sampleRate)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	m.tracerProvider = tp
	m.shutdownFuncs = append(m.shutdownFuncs, tp.Shutdown)
	return nil
}

// initMetrics sets up the meter provider with every configured reader.
func (m *Manager) initMetrics() error {
	readers, err := m.setupMetricReaders()
	if err != nil {
		return err
	}

	res, err := m.createResource()
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)
	m.meterProvider = mp
	m.shutdownFuncs = append(m.shutdownFuncs, mp.Shutdown)

	return m.initCustomMetrics()
}

// setupMetricReaders collects readers for every enabled exporter.
func (m *Manager) setupMetricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader
	obs := m.cfg.Observability

	if obs.Console.Enabled {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers,
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(m.collectionInterval())))
	}

	if obs.OTLP.Enabled {
		reader, err := m.createOTLPMetricsReader()
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics reader: %w", err)
		}
		readers = append(readers, reader)
	}

	if obs.Prometheus.Enabled {
		reader, mux, err := SetupPrometheusExporter(obs.Prometheus)
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		if reader != nil {
			readers = append(readers, reader)
			m.prometheusServer = mux
			if err := StartPrometheusServer(mux, obs.Prometheus.Port); err != nil {
				return nil, fmt.Errorf("failed to start Prometheus server: %w", err)
			}
		}
	}

	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}
	return readers, nil
}

// initCustomMetrics creates the hirescore metric set.
func (m *Manager) initCustomMetrics() error {
	meter := m.meterProvider.Meter(m.serviceName())
	m.metrics = &Metrics{}
	var err error

	m.metrics.AnalysisDuration, err = meter.Float64Histogram(
		"hirescore_analysis_duration_seconds",
		metric.WithDescription("Time spent running candidate analyses"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis duration metric: %w", err)
	}

	m.metrics.AnalysisRequests, err = meter.Int64Counter(
		"hirescore_analysis_requests_total",
		metric.WithDescription("Total number of analysis requests by kind"),
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis request metric: %w", err)
	}

	m.metrics.AnalysisErrors, err = meter.Int64Counter(
		"hirescore_analysis_errors_total",
		metric.WithDescription("Total number of failed analysis requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis error metric: %w", err)
	}

	m.metrics.ParseFallbacks, err = meter.Int64Counter(
		"hirescore_parse_fallbacks_total",
		metric.WithDescription("Completions that could not be parsed and degraded to defaults"),
	)
	if err != nil {
		return fmt.Errorf("failed to create parse fallback metric: %w", err)
	}

	m.metrics.TokenUsage, err = meter.Int64Histogram(
		"hirescore_completion_tokens",
		metric.WithDescription("Token usage for completion requests (input, output, total)"),
		metric.WithUnit("tokens"),
	)
	if err != nil {
		return fmt.Errorf("failed to create token usage metric: %w", err)
	}

	m.metrics.DraftsSaved, err = meter.Int64Counter(
		"hirescore_drafts_saved_total",
		metric.WithDescription("Total number of evaluation draft saves"),
	)
	if err != nil {
		return fmt.Errorf("failed to create drafts saved metric: %w", err)
	}

	m.metrics.EvaluationsFinalized, err = meter.Int64Counter(
		"hirescore_evaluations_finalized_total",
		metric.WithDescription("Total number of finalized evaluations"),
	)
	if err != nil {
		return fmt.Errorf("failed to create evaluations finalized metric: %w", err)
	}

	m.metrics.PromptTemplateReloads, err = meter.Int64Counter(
		"hirescore_prompt_template_reloads_total",
		metric.WithDescription("Total number of prompt template hot reloads"),
	)
	if err != nil {
		return fmt.Errorf("failed to create prompt reload metric: %w", err)
	}

	m.metrics.RateLimitHits, err = meter.Int64Counter(
		"hirescore_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return nil
}

// GetMetrics returns the metric set. Safe to call on a disabled manager;
// all recorders are nil-safe.
func (m *Manager) GetMetrics() *Metrics {
	if m.metrics == nil {
		return &Metrics{}
	}
	return m.metrics
}

// HTTPMiddleware returns otelhttp server instrumentation, or an identity
// middleware when disabled.
func (m *Manager) HTTPMiddleware() func(http.Handler) http.Handler {
	if !m.cfg.Observability.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}
	return otelhttp.NewMiddleware(
		m.serviceName(),
		otelhttp.WithTracerProvider(m.tracerProvider),
		otelhttp.WithMeterProvider(m.meterProvider),
	)
}

// Tracer returns a tracer for the given instrumentation name.
func (m *Manager) Tracer(name string) oteltrace.Tracer {
	if !m.cfg.Observability.Enabled {
		return noop.NewTracerProvider().Tracer(name)
	}
	return otel.Tracer(name)
}

// Shutdown flushes and stops every provider.
func (m *Manager) Shutdown(ctx context.Context) error {
	for _, shutdown := range m.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

// TrackAnalysis wraps one analysis operation in a span and records the
// request, duration and error metrics for its kind.
func (m *Manager) TrackAnalysis(ctx context.Context, kind string, fn func(context.Context) error) error {
	tracer := m.Tracer("hirescore.analysis")
	ctx, span := tracer.Start(ctx, "analysis."+kind)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start).Seconds()

	attrs := []attribute.KeyValue{
		attribute.String("kind", kind),
		attribute.Bool("success", err == nil),
	}
	span.SetAttributes(attrs...)
	if err != nil {
		span.RecordError(err)
	}

	metrics := m.GetMetrics()
	if metrics.AnalysisRequests != nil {
		metrics.AnalysisRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if metrics.AnalysisDuration != nil {
		metrics.AnalysisDuration.Record(ctx, duration, metric.WithAttributes(attrs...))
	}
	if err != nil && metrics.AnalysisErrors != nil {
		metrics.AnalysisErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	return err
}

// RecordTokenUsage records completion token counts for one request.
func (mt *Metrics) RecordTokenUsage(ctx context.Context, kind string, input, output, total int64) {
	if mt.TokenUsage == nil {
		return
	}
	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", input},
		{"output", output},
		{"total", total},
	} {
		mt.TokenUsage.Record(ctx, tt.value, metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("token_type", tt.tokenType),
		))
	}
}

// RecordParseFallback counts a completion that degraded to defaults.
func (mt *Metrics) RecordParseFallback(ctx context.Context, kind string) {
	if mt.ParseFallbacks != nil {
		mt.ParseFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
}

// RecordDraftSaved counts one draft save.
func (mt *Metrics) RecordDraftSaved(ctx context.Context) {
	if mt.DraftsSaved != nil {
		mt.DraftsSaved.Add(ctx, 1)
	}
}

// RecordEvaluationFinalized counts one finalized evaluation.
func (mt *Metrics) RecordEvaluationFinalized(ctx context.Context) {
	if mt.EvaluationsFinalized != nil {
		mt.EvaluationsFinalized.Add(ctx, 1)
	}
}

// RecordPromptReload counts one prompt template hot reload.
func (mt *Metrics) RecordPromptReload(ctx context.Context) {
	if mt.PromptTemplateReloads != nil {
		mt.PromptTemplateReloads.Add(ctx, 1)
	}
}

// RecordRateLimitHit counts one rejected request.
func (mt *Metrics) RecordRateLimitHit(ctx context.Context, scope string) {
	if mt.RateLimitHits != nil {
		mt.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", scope)))
	}
}

// noOpSpanExporter drops spans when no exporter is configured.
type noOpSpanExporter struct{}

func (n *noOpSpanExporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	return nil
}

func (n *noOpSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}

// createOTLPTraceExporter creates an OTLP HTTP trace exporter.
func (m *Manager) createOTLPTraceExporter() (trace.SpanExporter, error) {
	otlp := m.cfg.Observability.OTLP

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(otlp.Endpoint),
	}
	if otlp.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(otlp.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(otlp.Headers))
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	return exporter, nil
}

// createOTLPMetricsReader creates an OTLP HTTP metrics reader.
func (m *Manager) createOTLPMetricsReader() (sdkmetric.Reader, error) {
	otlp := m.cfg.Observability.OTLP

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(otlp.Endpoint),
	}
	if otlp.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(otlp.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(otlp.Headers))
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(m.collectionInterval())), nil
}

// collectionInterval returns the configured metrics collection interval.
func (m *Manager) collectionInterval() time.Duration {
	if m.cfg.Observability.Metrics.CollectionInterval > 0 {
		return m.cfg.Observability.Metrics.CollectionInterval
	}
	return 15 * time.Second
}
