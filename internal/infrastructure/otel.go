package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"salescli/internal/config"
	"salescli/internal/dataprocessing"
)

const (
	ServiceName = "salescli"
	MeterName   = "salescli"
)

// Telemetry holds the tracing and metrics providers of one run. Providers are
// not installed globally; components receive them explicitly.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Metrics        *PipelineMetrics
	// Registry gathers the metrics exported through Prometheus. Nil when
	// metrics are disabled.
	Registry *prometheus.Registry
	logger   *slog.Logger
}

// NewTelemetry sets up tracing and metrics according to cfg. Spans from the
// stdout exporter are written to traceOut. Disabled signals use no-op
// providers so callers never need nil checks.
func NewTelemetry(cfg config.TelemetryConfig, version string, traceOut io.Writer, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = DiscardLogger()
	}
	if traceOut == nil {
		traceOut = os.Stderr
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(version),
	)

	t := &Telemetry{logger: logger}

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(traceOut), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		t.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		t.Tracer = t.TracerProvider.Tracer(MeterName, trace.WithInstrumentationVersion(version))
	case "none", "":
		t.Tracer = tracenoop.NewTracerProvider().Tracer(MeterName)
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	if cfg.Metrics {
		t.Registry = prometheus.NewRegistry()
		exporter, err := otelprom.New(otelprom.WithRegisterer(t.Registry))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		t.MeterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		t.Meter = t.MeterProvider.Meter(MeterName, metric.WithInstrumentationVersion(version))
	} else {
		t.Meter = metricnoop.NewMeterProvider().Meter(MeterName)
	}

	metrics, err := NewPipelineMetrics(t.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	t.Metrics = metrics

	logger.Debug("Telemetry initialized",
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.Bool("metrics_enabled", cfg.Metrics))

	return t, nil
}

// StartStage opens a span for one pipeline stage. The returned function ends
// the span and records the stage duration; it must be called exactly once.
func (t *Telemetry) StartStage(ctx context.Context, stage string) (context.Context, func(error)) {
	ctx, span := t.Tracer.Start(ctx, stage)
	start := time.Now()
	return ctx, func(err error) {
		t.Metrics.RecordStage(ctx, stage, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// WriteMetrics dumps the gathered metrics to path in the Prometheus text format.
func (t *Telemetry) WriteMetrics(path string) error {
	if t.Registry == nil {
		return errors.New("metrics are disabled")
	}
	if err := prometheus.WriteToTextfile(path, t.Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	t.logger.Info("Saved metrics", slog.String("path", path))
	return nil
}

// Shutdown flushes pending spans and releases the providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PipelineMetrics holds the counters and histograms of an analysis run.
type PipelineMetrics struct {
	RowsLoaded     metric.Int64Counter
	CellsDefaulted metric.Int64Counter
	ChartsRendered metric.Int64Counter
	RenderDuration metric.Float64Histogram
	StageDuration  metric.Float64Histogram
}

// NewPipelineMetrics creates the pipeline instruments on meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	rowsLoaded, err := meter.Int64Counter(
		"salescli_rows_loaded",
		metric.WithDescription("Number of spreadsheet rows loaded"),
	)
	if err != nil {
		return nil, err
	}

	cellsDefaulted, err := meter.Int64Counter(
		"salescli_cells_defaulted",
		metric.WithDescription("Number of cells replaced by a fallback value during cleaning"),
	)
	if err != nil {
		return nil, err
	}

	chartsRendered, err := meter.Int64Counter(
		"salescli_charts_rendered",
		metric.WithDescription("Number of chart render attempts"),
	)
	if err != nil {
		return nil, err
	}

	renderDuration, err := meter.Float64Histogram(
		"salescli_chart_render_duration",
		metric.WithDescription("Chart render duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"salescli_stage_duration",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RowsLoaded:     rowsLoaded,
		CellsDefaulted: cellsDefaulted,
		ChartsRendered: chartsRendered,
		RenderDuration: renderDuration,
		StageDuration:  stageDuration,
	}, nil
}

// RecordRows counts loaded rows.
func (m *PipelineMetrics) RecordRows(ctx context.Context, rows int) {
	m.RowsLoaded.Add(ctx, int64(rows))
}

// RecordCleaning counts defaulted cells per column.
func (m *PipelineMetrics) RecordCleaning(ctx context.Context, report dataprocessing.CleaningReport) {
	for column, n := range report.Defaulted {
		m.CellsDefaulted.Add(ctx, int64(n), metric.WithAttributes(attribute.String("column", column)))
	}
}

// RecordRender records one chart render attempt.
func (m *PipelineMetrics) RecordRender(ctx context.Context, kind string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status(err)),
	)
	m.ChartsRendered.Add(ctx, 1, attrs)
	m.RenderDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordStage records the duration of one pipeline stage.
func (m *PipelineMetrics) RecordStage(ctx context.Context, stage string, duration time.Duration, err error) {
	m.StageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status(err)),
	))
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
