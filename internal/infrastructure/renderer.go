package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"salescli/internal/charts"
)

// instrumentedRenderer traces and measures every call to the wrapped renderer.
type instrumentedRenderer struct {
	next      charts.Renderer
	telemetry *Telemetry
}

// InstrumentRenderer wraps next so that each render gets a span and is
// counted in the pipeline metrics.
func (t *Telemetry) InstrumentRenderer(next charts.Renderer) charts.Renderer {
	return &instrumentedRenderer{next: next, telemetry: t}
}

// Render implements charts.Renderer.
func (r *instrumentedRenderer) Render(ctx context.Context, chart charts.Chart, path string) error {
	ctx, span := r.telemetry.Tracer.Start(ctx, "charts.Render", trace.WithAttributes(
		attribute.String("chart.kind", chart.Kind.String()),
		attribute.String("chart.path", path),
	))
	defer span.End()

	start := time.Now()
	err := r.next.Render(ctx, chart, path)
	r.telemetry.Metrics.RecordRender(ctx, chart.Kind.String(), time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
