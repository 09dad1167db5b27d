package exporters

import (
	"context"

	"github.com/Gobusters/ectologger"
	"go.opentelemetry.io/otel/sdk/trace"
)

// LogExporter writes finished spans to the service logger at debug level.
type LogExporter struct {
	logger ectologger.Logger
}

// NewLogExporter creates a span exporter backed by logger.
func NewLogExporter(logger ectologger.Logger) *LogExporter {
	return &LogExporter{logger: logger}
}

func (e *LogExporter) ExportSpans(_ context.Context, spans []trace.ReadOnlySpan) error {
	for _, s := range spans {
		e.logger.WithFields(map[string]any{
			"trace_id": s.SpanContext().TraceID().String(),
			"span_id":  s.SpanContext().SpanID().String(),
			"span":     s.Name(),
			"duration": s.EndTime().Sub(s.StartTime()).String(),
			"status":   s.Status().Code.String(),
		}).Debug("span")
	}
	return nil
}

func (e *LogExporter) Shutdown(_ context.Context) error {
	return nil
}
