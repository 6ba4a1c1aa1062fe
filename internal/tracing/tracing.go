// Package tracing wires otel spans around scheduler ticks and per-node
// dispatch, grounded on the teacher's
// internal/infrastructure/monitoring/trace.go (an ExecutionTrace recording
// per-event timestamps/errors), replaced with real otel spans so traces
// interoperate with any configured exporter instead of an in-memory log.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/bacflow/dataflow/internal/scheduler"

// Tracer is the engine's named tracer; components call tracing.Tracer()
// rather than otel.Tracer(...) directly so the instrumentation name stays
// centralized.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartTick opens a span around one scheduler tick, tagged with the
// node count so a trace backend can correlate tick duration with graph size.
func StartTick(ctx context.Context, graphVersion, nodeCount int) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "scheduler.tick",
		trace.WithAttributes(
			attribute.Int("graph.version", graphVersion),
			attribute.Int("graph.node_count", nodeCount),
		),
	)
}

// StartNodeDispatch opens a span around one node's execute call.
func StartNodeDispatch(ctx context.Context, nodeID, kind string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "scheduler.dispatch_node",
		trace.WithAttributes(
			attribute.String("node.id", nodeID),
			attribute.String("node.kind", kind),
		),
	)
}

// EndWithError records err on the span (if non-nil) and ends it,
// centralizing the "set status on error" idiom so every call site doesn't
// repeat the otel codes.Error boilerplate.
func EndWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
