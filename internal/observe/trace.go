package observe

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// scopeName is the instrumentation scope for spans emitted by the server.
const scopeName = "github.com/wrsmith108/bingo-demo"

func tracer() trace.Tracer {
	return otel.Tracer(scopeName)
}

// RequestID returns the trace ID of the active span, or the empty string
// when ctx carries no span with a valid trace ID. The server echoes it in
// the X-Request-ID header so a player's bug report can be matched to its
// trace and log lines.
func RequestID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}
