package observe

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestRequestID(t *testing.T) {
	if id := RequestID(context.Background()); id != "" {
		t.Errorf("RequestID without a span = %q, want empty", id)
	}

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	id := RequestID(ctx)
	if len(id) != 32 {
		t.Errorf("RequestID = %q, want a 32-hex trace ID", id)
	}
	if id == "00000000000000000000000000000000" {
		t.Error("RequestID returned the zero trace ID")
	}
}
