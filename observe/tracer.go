package observe

import (
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// NopTracer returns a tracer that records nothing. Used as the library
// default when the embedding application injects no provider.
func NopTracer() trace.Tracer {
	return tracenoop.NewTracerProvider().Tracer("cachekit")
}
