// Package observe provides the telemetry surface for the cache layer:
// a minimal structured Logger with a JSON implementation, OpenTelemetry
// counters for cache outcomes, and tracer plumbing with noop defaults
// so the library stays silent unless the embedding application injects
// real providers.
package observe
