package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics records cache outcomes as OpenTelemetry counters.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: recording must not panic and must return quickly.
type Metrics struct {
	hits          metric.Int64Counter
	misses        metric.Int64Counter
	selfHeals     metric.Int64Counter
	writes        metric.Int64Counter
	writeFailures metric.Int64Counter
	oversizeSkips metric.Int64Counter
	fetches       metric.Int64Counter
}

// NewMetrics creates cache counters on meter. Pass a meter from a noop
// provider to disable collection; NopMetrics does exactly that.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.hits, err = meter.Int64Counter(
		"cachekit.hits",
		metric.WithDescription("Validated cache reads returned to the caller"),
		metric.WithUnit("{read}"),
	); err != nil {
		return nil, err
	}
	if m.misses, err = meter.Int64Counter(
		"cachekit.misses",
		metric.WithDescription("Reads that fell through to fetch"),
		metric.WithUnit("{read}"),
	); err != nil {
		return nil, err
	}
	if m.selfHeals, err = meter.Int64Counter(
		"cachekit.self_heals",
		metric.WithDescription("Entries deleted after failing validation or decode"),
		metric.WithUnit("{entry}"),
	); err != nil {
		return nil, err
	}
	if m.writes, err = meter.Int64Counter(
		"cachekit.writes",
		metric.WithDescription("Successful two-key cache writes"),
		metric.WithUnit("{write}"),
	); err != nil {
		return nil, err
	}
	if m.writeFailures, err = meter.Int64Counter(
		"cachekit.write_failures",
		metric.WithDescription("Writes rolled back after verification failure"),
		metric.WithUnit("{write}"),
	); err != nil {
		return nil, err
	}
	if m.oversizeSkips, err = meter.Int64Counter(
		"cachekit.oversize_skips",
		metric.WithDescription("Values returned uncached because they exceed the size limit"),
		metric.WithUnit("{value}"),
	); err != nil {
		return nil, err
	}
	if m.fetches, err = meter.Int64Counter(
		"cachekit.fetches",
		metric.WithDescription("Caller fetch function invocations"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// NopMetrics returns Metrics backed by a noop meter.
func NopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter("cachekit"))
	return m
}

func scopeAttr(scope string) metric.AddOption {
	return metric.WithAttributes(attribute.String("cache.scope", scope))
}

// Hit records a validated read served from cache.
func (m *Metrics) Hit(ctx context.Context, scope string) { m.hits.Add(ctx, 1, scopeAttr(scope)) }

// Miss records a read that fell through to fetch.
func (m *Metrics) Miss(ctx context.Context, scope string) { m.misses.Add(ctx, 1, scopeAttr(scope)) }

// SelfHeal records deletion of an invalid entry.
func (m *Metrics) SelfHeal(ctx context.Context, scope string) {
	m.selfHeals.Add(ctx, 1, scopeAttr(scope))
}

// Write records a successful two-key write.
func (m *Metrics) Write(ctx context.Context, scope string) { m.writes.Add(ctx, 1, scopeAttr(scope)) }

// WriteFailure records a rolled-back write.
func (m *Metrics) WriteFailure(ctx context.Context, scope string) {
	m.writeFailures.Add(ctx, 1, scopeAttr(scope))
}

// OversizeSkip records a value too large to store.
func (m *Metrics) OversizeSkip(ctx context.Context, scope string) {
	m.oversizeSkips.Add(ctx, 1, scopeAttr(scope))
}

// Fetch records a fetch function invocation.
func (m *Metrics) Fetch(ctx context.Context, scope string) { m.fetches.Add(ctx, 1, scopeAttr(scope)) }
