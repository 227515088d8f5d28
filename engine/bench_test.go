package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/jonwraymond/cachekit/store"
)

func newBenchEngine(b *testing.B) *Engine {
	b.Helper()
	e, err := New(Config{Selector: store.NewSelector(store.NewMemoryStore())})
	if err != nil {
		b.Fatal(err)
	}
	return e
}

func BenchmarkGetOrFetch_Hit(b *testing.B) {
	e := newBenchEngine(b)
	ctx := context.Background()
	fetch := func(context.Context, string, FetchInfo) (any, error) {
		return map[string]any{"k": "v"}, nil
	}

	if _, _, err := e.GetOrFetch(ctx, "bench", fetch, nil, store.ScopeDocument, DefaultOptions()); err != nil {
		b.Fatal(err)
	}

	opts := DefaultOptions()
	opts.ExtendOnHit = false // isolate the read path

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok, _ := e.GetOrFetch(ctx, "bench", fetch, nil, store.ScopeDocument, opts); !ok {
			b.Fatal("unexpected miss")
		}
	}
}

func BenchmarkGetOrFetch_MissAndStore(b *testing.B) {
	e := newBenchEngine(b)
	ctx := context.Background()
	fetch := func(context.Context, string, FetchInfo) (any, error) {
		return map[string]any{"k": "v"}, nil
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		path := fmt.Sprintf("bench-%d", i)
		if _, _, err := e.GetOrFetch(ctx, path, fetch, nil, store.ScopeDocument, DefaultOptions()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGetSafe(b *testing.B) {
	e := newBenchEngine(b)
	ctx := context.Background()
	if _, err := e.ForceRefresh(ctx, "bench", map[string]any{"k": "v"}, nil, store.ScopeDocument, DefaultOptions()); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := e.GetSafe(ctx, "bench", nil, store.ScopeDocument); !ok {
			b.Fatal("unexpected miss")
		}
	}
}

func BenchmarkIsValid(b *testing.B) {
	e := newBenchEngine(b)
	ctx := context.Background()
	if _, err := e.ForceRefresh(ctx, "bench", "value", nil, store.ScopeDocument, DefaultOptions()); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !e.IsValid(ctx, "bench", nil, store.ScopeDocument, true) {
			b.Fatal("unexpected invalid")
		}
	}
}
