package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/cachekit/codec"
	"github.com/jonwraymond/cachekit/duration"
	"github.com/jonwraymond/cachekit/fingerprint"
	"github.com/jonwraymond/cachekit/observe"
	"github.com/jonwraymond/cachekit/store"
)

// Config configures an Engine. Selector is required; everything else
// defaults to silent no-op telemetry, the wall clock, and UUID
// transaction tokens.
type Config struct {
	Selector *store.Selector
	Logger   observe.Logger
	Metrics  *observe.Metrics
	Tracer   trace.Tracer

	// Now overrides the time source. Intended for tests.
	Now func() time.Time

	// NewToken overrides transaction token generation. Intended for tests.
	NewToken func() string
}

// Engine orchestrates validated reads, expiry extension, fetch-on-miss,
// and the compensating two-key write. It holds no entry state of its
// own; every operation is a short sequence of store calls.
//
// Contract:
// - Concurrency: safe for concurrent use from independent callers.
// - Context: passed through to the underlying store and the fetch
//   function; the engine adds no timeout of its own.
type Engine struct {
	selector *store.Selector
	log      observe.Logger
	metrics  *observe.Metrics
	tracer   trace.Tracer
	now      func() time.Time
	newToken func() string
	group    singleflight.Group
}

// New creates an Engine from cfg.
func New(cfg Config) (*Engine, error) {
	if cfg.Selector == nil {
		return nil, ErrNilSelector
	}
	e := &Engine{
		selector: cfg.Selector,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
		tracer:   cfg.Tracer,
		now:      cfg.Now,
		newToken: cfg.NewToken,
	}
	if e.log == nil {
		e.log = observe.NopLogger()
	}
	if e.metrics == nil {
		e.metrics = observe.NopMetrics()
	}
	if e.tracer == nil {
		e.tracer = observe.NopTracer()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newToken == nil {
		e.newToken = uuid.NewString
	}
	return e, nil
}

// GetOrFetch returns the cached value for path if a valid entry exists,
// otherwise invokes fetch and caches its result. The returned bool is
// false only when no valid entry exists and fetch is nil.
//
// Storage and decode failures are handled internally as misses; errors
// from fetch and from a malformed Expiration expression propagate.
func (e *Engine) GetOrFetch(ctx context.Context, path string, fetch FetchFunc, validation *string, scope store.Scope, opts Options) (any, bool, error) {
	opts = opts.normalized()
	expSeconds, err := duration.Parse(opts.Expiration)
	if err != nil {
		return nil, false, err
	}

	ctx, span := e.tracer.Start(ctx, "cachekit.GetOrFetch", trace.WithAttributes(
		attribute.String("cache.path", path),
		attribute.String("cache.scope", scope.String()),
	))
	defer span.End()

	st := e.selector.Select(scope)
	dataKey := fingerprint.DataKey(path)
	metaKey := fingerprint.MetaKey(path)
	contentHash := hashValidation(validation)

	var existing *Metadata
	if !opts.BypassCache {
		out := e.read(ctx, st, scope, dataKey, metaKey, validation, opts.StrictConsistency)
		existing = out.meta
		if out.valid {
			if opts.ExtendOnHit {
				e.extend(ctx, st, dataKey, metaKey, out.meta, out.payload, expSeconds)
			}
			span.SetAttributes(attribute.Bool("cache.hit", true))
			e.metrics.Hit(ctx, scope.String())
			e.log.Debug(ctx, "cache hit", observe.String("path", path), observe.String("scope", scope.String()))
			return out.value, true, nil
		}
	} else {
		// The write path still extends a valid entry's expiry and hands
		// the fetch its prior metadata.
		existing = e.peekMeta(ctx, st, metaKey)
	}

	e.metrics.Miss(ctx, scope.String())
	if fetch == nil {
		return nil, false, nil
	}
	e.log.Debug(ctx, "cache miss", observe.String("path", path), observe.String("scope", scope.String()))

	// Concurrent misses on the same (scope, path, validation) share one
	// fetch-and-store cycle. The first caller's options win for that
	// cycle; correctness is unaffected.
	flightKey := scope.String() + "\x00" + path + "\x00" + contentHash
	value, err, _ := e.group.Do(flightKey, func() (any, error) {
		return e.fetchAndStore(ctx, st, scope, path, dataKey, metaKey, fetch, existing, contentHash, expSeconds, opts)
	})
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// GetSafe is the read branch of GetOrFetch with no fetch fallback: it
// returns the decoded value, or absent, swallowing every failure as
// absent after cleaning up the offending keys. No expiry extension is
// performed.
func (e *Engine) GetSafe(ctx context.Context, path string, validation *string, scope store.Scope) (any, bool) {
	st := e.selector.Select(scope)
	out := e.read(ctx, st, scope, fingerprint.DataKey(path), fingerprint.MetaKey(path), validation, true)
	if !out.valid {
		e.metrics.Miss(ctx, scope.String())
		return nil, false
	}
	e.metrics.Hit(ctx, scope.String())
	return out.value, true
}

// IsValid reports whether a valid entry exists for path: metadata
// parses, logical expiry is in the future, and the content hash matches
// any requested validation. With verifyConsistency it additionally
// requires a transaction token and an existing data key. Read-only;
// never removes anything and never errors.
func (e *Engine) IsValid(ctx context.Context, path string, validation *string, scope store.Scope, verifyConsistency bool) bool {
	st := e.selector.Select(scope)

	meta := e.peekMeta(ctx, st, fingerprint.MetaKey(path))
	if meta == nil {
		return false
	}
	if meta.expired(e.now().UnixMilli()) {
		return false
	}
	if !meta.matchesContent(validation) {
		return false
	}
	if verifyConsistency {
		if meta.TransactionID == "" {
			return false
		}
		if _, ok, err := st.Get(ctx, fingerprint.DataKey(path)); err != nil || !ok {
			return false
		}
	}
	return true
}

// ForceRefresh unconditionally clears the entry for path, resolves
// dataOrFn (calling it when it is a FetchFunc), and runs the write
// path with strict consistency. Fetch errors propagate; cache write
// failures do not, the fresh value is returned either way.
func (e *Engine) ForceRefresh(ctx context.Context, path string, dataOrFn any, validation *string, scope store.Scope, opts Options) (any, error) {
	opts = opts.normalized()
	opts.BypassCache = false
	opts.StrictConsistency = true

	expSeconds, err := duration.Parse(opts.Expiration)
	if err != nil {
		return nil, err
	}

	st := e.selector.Select(scope)
	dataKey := fingerprint.DataKey(path)
	metaKey := fingerprint.MetaKey(path)

	_ = st.Remove(ctx, dataKey)
	_ = st.Remove(ctx, metaKey)

	fetch := resolveRefreshSource(dataOrFn)
	return e.fetchAndStore(ctx, st, scope, path, dataKey, metaKey, fetch, nil, hashValidation(validation), expSeconds, opts)
}

// ClearForPath removes both keys for path. Idempotent.
func (e *Engine) ClearForPath(ctx context.Context, path string, scope store.Scope) error {
	st := e.selector.Select(scope)
	dataErr := st.Remove(ctx, fingerprint.DataKey(path))
	metaErr := st.Remove(ctx, fingerprint.MetaKey(path))
	if dataErr != nil {
		return dataErr
	}
	return metaErr
}

// CleanReport summarizes a CleanExpiredEntries pass.
type CleanReport struct {
	Checked int
	Removed int

	// Skipped is set when no path list was supplied; the underlying
	// store offers no enumeration, so there is nothing to scan.
	Skipped bool
	Reason  string
}

// CleanExpiredEntries removes entries from the supplied path list whose
// metadata shows a lapsed logical expiry. The store cannot enumerate
// keys, so the caller provides the candidate paths; with none, the
// pass is skipped with an explanatory report.
func (e *Engine) CleanExpiredEntries(ctx context.Context, scope store.Scope, paths []string) CleanReport {
	if len(paths) == 0 {
		return CleanReport{Skipped: true, Reason: "no path list supplied; the store offers no key enumeration"}
	}

	st := e.selector.Select(scope)
	now := e.now().UnixMilli()
	report := CleanReport{}
	for _, path := range paths {
		report.Checked++
		meta := e.peekMeta(ctx, st, fingerprint.MetaKey(path))
		if meta == nil || !meta.expired(now) {
			continue
		}
		_ = st.Remove(ctx, fingerprint.DataKey(path))
		_ = st.Remove(ctx, fingerprint.MetaKey(path))
		report.Removed++
	}
	if report.Removed > 0 {
		e.log.Info(ctx, "expired entries cleaned",
			observe.String("scope", scope.String()),
			observe.Int("checked", report.Checked),
			observe.Int("removed", report.Removed))
	}
	return report
}

// readOutcome carries the result of a validated read attempt.
type readOutcome struct {
	value   any
	payload string
	meta    *Metadata // parsed metadata, kept even when the entry is invalid
	valid   bool
}

// read performs a validated read of one entry. Any invariant violation
// on an existing record removes both keys and reports the entry as
// invalid; a clean miss removes nothing.
func (e *Engine) read(ctx context.Context, st store.Store, scope store.Scope, dataKey, metaKey string, validation *string, strict bool) readOutcome {
	raw, ok, err := st.Get(ctx, metaKey)
	if err != nil || !ok {
		return readOutcome{}
	}

	var meta Metadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		e.selfHeal(ctx, st, scope, dataKey, metaKey, "metadata unparseable")
		return readOutcome{}
	}
	out := readOutcome{meta: &meta}

	switch {
	case meta.expired(e.now().UnixMilli()):
		e.selfHeal(ctx, st, scope, dataKey, metaKey, "expired")
		return out
	case !meta.matchesContent(validation):
		e.selfHeal(ctx, st, scope, dataKey, metaKey, "content hash mismatch")
		return out
	case strict && meta.TransactionID == "":
		e.selfHeal(ctx, st, scope, dataKey, metaKey, "missing transaction token")
		return out
	}

	payload, ok, err := st.Get(ctx, dataKey)
	if err != nil || !ok {
		e.selfHeal(ctx, st, scope, dataKey, metaKey, "data key absent")
		return out
	}

	value, err := codec.Decode(payload, meta.hint())
	if err != nil {
		e.selfHeal(ctx, st, scope, dataKey, metaKey, "payload undecodable")
		return out
	}

	out.value = value
	out.payload = payload
	out.valid = true
	return out
}

// extend pushes a valid entry's logical and physical expiry out to at
// least now+expSeconds. Best-effort; a failed extension leaves the
// entry as it was.
func (e *Engine) extend(ctx context.Context, st store.Store, dataKey, metaKey string, meta *Metadata, payload string, expSeconds int) {
	now := e.now()
	nowMs := now.UnixMilli()
	newExp := nowMs + int64(expSeconds)*1000
	if meta.ExpiresAt > newExp {
		newExp = meta.ExpiresAt
	}
	meta.ExpiresAt = newExp
	meta.LastModified = nowMs

	raw, err := json.Marshal(meta)
	if err != nil {
		return
	}
	ttl := time.Duration(newExp-nowMs) * time.Millisecond
	if err := st.Put(ctx, dataKey, payload, ttl); err != nil {
		return
	}
	_ = st.Put(ctx, metaKey, string(raw), ttl)
}

// fetchAndStore runs steps 5-8 of the miss path: invoke the fetch,
// unwrap any per-write overrides, encode, and write. The fetched value
// is returned even when storing it fails or is skipped.
func (e *Engine) fetchAndStore(ctx context.Context, st store.Store, scope store.Scope, path, dataKey, metaKey string, fetch FetchFunc, existing *Metadata, contentHash string, expSeconds int, opts Options) (any, error) {
	e.metrics.Fetch(ctx, scope.String())
	result, err := fetch(ctx, path, FetchInfo{ExistingMeta: existing, Scope: scope})
	if err != nil {
		return nil, err
	}

	value := result
	if fr, ok := asFetchResult(result); ok {
		value = fr.Data
		if fr.Content != nil {
			contentHash = fingerprint.Hex(*fr.Content)
		}
		if fr.Expiration != "" {
			secs, err := duration.Parse(fr.Expiration)
			if err != nil {
				return nil, err
			}
			expSeconds = secs
		}
	}

	payload, compressed, err := codec.Encode(value)
	if err != nil {
		// The value cannot be represented in the store; hand it back
		// uncached rather than failing the caller's fetch.
		e.log.Warn(ctx, "value not storable, returned uncached",
			observe.String("path", path), observe.Err(err))
		return value, nil
	}

	if len(payload) > opts.MaxSizeBytes {
		e.metrics.OversizeSkip(ctx, scope.String())
		e.log.Info(ctx, "encoded value exceeds size limit, returned uncached",
			observe.String("path", path),
			observe.Int("size", len(payload)),
			observe.Int("limit", opts.MaxSizeBytes))
		return value, nil
	}

	e.write(ctx, st, scope, path, dataKey, metaKey, payload, compressed, contentHash, expSeconds, opts)
	return value, nil
}

// write performs the compensating two-key write: data before metadata,
// so a reader never observes fresh metadata pointing at absent data,
// then an optional read-back verification that rolls both keys back on
// mismatch. Failures here never propagate; the cache simply ends the
// operation empty.
func (e *Engine) write(ctx context.Context, st store.Store, scope store.Scope, path, dataKey, metaKey, payload string, compressed bool, contentHash string, expSeconds int, opts Options) {
	now := e.now()
	nowMs := now.UnixMilli()

	expiresAt := nowMs + int64(expSeconds)*1000
	if opts.ExtendOnHit {
		// Extend from whatever metadata is actually still stored, not
		// from a copy read before a self-heal removed it.
		if cur := e.peekMeta(ctx, st, metaKey); cur != nil && !cur.expired(nowMs) && cur.ExpiresAt > expiresAt {
			expiresAt = cur.ExpiresAt
		}
	}

	token := e.newToken()
	meta := Metadata{
		Path:          path,
		CreatedAt:     nowMs,
		LastModified:  nowMs,
		ExpiresAt:     expiresAt,
		Size:          len(payload),
		ContentHash:   contentHash,
		TransactionID: token,
		IsCompressed:  &compressed,
	}
	raw, err := json.Marshal(&meta)
	if err != nil {
		return
	}

	ttl := time.Duration(expiresAt-nowMs) * time.Millisecond
	if err := st.Put(ctx, dataKey, payload, ttl); err != nil {
		e.rollback(ctx, st, scope, path, dataKey, metaKey, err)
		return
	}
	if err := st.Put(ctx, metaKey, string(raw), ttl); err != nil {
		e.rollback(ctx, st, scope, path, dataKey, metaKey, err)
		return
	}

	if opts.StrictConsistency {
		if err := e.verify(ctx, st, dataKey, metaKey, token); err != nil {
			e.rollback(ctx, st, scope, path, dataKey, metaKey, err)
			return
		}
	}

	e.metrics.Write(ctx, scope.String())
	e.log.Debug(ctx, "cache write",
		observe.String("path", path),
		observe.String("scope", scope.String()),
		observe.Int("size", len(payload)))
}

// verify reads both keys back and checks the metadata carries the
// transaction token that was just written.
func (e *Engine) verify(ctx context.Context, st store.Store, dataKey, metaKey, token string) error {
	if _, ok, err := st.Get(ctx, dataKey); err != nil || !ok {
		return ErrWriteVerification
	}
	raw, ok, err := st.Get(ctx, metaKey)
	if err != nil || !ok {
		return ErrWriteVerification
	}
	var meta Metadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return ErrWriteVerification
	}
	if meta.TransactionID != token {
		return ErrWriteVerification
	}
	return nil
}

// rollback removes both keys after a failed or unverifiable write. A
// half-written entry must never be left behind.
func (e *Engine) rollback(ctx context.Context, st store.Store, scope store.Scope, path, dataKey, metaKey string, cause error) {
	_ = st.Remove(ctx, dataKey)
	_ = st.Remove(ctx, metaKey)
	e.metrics.WriteFailure(ctx, scope.String())
	e.log.Warn(ctx, "cache write rolled back",
		observe.String("path", path),
		observe.String("scope", scope.String()),
		observe.Err(cause))
}

// selfHeal removes both keys of an invalid entry.
func (e *Engine) selfHeal(ctx context.Context, st store.Store, scope store.Scope, dataKey, metaKey, reason string) {
	_ = st.Remove(ctx, dataKey)
	_ = st.Remove(ctx, metaKey)
	e.metrics.SelfHeal(ctx, scope.String())
	e.log.Warn(ctx, "invalid cache entry removed",
		observe.String("scope", scope.String()),
		observe.String("reason", reason))
}

// peekMeta reads and parses metadata without side effects.
func (e *Engine) peekMeta(ctx context.Context, st store.Store, metaKey string) *Metadata {
	raw, ok, err := st.Get(ctx, metaKey)
	if err != nil || !ok {
		return nil
	}
	var meta Metadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil
	}
	return &meta
}

func hashValidation(validation *string) string {
	if validation == nil {
		return ""
	}
	return fingerprint.Hex(*validation)
}
