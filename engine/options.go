package engine

// Defaults applied by DefaultOptions and by normalization of zero
// values.
const (
	// DefaultExpiration is the cache lifetime when none is requested.
	DefaultExpiration = "20m"

	// DefaultMaxSizeBytes bounds the encoded payload size; larger
	// values are returned uncached.
	DefaultMaxSizeBytes = 100 * 1024
)

// Options configures a single engine operation.
type Options struct {
	// Expiration is a duration expression ("30s", "1.5h", ...). Empty
	// means DefaultExpiration.
	Expiration string

	// BypassCache skips the read attempt and always fetches.
	BypassCache bool

	// MaxSizeBytes bounds the encoded payload; zero means
	// DefaultMaxSizeBytes.
	MaxSizeBytes int

	// ExtendOnHit pushes a valid entry's expiry out to at least
	// now+Expiration on every validated read.
	ExtendOnHit bool

	// StrictConsistency requires a transaction token on reads and
	// verifies writes by reading both keys back.
	StrictConsistency bool
}

// DefaultOptions returns the baseline options: 20 minute expiration,
// 100 KiB size limit, expiry extension and strict consistency on.
// Start from this value and override fields rather than building
// Options from zero.
func DefaultOptions() Options {
	return Options{
		Expiration:        DefaultExpiration,
		MaxSizeBytes:      DefaultMaxSizeBytes,
		ExtendOnHit:       true,
		StrictConsistency: true,
	}
}

// normalized fills the zero values that have non-zero defaults.
func (o Options) normalized() Options {
	if o.Expiration == "" {
		o.Expiration = DefaultExpiration
	}
	if o.MaxSizeBytes == 0 {
		o.MaxSizeBytes = DefaultMaxSizeBytes
	}
	return o
}
