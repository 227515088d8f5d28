package store

import (
	"context"
	"encoding/binary"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltStore is a persistent Store backed by a bbolt database. Each
// value is stored as an 8-byte big-endian unix expiry followed by the
// raw payload; expiry is enforced lazily on Get.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
	now    func() time.Time
}

// BoltOptions configures a BoltStore.
type BoltOptions struct {
	// Bucket is the bolt bucket name. Defaults to "cachekit".
	Bucket string
}

// OpenBolt opens or creates a BoltStore at path.
func OpenBolt(path string, opts BoltOptions) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	bucket := []byte("cachekit")
	if opts.Bucket != "" {
		bucket = []byte(opts.Bucket)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db, bucket: bucket, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get retrieves a value if present and not expired. Expired values are
// deleted on the way out.
func (s *BoltStore) Get(_ context.Context, key string) (string, bool, error) {
	var out string
	var found, expired bool
	if err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil || len(v) < 8 {
			return nil
		}
		expiresAt := int64(binary.BigEndian.Uint64(v[:8]))
		if s.now().Unix() > expiresAt {
			expired = true
			return nil
		}
		found = true
		out = string(v[8:])
		return nil
	}); err != nil {
		return "", false, err
	}
	if expired {
		_ = s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(s.bucket).Delete([]byte(key))
		})
	}
	return out, found, nil
}

// Put stores a value that expires after ttl. TTL <= 0 means no storage.
func (s *BoltStore) Put(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	expiresAt := s.now().Add(ttl).Unix()
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf[:8], uint64(expiresAt))
	copy(buf[8:], value)

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), buf)
	})
}

// Remove deletes a key. Idempotent - no error on miss.
func (s *BoltStore) Remove(_ context.Context, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

// SetClock overrides the time source. Intended for tests.
func (s *BoltStore) SetClock(now func() time.Time) {
	s.now = now
}

// Ensure BoltStore implements Store
var _ Store = (*BoltStore)(nil)
