package interfaces

import (
	"context"
	"time"
)

// Reserved keys inside the document cache store. Document entries use the
// upstream file path as their key; everything else lives under one of these.
const (
	IndexKey         = "index"
	TreeETagKey      = "etag:tree"
	SessionKeyPrefix = "session:"
)

// Entry is one record held by a KeyValueStore. ContentHash carries the
// per-item change-detection metadata; ExpiresAt is set only for entries
// written with a TTL.
type Entry struct {
	Key         string
	Value       string
	ContentHash string
	ExpiresAt   *time.Time
}

// PutOption customises a single Put call.
type PutOption func(*PutOptions)

// PutOptions collects the optional attributes attached to a stored entry.
type PutOptions struct {
	ContentHash string
	TTL         time.Duration
}

// WithContentHash records the upstream content identifier alongside the value.
func WithContentHash(hash string) PutOption {
	return func(o *PutOptions) {
		o.ContentHash = hash
	}
}

// WithTTL marks the entry for expiry after the supplied duration. Expired
// entries behave exactly like absent ones on read.
func WithTTL(ttl time.Duration) PutOption {
	return func(o *PutOptions) {
		if ttl > 0 {
			o.TTL = ttl
		}
	}
}

// KeyValueStore is the durable storage contract shared by the document cache
// and the session store. Puts and gets are atomic per key; there are no
// cross-key transactions, so multi-entry atomicity is only achievable by
// writing one aggregate key.
type KeyValueStore interface {
	// Get returns the entry stored under key, or nil when the key is absent
	// or its TTL has elapsed.
	Get(ctx context.Context, key string) (*Entry, error)
	// Put creates or overwrites the entry stored under key.
	Put(ctx context.Context, key, value string, opts ...PutOption) error
	// Delete removes the entry stored under key. Deleting an absent key is
	// not an error.
	Delete(ctx context.Context, key string) error
}
