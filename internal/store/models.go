package store

import (
	"time"

	"github.com/uptrace/bun"
)

// record is the single table backing the key/value contract. Document entries
// use the upstream path as key; the aggregate index, the tree ETag marker, and
// session records live under reserved keys.
type record struct {
	bun.BaseModel `bun:"table:kv_entries,alias:kv"`

	Key         string     `bun:"key,pk"               json:"key"`
	Value       string     `bun:"value,notnull"        json:"value"`
	ContentHash string     `bun:"content_hash"         json:"content_hash,omitempty"`
	ExpiresAt   *time.Time `bun:"expires_at,nullzero"  json:"expires_at,omitempty"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}
