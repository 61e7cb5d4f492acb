package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"

	"github.com/goliatone/go-docsync/internal/logging"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

// ErrUnsupportedDriver indicates a storage driver outside sqlite/postgres.
var ErrUnsupportedDriver = errors.New("store: unsupported driver")

// Config captures construction options for the bun-backed store.
type Config struct {
	// Driver selects the bun dialect: "sqlite" (default) or "postgres".
	Driver string
	Logger interfaces.Logger
	// Now overrides the clock used for TTL checks, mainly for tests.
	Now func() time.Time
}

// BunStore implements interfaces.KeyValueStore on top of a relational table.
// Every Put is a single upsert and every Get a single select, which keeps the
// per-key atomicity the sync engine relies on for its aggregate index write.
type BunStore struct {
	db     *bun.DB
	logger interfaces.Logger
	now    func() time.Time
}

var _ interfaces.KeyValueStore = (*BunStore)(nil)

// New wraps the supplied database handle with the dialect named in cfg.Driver.
func New(sqlDB *sql.DB, cfg Config) (*BunStore, error) {
	if sqlDB == nil {
		return nil, errors.New("store: database handle is required")
	}

	var dialect schema.Dialect
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite", "sqlite3":
		dialect = sqlitedialect.New()
	case "postgres", "pg":
		dialect = pgdialect.New()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &BunStore{
		db:     bun.NewDB(sqlDB, dialect),
		logger: logger,
		now:    now,
	}, nil
}

// EnsureSchema creates the backing table when it does not exist yet.
func (s *BunStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*record)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}
	return nil
}

// Get returns the entry stored under key. Entries whose TTL elapsed are
// treated as absent and lazily removed.
func (s *BunStore) Get(ctx context.Context, key string) (*interfaces.Entry, error) {
	rec := new(record)
	err := s.db.NewSelect().
		Model(rec).
		Where("kv.key = ?", key).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %q: %w", key, err)
	}

	if rec.ExpiresAt != nil && !rec.ExpiresAt.After(s.now()) {
		if err := s.Delete(ctx, key); err != nil {
			s.logger.Warn("store.expire.delete_failed", "key", key, "error", err)
		}
		return nil, nil
	}

	entry := &interfaces.Entry{
		Key:         rec.Key,
		Value:       rec.Value,
		ContentHash: rec.ContentHash,
	}
	if rec.ExpiresAt != nil {
		expires := *rec.ExpiresAt
		entry.ExpiresAt = &expires
	}
	return entry, nil
}

// Put creates or overwrites the entry stored under key in one upsert.
func (s *BunStore) Put(ctx context.Context, key, value string, opts ...interfaces.PutOption) error {
	options := interfaces.PutOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	rec := &record{
		Key:         key,
		Value:       value,
		ContentHash: options.ContentHash,
		UpdatedAt:   s.now(),
	}
	if options.TTL > 0 {
		expires := s.now().Add(options.TTL)
		rec.ExpiresAt = &expires
	}

	if _, err := s.db.NewInsert().
		Model(rec).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("content_hash = EXCLUDED.content_hash").
		Set("expires_at = EXCLUDED.expires_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("store: put %q: %w", key, err)
	}
	return nil
}

// Delete removes the entry stored under key. Absent keys are not an error.
func (s *BunStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.NewDelete().
		Model((*record)(nil)).
		Where("kv.key = ?", key).
		Exec(ctx); err != nil {
		return fmt.Errorf("store: delete %q: %w", key, err)
	}
	return nil
}
