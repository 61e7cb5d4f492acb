package store

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-docsync/pkg/interfaces"
	"github.com/goliatone/go-docsync/pkg/testsupport"
)

func newTestStore(t *testing.T, now func() time.Time) *BunStore {
	t.Helper()

	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	s, err := New(sqlDB, Config{Driver: "sqlite", Now: now})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	s.db.SetMaxOpenConns(1)

	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	if err := s.Put(ctx, "docs/a.md", "# A", interfaces.WithContentHash("sha-1")); err != nil {
		t.Fatalf("put: %v", err)
	}

	entry, err := s.Get(ctx, "docs/a.md")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry == nil {
		t.Fatalf("expected entry, got nil")
	}
	if entry.Value != "# A" {
		t.Fatalf("unexpected value %q", entry.Value)
	}
	if entry.ContentHash != "sha-1" {
		t.Fatalf("unexpected content hash %q", entry.ContentHash)
	}
	if entry.ExpiresAt != nil {
		t.Fatalf("expected no expiry, got %v", entry.ExpiresAt)
	}
}

func TestGetAbsentKey(t *testing.T) {
	s := newTestStore(t, nil)

	entry, err := s.Get(context.Background(), "docs/missing.md")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil entry, got %#v", entry)
	}
}

func TestPutOverwritesExisting(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	if err := s.Put(ctx, "docs/a.md", "old", interfaces.WithContentHash("sha-1")); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if err := s.Put(ctx, "docs/a.md", "new", interfaces.WithContentHash("sha-2")); err != nil {
		t.Fatalf("second put: %v", err)
	}

	entry, err := s.Get(ctx, "docs/a.md")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry == nil || entry.Value != "new" || entry.ContentHash != "sha-2" {
		t.Fatalf("expected overwritten entry, got %#v", entry)
	}
}

func TestTTLExpiry(t *testing.T) {
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	s := newTestStore(t, func() time.Time { return now() })
	ctx := context.Background()

	if err := s.Put(ctx, "session:abc", `{"username":"admin"}`, interfaces.WithTTL(time.Hour)); err != nil {
		t.Fatalf("put: %v", err)
	}

	entry, err := s.Get(ctx, "session:abc")
	if err != nil {
		t.Fatalf("get before expiry: %v", err)
	}
	if entry == nil {
		t.Fatalf("expected live entry before expiry")
	}
	if entry.ExpiresAt == nil || !entry.ExpiresAt.Equal(clock.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", entry.ExpiresAt)
	}

	clock = clock.Add(2 * time.Hour)

	entry, err = s.Get(ctx, "session:abc")
	if err != nil {
		t.Fatalf("get after expiry: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected expired entry to read as absent, got %#v", entry)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	if err := s.Put(ctx, "docs/a.md", "body"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Delete(ctx, "docs/a.md"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := s.Delete(ctx, "docs/a.md"); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	entry, err := s.Get(ctx, "docs/a.md")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected entry removed, got %#v", entry)
	}
}

func TestUnsupportedDriver(t *testing.T) {
	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if _, err := New(sqlDB, Config{Driver: "oracle"}); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}
