// Package docsync implements the synchronization engine: it diffs the
// upstream tree against stored per-document hashes, fetches only changed
// blobs, and rewrites the searchable index as a single aggregate record.
package docsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goliatone/go-docsync/internal/logging"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

var (
	ErrSourceRequired = errors.New("docsync: tree source is required")
	ErrStoreRequired  = errors.New("docsync: document store is required")
)

// IndexEntry is one row of the aggregate index. The wire shape matches what
// list clients already consume, so ContentHash serializes as "sha".
type IndexEntry struct {
	Path        string   `json:"path"`
	Title       string   `json:"title"`
	ContentHash string   `json:"sha"`
	Summary     string   `json:"summary"`
	Tags        []string `json:"tags"`
}

// Config captures the engine's dependencies.
type Config struct {
	Source interfaces.TreeSource
	Store  interfaces.KeyValueStore
	Logger interfaces.Logger
}

// Engine orchestrates one synchronization pass at a time. Invocations are
// idempotent and safe to overlap: concurrent passes may duplicate fetches but
// converge on the same index when upstream is stable, and the index swap is a
// single last-writer-wins put.
type Engine struct {
	source interfaces.TreeSource
	store  interfaces.KeyValueStore
	logger interfaces.Logger
}

// New validates cfg and builds an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Source == nil {
		return nil, ErrSourceRequired
	}
	if cfg.Store == nil {
		return nil, ErrStoreRequired
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Engine{
		source: cfg.Source,
		store:  cfg.Store,
		logger: logger,
	}, nil
}

// Sync runs one pass: list the tree, refresh changed documents, rebuild the
// index, and atomically replace the stored aggregate. An empty tree listing
// means upstream reported no change and the pass is a no-op. A failure on one
// blob never aborts the pass; that document keeps serving its last-known-good
// content and index row until a later pass succeeds.
func (e *Engine) Sync(ctx context.Context) error {
	entries, err := e.source.ListTree(ctx)
	if err != nil {
		return fmt.Errorf("docsync: list tree: %w", err)
	}
	if len(entries) == 0 {
		e.logger.Debug("sync.tree.unchanged")
		return nil
	}

	index := make([]IndexEntry, 0, len(entries))
	for _, entry := range entries {
		row, ok, err := e.refresh(ctx, entry)
		if err != nil {
			return err
		}
		if ok {
			index = append(index, row)
		}
	}

	payload, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("docsync: marshal index: %w", err)
	}
	if err := e.store.Put(ctx, interfaces.IndexKey, string(payload)); err != nil {
		return fmt.Errorf("docsync: replace index: %w", err)
	}

	e.logger.Info("sync.completed", "documents", len(entries), "indexed", len(index))
	return nil
}

// refresh brings one document up to date and derives its index row. Store
// failures propagate; fetch/decode failures degrade to the previous cached
// state. The bool result reports whether a row could be produced at all.
func (e *Engine) refresh(ctx context.Context, entry interfaces.TreeEntry) (IndexEntry, bool, error) {
	logger := logging.WithDocContext(e.logger, entry.Path, "refresh")

	cached, err := e.store.Get(ctx, entry.Path)
	if err != nil {
		return IndexEntry{}, false, fmt.Errorf("docsync: read cached %s: %w", entry.Path, err)
	}

	storedHash := ""
	if cached != nil {
		storedHash = cached.ContentHash
	}

	hash := entry.ContentHash
	if hash != storedHash {
		content, err := e.source.FetchBlob(ctx, entry.Path)
		if err != nil {
			// Degraded freshness, not data loss: keep the previous cache
			// and index row when one exists, otherwise skip the entry
			// until the next successful pass.
			logger.Warn("sync.fetch.failed", "error", err)
			if cached == nil {
				return IndexEntry{}, false, nil
			}
			hash = storedHash
		} else {
			if err := e.store.Put(ctx, entry.Path, content, interfaces.WithContentHash(hash)); err != nil {
				return IndexEntry{}, false, fmt.Errorf("docsync: store %s: %w", entry.Path, err)
			}
			logger.Debug("sync.document.updated")
		}
	}

	current, err := e.store.Get(ctx, entry.Path)
	if err != nil {
		return IndexEntry{}, false, fmt.Errorf("docsync: reread %s: %w", entry.Path, err)
	}
	content := ""
	if current != nil {
		content = current.Value
	}

	tags := DeriveTags(content)
	if tags == nil {
		// Serialize as an empty list, never null.
		tags = []string{}
	}

	return IndexEntry{
		Path:        entry.Path,
		Title:       DeriveTitle(content, entry.Path),
		ContentHash: hash,
		Summary:     DeriveSummary(content),
		Tags:        tags,
	}, true, nil
}
