package interfaces

import "context"

// TreeEntry identifies one upstream file at a point in time. Entries are
// produced per sync pass and never persisted beyond it.
type TreeEntry struct {
	Path        string
	ContentHash string
}

// TreeSource lists and fetches documents from an upstream repository.
type TreeSource interface {
	// ListTree returns the current document tree in upstream order. An empty
	// result signals that nothing changed since the previous call and the
	// caller should skip the rest of its cycle.
	ListTree(ctx context.Context) ([]TreeEntry, error)
	// FetchBlob returns the raw text of one file at the configured ref. A
	// missing or binary upstream file yields empty text, not an error.
	FetchBlob(ctx context.Context, path string) (string, error)
}
