package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goliatone/go-docsync/pkg/interfaces"
)

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]interfaces.Entry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[string]interfaces.Entry{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (*interfaces.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (m *memoryStore) Put(_ context.Context, key, value string, opts ...interfaces.PutOption) error {
	options := interfaces.PutOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = interfaces.Entry{Key: key, Value: value, ContentHash: options.ContentHash}
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *memoryStore) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := newMemoryStore()
	client, err := New(Config{
		BaseURL: srv.URL,
		Token:   "test-token",
		Owner:   "acme",
		Repo:    "handbook",
		Branch:  "main",
		DocsDir: "docs",
		Store:   store,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, store
}

const treePayload = `{
	"tree": [
		{"path": "docs/guide.md", "type": "blob", "sha": "sha-guide"},
		{"path": "docs/nested", "type": "tree", "sha": "sha-dir"},
		{"path": "docs/nested/setup.md", "type": "blob", "sha": "sha-setup"},
		{"path": "docs/logo.png", "type": "blob", "sha": "sha-logo"},
		{"path": "README.md", "type": "blob", "sha": "sha-readme"}
	]
}`

func TestListTreeFiltersMarkdownUnderDocsDir(t *testing.T) {
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/handbook/git/trees/main" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("recursive"); got != "1" {
			t.Fatalf("expected recursive=1, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		w.Header().Set("ETag", `"etag-1"`)
		w.Write([]byte(treePayload))
	}))

	entries, err := client.ListTree(context.Background())
	if err != nil {
		t.Fatalf("list tree: %v", err)
	}

	want := []interfaces.TreeEntry{
		{Path: "docs/guide.md", ContentHash: "sha-guide"},
		{Path: "docs/nested/setup.md", ContentHash: "sha-setup"},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d: %#v", len(want), len(entries), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Fatalf("entry %d mismatch: got %#v want %#v", i, entries[i], want[i])
		}
	}

	marker, err := store.Get(context.Background(), interfaces.TreeETagKey)
	if err != nil {
		t.Fatalf("read etag: %v", err)
	}
	if marker == nil || marker.Value != `"etag-1"` {
		t.Fatalf("expected persisted etag, got %#v", marker)
	}
}

func TestListTreeNotModifiedShortCircuits(t *testing.T) {
	var conditional string
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conditional = r.Header.Get("If-None-Match")
		w.WriteHeader(http.StatusNotModified)
	}))

	if err := store.Put(context.Background(), interfaces.TreeETagKey, `"etag-0"`); err != nil {
		t.Fatalf("seed etag: %v", err)
	}

	entries, err := client.ListTree(context.Background())
	if err != nil {
		t.Fatalf("list tree: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty result, got %#v", entries)
	}
	if conditional != `"etag-0"` {
		t.Fatalf("expected conditional request with stored etag, got %q", conditional)
	}

	marker, err := store.Get(context.Background(), interfaces.TreeETagKey)
	if err != nil {
		t.Fatalf("read etag: %v", err)
	}
	if marker == nil || marker.Value != `"etag-0"` {
		t.Fatalf("expected etag untouched, got %#v", marker)
	}
}

func TestListTreeUpstreamErrorYieldsNoEntries(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))

	entries, err := client.ListTree(context.Background())
	if err != nil {
		t.Fatalf("list tree: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries on upstream failure, got %#v", entries)
	}
}

func TestFetchBlobDecodesWrappedBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("# Guide\n\nwelcome"))
	wrapped := encoded[:8] + "\n" + encoded[8:]

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/handbook/contents/docs/guide.md" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("ref"); got != "main" {
			t.Fatalf("expected ref=main, got %q", got)
		}
		body, err := json.Marshal(map[string]string{"content": wrapped, "encoding": "base64"})
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		w.Write(body)
	}))

	content, err := client.FetchBlob(context.Background(), "docs/guide.md")
	if err != nil {
		t.Fatalf("fetch blob: %v", err)
	}
	if content != "# Guide\n\nwelcome" {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestFetchBlobMissingContentIsEmpty(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"encoding": "none"}`))
	}))

	content, err := client.FetchBlob(context.Background(), "docs/binary.bin")
	if err != nil {
		t.Fatalf("fetch blob: %v", err)
	}
	if content != "" {
		t.Fatalf("expected empty content, got %q", content)
	}
}

func TestFetchBlobMalformedBase64Fails(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content": "%%%not-base64%%%"}`))
	}))

	if _, err := client.FetchBlob(context.Background(), "docs/guide.md"); err == nil {
		t.Fatalf("expected decode error")
	}
}
