// Package github adapts the GitHub REST API to the docsync TreeSource
// contract: recursive git-tree listings with conditional requests, and
// per-file content fetches decoded from base64.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-docsync/internal/logging"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

const defaultBaseURL = "https://api.github.com"

var (
	ErrOwnerRequired = errors.New("github: repository owner is required")
	ErrRepoRequired  = errors.New("github: repository name is required")
	ErrStoreRequired = errors.New("github: etag store is required")
)

// Config captures the construction options for the adapter.
type Config struct {
	// BaseURL overrides the API host, mainly for tests.
	BaseURL string
	Token   string
	Owner   string
	Repo    string
	// Branch defaults to "main".
	Branch string
	// DocsDir restricts the tree to Markdown files under this directory.
	// Defaults to "docs".
	DocsDir string
	// Store persists the tree ETag marker between passes.
	Store      interfaces.KeyValueStore
	HTTPClient *http.Client
	Logger     interfaces.Logger
}

// Client implements interfaces.TreeSource against the GitHub REST API.
type Client struct {
	baseURL string
	token   string
	owner   string
	repo    string
	branch  string
	docsDir string
	store   interfaces.KeyValueStore
	http    *http.Client
	logger  interfaces.Logger
}

var _ interfaces.TreeSource = (*Client)(nil)

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Owner) == "" {
		return nil, ErrOwnerRequired
	}
	if strings.TrimSpace(cfg.Repo) == "" {
		return nil, ErrRepoRequired
	}
	if cfg.Store == nil {
		return nil, ErrStoreRequired
	}

	baseURL := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	branch := strings.TrimSpace(cfg.Branch)
	if branch == "" {
		branch = "main"
	}
	docsDir := strings.Trim(strings.TrimSpace(cfg.DocsDir), "/")
	if docsDir == "" {
		docsDir = "docs"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}

	return &Client{
		baseURL: baseURL,
		token:   cfg.Token,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		branch:  branch,
		docsDir: docsDir,
		store:   cfg.Store,
		http:    httpClient,
		logger:  logger,
	}, nil
}

// treeResponse models the git-trees listing payload. Optional fields the
// adapter does not consume are omitted on purpose.
type treeResponse struct {
	Tree      []treeNode `json:"tree"`
	Truncated bool       `json:"truncated"`
}

type treeNode struct {
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
}

// contentResponse models the repository contents payload for one file. An
// absent Content field signals a missing or binary file.
type contentResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// ListTree fetches the recursive tree at the configured branch, carrying the
// previously stored ETag as a conditional request. A "not modified" reply
// yields an empty result and leaves every per-file cache untouched. Any other
// successful reply persists the fresh ETag before returning the filtered
// Markdown entries in upstream order.
func (c *Client) ListTree(ctx context.Context) ([]interfaces.TreeEntry, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1", c.baseURL, c.owner, c.repo, c.branch)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("github: build tree request: %w", err)
	}
	c.decorate(req)

	prev, err := c.store.Get(ctx, interfaces.TreeETagKey)
	if err != nil {
		return nil, fmt.Errorf("github: read etag marker: %w", err)
	}
	if prev != nil && prev.Value != "" {
		req.Header.Set("If-None-Match", prev.Value)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: list tree: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotModified {
		return nil, nil
	}
	if res.StatusCode != http.StatusOK {
		// Upstream unavailable is not a user-facing failure; the next
		// trigger retries naturally.
		c.logger.Warn("github.tree.unexpected_status", "status", res.StatusCode)
		return nil, nil
	}

	var payload treeResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("github: decode tree response: %w", err)
	}

	if etag := res.Header.Get("ETag"); etag != "" {
		if err := c.store.Put(ctx, interfaces.TreeETagKey, etag); err != nil {
			return nil, fmt.Errorf("github: persist etag marker: %w", err)
		}
	}
	if payload.Truncated {
		c.logger.Warn("github.tree.truncated", "branch", c.branch)
	}

	prefix := c.docsDir + "/"
	entries := make([]interfaces.TreeEntry, 0, len(payload.Tree))
	for _, node := range payload.Tree {
		if !strings.HasPrefix(node.Path, prefix) {
			continue
		}
		if node.Type != "blob" {
			continue
		}
		if !strings.HasSuffix(node.Path, ".md") {
			continue
		}
		entries = append(entries, interfaces.TreeEntry{
			Path:        node.Path,
			ContentHash: node.SHA,
		})
	}
	return entries, nil
}

// FetchBlob retrieves one file's decoded text at the configured branch ref.
// An upstream payload without content yields empty text, not an error.
func (c *Client) FetchBlob(ctx context.Context, path string) (string, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		c.baseURL, c.owner, c.repo, escapePath(path), url.QueryEscape(c.branch))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("github: build content request: %w", err)
	}
	c.decorate(req)

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("github: fetch %s: %w", path, err)
	}
	defer res.Body.Close()

	var payload contentResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("github: decode content for %s: %w", path, err)
	}
	if payload.Content == "" {
		return "", nil
	}

	decoded, err := decodeBase64(payload.Content)
	if err != nil {
		return "", fmt.Errorf("github: decode base64 for %s: %w", path, err)
	}
	return decoded, nil
}

func (c *Client) decorate(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
}

// decodeBase64 tolerates the newline-wrapped payloads the contents API emits.
func decodeBase64(s string) (string, error) {
	compact := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)

	raw, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// escapePath keeps path separators intact while escaping each segment.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
