package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/goliatone/go-docsync/internal/logging"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

// ErrTargetRequired indicates a proxy built without an upstream base URL.
var ErrTargetRequired = errors.New("http: proxy target is required")

// ProxyConfig captures the thin edge-forwarder options.
type ProxyConfig struct {
	// Prefix is stripped from the request path before forwarding.
	Prefix string
	// Target is the service base URL requests forward to.
	Target     string
	HTTPClient *http.Client
	Logger     interfaces.Logger
}

// Proxy forwards a path prefix to the service base URL, passing query string
// and body through unchanged for all methods except bodiless GET/HEAD.
type Proxy struct {
	prefix string
	target string
	http   *http.Client
	logger interfaces.Logger
}

// NewProxy validates cfg and builds the forwarder.
func NewProxy(cfg ProxyConfig) (*Proxy, error) {
	target := strings.TrimSuffix(strings.TrimSpace(cfg.Target), "/")
	if target == "" {
		return nil, ErrTargetRequired
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Proxy{
		prefix: strings.TrimSpace(cfg.Prefix),
		target: target,
		http:   httpClient,
		logger: logger,
	}, nil
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sub := strings.TrimPrefix(r.URL.Path, p.prefix)
	if sub == "" {
		sub = "/"
	}
	endpoint := p.target + sub
	if r.URL.RawQuery != "" {
		endpoint += "?" + r.URL.RawQuery
	}

	var body io.Reader
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		body = r.Body
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, endpoint, body)
	if err != nil {
		p.logger.Error("proxy.request.build_failed", "error", err)
		writeText(w, http.StatusBadGateway, "bad gateway")
		return
	}
	req.Header = r.Header.Clone()

	res, err := p.http.Do(req)
	if err != nil {
		p.logger.Error("proxy.request.failed", "error", err)
		writeText(w, http.StatusBadGateway, "bad gateway")
		return
	}
	defer res.Body.Close()

	header := w.Header()
	for key, values := range res.Header {
		for _, value := range values {
			header.Add(key, value)
		}
	}
	w.WriteHeader(res.StatusCode)
	_, _ = io.Copy(w, res.Body)
}
