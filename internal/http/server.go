package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goliatone/go-docsync/internal/auth"
	"github.com/goliatone/go-docsync/internal/commands/synccmd"
	"github.com/goliatone/go-docsync/internal/logging"
	"github.com/goliatone/go-docsync/internal/markdown"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

const serviceBanner = "go-docsync"

// Route names accepted in Config.Protected.
const (
	RouteSync = "sync"
	RouteDocs = "docs"
	RouteDoc  = "doc"
)

var (
	ErrAuthRequired  = errors.New("http: auth service is required")
	ErrStoreRequired = errors.New("http: document store is required")
	ErrSyncRequired  = errors.New("http: sync commander is required")
)

// SyncCommander dispatches one synchronization pass.
type SyncCommander interface {
	Execute(ctx context.Context, msg synccmd.SyncRepositoryCommand) error
}

// Config captures the server's collaborators and policy knobs.
type Config struct {
	Auth  *auth.Service
	Store interfaces.KeyValueStore
	Sync  SyncCommander
	// Renderer is optional; without it ?format=html is ignored.
	Renderer *markdown.Renderer
	// AllowedOrigin is the CORS fallback when a request carries no Origin
	// header. Empty falls back to "*".
	AllowedOrigin string
	// Protected lists route names (RouteSync, RouteDocs, RouteDoc) that
	// require a valid session. The default, an empty list, keeps the reads
	// and the sync trigger open.
	Protected []string
	Logger    interfaces.Logger
}

// Server wires the docsync HTTP surface onto a request mux.
type Server struct {
	auth          *auth.Service
	store         interfaces.KeyValueStore
	sync          SyncCommander
	renderer      *markdown.Renderer
	allowedOrigin string
	protected     map[string]bool
	logger        interfaces.Logger
	mux           *http.ServeMux
}

// New validates cfg and builds the server.
func New(cfg Config) (*Server, error) {
	if cfg.Auth == nil {
		return nil, ErrAuthRequired
	}
	if cfg.Store == nil {
		return nil, ErrStoreRequired
	}
	if cfg.Sync == nil {
		return nil, ErrSyncRequired
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}

	protected := map[string]bool{}
	for _, name := range cfg.Protected {
		protected[strings.ToLower(strings.TrimSpace(name))] = true
	}

	s := &Server{
		auth:          cfg.Auth,
		store:         cfg.Store,
		sync:          cfg.Sync,
		renderer:      cfg.Renderer,
		allowedOrigin: strings.TrimSpace(cfg.AllowedOrigin),
		protected:     protected,
		logger:        logger,
		mux:           http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.HandleFunc("GET /session", s.handleSession)
	s.mux.HandleFunc("GET /logout", s.handleLogout)
	s.mux.HandleFunc("POST /logout", s.handleLogout)
	s.mux.HandleFunc("GET /sync", s.gate(RouteSync, s.handleSync))
	s.mux.HandleFunc("GET /docs", s.gate(RouteDocs, s.handleDocs))
	s.mux.HandleFunc("GET /doc/{path...}", s.gate(RouteDoc, s.handleDoc))
	s.mux.HandleFunc("/", s.handleRoot)
}

// ServeHTTP applies CORS to every response and acknowledges preflights before
// delegating to the route table.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.applyCORS(w, r)
	if r.Method == http.MethodOptions {
		writeText(w, http.StatusOK, "")
		return
	}
	s.mux.ServeHTTP(w, r)
}

func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = s.allowedOrigin
	}
	if origin == "" {
		origin = "*"
	}
	header := w.Header()
	header.Set("Access-Control-Allow-Origin", origin)
	header.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	header.Set("Access-Control-Allow-Headers", "content-type")
	header.Set("Access-Control-Allow-Credentials", "true")
}

// gate enforces a session check when the route name is configured as
// protected. Missing and expired sessions are indistinguishable.
func (s *Server) gate(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.protected[route] {
			session, err := s.auth.CurrentSession(r.Context(), sessionIDFromRequest(r))
			if err != nil {
				s.logger.Error("http.session.lookup_failed", "error", err)
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error"})
				return
			}
			if session == nil {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, serviceBanner)
}
