package http

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-docsync/internal/commands/synccmd"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

type documentResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	HTML    string `json:"html,omitempty"`
}

// handleSync runs one pass synchronously and acknowledges in plain text so
// external ping schedulers can treat any 200 as success.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	cmd := synccmd.SyncRepositoryCommand{Trigger: synccmd.TriggerManual}
	if err := s.sync.Execute(r.Context(), cmd); err != nil {
		s.logger.Error("http.sync.failed", "error", err)
		writeText(w, http.StatusInternalServerError, "sync failed")
		return
	}
	writeText(w, http.StatusOK, "ok")
}

// handleDocs serves the aggregate index exactly as the sync engine stored it.
func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	entry, err := s.store.Get(r.Context(), interfaces.IndexKey)
	if err != nil {
		s.logger.Error("http.docs.read_failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error"})
		return
	}
	if entry == nil {
		writeRawJSON(w, http.StatusOK, []byte("[]"))
		return
	}
	writeRawJSON(w, http.StatusOK, []byte(entry.Value))
}

func (s *Server) handleDoc(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	if strings.TrimSpace(path) == "" {
		writeText(w, http.StatusNotFound, "not found")
		return
	}

	entry, err := s.store.Get(r.Context(), path)
	if err != nil {
		s.logger.Error("http.doc.read_failed", "doc_path", path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error"})
		return
	}
	if entry == nil {
		writeText(w, http.StatusNotFound, "not found")
		return
	}

	response := documentResponse{Path: path, Content: entry.Value}
	if s.renderer != nil && r.URL.Query().Get("format") == "html" {
		html, err := s.renderer.Render([]byte(entry.Value))
		if err != nil {
			s.logger.Error("http.doc.render_failed", "doc_path", path, "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error"})
			return
		}
		response.HTML = string(html)
	}
	writeJSON(w, http.StatusOK, response)
}
