// Package server exposes the ingestion engine and the HTML extractors as a
// small JSON API. It owns transport and encoding only; all semantics live in
// the ingest, feed, and extract packages.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/BenderFendor/feedingest/internal/config"
	"github.com/BenderFendor/feedingest/internal/extract"
	"github.com/BenderFendor/feedingest/internal/feed"
	"github.com/BenderFendor/feedingest/internal/ingest"
)

// Server is the HTTP front end for ingestion and extraction.
type Server struct {
	cfg *config.Config
	mux *http.ServeMux
}

// New creates a new Server.
func New(cfg *config.Config) *Server {
	s := &Server{cfg: cfg, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Serve starts a blocking HTTP server on the given port.
func Serve(cfg *config.Config, port int) error {
	s := New(cfg)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), s.Handler())
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/ingest", s.handleIngest)
	s.mux.HandleFunc("/extract/article", s.handleExtractArticle)
	s.mux.HandleFunc("/extract/og-image", s.handleExtractOGImage)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ingestRequest is the POST /ingest body. Sources defaults to the configured
// catalog, MaxConcurrent to the configured limit.
type ingestRequest struct {
	Sources       []feed.Source `json:"sources"`
	MaxConcurrent int           `json:"max_concurrent"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	sources := req.Sources
	if sources == nil {
		sources = s.cfg.Sources
	}
	maxConcurrent := req.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = s.cfg.Fetch.MaxConcurrent
	}

	engine := ingest.New(ingest.Options{MaxConcurrent: maxConcurrent})
	result, err := engine.Run(sources)
	if err != nil {
		log.Printf("Ingestion run failed to start: %v", err)
		http.Error(w, "ingestion failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// htmlRequest is the POST body of both extraction endpoints. URL is optional
// and only used to resolve relative links for readability mode.
type htmlRequest struct {
	HTML        string `json:"html"`
	URL         string `json:"url"`
	Readability bool   `json:"readability"`
}

func (s *Server) handleExtractArticle(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeHTMLRequest(w, r)
	if !ok {
		return
	}

	result, err := extract.FromHTML(req.HTML)
	if err != nil {
		http.Error(w, "extraction failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if req.Readability && result.Text == "" {
		if text, err := extract.Readable(req.HTML, req.URL); err == nil {
			result.Text = text
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExtractOGImage(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeHTMLRequest(w, r)
	if !ok {
		return
	}

	result, err := extract.OGImageFromHTML(req.HTML)
	if err != nil {
		http.Error(w, "extraction failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func decodeHTMLRequest(w http.ResponseWriter, r *http.Request) (htmlRequest, bool) {
	var req htmlRequest
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return req, false
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return req, false
	}
	if req.HTML == "" {
		http.Error(w, "html field is required", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
