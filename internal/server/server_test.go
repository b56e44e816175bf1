package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BenderFendor/feedingest/internal/config"
	"github.com/BenderFendor/feedingest/internal/extract"
	"github.com/BenderFendor/feedingest/internal/feed"
)

func testServer() *Server {
	return New(&config.Config{
		Fetch:  config.Fetch{MaxConcurrent: 4},
		Server: config.Server{Port: 0},
	})
}

func TestHealthRoute(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Error("expected 'ok' in response body")
	}
}

func TestIngestRoute(t *testing.T) {
	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>t</title><link>l</link><description>d</description><item><title>A</title><link>https://x/1</link></item></channel></rss>`))
	}))
	defer feedSrv.Close()

	srv := testServer()
	body := fmt.Sprintf(`{"sources":[{"name":"wire","urls":[%q]}],"max_concurrent":2}`, feedSrv.URL)

	req := httptest.NewRequest("POST", "/ingest", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result feed.RunResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(result.Articles) != 1 {
		t.Errorf("expected 1 article, got %d", len(result.Articles))
	}
	if _, ok := result.SourceStats["wire"]; !ok {
		t.Error("expected wire in source_stats")
	}
	if result.Metrics.ArticlesParsed != len(result.Articles) {
		t.Error("metrics.articles_parsed does not match articles length")
	}
}

func TestIngestRouteRejectsGet(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest("GET", "/ingest", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestExtractArticleRoute(t *testing.T) {
	srv := testServer()
	body := `{"html":"<html><head><meta property='og:title' content='T'></head><body><article><p>Body text.</p></article></body></html>"}`

	req := httptest.NewRequest("POST", "/extract/article", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result extract.Article
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if result.Title == nil || *result.Title != "T" {
		t.Errorf("expected title T, got %v", result.Title)
	}
	if result.Text != "Body text." {
		t.Errorf("expected body text, got %q", result.Text)
	}
}

func TestExtractArticleRequiresHTML(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest("POST", "/extract/article", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestExtractOGImageRoute(t *testing.T) {
	srv := testServer()
	body := `{"html":"<html><head><meta property='og:image' content='A'><meta name='twitter:image' content='B'></head></html>"}`

	req := httptest.NewRequest("POST", "/extract/og-image", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result extract.OGImage
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if result.ImageURL == nil || *result.ImageURL != "A" {
		t.Errorf("expected image_url A, got %v", result.ImageURL)
	}
	if len(result.Candidates) != 2 {
		t.Errorf("expected 2 candidates, got %d", len(result.Candidates))
	}
}
