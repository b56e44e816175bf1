package ingest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BenderFendor/feedingest/internal/feed"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Wire</title>
<link>https://wire.example</link>
<description>test</description>
<item><title>One</title><link>https://wire.example/1</link></item>
<item><title>Two</title><link>https://wire.example/2</link></item>
</channel>
</rss>`

func TestRunEndToEnd(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testRSS))
	}))
	defer good.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer bad.Close()

	engine := New(Options{MaxConcurrent: 4})
	result, err := engine.Run([]feed.Source{
		{Name: "wire", URLs: []string{good.URL, bad.URL}},
		{Name: "silent", URLs: []string{"   "}},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Metrics.ArticlesParsed != len(result.Articles) {
		t.Errorf("articles_parsed %d != len(articles) %d", result.Metrics.ArticlesParsed, len(result.Articles))
	}
	if len(result.Articles) != 2 {
		t.Errorf("expected 2 articles, got %d", len(result.Articles))
	}

	wire, ok := result.SourceStats["wire"]
	if !ok {
		t.Fatal("missing wire stat")
	}
	if wire.Status != feed.SourceWarning {
		t.Errorf("expected warning for wire, got %q", wire.Status)
	}
	if wire.ArticleCount != 2 || len(wire.SubFeeds) != 2 {
		t.Errorf("unexpected wire stat: %+v", wire)
	}

	// A source whose URLs are all blank never reaches fetching, but still
	// gets a stat record.
	silent, ok := result.SourceStats["silent"]
	if !ok {
		t.Fatal("missing silent stat")
	}
	if silent.Status != feed.SourceWarning || silent.ErrorMessage == nil || *silent.ErrorMessage != "No fetch attempts" {
		t.Errorf("unexpected silent stat: %+v", silent)
	}

	if result.Metrics.TotalDurationMS < 0 || result.Metrics.FetchDurationMS < 0 || result.Metrics.ParseDurationMS < 0 {
		t.Errorf("negative durations: %+v", result.Metrics)
	}
}

func TestRunNoSources(t *testing.T) {
	engine := New(Options{})
	result, err := engine.Run(nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Articles) != 0 {
		t.Errorf("expected no articles, got %d", len(result.Articles))
	}
	if len(result.SourceStats) != 0 {
		t.Errorf("expected no stats, got %d", len(result.SourceStats))
	}
	if result.Metrics.ArticlesParsed != 0 {
		t.Errorf("expected articles_parsed 0, got %d", result.Metrics.ArticlesParsed)
	}
}

func TestNewDefaultsConcurrency(t *testing.T) {
	engine := New(Options{MaxConcurrent: 0})
	if engine.maxConcurrent != DefaultMaxConcurrent {
		t.Errorf("expected default %d, got %d", DefaultMaxConcurrent, engine.maxConcurrent)
	}

	engine = New(Options{MaxConcurrent: 3})
	if engine.maxConcurrent != 3 {
		t.Errorf("expected 3, got %d", engine.maxConcurrent)
	}
}
