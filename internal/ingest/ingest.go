// Package ingest sequences the fetch and parse phases of one ingestion run.
package ingest

import (
	"log"
	"time"

	"github.com/BenderFendor/feedingest/internal/feed"
	"github.com/BenderFendor/feedingest/internal/fetch"
)

// DefaultMaxConcurrent is the fetch concurrency limit used when the caller
// does not supply one.
const DefaultMaxConcurrent = 32

// Options configures an Engine.
type Options struct {
	// MaxConcurrent caps simultaneous HTTP requests across all sources.
	// Values below 1 fall back to DefaultMaxConcurrent.
	MaxConcurrent int
}

// Engine runs the two-phase pipeline: concurrent fetch to completion, then
// parallel parse and aggregation. It holds no state between runs beyond the
// shared HTTP client.
type Engine struct {
	fetcher       *fetch.Fetcher
	maxConcurrent int
}

// New creates an ingestion engine.
func New(opts Options) *Engine {
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Engine{
		fetcher:       fetch.NewFetcher(),
		maxConcurrent: maxConcurrent,
	}
}

// Run ingests every source and returns the combined articles, per-source
// stats, and phase timings. Per-URL fetch and decode failures are reported
// inside the stats, never as an error; the error return is reserved for
// failure to start the run at all.
func (e *Engine) Run(sources []feed.Source) (*feed.RunResult, error) {
	start := time.Now()

	active := feed.NormalizeSources(sources)
	requests := make([]fetch.Request, len(active))
	urlCount := 0
	for i, src := range active {
		requests[i] = fetch.Request{Name: src.Name, URLs: src.URLs}
		urlCount += len(src.URLs)
	}

	log.Printf("Fetching %d sub-feeds from %d sources (max %d in flight)", urlCount, len(active), e.maxConcurrent)
	fetchStart := time.Now()
	outcomes := e.fetcher.FetchAll(requests, e.maxConcurrent)
	fetchDuration := time.Since(fetchStart)

	parseStart := time.Now()
	articles, stats := feed.ParseOutcomes(outcomes, sources)
	parseDuration := time.Since(parseStart)

	result := &feed.RunResult{
		Articles:    articles,
		SourceStats: stats,
		Metrics: feed.Metrics{
			TotalDurationMS: time.Since(start).Milliseconds(),
			FetchDurationMS: fetchDuration.Milliseconds(),
			ParseDurationMS: parseDuration.Milliseconds(),
			ArticlesParsed:  len(articles),
		},
	}

	log.Printf("Ingestion complete: %d articles from %d sources in %dms", len(articles), len(stats), result.Metrics.TotalDurationMS)
	return result, nil
}
