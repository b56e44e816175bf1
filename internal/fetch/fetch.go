// Package fetch downloads feed documents over HTTP with a bounded number of
// requests in flight.
package fetch

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	// RequestTimeout bounds a single GET including body read.
	RequestTimeout = 25 * time.Second

	userAgent = "feedingest/1.0 (+https://github.com/BenderFendor/feedingest)"
)

// Request names one source and the URLs to fetch for it. Every URL becomes
// an independent fetch task.
type Request struct {
	Name string
	URLs []string
}

// Outcome is the result of fetching one (source, URL) pair. Err is empty on
// success; on failure it carries the transport, HTTP-status, or body-read
// message and Body is empty.
type Outcome struct {
	Source string
	URL    string
	Body   string
	Err    string
}

// Failed reports whether the fetch produced no usable body.
func (o Outcome) Failed() bool { return o.Err != "" }

// Fetcher issues feed requests through one shared HTTP client. The default
// transport transparently negotiates gzip, so bodies arrive decoded.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher with the fixed request timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: RequestTimeout},
	}
}

// FetchAll expands every URL of every request into one task and runs the
// tasks concurrently, with at most maxConcurrent requests active at once
// (clamped to a minimum of 1). Outcomes are collected in completion order,
// one per (source, URL) pair. A task failure never cancels sibling tasks;
// the call returns after every task has finished.
func (f *Fetcher) FetchAll(requests []Request, maxConcurrent int) []Outcome {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	sem := make(chan struct{}, maxConcurrent)
	outcomes := make(chan Outcome)
	var wg sync.WaitGroup

	for _, req := range requests {
		for _, u := range req.URLs {
			wg.Add(1)
			go func(source, url string) {
				defer wg.Done()
				sem <- struct{}{}
				out := f.fetchOne(source, url)
				<-sem
				outcomes <- out
			}(req.Name, u)
		}
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var results []Outcome
	for out := range outcomes {
		results = append(results, out)
	}
	return results
}

func (f *Fetcher) fetchOne(source, url string) Outcome {
	out := Outcome{Source: source, URL: url}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		out.Err = err.Error()
		return out
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		out.Err = err.Error()
		return out
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		out.Err = fmt.Sprintf("HTTP status %d %s for %s", resp.StatusCode, http.StatusText(resp.StatusCode), url)
		return out
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		out.Err = "Failed to read body: " + err.Error()
		return out
	}

	out.Body = string(body)
	return out
}
