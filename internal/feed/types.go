// Package feed defines the ingestion data model and turns fetched feed
// bodies into normalized articles with per-source health stats.
package feed

import "strings"

// SourceStatus is the health of a whole source. There is no source-level
// hard-error state: a source with failing sub-feeds degrades to Warning and
// still contributes whatever parsed.
type SourceStatus string

const (
	SourceSuccess SourceStatus = "success"
	SourceWarning SourceStatus = "warning"
)

// SubFeedStatus is the health of a single fetched URL of a source.
type SubFeedStatus string

const (
	SubFeedSuccess SubFeedStatus = "success"
	SubFeedError   SubFeedStatus = "error"
)

// Source is one logical feed provider: a name backed by one or more URLs.
type Source struct {
	Name string   `json:"name" yaml:"name"`
	URLs []string `json:"urls" yaml:"urls"`
}

// NormalizeSources drops blank URLs and then drops sources left with no
// URLs. Dropped sources are excluded from fetching but still receive a stat
// record during aggregation.
func NormalizeSources(sources []Source) []Source {
	out := make([]Source, 0, len(sources))
	for _, s := range sources {
		urls := make([]string, 0, len(s.URLs))
		for _, u := range s.URLs {
			if strings.TrimSpace(u) != "" {
				urls = append(urls, u)
			}
		}
		if len(urls) == 0 {
			continue
		}
		out = append(out, Source{Name: s.Name, URLs: urls})
	}
	return out
}

// Article is the normalized output record derived from one feed entry.
// Never mutated after creation; carries no identity key, so two sub-feeds of
// the same source may yield duplicates.
type Article struct {
	Title       string  `json:"title"`
	Link        string  `json:"link"`
	Description string  `json:"description"`
	Published   string  `json:"published"`
	Source      string  `json:"source"`
	Image       *string `json:"image"`
	Category    *string `json:"category"`
}

// SubFeedStat reports the outcome of one fetched (source, URL) pair.
type SubFeedStat struct {
	URL          string        `json:"url"`
	Status       SubFeedStatus `json:"status"`
	ArticleCount int           `json:"article_count"`
	ErrorMessage *string       `json:"error_message"`
}

// SourceStat reports the aggregate outcome for one requested source name.
// SubFeeds is nil when no fetch was attempted for the source.
type SourceStat struct {
	Name         string        `json:"name"`
	Status       SourceStatus  `json:"status"`
	ArticleCount int           `json:"article_count"`
	ErrorMessage *string       `json:"error_message"`
	SubFeeds     []SubFeedStat `json:"sub_feeds,omitempty"`
}

// Metrics holds per-run timing and volume counters.
type Metrics struct {
	TotalDurationMS int64 `json:"total_duration_ms"`
	FetchDurationMS int64 `json:"fetch_duration_ms"`
	ParseDurationMS int64 `json:"parse_duration_ms"`
	ArticlesParsed  int   `json:"articles_parsed"`
}

// RunResult is the full output of one ingestion run. The caller owns it
// outright; the pipeline keeps no state across runs.
type RunResult struct {
	Articles    []Article             `json:"articles"`
	SourceStats map[string]SourceStat `json:"source_stats"`
	Metrics     Metrics               `json:"metrics"`
}
