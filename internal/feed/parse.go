package feed

import (
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/BenderFendor/feedingest/internal/clean"
	"github.com/BenderFendor/feedingest/internal/fetch"
)

// noFetchMessage is the stat message injected for sources that never reached
// the fetch stage.
const noFetchMessage = "No fetch attempts"

type groupResult struct {
	articles []Article
	stat     SourceStat
}

// ParseOutcomes groups fetch outcomes by source name, decodes each group in
// parallel, and returns the combined articles plus one SourceStat per
// requested source. Sources absent from the outcomes (no URLs survived
// filtering) still receive a Warning stat so callers can always key into the
// map by request name. Article order is unspecified.
func ParseOutcomes(outcomes []fetch.Outcome, requested []Source) ([]Article, map[string]SourceStat) {
	grouped := make(map[string][]fetch.Outcome)
	for _, o := range outcomes {
		grouped[o.Source] = append(grouped[o.Source], o)
	}

	results := make(chan groupResult)
	var wg sync.WaitGroup
	for name, group := range grouped {
		wg.Add(1)
		go func(name string, group []fetch.Outcome) {
			defer wg.Done()
			results <- parseGroup(name, group)
		}(name, group)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	articles := make([]Article, 0)
	stats := make(map[string]SourceStat, len(requested))
	for r := range results {
		articles = append(articles, r.articles...)
		stats[r.stat.Name] = r.stat
	}

	for _, src := range requested {
		if _, ok := stats[src.Name]; ok {
			continue
		}
		msg := noFetchMessage
		stats[src.Name] = SourceStat{
			Name:         src.Name,
			Status:       SourceWarning,
			ErrorMessage: &msg,
		}
	}

	return articles, stats
}

// parseGroup decodes every outcome of one source. A fetch failure or a feed
// that does not decode marks its sub-feed Error and degrades the source to
// Warning; the rest of the group is unaffected.
func parseGroup(name string, outcomes []fetch.Outcome) groupResult {
	parser := gofeed.NewParser()

	var articles []Article
	subFeeds := make([]SubFeedStat, 0, len(outcomes))
	status := SourceSuccess
	var errs []string

	for _, o := range outcomes {
		if o.Failed() {
			status = SourceWarning
			errs = append(errs, o.Err)
			msg := o.Err
			subFeeds = append(subFeeds, SubFeedStat{
				URL:          o.URL,
				Status:       SubFeedError,
				ErrorMessage: &msg,
			})
			continue
		}

		doc, err := parser.ParseString(o.Body)
		if err != nil {
			status = SourceWarning
			msg := "Parse error: " + err.Error()
			errs = append(errs, msg)
			subFeeds = append(subFeeds, SubFeedStat{
				URL:          o.URL,
				Status:       SubFeedError,
				ErrorMessage: &msg,
			})
			continue
		}

		entries := normalizeEntries(doc.Items, name)
		articles = append(articles, entries...)
		subFeeds = append(subFeeds, SubFeedStat{
			URL:          o.URL,
			Status:       SubFeedSuccess,
			ArticleCount: len(entries),
		})
	}

	stat := SourceStat{
		Name:         name,
		Status:       status,
		ArticleCount: len(articles),
		SubFeeds:     subFeeds,
	}
	if len(errs) > 0 {
		joined := strings.Join(errs, "; ")
		stat.ErrorMessage = &joined
	}

	return groupResult{articles: articles, stat: stat}
}

// normalizeEntries maps feed items to articles. Each item is self-contained,
// so items are normalized in parallel into index-disjoint slots; dropped
// items leave nil slots that are compacted afterwards.
func normalizeEntries(items []*gofeed.Item, source string) []Article {
	slots := make([]*Article, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item *gofeed.Item) {
			defer wg.Done()
			slots[i] = normalizeEntry(item, source)
		}(i, item)
	}
	wg.Wait()

	articles := make([]Article, 0, len(items))
	for _, a := range slots {
		if a != nil {
			articles = append(articles, *a)
		}
	}
	return articles
}

// normalizeEntry builds one Article, or returns nil for items without a
// usable title or link. Such items are dropped without an error record.
func normalizeEntry(item *gofeed.Item, source string) *Article {
	title := clean.HTML(item.Title)
	if title == "" {
		return nil
	}

	link := entryLink(item)
	if link == "" {
		return nil
	}

	return &Article{
		Title:       title,
		Link:        link,
		Description: clean.HTML(entryDescription(item)),
		Published:   entryPublished(item),
		Source:      source,
		Image:       entryImage(item),
		Category:    entryCategory(item),
	}
}

func entryLink(item *gofeed.Item) string {
	if item.Link != "" {
		return item.Link
	}
	if len(item.Links) > 0 {
		return item.Links[0]
	}
	return ""
}

func entryDescription(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Content
}

func entryPublished(item *gofeed.Item) string {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.Format(time.RFC3339)
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.Format(time.RFC3339)
	}
	return time.Now().Format(time.RFC3339)
}

// entryImage prefers the first media:content URL, then the first enclosure
// whose declared media type looks like an image.
func entryImage(item *gofeed.Item) *string {
	if media, ok := item.Extensions["media"]; ok {
		if contents, ok := media["content"]; ok && len(contents) > 0 {
			if u := contents[0].Attrs["url"]; u != "" {
				return &u
			}
		}
	}

	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" && isImageType(enc.Type) {
			u := enc.URL
			return &u
		}
	}
	return nil
}

func isImageType(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/") || mediaType == "application/octet-stream"
}

func entryCategory(item *gofeed.Item) *string {
	for _, c := range item.Categories {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			return &trimmed
		}
	}
	return nil
}
