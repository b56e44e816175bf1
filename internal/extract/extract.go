// Package extract pulls article metadata, body text, and images out of a
// single HTML document. Both extractors are pure functions of the input:
// no network access, repeatable.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/BenderFendor/feedingest/internal/clean"
)

// Article holds the fields extracted from one HTML page.
type Article struct {
	Text            string   `json:"text"`
	Title           *string  `json:"title"`
	Authors         []string `json:"authors"`
	PublishDate     *string  `json:"publish_date"`
	TopImage        *string  `json:"top_image"`
	Images          []string `json:"images"`
	MetaDescription *string  `json:"meta_description"`
}

// ImageCandidate is one discovered image URL with its source tag and
// reliability priority (lower is better).
type ImageCandidate struct {
	URL      string `json:"url"`
	Source   string `json:"source"`
	Priority int    `json:"priority"`
}

// OGImage is the ranked result of social-image discovery. ImageURL is the
// best candidate or nil when the page declares none.
type OGImage struct {
	ImageURL   *string          `json:"image_url"`
	Candidates []ImageCandidate `json:"candidates"`
}

// Ordered fallback chains. Each scalar field takes the first non-empty
// match; body text takes the first selector group yielding any paragraph.
var (
	titleSelectors = []string{
		"meta[property='og:title']",
		"meta[name='twitter:title']",
	}
	descriptionSelectors = []string{
		"meta[name='description']",
		"meta[property='og:description']",
		"meta[name='twitter:description']",
	}
	dateSelectors = []string{
		"meta[property='article:published_time']",
		"meta[name='pubdate']",
		"meta[name='date']",
		"meta[itemprop='datePublished']",
		"meta[name='DC.date.issued']",
	}
	authorSelectors = []string{
		"meta[name='author']",
		"meta[property='article:author']",
		"meta[name='parsely-author']",
	}
	topImageSelectors = []string{
		"meta[property='og:image']",
		"meta[name='twitter:image']",
	}
	bodySelectorGroups = []string{"article p", "main p", "body p"}
)

// FromHTML extracts title, authors, date, description, body text, and images
// from one HTML document.
func FromHTML(html string) (*Article, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	return &Article{
		Text:            extractText(doc),
		Title:           extractTitle(doc),
		Authors:         collectMetaContents(doc, authorSelectors),
		PublishDate:     firstMetaContent(doc, dateSelectors),
		TopImage:        firstMetaContent(doc, topImageSelectors),
		Images:          extractImages(doc),
		MetaDescription: firstMetaContent(doc, descriptionSelectors),
	}, nil
}

// OGImageFromHTML ranks every declared social image: og:image at priority 1,
// twitter:image at 2, image_src links at 3, each in document order within
// its tier. ImageURL is the first candidate overall.
func OGImageFromHTML(html string) (*OGImage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var candidates []ImageCandidate
	for _, u := range metaContents(doc, "meta[property='og:image']") {
		candidates = append(candidates, ImageCandidate{URL: u, Source: "og:image", Priority: 1})
	}
	for _, u := range metaContents(doc, "meta[name='twitter:image']") {
		candidates = append(candidates, ImageCandidate{URL: u, Source: "twitter:image", Priority: 2})
	}
	doc.Find("link[rel='image_src']").Each(func(_ int, s *goquery.Selection) {
		if href := strings.TrimSpace(s.AttrOr("href", "")); href != "" {
			candidates = append(candidates, ImageCandidate{URL: href, Source: "link:image_src", Priority: 3})
		}
	})

	result := &OGImage{Candidates: candidates}
	if len(candidates) > 0 {
		result.ImageURL = &candidates[0].URL
	}
	return result, nil
}

// metaContents returns the non-blank content attributes of every element
// matching selector, in document order.
func metaContents(doc *goquery.Document, selector string) []string {
	var values []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if v := strings.TrimSpace(s.AttrOr("content", "")); v != "" {
			values = append(values, v)
		}
	})
	return values
}

func firstMetaContent(doc *goquery.Document, selectors []string) *string {
	for _, sel := range selectors {
		for _, v := range metaContents(doc, sel) {
			return &v
		}
	}
	return nil
}

// collectMetaContents gathers unique values across the selector chain,
// first-seen order.
func collectMetaContents(doc *goquery.Document, selectors []string) []string {
	seen := make(map[string]struct{})
	var values []string
	for _, sel := range selectors {
		for _, v := range metaContents(doc, sel) {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			values = append(values, v)
		}
	}
	return values
}

func extractTitle(doc *goquery.Document) *string {
	if meta := firstMetaContent(doc, titleSelectors); meta != nil {
		return meta
	}
	if title := clean.HTML(doc.Find("title").First().Text()); title != "" {
		return &title
	}
	return nil
}

func extractImages(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var images []string
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" {
			return
		}
		if _, dup := seen[src]; dup {
			return
		}
		seen[src] = struct{}{}
		images = append(images, src)
	})
	return images
}

// extractText joins the cleaned paragraphs of the first selector group that
// yields any text; later groups are not consulted once one succeeds.
func extractText(doc *goquery.Document) string {
	for _, sel := range bodySelectorGroups {
		var chunks []string
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if text := clean.HTML(s.Text()); text != "" {
				chunks = append(chunks, text)
			}
		})
		if len(chunks) > 0 {
			return strings.Join(chunks, "\n\n")
		}
	}
	return ""
}
