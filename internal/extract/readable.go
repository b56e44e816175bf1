package extract

import (
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// Readable runs readability boilerplate removal over the document and
// returns the main article text. pageURL resolves relative links and may be
// empty. Use this when the selector-group extraction in FromHTML comes back
// thin for a layout-heavy page.
func Readable(html, pageURL string) (string, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		parsedURL = &url.URL{}
	}

	article, err := readability.FromReader(strings.NewReader(html), parsedURL)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(article.TextContent), nil
}
