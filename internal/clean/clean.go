// Package clean normalizes HTML-laden feed text into plain text.
package clean

import (
	"html"
	"regexp"
	"strings"
)

// Compiled once; cleaning runs once per entry field and per extracted paragraph.
var (
	tagRE        = regexp.MustCompile(`<[^>]+>`)
	oddSpaceRE   = regexp.MustCompile("[   ]")
	whitespaceRE = regexp.MustCompile(`\s+`)
)

// HTML decodes character entities, strips markup tags, and normalizes
// whitespace. The tag strip is token-level, not a full parser, so an
// unescaped "<" in plain text is treated as markup. Idempotent.
func HTML(text string) string {
	if text == "" {
		return ""
	}

	decoded := html.UnescapeString(text)
	decoded = tagRE.ReplaceAllString(decoded, " ")
	decoded = oddSpaceRE.ReplaceAllString(decoded, " ")
	decoded = whitespaceRE.ReplaceAllString(decoded, " ")
	return strings.TrimSpace(decoded)
}
