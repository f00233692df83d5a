package personalize

import (
	"html"
	"regexp"
	"strings"
)

// htmlToText derives the plain-text payload from rendered HTML. The
// text alternative keeps the original hyperlink next to its anchor
// text and is exempt from click rewriting.

var (
	anchorRe = regexp.MustCompile(`(?is)<a\s[^>]*href="([^"]+)"[^>]*>(.*?)</a>`)
	breakRe  = regexp.MustCompile(`(?i)<(?:br\s*/?|/p|/div|/h[1-6]|/li|/tr)>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	blankRe  = regexp.MustCompile(`\n{3,}`)
	spaceRe  = regexp.MustCompile(`[ \t]+`)
)

func htmlToText(in string) string {
	out := anchorRe.ReplaceAllString(in, "$2 ($1)")
	out = breakRe.ReplaceAllString(out, "\n")
	out = tagRe.ReplaceAllString(out, "")
	out = html.UnescapeString(out)
	out = spaceRe.ReplaceAllString(out, " ")

	lines := strings.Split(out, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	out = strings.Join(lines, "\n")
	out = blankRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
