package scraper

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const maxTitleLength = 120

var titleCaser = cases.Title(language.English, cases.NoLower)

// normalizeTitle collapses whitespace, trims captions down to a usable
// title, and title-cases all-lowercase scraper output.
func normalizeTitle(raw string) string {
	title := strings.Join(strings.Fields(raw), " ")
	if title == "" {
		return ""
	}
	// Captions often run long; cut at the first sentence break when one
	// exists inside the budget.
	if idx := strings.IndexAny(title, ".!?\n"); idx > 0 && idx < maxTitleLength {
		title = title[:idx]
	}
	if len(title) > maxTitleLength {
		cut := strings.LastIndex(title[:maxTitleLength], " ")
		if cut <= 0 {
			cut = maxTitleLength
		}
		title = title[:cut]
	}
	if !strings.ContainsFunc(title, unicode.IsUpper) {
		title = titleCaser.String(title)
	}
	return strings.TrimSpace(title)
}
