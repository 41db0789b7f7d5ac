package notetype

import (
	"strings"

	"golang.org/x/net/html"
)

const maxPreviewRunes = 120

// PreviewText strips markup from an HTML fragment and collapses
// whitespace. The result is cut to a fixed length for card listings.
func PreviewText(fragment string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return truncate(strings.Join(strings.Fields(b.String()), " "))
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			// Tags separate words.
			b.WriteByte(' ')
		}
	}
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxPreviewRunes {
		return s
	}
	return strings.TrimSpace(string(r[:maxPreviewRunes-1])) + "…"
}
