package process

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// StripMarkup returns the text content of an HTML fragment with entities decoded
// Input that cannot be parsed is returned unchanged
func StripMarkup(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return fragment // Nothing to strip or decode
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return doc.Text()
}

// smartQuoteReplacer removes curly double quotes and newlines left over from markup
var smartQuoteReplacer = strings.NewReplacer("\n", "", "“", "", "”", "")

// CleanFragment strips markup, newlines and curly quotes from a raw tag
// Non-ASCII spaces such as the U+00A0 left by "&nbsp;" become plain spaces so the tier patterns see them
func CleanFragment(raw string) string {
	return strings.Map(plainSpace, smartQuoteReplacer.Replace(StripMarkup(raw)))
}

func plainSpace(r rune) rune {
	if r > unicode.MaxASCII && unicode.IsSpace(r) {
		return ' '
	}
	return r
}
