package process

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/podtags/pkg/models"
)

var (
	// Opening of a legacy "[MUSIC: ...]" credit; the body is found by bracket balancing
	bracketOpenRe = regexp.MustCompile(`(?i)\[\s*MUSIC\s*:\s*`)
	// "<p><b>MUSIC: ...</b></p>" on a single line
	paragraphTagRe = regexp.MustCompile(`(?i)<p><b>MUSIC:\s?(.*)</b></p>`)
	// "<strong>MUSIC...</strong></p><ul>...</ul>" summary block
	summaryListRe = regexp.MustCompile(`(?is)<strong>\s*MUSIC.*?</strong>\s*</p>\s*<ul>(.*?)</ul>`)
	// "<li>" or "<li class=...>"
	listItemOpenRe = regexp.MustCompile(`(?i)<li[^>]*>`)
)

// TagExtractor finds raw music-credit fragments in episode page bodies
type TagExtractor struct {
	log *logrus.Entry
}

// NewTagExtractor creates a TagExtractor
func NewTagExtractor(log *logrus.Entry) *TagExtractor {
	return &TagExtractor{log: log}
}

// Extract runs the bracket, paragraph and summary-list matchers over body in that order
// Every matcher contributes independently; tags keep discovery order within the page
func (te *TagExtractor) Extract(status int, body, sourceURL string) []models.RawTag {
	pageLog := te.log.WithFields(logrus.Fields{"url": sourceURL, "status_code": status})

	var tags []models.RawTag
	add := func(fragments []string) {
		for _, f := range fragments {
			tags = append(tags, models.RawTag{Text: f, SourceURL: sourceURL})
		}
	}

	bracket := extractBracketTags(body)
	if len(bracket) > 0 {
		pageLog.WithField("count", len(bracket)).Debug("Found bracket music tags")
	}
	add(bracket)

	paragraph := extractParagraphTags(body)
	if len(paragraph) > 0 {
		pageLog.WithField("count", len(paragraph)).Debug("Found paragraph music tags")
	}
	add(paragraph)

	summary := extractSummaryListTags(body)
	if len(summary) > 0 {
		pageLog.WithField("count", len(summary)).Debug("Found summary-list music tags")
	}
	add(summary)

	pageLog.WithField("count", len(tags)).Info("Extracted music tags")
	return tags
}

// extractBracketTags returns the body of every "[MUSIC: ...]" credit
// Nested brackets are kept when they balance before the next credit, tag or line break;
// otherwise the credit ends at the first ']'. An opener with no ']' at all yields nothing
func extractBracketTags(body string) []string {
	var found []string
	offset := 0
	for offset < len(body) {
		loc := bracketOpenRe.FindStringIndex(body[offset:])
		if loc == nil {
			break
		}
		start := offset + loc[1]
		end := matchingBracket(body[:scanLimit(body, start)], start)
		if end < 0 {
			end = strings.IndexByte(body[start:], ']')
			if end < 0 {
				break // No closer anywhere after this opener, so none after later ones either
			}
			end += start
		}
		found = append(found, body[start:end])
		offset = end + 1
	}
	return found
}

// scanLimit bounds the balanced scan for a credit starting at start
func scanLimit(body string, start int) int {
	limit := len(body)
	if i := strings.IndexAny(body[start:], "<\n"); i >= 0 {
		limit = start + i
	}
	if loc := bracketOpenRe.FindStringIndex(body[start:limit]); loc != nil {
		limit = start + loc[0]
	}
	return limit
}

// matchingBracket returns the index of the ']' closing a '[' opened just before start, or -1
func matchingBracket(s string, start int) int {
	depth := 1
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func extractParagraphTags(body string) []string {
	var found []string
	for _, m := range paragraphTagRe.FindAllStringSubmatch(body, -1) {
		found = append(found, m[1])
	}
	return found
}

// extractSummaryListTags splits every summary list block into one fragment per entry
func extractSummaryListTags(body string) []string {
	var found []string
	for _, m := range summaryListRe.FindAllStringSubmatch(body, -1) {
		for _, item := range strings.Split(m[1], "</li>") {
			item = strings.TrimSpace(listItemOpenRe.ReplaceAllString(item, ""))
			if item == "" {
				continue
			}
			found = append(found, item)
		}
	}
	return found
}
