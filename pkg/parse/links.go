package parse

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/Sriram-PR/podtags/pkg/utils"
)

// Episode URL shapes, completed with the regex-quoted target domain
const (
	legacyEpisodePattern  = `(?i)https?://(?:www\.)?%s/\d{4}/\d{2}/\d{2}/[a-z0-9-]*/` // /YYYY/MM/DD/slug/
	currentEpisodePattern = `(?i)https?://(?:www\.)?%s/podcast/[a-z0-9_-]*`         // /podcast/slug
)

// LinkDiscoverer finds episode URLs for a single domain in archive page bodies
type LinkDiscoverer struct {
	domain   string
	patterns []*regexp.Regexp
}

// NewLinkDiscoverer compiles the episode URL patterns for domain
func NewLinkDiscoverer(domain string) (*LinkDiscoverer, error) {
	quoted := regexp.QuoteMeta(domain)
	patterns, err := utils.CompileRegexPatterns([]string{
		fmt.Sprintf(legacyEpisodePattern, quoted),
		fmt.Sprintf(currentEpisodePattern, quoted),
	})
	if err != nil {
		return nil, err
	}
	return &LinkDiscoverer{domain: domain, patterns: patterns}, nil
}

// Discover returns the unique episode URLs found in body, sorted
// Each pattern runs over the whole body; matches are unioned by exact string
func (d *LinkDiscoverer) Discover(body string) []string {
	seen := make(map[string]struct{})
	for _, re := range d.patterns {
		for _, match := range re.FindAllString(body, -1) {
			seen[match] = struct{}{}
		}
	}

	links := make([]string, 0, len(seen))
	for link := range seen {
		links = append(links, link)
	}
	sort.Strings(links)
	return links
}

// MustLinkDiscoverer is like NewLinkDiscoverer but panics if the patterns do not compile
// The domain is regex-quoted, so a failure means the pattern constants themselves are broken
func MustLinkDiscoverer(domain string) *LinkDiscoverer {
	d, err := NewLinkDiscoverer(domain)
	if err != nil {
		panic(err)
	}
	return d
}

// DiscoverEpisodeLinks is a one-shot helper around LinkDiscoverer
func DiscoverEpisodeLinks(body, domain string) []string {
	return MustLinkDiscoverer(domain).Discover(body)
}
