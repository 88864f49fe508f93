package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RawTag is an unparsed music-credit fragment together with the episode page it came from
// Serialized as a two-element JSON array: [text, source_url]
type RawTag struct {
	Text      string
	SourceURL string
}

// MarshalJSON encodes the tag as [text, source_url]
func (t RawTag) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{t.Text, t.SourceURL})
}

// UnmarshalJSON decodes a [text, source_url] pair
func (t *RawTag) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("raw tag must be a [text, source_url] pair, got %d elements", len(pair))
	}
	t.Text, t.SourceURL = pair[0], pair[1]
	return nil
}

// MaxTrackLength is the longest track title (in runes) accepted by the normalizer
const MaxTrackLength = 70

// NormalizedSong is a structured (artist, track, album) triple derived from a RawTag
type NormalizedSong struct {
	Artist string `json:"artist"`
	Track  string `json:"track"`
	Album  string `json:"album"`
}

// Less orders songs lexicographically by artist, then track, then album
func (s NormalizedSong) Less(other NormalizedSong) bool {
	if s.Artist != other.Artist {
		return s.Artist < other.Artist
	}
	if s.Track != other.Track {
		return s.Track < other.Track
	}
	return s.Album < other.Album
}

// Query builds the free-text catalog query: artist, album, track
func (s NormalizedSong) Query() string {
	return strings.Join(strings.Fields(s.Artist+" "+s.Album+" "+s.Track), " ")
}

// CatalogTrack is a single candidate returned by a catalog search
type CatalogTrack struct {
	Artists    []string
	Album      string
	Name       string
	Popularity int
	URI        string
}

// ResolvedTrack is the catalog match selected for a NormalizedSong
type ResolvedTrack struct {
	Artists   string `json:"artists"` // Artist names joined by ", "
	Album     string `json:"album"`
	TrackName string `json:"track_name"`
	URI       string `json:"uri"`
}

// NewResolvedTrack flattens a catalog candidate into a ResolvedTrack
func NewResolvedTrack(t CatalogTrack) ResolvedTrack {
	return ResolvedTrack{
		Artists:   strings.Join(t.Artists, ", "),
		Album:     t.Album,
		TrackName: t.Name,
		URI:       t.URI,
	}
}

// TagResult is the explicit outcome of normalizing a single RawTag
type TagResult struct {
	Outcome TagOutcome
	Text    string          // Fragment after markup and punctuation stripping
	Source  string          // Episode URL the fragment was found on
	Song    *NormalizedSong // Set only when Outcome.Accepted()
}

// NormalizeReport collects the normalizer output for a full raw-tag store
type NormalizeReport struct {
	Songs   []NormalizedSong // Deduplicated and sorted
	Results []TagResult      // One per input RawTag, in input order
}

// Count returns how many fragments ended with the given outcome
func (r *NormalizeReport) Count(outcome TagOutcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// LookupResult is the explicit outcome of resolving a single NormalizedSong
type LookupResult struct {
	Outcome LookupOutcome
	Song    NormalizedSong
	Query   string
	Track   *ResolvedTrack // Top-ranked candidate, when one was found
	Err     error          // Set only for LookupOutcomeSearchFailed
}

// ResolveReport collects the resolver output for a batch of songs
type ResolveReport struct {
	New     []ResolvedTrack // Tracks not previously reported, in lookup order
	Results []LookupResult
}

// NewURIs returns the URIs of newly found tracks
func (r *ResolveReport) NewURIs() []string {
	uris := make([]string, 0, len(r.New))
	for _, t := range r.New {
		uris = append(uris, t.URI)
	}
	return uris
}

// Count returns how many lookups ended with the given outcome
func (r *ResolveReport) Count(outcome LookupOutcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// PageOutcome records what happened to a single episode link during a crawl
type PageOutcome string

const (
	PageOutcomeTagged        PageOutcome = "tagged"         // 200; tags extracted (possibly zero)
	PageOutcomeNonOK         PageOutcome = "non_ok"         // Non-200; marked visited anyway
	PageOutcomeFetchFailed   PageOutcome = "fetch_failed"   // Transport failure; left unvisited
	PageOutcomeRobotsSkipped PageOutcome = "robots_skipped" // Disallowed; left unvisited
)

// PageRecord is one line of the crawl report
type PageRecord struct {
	URL        string      `yaml:"url"`
	Outcome    PageOutcome `yaml:"outcome"`
	StatusCode int         `yaml:"status_code,omitempty"`
	Tags       int         `yaml:"tags,omitempty"`
	Error      string      `yaml:"error,omitempty"`
}

// CrawlSummary holds the counters for one crawl run
type CrawlSummary struct {
	RunID           string       `yaml:"run_id,omitempty"`
	ArchiveURL      string       `yaml:"archive_url"`
	StartTime       time.Time    `yaml:"start_time"`
	EndTime         time.Time    `yaml:"end_time"`
	LinksDiscovered int          `yaml:"links_discovered"` // Unique episode links found on the archive page
	AlreadyVisited  int          `yaml:"already_visited"`  // Discovered links skipped because they were visited before
	PagesVisited    int          `yaml:"pages_visited"`    // Links newly marked visited this run (200 and non-200)
	NonOKPages      int          `yaml:"non_ok_pages"`     // Visited links that returned a non-200 status
	FetchFailures   int          `yaml:"fetch_failures"`   // Links left unvisited because the fetch failed
	RobotsSkipped   int          `yaml:"robots_skipped"`   // Links left unvisited because robots.txt disallowed them
	NewTags         int          `yaml:"new_tags"`         // Raw tags appended this run
	Pages           []PageRecord `yaml:"pages,omitempty"`
}
