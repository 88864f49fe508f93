package catalog

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/podtags/pkg/config"
	"github.com/Sriram-PR/podtags/pkg/fetch"
	"github.com/Sriram-PR/podtags/pkg/models"
	"github.com/Sriram-PR/podtags/pkg/storage"
	"github.com/Sriram-PR/podtags/pkg/utils"
)

// Searcher is the catalog search capability
type Searcher interface {
	Search(ctx context.Context, query, searchType string, limit int) ([]models.CatalogTrack, error)
}

// ReportedSet answers whether a URI was surfaced in a previous run
type ReportedSet interface {
	IsReported(uri string) bool
}

// Resolver maps normalized songs to catalog tracks, one search per song
type Resolver struct {
	searcher   Searcher
	limit      int
	searchType string
	delay      time.Duration
	throttle   *fetch.Throttle
	log        *logrus.Entry
}

// NewResolver creates a Resolver; cfg is expected to be validated
func NewResolver(searcher Searcher, cfg config.CatalogConfig, throttle *fetch.Throttle, log *logrus.Entry) *Resolver {
	searchType := cfg.SearchType
	if searchType == "" {
		searchType = "track"
	}
	return &Resolver{
		searcher:   searcher,
		limit:      cfg.ResultsLimit,
		searchType: searchType,
		delay:      cfg.LookupDelay,
		throttle:   throttle,
		log:        log.WithField("component", "resolver"),
	}
}

// Resolve looks up every song and returns the tracks not already in reported
// A URI found twice in one batch is reported once. Lookups stop early only if ctx is done
func (r *Resolver) Resolve(ctx context.Context, songs []models.NormalizedSong, reported ReportedSet) (*models.ResolveReport, error) {
	report := &models.ResolveReport{
		New:     make([]models.ResolvedTrack, 0),
		Results: make([]models.LookupResult, 0, len(songs)),
	}
	seen := make(map[string]struct{})
	r.log.Infof("Starting lookup of %d songs", len(songs))

	for i, song := range songs {
		if i > 0 {
			if err := r.throttle.Wait(ctx, r.delay); err != nil {
				r.log.Warnf("Lookup cancelled after %d of %d songs: %v", i, len(songs), err)
				return report, err
			}
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result := r.lookup(ctx, song)
		if result.Outcome == models.LookupOutcomeNew {
			uri := result.Track.URI
			_, dup := seen[uri]
			if dup || (reported != nil && reported.IsReported(uri)) {
				result.Outcome = models.LookupOutcomeAlreadyReported
				r.log.WithField("uri", uri).Debug("Already reported, skipping")
			} else {
				seen[uri] = struct{}{}
				report.New = append(report.New, *result.Track)
				r.log.WithField("uri", uri).Infof("Searched for %s by %s (from %s); found %s by %s (%s)",
					song.Track, song.Artist, song.Album, result.Track.TrackName, result.Track.Artists, result.Track.Album)
			}
		}
		report.Results = append(report.Results, result)
	}

	r.log.WithFields(logrus.Fields{
		"new":              len(report.New),
		"already_reported": report.Count(models.LookupOutcomeAlreadyReported),
		"no_result":        report.Count(models.LookupOutcomeNoResult),
		"search_failed":    report.Count(models.LookupOutcomeSearchFailed),
	}).Infof("Found %d new songs in the catalog", len(report.New))
	return report, nil
}

// lookup runs one search and picks the most popular candidate
func (r *Resolver) lookup(ctx context.Context, song models.NormalizedSong) models.LookupResult {
	query := song.Query()
	result := models.LookupResult{Song: song, Query: query}
	queryLog := r.log.WithField("query", query)

	candidates, err := r.searcher.Search(ctx, query, r.searchType, r.limit)
	if err != nil {
		queryLog.WithField("error_type", utils.CategorizeError(err)).Warnf("Catalog search failed: %v", err)
		result.Outcome = models.LookupOutcomeSearchFailed
		result.Err = err
		return result
	}
	if len(candidates) == 0 {
		queryLog.Debug("No catalog match")
		result.Outcome = models.LookupOutcomeNoResult
		return result
	}

	ranked := make([]models.CatalogTrack, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Popularity > ranked[j].Popularity })

	top := models.NewResolvedTrack(ranked[0])
	result.Outcome = models.LookupOutcomeNew
	result.Track = &top
	return result
}

// MergeReported appends the report's new URIs to the reported store, preserving order
// Returns the number of URIs added
func MergeReported(reported storage.URIStore, report *models.ResolveReport) int {
	return reported.AddReported(report.NewURIs()...)
}
