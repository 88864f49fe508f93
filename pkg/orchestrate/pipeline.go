package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/podtags/pkg/catalog"
	"github.com/Sriram-PR/podtags/pkg/config"
	"github.com/Sriram-PR/podtags/pkg/crawler"
	"github.com/Sriram-PR/podtags/pkg/fetch"
	"github.com/Sriram-PR/podtags/pkg/models"
	"github.com/Sriram-PR/podtags/pkg/process"
	"github.com/Sriram-PR/podtags/pkg/storage"
	"github.com/Sriram-PR/podtags/pkg/utils"
)

// Stage names, in execution order
const (
	StageCrawl   = "crawl"
	StageParse   = "parse"
	StageResolve = "resolve"
)

// PlaylistHeader precedes the newly found URIs on the output writer
const PlaylistHeader = "Paste these into a spotify playlist:"

// StageResult contains the result of a single pipeline stage
type StageResult struct {
	Stage    string
	Success  bool
	Error    error
	Items    int // Pages visited, songs parsed or new URIs, depending on the stage
	Duration time.Duration
}

// Pipeline runs crawl, parse and resolve against one state directory
type Pipeline struct {
	appCfg   *config.AppConfig
	log      *logrus.Entry
	runID    string
	fetcher  fetch.PageFetcher
	searcher catalog.Searcher // nil when no credentials are available
	throttle *fetch.Throttle
	out      io.Writer
}

// NewPipeline creates a Pipeline with a fresh run id
// searcher may be nil if the resolve stage will not be used
func NewPipeline(appCfg *config.AppConfig, fetcher fetch.PageFetcher, searcher catalog.Searcher, out io.Writer, log *logrus.Entry) *Pipeline {
	return NewPipelineWithThrottle(appCfg, fetcher, searcher, fetch.NewThrottle(log), out, log)
}

// NewPipelineWithThrottle is NewPipeline with an explicit throttle for catalog lookups
func NewPipelineWithThrottle(appCfg *config.AppConfig, fetcher fetch.PageFetcher, searcher catalog.Searcher, throttle *fetch.Throttle, out io.Writer, log *logrus.Entry) *Pipeline {
	runID := uuid.NewString()
	return &Pipeline{
		appCfg:   appCfg,
		log:      log.WithField("run_id", runID),
		runID:    runID,
		fetcher:  fetcher,
		searcher: searcher,
		throttle: throttle,
		out:      out,
	}
}

// RunID returns the identifier attached to every log line of this pipeline
func (p *Pipeline) RunID() string {
	return p.runID
}

// Crawl runs one incremental crawl and persists the visited-links and raw-tag stores
func (p *Pipeline) Crawl(ctx context.Context) (*models.CrawlSummary, error) {
	visited := storage.NewJSONLinkStore(p.appCfg.VisitedLinksPath())
	tags := storage.NewJSONTagStore(p.appCfg.RawTagsPath())

	c, err := crawler.NewCrawlerWithOptions(p.appCfg, p.fetcher, visited, tags, p.log, &crawler.CrawlerOptions{RunID: p.runID})
	if err != nil {
		return nil, err
	}
	return c.Run(ctx)
}

// Parse normalizes the full raw-tag store; a missing or unreadable store parses as empty
func (p *Pipeline) Parse() *models.NormalizeReport {
	tags := storage.NewJSONTagStore(p.appCfg.RawTagsPath())
	if err := tags.Load(); err != nil {
		p.logLoadError("raw tags", err)
	}
	p.log.Infof("Loaded %d raw music tags", len(tags.Tags()))
	return process.NewNormalizer(p.log.WithField("component", "normalizer")).Normalize(tags.Tags())
}

// Resolve looks up songs, merges new URIs into the reported store and prints them
func (p *Pipeline) Resolve(ctx context.Context, songs []models.NormalizedSong) (*models.ResolveReport, error) {
	if p.searcher == nil {
		return nil, fmt.Errorf("%w: no catalog searcher configured", utils.ErrCredentials)
	}

	reported := storage.NewJSONURIStore(p.appCfg.LocatedSongsPath())
	if err := reported.Load(); err != nil {
		p.logLoadError("located songs", err)
	}
	p.log.Infof("Loaded %d previously reported URIs", len(reported.Reported()))

	resolver := catalog.NewResolver(p.searcher, p.appCfg.Catalog, p.throttle, p.log)
	report, err := resolver.Resolve(ctx, songs, reported)
	if report == nil {
		return nil, err
	}

	// Partial results are still surfaced and recorded
	added := catalog.MergeReported(reported, report)
	if saveErr := reported.Save(); saveErr != nil {
		p.log.WithField("error_type", utils.CategorizeError(saveErr)).Errorf("Unable to save located songs: %v", saveErr)
	} else {
		p.log.Infof("Recorded %d new URIs", added)
	}

	if writeErr := WritePlaylist(p.out, report.NewURIs()); writeErr != nil {
		p.log.Errorf("Writing playlist output failed: %v", writeErr)
	}
	return report, err
}

// Run executes every stage in order
// A failed crawl is logged and the later stages still run on the stored tags; cancellation stops the run
func (p *Pipeline) Run(ctx context.Context) ([]StageResult, error) {
	startTime := time.Now()
	p.log.Info("Starting pipeline: crawl, parse, resolve")
	results := make([]StageResult, 0, 3)

	// --- Crawl ---
	stageStart := time.Now()
	summary, err := p.Crawl(ctx)
	crawlResult := StageResult{Stage: StageCrawl, Success: err == nil, Error: err, Duration: time.Since(stageStart)}
	if summary != nil {
		crawlResult.Items = summary.PagesVisited
	}
	results = append(results, crawlResult)
	if ctx.Err() != nil {
		p.logSummary(results, time.Since(startTime))
		return results, ctx.Err()
	}
	if err != nil {
		p.log.WithField("error_type", utils.CategorizeError(err)).Errorf("Crawl failed, continuing with stored tags: %v", err)
	}

	// --- Parse ---
	stageStart = time.Now()
	parsed := p.Parse()
	results = append(results, StageResult{Stage: StageParse, Success: true, Items: len(parsed.Songs), Duration: time.Since(stageStart)})

	// --- Resolve ---
	stageStart = time.Now()
	resolved, resolveErr := p.Resolve(ctx, parsed.Songs)
	resolveResult := StageResult{Stage: StageResolve, Success: resolveErr == nil, Error: resolveErr, Duration: time.Since(stageStart)}
	if resolved != nil {
		resolveResult.Items = len(resolved.New)
	}
	results = append(results, resolveResult)

	p.logSummary(results, time.Since(startTime))
	return results, errors.Join(err, resolveErr)
}

// WritePlaylist prints the header followed by one URI per line
func WritePlaylist(w io.Writer, uris []string) error {
	if _, err := fmt.Fprintln(w, PlaylistHeader); err != nil {
		return err
	}
	for _, uri := range uris {
		if _, err := fmt.Fprintln(w, uri); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) logLoadError(name string, err error) {
	if storage.IsNotExist(err) {
		p.log.Infof("No %s store yet, starting empty", name)
		return
	}
	p.log.WithField("error_type", utils.CategorizeError(err)).Warnf("Could not load %s store, starting empty: %v", name, err)
}

// logSummary logs a summary of all stage results
func (p *Pipeline) logSummary(results []StageResult, totalDuration time.Duration) {
	p.log.Info("============================================")
	p.log.Infof("Pipeline completed in %v", totalDuration)
	p.log.Info("Stage Results:")

	failCount := 0
	for _, r := range results {
		status := "SUCCESS"
		if !r.Success {
			status = "FAILED"
			failCount++
		}
		p.log.Infof("  %s: %s - %d items in %v", r.Stage, status, r.Items, r.Duration)
		if r.Error != nil {
			p.log.Infof("    Error: %v", r.Error)
		}
	}

	p.log.Info("--------------------------------------------")
	p.log.Infof("Total: %d stages (%d success, %d failed)", len(results), len(results)-failCount, failCount)
	p.log.Info("============================================")
}
