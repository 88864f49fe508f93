package crawler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/podtags/pkg/config"
	"github.com/Sriram-PR/podtags/pkg/fetch"
	"github.com/Sriram-PR/podtags/pkg/models"
	"github.com/Sriram-PR/podtags/pkg/parse"
	"github.com/Sriram-PR/podtags/pkg/process"
	"github.com/Sriram-PR/podtags/pkg/storage"
	"github.com/Sriram-PR/podtags/pkg/utils"
)

// VisitedStore is the persisted visited-links set
type VisitedStore interface {
	storage.LinkStore
	storage.Persister
}

// TagStore is the persisted raw-tag list
type TagStore interface {
	storage.TagStore
	storage.Persister
}

// RobotsChecker decides whether a URL may be fetched
type RobotsChecker interface {
	Allowed(ctx context.Context, rawURL string) bool
}

// Crawler drives one incremental crawl of the archive and its episode pages
type Crawler struct {
	log        *logrus.Entry // Logger contextualized with component
	appCfg     *config.AppConfig
	fetcher    fetch.PageFetcher
	discoverer *parse.LinkDiscoverer
	extractor  *process.TagExtractor
	robots     RobotsChecker // nil when robots.txt is not respected
	visited    VisitedStore
	tags       TagStore
	runID      string
}

// CrawlerOptions contains optional parameters for NewCrawlerWithOptions
type CrawlerOptions struct {
	// Robots overrides the robots.txt gate; if nil and appCfg.RespectRobots is set, a RobotsHandler is created
	Robots RobotsChecker
	// RunID is attached to the report and the log fields
	RunID string
}

// NewCrawler creates a Crawler with default options
func NewCrawler(appCfg *config.AppConfig, fetcher fetch.PageFetcher, visited VisitedStore, tags TagStore, baseLogger *logrus.Entry) (*Crawler, error) {
	return NewCrawlerWithOptions(appCfg, fetcher, visited, tags, baseLogger, nil)
}

// NewCrawlerWithOptions creates a Crawler with optional configuration
func NewCrawlerWithOptions(
	appCfg *config.AppConfig,
	fetcher fetch.PageFetcher,
	visited VisitedStore,
	tags TagStore,
	baseLogger *logrus.Entry,
	opts *CrawlerOptions,
) (*Crawler, error) {
	logger := baseLogger.WithField("component", "crawler")

	discoverer, err := parse.NewLinkDiscoverer(appCfg.TargetDomain)
	if err != nil {
		return nil, fmt.Errorf("compiling episode link patterns for '%s': %w", appCfg.TargetDomain, err)
	}

	c := &Crawler{
		log:        logger,
		appCfg:     appCfg,
		fetcher:    fetcher,
		discoverer: discoverer,
		extractor:  process.NewTagExtractor(logger),
		visited:    visited,
		tags:       tags,
	}

	if opts != nil {
		c.robots = opts.Robots
		c.runID = opts.RunID
		if c.runID != "" {
			c.log = c.log.WithField("run_id", c.runID)
		}
	}
	if c.robots == nil && appCfg.RespectRobots {
		c.robots = fetch.NewRobotsHandler(fetcher, appCfg.UserAgent, c.log)
		c.log.Info("robots.txt will be respected")
	}

	return c, nil
}

// Run loads the stores, fetches the archive, fetches every unvisited episode and persists the stores
// The stores are saved even when the archive fetch fails or ctx is cancelled
func (c *Crawler) Run(ctx context.Context) (*models.CrawlSummary, error) {
	archiveURL := c.appCfg.ArchiveURL()
	summary := &models.CrawlSummary{RunID: c.runID, ArchiveURL: archiveURL, StartTime: time.Now()}
	runLog := c.log.WithField("domain", c.appCfg.TargetDomain)
	runLog.Info("Crawl starting...")

	c.loadStores()
	defer c.finalize(summary)

	// --- Archive page (no politeness delay) ---
	archive, err := c.fetcher.Fetch(ctx, archiveURL, 0, "")
	if err != nil {
		runLog.WithFields(logrus.Fields{"url": archiveURL, "error_type": utils.CategorizeError(err)}).Errorf("Fetching archive page failed: %v", err)
		return summary, fmt.Errorf("%w: %s: %w", utils.ErrArchiveFetch, archiveURL, err)
	}
	if archive.StatusCode != http.StatusOK {
		runLog.WithFields(logrus.Fields{"url": archiveURL, "status_code": archive.StatusCode}).Warn("Archive page did not return HTTP 200; scanning body anyway")
	}

	cookie := fetch.CookieHeader(archive.Cookies())
	if cookie != "" {
		runLog.Debug("Captured session cookie from archive page")
	}

	links := c.discoverer.Discover(archive.Body)
	summary.LinksDiscovered = len(links)
	runLog.Infof("Searched archive page. Found %d links", len(links))

	// --- Episode pages ---
	fetched := 0
	for _, link := range links {
		if ctx.Err() != nil {
			runLog.Warnf("Crawl cancelled, stopping before remaining links: %v", ctx.Err())
			break
		}
		if c.visited.IsVisited(link) {
			summary.AlreadyVisited++
			continue
		}
		if c.appCfg.MaxPagesPerRun > 0 && fetched >= c.appCfg.MaxPagesPerRun {
			runLog.Infof("Reached max_pages_per_run (%d), leaving remaining links for the next run", c.appCfg.MaxPagesPerRun)
			break
		}
		if c.processLink(ctx, link, cookie, summary) {
			fetched++
		}
	}

	if summary.PagesVisited == 0 {
		runLog.Info("All episodes already scanned")
	}
	return summary, ctx.Err()
}

// processLink fetches one episode and applies the visit policy:
// fetch failure and robots denial leave the link unvisited, any HTTP response marks it visited
// Returns false if no fetch was attempted
func (c *Crawler) processLink(ctx context.Context, link, cookie string, summary *models.CrawlSummary) bool {
	taskLog := c.log.WithField("url", link)

	if c.robots != nil && !c.robots.Allowed(ctx, link) {
		taskLog.WithField("error_type", utils.CategorizeError(utils.ErrRobotsDisallowed)).Info("Skipping link disallowed by robots.txt")
		summary.RobotsSkipped++
		summary.Pages = append(summary.Pages, models.PageRecord{URL: link, Outcome: models.PageOutcomeRobotsSkipped})
		return false
	}

	page, err := c.fetcher.Fetch(ctx, link, c.appCfg.CrawlDelay, cookie)
	if err != nil {
		taskLog.WithField("error_type", utils.CategorizeError(err)).Warnf("Scanning failed, will retry next run: %v", err)
		summary.FetchFailures++
		summary.Pages = append(summary.Pages, models.PageRecord{URL: link, Outcome: models.PageOutcomeFetchFailed, Error: err.Error()})
		return true
	}

	taskLog.Infof("Scanning %s", page.FinalURL)
	record := models.PageRecord{URL: link, StatusCode: page.StatusCode}
	if page.StatusCode == http.StatusOK {
		newTags := c.extractor.Extract(page.StatusCode, page.Body, link)
		c.tags.AppendTags(newTags...)
		summary.NewTags += len(newTags)
		record.Outcome = models.PageOutcomeTagged
		record.Tags = len(newTags)
	} else {
		// Non-200 pages are not retried
		taskLog.WithField("status_code", page.StatusCode).Warn("Host did not return HTTP 200")
		summary.NonOKPages++
		record.Outcome = models.PageOutcomeNonOK
	}

	c.visited.MarkVisited(link)
	summary.PagesVisited++
	summary.Pages = append(summary.Pages, record)
	return true
}

// loadStores reads both stores; missing or unreadable files leave them empty
func (c *Crawler) loadStores() {
	if err := c.visited.Load(); err != nil {
		c.logLoadError("visited links", err)
	}
	c.log.Infof("Loaded already crawled links. Found %d links", c.visited.VisitedCount())

	if err := c.tags.Load(); err != nil {
		c.logLoadError("raw tags", err)
	}
	c.log.Infof("Loaded existing raw music tags. Found %d tags", len(c.tags.Tags()))
}

func (c *Crawler) logLoadError(name string, err error) {
	if storage.IsNotExist(err) {
		c.log.Infof("No %s store yet, starting empty", name)
		return
	}
	c.log.WithField("error_type", utils.CategorizeError(err)).Warnf("Could not load %s store, starting empty: %v", name, err)
}

// finalize persists both stores unconditionally and logs the run summary
func (c *Crawler) finalize(summary *models.CrawlSummary) {
	summary.EndTime = time.Now()

	if err := c.visited.Save(); err != nil {
		c.log.WithField("error_type", utils.CategorizeError(err)).Errorf("Unable to save visited links: %v", err)
	}
	if err := c.tags.Save(); err != nil {
		c.log.WithField("error_type", utils.CategorizeError(err)).Errorf("Unable to save raw tags: %v", err)
	}

	if reportPath := c.appCfg.CrawlReportPath(); reportPath != "" {
		if err := WriteCrawlReport(reportPath, summary); err != nil {
			c.log.WithField("error_type", utils.CategorizeError(err)).Errorf("Unable to write crawl report: %v", err)
		} else {
			c.log.Infof("Wrote crawl report to %s", reportPath)
		}
	}

	summaryLog := c.log.WithField("domain", c.appCfg.TargetDomain)
	summaryLog.Info("========================================================================")
	summaryLog.Info("CRAWL FINISHED")
	summaryLog.Infof("Duration:         %v", summary.EndTime.Sub(summary.StartTime))
	summaryLog.Infof("Final Stats: Links: %d, Already Visited: %d, Newly Visited: %d (non-200: %d), Failed: %d, Robots Skipped: %d, New Tags: %d",
		summary.LinksDiscovered, summary.AlreadyVisited, summary.PagesVisited, summary.NonOKPages,
		summary.FetchFailures, summary.RobotsSkipped, summary.NewTags)
	summaryLog.Info("========================================================================")
}
