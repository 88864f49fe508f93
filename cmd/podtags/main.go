package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/podtags/pkg/catalog"
	"github.com/Sriram-PR/podtags/pkg/config"
	"github.com/Sriram-PR/podtags/pkg/crawler"
	"github.com/Sriram-PR/podtags/pkg/fetch"
	"github.com/Sriram-PR/podtags/pkg/models"
	"github.com/Sriram-PR/podtags/pkg/orchestrate"
	"github.com/Sriram-PR/podtags/pkg/utils"
	"github.com/Sriram-PR/podtags/pkg/watch"
)

const version = "1.0.0"

// newSearcher builds the catalog client from environment credentials; replaced in tests
var newSearcher = func(log *logrus.Entry) (catalog.Searcher, error) {
	creds, err := config.LoadCatalogCredentials()
	if err != nil {
		return nil, err
	}
	return catalog.NewSpotifySearcher(creds, log)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "crawl", "parse", "resolve", "run":
		os.Exit(runStage(os.Args[1], os.Args[2:]))
	case "watch":
		os.Exit(runWatch(os.Args[2:]))
	case "validate":
		os.Exit(runValidate(os.Args[2:]))
	case "report":
		os.Exit(runReport(os.Args[2:]))
	case "version":
		fmt.Printf("podtags %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `podtags - Podcast music-credit crawler and Spotify resolver

Usage:
  podtags <command> [options]

Commands:
  crawl       Fetch new episode pages and store their raw music tags
  parse       Normalize stored raw tags into songs
  resolve     Look up parsed songs and print new Spotify URIs
  run         crawl, parse and resolve in one go
  watch       Repeat run on a schedule
  validate    Validate configuration file
  report      Show the last crawl report
  version     Show version info

Run 'podtags <command> -h' for command-specific help.`)
}

// loadConfig loads and parses the config file
func loadConfig(path string) (*config.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg config.AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

// setupLogger creates a configured logrus.Logger with the given log level.
func setupLogger(logLevelStr string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	level, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", logLevelStr, err)
	} else {
		log.SetLevel(level)
		log.Debugf("Setting log level to: %s", level.String())
	}

	return log
}

// loadAndValidateConfig loads the config file, validates it, and logs warnings.
func loadAndValidateConfig(configFile string, log *logrus.Logger) (*config.AppConfig, error) {
	log.Infof("Loading configuration from %s", configFile)
	appCfg, err := loadConfig(configFile)
	if err != nil {
		return nil, err
	}

	appWarnings, err := appCfg.Validate()
	if err != nil {
		return nil, err
	}
	for _, w := range appWarnings {
		log.Warn(w)
	}
	return appCfg, nil
}

// loadEnvFile populates the environment from an optional .env file
func loadEnvFile(path string, log *logrus.Logger) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debugf("No env file at %s", path)
			return
		}
		log.Warnf("Could not load env file %s: %v", path, err)
	}
}

// stageFlags are shared by the crawl, parse, resolve, run and watch subcommands
type stageFlags struct {
	configFile string
	envFile    string
	logLevel   string
}

func newStageFlagSet(name string, sf *stageFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&sf.configFile, "config", "config.yaml", "Path to config file")
	fs.StringVar(&sf.envFile, "env", ".env", "Optional dotenv file holding SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET")
	fs.StringVar(&sf.logLevel, "loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: podtags %s [options]\n\nOptions:\n", name)
		fs.PrintDefaults()
	}
	return fs
}

// runStage handles the crawl, parse, resolve and run subcommands
func runStage(stage string, args []string) int {
	var sf stageFlags
	fs := newStageFlagSet(stage, &sf)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	log := setupLogger(sf.logLevel, os.Stderr)
	loadEnvFile(sf.envFile, log)

	appCfg, err := loadAndValidateConfig(sf.configFile, log)
	if err != nil {
		log.Errorf("Config error: %v", err)
		return 1
	}
	logAppConfig(appCfg, log)

	ctx, stop := signalContext(appCfg.GlobalRunTimeout, log)
	defer stop()

	return executeStage(ctx, stage, appCfg, os.Stdout, log)
}

// executeStage builds the pipeline and runs one stage, or all of them for "run".
// Returns exit code (0 = success, 1 = error).
func executeStage(ctx context.Context, stage string, appCfg *config.AppConfig, stdout io.Writer, log *logrus.Logger) int {
	entry := log.WithField("component", stage)

	var searcher catalog.Searcher
	if stage == orchestrate.StageResolve || stage == "run" {
		s, err := newSearcher(entry.WithField("component", "catalog"))
		if err != nil {
			log.Errorf("Catalog credentials unavailable: %v", err)
			return 1
		}
		searcher = s
	}

	httpClient := fetch.NewClient(appCfg.HTTPClientSettings, entry)
	throttle := fetch.NewThrottle(entry.WithField("component", "throttle"))
	fetcher := fetch.NewFetcher(httpClient, appCfg, throttle, entry.WithField("component", "fetcher"))
	pipeline := orchestrate.NewPipelineWithThrottle(appCfg, fetcher, searcher, throttle, stdout, entry)

	var err error
	switch stage {
	case orchestrate.StageCrawl:
		_, err = pipeline.Crawl(ctx)
	case orchestrate.StageParse:
		report := pipeline.Parse()
		writeSongs(stdout, report)
	case orchestrate.StageResolve:
		_, err = pipeline.Resolve(ctx, pipeline.Parse().Songs)
	case "run":
		_, err = pipeline.Run(ctx)
	default:
		log.Errorf("Unknown stage: %s", stage)
		return 1
	}
	return exitCode(err, log)
}

// exitCode maps a stage error to a process exit code; graceful cancellation is a clean exit
func exitCode(err error, log *logrus.Logger) int {
	switch {
	case err == nil:
		log.Info("Completed successfully.")
		return 0
	case errors.Is(err, context.Canceled):
		log.Warn("Cancelled gracefully.")
		return 0
	case errors.Is(err, context.DeadlineExceeded):
		log.Error("Timed out (global timeout).")
		return 1
	default:
		log.WithField("error_type", utils.CategorizeError(err)).Errorf("Finished with error: %v", err)
		return 1
	}
}

// writeSongs prints one normalized song per line as "artist - track (album)"
func writeSongs(w io.Writer, report *models.NormalizeReport) {
	for _, s := range report.Songs {
		fmt.Fprintf(w, "%s - %s (%s)\n", s.Artist, s.Track, s.Album)
	}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM or after timeout (0 = none)
// A second signal forces exit
func signalContext(timeout time.Duration, log *logrus.Logger) (context.Context, func()) {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		log.Infof("Setting global run timeout: %v", timeout)
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("PANIC in signal handler: %v", r)
			}
		}()
		select {
		case sig := <-sigChan:
			log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
			cancel()
		case <-ctx.Done():
			return
		}

		select {
		case sig := <-sigChan:
			log.Warnf("Received second signal: %v. Forcing exit.", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(1)
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// runWatch handles the watch subcommand
func runWatch(args []string) int {
	var sf stageFlags
	fs := newStageFlagSet("watch", &sf)
	interval := fs.String("interval", "24h", "Time between runs (e.g. 30m, 12h, 7d)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	log := setupLogger(sf.logLevel, os.Stderr)
	every, err := watch.ParseInterval(*interval)
	if err != nil {
		log.Errorf("Invalid interval: %v", err)
		return 1
	}
	loadEnvFile(sf.envFile, log)

	appCfg, err := loadAndValidateConfig(sf.configFile, log)
	if err != nil {
		log.Errorf("Config error: %v", err)
		return 1
	}
	logAppConfig(appCfg, log)

	// The global timeout bounds each run, not the watch loop
	ctx, stop := signalContext(0, log)
	defer stop()

	run := func(ctx context.Context) (int, error) {
		return executeWatchRun(ctx, appCfg, os.Stdout, log)
	}
	scheduler := watch.NewScheduler(appCfg.StateDir, every, run, log.WithField("component", "watch"))
	if err := scheduler.Run(ctx); err != nil {
		log.Errorf("Watch scheduler error: %v", err)
		return 1
	}
	log.Info("Watch mode stopped")
	return 0
}

// executeWatchRun performs one scheduled pipeline run and reports the new URI count
func executeWatchRun(ctx context.Context, appCfg *config.AppConfig, stdout io.Writer, log *logrus.Logger) (int, error) {
	if appCfg.GlobalRunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, appCfg.GlobalRunTimeout)
		defer cancel()
	}

	entry := log.WithField("component", "run")
	searcher, err := newSearcher(entry.WithField("component", "catalog"))
	if err != nil {
		return 0, err
	}
	httpClient := fetch.NewClient(appCfg.HTTPClientSettings, entry)
	throttle := fetch.NewThrottle(entry.WithField("component", "throttle"))
	fetcher := fetch.NewFetcher(httpClient, appCfg, throttle, entry.WithField("component", "fetcher"))

	results, err := orchestrate.NewPipelineWithThrottle(appCfg, fetcher, searcher, throttle, stdout, entry).Run(ctx)
	newURIs := 0
	for _, r := range results {
		if r.Stage == orchestrate.StageResolve {
			newURIs = r.Items
		}
	}
	return newURIs, err
}

// runValidate handles the validate subcommand
func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: podtags validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}
	return doValidate(*configFile, os.Stdout, os.Stderr)
}

// doValidate validates config and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doValidate(configPath string, stdout, stderr io.Writer) int {
	appCfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	warnings, err := appCfg.Validate()
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}

	fmt.Fprintf(stdout, "OK: archive %s\n", appCfg.ArchiveURL())
	fmt.Fprintf(stdout, "OK: state in %s\n", appCfg.StateDir)
	fmt.Fprintln(stdout, "\nConfiguration valid.")
	return 0
}

// runReport handles the report subcommand
func runReport(args []string) int {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: podtags report [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}
	return doReport(*configFile, os.Stdout, os.Stderr)
}

// doReport prints the last crawl report.
// Returns exit code (0 = success, 1 = error).
func doReport(configPath string, stdout, stderr io.Writer) int {
	appCfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if _, err := appCfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	path := appCfg.CrawlReportPath()
	if path == "" {
		fmt.Fprintln(stderr, "Error: crawl_report_file is not set in config")
		return 1
	}
	summary, err := crawler.ReadCrawlReport(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Run %s (%s)\n", summary.RunID, summary.ArchiveURL)
	fmt.Fprintf(stdout, "  Started:   %s\n", summary.StartTime.Format(time.RFC3339))
	fmt.Fprintf(stdout, "  Duration:  %v\n", summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond))
	fmt.Fprintf(stdout, "  Links:     %d discovered, %d already visited\n", summary.LinksDiscovered, summary.AlreadyVisited)
	fmt.Fprintf(stdout, "  Visited:   %d (%d non-200)\n", summary.PagesVisited, summary.NonOKPages)
	fmt.Fprintf(stdout, "  Failures:  %d fetch, %d robots\n", summary.FetchFailures, summary.RobotsSkipped)
	fmt.Fprintf(stdout, "  New tags:  %d\n", summary.NewTags)
	for _, p := range summary.Pages {
		line := fmt.Sprintf("    %-14s %s", p.Outcome, p.URL)
		if p.StatusCode != 0 {
			line += fmt.Sprintf(" [%d]", p.StatusCode)
		}
		if p.Tags > 0 {
			line += fmt.Sprintf(" %d tags", p.Tags)
		}
		if p.Error != "" {
			line += " " + p.Error
		}
		fmt.Fprintln(stdout, line)
	}
	return 0
}

// logAppConfig logs the effective configuration
func logAppConfig(appCfg *config.AppConfig, log *logrus.Logger) {
	log.Infof("Config: Archive:%s, CrawlDelay:%v, StateDir:%s, RespectRobots:%t, MaxPagesPerRun:%d",
		appCfg.ArchiveURL(), appCfg.CrawlDelay, appCfg.StateDir, appCfg.RespectRobots, appCfg.MaxPagesPerRun)
	log.Infof("Config Retries: Max:%d, InitialDelay:%v, MaxDelay:%v, GlobalTimeout:%v",
		appCfg.MaxRetries, appCfg.InitialRetryDelay, appCfg.MaxRetryDelay, appCfg.GlobalRunTimeout)
	log.Infof("Config Catalog: ResultsLimit:%d, LookupDelay:%v, SearchType:%s",
		appCfg.Catalog.ResultsLimit, appCfg.Catalog.LookupDelay, appCfg.Catalog.SearchType)
	log.Infof("Config HTTP Client: Timeout:%v, MaxIdle:%d, MaxIdlePerHost:%d, IdleTimeout:%v, TLSTimeout:%v, DialerTimeout:%v",
		appCfg.HTTPClientSettings.Timeout, appCfg.HTTPClientSettings.MaxIdleConns, appCfg.HTTPClientSettings.MaxIdleConnsPerHost,
		appCfg.HTTPClientSettings.IdleConnTimeout, appCfg.HTTPClientSettings.TLSHandshakeTimeout, appCfg.HTTPClientSettings.DialerTimeout)
}
