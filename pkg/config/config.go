package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Sriram-PR/podtags/pkg/utils"
)

// DefaultUserAgent is a browser-like identifier; some archive hosts reject obvious bots
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/50.0.2661.102 Safari/537.36"

// AppConfig holds the global application configuration
type AppConfig struct {
	TargetDomain       string           `yaml:"target_domain"`
	ArchivePage        string           `yaml:"archive_page"`                // Path of the episode index page, e.g. "/archive/"
	ArchiveScheme      string           `yaml:"archive_scheme,omitempty"`    // Scheme used for the archive URL (default "http")
	CrawlDelay         time.Duration    `yaml:"crawl_delay"`                 // Base politeness delay between episode fetches
	UserAgent          string           `yaml:"user_agent,omitempty"`
	StateDir           string           `yaml:"state_dir"`
	VisitedLinksFile   string           `yaml:"visited_links_file,omitempty"`
	RawTagsFile        string           `yaml:"raw_tags_file,omitempty"`
	LocatedSongsFile   string           `yaml:"located_songs_file,omitempty"`
	CrawlReportFile    string           `yaml:"crawl_report_file,omitempty"`  // Optional YAML report of the last crawl
	RespectRobots      bool             `yaml:"respect_robots,omitempty"`     // Skip links disallowed by robots.txt
	MaxPagesPerRun     int              `yaml:"max_pages_per_run,omitempty"`  // 0 = unlimited
	MaxRetries         int              `yaml:"max_retries,omitempty"`        // Retries on network errors only
	InitialRetryDelay  time.Duration    `yaml:"initial_retry_delay,omitempty"`
	MaxRetryDelay      time.Duration    `yaml:"max_retry_delay,omitempty"`
	GlobalRunTimeout   time.Duration    `yaml:"global_run_timeout,omitempty"` // 0 = no timeout
	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`
	Catalog            CatalogConfig    `yaml:"catalog"`
}

// CatalogConfig holds settings for the catalog lookups
type CatalogConfig struct {
	ResultsLimit int           `yaml:"results_limit"` // Candidates requested per search
	LookupDelay  time.Duration `yaml:"lookup_delay"`  // Base politeness delay between searches
	SearchType   string        `yaml:"search_type,omitempty"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"`     // nil=default, true=force, false=disable
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// CatalogCredentials are read from the process environment, never from the YAML file
type CatalogCredentials struct {
	ClientID     string `envconfig:"SPOTIFY_CLIENT_ID" required:"true"`
	ClientSecret string `envconfig:"SPOTIFY_CLIENT_SECRET" required:"true"`
}

// LoadCatalogCredentials reads the catalog client id and secret from the environment
func LoadCatalogCredentials() (*CatalogCredentials, error) {
	var creds CatalogCredentials
	if err := envconfig.Process("", &creds); err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrCredentials, err)
	}
	// envconfig accepts a key that is present but empty
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be non-empty", utils.ErrCredentials)
	}
	return &creds, nil
}

// ArchiveURL returns the absolute URL of the archive index page
func (c *AppConfig) ArchiveURL() string {
	return fmt.Sprintf("%s://%s%s", c.ArchiveScheme, c.TargetDomain, c.ArchivePage)
}

// VisitedLinksPath returns the location of the visited-links store
func (c *AppConfig) VisitedLinksPath() string {
	return filepath.Join(c.StateDir, c.VisitedLinksFile)
}

// RawTagsPath returns the location of the raw-tag store
func (c *AppConfig) RawTagsPath() string {
	return filepath.Join(c.StateDir, c.RawTagsFile)
}

// CrawlReportPath returns the location of the crawl report, or "" when disabled
func (c *AppConfig) CrawlReportPath() string {
	if c.CrawlReportFile == "" {
		return ""
	}
	return filepath.Join(c.StateDir, c.CrawlReportFile)
}

// LocatedSongsPath returns the location of the reported-URI store
func (c *AppConfig) LocatedSongsPath() string {
	return filepath.Join(c.StateDir, c.LocatedSongsFile)
}
