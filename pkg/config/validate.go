package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sriram-PR/podtags/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// Required: TargetDomain
	c.TargetDomain = strings.TrimSpace(c.TargetDomain)
	if c.TargetDomain == "" {
		return nil, fmt.Errorf("%w: target_domain is required", utils.ErrConfigValidation)
	}
	if strings.Contains(c.TargetDomain, "/") {
		return nil, fmt.Errorf("%w: target_domain must be a bare host, got '%s'", utils.ErrConfigValidation, c.TargetDomain)
	}

	// ArchivePage normalization
	if c.ArchivePage == "" {
		warnings = append(warnings, "archive_page is empty, defaulting to '/archive/'")
		c.ArchivePage = "/archive/"
	} else if c.ArchivePage[0] != '/' {
		c.ArchivePage = "/" + c.ArchivePage
	}

	if c.ArchiveScheme == "" {
		c.ArchiveScheme = "http"
	} else if c.ArchiveScheme != "http" && c.ArchiveScheme != "https" {
		return nil, fmt.Errorf("%w: archive_scheme must be http or https, got '%s'", utils.ErrConfigValidation, c.ArchiveScheme)
	}

	// CrawlDelay
	if c.CrawlDelay < 0 {
		warnings = append(warnings, "crawl_delay cannot be negative, setting to 0 (no delay)")
		c.CrawlDelay = 0
	}

	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}

	// StateDir and store filenames
	if c.StateDir == "" {
		warnings = append(warnings, "state_dir is empty, defaulting to './state'")
		c.StateDir = "./state"
	}
	if c.VisitedLinksFile == "" {
		c.VisitedLinksFile = "data_visited_links.json"
	}
	if c.RawTagsFile == "" {
		c.RawTagsFile = "data_raw_tags.json"
	}
	if c.LocatedSongsFile == "" {
		c.LocatedSongsFile = "data_located_songs.json"
	}

	// MaxPagesPerRun
	if c.MaxPagesPerRun < 0 {
		warnings = append(warnings, "max_pages_per_run cannot be negative, setting to 0 (unlimited)")
		c.MaxPagesPerRun = 0
	}

	// MaxRetries
	if c.MaxRetries < 0 {
		warnings = append(warnings, "max_retries cannot be negative, setting to 0")
		c.MaxRetries = 0
	}
	if c.MaxRetries > 0 {
		if c.InitialRetryDelay <= 0 {
			c.InitialRetryDelay = 1 * time.Second
		}
		if c.MaxRetryDelay <= 0 {
			c.MaxRetryDelay = 30 * time.Second
		}
	}
	if c.InitialRetryDelay > c.MaxRetryDelay && c.MaxRetryDelay > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"initial_retry_delay (%v) > max_retry_delay (%v), using max_retry_delay for initial",
			c.InitialRetryDelay, c.MaxRetryDelay))
		c.InitialRetryDelay = c.MaxRetryDelay
	}

	// GlobalRunTimeout
	if c.GlobalRunTimeout < 0 {
		warnings = append(warnings, "global_run_timeout cannot be negative, disabling timeout")
		c.GlobalRunTimeout = 0
	}

	c.validateHTTPClientSettings()

	catalogWarnings, err := c.Catalog.Validate()
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, catalogWarnings...)

	return warnings, nil
}

// validateHTTPClientSettings applies defaults to HTTP client settings.
func (c *AppConfig) validateHTTPClientSettings() {
	h := &c.HTTPClientSettings
	if h.Timeout <= 0 {
		h.Timeout = 45 * time.Second
	}
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 10
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = 2
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.ExpectContinueTimeout <= 0 {
		h.ExpectContinueTimeout = 1 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
}

// Validate checks CatalogConfig fields and applies defaults.
func (c *CatalogConfig) Validate() (warnings []string, err error) {
	if c.ResultsLimit < 0 {
		return nil, fmt.Errorf("%w: catalog.results_limit cannot be negative", utils.ErrConfigValidation)
	}
	if c.ResultsLimit == 0 {
		warnings = append(warnings, "catalog.results_limit not set, defaulting to 3")
		c.ResultsLimit = 3
	}
	if c.ResultsLimit > 50 {
		warnings = append(warnings, fmt.Sprintf("catalog.results_limit %d exceeds the search maximum, capping at 50", c.ResultsLimit))
		c.ResultsLimit = 50
	}
	if c.LookupDelay < 0 {
		warnings = append(warnings, "catalog.lookup_delay cannot be negative, setting to 0 (no delay)")
		c.LookupDelay = 0
	}
	if c.SearchType == "" {
		c.SearchType = "track"
	}
	return warnings, nil
}
