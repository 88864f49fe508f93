package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/podtags/pkg/utils"
)

func TestAppConfig_Validate_Defaults(t *testing.T) {
	cfg := AppConfig{TargetDomain: "freakonomics.com"}
	warnings, err := cfg.Validate()

	require.NoError(t, err)

	assert.Equal(t, "/archive/", cfg.ArchivePage)
	assert.Equal(t, "http", cfg.ArchiveScheme)
	assert.Equal(t, "./state", cfg.StateDir)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Equal(t, "data_visited_links.json", cfg.VisitedLinksFile)
	assert.Equal(t, "data_raw_tags.json", cfg.RawTagsFile)
	assert.Equal(t, "data_located_songs.json", cfg.LocatedSongsFile)
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, 3, cfg.Catalog.ResultsLimit)
	assert.Equal(t, "track", cfg.Catalog.SearchType)

	// Check HTTP client defaults
	assert.Equal(t, 45*time.Second, cfg.HTTPClientSettings.Timeout)
	assert.Equal(t, 10, cfg.HTTPClientSettings.MaxIdleConns)
	assert.Equal(t, 2, cfg.HTTPClientSettings.MaxIdleConnsPerHost)
	assert.Equal(t, 15*time.Second, cfg.HTTPClientSettings.DialerTimeout)

	assert.True(t, containsWarning(warnings, "archive_page is empty"))
	assert.True(t, containsWarning(warnings, "state_dir is empty"))
	assert.True(t, containsWarning(warnings, "catalog.results_limit not set"))
}

func TestAppConfig_Validate_ValidConfig(t *testing.T) {
	cfg := AppConfig{
		TargetDomain: "freakonomics.com",
		ArchivePage:  "/archive/",
		CrawlDelay:   5 * time.Second,
		StateDir:     "/state",
		MaxRetries:   2,
		Catalog:      CatalogConfig{ResultsLimit: 3, LookupDelay: 100 * time.Millisecond},
	}

	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 5*time.Second, cfg.CrawlDelay)
	assert.Equal(t, 1*time.Second, cfg.InitialRetryDelay)
	assert.Equal(t, 30*time.Second, cfg.MaxRetryDelay)
}

func TestAppConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  AppConfig
	}{
		{"missing domain", AppConfig{}},
		{"blank domain", AppConfig{TargetDomain: "   "}},
		{"domain with path", AppConfig{TargetDomain: "example.com/archive"}},
		{"bad scheme", AppConfig{TargetDomain: "example.com", ArchiveScheme: "ftp"}},
		{"negative results limit", AppConfig{TargetDomain: "example.com", Catalog: CatalogConfig{ResultsLimit: -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, utils.ErrConfigValidation)
		})
	}
}

func TestAppConfig_Validate_NegativeValues(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(*AppConfig)
		wantWarning string
		check       func(*testing.T, *AppConfig)
	}{
		{
			name:        "negative crawl_delay",
			setup:       func(c *AppConfig) { c.CrawlDelay = -1 * time.Second },
			wantWarning: "crawl_delay cannot be negative",
			check: func(t *testing.T, c *AppConfig) {
				assert.Equal(t, time.Duration(0), c.CrawlDelay)
			},
		},
		{
			name:        "negative max_pages_per_run",
			setup:       func(c *AppConfig) { c.MaxPagesPerRun = -5 },
			wantWarning: "max_pages_per_run cannot be negative",
			check: func(t *testing.T, c *AppConfig) {
				assert.Equal(t, 0, c.MaxPagesPerRun)
			},
		},
		{
			name:        "negative max_retries",
			setup:       func(c *AppConfig) { c.MaxRetries = -1 },
			wantWarning: "max_retries cannot be negative",
			check: func(t *testing.T, c *AppConfig) {
				assert.Equal(t, 0, c.MaxRetries)
			},
		},
		{
			name:        "negative global_run_timeout",
			setup:       func(c *AppConfig) { c.GlobalRunTimeout = -1 * time.Second },
			wantWarning: "global_run_timeout cannot be negative",
			check: func(t *testing.T, c *AppConfig) {
				assert.Equal(t, time.Duration(0), c.GlobalRunTimeout)
			},
		},
		{
			name:        "negative lookup_delay",
			setup:       func(c *AppConfig) { c.Catalog.LookupDelay = -1 * time.Second },
			wantWarning: "catalog.lookup_delay cannot be negative",
			check: func(t *testing.T, c *AppConfig) {
				assert.Equal(t, time.Duration(0), c.Catalog.LookupDelay)
			},
		},
		{
			name:        "oversized results_limit",
			setup:       func(c *AppConfig) { c.Catalog.ResultsLimit = 500 },
			wantWarning: "exceeds the search maximum",
			check: func(t *testing.T, c *AppConfig) {
				assert.Equal(t, 50, c.Catalog.ResultsLimit)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AppConfig{TargetDomain: "example.com", StateDir: "/state", ArchivePage: "/archive/"}
			tt.setup(&cfg)

			warnings, err := cfg.Validate()

			require.NoError(t, err)
			assert.True(t, containsWarning(warnings, tt.wantWarning), "expected warning containing %q in %v", tt.wantWarning, warnings)
			tt.check(t, &cfg)
		})
	}
}

func TestAppConfig_Validate_RetryDelayClamp(t *testing.T) {
	cfg := AppConfig{
		TargetDomain:      "example.com",
		MaxRetries:        1,
		InitialRetryDelay: 10 * time.Second,
		MaxRetryDelay:     2 * time.Second,
	}

	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.True(t, containsWarning(warnings, "initial_retry_delay"))
	assert.Equal(t, 2*time.Second, cfg.InitialRetryDelay)
}

func containsWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
