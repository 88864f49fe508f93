package fetch

import (
	"context"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

// RobotsHandler fetches, parses and caches robots.txt per host
type RobotsHandler struct {
	fetcher     PageFetcher
	userAgent   string
	robotsCache map[string]*robotstxt.RobotsData // hostname -> parsed data (or nil)
	mu          sync.Mutex
	log         *logrus.Entry
}

// NewRobotsHandler creates a RobotsHandler
func NewRobotsHandler(fetcher PageFetcher, userAgent string, log *logrus.Entry) *RobotsHandler {
	return &RobotsHandler{
		fetcher:     fetcher,
		userAgent:   userAgent,
		robotsCache: make(map[string]*robotstxt.RobotsData),
		log:         log,
	}
}

// GetRobotsData retrieves robots.txt data for the targetURL's host, using cache or fetching
// Returns parsed data or nil on any error/non-2xx/missing file
func (rh *RobotsHandler) GetRobotsData(ctx context.Context, targetURL *url.URL) *robotstxt.RobotsData {
	host := targetURL.Host
	hostLog := rh.log.WithField("host", host)

	rh.mu.Lock()
	robotsData, found := rh.robotsCache[host]
	rh.mu.Unlock()
	if found {
		return robotsData
	}

	robotsURL := &url.URL{Scheme: targetURL.Scheme, Host: host, Path: "/robots.txt"}
	if targetURL.Scheme != "http" && targetURL.Scheme != "https" {
		robotsURL.Scheme = "https"
	}
	robotsLog := hostLog.WithField("robots_url", robotsURL.String())
	robotsLog.Info("Fetching robots.txt...")

	page, err := rh.fetcher.Fetch(ctx, robotsURL.String(), 0, "")
	if err != nil {
		robotsLog.Warnf("Fetching robots.txt failed, assuming allowed: %v", err)
		rh.cache(host, nil)
		return nil
	}

	data, err := robotstxt.FromStatusAndString(page.StatusCode, page.Body)
	if err != nil {
		robotsLog.Warnf("Error parsing robots.txt, assuming allowed: %v", err)
		rh.cache(host, nil)
		return nil
	}

	robotsLog.WithField("status_code", page.StatusCode).Info("Parsed robots.txt")
	rh.cache(host, data)
	return data
}

// Allowed reports whether the configured user agent may fetch rawURL
// Returns true if allowed or if robots data could not be obtained
func (rh *RobotsHandler) Allowed(ctx context.Context, rawURL string) bool {
	targetURL, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	robotsData := rh.GetRobotsData(ctx, targetURL)
	if robotsData == nil {
		return true
	}
	return robotsData.TestAgent(targetURL.RequestURI(), rh.userAgent)
}

func (rh *RobotsHandler) cache(host string, data *robotstxt.RobotsData) {
	rh.mu.Lock()
	rh.robotsCache[host] = data
	rh.mu.Unlock()
}
