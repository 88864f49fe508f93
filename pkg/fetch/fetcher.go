package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/podtags/pkg/config"
	"github.com/Sriram-PR/podtags/pkg/utils"
)

// maxBodyBytes caps how much of a page body is read into memory
const maxBodyBytes = 16 << 20

// Page is the result of a completed GET, whatever its status code
type Page struct {
	StatusCode int
	FinalURL   string // URL after redirects
	Header     http.Header
	Body       string
}

// Cookies returns the cookies set by the response
func (p *Page) Cookies() []*http.Cookie {
	resp := http.Response{Header: p.Header}
	return resp.Cookies()
}

// PageFetcher retrieves a single page
// A non-2xx status is a successful fetch; only transport-level failures return an error
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string, delay time.Duration, cookie string) (*Page, error)
}

// Fetcher performs politeness-delayed GET requests with a browser-like User-Agent
type Fetcher struct {
	client   *http.Client
	cfg      *config.AppConfig // Needed for user agent and retry settings
	throttle *Throttle
	log      *logrus.Entry
}

// NewFetcher creates a new Fetcher instance
func NewFetcher(client *http.Client, cfg *config.AppConfig, throttle *Throttle, log *logrus.Entry) *Fetcher {
	return &Fetcher{
		client:   client,
		cfg:      cfg,
		throttle: throttle,
		log:      log,
	}
}

// Fetch waits a randomized multiple of delay, then GETs rawURL
// cookie, when non-empty, is sent verbatim as the Cookie header
// Network errors are retried up to cfg.MaxRetries times with exponential backoff and jitter
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, delay time.Duration, cookie string) (*Page, error) {
	reqLog := f.log.WithField("url", rawURL)

	if err := f.throttle.Wait(ctx, delay); err != nil {
		return nil, fmt.Errorf("%w: cancelled during politeness delay: %w", utils.ErrFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrRequestCreation, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	var lastErr error
	maxRetries := f.cfg.MaxRetries
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			finalDelay := f.backoff(attempt)
			reqLog.WithFields(logrus.Fields{"attempt": attempt, "max_retries": maxRetries, "delay": finalDelay}).Warn("Retrying request...")
			if err := sleepContext(ctx, finalDelay); err != nil {
				return nil, fmt.Errorf("%w: context cancelled (%v) during retry delay after error: %w", utils.ErrFetch, err, lastErr)
			}
		}

		var resp *http.Response
		resp, lastErr = f.client.Do(req)
		if lastErr != nil {
			// Do not retry context errors
			if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %w", utils.ErrFetch, lastErr)
			}
			reqLog.WithField("attempt", attempt).Warnf("Network error: %v", lastErr)
			continue
		}

		page, readErr := readPage(resp)
		if readErr != nil {
			lastErr = readErr
			reqLog.WithField("attempt", attempt).Warnf("Body read error: %v", readErr)
			continue
		}

		reqLog.WithFields(logrus.Fields{"status_code": page.StatusCode, "final_url": page.FinalURL}).Debug("Fetched")
		return page, nil
	}

	return nil, fmt.Errorf("%w: after %d attempt(s): %w", utils.ErrFetch, maxRetries+1, lastErr)
}

// backoff computes initial * 2^(attempt-1), capped by MaxRetryDelay, with +/- 10% jitter
func (f *Fetcher) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(f.cfg.InitialRetryDelay) * math.Pow(2, float64(attempt-1)))
	if delay <= 0 || (f.cfg.MaxRetryDelay > 0 && delay > f.cfg.MaxRetryDelay) {
		delay = f.cfg.MaxRetryDelay
	}
	var jitter time.Duration
	if delay/5 > 0 {
		jitter = time.Duration(rand.Int63n(int64(delay)/5)) - (delay / 10)
	}
	if finalDelay := delay + jitter; finalDelay > 0 {
		return finalDelay
	}
	return 0
}

func readPage(resp *http.Response) (*Page, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrResponseBodyRead, err)
	}

	finalURL := ""
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Page{
		StatusCode: resp.StatusCode,
		FinalURL:   finalURL,
		Header:     resp.Header,
		Body:       strings.ToValidUTF8(string(body), "�"),
	}, nil
}

// CookieHeader renders response cookies as a request Cookie header value
func CookieHeader(cookies []*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		parts = append(parts, (&http.Cookie{Name: c.Name, Value: c.Value}).String())
	}
	return strings.Join(parts, "; ")
}
