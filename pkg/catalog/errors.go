package catalog

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Sriram-PR/podtags/pkg/utils"
)

// SearchError wraps a failed catalog search
// It matches both utils.ErrCatalogSearch and the original error with errors.Is
type SearchError struct {
	Query       string
	RateLimited bool
	Original    error
}

func (e *SearchError) Error() string {
	kind := "search failed"
	if e.RateLimited {
		kind = "rate limited (429)"
	}
	if e.Original != nil {
		return fmt.Sprintf("catalog %s for %q: %v", kind, e.Query, e.Original)
	}
	return fmt.Sprintf("catalog %s for %q", kind, e.Query)
}

func (e *SearchError) Unwrap() []error {
	if e.Original == nil {
		return []error{utils.ErrCatalogSearch}
	}
	return []error{utils.ErrCatalogSearch, e.Original}
}

// newSearchError classifies err, flagging HTTP 429 responses as rate limiting
func newSearchError(query string, err error) *SearchError {
	return &SearchError{Query: query, RateLimited: isRateLimitError(err), Original: err}
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if httpErr, ok := err.(interface{ StatusCode() int }); ok {
		return httpErr.StatusCode() == http.StatusTooManyRequests
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}
