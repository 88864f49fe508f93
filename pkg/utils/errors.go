package utils

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrFetch            = errors.New("fetch failed")           // Wraps the underlying transport error
	ErrArchiveFetch     = errors.New("archive fetch failed")   // The index page could not be retrieved
	ErrRequestCreation  = errors.New("failed to create HTTP request")
	ErrResponseBodyRead = errors.New("failed to read response body")
	ErrRobotsDisallowed = errors.New("disallowed by robots.txt")
	ErrStoreLoad        = errors.New("store load error") // Wraps os/json errors
	ErrStoreSave        = errors.New("store save error") // Wraps os/json errors
	ErrParsing          = errors.New("parsing error")
	ErrCatalogSearch    = errors.New("catalog search error")
	ErrCredentials      = errors.New("catalog credentials error")
	ErrConfigValidation = errors.New("configuration validation error")
)

// CategorizeError maps an error to a predefined category string for logging.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrArchiveFetch):
		return "Fetch_Archive"
	case errors.Is(err, ErrRequestCreation):
		return "Internal_RequestCreation"
	case errors.Is(err, ErrResponseBodyRead):
		return "Network_BodyRead"
	case errors.Is(err, ErrRobotsDisallowed):
		return "Policy_Robots"
	case errors.Is(err, ErrStoreLoad), errors.Is(err, ErrStoreSave):
		prefix := "Store_Load"
		if errors.Is(err, ErrStoreSave) {
			prefix = "Store_Save"
		}
		if errors.Is(err, os.ErrPermission) {
			return prefix + "_Permission"
		}
		if errors.Is(err, os.ErrNotExist) {
			return prefix + "_NotExist"
		}
		if strings.Contains(err.Error(), "JSON") || strings.Contains(err.Error(), "json") {
			return prefix + "_JSON"
		}
		return prefix + "_Other"
	case errors.Is(err, ErrParsing):
		return "Content_Parsing"
	case errors.Is(err, ErrCatalogSearch):
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "429") || strings.Contains(errMsg, "rate limit") {
			return "Catalog_RateLimited"
		}
		return "Catalog_Search"
	case errors.Is(err, ErrCredentials):
		return "Config_Credentials"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	}

	// --- Fallback checks for common underlying error types/strings ---
	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Network_Timeout"
	}
	lowerErrMsg := strings.ToLower(err.Error())
	if strings.Contains(lowerErrMsg, "timeout") {
		return "Network_TimeoutGeneric"
	}
	if strings.Contains(lowerErrMsg, "connection refused") {
		return "Network_ConnectionRefused"
	}
	if strings.Contains(lowerErrMsg, "no such host") {
		return "Network_DNSLookup"
	}
	if strings.Contains(lowerErrMsg, "tls") || strings.Contains(lowerErrMsg, "certificate") {
		return "Network_TLS"
	}
	if strings.Contains(lowerErrMsg, "reset by peer") {
		return "Network_ConnectionReset"
	}
	if errors.Is(err, ErrFetch) {
		return "Fetch_Other"
	}

	return "Unknown"
}
