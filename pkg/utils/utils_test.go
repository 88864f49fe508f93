package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
)

// --- CategorizeError Tests ---

func TestCategorizeError_NilError(t *testing.T) {
	result := CategorizeError(nil)
	if result != "None" {
		t.Errorf("CategorizeError(nil) = %q, want %q", result, "None")
	}
}

func TestCategorizeError_SentinelErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"ArchiveFetch", ErrArchiveFetch, "Fetch_Archive"},
		{"RobotsDisallowed", ErrRobotsDisallowed, "Policy_Robots"},
		{"RequestCreation", ErrRequestCreation, "Internal_RequestCreation"},
		{"ResponseBodyRead", ErrResponseBodyRead, "Network_BodyRead"},
		{"Parsing", ErrParsing, "Content_Parsing"},
		{"CatalogSearch", ErrCatalogSearch, "Catalog_Search"},
		{"Credentials", ErrCredentials, "Config_Credentials"},
		{"ConfigValidation", ErrConfigValidation, "Config_Validation"},
		{"StoreLoad", ErrStoreLoad, "Store_Load_Other"},
		{"StoreSave", ErrStoreSave, "Store_Save_Other"},
		{"Fetch", ErrFetch, "Fetch_Other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CategorizeError(tt.err)
			if result != tt.expected {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestCategorizeError_WrappedErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "ArchiveFetchWrappingFetch",
			err:      fmt.Errorf("%w: %w", ErrArchiveFetch, fmt.Errorf("%w: boom", ErrFetch)),
			expected: "Fetch_Archive",
		},
		{
			name:     "StoreLoadNotExist",
			err:      fmt.Errorf("%w: %w", ErrStoreLoad, os.ErrNotExist),
			expected: "Store_Load_NotExist",
		},
		{
			name:     "StoreSavePermission",
			err:      fmt.Errorf("%w: %w", ErrStoreSave, os.ErrPermission),
			expected: "Store_Save_Permission",
		},
		{
			name:     "StoreLoadJSON",
			err:      fmt.Errorf("%w: invalid JSON in visited.json", ErrStoreLoad),
			expected: "Store_Load_JSON",
		},
		{
			name:     "CatalogRateLimited",
			err:      fmt.Errorf("%w: status 429", ErrCatalogSearch),
			expected: "Catalog_RateLimited",
		},
		{
			name:     "FetchTimeoutString",
			err:      fmt.Errorf("%w: i/o timeout", ErrFetch),
			expected: "Network_TimeoutGeneric",
		},
		{
			name:     "FetchConnectionRefused",
			err:      fmt.Errorf("%w: dial tcp: connection refused", ErrFetch),
			expected: "Network_ConnectionRefused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CategorizeError(tt.err)
			if result != tt.expected {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestCategorizeError_ContextErrors(t *testing.T) {
	if got := CategorizeError(context.Canceled); got != "System_ContextCanceled" {
		t.Errorf("CategorizeError(Canceled) = %q", got)
	}
	if got := CategorizeError(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)); got != "System_ContextDeadlineExceeded" {
		t.Errorf("CategorizeError(DeadlineExceeded) = %q", got)
	}
}

func TestCategorizeError_NetworkStrings(t *testing.T) {
	tests := []struct {
		msg      string
		expected string
	}{
		{"lookup example.invalid: no such host", "Network_DNSLookup"},
		{"tls: handshake failure", "Network_TLS"},
		{"read: connection reset by peer", "Network_ConnectionReset"},
	}
	for _, tt := range tests {
		if got := CategorizeError(errors.New(tt.msg)); got != tt.expected {
			t.Errorf("CategorizeError(%q) = %q, want %q", tt.msg, got, tt.expected)
		}
	}
}

func TestCategorizeError_Unknown(t *testing.T) {
	if got := CategorizeError(errors.New("something odd")); got != "Unknown" {
		t.Errorf("CategorizeError(unknown) = %q, want Unknown", got)
	}
}

// --- CompileRegexPatterns Tests ---

func TestCompileRegexPatterns_ValidPatterns(t *testing.T) {
	patterns := []string{
		`(?i)https?://(?:www\.)?site\.com/podcast/[a-z0-9_-]*`,
		`\.html$`,
		`[a-z]+`,
	}

	compiled, err := CompileRegexPatterns(patterns)
	if err != nil {
		t.Fatalf("CompileRegexPatterns() unexpected error: %v", err)
	}
	if len(compiled) != 3 {
		t.Errorf("CompileRegexPatterns() returned %d patterns, want 3", len(compiled))
	}
}

func TestCompileRegexPatterns_EmptyStringsSkipped(t *testing.T) {
	patterns := []string{"valid", "", "also_valid", ""}

	compiled, err := CompileRegexPatterns(patterns)
	if err != nil {
		t.Fatalf("CompileRegexPatterns() unexpected error: %v", err)
	}
	if len(compiled) != 2 {
		t.Errorf("CompileRegexPatterns() returned %d patterns, want 2", len(compiled))
	}
}

func TestCompileRegexPatterns_InvalidPattern(t *testing.T) {
	patterns := []string{
		`valid`,
		`[invalid`, // Unclosed bracket
	}

	_, err := CompileRegexPatterns(patterns)
	if err == nil {
		t.Fatal("CompileRegexPatterns() expected error for invalid pattern, got nil")
	}
	if !errors.Is(err, ErrConfigValidation) {
		t.Errorf("CompileRegexPatterns() error = %v, want wrapped ErrConfigValidation", err)
	}
}
