package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestRobotsHandler_Allowed(t *testing.T) {
	var robotsHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		robotsHits.Add(1)
		io.WriteString(w, "User-agent: *\nDisallow: /private/\n")
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	fetcher, _ := newTestFetcher(0)
	rh := NewRobotsHandler(fetcher, "Mozilla/5.0", testLogger())
	ctx := context.Background()

	if !rh.Allowed(ctx, server.URL+"/podcast/ep1") {
		t.Error("expected /podcast/ep1 to be allowed")
	}
	if rh.Allowed(ctx, server.URL+"/private/ep2") {
		t.Error("expected /private/ep2 to be disallowed")
	}
	if robotsHits.Load() != 1 {
		t.Errorf("expected robots.txt to be fetched once and cached, got %d fetches", robotsHits.Load())
	}
}

func TestRobotsHandler_MissingRobotsAllowsAll(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	fetcher, _ := newTestFetcher(0)
	rh := NewRobotsHandler(fetcher, "Mozilla/5.0", testLogger())

	if !rh.Allowed(context.Background(), server.URL+"/private/ep") {
		t.Error("expected everything to be allowed when robots.txt is missing")
	}
}

func TestRobotsHandler_UnreachableHostAllowsAll(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	fetcher, _ := newTestFetcher(0)
	rh := NewRobotsHandler(fetcher, "Mozilla/5.0", testLogger())

	if !rh.Allowed(context.Background(), url+"/podcast/ep") {
		t.Error("expected allowed when robots.txt cannot be fetched")
	}
}
