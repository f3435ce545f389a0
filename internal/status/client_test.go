package status_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jobwatch/internal/status"
)

func TestFetchSendsNoCacheHeaders(t *testing.T) {
	var seen http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status/job-42" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		seen = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"processing","stage_states":{}}`))
	}))
	defer server.Close()

	client := status.NewClient(server.URL, "token-9", 5*time.Second, nil)
	body, err := client.Fetch(context.Background(), "job-42")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(body) == 0 {
		t.Fatal("expected non-empty body")
	}
	if got := seen.Get("Cache-Control"); got != "no-cache, no-store, must-revalidate" {
		t.Fatalf("unexpected Cache-Control: %q", got)
	}
	if got := seen.Get("Pragma"); got != "no-cache" {
		t.Fatalf("unexpected Pragma: %q", got)
	}
	if got := seen.Get("Authorization"); got != "Bearer token-9" {
		t.Fatalf("unexpected Authorization: %q", got)
	}
}

func TestFetchReportsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer server.Close()

	client := status.NewClient(server.URL, "", 5*time.Second, nil)
	_, err := client.Fetch(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for 404")
	}
	code, ok := status.HTTPStatusCode(err)
	if !ok || code != http.StatusNotFound {
		t.Fatalf("expected HTTPError 404, got %v", err)
	}
	if errors.Is(err, status.ErrNetwork) {
		t.Fatal("HTTP errors must not be classified as network failures")
	}
}

func TestFetchReportsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := status.NewClient(server.URL, "", time.Second, nil)
	_, err := client.Fetch(context.Background(), "job-1")
	if !errors.Is(err, status.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestFetchHonorsPerCallTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := status.NewClient(server.URL, "", 50*time.Millisecond, nil)
	start := time.Now()
	_, err := client.Fetch(context.Background(), "slow-job")
	if !errors.Is(err, status.ErrNetwork) {
		t.Fatalf("expected ErrNetwork on timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("per-call timeout not honored, took %v", elapsed)
	}
}

func TestFetchRejectsEmptyJobID(t *testing.T) {
	client := status.NewClient("http://localhost:1", "", time.Second, nil)
	if _, err := client.Fetch(context.Background(), "  "); !errors.Is(err, status.ErrNetwork) {
		t.Fatalf("expected ErrNetwork for empty job id, got %v", err)
	}
}
