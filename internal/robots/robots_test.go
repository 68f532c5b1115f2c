package robots

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestAllowedRespectsDisallow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, "User-agent: *\nDisallow: /private/\n")
	}))
	defer srv.Close()

	gate := NewGate(srv.Client(), "seoapp-test", time.Second, testLogger())
	ctx := context.Background()

	if !gate.Allowed(ctx, mustParse(t, srv.URL+"/public")) {
		t.Error("expected /public to be allowed")
	}
	if gate.Allowed(ctx, mustParse(t, srv.URL+"/private/page")) {
		t.Error("expected /private/page to be denied")
	}
}

func TestDisallowAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "User-agent: *\nDisallow: /\n")
	}))
	defer srv.Close()

	gate := NewGate(srv.Client(), "seoapp-test", time.Second, testLogger())
	if gate.Allowed(context.Background(), mustParse(t, srv.URL+"/")) {
		t.Error("expected root to be denied")
	}
}

func TestFailOpenOnFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	gate := NewGate(srv.Client(), "seoapp-test", time.Second, testLogger())
	if !gate.Allowed(context.Background(), mustParse(t, srv.URL+"/anything")) {
		t.Error("expected fail-open on robots.txt server error")
	}
}

func TestFailOpenOnUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := srv.URL
	srv.Close() // nothing listens any more

	gate := NewGate(&http.Client{}, "seoapp-test", 500*time.Millisecond, testLogger())
	if !gate.Allowed(context.Background(), mustParse(t, target+"/page")) {
		t.Error("expected fail-open on unreachable host")
	}
}

func TestPolicyCachedPerOrigin(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, "User-agent: *\nAllow: /\n")
	}))
	defer srv.Close()

	gate := NewGate(srv.Client(), "seoapp-test", time.Second, testLogger())
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		gate.Allowed(ctx, mustParse(t, srv.URL+"/page"))
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("robots.txt fetched %d times, want 1", got)
	}
}

func TestConcurrentMissFetchesOnce(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(50 * time.Millisecond) // hold the fetch open so misses pile up
		io.WriteString(w, "User-agent: *\nDisallow: /private/\n")
	}))
	defer srv.Close()

	gate := NewGate(srv.Client(), "seoapp-test", time.Second, testLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	denied := make([]bool, 8)
	for i := range denied {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			denied[i] = !gate.Allowed(ctx, mustParse(t, srv.URL+"/private/page"))
		}(i)
	}
	wg.Wait()

	if got := hits.Load(); got != 1 {
		t.Errorf("robots.txt fetched %d times under concurrent misses, want 1", got)
	}
	for i, d := range denied {
		if !d {
			t.Errorf("call %d was allowed, want denied by the shared policy", i)
		}
	}
}

func TestFailureIsCached(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	gate := NewGate(srv.Client(), "seoapp-test", time.Second, testLogger())
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if !gate.Allowed(ctx, mustParse(t, srv.URL+"/page")) {
			t.Fatal("expected fail-open")
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("robots.txt fetched %d times after failure, want 1 (fail-open result should be cached)", got)
	}
}
