package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pgnikolov/seoapp/pkg/types"
)

func page(title string, links ...string) string {
	body := "<html><head><title>" + title + "</title></head><body>"
	for _, l := range links {
		body += fmt.Sprintf(`<a href=%q>%s</a>`, l, l)
	}
	return body + "</body></html>"
}

// fakeSite serves a small linked site and counts requests per path.
func fakeSite(t *testing.T, pages map[string]string, robotsBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			if robotsBody == "" {
				http.NotFound(w, r)
				return
			}
			fmt.Fprint(w, robotsBody)
			return
		}
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testEngine() *Engine {
	return New(Options{Concurrency: 2, Delay: 0}, nil)
}

func crawlSite(t *testing.T, srv *httptest.Server, target types.CrawlTarget) ([]types.PageRecord, error) {
	t.Helper()
	seed, err := url.Parse(srv.URL + "/")
	if err != nil {
		t.Fatalf("parse seed: %v", err)
	}
	target.StartURL = seed
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return testEngine().Crawl(ctx, target)
}

func corpusPaths(records []types.PageRecord) []string {
	paths := make([]string, 0, len(records))
	for _, r := range records {
		u, _ := url.Parse(r.URL)
		path := u.Path
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func TestCrawlFollowsLinksWithinDomain(t *testing.T) {
	srv := fakeSite(t, map[string]string{
		"/":  page("Home", "/a", "/b"),
		"/a": page("A", "/c"),
		"/b": page("B"),
		"/c": page("C"),
	}, "")

	records, err := crawlSite(t, srv, types.CrawlTarget{
		MaxPages: 10, MaxDepth: 3, Mode: types.ModeDomain,
	})
	if err != nil {
		t.Fatalf("crawl: %v", err)
	}
	got := corpusPaths(records)
	want := []string{"/", "/a", "/b", "/c"}
	if len(got) != len(want) {
		t.Fatalf("corpus paths = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("corpus paths = %v, want %v", got, want)
		}
	}
	if records[0].Title != "Home" {
		t.Errorf("seed title = %q, want Home", records[0].Title)
	}
}

func TestCrawlRespectsPageBudget(t *testing.T) {
	pages := map[string]string{}
	var links []string
	for i := 0; i < 20; i++ {
		path := fmt.Sprintf("/p%02d", i)
		links = append(links, path)
		pages[path] = page(fmt.Sprintf("Page %d", i))
	}
	pages["/"] = page("Home", links...)
	srv := fakeSite(t, pages, "")

	records, err := crawlSite(t, srv, types.CrawlTarget{
		MaxPages: 5, MaxDepth: 2, Mode: types.ModeDomain,
	})
	if err != nil {
		t.Fatalf("crawl: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("corpus size = %d, want 5", len(records))
	}
}

func TestCrawlRespectsDepthLimit(t *testing.T) {
	srv := fakeSite(t, map[string]string{
		"/":      page("Home", "/one"),
		"/one":   page("One", "/two"),
		"/two":   page("Two", "/three"),
		"/three": page("Three"),
	}, "")

	records, err := crawlSite(t, srv, types.CrawlTarget{
		MaxPages: 10, MaxDepth: 1, Mode: types.ModeDomain,
	})
	if err != nil {
		t.Fatalf("crawl: %v", err)
	}
	got := corpusPaths(records)
	if len(got) != 2 {
		t.Fatalf("corpus paths = %v, want seed plus one level", got)
	}
	for _, r := range records {
		if r.Depth > 1 {
			t.Errorf("page %s at depth %d, want <= 1", r.URL, r.Depth)
		}
	}
}

func TestCrawlDeduplicatesURLVariants(t *testing.T) {
	srv := fakeSite(t, map[string]string{
		"/":      page("Home", "/page", "/page/", "/page#section"),
		"/page":  page("Page"),
		"/page/": page("Page"),
	}, "")

	records, err := crawlSite(t, srv, types.CrawlTarget{
		MaxPages: 10, MaxDepth: 1, Mode: types.ModeDomain,
	})
	if err != nil {
		t.Fatalf("crawl: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("corpus size = %d, want 2 (seed and one /page)", len(records))
	}
}

func TestCrawlSingleModeFetchesOnlySeed(t *testing.T) {
	srv := fakeSite(t, map[string]string{
		"/":  page("Home", "/a", "/b"),
		"/a": page("A"),
		"/b": page("B"),
	}, "")

	records, err := crawlSite(t, srv, types.CrawlTarget{
		MaxPages: 10, MaxDepth: 2, Mode: types.ModeSingle,
	})
	if err != nil {
		t.Fatalf("crawl: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("corpus size = %d, want 1", len(records))
	}
	if records[0].Title != "Home" {
		t.Errorf("title = %q, want Home", records[0].Title)
	}
}

func TestCrawlRobotsDisallowAllReturnsErrNoPages(t *testing.T) {
	srv := fakeSite(t, map[string]string{
		"/": page("Home"),
	}, "User-agent: *\nDisallow: /\n")

	_, err := crawlSite(t, srv, types.CrawlTarget{
		MaxPages: 10, MaxDepth: 1, Mode: types.ModeDomain,
	})
	if !errors.Is(err, ErrNoPages) {
		t.Fatalf("err = %v, want ErrNoPages", err)
	}
}

func TestCrawlUnreachableHostReturnsErrNoPages(t *testing.T) {
	seed, _ := url.Parse("http://127.0.0.1:1/")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := testEngine().Crawl(ctx, types.CrawlTarget{
		StartURL: seed, MaxPages: 5, MaxDepth: 1, Mode: types.ModeDomain,
	})
	if !errors.Is(err, ErrNoPages) {
		t.Fatalf("err = %v, want ErrNoPages", err)
	}
}

func TestCrawlSkipsOffsiteLinks(t *testing.T) {
	srv := fakeSite(t, map[string]string{
		"/":      page("Home", "https://elsewhere.example/", "/local"),
		"/local": page("Local"),
	}, "")

	records, err := crawlSite(t, srv, types.CrawlTarget{
		MaxPages: 10, MaxDepth: 1, Mode: types.ModeDomain,
	})
	if err != nil {
		t.Fatalf("crawl: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("corpus size = %d, want 2", len(records))
	}
}

func TestCrawlBoundsConcurrentFetches(t *testing.T) {
	var inFlight, peak atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.URL.Path == "/" {
			links := make([]string, 0, 12)
			for i := 0; i < 12; i++ {
				links = append(links, fmt.Sprintf("/p%02d", i))
			}
			fmt.Fprint(w, page("Home", links...))
			return
		}
		fmt.Fprint(w, page("Page"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	records, err := crawlSite(t, srv, types.CrawlTarget{
		MaxPages: 13, MaxDepth: 1, Mode: types.ModeDomain,
	})
	if err != nil {
		t.Fatalf("crawl: %v", err)
	}
	if len(records) != 13 {
		t.Fatalf("corpus size = %d, want 13", len(records))
	}
	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrent fetches = %d, want at most 2", got)
	}
}

func TestCrawlValidatesTarget(t *testing.T) {
	seed, _ := url.Parse("https://example.com/")
	cases := []struct {
		name   string
		target types.CrawlTarget
	}{
		{"nil seed", types.CrawlTarget{MaxPages: 1, Mode: types.ModeDomain}},
		{"zero pages", types.CrawlTarget{StartURL: seed, Mode: types.ModeDomain}},
		{"negative depth", types.CrawlTarget{StartURL: seed, MaxPages: 1, MaxDepth: -1, Mode: types.ModeDomain}},
		{"bad mode", types.CrawlTarget{StartURL: seed, MaxPages: 1, Mode: types.Mode("cluster")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := testEngine().Crawl(context.Background(), tc.target); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
