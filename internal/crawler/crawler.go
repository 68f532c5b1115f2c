// Package crawler walks a site breadth-first from a seed URL, honoring
// robots.txt and a politeness delay, and collects the zoned text of every
// page it fetches within the configured page and depth budgets.
package crawler

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pgnikolov/seoapp/internal/extractor"
	"github.com/pgnikolov/seoapp/internal/fetcher"
	"github.com/pgnikolov/seoapp/internal/robots"
	"github.com/pgnikolov/seoapp/internal/urlutil"
	"github.com/pgnikolov/seoapp/pkg/types"
)

// ErrNoPages reports a crawl that finished without a single page in the
// corpus, usually a robots.txt denial on the seed or an unreachable host.
var ErrNoPages = errors.New("no pages fetched: site blocked crawling or is unreachable")

// ProgressEvent describes one page entering the corpus.
type ProgressEvent struct {
	URL     string
	Depth   int
	Fetched int
}

// Options tunes a crawl engine. Zero values fall back to conservative
// defaults.
type Options struct {
	UserAgent       string
	Concurrency     int
	Delay           time.Duration
	RequestTimeout  time.Duration
	RobotsTimeout   time.Duration
	MaxBodyBytes    int64
	MaxLinksPerPage int

	// Progress, when set, is called once per collected page. It must be
	// safe for concurrent use.
	Progress func(ProgressEvent)
}

func (o *Options) normalise() {
	if o.UserAgent == "" {
		o.UserAgent = "SEOAppCrawler/1.0"
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 10 * time.Second
	}
	if o.RobotsTimeout <= 0 {
		o.RobotsTimeout = 5 * time.Second
	}
}

// Engine crawls one target per Crawl call. An Engine is safe to reuse
// sequentially; the robots cache and visited set are per crawl.
type Engine struct {
	opts    Options
	fetcher *fetcher.Client
	logger  *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Engine {
	opts.normalise()
	if logger == nil {
		logger = slog.Default()
	}
	client := fetcher.New(fetcher.Options{
		UserAgent:    opts.UserAgent,
		Timeout:      opts.RequestTimeout,
		MaxBodyBytes: opts.MaxBodyBytes,
	})
	return &Engine{opts: opts, fetcher: client, logger: logger}
}

type run struct {
	engine  *Engine
	target  types.CrawlTarget
	scope   extractor.Scope
	gate    *robots.Gate
	limiter *throttle
	front   *frontier
	pending atomic.Int64

	mu         sync.Mutex
	visited    map[string]struct{}
	corpusSeen map[string]struct{}
	corpus     []types.PageRecord
}

// Crawl runs the BFS and returns the collected corpus in completion order.
// It returns ErrNoPages when nothing could be fetched and the context error
// when cancelled.
func (e *Engine) Crawl(ctx context.Context, target types.CrawlTarget) ([]types.PageRecord, error) {
	if target.StartURL == nil {
		return nil, errors.New("crawl: start URL is required")
	}
	if !urlutil.IsValid(target.StartURL) {
		return nil, errors.New("crawl: start URL must be absolute http or https")
	}
	if target.MaxPages < 1 {
		return nil, errors.New("crawl: max pages must be at least 1")
	}
	if target.MaxDepth < 0 {
		return nil, errors.New("crawl: max depth must not be negative")
	}
	if !target.Mode.Valid() {
		return nil, errors.New("crawl: unknown mode")
	}

	r := &run{
		engine: e,
		target: target,
		scope: extractor.Scope{
			Base:              target.StartURL,
			IncludeSubdomains: target.IncludeSubdomains,
		},
		gate:       robots.NewGate(e.fetcher.HTTPClient(), e.opts.UserAgent, e.opts.RobotsTimeout, e.logger),
		limiter:    newThrottle(e.opts.Delay),
		front:      newFrontier(),
		visited:    make(map[string]struct{}),
		corpusSeen: make(map[string]struct{}),
	}

	r.enqueue(target.StartURL, 0)

	// Cancellation closes the frontier so workers blocked in Pop wake up;
	// entries already queued drain through process, which returns early
	// once the context is done.
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			r.front.Close()
		case <-stop:
		}
	}()

	var workers sync.WaitGroup
	for i := 0; i < e.opts.Concurrency; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for {
				entry, ok := r.front.Pop()
				if !ok {
					return
				}
				r.process(ctx, entry)
			}
		}()
	}
	workers.Wait()
	close(stop)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	corpus := r.corpus
	r.mu.Unlock()
	if len(corpus) == 0 {
		return nil, ErrNoPages
	}
	return corpus, nil
}

// enqueue marks a URL visited and queues it for fetch. Marking happens here,
// before the fetch, so the same URL can never be queued twice no matter how
// many pages link to it.
func (r *run) enqueue(u *url.URL, depth int) {
	key := urlutil.NormalizeURL(u)
	r.mu.Lock()
	if _, seen := r.visited[key]; seen {
		r.mu.Unlock()
		return
	}
	if len(r.corpus) >= r.target.MaxPages {
		r.mu.Unlock()
		return
	}
	r.visited[key] = struct{}{}
	r.mu.Unlock()

	canonical, err := url.Parse(key)
	if err != nil {
		return
	}
	r.pending.Add(1)
	if !r.front.Push(frontierEntry{url: canonical, depth: depth}) {
		r.finish()
	}
}

// finish marks one queued page as fully handled. The crawl ends when the
// pending count drains to zero.
func (r *run) finish() {
	if r.pending.Add(-1) == 0 {
		r.front.Close()
	}
}

func (r *run) process(ctx context.Context, entry frontierEntry) {
	defer r.finish()

	e := r.engine
	logger := e.logger.With("url", entry.url.String(), "depth", entry.depth)

	if ctx.Err() != nil {
		return
	}
	r.mu.Lock()
	full := len(r.corpus) >= r.target.MaxPages
	r.mu.Unlock()
	if full {
		return
	}

	if !r.gate.Allowed(ctx, entry.url) {
		logger.Debug("skipping URL disallowed by robots.txt")
		return
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return
	}

	page, err := e.fetcher.Fetch(ctx, entry.url)
	if err != nil {
		logger.Warn("fetch failed", "error", err)
		return
	}

	zones, err := extractor.Extract(page.Body, page.FinalURL, r.scope, extractor.Options{
		MaxLinksPerPage: e.opts.MaxLinksPerPage,
	})
	if err != nil {
		logger.Warn("extraction failed", "error", err)
		return
	}

	record := types.PageRecord{
		URL:             urlutil.NormalizeURL(page.FinalURL),
		Title:           zones.Title,
		MetaDescription: zones.MetaDescription,
		H1:              zones.H1,
		H2:              zones.H2,
		H3:              zones.H3,
		Body:            zones.Body,
		Links:           zones.Links,
		Depth:           entry.depth,
		FetchedAt:       page.FetchedAt,
	}

	r.mu.Lock()
	if len(r.corpus) >= r.target.MaxPages {
		r.mu.Unlock()
		return
	}
	// Redirects can land two queued URLs on the same final page; keep the
	// corpus unique under normalization.
	if _, dup := r.corpusSeen[record.URL]; dup {
		r.mu.Unlock()
		return
	}
	r.corpusSeen[record.URL] = struct{}{}
	r.visited[record.URL] = struct{}{}
	r.corpus = append(r.corpus, record)
	fetched := len(r.corpus)
	budgetReached := fetched >= r.target.MaxPages
	r.mu.Unlock()

	logger.Info("page collected", "fetched", fetched, "links", len(record.Links))
	if e.opts.Progress != nil {
		e.opts.Progress(ProgressEvent{URL: record.URL, Depth: entry.depth, Fetched: fetched})
	}

	if budgetReached || r.target.Mode != types.ModeDomain || entry.depth >= r.target.MaxDepth {
		return
	}
	for _, link := range record.Links {
		child, err := url.Parse(link.URL)
		if err != nil {
			continue
		}
		r.enqueue(child, entry.depth+1)
	}
}
