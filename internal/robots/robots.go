// Package robots answers "may this URL be fetched" using per-host robots.txt
// policy. Policies are cached per origin for the lifetime of one Gate.
package robots

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

var allowAll, _ = robotstxt.FromBytes(nil)

// Gate evaluates robots.txt rules with per-origin caching. On any fetch or
// parse failure a permissive policy is cached so a crawl never stalls on an
// unreachable robots.txt (fail-open).
type Gate struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	logger    *slog.Logger

	mu       sync.RWMutex
	cache    map[string]*robotstxt.RobotsData
	inflight map[string]chan struct{}
}

// NewGate constructs a gate. The HTTP client is typically shared with the
// page fetcher; a nil client gets a default one.
func NewGate(client *http.Client, userAgent string, timeout time.Duration, logger *slog.Logger) *Gate {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		client:    client,
		userAgent: userAgent,
		timeout:   timeout,
		logger:    logger,
		cache:     make(map[string]*robotstxt.RobotsData),
		inflight:  make(map[string]chan struct{}),
	}
}

// Allowed reports whether the target URL is permitted for the configured
// user agent.
func (g *Gate) Allowed(ctx context.Context, target *url.URL) bool {
	if target == nil || !target.IsAbs() {
		return false
	}

	rules := g.rules(ctx, target)
	group := rules.FindGroup(g.userAgent)
	if group == nil {
		group = rules.FindGroup("*")
		if group == nil {
			return true
		}
	}
	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	if target.RawQuery != "" {
		path += "?" + target.RawQuery
	}
	return group.Test(path)
}

// rules returns the cached policy for the target's origin, fetching it at
// most once per origin: concurrent first misses elect one fetcher and the
// rest wait for its result.
func (g *Gate) rules(ctx context.Context, target *url.URL) *robotstxt.RobotsData {
	origin := strings.ToLower(target.Scheme) + "://" + strings.ToLower(target.Host)

	g.mu.RLock()
	rules, ok := g.cache[origin]
	g.mu.RUnlock()
	if ok {
		return rules
	}

	g.mu.Lock()
	if rules, ok := g.cache[origin]; ok {
		g.mu.Unlock()
		return rules
	}
	if done, fetching := g.inflight[origin]; fetching {
		g.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			// Not cached: the elected fetch may still complete.
			return allowAll
		}
		g.mu.RLock()
		rules := g.cache[origin]
		g.mu.RUnlock()
		if rules == nil {
			return allowAll
		}
		return rules
	}
	done := make(chan struct{})
	g.inflight[origin] = done
	g.mu.Unlock()

	rules = g.fetch(ctx, origin)

	g.mu.Lock()
	g.cache[origin] = rules
	delete(g.inflight, origin)
	g.mu.Unlock()
	close(done)
	return rules
}

func (g *Gate) fetch(ctx context.Context, origin string) *robotstxt.RobotsData {
	fetchCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return allowAll
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("robots.txt fetch failed", "origin", origin, "error", err)
		return allowAll
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return allowAll
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		g.logger.Warn("robots.txt read failed", "origin", origin, "error", err)
		return allowAll
	}
	rules, err := robotstxt.FromBytes(body)
	if err != nil {
		g.logger.Warn("robots.txt parse failed", "origin", origin, "error", err)
		return allowAll
	}
	return rules
}
