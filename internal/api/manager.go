// Package api exposes the analysis service over HTTP: job submission,
// status, CSV export, and cancellation.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pgnikolov/seoapp/internal/config"
	"github.com/pgnikolov/seoapp/internal/crawler"
	"github.com/pgnikolov/seoapp/internal/jobstate"
	"github.com/pgnikolov/seoapp/internal/keywords"
	"github.com/pgnikolov/seoapp/internal/storage"
	"github.com/pgnikolov/seoapp/internal/urlutil"
	"github.com/pgnikolov/seoapp/pkg/types"
)

var (
	// ErrTooManyJobs reports that the concurrent job limit is reached.
	ErrTooManyJobs = errors.New("too many jobs running, retry later")
	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid analyze request")
)

// JobManager owns the lifecycle of analysis jobs: admission, the
// crawl-then-score pipeline, cancellation, and shutdown.
type JobManager struct {
	cfg       config.Config
	store     storage.Store
	snapshots jobstate.Store
	scorer    *keywords.Scorer
	logger    *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewJobManager wires a manager. snapshots may be nil to disable external
// job snapshots.
func NewJobManager(cfg config.Config, store storage.Store, snapshots jobstate.Store, logger *slog.Logger) *JobManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobManager{
		cfg:       cfg,
		store:     store,
		snapshots: snapshots,
		scorer: keywords.NewScorer(keywords.Options{
			DefaultLanguage: cfg.Score.DefaultLanguage,
			MaxResults:      cfg.Score.MaxResults,
		}),
		logger:  logger,
		cancels: make(map[string]context.CancelFunc),
	}
}

// Submit validates the request, records a pending job, and starts its
// pipeline in the background.
func (m *JobManager) Submit(ctx context.Context, req AnalyzeRequest) (*storage.Job, error) {
	job, target, err := m.buildJob(req)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if len(m.cancels) >= m.cfg.Server.MaxConcurrentJobs {
		m.mu.Unlock()
		return nil, ErrTooManyJobs
	}
	// Reserve the slot before the store write so a burst of submissions
	// cannot overshoot the limit.
	jobCtx, cancel := context.WithCancel(context.Background())
	m.cancels[job.ID] = cancel
	m.mu.Unlock()

	if err := m.store.CreateJob(ctx, job); err != nil {
		m.release(job.ID)
		return nil, fmt.Errorf("create job: %w", err)
	}
	m.saveSnapshot(job, "")

	m.wg.Add(1)
	go m.runJob(jobCtx, job, target)
	return job, nil
}

func (m *JobManager) buildJob(req AnalyzeRequest) (*storage.Job, types.CrawlTarget, error) {
	var target types.CrawlTarget

	raw := strings.TrimSpace(req.URL)
	if raw == "" {
		return nil, target, fmt.Errorf("%w: url is required", ErrInvalidRequest)
	}
	seed, err := url.Parse(raw)
	if err != nil || !urlutil.IsValid(seed) {
		return nil, target, fmt.Errorf("%w: url must be absolute http or https", ErrInvalidRequest)
	}

	defaults := m.cfg.Crawl
	maxPages := req.MaxPages
	if maxPages <= 0 {
		maxPages = defaults.MaxPages
	}
	maxDepth := defaults.MaxDepth
	if req.MaxDepth != nil {
		maxDepth = *req.MaxDepth
	}
	if maxDepth < 0 {
		return nil, target, fmt.Errorf("%w: max_depth must be >= 0", ErrInvalidRequest)
	}
	mode := types.Mode(strings.ToLower(strings.TrimSpace(req.Mode)))
	if mode == "" {
		mode = types.Mode(defaults.Mode)
	}
	if !mode.Valid() {
		return nil, target, fmt.Errorf("%w: mode must be %q or %q", ErrInvalidRequest, types.ModeSingle, types.ModeDomain)
	}
	includeSubdomains := defaults.IncludeSubdomains
	if req.IncludeSubdomains != nil {
		includeSubdomains = *req.IncludeSubdomains
	}

	now := time.Now().UTC()
	job := &storage.Job{
		ID:                uuid.NewString(),
		URL:               raw,
		Status:            storage.StatusPending,
		Mode:              string(mode),
		MaxPages:          maxPages,
		MaxDepth:          maxDepth,
		IncludeSubdomains: includeSubdomains,
		Language:          strings.ToLower(strings.TrimSpace(req.Language)),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	target = types.CrawlTarget{
		StartURL:          seed,
		MaxPages:          maxPages,
		MaxDepth:          maxDepth,
		Mode:              mode,
		IncludeSubdomains: includeSubdomains,
	}
	return job, target, nil
}

func (m *JobManager) runJob(ctx context.Context, job *storage.Job, target types.CrawlTarget) {
	defer m.wg.Done()
	defer m.release(job.ID)

	logger := m.logger.With("job_id", job.ID, "url", job.URL)
	logger.Info("job started", "mode", job.Mode, "max_pages", job.MaxPages, "max_depth", job.MaxDepth)

	m.transition(job, storage.StatusCrawling, "")

	engine := crawler.New(crawler.Options{
		UserAgent:       m.cfg.Crawl.UserAgent,
		Concurrency:     m.cfg.Crawl.Concurrency,
		Delay:           m.cfg.Crawl.Delay.Duration,
		RequestTimeout:  m.cfg.Crawl.RequestTimeout.Duration,
		RobotsTimeout:   m.cfg.Crawl.RobotsTimeout.Duration,
		MaxBodyBytes:    m.cfg.Crawl.MaxBodyBytes,
		MaxLinksPerPage: m.cfg.Crawl.MaxLinksPerPage,
		Progress: func(ev crawler.ProgressEvent) {
			progressCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := m.store.UpdateJobProgress(progressCtx, job.ID, ev.Fetched); err != nil {
				logger.Warn("progress update failed", "error", err)
			}
			m.saveProgressSnapshot(job, ev)
		},
	}, logger)

	corpus, err := engine.Crawl(ctx, target)
	if err != nil {
		switch {
		case errors.Is(err, crawler.ErrNoPages):
			m.transition(job, storage.StatusFailed, err.Error())
		case errors.Is(err, context.Canceled):
			m.transition(job, storage.StatusFailed, "job cancelled")
		default:
			m.transition(job, storage.StatusFailed, err.Error())
		}
		logger.Warn("job failed", "error", err)
		return
	}

	job.PagesCrawled = len(corpus)
	m.transition(job, storage.StatusAnalyzing, "")
	results := m.scorer.Score(corpus, job.Language)
	if len(results) > 0 {
		job.Language = results[0].Language
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := m.store.SaveKeywords(saveCtx, job.ID, results); err != nil {
		m.transition(job, storage.StatusFailed, fmt.Sprintf("save keywords: %v", err))
		logger.Error("keyword save failed", "error", err)
		return
	}

	m.transition(job, storage.StatusCompleted, "")
	logger.Info("job completed", "pages", len(corpus), "keywords", len(results))
}

// Cancel stops a running job. It reports false when the job is not running.
func (m *JobManager) Cancel(id string) bool {
	m.mu.Lock()
	cancel, ok := m.cancels[id]
	m.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Shutdown cancels every running job and waits for their pipelines to wind
// down or the context to expire.
func (m *JobManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	for _, cancel := range m.cancels {
		cancel()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *JobManager) release(id string) {
	m.mu.Lock()
	if cancel, ok := m.cancels[id]; ok {
		cancel()
		delete(m.cancels, id)
	}
	m.mu.Unlock()
}

func (m *JobManager) transition(job *storage.Job, status storage.JobStatus, errMsg string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.UpdateJobStatus(ctx, job.ID, status, errMsg); err != nil {
		m.logger.Warn("status update failed", "job_id", job.ID, "status", status, "error", err)
	}
	job.Status = status
	job.Error = errMsg
	job.UpdatedAt = time.Now().UTC()
	m.saveSnapshot(job, "")
}

// saveProgressSnapshot runs on crawl worker goroutines, so it reads only
// immutable job fields plus the event itself.
func (m *JobManager) saveProgressSnapshot(job *storage.Job, ev crawler.ProgressEvent) {
	if m.snapshots == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap := jobstate.Snapshot{
		JobID:        job.ID,
		URL:          job.URL,
		Status:       string(storage.StatusCrawling),
		PagesCrawled: ev.Fetched,
		LastURL:      ev.URL,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := m.snapshots.Save(ctx, snap); err != nil {
		m.logger.Warn("snapshot save failed", "job_id", job.ID, "error", err)
	}
}

func (m *JobManager) saveSnapshot(job *storage.Job, lastURL string) {
	if m.snapshots == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap := jobstate.Snapshot{
		JobID:        job.ID,
		URL:          job.URL,
		Status:       string(job.Status),
		PagesCrawled: job.PagesCrawled,
		LastURL:      lastURL,
		Message:      job.Error,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
	if err := m.snapshots.Save(ctx, snap); err != nil {
		m.logger.Warn("snapshot save failed", "job_id", job.ID, "error", err)
	}
}
