// Package storage persists analysis jobs and their scored keywords. Two
// implementations are provided: an in-memory store for tests and single-node
// runs, and a Postgres-backed store for durable deployments.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/pgnikolov/seoapp/pkg/types"
)

// ErrNotFound reports a lookup for a job that does not exist.
var ErrNotFound = errors.New("storage: job not found")

// JobStatus tracks a job through its lifecycle.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusCrawling  JobStatus = "crawling"
	StatusAnalyzing JobStatus = "analyzing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one keyword analysis request and its progress.
type Job struct {
	ID                string    `json:"id"`
	URL               string    `json:"url"`
	Status            JobStatus `json:"status"`
	Mode              string    `json:"mode"`
	MaxPages          int       `json:"max_pages"`
	MaxDepth          int       `json:"max_depth"`
	IncludeSubdomains bool      `json:"include_subdomains"`
	Language          string    `json:"language,omitempty"`
	PagesCrawled      int       `json:"pages_crawled"`
	Error             string    `json:"error,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Store persists jobs and their keyword results.
type Store interface {
	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	UpdateJobStatus(ctx context.Context, id string, status JobStatus, errMsg string) error
	UpdateJobProgress(ctx context.Context, id string, pagesCrawled int) error
	SaveKeywords(ctx context.Context, jobID string, results []types.KeywordResult) error
	GetKeywords(ctx context.Context, jobID string) ([]types.KeywordResult, error)
	Close() error
}
