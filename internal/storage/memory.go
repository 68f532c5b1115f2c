package storage

import (
	"context"
	"sync"
	"time"

	"github.com/pgnikolov/seoapp/pkg/types"
)

// MemoryStore keeps jobs and keywords in process memory. Safe for concurrent
// use; contents are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	jobs     map[string]*Job
	keywords map[string][]types.KeywordResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:     make(map[string]*Job),
		keywords: make(map[string][]types.KeywordResult),
	}
}

func (m *MemoryStore) CreateJob(ctx context.Context, job *Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *job
	m.jobs[job.ID] = &copied
	return nil
}

func (m *MemoryStore) GetJob(ctx context.Context, id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (m *MemoryStore) UpdateJobStatus(ctx context.Context, id string, status JobStatus, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	job.Status = status
	job.Error = errMsg
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) UpdateJobProgress(ctx context.Context, id string, pagesCrawled int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	job.PagesCrawled = pagesCrawled
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) SaveKeywords(ctx context.Context, jobID string, results []types.KeywordResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[jobID]; !ok {
		return ErrNotFound
	}
	copied := make([]types.KeywordResult, len(results))
	copy(copied, results)
	m.keywords[jobID] = copied
	return nil
}

func (m *MemoryStore) GetKeywords(ctx context.Context, jobID string) ([]types.KeywordResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.jobs[jobID]; !ok {
		return nil, ErrNotFound
	}
	results := m.keywords[jobID]
	copied := make([]types.KeywordResult, len(results))
	copy(copied, results)
	return copied, nil
}

func (m *MemoryStore) Close() error { return nil }
