package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pgnikolov/seoapp/pkg/types"
)

func newJob(id string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        id,
		URL:       "https://example.com/",
		Status:    StatusPending,
		Mode:      "domain",
		MaxPages:  30,
		MaxDepth:  2,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMemoryStoreJobLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.CreateJob(ctx, newJob("job-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.UpdateJobStatus(ctx, "job-1", StatusCrawling, ""); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := store.UpdateJobProgress(ctx, "job-1", 7); err != nil {
		t.Fatalf("update progress: %v", err)
	}

	job, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.Status != StatusCrawling {
		t.Errorf("status = %q, want crawling", job.Status)
	}
	if job.PagesCrawled != 7 {
		t.Errorf("pages crawled = %d, want 7", job.PagesCrawled)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.GetJob(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetJob err = %v, want ErrNotFound", err)
	}
	if err := store.UpdateJobStatus(ctx, "missing", StatusFailed, "boom"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateJobStatus err = %v, want ErrNotFound", err)
	}
	if err := store.SaveKeywords(ctx, "missing", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("SaveKeywords err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreKeywordsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.CreateJob(ctx, newJob("job-2")); err != nil {
		t.Fatalf("create: %v", err)
	}

	results := []types.KeywordResult{
		{Phrase: "seo tool", Score: 100, Occurrences: 3, PagesCount: 1, Intent: "informational", Language: "en"},
		{Phrase: "keywords", Score: 41.2, Occurrences: 1, PagesCount: 1, Intent: "informational", Language: "en"},
	}
	if err := store.SaveKeywords(ctx, "job-2", results); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.GetKeywords(ctx, "job-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 || got[0].Phrase != "seo tool" {
		t.Fatalf("unexpected keywords %+v", got)
	}

	// Mutating the returned slice must not leak back into the store.
	got[0].Phrase = "mutated"
	again, err := store.GetKeywords(ctx, "job-2")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again[0].Phrase != "seo tool" {
		t.Error("stored keywords were mutated through a returned slice")
	}
}

func TestJobStatusTerminal(t *testing.T) {
	for status, want := range map[JobStatus]bool{
		StatusPending:   false,
		StatusCrawling:  false,
		StatusAnalyzing: false,
		StatusCompleted: true,
		StatusFailed:    true,
	} {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}
