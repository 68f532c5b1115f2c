// Package jobstate persists lightweight job snapshots outside the primary
// database so in-flight jobs can be inspected and reconciled after a process
// restart.
package jobstate

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"
)

// Snapshot captures a job's externally visible progress.
type Snapshot struct {
	JobID        string    `json:"job_id"`
	URL          string    `json:"url"`
	Status       string    `json:"status"`
	PagesCrawled int       `json:"pages_crawled"`
	LastURL      string    `json:"last_url"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store persists snapshots keyed by job ID.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	Remove(ctx context.Context, jobID string) error
	Get(ctx context.Context, jobID string) (Snapshot, bool, error)
	List(ctx context.Context) ([]Snapshot, error)
	Close() error
}

// RedisConfig configures a Redis-backed store.
type RedisConfig struct {
	Host     string
	Port     string
	DB       int
	Password string
	Key      string
	Timeout  time.Duration
}

// NewRedisStoreFromEnv initialises a Redis store using standard env vars.
// Returns (nil, nil) when REDIS_HOST is unset; callers treat a nil Store as
// "snapshots disabled".
func NewRedisStoreFromEnv() (Store, error) {
	host := strings.TrimSpace(os.Getenv("REDIS_HOST"))
	if host == "" {
		return nil, nil
	}
	port := strings.TrimSpace(os.Getenv("REDIS_PORT"))
	if port == "" {
		port = "6379"
	}
	db := 0
	if raw := strings.TrimSpace(os.Getenv("REDIS_DB")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return nil, err
		}
		db = value
	}
	return NewRedisStore(RedisConfig{
		Host:     host,
		Port:     port,
		DB:       db,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
}
