package jobstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisKey     = "seoapp:jobs"
	defaultRedisTimeout = 5 * time.Second
)

// RedisStore keeps all snapshots in a single Redis hash keyed by job ID.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a store backed by Redis.
func NewRedisStore(cfg RedisConfig) (Store, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("redis host is required")
	}
	port := cfg.Port
	if port == "" {
		port = "6379"
	}
	key := cfg.Key
	if key == "" {
		key = defaultRedisKey
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultRedisTimeout
	}
	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	return &RedisStore{client: client, key: key}, nil
}

func (s *RedisStore) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, s.key, snap.JobID, string(data)).Err()
}

func (s *RedisStore) Remove(ctx context.Context, jobID string) error {
	return s.client.HDel(ctx, s.key, jobID).Err()
}

func (s *RedisStore) Get(ctx context.Context, jobID string) (Snapshot, bool, error) {
	var snap Snapshot
	raw, err := s.client.HGet(ctx, s.key, jobID).Result()
	if errors.Is(err, redis.Nil) {
		return snap, false, nil
	}
	if err != nil {
		return snap, false, err
	}
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return snap, false, err
	}
	return snap, true, nil
}

func (s *RedisStore) List(ctx context.Context) ([]Snapshot, error) {
	entries, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}
	snapshots := make([]Snapshot, 0, len(entries))
	for _, raw := range entries {
		var snap Snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			continue
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
