package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	pq "github.com/lib/pq"

	"github.com/pgnikolov/seoapp/internal/config"
	"github.com/pgnikolov/seoapp/pkg/types"
)

// SQLStore persists jobs and keywords in a relational database.
type SQLStore struct {
	db          *sql.DB
	autoMigrate bool
}

// NewSQLStore opens the configured database, optionally creating it and its
// schema on first use.
func NewSQLStore(cfg config.SQLConfig) (*SQLStore, error) {
	if cfg.Driver == "" || cfg.DSN == "" {
		return nil, errors.New("sql config missing driver or dsn")
	}
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open sql connection: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if cfg.CreateIfMissing && shouldAttemptCreateDatabase(cfg.Driver, err) {
			_ = db.Close()
			if err := createDatabase(ctx, cfg); err != nil {
				return nil, err
			}
			db, err = sql.Open(cfg.Driver, cfg.DSN)
			if err != nil {
				return nil, fmt.Errorf("open sql connection: %w", err)
			}
			if err := db.PingContext(ctx); err != nil {
				return nil, fmt.Errorf("ping sql connection: %w", err)
			}
		} else {
			return nil, fmt.Errorf("ping sql connection: %w", err)
		}
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime.Duration > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime.Duration)
	}
	store := &SQLStore{db: db, autoMigrate: cfg.AutoMigrate}
	if cfg.AutoMigrate {
		if err := store.ensureSchema(context.Background()); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func (s *SQLStore) CreateJob(ctx context.Context, job *Job) error {
	return s.withSchemaRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
        INSERT INTO jobs (id, url, status, mode, max_pages, max_depth, include_subdomains, language, pages_crawled, error, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    `,
			job.ID,
			job.URL,
			string(job.Status),
			job.Mode,
			job.MaxPages,
			job.MaxDepth,
			job.IncludeSubdomains,
			job.Language,
			job.PagesCrawled,
			job.Error,
			job.CreatedAt,
			job.UpdatedAt,
		)
		return err
	})
}

func (s *SQLStore) GetJob(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, url, status, mode, max_pages, max_depth, include_subdomains, language, pages_crawled, error, created_at, updated_at
        FROM jobs WHERE id = $1
    `, id)
	var job Job
	var status string
	err := row.Scan(
		&job.ID,
		&job.URL,
		&status,
		&job.Mode,
		&job.MaxPages,
		&job.MaxDepth,
		&job.IncludeSubdomains,
		&job.Language,
		&job.PagesCrawled,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select job: %w", err)
	}
	job.Status = JobStatus(status)
	return &job, nil
}

func (s *SQLStore) UpdateJobStatus(ctx context.Context, id string, status JobStatus, errMsg string) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE jobs SET status = $2, error = $3, updated_at = $4 WHERE id = $1
    `, id, string(status), errMsg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	return checkAffected(res)
}

func (s *SQLStore) UpdateJobProgress(ctx context.Context, id string, pagesCrawled int) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE jobs SET pages_crawled = $2, updated_at = $3 WHERE id = $1
    `, id, pagesCrawled, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	return checkAffected(res)
}

// SaveKeywords replaces the job's keyword rows in one transaction so a rerun
// never leaves a mix of old and new results.
func (s *SQLStore) SaveKeywords(ctx context.Context, jobID string, results []types.KeywordResult) error {
	return s.withSchemaRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, `DELETE FROM keywords WHERE job_id = $1`, jobID); err != nil {
			return fmt.Errorf("clear keywords: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO keywords (job_id, rank, phrase, score, occurrences, pages_count, top_page, source_mix, intent, language)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    `)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for rank, kw := range results {
			mix, err := json.Marshal(kw.SourceMix)
			if err != nil {
				return fmt.Errorf("marshal source mix: %w", err)
			}
			if _, err := stmt.ExecContext(ctx,
				jobID,
				rank,
				kw.Phrase,
				kw.Score,
				kw.Occurrences,
				kw.PagesCount,
				kw.TopPage,
				mix,
				kw.Intent,
				kw.Language,
			); err != nil {
				return fmt.Errorf("insert keyword %q: %w", kw.Phrase, err)
			}
		}
		return tx.Commit()
	})
}

func (s *SQLStore) GetKeywords(ctx context.Context, jobID string) ([]types.KeywordResult, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT phrase, score, occurrences, pages_count, top_page, source_mix, intent, language
        FROM keywords WHERE job_id = $1 ORDER BY rank
    `, jobID)
	if err != nil {
		return nil, fmt.Errorf("select keywords: %w", err)
	}
	defer rows.Close()

	var results []types.KeywordResult
	for rows.Next() {
		var kw types.KeywordResult
		var mix []byte
		if err := rows.Scan(
			&kw.Phrase,
			&kw.Score,
			&kw.Occurrences,
			&kw.PagesCount,
			&kw.TopPage,
			&mix,
			&kw.Intent,
			&kw.Language,
		); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		if len(mix) > 0 {
			if err := json.Unmarshal(mix, &kw.SourceMix); err != nil {
				return nil, fmt.Errorf("decode source mix: %w", err)
			}
		}
		results = append(results, kw)
	}
	return results, rows.Err()
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// withSchemaRetry runs fn once, creating the schema and retrying when the
// failure is a missing table and auto-migration is enabled.
func (s *SQLStore) withSchemaRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	if s.autoMigrate && isUndefinedTableErr(err) {
		if schemaErr := s.ensureSchema(ctx); schemaErr != nil {
			return fmt.Errorf("ensure schema: %w", schemaErr)
		}
		return fn()
	}
	return err
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func shouldAttemptCreateDatabase(driver string, err error) bool {
	if !strings.EqualFold(driver, "postgres") {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "3D000"
	}
	return strings.Contains(strings.ToLower(err.Error()), "does not exist")
}

func createDatabase(ctx context.Context, cfg config.SQLConfig) error {
	parsed, err := url.Parse(cfg.DSN)
	if err != nil {
		return fmt.Errorf("parse dsn: %w", err)
	}
	dbName := strings.TrimPrefix(parsed.Path, "/")
	if dbName == "" {
		return errors.New("dsn missing database name")
	}
	if strings.EqualFold(dbName, "postgres") {
		return fmt.Errorf("target database %q cannot be auto-created", dbName)
	}
	parsed.Path = "/postgres"
	adminDB, err := sql.Open(cfg.Driver, parsed.String())
	if err != nil {
		return fmt.Errorf("connect admin database: %w", err)
	}
	defer adminDB.Close()
	if err := adminDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping admin database: %w", err)
	}
	stmt := fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName))
	if _, err := adminDB.ExecContext(ctx, stmt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "42P04" {
			return nil
		}
		return fmt.Errorf("create database %q: %w", dbName, err)
	}
	return nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil || !s.autoMigrate {
		return nil
	}
	schemaCtx := ctx
	if schemaCtx == nil || schemaCtx.Err() != nil {
		schemaCtx = context.Background()
	}
	schemaCtx, cancel := context.WithTimeout(schemaCtx, 10*time.Second)
	defer cancel()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
		    id TEXT PRIMARY KEY,
		    url TEXT NOT NULL,
		    status TEXT NOT NULL,
		    mode TEXT NOT NULL,
		    max_pages INT NOT NULL,
		    max_depth INT NOT NULL,
		    include_subdomains BOOLEAN NOT NULL DEFAULT FALSE,
		    language TEXT NOT NULL DEFAULT '',
		    pages_crawled INT NOT NULL DEFAULT 0,
		    error TEXT NOT NULL DEFAULT '',
		    created_at TIMESTAMPTZ NOT NULL,
		    updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs (created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS keywords (
		    job_id TEXT NOT NULL REFERENCES jobs (id) ON DELETE CASCADE,
		    rank INT NOT NULL,
		    phrase TEXT NOT NULL,
		    score DOUBLE PRECISION NOT NULL,
		    occurrences INT NOT NULL,
		    pages_count INT NOT NULL,
		    top_page TEXT,
		    source_mix JSONB,
		    intent TEXT,
		    language TEXT,
		    PRIMARY KEY (job_id, rank)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(schemaCtx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func isUndefinedTableErr(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42P01"
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "relation") && strings.Contains(lower, "does not exist")
}
