// Package config loads and validates the application configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pgnikolov/seoapp/pkg/types"
)

// Config captures the full configuration for the analysis service.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Crawl   CrawlConfig   `yaml:"crawl"`
	Score   ScoreConfig   `yaml:"score"`
	DB      SQLConfig     `yaml:"db"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig controls the HTTP API surface.
type ServerConfig struct {
	Addr              string `yaml:"addr"`
	MaxConcurrentJobs int    `yaml:"max_concurrent_jobs"`
}

// CrawlConfig holds the crawl defaults applied when a request omits a value.
type CrawlConfig struct {
	MaxPages          int      `yaml:"max_pages"`
	MaxDepth          int      `yaml:"max_depth"`
	Mode              string   `yaml:"mode"`
	IncludeSubdomains bool     `yaml:"include_subdomains"`
	UserAgent         string   `yaml:"user_agent"`
	Concurrency       int      `yaml:"concurrency"`
	RequestTimeout    Duration `yaml:"request_timeout"`
	RobotsTimeout     Duration `yaml:"robots_timeout"`
	Delay             Duration `yaml:"delay"`
	MaxBodyBytes      int64    `yaml:"max_body_bytes"`
	MaxLinksPerPage   int      `yaml:"max_links_per_page"`
}

// ScoreConfig tunes the keyword report.
type ScoreConfig struct {
	DefaultLanguage string `yaml:"default_language"`
	MaxResults      int    `yaml:"max_results"`
}

// SQLConfig describes the relational database used for job persistence.
// Leaving driver and dsn empty selects the in-memory store.
type SQLConfig struct {
	Driver          string   `yaml:"driver"`
	DSN             string   `yaml:"dsn"`
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
	CreateIfMissing bool     `yaml:"create_if_missing"`
	AutoMigrate     bool     `yaml:"auto_migrate"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Structured bool   `yaml:"structured"`
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":8080",
			MaxConcurrentJobs: 5,
		},
		Crawl: CrawlConfig{
			MaxPages:        30,
			MaxDepth:        2,
			Mode:            string(types.ModeDomain),
			UserAgent:       "SEOAppCrawler/1.0 (+https://github.com/pgnikolov/seoapp)",
			Concurrency:     4,
			RequestTimeout:  DurationFrom(10 * time.Second),
			RobotsTimeout:   DurationFrom(5 * time.Second),
			Delay:           DurationFrom(500 * time.Millisecond),
			MaxBodyBytes:    6 * 1024 * 1024,
			MaxLinksPerPage: 200,
		},
		Score: ScoreConfig{
			DefaultLanguage: "en",
			MaxResults:      100,
		},
		DB: SQLConfig{
			AutoMigrate: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Structured: true,
		},
	}
}

// Load reads, merges, and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()
	return LoadFromReader(fh)
}

// LoadFromReader decodes configuration from an arbitrary reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces required invariants for the configuration.
func (c Config) Validate() error {
	if c.Crawl.MaxPages < 1 {
		return fmt.Errorf("crawl.max_pages must be >= 1 (got %d)", c.Crawl.MaxPages)
	}
	if c.Crawl.MaxDepth < 0 {
		return fmt.Errorf("crawl.max_depth must be >= 0 (got %d)", c.Crawl.MaxDepth)
	}
	if !types.Mode(c.Crawl.Mode).Valid() {
		return fmt.Errorf("crawl.mode must be %q or %q (got %q)", types.ModeSingle, types.ModeDomain, c.Crawl.Mode)
	}
	if c.Crawl.Concurrency <= 0 {
		return fmt.Errorf("crawl.concurrency must be > 0 (got %d)", c.Crawl.Concurrency)
	}
	if c.Crawl.MaxBodyBytes <= 0 {
		return fmt.Errorf("crawl.max_body_bytes must be > 0 (got %d)", c.Crawl.MaxBodyBytes)
	}
	if strings.TrimSpace(c.Crawl.UserAgent) == "" {
		return errors.New("crawl.user_agent must be set")
	}
	if c.Server.MaxConcurrentJobs <= 0 {
		return fmt.Errorf("server.max_concurrent_jobs must be > 0 (got %d)", c.Server.MaxConcurrentJobs)
	}
	if strings.TrimSpace(c.Score.DefaultLanguage) == "" {
		return errors.New("score.default_language must be set")
	}
	if c.Score.MaxResults < 0 {
		return fmt.Errorf("score.max_results must be >= 0 (got %d)", c.Score.MaxResults)
	}
	if (c.DB.Driver == "") != (c.DB.DSN == "") {
		return errors.New("db.driver and db.dsn must be set together")
	}
	return nil
}

func (c *Config) normalise() {
	c.Crawl.UserAgent = strings.TrimSpace(c.Crawl.UserAgent)
	c.Crawl.Mode = strings.ToLower(strings.TrimSpace(c.Crawl.Mode))
	c.Score.DefaultLanguage = strings.ToLower(strings.TrimSpace(c.Score.DefaultLanguage))
	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	c.DB.Driver = strings.TrimSpace(c.DB.Driver)
}

// NewLogger builds a slog logger according to the logging configuration.
func (c LoggingConfig) NewLogger() (*slog.Logger, error) {
	level := slog.LevelInfo
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unsupported log level %q", c.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if c.Structured {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler), nil
}
