package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadFromReader(t *testing.T) {
	raw := `
crawl:
  max_pages: 10
  max_depth: 1
  mode: single
  delay: 250ms
score:
  default_language: bg
logging:
  level: debug
  structured: false
`
	cfg, err := LoadFromReader(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Crawl.MaxPages != 10 {
		t.Errorf("max_pages = %d, want 10", cfg.Crawl.MaxPages)
	}
	if cfg.Crawl.Mode != "single" {
		t.Errorf("mode = %q, want single", cfg.Crawl.Mode)
	}
	if cfg.Crawl.Delay.Duration != 250*time.Millisecond {
		t.Errorf("delay = %v, want 250ms", cfg.Crawl.Delay.Duration)
	}
	if cfg.Score.DefaultLanguage != "bg" {
		t.Errorf("default_language = %q, want bg", cfg.Score.DefaultLanguage)
	}
	// Untouched sections keep their defaults.
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server.addr = %q, want :8080", cfg.Server.Addr)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	if _, err := LoadFromReader(strings.NewReader("crawl:\n  bogus: 1\n")); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max_pages", func(c *Config) { c.Crawl.MaxPages = 0 }},
		{"negative max_depth", func(c *Config) { c.Crawl.MaxDepth = -1 }},
		{"unknown mode", func(c *Config) { c.Crawl.Mode = "everything" }},
		{"empty user agent", func(c *Config) { c.Crawl.UserAgent = " " }},
		{"zero concurrency", func(c *Config) { c.Crawl.Concurrency = 0 }},
		{"driver without dsn", func(c *Config) { c.DB.Driver = "postgres" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}
