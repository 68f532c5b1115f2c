package config

import (
	"strings"
	"testing"
	"time"
)

func TestDurationDecoding(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want time.Duration
	}{
		{"string duration", "delay: 750ms", 750 * time.Millisecond},
		{"integer seconds", "delay: 2", 2 * time.Second},
		{"fractional seconds", "delay: 0.5", 500 * time.Millisecond},
		{"empty string", `delay: ""`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadFromReader(strings.NewReader("crawl:\n  " + tc.yaml + "\n"))
			if err != nil {
				t.Fatalf("LoadFromReader: %v", err)
			}
			if cfg.Crawl.Delay.Duration != tc.want {
				t.Errorf("delay = %v, want %v", cfg.Crawl.Delay.Duration, tc.want)
			}
		})
	}
}

func TestDurationRejectsGarbage(t *testing.T) {
	if _, err := LoadFromReader(strings.NewReader("crawl:\n  delay: soon\n")); err == nil {
		t.Fatal("expected error for unparseable duration")
	}
}
