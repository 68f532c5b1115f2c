package types

import (
	"net/url"
	"time"
)

// Mode selects how far a crawl may travel from its seed.
type Mode string

const (
	// ModeSingle fetches only the seed page.
	ModeSingle Mode = "single"
	// ModeDomain follows in-scope links up to the configured depth.
	ModeDomain Mode = "domain"
)

// Valid reports whether the mode is one of the known values.
func (m Mode) Valid() bool {
	return m == ModeSingle || m == ModeDomain
}

// CrawlTarget is the immutable input for one crawl invocation.
type CrawlTarget struct {
	StartURL          *url.URL
	MaxPages          int
	MaxDepth          int
	Mode              Mode
	IncludeSubdomains bool
}

// Link pairs an in-scope link target with its anchor text.
type Link struct {
	URL    string `json:"url"`
	Anchor string `json:"anchor"`
}

// PageRecord is the result of one successful fetch and zone extraction.
// Records are immutable once appended to a corpus.
type PageRecord struct {
	URL             string    `json:"url"`
	Title           string    `json:"title"`
	MetaDescription string    `json:"meta_description"`
	H1              []string  `json:"h1"`
	H2              []string  `json:"h2"`
	H3              []string  `json:"h3"`
	Body            string    `json:"body"`
	Links           []Link    `json:"links"`
	Depth           int       `json:"depth"`
	FetchedAt       time.Time `json:"fetched_at"`
}

// KeywordResult is one ranked phrase in the final report.
type KeywordResult struct {
	Phrase      string         `json:"phrase"`
	Score       float64        `json:"score"`
	Occurrences int            `json:"occurrences"`
	PagesCount  int            `json:"pages_count"`
	TopPage     string         `json:"top_page"`
	SourceMix   map[string]int `json:"source_mix"`
	Intent      string         `json:"intent"`
	Language    string         `json:"language"`
}
