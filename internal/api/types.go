package api

import (
	"github.com/pgnikolov/seoapp/internal/storage"
	"github.com/pgnikolov/seoapp/pkg/types"
)

// AnalyzeRequest is the body of POST /api/analyze. Omitted fields fall back
// to the configured crawl defaults; MaxDepth and IncludeSubdomains are
// pointers because zero and false are meaningful values.
type AnalyzeRequest struct {
	URL               string `json:"url"`
	MaxPages          int    `json:"max_pages,omitempty"`
	MaxDepth          *int   `json:"max_depth,omitempty"`
	Mode              string `json:"mode,omitempty"`
	IncludeSubdomains *bool  `json:"include_subdomains,omitempty"`
	Language          string `json:"language,omitempty"`
}

// JobResponse reports a job and, once completed, its ranked keywords.
type JobResponse struct {
	Job      *storage.Job          `json:"job"`
	Keywords []types.KeywordResult `json:"keywords,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}
