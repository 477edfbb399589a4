package model

import (
	"strings"
	"time"
)

// SourceType identifies which collector produced an article
type SourceType string

const (
	SourceNewsAPI SourceType = "newsapi"
	SourceRSS     SourceType = "rss"
	SourceArxiv   SourceType = "arxiv"
	SourceUnknown SourceType = "unknown"
)

// ParseSourceType normalizes a raw source type string
func ParseSourceType(s string) SourceType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "newsapi":
		return SourceNewsAPI
	case "rss":
		return SourceRSS
	case "arxiv":
		return SourceArxiv
	default:
		return SourceUnknown
	}
}

// Article is the normalized unit flowing through the pipeline.
// PublishedAt stays a string because upstream sources disagree on
// format; the reranker parses it leniently.
type Article struct {
	Title       string                 `json:"title"`
	Summary     string                 `json:"summary"`
	URL         string                 `json:"url"`
	Source      string                 `json:"source"`
	SourceType  SourceType             `json:"source_type"`
	Category    string                 `json:"category"`
	PublishedAt string                 `json:"published_at"`
	CollectedAt time.Time              `json:"collected_at"`
	APIData     map[string]interface{} `json:"api_data,omitempty"`
}
