package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/brieflybot/briefly/internal/aggregate"
	"github.com/brieflybot/briefly/internal/dedup"
	"github.com/brieflybot/briefly/internal/model"
)

// NewsAPISource is one query against the NewsAPI /everything endpoint
type NewsAPISource struct {
	Name           string
	Query          string
	Category       string
	Language       string
	MaxItems       int
	Enabled        bool
	UpdateInterval time.Duration

	lastFetch time.Time
}

// defaultNewsAPISources covers the editorial angles the digest wants
// represented: model research, industry moves, deployments, economic
// impact, and hardware.
func defaultNewsAPISources() []NewsAPISource {
	queries := []struct {
		name  string
		query string
	}{
		{"Technical AI News", "AI model breakthrough OR AI research advancement OR language model improvement"},
		{"Industry AI News", "AI business news OR AI company announcement OR AI industry update"},
		{"Applications AI News", "AI implementation success OR AI use case OR AI solution deployment"},
		{"Economic AI News", "AI economic impact OR AI job market OR AI workforce changes"},
		{"Infrastructure AI News", "AI chip development OR AI hardware OR AI infrastructure news"},
	}

	sources := make([]NewsAPISource, 0, len(queries))
	for _, q := range queries {
		sources = append(sources, NewsAPISource{
			Name:           q.name,
			Query:          q.query,
			Language:       "en",
			MaxItems:       10,
			Enabled:        true,
			UpdateInterval: time.Hour,
		})
	}
	return sources
}

// NewsAPICollector fetches general news from newsapi.org
type NewsAPICollector struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	sources    []NewsAPISource
	cache      *dedup.Cache
	now        func() time.Time
}

// NewNewsAPI creates a NewsAPI collector with the default sources
func NewNewsAPI(apiKey string) *NewsAPICollector {
	return &NewsAPICollector{
		apiKey:  apiKey,
		baseURL: "https://newsapi.org/v2",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		sources: defaultNewsAPISources(),
		cache:   dedup.NewCache(),
		now:     time.Now,
	}
}

// SetBaseURL overrides the API endpoint (used in tests)
func (c *NewsAPICollector) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

func (c *NewsAPICollector) Name() string { return "newsapi" }

func (c *NewsAPICollector) SourceType() model.SourceType { return model.SourceNewsAPI }

// IsAvailable reports whether an API key is configured
func (c *NewsAPICollector) IsAvailable() bool { return c.apiKey != "" }

// ClearCache resets the dedup cache so a fresh run sees everything
func (c *NewsAPICollector) ClearCache() { c.cache.Clear() }

type newsAPIResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
		Content     string `json:"content"`
	} `json:"articles"`
}

// Collect queries every enabled source, deduplicates by content hash,
// and caps the result at opts.MaxArticles
func (c *NewsAPICollector) Collect(ctx context.Context, opts aggregate.Options) ([]model.Article, error) {
	if !c.IsAvailable() {
		return nil, fmt.Errorf("newsapi collector not available: NEWSAPI_KEY not set")
	}

	var collected []model.Article

	for i := range c.sources {
		source := &c.sources[i]
		if !source.Enabled {
			continue
		}
		if !opts.Force && !c.due(source) {
			continue
		}
		if opts.MaxArticles > 0 && len(collected) >= opts.MaxArticles {
			break
		}

		articles, err := c.fetchSource(ctx, source)
		if err != nil {
			log.Printf("❌ Error fetching from NewsAPI %s: %v", source.Name, err)
			continue
		}
		source.lastFetch = c.now()

		collected = append(collected, articles...)
	}

	if opts.MaxArticles > 0 && len(collected) > opts.MaxArticles {
		collected = collected[:opts.MaxArticles]
	}

	log.Printf("📊 Collected %d total articles from newsapi", len(collected))
	return collected, nil
}

func (c *NewsAPICollector) due(source *NewsAPISource) bool {
	if source.lastFetch.IsZero() {
		return true
	}
	return c.now().Sub(source.lastFetch) >= source.UpdateInterval
}

func (c *NewsAPICollector) fetchSource(ctx context.Context, source *NewsAPISource) ([]model.Article, error) {
	params := url.Values{}
	params.Set("q", source.Query)
	params.Set("language", source.Language)
	params.Set("pageSize", strconv.Itoa(source.MaxItems))
	params.Set("sortBy", "publishedAt")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi returned status %d for %s", resp.StatusCode, source.Name)
	}

	var apiResp newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if apiResp.Status != "ok" {
		return nil, fmt.Errorf("newsapi error for %s: %s", source.Name, apiResp.Message)
	}

	category := source.Category
	if category == "" {
		category = "General"
	}

	var articles []model.Article
	for _, raw := range apiResp.Articles {
		if raw.Title == "" || raw.URL == "" {
			continue
		}

		hash := dedup.Hash(raw.Title, raw.Description)
		if c.cache.Seen(hash) {
			continue
		}
		c.cache.Add(hash)

		articles = append(articles, model.Article{
			Title:       raw.Title,
			Summary:     raw.Description,
			URL:         raw.URL,
			Source:      source.Name,
			SourceType:  model.SourceNewsAPI,
			Category:    category,
			PublishedAt: raw.PublishedAt,
			CollectedAt: c.now(),
			APIData: map[string]interface{}{
				"author":       raw.Author,
				"source_name":  raw.Source.Name,
				"url_to_image": raw.URLToImage,
				"content_hash": hash,
			},
		})
	}

	log.Printf("📡 Fetched %d articles from %s", len(articles), source.Name)
	return articles, nil
}
