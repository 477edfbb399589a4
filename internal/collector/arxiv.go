package collector

import (
	"context"
	"encoding/xml"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/brieflybot/briefly/internal/aggregate"
	"github.com/brieflybot/briefly/internal/dedup"
	"github.com/brieflybot/briefly/internal/model"
)

// arXiv asks clients to keep result pages small; 20 is the cap the
// API handles without pagination.
const arxivMaxResults = 20

// ArxivSource is one search against the arXiv query API
type ArxivSource struct {
	Name           string
	Query          string
	Category       string
	MaxResults     int
	Enabled        bool
	UpdateInterval time.Duration

	lastFetch time.Time
}

func defaultArxivSources() []ArxivSource {
	return []ArxivSource{
		{Name: "ArXiv AI Papers", Query: "AI OR artificial intelligence OR machine learning", Category: "Research Papers", MaxResults: 20, Enabled: true, UpdateInterval: time.Hour},
		{Name: "ArXiv Computer Vision", Query: "computer vision OR image recognition", Category: "Computer Vision", MaxResults: 15, Enabled: true, UpdateInterval: time.Hour},
		{Name: "ArXiv NLP Papers", Query: "natural language processing OR NLP OR transformers", Category: "Natural Language Processing", MaxResults: 15, Enabled: true, UpdateInterval: time.Hour},
		{Name: "ArXiv Robotics", Query: "robotics OR autonomous systems", Category: "Robotics", MaxResults: 10, Enabled: true, UpdateInterval: time.Hour},
	}
}

// ArxivCollector fetches recent papers via the arXiv Atom API
type ArxivCollector struct {
	baseURL    string
	httpClient *http.Client
	sources    []ArxivSource
	cache      *dedup.Cache
	now        func() time.Time
	// politeness delay between source queries; arXiv rate-limits
	// aggressive clients
	delay time.Duration
}

// NewArxiv creates an arXiv collector with the default search sources
func NewArxiv() *ArxivCollector {
	return &ArxivCollector{
		baseURL: "http://export.arxiv.org/api/query",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		sources: defaultArxivSources(),
		cache:   dedup.NewCache(),
		now:     time.Now,
		delay:   100 * time.Millisecond,
	}
}

// SetBaseURL overrides the API endpoint (used in tests)
func (c *ArxivCollector) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
	c.delay = 0
}

func (c *ArxivCollector) Name() string { return "arxiv" }

func (c *ArxivCollector) SourceType() model.SourceType { return model.SourceArxiv }

// IsAvailable is always true; the arXiv API needs no credentials
func (c *ArxivCollector) IsAvailable() bool { return true }

// ClearCache resets the dedup cache
func (c *ArxivCollector) ClearCache() { c.cache.Clear() }

type arxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Links []struct {
		Href  string `xml:"href,attr"`
		Title string `xml:"title,attr"`
	} `xml:"link"`
	JournalRef string `xml:"journal_ref"`
	DOI        string `xml:"doi"`
}

// Collect queries every enabled source and returns deduplicated
// papers, capped at opts.MaxArticles
func (c *ArxivCollector) Collect(ctx context.Context, opts aggregate.Options) ([]model.Article, error) {
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

		papers, err := c.fetchSource(ctx, source)
		if err != nil {
			log.Printf("❌ Error fetching from ArXiv %s: %v", source.Name, err)
			continue
		}
		source.lastFetch = c.now()

		collected = append(collected, papers...)

		if c.delay > 0 {
			time.Sleep(c.delay)
		}
	}

	if opts.MaxArticles > 0 && len(collected) > opts.MaxArticles {
		collected = collected[:opts.MaxArticles]
	}

	log.Printf("📊 Collected %d total papers from arxiv", len(collected))
	return collected, nil
}

func (c *ArxivCollector) due(source *ArxivSource) bool {
	if source.lastFetch.IsZero() {
		return true
	}
	return c.now().Sub(source.lastFetch) >= source.UpdateInterval
}

func (c *ArxivCollector) fetchSource(ctx context.Context, source *ArxivSource) ([]model.Article, error) {
	maxResults := source.MaxResults
	if maxResults > arxivMaxResults {
		maxResults = arxivMaxResults
	}

	params := url.Values{}
	params.Set("search_query", "all:"+source.Query)
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned status %d for %s", resp.StatusCode, source.Name)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding atom feed: %w", err)
	}

	var papers []model.Article
	for _, entry := range feed.Entries {
		title := strings.Join(strings.Fields(entry.Title), " ")
		summary := strings.TrimSpace(entry.Summary)
		if title == "" || entry.ID == "" {
			continue
		}

		hash := dedup.Hash(title, summary)
		if c.cache.Seen(hash) {
			continue
		}
		c.cache.Add(hash)

		var publishedAt string
		if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
			publishedAt = t.UTC().Format("2006-01-02")
		}

		authors := make([]string, 0, len(entry.Authors))
		for _, a := range entry.Authors {
			authors = append(authors, a.Name)
		}

		var pdfURL string
		for _, link := range entry.Links {
			if link.Title == "pdf" {
				pdfURL = link.Href
			}
		}

		papers = append(papers, model.Article{
			Title:       title,
			Summary:     summary,
			URL:         entry.ID,
			Source:      source.Name,
			SourceType:  model.SourceArxiv,
			Category:    source.Category,
			PublishedAt: publishedAt,
			CollectedAt: c.now(),
			APIData: map[string]interface{}{
				"authors":      authors,
				"pdf_url":      pdfURL,
				"journal_ref":  entry.JournalRef,
				"doi":          entry.DOI,
				"content_hash": hash,
			},
		})
	}

	log.Printf("📡 Fetched %d papers from %s", len(papers), source.Name)
	return papers, nil
}
