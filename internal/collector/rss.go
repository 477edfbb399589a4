package collector

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"github.com/brieflybot/briefly/internal/aggregate"
	"github.com/brieflybot/briefly/internal/dedup"
	"github.com/brieflybot/briefly/internal/model"
)

// RSSSource describes one feed subscription
type RSSSource struct {
	Name           string  `yaml:"name"`
	URL            string  `yaml:"url"`
	Category       string  `yaml:"category"`
	MaxItems       int     `yaml:"max_items"`
	UpdateInterval int     `yaml:"update_interval"` // seconds
	Priority       float64 `yaml:"priority"`
	Enabled        bool    `yaml:"enabled"`
	// AIFocus marks feeds that are AI-only; their items skip the
	// relevance keyword gate
	AIFocus bool `yaml:"ai_focus"`

	lastFetch time.Time
}

func defaultRSSSources() []RSSSource {
	return []RSSSource{
		{Name: "TechCrunch AI", URL: "https://techcrunch.com/tag/artificial-intelligence/feed/", Category: "AI/ML Technology", MaxItems: 15, UpdateInterval: 1800, Priority: 1.0, Enabled: true, AIFocus: true},
		{Name: "Medium AI", URL: "https://medium.com/feed/tag/ai", Category: "AI/ML Development", MaxItems: 12, UpdateInterval: 3600, Priority: 0.9, Enabled: true, AIFocus: true},
		{Name: "Medium Machine Learning", URL: "https://medium.com/feed/tag/machine-learning", Category: "AI/ML Development", MaxItems: 12, UpdateInterval: 3600, Priority: 0.9, Enabled: true, AIFocus: true},
		{Name: "Medium Deep Learning", URL: "https://medium.com/feed/tag/deep-learning", Category: "AI/ML Development", MaxItems: 12, UpdateInterval: 3600, Priority: 0.9, Enabled: true, AIFocus: true},
		{Name: "Medium NLP", URL: "https://medium.com/feed/tag/natural-language-processing", Category: "AI/ML Development", MaxItems: 10, UpdateInterval: 3600, Priority: 0.85, Enabled: true, AIFocus: true},
		{Name: "Medium Software Development", URL: "https://medium.com/feed/tag/software-development", Category: "Software Development", MaxItems: 10, UpdateInterval: 3600, Priority: 0.9, Enabled: true},
		{Name: "Medium Programming", URL: "https://medium.com/feed/tag/programming", Category: "Software Development", MaxItems: 10, UpdateInterval: 3600, Priority: 0.9, Enabled: true},
		{Name: "VentureBeat AI", URL: "https://venturebeat.com/category/ai/feed/", Category: "AI Business & Technology", MaxItems: 12, UpdateInterval: 1800, Priority: 0.95, Enabled: true, AIFocus: true},
		{Name: "MIT Technology Review AI", URL: "https://www.technologyreview.com/topic/artificial-intelligence/feed", Category: "AI Research & Development", MaxItems: 10, UpdateInterval: 3600, Priority: 0.95, Enabled: true, AIFocus: true},
		{Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/index", Category: "Technology & Innovation", MaxItems: 10, UpdateInterval: 1800, Priority: 0.8, Enabled: true},
		{Name: "The Verge AI", URL: "https://www.theverge.com/rss/ai-artificial-intelligence/index.xml", Category: "Technology & AI", MaxItems: 10, UpdateInterval: 1800, Priority: 0.85, Enabled: true, AIFocus: true},
		{Name: "Wired", URL: "https://www.wired.com/feed/rss", Category: "Technology & Innovation", MaxItems: 8, UpdateInterval: 3600, Priority: 0.8, Enabled: true},
	}
}

// relevanceGate filters non-AI-focused feeds down to content the
// digest cares about. Simple substring containment, same as the
// reranker's keyword scan but binary.
var relevanceGate = []string{
	"artificial intelligence", "ai", "machine learning", "ml",
	"deep learning", "neural network", "transformer", "gpt", "llm",
	"large language model", "agentic", "autonomous agent", "multi-agent",
	"reinforcement learning",
	"software development", "programming", "coding", "algorithm",
	"data science", "computer vision", "natural language processing",
	"nlp", "robotics", "automation", "optimization", "scalability",
	"performance",
	"startup", "venture capital", "investment", "innovation",
	"research", "academic", "paper", "conference", "workshop",
	"competition",
}

// RSSCollector fetches and filters configured RSS feeds
type RSSCollector struct {
	parser  *gofeed.Parser
	sources []RSSSource
	cache   *dedup.Cache
	now     func() time.Time
}

// NewRSS creates an RSS collector with the default feed list
func NewRSS() *RSSCollector {
	parser := gofeed.NewParser()
	parser.UserAgent = "briefly-bot/1.0"

	return &RSSCollector{
		parser:  parser,
		sources: defaultRSSSources(),
		cache:   dedup.NewCache(),
		now:     time.Now,
	}
}

// NewRSSFromFile creates an RSS collector whose sources come from a
// YAML file instead of the built-in list
func NewRSSFromFile(path string) (*RSSCollector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}

	var cfg struct {
		Sources []RSSSource `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing sources file: %w", err)
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s defines no sources", path)
	}

	c := NewRSS()
	c.sources = cfg.Sources
	log.Printf("📡 Loaded %d RSS sources from %s", len(cfg.Sources), path)
	return c, nil
}

// SetSources replaces the source list (used in tests)
func (c *RSSCollector) SetSources(sources []RSSSource) {
	c.sources = sources
}

func (c *RSSCollector) Name() string { return "rss" }

func (c *RSSCollector) SourceType() model.SourceType { return model.SourceRSS }

// IsAvailable is always true; RSS needs no credentials
func (c *RSSCollector) IsAvailable() bool { return true }

// ClearCache resets the dedup cache
func (c *RSSCollector) ClearCache() { c.cache.Clear() }

// Sources returns the configured feed list
func (c *RSSCollector) Sources() []RSSSource { return c.sources }

type rssCandidate struct {
	article  model.Article
	priority float64
}

// Collect fetches every due feed, gates items for relevance,
// deduplicates, and returns the top articles by (priority, recency)
func (c *RSSCollector) Collect(ctx context.Context, opts aggregate.Options) ([]model.Article, error) {
	log.Printf("📡 Collecting articles from %d RSS sources...", len(c.sources))

	// Expired hashes age out at the start of each run
	if removed := c.cache.Sweep(); removed > 0 {
		log.Printf("🧹 Swept %d expired dedup entries", removed)
	}

	var candidates []rssCandidate

	for i := range c.sources {
		source := &c.sources[i]
		if !source.Enabled {
			continue
		}
		if !opts.Force && !c.due(source) {
			continue
		}

		items, err := c.fetchFeed(ctx, source)
		if err != nil {
			log.Printf("❌ Error fetching RSS feed %s: %v", source.Name, err)
			continue
		}
		source.lastFetch = c.now()

		candidates = append(candidates, items...)
	}

	// Highest priority first, newest first within a priority band
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].priority != candidates[j].priority {
			return candidates[i].priority > candidates[j].priority
		}
		return candidates[i].article.PublishedAt > candidates[j].article.PublishedAt
	})

	if opts.MaxArticles > 0 && len(candidates) > opts.MaxArticles {
		candidates = candidates[:opts.MaxArticles]
	}

	articles := make([]model.Article, 0, len(candidates))
	for _, cand := range candidates {
		articles = append(articles, cand.article)
	}

	log.Printf("📊 Collected %d total articles from rss", len(articles))
	return articles, nil
}

func (c *RSSCollector) due(source *RSSSource) bool {
	if source.lastFetch.IsZero() {
		return true
	}
	interval := time.Duration(source.UpdateInterval) * time.Second
	return c.now().Sub(source.lastFetch) >= interval
}

func (c *RSSCollector) fetchFeed(ctx context.Context, source *RSSSource) ([]rssCandidate, error) {
	log.Printf("📡 Fetching RSS feed: %s", source.Name)

	feed, err := c.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	if len(feed.Items) == 0 {
		log.Printf("⚠️ No entries found in RSS feed: %s", source.Name)
		return nil, nil
	}

	items := feed.Items
	if source.MaxItems > 0 && len(items) > source.MaxItems {
		items = items[:source.MaxItems]
	}

	var candidates []rssCandidate
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		summary := strings.TrimSpace(item.Description)
		if title == "" || item.Link == "" {
			continue
		}

		if !source.AIFocus && !isRelevant(title, summary, source.Category) {
			continue
		}

		hash := dedup.Hash(title, summary)
		if c.cache.Seen(hash) {
			continue
		}
		c.cache.Add(hash)

		var publishedAt string
		if item.PublishedParsed != nil {
			publishedAt = item.PublishedParsed.UTC().Format(time.RFC3339)
		}

		candidates = append(candidates, rssCandidate{
			article: model.Article{
				Title:       title,
				Summary:     summary,
				URL:         item.Link,
				Source:      source.Name,
				SourceType:  model.SourceRSS,
				Category:    source.Category,
				PublishedAt: publishedAt,
				CollectedAt: c.now(),
				APIData: map[string]interface{}{
					"content_hash": hash,
					"priority":     source.Priority,
				},
			},
			priority: source.Priority,
		})
	}

	return candidates, nil
}

func isRelevant(title, summary, category string) bool {
	content := strings.ToLower(title + " " + summary + " " + category)
	for _, keyword := range relevanceGate {
		if strings.Contains(content, keyword) {
			return true
		}
	}
	return false
}
