package aggregate

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/brieflybot/briefly/internal/model"
)

// Options controls a single collection run
type Options struct {
	MaxArticles int
	Force       bool
}

// Collector is implemented by each news source
type Collector interface {
	Name() string
	SourceType() model.SourceType
	IsAvailable() bool
	Collect(ctx context.Context, opts Options) ([]model.Article, error)
}

// CacheClearer is implemented by collectors whose dedup cache can be
// reset before a fresh run
type CacheClearer interface {
	ClearCache()
}

// Stats tracks per-collector run counters
type Stats struct {
	RunCount     int       `json:"run_count"`
	SuccessCount int       `json:"success_count"`
	ErrorCount   int       `json:"error_count"`
	LastRun      time.Time `json:"last_run"`
}

// Status reports one collector's state
type Status struct {
	Name       string           `json:"name"`
	SourceType model.SourceType `json:"source_type"`
	Available  bool             `json:"available"`
	Stats      Stats            `json:"stats"`
}

// Aggregator fans collection out across registered collectors.
// Collectors run sequentially in registration order.
type Aggregator struct {
	collectors []Collector
	stats      map[string]*Stats
	now        func() time.Time
}

// New creates an aggregator over the given collectors. Registration
// order matters: it is the tier order for prioritized collection.
func New(collectors ...Collector) *Aggregator {
	a := &Aggregator{
		collectors: collectors,
		stats:      make(map[string]*Stats),
		now:        time.Now,
	}
	for _, c := range collectors {
		a.stats[c.Name()] = &Stats{}
	}
	return a
}

// CollectPrioritized allocates the article budget with strict source
// precedence: NewsAPI gets the bulk (70%, at least 5), RSS at most 5,
// ArXiv at most 3. A failed tier's budget is not redistributed; the
// result is simply shorter. Results come back in tier order, unranked.
func (a *Aggregator) CollectPrioritized(ctx context.Context, maxArticles int) []model.Article {
	log.Printf("🎯 Collecting %d articles with prioritized sources (NewsAPI → RSS → ArXiv)", maxArticles)

	if len(a.collectors) == 0 {
		log.Printf("⚠️ No collectors available")
		return []model.Article{}
	}

	var collected []model.Article
	remaining := maxArticles

	if c := a.byType(model.SourceNewsAPI); c != nil && remaining > 0 {
		budget := int(float64(remaining) * 0.7)
		if budget < 5 {
			budget = 5
		}

		if clearer, ok := c.(CacheClearer); ok {
			clearer.ClearCache()
			log.Printf("🧹 Cleared %s cache for fresh collection", c.Name())
		}

		articles, err := a.run(ctx, c, Options{MaxArticles: budget, Force: true})
		if err != nil {
			log.Printf("❌ Failed to collect from %s: %v", c.Name(), err)
		} else {
			collected = append(collected, articles...)
			remaining -= len(articles)
			log.Printf("📊 %s: collected %d articles (remaining: %d)", c.Name(), len(articles), remaining)
		}
	}

	if c := a.byType(model.SourceRSS); c != nil && remaining > 0 {
		budget := remaining
		if budget > 5 {
			budget = 5
		}

		articles, err := a.run(ctx, c, Options{MaxArticles: budget, Force: true})
		if err != nil {
			log.Printf("❌ Failed to collect from %s: %v", c.Name(), err)
		} else {
			collected = append(collected, articles...)
			remaining -= len(articles)
			log.Printf("📊 %s: collected %d articles (remaining: %d)", c.Name(), len(articles), remaining)
		}
	}

	if c := a.byType(model.SourceArxiv); c != nil && remaining > 0 {
		budget := remaining
		if budget > 3 {
			budget = 3
		}

		articles, err := a.run(ctx, c, Options{MaxArticles: budget, Force: true})
		if err != nil {
			log.Printf("❌ Failed to collect from %s: %v", c.Name(), err)
		} else {
			collected = append(collected, articles...)
			remaining -= len(articles)
			log.Printf("📊 %s: collected %d articles (remaining: %d)", c.Name(), len(articles), remaining)
		}
	}

	if len(collected) > maxArticles {
		collected = collected[:maxArticles]
	}
	if collected == nil {
		collected = []model.Article{}
	}

	log.Printf("✅ Prioritized collection complete: %d articles (NewsAPI → RSS → ArXiv)", len(collected))
	return collected
}

// CollectBalanced splits the budget evenly across collectors, giving
// the leftover max%n one extra article each to the first collectors in
// registration order. With balance off it caps an all-sources sweep.
func (a *Aggregator) CollectBalanced(ctx context.Context, maxArticles int, balance bool) []model.Article {
	log.Printf("🎯 Collecting %d articles with balanced sources: %t", maxArticles, balance)

	if !balance {
		all := a.CollectFromAll(ctx, maxArticles)
		if len(all) > maxArticles {
			all = all[:maxArticles]
		}
		return all
	}

	if len(a.collectors) == 0 {
		log.Printf("⚠️ No collectors available")
		return []model.Article{}
	}

	perSource := maxArticles / len(a.collectors)
	extra := maxArticles % len(a.collectors)

	collected := []model.Article{}
	for i, c := range a.collectors {
		limit := perSource
		if i < extra {
			limit++
		}

		articles, err := a.run(ctx, c, Options{MaxArticles: limit})
		if err != nil {
			log.Printf("❌ Failed to collect from %s: %v", c.Name(), err)
			continue
		}

		if len(articles) > limit {
			articles = articles[:limit]
		}
		collected = append(collected, articles...)
		log.Printf("📊 %s: collected %d articles", c.Name(), len(articles))
	}

	if len(collected) > maxArticles {
		collected = collected[:maxArticles]
	}

	log.Printf("✅ Balanced collection complete: %d articles from %d sources", len(collected), len(a.collectors))
	return collected
}

// CollectFromAll collects up to perSource articles from every
// collector, skipping failures
func (a *Aggregator) CollectFromAll(ctx context.Context, perSource int) []model.Article {
	collected := []model.Article{}

	for _, c := range a.collectors {
		articles, err := a.run(ctx, c, Options{MaxArticles: perSource})
		if err != nil {
			log.Printf("❌ Failed to collect from %s: %v", c.Name(), err)
			continue
		}
		collected = append(collected, articles...)
	}

	log.Printf("📊 Total articles collected from all sources: %d", len(collected))
	return collected
}

// Status reports every collector's availability and run counters in
// registration order
func (a *Aggregator) Status() []Status {
	statuses := make([]Status, 0, len(a.collectors))
	for _, c := range a.collectors {
		statuses = append(statuses, Status{
			Name:       c.Name(),
			SourceType: c.SourceType(),
			Available:  c.IsAvailable(),
			Stats:      *a.stats[c.Name()],
		})
	}
	return statuses
}

// Healthy reports whether at least one collector can run
func (a *Aggregator) Healthy() bool {
	for _, c := range a.collectors {
		if c.IsAvailable() {
			return true
		}
	}
	return false
}

func (a *Aggregator) byType(st model.SourceType) Collector {
	for _, c := range a.collectors {
		if c.SourceType() == st {
			return c
		}
	}
	return nil
}

func (a *Aggregator) run(ctx context.Context, c Collector, opts Options) ([]model.Article, error) {
	stats := a.stats[c.Name()]
	stats.RunCount++
	stats.LastRun = a.now()

	if !c.IsAvailable() {
		stats.ErrorCount++
		return nil, fmt.Errorf("collector %s is not available", c.Name())
	}

	log.Printf("🔍 Collecting from %s", c.Name())

	articles, err := c.Collect(ctx, opts)
	if err != nil {
		stats.ErrorCount++
		return nil, fmt.Errorf("collecting from %s: %w", c.Name(), err)
	}

	stats.SuccessCount++
	log.Printf("✅ Collected %d articles from %s", len(articles), c.Name())
	return articles, nil
}
