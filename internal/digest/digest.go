// Package digest runs the daily pipeline: collect articles from all
// sources, rank them, summarize with an LLM, post to Slack, and
// record the run so a day's digest is only published once.
package digest

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/brieflybot/briefly/internal/cache"
	"github.com/brieflybot/briefly/internal/model"
	"github.com/brieflybot/briefly/internal/rerank"
	"github.com/brieflybot/briefly/internal/store"
	"github.com/brieflybot/briefly/internal/summarizer"
)

// ArticleSource collects candidate articles for a digest
type ArticleSource interface {
	CollectPrioritized(ctx context.Context, maxArticles int) []model.Article
}

// Ranker orders articles before summarization
type Ranker interface {
	Rerank(articles []model.Article, strategy rerank.Strategy) []model.Article
}

// DigestSummarizer produces the TLDR for a day's articles
type DigestSummarizer interface {
	CreateDigest(ctx context.Context, articles []model.Article) *summarizer.TLDRSummary
}

// Publisher posts the rendered digest and returns the message timestamp
type Publisher interface {
	PostDigest(ctx context.Context, summary *summarizer.TLDRSummary, articles []model.Article) (string, error)
	IsAvailable() bool
}

// Options control a single pipeline run
type Options struct {
	MaxArticles int
	Strategy    rerank.Strategy
	Channel     string
	DryRun      bool // build the digest but do not post or record
	Force       bool // bypass the once-per-day guard
}

// Result describes a completed pipeline run
type Result struct {
	Date       string                  `json:"date"`
	Collected  int                     `json:"collected"`
	Published  bool                    `json:"published"`
	Skipped    bool                    `json:"skipped"`
	SkipReason string                  `json:"skip_reason,omitempty"`
	MessageTS  string                  `json:"message_ts,omitempty"`
	Summary    *summarizer.TLDRSummary `json:"summary,omitempty"`
	Articles   []model.Article         `json:"articles,omitempty"`
}

// Pipeline wires the collection, ranking, summarization, and
// publishing stages together. The archive is optional.
type Pipeline struct {
	source     ArticleSource
	ranker     Ranker
	summarizer DigestSummarizer
	publisher  Publisher
	history    cache.Store
	archive    *store.Store
	channel    string
	now        func() time.Time

	mu sync.Mutex // one digest run at a time
}

// New creates a pipeline. archive may be nil.
func New(source ArticleSource, ranker Ranker, s DigestSummarizer, publisher Publisher, history cache.Store, archive *store.Store, channel string) *Pipeline {
	return &Pipeline{
		source:     source,
		ranker:     ranker,
		summarizer: s,
		publisher:  publisher,
		history:    history,
		archive:    archive,
		channel:    channel,
		now:        time.Now,
	}
}

// SetClock overrides the time source (used in tests)
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
}

// Run executes the daily digest pipeline
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	today := p.now().UTC()
	date := today.Format("2006-01-02")
	key := cache.DigestKey(today)

	result := &Result{Date: date}

	if !opts.DryRun && !opts.Force {
		exists, err := p.history.Exists(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("checking digest history: %w", err)
		}
		if exists {
			log.Printf("⏰ Digest for %s already published, skipping", date)
			result.Skipped = true
			result.SkipReason = "already published today"
			return result, nil
		}
	}

	if opts.MaxArticles <= 0 {
		opts.MaxArticles = 20
	}
	if opts.Strategy == "" {
		opts.Strategy = rerank.StrategySmart
	}

	log.Printf("📡 Starting digest run for %s (max %d articles)", date, opts.MaxArticles)

	articles := p.source.CollectPrioritized(ctx, opts.MaxArticles)
	result.Collected = len(articles)
	if len(articles) == 0 {
		log.Printf("⚠️ No articles collected, skipping digest")
		result.Skipped = true
		result.SkipReason = "no articles collected"
		return result, nil
	}

	ranked := p.ranker.Rerank(articles, opts.Strategy)
	result.Articles = ranked

	if p.archive != nil {
		if n, err := p.archive.SaveArticles(ctx, ranked); err != nil {
			log.Printf("⚠️ Failed to archive articles: %v", err)
		} else if n > 0 {
			log.Printf("📊 Archived %d new articles", n)
		}
	}

	summary := p.summarizer.CreateDigest(ctx, ranked)
	result.Summary = summary

	if opts.DryRun {
		log.Printf("🔍 Dry run: digest built with %d articles, not posting", len(ranked))
		return result, nil
	}

	if !p.publisher.IsAvailable() {
		return nil, fmt.Errorf("slack publisher is not available")
	}

	ts, err := p.publisher.PostDigest(ctx, summary, ranked)
	if err != nil {
		return nil, fmt.Errorf("posting digest: %w", err)
	}
	result.Published = true
	result.MessageTS = ts
	log.Printf("✅ Digest posted (ts %s)", ts)

	channel := opts.Channel
	if channel == "" {
		channel = p.channel
	}

	record := &cache.Record{
		Date:         date,
		Channel:      channel,
		MessageTS:    ts,
		ArticleCount: len(ranked),
		Model:        summary.ModelUsed,
		PostedAt:     p.now(),
	}
	if err := p.history.Set(ctx, key, record); err != nil {
		log.Printf("⚠️ Failed to record digest history: %v", err)
	}

	if p.archive != nil {
		digestRow := store.Digest{
			Date:         date,
			Summary:      summary.TLDRText,
			ArticleCount: len(ranked),
			MessageTS:    ts,
			ModelUsed:    summary.ModelUsed,
		}
		if _, err := p.archive.SaveDigest(ctx, digestRow, ranked); err != nil {
			log.Printf("⚠️ Failed to archive digest: %v", err)
		}
	}

	log.Printf("🎉 Digest run for %s complete: %d articles", date, len(ranked))
	return result, nil
}
