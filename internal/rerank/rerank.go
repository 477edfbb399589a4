package rerank

import (
	"log"
	"sort"
	"strings"
	"time"

	"github.com/brieflybot/briefly/internal/model"
)

// Strategy selects which score drives the ordering
type Strategy string

const (
	StrategySmart          Strategy = "smart"
	StrategySourcePriority Strategy = "source_priority"
	StrategyRecency        Strategy = "recency"
	StrategyCustom         Strategy = "custom"
)

// Scorer computes a custom ranking score for an article
type Scorer func(article model.Article) float64

// publishedAtLayouts are tried in order; anything unparsable falls
// back to a neutral recency score.
var publishedAtLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// Reranker orders collected articles by composite score
type Reranker struct {
	config Config
	custom Scorer
	now    func() time.Time
}

// New creates a reranker with the given config
func New(config Config) *Reranker {
	return &Reranker{
		config: config,
		now:    time.Now,
	}
}

// SetCustomScorer registers the scorer used by the custom strategy
func (r *Reranker) SetCustomScorer(fn Scorer) {
	r.custom = fn
}

// SetClock overrides the time source (used in tests)
func (r *Reranker) SetClock(now func() time.Time) {
	r.now = now
}

// Config returns the active scoring configuration
func (r *Reranker) Config() Config {
	return r.config
}

// Rerank returns a new slice ordered by the strategy's score,
// highest first. Ties keep their input order. Unknown strategies and
// a custom strategy without a registered scorer return the input
// ordering unchanged.
func (r *Reranker) Rerank(articles []model.Article, strategy Strategy) []model.Article {
	if len(articles) == 0 {
		return []model.Article{}
	}

	var score func(model.Article) float64
	switch strategy {
	case StrategySmart:
		score = r.Score
	case StrategySourcePriority:
		score = r.sourceScore
	case StrategyRecency:
		score = r.recencyScore
	case StrategyCustom:
		if r.custom == nil {
			log.Printf("⚠️ Custom rerank strategy selected but no scorer registered, keeping original order")
			return articles
		}
		score = r.custom
	default:
		log.Printf("⚠️ Unknown rerank strategy %q, keeping original order", strategy)
		return articles
	}

	ranked := make([]model.Article, len(articles))
	copy(ranked, articles)

	scores := make([]float64, len(ranked))
	for i, a := range ranked {
		scores[i] = score(a)
	}

	order := make([]int, len(ranked))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	result := make([]model.Article, len(ranked))
	for i, idx := range order {
		result[i] = ranked[idx]
	}

	log.Printf("📊 Reranked %d articles with %s strategy, top source: %s",
		len(result), strategy, result[0].Source)

	return result
}

// Score computes the composite smart-ranking score.
// Relevance and recency arrive pre-weighted from their component
// functions; the remaining components are weighted here.
func (r *Reranker) Score(a model.Article) float64 {
	return r.sourceScore(a)*0.3 +
		r.relevanceScore(a) +
		r.recencyScore(a) +
		r.categoryScore(a)*0.15 +
		r.contentScore(a)*0.1
}

func (r *Reranker) sourceScore(a model.Article) float64 {
	switch model.ParseSourceType(string(a.SourceType)) {
	case model.SourceNewsAPI:
		return r.config.NewsAPIWeight
	case model.SourceRSS:
		return r.config.RSSWeight
	case model.SourceArxiv:
		return r.config.ArxivWeight
	default:
		return 0.5
	}
}

// recencyScore returns a neutral 0.5 when the publish time is missing
// or unparsable; otherwise a weighted freshness score that decays
// linearly inside the max-age window and hyperbolically beyond it.
func (r *Reranker) recencyScore(a model.Article) float64 {
	if a.PublishedAt == "" {
		return 0.5
	}

	var published time.Time
	var parsed bool
	for _, layout := range publishedAtLayouts {
		if t, err := time.Parse(layout, a.PublishedAt); err == nil {
			published = t
			parsed = true
			break
		}
	}
	if !parsed {
		return 0.5
	}

	ageHours := r.now().UTC().Sub(published).Hours()

	var score float64
	if ageHours <= r.config.MaxAgeHours {
		score = 1.0 - (ageHours/r.config.MaxAgeHours)*0.3
	} else {
		score = 0.7 * (r.config.MaxAgeHours / ageHours)
	}

	return score * r.config.RecencyWeight
}

func (r *Reranker) contentScore(a model.Article) float64 {
	var score float64

	titleLen := len(a.Title)
	switch {
	case titleLen >= 20 && titleLen <= 100:
		score += r.config.TitleLengthWeight
	case titleLen > 100:
		score += r.config.TitleLengthWeight * 0.5
	}

	summaryLen := len(a.Summary)
	switch {
	case summaryLen >= 50 && summaryLen <= 500:
		score += r.config.SummaryLengthWeight
	case summaryLen > 500:
		score += r.config.SummaryLengthWeight * 0.7
	}

	return score
}

// categoryScore matches the article category against the weight table
// by bidirectional substring containment, case-insensitive. The best
// match wins; no match keeps the 0.5 baseline.
func (r *Reranker) categoryScore(a model.Article) float64 {
	category := strings.ToLower(a.Category)

	best := 0.5
	for pattern, weight := range r.config.CategoryWeights {
		p := strings.ToLower(pattern)
		if strings.Contains(category, p) || strings.Contains(p, category) {
			if weight > best {
				best = weight
			}
		}
	}

	return best
}

func (r *Reranker) relevanceScore(a model.Article) float64 {
	content := strings.ToLower(a.Title + " " + a.Summary + " " + a.Category)

	var best float64
	for keyword, weight := range relevanceKeywords {
		if strings.Contains(content, keyword) && weight > best {
			best = weight
		}
	}

	return best * r.config.RelevanceWeight
}

// ScoreStats aggregates smart scores over a set of articles
type ScoreStats struct {
	Average float64 `json:"avg"`
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
}

// RankingSummary describes a ranked article set
type RankingSummary struct {
	TotalArticles        int            `json:"total_articles"`
	SourceDistribution   map[string]int `json:"source_distribution"`
	CategoryDistribution map[string]int `json:"category_distribution"`
	ScoreStats           ScoreStats     `json:"score_stats"`
	Config               Config         `json:"ranking_config"`
}

// Summarize reports distributions and score statistics for a set
func (r *Reranker) Summarize(articles []model.Article) RankingSummary {
	summary := RankingSummary{
		TotalArticles:        len(articles),
		SourceDistribution:   make(map[string]int),
		CategoryDistribution: make(map[string]int),
		Config:               r.config,
	}

	if len(articles) == 0 {
		return summary
	}

	var total float64
	min := r.Score(articles[0])
	max := min

	for _, a := range articles {
		summary.SourceDistribution[string(a.SourceType)]++
		summary.CategoryDistribution[a.Category]++

		s := r.Score(a)
		total += s
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}

	summary.ScoreStats = ScoreStats{
		Average: total / float64(len(articles)),
		Max:     max,
		Min:     min,
	}

	return summary
}
