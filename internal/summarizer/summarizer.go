package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/brieflybot/briefly/internal/model"
)

// Provider generates text from a prompt. Implementations wrap one
// LLM vendor API each.
type Provider interface {
	Name() string
	Model() string
	IsAvailable() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

// TLDRSummary is the rendered summary for a digest or single article
type TLDRSummary struct {
	TLDRText       string   `json:"tldr_text"`
	KeyPoints      []string `json:"key_points"`
	TrendingTopics []string `json:"trending_topics"`
	ImpactLevel    string   `json:"impact_level"`
	ReadingTime    string   `json:"reading_time"`
	ArticleCount   int      `json:"article_count"`
	Categories     []string `json:"categories"`
	Sources        []string `json:"sources"`
	GeneratedAt    string   `json:"generated_at"`
	ModelUsed      string   `json:"model_used"`
	Emoji          string   `json:"emoji"`
	Color          string   `json:"color"`
}

// digestPayload is the JSON shape the LLM is asked to produce for a
// daily digest
type digestPayload struct {
	TLDRSummary      string   `json:"tldr_summary"`
	TopHeadlines     []string `json:"top_headlines"`
	TrendingTopics   []string `json:"trending_topics"`
	ImpactAssessment string   `json:"impact_assessment"`
	MustRead         []string `json:"must_read"`
}

// articlePayload is the JSON shape for a single-article TLDR
type articlePayload struct {
	TLDR        string   `json:"tldr"`
	KeyFacts    []string `json:"key_facts"`
	WhyMatters  string   `json:"why_matters"`
	ReadingTime string   `json:"reading_time"`
	Category    string   `json:"category"`
}

// Summarizer builds TLDR summaries, preferring the primary provider
// and falling back to the secondary, then to a heuristic summary
// built from titles when no provider can answer.
type Summarizer struct {
	primary  Provider
	fallback Provider
	now      func() time.Time
}

// New creates a summarizer. Either provider may be nil.
func New(primary, fallback Provider) *Summarizer {
	return &Summarizer{
		primary:  primary,
		fallback: fallback,
		now:      time.Now,
	}
}

// SetClock overrides the time source (used in tests)
func (s *Summarizer) SetClock(now func() time.Time) {
	s.now = now
}

// CreateDigest summarizes a day's articles into one TLDR. It never
// fails: LLM errors degrade to a basic title-based summary.
func (s *Summarizer) CreateDigest(ctx context.Context, articles []model.Article) *TLDRSummary {
	categories := uniqueCategories(articles)
	sources := uniqueSources(articles)

	text, modelUsed, err := s.generate(ctx, buildDigestPrompt(articles))
	if err != nil {
		log.Printf("❌ Error creating TLDR digest: %v", err)
		return s.basicDigest(articles, categories, sources)
	}

	var payload digestPayload
	if err := json.Unmarshal([]byte(extractJSON(text)), &payload); err != nil {
		log.Printf("❌ Error parsing digest response: %v", err)
		return s.basicDigest(articles, categories, sources)
	}

	return &TLDRSummary{
		TLDRText:       payload.TLDRSummary,
		KeyPoints:      payload.TopHeadlines,
		TrendingTopics: payload.TrendingTopics,
		ImpactLevel:    extractImpactLevel(payload.ImpactAssessment),
		ReadingTime:    fmt.Sprintf("%d min read", len(articles)*2),
		ArticleCount:   len(articles),
		Categories:     categories,
		Sources:        sources,
		GeneratedAt:    s.now().Format(time.RFC3339),
		ModelUsed:      modelUsed,
		Emoji:          "🚀",
		Color:          "#ff6b6b",
	}
}

// CreateArticleTLDR summarizes a single article
func (s *Summarizer) CreateArticleTLDR(ctx context.Context, article model.Article) *TLDRSummary {
	text, modelUsed, err := s.generate(ctx, buildArticlePrompt(article))
	if err != nil {
		log.Printf("❌ Error creating article TLDR: %v", err)
		return s.basicArticle(article)
	}

	var payload articlePayload
	if err := json.Unmarshal([]byte(extractJSON(text)), &payload); err != nil {
		log.Printf("❌ Error parsing article response: %v", err)
		return s.basicArticle(article)
	}

	category := payload.Category
	if category == "" {
		category = article.Category
	}
	readingTime := payload.ReadingTime
	if readingTime == "" {
		readingTime = "2 min read"
	}

	return &TLDRSummary{
		TLDRText:       payload.TLDR,
		KeyPoints:      payload.KeyFacts,
		TrendingTopics: []string{category},
		ImpactLevel:    extractImpactLevel(payload.WhyMatters),
		ReadingTime:    readingTime,
		ArticleCount:   1,
		Categories:     []string{category},
		Sources:        []string{article.Source},
		GeneratedAt:    s.now().Format(time.RFC3339),
		ModelUsed:      modelUsed,
		Emoji:          "📰",
		Color:          "#36a64f",
	}
}

// generate runs the prompt against the primary provider, then the
// fallback. Returns the response text and which model produced it.
func (s *Summarizer) generate(ctx context.Context, prompt string) (string, string, error) {
	providers := []Provider{s.primary, s.fallback}

	var lastErr error
	for i, p := range providers {
		if p == nil || !p.IsAvailable() {
			continue
		}

		text, err := p.Generate(ctx, prompt)
		if err != nil {
			lastErr = err
			log.Printf("⚠️ %s provider failed: %v", p.Name(), err)
			continue
		}

		modelUsed := p.Model()
		if i > 0 {
			modelUsed = p.Model() + "_fallback"
			log.Printf("✅ Fallback provider %s answered", p.Name())
		}
		return text, modelUsed, nil
	}

	if lastErr != nil {
		return "", "", lastErr
	}
	return "", "", fmt.Errorf("no summarization provider available")
}

func (s *Summarizer) basicDigest(articles []model.Article, categories, sources []string) *TLDRSummary {
	tldr := "📰 *Daily AI/ML News Roundup*\n\n"
	tldr += fmt.Sprintf("Today's top %d stories covering %s.\n", len(articles), strings.Join(head(categories, 3), ", "))
	tldr += "Key sources: " + strings.Join(head(sources, 3), ", ")

	var keyPoints []string
	for _, a := range head(titles(articles), 5) {
		if len(a) > 100 {
			a = a[:100] + "..."
		}
		keyPoints = append(keyPoints, a)
	}

	return &TLDRSummary{
		TLDRText:       tldr,
		KeyPoints:      keyPoints,
		TrendingTopics: head(categories, 3),
		ImpactLevel:    "Medium",
		ReadingTime:    fmt.Sprintf("%d min read", len(articles)*2),
		ArticleCount:   len(articles),
		Categories:     categories,
		Sources:        sources,
		GeneratedAt:    s.now().Format(time.RFC3339),
		ModelUsed:      "basic_fallback",
		Emoji:          "📰",
		Color:          "#36a64f",
	}
}

func (s *Summarizer) basicArticle(article model.Article) *TLDRSummary {
	category := article.Category
	if category == "" {
		category = "AI/ML"
	}

	return &TLDRSummary{
		TLDRText:       fmt.Sprintf("📰 *%s*\n\n%s", article.Title, article.Summary),
		KeyPoints:      []string{article.Title},
		TrendingTopics: []string{category},
		ImpactLevel:    "Medium",
		ReadingTime:    "2 min read",
		ArticleCount:   1,
		Categories:     []string{category},
		Sources:        []string{article.Source},
		GeneratedAt:    s.now().Format(time.RFC3339),
		ModelUsed:      "basic_fallback",
		Emoji:          "📰",
		Color:          "#36a64f",
	}
}

func buildDigestPrompt(articles []model.Article) string {
	var b strings.Builder
	b.WriteString("You are an AI/ML news analyst. Summarize today's articles into a daily TLDR digest.\n\n")
	b.WriteString("Articles:\n")
	for i, a := range articles {
		fmt.Fprintf(&b, "%d. [%s] %s\n%s\n\n", i+1, a.Source, a.Title, a.Summary)
	}
	b.WriteString(`Respond with JSON only, using this schema:
{
  "tldr_summary": "2-3 sentence TLDR of the day's most important AI/ML news",
  "top_headlines": ["3-5 most important headlines"],
  "trending_topics": ["3-5 trending topics or emerging patterns"],
  "impact_assessment": "High/Medium/Low with one sentence of explanation",
  "must_read": ["2-3 most important articles with a brief reason"]
}`)
	return b.String()
}

func buildArticlePrompt(article model.Article) string {
	return fmt.Sprintf(`You are an AI/ML news analyst. Summarize this article.

Title: %s
Source: %s
Content: %s

Respond with JSON only, using this schema:
{
  "tldr": "2-3 sentence TLDR of the article",
  "key_facts": ["3-5 key facts or takeaways"],
  "why_matters": "1-2 sentences on why this matters to AI/ML professionals",
  "reading_time": "estimated reading time, e.g. '2 min read'",
  "category": "one of: AI/ML Technology, AI/ML Development, Machine Learning, Natural Language Processing, Computer Vision, Robotics, Agentic Systems, Research Papers, technology, business"
}`, article.Title, article.Source, article.Summary)
}

// extractJSON strips markdown code fences so the payload can be
// unmarshaled even when the model wraps its answer
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	// Fall back to the outermost braces when extra prose surrounds
	// the object
	if !strings.HasPrefix(text, "{") {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start >= 0 && end > start {
			text = text[start : end+1]
		}
	}

	return text
}

// extractImpactLevel normalizes a free-text impact assessment into
// High, Medium, or Low
func extractImpactLevel(text string) string {
	lower := strings.ToLower(text)

	for _, word := range []string{"high", "significant", "major", "breakthrough"} {
		if strings.Contains(lower, word) {
			return "High"
		}
	}
	for _, word := range []string{"medium", "moderate", "notable"} {
		if strings.Contains(lower, word) {
			return "Medium"
		}
	}
	return "Low"
}

func uniqueCategories(articles []model.Article) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range articles {
		c := a.Category
		if c == "" {
			c = "Unknown"
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func uniqueSources(articles []model.Article) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range articles {
		s := a.Source
		if s == "" {
			s = "Unknown"
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func titles(articles []model.Article) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.Title)
	}
	return out
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
