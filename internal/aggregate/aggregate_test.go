package aggregate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/brieflybot/briefly/internal/model"
)

// fakeCollector returns up to stock articles per run and records the
// options it was called with
type fakeCollector struct {
	name        string
	sourceType  model.SourceType
	available   bool
	stock       int
	err         error
	calls       []Options
	cacheCleared bool
}

func (f *fakeCollector) Name() string                 { return f.name }
func (f *fakeCollector) SourceType() model.SourceType { return f.sourceType }
func (f *fakeCollector) IsAvailable() bool            { return f.available }
func (f *fakeCollector) ClearCache()                  { f.cacheCleared = true }

func (f *fakeCollector) Collect(ctx context.Context, opts Options) ([]model.Article, error) {
	f.calls = append(f.calls, opts)
	if f.err != nil {
		return nil, f.err
	}

	n := f.stock
	if opts.MaxArticles < n {
		n = opts.MaxArticles
	}

	articles := make([]model.Article, n)
	for i := range articles {
		articles[i] = model.Article{
			Title:      fmt.Sprintf("%s article %d", f.name, i),
			SourceType: f.sourceType,
		}
	}
	return articles, nil
}

func newFakes(stock int) (*fakeCollector, *fakeCollector, *fakeCollector) {
	newsapi := &fakeCollector{name: "newsapi", sourceType: model.SourceNewsAPI, available: true, stock: stock}
	rss := &fakeCollector{name: "rss", sourceType: model.SourceRSS, available: true, stock: stock}
	arxiv := &fakeCollector{name: "arxiv", sourceType: model.SourceArxiv, available: true, stock: stock}
	return newsapi, rss, arxiv
}

func TestCollectPrioritizedBudgets(t *testing.T) {
	newsapi, rss, arxiv := newFakes(100)
	a := New(newsapi, rss, arxiv)

	got := a.CollectPrioritized(context.Background(), 20)

	// 70% of 20 = 14 to newsapi, then min(5, 6) to rss, then min(3, 1) to arxiv
	if len(newsapi.calls) != 1 || newsapi.calls[0].MaxArticles != 14 {
		t.Errorf("Expected newsapi budget 14, got %+v", newsapi.calls)
	}
	if len(rss.calls) != 1 || rss.calls[0].MaxArticles != 5 {
		t.Errorf("Expected rss budget 5, got %+v", rss.calls)
	}
	if len(arxiv.calls) != 1 || arxiv.calls[0].MaxArticles != 1 {
		t.Errorf("Expected arxiv budget 1, got %+v", arxiv.calls)
	}
	if len(got) != 20 {
		t.Errorf("Expected 20 articles, got %d", len(got))
	}
}

func TestCollectPrioritizedMinimumNewsAPIBudget(t *testing.T) {
	newsapi, rss, arxiv := newFakes(100)
	a := New(newsapi, rss, arxiv)

	got := a.CollectPrioritized(context.Background(), 4)

	// 70% of 4 truncates to 2, floor of 5 applies
	if newsapi.calls[0].MaxArticles != 5 {
		t.Errorf("Expected newsapi floor budget 5, got %d", newsapi.calls[0].MaxArticles)
	}
	// Total still capped at the requested maximum
	if len(got) != 4 {
		t.Errorf("Expected 4 articles after cap, got %d", len(got))
	}
}

func TestCollectPrioritizedForcesCollection(t *testing.T) {
	newsapi, rss, arxiv := newFakes(100)
	a := New(newsapi, rss, arxiv)

	a.CollectPrioritized(context.Background(), 20)

	for _, c := range []*fakeCollector{newsapi, rss, arxiv} {
		if len(c.calls) != 1 || !c.calls[0].Force {
			t.Errorf("Expected %s to be called with Force, got %+v", c.name, c.calls)
		}
	}
}

func TestCollectPrioritizedClearsNewsAPICache(t *testing.T) {
	newsapi, rss, arxiv := newFakes(10)
	a := New(newsapi, rss, arxiv)

	a.CollectPrioritized(context.Background(), 20)

	if !newsapi.cacheCleared {
		t.Error("Expected newsapi dedup cache to be cleared before collection")
	}
	if rss.cacheCleared || arxiv.cacheCleared {
		t.Error("Expected only the newsapi cache to be cleared")
	}
}

func TestCollectPrioritizedTierOrder(t *testing.T) {
	newsapi, rss, arxiv := newFakes(100)
	a := New(newsapi, rss, arxiv)

	got := a.CollectPrioritized(context.Background(), 20)

	// All newsapi articles strictly before rss, rss before arxiv
	lastTier := 0
	tiers := map[model.SourceType]int{
		model.SourceNewsAPI: 1,
		model.SourceRSS:     2,
		model.SourceArxiv:   3,
	}
	for i, article := range got {
		tier := tiers[article.SourceType]
		if tier < lastTier {
			t.Fatalf("Article %d (%s) out of tier order", i, article.SourceType)
		}
		lastTier = tier
	}
}

func TestCollectPrioritizedFailedTierBudgetNotRedistributed(t *testing.T) {
	newsapi, rss, arxiv := newFakes(100)
	newsapi.err = errors.New("quota exceeded")
	a := New(newsapi, rss, arxiv)

	got := a.CollectPrioritized(context.Background(), 20)

	// The failed newsapi tier contributes nothing and its budget is
	// not passed downstream: rss still capped at 5, arxiv at 3
	if rss.calls[0].MaxArticles != 5 {
		t.Errorf("Expected rss budget 5 after newsapi failure, got %d", rss.calls[0].MaxArticles)
	}
	if arxiv.calls[0].MaxArticles != 3 {
		t.Errorf("Expected arxiv budget 3 after newsapi failure, got %d", arxiv.calls[0].MaxArticles)
	}
	if len(got) != 8 {
		t.Errorf("Expected 8 articles (5 rss + 3 arxiv), got %d", len(got))
	}
}

// With only ArXiv available, a run asking for 10 articles yields at
// most 3 no matter how many results exist upstream.
func TestCollectPrioritizedOnlyArxivAvailable(t *testing.T) {
	newsapi, rss, arxiv := newFakes(100)
	newsapi.available = false
	rss.available = false
	a := New(newsapi, rss, arxiv)

	got := a.CollectPrioritized(context.Background(), 10)

	if len(got) > 3 {
		t.Errorf("Expected at most 3 articles from arxiv-only run, got %d", len(got))
	}
	for _, article := range got {
		if article.SourceType != model.SourceArxiv {
			t.Errorf("Expected only arxiv articles, got %s", article.SourceType)
		}
	}
}

func TestCollectPrioritizedNeverExceedsMax(t *testing.T) {
	for _, max := range []int{1, 3, 7, 10, 20, 50} {
		newsapi, rss, arxiv := newFakes(1000)
		a := New(newsapi, rss, arxiv)

		got := a.CollectPrioritized(context.Background(), max)

		if len(got) > max {
			t.Errorf("max=%d: got %d articles", max, len(got))
		}
	}
}

func TestCollectPrioritizedNoCollectors(t *testing.T) {
	a := New()

	got := a.CollectPrioritized(context.Background(), 10)

	if len(got) != 0 {
		t.Errorf("Expected empty result, got %d articles", len(got))
	}
}

func TestCollectBalancedSplit(t *testing.T) {
	newsapi, rss, arxiv := newFakes(100)
	a := New(newsapi, rss, arxiv)

	got := a.CollectBalanced(context.Background(), 10, true)

	// 10/3 = 3 each, remainder 1 goes to the first collector
	if newsapi.calls[0].MaxArticles != 4 {
		t.Errorf("Expected first collector budget 4, got %d", newsapi.calls[0].MaxArticles)
	}
	if rss.calls[0].MaxArticles != 3 {
		t.Errorf("Expected second collector budget 3, got %d", rss.calls[0].MaxArticles)
	}
	if arxiv.calls[0].MaxArticles != 3 {
		t.Errorf("Expected third collector budget 3, got %d", arxiv.calls[0].MaxArticles)
	}
	if len(got) != 10 {
		t.Errorf("Expected 10 articles, got %d", len(got))
	}
}

func TestCollectBalancedSkipsFailures(t *testing.T) {
	newsapi, rss, arxiv := newFakes(100)
	rss.err = errors.New("feed down")
	a := New(newsapi, rss, arxiv)

	got := a.CollectBalanced(context.Background(), 9, true)

	if len(got) != 6 {
		t.Errorf("Expected 6 articles with one failed source, got %d", len(got))
	}
}

func TestCollectBalancedWithoutBalancing(t *testing.T) {
	newsapi, rss, arxiv := newFakes(4)
	a := New(newsapi, rss, arxiv)

	got := a.CollectBalanced(context.Background(), 10, false)

	// Unbalanced mode sweeps all sources then caps the total
	if len(got) != 10 {
		t.Errorf("Expected 10 articles after cap, got %d", len(got))
	}
}

func TestStatusTracksRuns(t *testing.T) {
	newsapi, rss, arxiv := newFakes(10)
	rss.err = errors.New("feed down")
	a := New(newsapi, rss, arxiv)

	a.CollectPrioritized(context.Background(), 20)

	statuses := a.Status()
	if len(statuses) != 3 {
		t.Fatalf("Expected 3 statuses, got %d", len(statuses))
	}

	byName := make(map[string]Status)
	for _, s := range statuses {
		byName[s.Name] = s
	}

	if byName["newsapi"].Stats.SuccessCount != 1 {
		t.Errorf("Expected 1 newsapi success, got %d", byName["newsapi"].Stats.SuccessCount)
	}
	if byName["rss"].Stats.ErrorCount != 1 {
		t.Errorf("Expected 1 rss error, got %d", byName["rss"].Stats.ErrorCount)
	}
	if byName["newsapi"].Stats.LastRun.IsZero() {
		t.Error("Expected newsapi last run to be recorded")
	}
}

func TestHealthy(t *testing.T) {
	newsapi, rss, arxiv := newFakes(10)
	a := New(newsapi, rss, arxiv)

	if !a.Healthy() {
		t.Error("Expected aggregator with available collectors to be healthy")
	}

	newsapi.available = false
	rss.available = false
	arxiv.available = false

	if a.Healthy() {
		t.Error("Expected aggregator with no available collectors to be unhealthy")
	}
}
