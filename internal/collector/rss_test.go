package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/brieflybot/briefly/internal/aggregate"
	"github.com/brieflybot/briefly/internal/model"
)

func rssFeedBody(items string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Test Feed</title>
<link>https://example.com</link>
<description>Test feed</description>
` + items + `
</channel>
</rss>`
}

func rssItem(title, link, description, pubDate string) string {
	return fmt.Sprintf(`<item>
<title>%s</title>
<link>%s</link>
<description>%s</description>
<pubDate>%s</pubDate>
</item>
`, title, link, description, pubDate)
}

func rssTestServer(items string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssFeedBody(items)))
	}))
}

func TestRSSCollect(t *testing.T) {
	server := rssTestServer(
		rssItem("Machine learning pipeline tips", "https://example.com/1", "Practical ML engineering advice", "Mon, 04 Mar 2024 10:00:00 GMT") +
			rssItem("Neural network compression", "https://example.com/2", "Smaller deep learning models", "Mon, 04 Mar 2024 09:00:00 GMT"))
	defer server.Close()

	c := NewRSS()
	c.SetSources([]RSSSource{
		{Name: "Test AI Feed", URL: server.URL, Category: "AI/ML Technology", MaxItems: 10, UpdateInterval: 1800, Priority: 1.0, Enabled: true, AIFocus: true},
	})

	articles, err := c.Collect(context.Background(), aggregate.Options{MaxArticles: 10, Force: true})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(articles))
	}

	first := articles[0]
	if first.Title != "Machine learning pipeline tips" {
		t.Errorf("Unexpected title: %s", first.Title)
	}
	if first.SourceType != model.SourceRSS {
		t.Errorf("Expected rss source type, got %s", first.SourceType)
	}
	if first.Category != "AI/ML Technology" {
		t.Errorf("Unexpected category: %s", first.Category)
	}
	if first.PublishedAt == "" {
		t.Error("Expected published_at to be set from pubDate")
	}
}

func TestRSSRelevanceGate(t *testing.T) {
	server := rssTestServer(
		rssItem("Celebrity gossip roundup", "https://example.com/1", "Who wore what this week", "Mon, 04 Mar 2024 10:00:00 GMT") +
			rssItem("New machine learning framework released", "https://example.com/2", "Open source training toolkit", "Mon, 04 Mar 2024 09:00:00 GMT"))
	defer server.Close()

	c := NewRSS()
	c.SetSources([]RSSSource{
		// Not AI-focused, so items must pass the keyword gate
		{Name: "General Feed", URL: server.URL, Category: "general", MaxItems: 10, UpdateInterval: 1800, Priority: 0.8, Enabled: true},
	})

	articles, err := c.Collect(context.Background(), aggregate.Options{MaxArticles: 10, Force: true})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(articles) != 1 {
		t.Fatalf("Expected only the relevant article, got %d", len(articles))
	}
	if articles[0].Title != "New machine learning framework released" {
		t.Errorf("Wrong article passed the gate: %s", articles[0].Title)
	}
}

func TestRSSAIFocusSkipsGate(t *testing.T) {
	server := rssTestServer(
		rssItem("Weekly roundup", "https://example.com/1", "Everything that happened", "Mon, 04 Mar 2024 10:00:00 GMT"))
	defer server.Close()

	c := NewRSS()
	c.SetSources([]RSSSource{
		{Name: "Curated AI Feed", URL: server.URL, Category: "AI/ML Technology", MaxItems: 10, UpdateInterval: 1800, Priority: 1.0, Enabled: true, AIFocus: true},
	})

	articles, err := c.Collect(context.Background(), aggregate.Options{MaxArticles: 10, Force: true})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("Expected AI-focused feed to bypass the gate, got %d articles", len(articles))
	}
}

func TestRSSPrioritySort(t *testing.T) {
	lowServer := rssTestServer(
		rssItem("Deep learning on low priority feed", "https://example.com/low", "DL content here", "Mon, 04 Mar 2024 12:00:00 GMT"))
	defer lowServer.Close()

	highServer := rssTestServer(
		rssItem("Deep learning on high priority feed", "https://example.com/high", "Different DL content", "Mon, 04 Mar 2024 08:00:00 GMT"))
	defer highServer.Close()

	c := NewRSS()
	c.SetSources([]RSSSource{
		{Name: "Low Priority", URL: lowServer.URL, Category: "AI/ML Technology", MaxItems: 10, UpdateInterval: 1800, Priority: 0.5, Enabled: true, AIFocus: true},
		{Name: "High Priority", URL: highServer.URL, Category: "AI/ML Technology", MaxItems: 10, UpdateInterval: 1800, Priority: 1.0, Enabled: true, AIFocus: true},
	})

	articles, err := c.Collect(context.Background(), aggregate.Options{MaxArticles: 10, Force: true})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(articles))
	}
	// Higher priority wins even though the low-priority item is newer
	if articles[0].Source != "High Priority" {
		t.Errorf("Expected high priority source first, got %s", articles[0].Source)
	}
}

func TestRSSMaxArticles(t *testing.T) {
	var items string
	for i := 0; i < 8; i++ {
		items += rssItem(
			fmt.Sprintf("Machine learning article %d", i),
			fmt.Sprintf("https://example.com/%d", i),
			"ML content",
			"Mon, 04 Mar 2024 10:00:00 GMT")
	}
	server := rssTestServer(items)
	defer server.Close()

	c := NewRSS()
	c.SetSources([]RSSSource{
		{Name: "Busy Feed", URL: server.URL, Category: "AI/ML Technology", MaxItems: 10, UpdateInterval: 1800, Priority: 1.0, Enabled: true, AIFocus: true},
	})

	articles, err := c.Collect(context.Background(), aggregate.Options{MaxArticles: 3, Force: true})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(articles) != 3 {
		t.Errorf("Expected 3 articles, got %d", len(articles))
	}
}

func TestRSSDeduplicatesAcrossRuns(t *testing.T) {
	server := rssTestServer(
		rssItem("Machine learning article", "https://example.com/1", "Stable ML content", "Mon, 04 Mar 2024 10:00:00 GMT"))
	defer server.Close()

	c := NewRSS()
	c.SetSources([]RSSSource{
		{Name: "Test Feed", URL: server.URL, Category: "AI/ML Technology", MaxItems: 10, UpdateInterval: 1800, Priority: 1.0, Enabled: true, AIFocus: true},
	})

	first, _ := c.Collect(context.Background(), aggregate.Options{MaxArticles: 10, Force: true})
	second, _ := c.Collect(context.Background(), aggregate.Options{MaxArticles: 10, Force: true})

	if len(first) != 1 || len(second) != 0 {
		t.Errorf("Expected 1 then 0 articles, got %d then %d", len(first), len(second))
	}
}

func TestRSSSkipsFailingFeeds(t *testing.T) {
	badServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer badServer.Close()

	goodServer := rssTestServer(
		rssItem("Machine learning survives", "https://example.com/1", "ML content", "Mon, 04 Mar 2024 10:00:00 GMT"))
	defer goodServer.Close()

	c := NewRSS()
	c.SetSources([]RSSSource{
		{Name: "Broken Feed", URL: badServer.URL, Category: "AI/ML Technology", MaxItems: 10, UpdateInterval: 1800, Priority: 1.0, Enabled: true, AIFocus: true},
		{Name: "Good Feed", URL: goodServer.URL, Category: "AI/ML Technology", MaxItems: 10, UpdateInterval: 1800, Priority: 1.0, Enabled: true, AIFocus: true},
	})

	articles, err := c.Collect(context.Background(), aggregate.Options{MaxArticles: 10, Force: true})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("Expected the good feed's article, got %d articles", len(articles))
	}
}

func TestNewRSSFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")

	content := `sources:
  - name: Custom Feed
    url: https://example.com/feed.xml
    category: AI/ML Technology
    max_items: 5
    update_interval: 900
    priority: 0.7
    enabled: true
    ai_focus: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write sources file: %v", err)
	}

	c, err := NewRSSFromFile(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	sources := c.Sources()
	if len(sources) != 1 {
		t.Fatalf("Expected 1 source, got %d", len(sources))
	}
	if sources[0].Name != "Custom Feed" || sources[0].MaxItems != 5 || !sources[0].AIFocus {
		t.Errorf("Source fields not loaded correctly: %+v", sources[0])
	}
}

func TestNewRSSFromFileEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	if err := os.WriteFile(path, []byte("sources: []\n"), 0o644); err != nil {
		t.Fatalf("Failed to write sources file: %v", err)
	}

	if _, err := NewRSSFromFile(path); err == nil {
		t.Error("Expected error for empty sources file")
	}
}
