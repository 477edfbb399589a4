package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/brieflybot/briefly/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "briefly.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func testArticles() []model.Article {
	return []model.Article{
		{
			Title:       "First story",
			URL:         "https://example.com/1",
			Source:      "TechCrunch AI",
			SourceType:  model.SourceRSS,
			Category:    "Machine Learning",
			Summary:     "A summary.",
			PublishedAt: "2024-06-01T08:00:00Z",
		},
		{
			Title:      "Second story",
			URL:        "https://example.com/2",
			Source:     "newsapi",
			SourceType: model.SourceNewsAPI,
			Category:   "AI/ML Technology",
		},
	}
}

func TestSaveArticles(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	inserted, err := s.SaveArticles(ctx, testArticles())
	if err != nil {
		t.Fatalf("SaveArticles failed: %v", err)
	}
	if inserted != 2 {
		t.Errorf("Expected 2 inserted, got %d", inserted)
	}

	count, err := s.ArticleCount(ctx)
	if err != nil {
		t.Fatalf("ArticleCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 articles, got %d", count)
	}
}

func TestSaveArticlesSkipsDuplicateURLs(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.SaveArticles(ctx, testArticles()); err != nil {
		t.Fatalf("First save failed: %v", err)
	}

	inserted, err := s.SaveArticles(ctx, testArticles())
	if err != nil {
		t.Fatalf("Second save failed: %v", err)
	}
	if inserted != 0 {
		t.Errorf("Expected 0 inserted on duplicate save, got %d", inserted)
	}

	count, _ := s.ArticleCount(ctx)
	if count != 2 {
		t.Errorf("Expected 2 articles after duplicate save, got %d", count)
	}
}

func TestSaveDigestAndGetByDate(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	articles := testArticles()

	if _, err := s.SaveArticles(ctx, articles); err != nil {
		t.Fatalf("SaveArticles failed: %v", err)
	}

	digestID, err := s.SaveDigest(ctx, Digest{
		Date:         "2024-06-01",
		Summary:      "Big day for model efficiency.",
		ArticleCount: 2,
		MessageTS:    "1717232400.000100",
		ModelUsed:    "gpt-3.5-turbo",
	}, articles)
	if err != nil {
		t.Fatalf("SaveDigest failed: %v", err)
	}
	if digestID == "" {
		t.Fatal("Expected non-empty digest ID")
	}

	got, err := s.GetDigestByDate(ctx, "2024-06-01")
	if err != nil {
		t.Fatalf("GetDigestByDate failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected digest for 2024-06-01")
	}
	if got.ID != digestID {
		t.Errorf("Expected digest ID %s, got %s", digestID, got.ID)
	}
	if got.Summary != "Big day for model efficiency." {
		t.Errorf("Unexpected summary %q", got.Summary)
	}
	if got.MessageTS != "1717232400.000100" {
		t.Errorf("Unexpected message ts %q", got.MessageTS)
	}
}

func TestGetDigestByDateMissing(t *testing.T) {
	s := testStore(t)

	got, err := s.GetDigestByDate(context.Background(), "2099-01-01")
	if err != nil {
		t.Fatalf("Expected no error for missing digest, got %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil digest, got %+v", got)
	}
}

func TestDigestArticles(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	articles := testArticles()

	s.SaveArticles(ctx, articles)
	digestID, err := s.SaveDigest(ctx, Digest{Date: "2024-06-01", Summary: "s", ArticleCount: 2}, articles)
	if err != nil {
		t.Fatalf("SaveDigest failed: %v", err)
	}

	linked, err := s.DigestArticles(ctx, digestID)
	if err != nil {
		t.Fatalf("DigestArticles failed: %v", err)
	}
	if len(linked) != 2 {
		t.Fatalf("Expected 2 linked articles, got %d", len(linked))
	}
	if linked[0].SourceType != model.SourceRSS {
		t.Errorf("Expected rss source type, got %s", linked[0].SourceType)
	}
}

func TestSaveDigestRejectsDuplicateDate(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.SaveDigest(ctx, Digest{Date: "2024-06-01", Summary: "first"}, nil); err != nil {
		t.Fatalf("First SaveDigest failed: %v", err)
	}

	if _, err := s.SaveDigest(ctx, Digest{Date: "2024-06-01", Summary: "second"}, nil); err == nil {
		t.Error("Expected error for duplicate digest date")
	}
}

func TestRecentDigests(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, date := range []string{"2024-06-01", "2024-06-02", "2024-06-03"} {
		if _, err := s.SaveDigest(ctx, Digest{Date: date, Summary: "s"}, nil); err != nil {
			t.Fatalf("SaveDigest %s failed: %v", date, err)
		}
	}

	digests, err := s.RecentDigests(ctx, 2)
	if err != nil {
		t.Fatalf("RecentDigests failed: %v", err)
	}
	if len(digests) != 2 {
		t.Fatalf("Expected 2 digests, got %d", len(digests))
	}
	if digests[0].Date != "2024-06-03" || digests[1].Date != "2024-06-02" {
		t.Errorf("Expected newest first, got %s then %s", digests[0].Date, digests[1].Date)
	}
}
