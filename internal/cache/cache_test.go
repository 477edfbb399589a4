package cache

import (
	"context"
	"testing"
	"time"
)

func TestDigestKey(t *testing.T) {
	date := time.Date(2024, 6, 1, 23, 30, 0, 0, time.FixedZone("JST", 9*3600))

	key := DigestKey(date)
	if key != "digest:2024-06-01" {
		t.Errorf("Expected UTC date key 'digest:2024-06-01', got '%s'", key)
	}
}

func TestMemoryStoreSetGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	record := &Record{
		Date:         "2024-06-01",
		Channel:      "C123456",
		MessageTS:    "1717232400.000100",
		ArticleCount: 12,
		Model:        "gpt-3.5-turbo",
	}

	if err := store.Set(ctx, "digest:2024-06-01", record); err != nil {
		t.Fatalf("Failed to set record: %v", err)
	}

	got, err := store.Get(ctx, "digest:2024-06-01")
	if err != nil {
		t.Fatalf("Failed to get record: %v", err)
	}
	if got.Key != "digest:2024-06-01" {
		t.Errorf("Expected key to be set on record, got '%s'", got.Key)
	}
	if got.Channel != "C123456" {
		t.Errorf("Expected channel 'C123456', got '%s'", got.Channel)
	}
	if got.PostedAt.IsZero() {
		t.Error("Expected PostedAt to default to now")
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "digest:2024-06-01")
	if err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreExists(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	exists, err := store.Exists(ctx, "digest:2024-06-01")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("Expected missing key to not exist")
	}

	store.Set(ctx, "digest:2024-06-01", &Record{Date: "2024-06-01"})

	exists, err = store.Exists(ctx, "digest:2024-06-01")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("Expected stored key to exist")
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Set(ctx, "digest:2024-06-01", &Record{Date: "2024-06-01"})
	if err := store.Delete(ctx, "digest:2024-06-01"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := store.Get(ctx, "digest:2024-06-01"); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreListOrderedByPostedAt(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	store.Set(ctx, "digest:2024-06-03", &Record{Date: "2024-06-03", PostedAt: base.Add(48 * time.Hour)})
	store.Set(ctx, "digest:2024-06-01", &Record{Date: "2024-06-01", PostedAt: base})
	store.Set(ctx, "digest:2024-06-02", &Record{Date: "2024-06-02", PostedAt: base.Add(24 * time.Hour)})

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	for i, date := range []string{"2024-06-01", "2024-06-02", "2024-06-03"} {
		if records[i].Date != date {
			t.Errorf("Expected record %d to be %s, got %s", i, date, records[i].Date)
		}
	}
}

func TestMemoryStoreClear(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Set(ctx, "digest:2024-06-01", &Record{Date: "2024-06-01"})
	store.Set(ctx, "digest:2024-06-02", &Record{Date: "2024-06-02"})

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	records, _ := store.List(ctx)
	if len(records) != 0 {
		t.Errorf("Expected empty store after clear, got %d records", len(records))
	}
}

func TestMemoryStoreStats(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	store.Set(ctx, "digest:2024-06-01", &Record{Date: "2024-06-01", PostedAt: base})
	store.Set(ctx, "digest:2024-06-02", &Record{Date: "2024-06-02", PostedAt: base.Add(24 * time.Hour)})

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalEntries != 2 {
		t.Errorf("Expected 2 entries, got %d", stats.TotalEntries)
	}
	if stats.StorageBytes == 0 {
		t.Error("Expected non-zero storage estimate")
	}
	if !stats.OldestEntry.Equal(base) {
		t.Errorf("Expected oldest entry %v, got %v", base, stats.OldestEntry)
	}
	if !stats.NewestEntry.Equal(base.Add(24 * time.Hour)) {
		t.Errorf("Expected newest entry %v, got %v", base.Add(24*time.Hour), stats.NewestEntry)
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Set(ctx, "digest:2024-06-01", &Record{Date: "2024-06-01", ArticleCount: 5})

	first, _ := store.Get(ctx, "digest:2024-06-01")
	first.ArticleCount = 99

	second, _ := store.Get(ctx, "digest:2024-06-01")
	if second.ArticleCount != 5 {
		t.Errorf("Expected stored record unchanged, got count %d", second.ArticleCount)
	}
}

func TestNewStoreSelectsBackend(t *testing.T) {
	store, err := NewStore(context.Background(), "memory", "")
	if err != nil {
		t.Fatalf("Expected memory store, got error %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Errorf("Expected *MemoryStore, got %T", store)
	}

	if _, err := NewStore(context.Background(), "redis", ""); err == nil {
		t.Error("Expected error for unsupported store type")
	}
}
