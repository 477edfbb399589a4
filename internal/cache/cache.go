package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// Store persists digest history so the same digest is not posted
// twice and past runs can be inspected.
type Store interface {
	Get(ctx context.Context, key string) (*Record, error)
	Set(ctx context.Context, key string, record *Record) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context) ([]Record, error)
	Clear(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
}

// Record describes one published digest
type Record struct {
	Key          string    `json:"key"`
	Date         string    `json:"date"`
	Channel      string    `json:"channel"`
	MessageTS    string    `json:"message_ts"`
	ArticleCount int       `json:"article_count"`
	Model        string    `json:"model"`
	PostedAt     time.Time `json:"posted_at"`
}

// Stats represents digest history statistics
type Stats struct {
	TotalEntries int       `json:"total_entries"`
	StorageBytes int64     `json:"storage_bytes"`
	OldestEntry  time.Time `json:"oldest_entry"`
	NewestEntry  time.Time `json:"newest_entry"`
}

// ErrNotFound is returned when no record exists for a key
var ErrNotFound = fmt.Errorf("record not found")

// DigestKey builds the history key guarding one calendar day
func DigestKey(date time.Time) string {
	return "digest:" + date.UTC().Format("2006-01-02")
}

// MemoryStore implements in-memory digest history
type MemoryStore struct {
	records map[string]*Record
	mutex   sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
	}
}

// Get retrieves a record
func (s *MemoryStore) Get(ctx context.Context, key string) (*Record, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	record, exists := s.records[key]
	if !exists {
		return nil, ErrNotFound
	}

	copied := *record
	return &copied, nil
}

// Set stores a record
func (s *MemoryStore) Set(ctx context.Context, key string, record *Record) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	record.Key = key
	if record.PostedAt.IsZero() {
		record.PostedAt = time.Now()
	}

	copied := *record
	s.records[key] = &copied
	return nil
}

// Delete removes a record
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.records, key)
	return nil
}

// Exists checks if a record exists
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	_, exists := s.records[key]
	return exists, nil
}

// List returns all records ordered by posting time
func (s *MemoryStore) List(ctx context.Context) ([]Record, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	records := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, *r)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].PostedAt.Before(records[j].PostedAt)
	})

	return records, nil
}

// Clear removes all records
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.records = make(map[string]*Record)
	return nil
}

// GetStats returns history statistics
func (s *MemoryStore) GetStats(ctx context.Context) (*Stats, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats := &Stats{
		TotalEntries: len(s.records),
	}

	for _, record := range s.records {
		data, _ := json.Marshal(record)
		stats.StorageBytes += int64(len(data))

		if stats.OldestEntry.IsZero() || record.PostedAt.Before(stats.OldestEntry) {
			stats.OldestEntry = record.PostedAt
		}
		if record.PostedAt.After(stats.NewestEntry) {
			stats.NewestEntry = record.PostedAt
		}
	}

	return stats, nil
}

// CloudStorageStore persists digest history in a Google Cloud
// Storage bucket as JSON objects
type CloudStorageStore struct {
	client     *storage.Client
	bucketName string
	prefix     string
}

// NewCloudStorageStore creates a Cloud Storage backed store
func NewCloudStorageStore(ctx context.Context, bucketName string) (*CloudStorageStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	if bucketName == "" {
		bucketName = "briefly-digest-history"
	}

	return &CloudStorageStore{
		client:     client,
		bucketName: bucketName,
		prefix:     "digests/",
	}, nil
}

func (s *CloudStorageStore) objectName(key string) string {
	return s.prefix + key + ".json"
}

// Get retrieves a record from Cloud Storage
func (s *CloudStorageStore) Get(ctx context.Context, key string) (*Record, error) {
	obj := s.client.Bucket(s.bucketName).Object(s.objectName(key))

	reader, err := obj.NewReader(ctx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("opening object reader: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading object data: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshaling record: %w", err)
	}

	return &record, nil
}

// Set stores a record in Cloud Storage
func (s *CloudStorageStore) Set(ctx context.Context, key string, record *Record) error {
	obj := s.client.Bucket(s.bucketName).Object(s.objectName(key))

	record.Key = key
	if record.PostedAt.IsZero() {
		record.PostedAt = time.Now()
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	writer := obj.NewWriter(ctx)
	writer.ContentType = "application/json"

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("writing object data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing object writer: %w", err)
	}

	return nil
}

// Delete removes a record from Cloud Storage
func (s *CloudStorageStore) Delete(ctx context.Context, key string) error {
	obj := s.client.Bucket(s.bucketName).Object(s.objectName(key))

	if err := obj.Delete(ctx); err != nil && err != storage.ErrObjectNotExist {
		return fmt.Errorf("deleting object: %w", err)
	}

	return nil
}

// Exists checks if a record exists in Cloud Storage
func (s *CloudStorageStore) Exists(ctx context.Context, key string) (bool, error) {
	obj := s.client.Bucket(s.bucketName).Object(s.objectName(key))

	if _, err := obj.Attrs(ctx); err != nil {
		if err == storage.ErrObjectNotExist {
			return false, nil
		}
		return false, fmt.Errorf("getting object attributes: %w", err)
	}

	return true, nil
}

// List returns all records under the history prefix
func (s *CloudStorageStore) List(ctx context.Context) ([]Record, error) {
	bucket := s.client.Bucket(s.bucketName)
	it := bucket.Objects(ctx, &storage.Query{Prefix: s.prefix})

	var records []Record
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}

		reader, err := bucket.Object(attrs.Name).NewReader(ctx)
		if err != nil {
			return nil, fmt.Errorf("opening object %s: %w", attrs.Name, err)
		}

		data, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			return nil, fmt.Errorf("reading object %s: %w", attrs.Name, err)
		}

		var record Record
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("unmarshaling %s: %w", attrs.Name, err)
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].PostedAt.Before(records[j].PostedAt)
	})

	return records, nil
}

// Clear removes all records under the history prefix
func (s *CloudStorageStore) Clear(ctx context.Context) error {
	bucket := s.client.Bucket(s.bucketName)
	it := bucket.Objects(ctx, &storage.Query{Prefix: s.prefix})

	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("listing objects: %w", err)
		}

		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil {
			return fmt.Errorf("deleting object %s: %w", attrs.Name, err)
		}
	}

	return nil
}

// GetStats returns history statistics from object attributes
func (s *CloudStorageStore) GetStats(ctx context.Context) (*Stats, error) {
	bucket := s.client.Bucket(s.bucketName)
	it := bucket.Objects(ctx, &storage.Query{Prefix: s.prefix})

	stats := &Stats{}

	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}

		stats.TotalEntries++
		stats.StorageBytes += attrs.Size

		if stats.OldestEntry.IsZero() || attrs.Created.Before(stats.OldestEntry) {
			stats.OldestEntry = attrs.Created
		}
		if attrs.Created.After(stats.NewestEntry) {
			stats.NewestEntry = attrs.Created
		}
	}

	return stats, nil
}

// NewStore creates a store for the configured backend type
func NewStore(ctx context.Context, storeType, bucket string) (Store, error) {
	switch storeType {
	case "", "memory":
		return NewMemoryStore(), nil
	case "gcs":
		return NewCloudStorageStore(ctx, bucket)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", storeType)
	}
}
