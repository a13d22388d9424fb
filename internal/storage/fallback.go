package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"msvec/blocek/internal/logging"
	"msvec/blocek/internal/models"
	"msvec/blocek/internal/taxonomy"
)

const fallbackFile = "fallback_receipts.json"

// fallbackStore is the flat-file terminal tier: a single JSON array of
// records. The file has no independent concurrency safety, so every
// read-modify-write cycle (insert as well as query) is serialized through
// one mutex for the lifetime of the store.
type fallbackStore struct {
	mu   sync.Mutex
	path string
	tax  *taxonomy.Set
	log  logging.Logger
}

// openFallback roots the store at dir. Directory creation is idempotent and
// the tier is required to always come up, so a failed create is only logged;
// subsequent writes surface the real error.
func openFallback(dir string, tax *taxonomy.Set, log logging.Logger) *fallbackStore {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.WithError(err).Warn("Failed to create fallback store directory")
	}
	return &fallbackStore{
		path: filepath.Join(dir, fallbackFile),
		tax:  tax,
		log:  log,
	}
}

// Insert appends the batch via a locked read-modify-write of the whole file.
func (s *fallbackStore) Insert(ctx context.Context, items []models.Item, receiptText string, timestamp time.Time) error {
	records := buildRecords(s.tax, items, receiptText, timestamp)
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.readAll()
	existing = append(existing, records...)

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding fallback store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("error writing fallback store: %w", err)
	}
	s.log.WithField("count", len(records)).Debug("Inserted records into file store")
	return nil
}

// Query returns at most limit records in file order, oldest first.
func (s *fallbackStore) Query(ctx context.Context, limit int) ([]models.StoredRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.readAll()
	if limit >= 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *fallbackStore) Tier() Tier { return TierFallback }

func (s *fallbackStore) Close() error { return nil }

// readAll loads the backing file. An absent or corrupt file reads as empty;
// callers hold the lock.
func (s *fallbackStore) readAll() []models.StoredRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.WithError(err).Warn("Failed to read fallback store, treating as empty")
		}
		return []models.StoredRecord{}
	}

	var records []models.StoredRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.log.WithError(err).Warn("Corrupt fallback store, treating as empty")
		return []models.StoredRecord{}
	}
	return records
}
