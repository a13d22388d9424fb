// Package storage persists extracted purchase records. Three backend tiers
// exist behind one interface: a remote Weaviate instance, a locally embedded
// SQLite database, and a flat-file JSON store. The resolver picks the highest
// tier that is actually reachable and degrades without ever failing; callers
// never need to know which tier is active.
package storage

import (
	"context"
	"time"

	"msvec/blocek/internal/models"
	"msvec/blocek/internal/taxonomy"
)

// ClassName is the remote schema class (and the embedded table) holding
// stored records.
const ClassName = "ReceiptItem"

// Tier identifies one of the closed set of storage backends.
type Tier string

const (
	// TierRemote is a networked Weaviate instance.
	TierRemote Tier = "remote"
	// TierEmbedded is a SQLite database under the local data directory.
	TierEmbedded Tier = "embedded"
	// TierFallback is the flat-file JSON store. It is the terminal tier and
	// always succeeds.
	TierFallback Tier = "fallback"
)

// Store is the uniform gateway over whichever tier the resolver selected.
// Records are append-only; there are no update or delete operations.
type Store interface {
	// Insert persists one record per item, stamped with the given receipt
	// text and timestamp. Timestamps are normalized to UTC.
	Insert(ctx context.Context, items []models.Item, receiptText string, timestamp time.Time) error

	// Query returns at most limit stored records, oldest first where the
	// tier has a defined order.
	Query(ctx context.Context, limit int) ([]models.StoredRecord, error)

	// Tier reports which backend this store is.
	Tier() Tier

	// Close releases the tier's resources.
	Close() error
}

// buildRecords derives the stored form of a batch of items: UTC timestamp,
// fixed currency, and per-item stat deltas from the taxonomy's rule table.
func buildRecords(tax *taxonomy.Set, items []models.Item, receiptText string, timestamp time.Time) []models.StoredRecord {
	timestamp = timestamp.UTC()

	records := make([]models.StoredRecord, 0, len(items))
	for _, item := range items {
		health, happiness := tax.Deltas(item.Category)
		records = append(records, models.StoredRecord{
			Product:        item.Product,
			Category:       item.Category,
			Price:          item.Price,
			Currency:       models.DefaultCurrency,
			DateTime:       timestamp,
			HealthDelta:    health,
			HappinessDelta: happiness,
			ReceiptText:    receiptText,
		})
	}
	return records
}
