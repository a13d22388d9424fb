package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"msvec/blocek/internal/logging"
	"msvec/blocek/internal/models"
	"msvec/blocek/internal/taxonomy"
)

const embeddedDBFile = "receipts.db"

// Timestamps and prices are stored as text: RFC 3339 keeps the explicit UTC
// offset and decimal strings avoid float rounding on the round trip.
const embeddedSchema = `CREATE TABLE IF NOT EXISTS receipt_items (
    id TEXT PRIMARY KEY,
    product TEXT NOT NULL,
    category TEXT NOT NULL,
    price TEXT NOT NULL,
    currency TEXT NOT NULL,
    datetime TEXT NOT NULL,
    health_delta INTEGER NOT NULL,
    happiness_delta INTEGER NOT NULL,
    receipt_text TEXT NOT NULL
);`

// embeddedStore is the SQLite tier, rooted at the configured data directory.
type embeddedStore struct {
	db  *sql.DB
	tax *taxonomy.Set
	log logging.Logger
}

// openEmbedded opens (or creates) the database under dataDir and ensures the
// schema. Any failure is returned to the resolver, which falls through to the
// file store.
func openEmbedded(ctx context.Context, dataDir string, tax *taxonomy.Set, log logging.Logger) (*embeddedStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, embeddedDBFile))
	if err != nil {
		return nil, fmt.Errorf("error opening embedded database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("embedded database unusable: %w", err)
	}

	if _, err := db.ExecContext(ctx, embeddedSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error ensuring embedded schema: %w", err)
	}

	return &embeddedStore{db: db, tax: tax, log: log}, nil
}

// Insert writes the whole batch in a single transaction.
func (s *embeddedStore) Insert(ctx context.Context, items []models.Item, receiptText string, timestamp time.Time) error {
	records := buildRecords(s.tax, items, receiptText, timestamp)
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting insert transaction: %w", err)
	}

	const insertSQL = `INSERT INTO receipt_items
        (id, product, category, price, currency, datetime, health_delta, happiness_delta, receipt_text)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, rec := range records {
		if _, err := tx.ExecContext(ctx, insertSQL,
			uuid.NewString(),
			rec.Product,
			rec.Category,
			rec.Price.String(),
			rec.Currency,
			rec.DateTime.Format(time.RFC3339),
			rec.HealthDelta,
			rec.HappinessDelta,
			rec.ReceiptText,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("error inserting record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing insert: %w", err)
	}
	s.log.WithField("count", len(records)).Debug("Inserted records into embedded store")
	return nil
}

// Query returns records in insertion order, oldest first.
func (s *embeddedStore) Query(ctx context.Context, limit int) ([]models.StoredRecord, error) {
	const querySQL = `SELECT product, category, price, currency, datetime, health_delta, happiness_delta, receipt_text
        FROM receipt_items ORDER BY rowid LIMIT ?`

	rows, err := s.db.QueryContext(ctx, querySQL, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying embedded store: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.log.WithError(err).Warn("Failed to close result rows")
		}
	}()

	var records []models.StoredRecord
	for rows.Next() {
		var rec models.StoredRecord
		var price, datetime string
		if err := rows.Scan(&rec.Product, &rec.Category, &price, &rec.Currency,
			&datetime, &rec.HealthDelta, &rec.HappinessDelta, &rec.ReceiptText); err != nil {
			return nil, fmt.Errorf("error scanning record: %w", err)
		}
		if rec.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("invalid stored price %q: %w", price, err)
		}
		if rec.DateTime, err = time.Parse(time.RFC3339, datetime); err != nil {
			return nil, fmt.Errorf("invalid stored timestamp %q: %w", datetime, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return records, nil
}

func (s *embeddedStore) Tier() Tier { return TierEmbedded }

func (s *embeddedStore) Close() error { return s.db.Close() }
