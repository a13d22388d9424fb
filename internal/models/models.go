// Package models defines the core data types shared across the application.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the currency recorded for every stored item.
const DefaultCurrency = "EUR"

func init() {
	// Stored files and API responses carry prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Item is a single purchase extracted from a receipt. The category is always
// an entry of the canonical taxonomy by the time an Item leaves the
// extraction parser.
type Item struct {
	Product  string          `json:"product"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

// StoredRecord is an Item as persisted by a storage tier, augmented with
// currency, a UTC timestamp, the stat deltas derived from its category and
// the raw receipt text it came from. The JSON keys are the on-disk contract
// of the fallback store and the property names of the remote schema.
type StoredRecord struct {
	Product        string          `json:"product" csv:"product"`
	Category       string          `json:"category" csv:"category"`
	Price          decimal.Decimal `json:"price" csv:"price"`
	Currency       string          `json:"currency" csv:"currency"`
	DateTime       time.Time       `json:"datetime" csv:"datetime"`
	HealthDelta    int             `json:"health_delta" csv:"health_delta"`
	HappinessDelta int             `json:"happiness_delta" csv:"happiness_delta"`
	ReceiptText    string          `json:"receipt_text" csv:"receipt_text"`
}
