// Package extraction recovers structured purchase items from the free-form
// text a language model returns. The response is expected to contain a JSON
// array (or an object with an "items" key) but is routinely wrapped in
// commentary or markdown code fences, or malformed; the parser tries a fixed
// sequence of recovery strategies and degrades to an empty item list rather
// than an error when none succeeds.
package extraction

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"msvec/blocek/internal/logging"
	"msvec/blocek/internal/models"
	"msvec/blocek/internal/taxonomy"
)

// Parser turns raw model responses into normalized purchase items.
type Parser struct {
	tax *taxonomy.Set
	log logging.Logger
}

// NewParser creates a Parser bound to a taxonomy.
func NewParser(tax *taxonomy.Set, log logging.Logger) *Parser {
	return &Parser{tax: tax, log: log}
}

// wireItem is the JSON shape of one candidate item. The category key is
// optional; absent categories resolve to the catch-all during normalization.
type wireItem struct {
	Product  string          `json:"product"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

// itemsEnvelope is the alternative top-level object shape {"items": [...]}.
type itemsEnvelope struct {
	Items []wireItem `json:"items"`
}

// Extract parses a raw model response into items. Strategies are tried in
// order, first success wins:
//
//  1. split on triple-backtick fences, strip a leading "json" language tag
//     from each segment and attempt a structured parse of segments that open
//     with '[' or '{'
//  2. parse the entire raw response directly
//
// Either a top-level array or an object carrying an "items" array is
// accepted. Every candidate's category runs through the taxonomy. A response
// nothing could be recovered from yields an empty slice, never an error; the
// caller distinguishes that from transport failures upstream.
func (p *Parser) Extract(raw string) []models.Item {
	if strings.Contains(raw, "```") {
		for _, part := range strings.Split(raw, "```") {
			part = strings.TrimSpace(part)
			if rest, ok := strings.CutPrefix(part, "json"); ok {
				part = strings.TrimSpace(rest)
			}
			if !strings.HasPrefix(part, "[") && !strings.HasPrefix(part, "{") {
				continue
			}
			if items, ok := p.decode(part); ok {
				p.log.WithField("count", len(items)).Debug("Extracted items from fenced segment")
				return items
			}
		}
	}

	if items, ok := p.decode(raw); ok {
		p.log.WithField("count", len(items)).Debug("Extracted items from raw response")
		return items
	}

	p.log.Debug("No items could be extracted from response")
	return []models.Item{}
}

// decode attempts both accepted top-level shapes on one candidate segment.
func (p *Parser) decode(segment string) ([]models.Item, bool) {
	data := []byte(segment)

	var list []wireItem
	if err := json.Unmarshal(data, &list); err == nil {
		return p.normalize(list), true
	}

	var envelope itemsEnvelope
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Items != nil {
		return p.normalize(envelope.Items), true
	}

	return nil, false
}

func (p *Parser) normalize(candidates []wireItem) []models.Item {
	items := make([]models.Item, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, models.Item{
			Product:  c.Product,
			Price:    c.Price,
			Category: p.tax.Normalize(c.Category),
		})
	}
	return items
}
