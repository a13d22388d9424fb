package extraction

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msvec/blocek/internal/logging"
	"msvec/blocek/internal/taxonomy"
)

func newTestParser() *Parser {
	return NewParser(taxonomy.Default(), logging.Discard())
}

func TestExtractFencedJSONArray(t *testing.T) {
	parser := newTestParser()

	raw := "Here are the items you asked for:\n```json\n[{\"product\":\"bread\",\"price\":1.5,\"category\":\"grocery\"}]\n```\nLet me know if you need anything else."
	items := parser.Extract(raw)

	require.Len(t, items, 1)
	assert.Equal(t, "bread", items[0].Product)
	assert.True(t, decimal.NewFromFloat(1.5).Equal(items[0].Price))
	assert.Equal(t, "grocery", items[0].Category)
}

func TestExtractFencedWithoutLanguageTag(t *testing.T) {
	parser := newTestParser()

	raw := "```\n[{\"product\":\"milk\",\"price\":1.2,\"category\":\"drinks nonalcoholic\"}]\n```"
	items := parser.Extract(raw)

	require.Len(t, items, 1)
	assert.Equal(t, "milk", items[0].Product)
}

func TestExtractPlainProse(t *testing.T) {
	parser := newTestParser()

	items := parser.Extract("I'm sorry, I could not find any purchases in that text.")
	require.NotNil(t, items)
	assert.Empty(t, items)
}

func TestExtractEmptyResponse(t *testing.T) {
	parser := newTestParser()

	items := parser.Extract("")
	require.NotNil(t, items)
	assert.Empty(t, items)
}

func TestExtractErrorSentinel(t *testing.T) {
	parser := newTestParser()

	// A failed generation call degrades to a sentinel string, which must
	// parse to the recognized empty-items outcome.
	items := parser.Extract("(chat completion error: context deadline exceeded)")
	assert.Empty(t, items)
}

func TestExtractDirectArray(t *testing.T) {
	parser := newTestParser()

	raw := `[{"product":"apples","price":2.3,"category":"healthy food"},{"product":"chips","price":1.1,"category":"snacks"}]`
	items := parser.Extract(raw)

	require.Len(t, items, 2)
	assert.Equal(t, "healthy food, vegetables and fruits", items[0].Category)
	assert.Equal(t, "unhealthy food, snacks", items[1].Category)
}

func TestExtractItemsEnvelope(t *testing.T) {
	parser := newTestParser()

	raw := `{"items":[{"product":"shampoo","price":4.5,"category":"hygiene"}]}`
	items := parser.Extract(raw)

	require.Len(t, items, 1)
	assert.Equal(t, "hygiene and cosmetics", items[0].Category)
}

func TestExtractFencedItemsEnvelope(t *testing.T) {
	parser := newTestParser()

	raw := "```json\n{\"items\":[{\"product\":\"lego\",\"price\":29.9,\"category\":\"toys\"}]}\n```"
	items := parser.Extract(raw)

	require.Len(t, items, 1)
	assert.Equal(t, "toys, fun, entertainment", items[0].Category)
}

func TestExtractObjectWithoutItemsKey(t *testing.T) {
	parser := newTestParser()

	items := parser.Extract(`{"products":[{"product":"bread","price":1.5}]}`)
	assert.Empty(t, items)
}

func TestExtractSkipsMalformedFencedSegment(t *testing.T) {
	parser := newTestParser()

	raw := "```json\n[{\"product\": broken\n```\n```json\n[{\"product\":\"bread\",\"price\":0.9,\"category\":\"grocery\"}]\n```"
	items := parser.Extract(raw)

	require.Len(t, items, 1)
	assert.Equal(t, "bread", items[0].Product)
}

func TestExtractMissingCategoryResolvesToCatchAll(t *testing.T) {
	parser := newTestParser()

	items := parser.Extract(`[{"product":"mystery box","price":9.99}]`)
	require.Len(t, items, 1)
	assert.Equal(t, taxonomy.CategoryOther, items[0].Category)
}

func TestExtractQuotedPrice(t *testing.T) {
	parser := newTestParser()

	items := parser.Extract(`[{"product":"bread","price":"1.50","category":"grocery"}]`)
	require.Len(t, items, 1)
	assert.True(t, decimal.NewFromFloat(1.5).Equal(items[0].Price))
}

func TestExtractNeverReturnsNonTaxonomyCategory(t *testing.T) {
	parser := newTestParser()
	tax := taxonomy.Default()
	members := make(map[string]bool)
	for _, c := range tax.Categories() {
		members[c] = true
	}

	raw := `[{"product":"a","price":1,"category":"GROCERY"},{"product":"b","price":2,"category":"something odd"},{"product":"c","price":3,"category":""}]`
	items := parser.Extract(raw)

	require.Len(t, items, 3)
	for _, item := range items {
		assert.True(t, members[item.Category], "category %q is not a taxonomy member", item.Category)
	}
}
