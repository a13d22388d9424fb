package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msvec/blocek/internal/logging"
)

func TestNormalize(t *testing.T) {
	tax := Default()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Empty input",
			input:    "",
			expected: CategoryOther,
		},
		{
			name:     "Whitespace only",
			input:    "   \t  ",
			expected: CategoryOther,
		},
		{
			name:     "Exact match",
			input:    "grocery",
			expected: "grocery",
		},
		{
			name:     "Exact match with case and padding",
			input:    "  GROCERY ",
			expected: "grocery",
		},
		{
			name:     "Input is substring of a category",
			input:    "alcoholic",
			expected: "drinks alcoholic",
		},
		{
			name:     "Category is substring of input",
			input:    "fresh healthy food, vegetables and fruits from the market",
			expected: "healthy food, vegetables and fruits",
		},
		{
			name:     "Near-miss phrase",
			input:    "snacks",
			expected: "unhealthy food, snacks",
		},
		{
			name:     "No match falls to catch-all",
			input:    "quantum flux capacitors",
			expected: CategoryOther,
		},
		{
			name:     "Ambiguous substring resolves in enumeration order",
			input:    "drinks",
			expected: "drinks alcoholic",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tax.Normalize(tc.input))
		})
	}
}

func TestNormalizeAlwaysReturnsTaxonomyMember(t *testing.T) {
	tax := Default()
	members := make(map[string]bool)
	for _, c := range tax.Categories() {
		members[c] = true
	}

	inputs := []string{"", "  ", "grocery", "GROCERY", "drinks", "foo bar", "zzz", "food", "care"}
	for _, input := range inputs {
		got := tax.Normalize(input)
		assert.True(t, members[got], "Normalize(%q) = %q is not a taxonomy member", input, got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	tax := Default()
	for _, category := range tax.Categories() {
		assert.Equal(t, category, tax.Normalize(category))
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	tax := Default()
	for _, input := range []string{"drinks", "food", "care", "home"} {
		first := tax.Normalize(input)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, tax.Normalize(input))
		}
	}
}

func TestDeltas(t *testing.T) {
	tax := Default()

	health, happiness := tax.Deltas("healthy food, vegetables and fruits")
	assert.Equal(t, 10, health)
	assert.Equal(t, 5, happiness)

	health, happiness = tax.Deltas("drinks alcoholic")
	assert.Equal(t, -20, health)
	assert.Equal(t, -10, happiness)

	health, happiness = tax.Deltas("grocery")
	assert.Zero(t, health)
	assert.Zero(t, happiness)

	// Unrecognized categories yield zero deltas
	health, happiness = tax.Deltas("not a category")
	assert.Zero(t, health)
	assert.Zero(t, happiness)
}

func TestEveryCategoryHasARule(t *testing.T) {
	tax := Default()
	for _, category := range tax.Categories() {
		_, ok := tax.rules[category]
		assert.True(t, ok, "category %q has no stat rule", category)
	}
}

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	tax, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"), logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, Default().Categories(), tax.Categories())
}

func TestLoadFileEmptyPathUsesDefaults(t *testing.T) {
	tax, err := LoadFile("", logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, Default().Categories(), tax.Categories())
}

func TestLoadFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	content := `categories:
  - "books"
  - "other"
rules:
  books:
    health: 1
    happiness: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tax, err := LoadFile(path, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"books", "other"}, tax.Categories())

	health, happiness := tax.Deltas("books")
	assert.Equal(t, 1, health)
	assert.Equal(t, 2, happiness)

	// Listed category without a rule gets zero deltas
	health, happiness = tax.Deltas("other")
	assert.Zero(t, health)
	assert.Zero(t, happiness)
}

func TestLoadFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: [unclosed"), 0o644))

	_, err := LoadFile(path, logging.Discard())
	assert.Error(t, err)
}
