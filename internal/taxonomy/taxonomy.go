// Package taxonomy holds the fixed canonical category list, the normalization
// of free-form category strings onto it, and the stat-rule table that maps
// each category to its health/happiness deltas.
package taxonomy

import "strings"

// CategoryOther is the catch-all category every unmatched input resolves to.
const CategoryOther = "other"

// Rule is the (health, happiness) delta pair for one category.
type Rule struct {
	Health    int `yaml:"health"`
	Happiness int `yaml:"happiness"`
}

// defaultCategories is the canonical taxonomy. The order is load-bearing:
// Normalize breaks substring-match ties by taking the first entry in this
// enumeration, so reordering changes behavior.
var defaultCategories = []string{
	"healthy food, vegetables and fruits",
	"unhealthy food, snacks",
	"drinks alcoholic",
	"drinks nonalcoholic",
	"grocery",
	"hygiene and cosmetics",
	"medicines and health",
	"clothing and shoes",
	"toys, fun, entertainment",
	"home and furniture",
	"electronics and technology",
	"transportation and fuel",
	"books, education and stationery",
	"sports and outdoor",
	"pet care",
	"garden and plants",
	"home maintenance and repairs",
	"services and subscriptions",
	"restaurants and dining out",
	"travel and accommodation",
	"events and tickets",
	"gifts and special occasions",
	"beauty and personal care services",
	"jewelry and accessories",
	"baby and child care",
	CategoryOther,
}

var defaultRules = map[string]Rule{
	"healthy food, vegetables and fruits": {Health: 10, Happiness: 5},
	"unhealthy food, snacks":              {Health: -10, Happiness: -10},
	"drinks alcoholic":                    {Health: -20, Happiness: -10},
	"drinks nonalcoholic":                 {Health: -5, Happiness: 5},
	"grocery":                             {Health: 0, Happiness: 0},
	"hygiene and cosmetics":               {Health: 10, Happiness: 0},
	"medicines and health":                {Health: 10, Happiness: 0},
	"clothing and shoes":                  {Health: 0, Happiness: 0},
	"toys, fun, entertainment":            {Health: 0, Happiness: 10},
	"home and furniture":                  {Health: 0, Happiness: 5},
	"electronics and technology":          {Health: -5, Happiness: 5},
	"transportation and fuel":             {Health: 0, Happiness: 0},
	"books, education and stationery":     {Health: 5, Happiness: 10},
	"sports and outdoor":                  {Health: 5, Happiness: 5},
	"pet care":                            {Health: 0, Happiness: 0},
	"garden and plants":                   {Health: 0, Happiness: 0},
	"home maintenance and repairs":        {Health: 0, Happiness: 0},
	"services and subscriptions":          {Health: 0, Happiness: 0},
	"restaurants and dining out":          {Health: 0, Happiness: 5},
	"travel and accommodation":            {Health: 0, Happiness: 5},
	"events and tickets":                  {Health: 0, Happiness: 5},
	"gifts and special occasions":         {Health: 0, Happiness: 5},
	"beauty and personal care services":   {Health: 5, Happiness: 0},
	"jewelry and accessories":             {Health: 0, Happiness: 5},
	"baby and child care":                 {Health: 0, Happiness: 0},
	CategoryOther:                         {Health: 0, Happiness: 0},
}

// Set is one taxonomy with its stat rules. The zero value is not usable;
// construct with Default or LoadFile.
type Set struct {
	categories []string
	rules      map[string]Rule
}

// Default returns the built-in taxonomy and stat-rule table.
func Default() *Set {
	return &Set{
		categories: defaultCategories,
		rules:      defaultRules,
	}
}

// Categories returns the ordered canonical category list.
func (s *Set) Categories() []string {
	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out
}

// Normalize maps a free-form category string onto the canonical taxonomy.
// Empty input and anything that matches nothing resolve to the catch-all
// category. Matching is case-insensitive: exact match first, then a substring
// match in either direction, taken in enumeration order so ties are broken
// deterministically.
func (s *Set) Normalize(input string) string {
	cat := strings.ToLower(strings.TrimSpace(input))
	if cat == "" {
		return CategoryOther
	}

	for _, valid := range s.categories {
		if cat == valid {
			return valid
		}
	}

	for _, valid := range s.categories {
		if strings.Contains(valid, cat) || strings.Contains(cat, valid) {
			return valid
		}
	}

	return CategoryOther
}

// Deltas returns the stat-rule pair for a category. Categories without a rule
// yield zero deltas.
func (s *Set) Deltas(category string) (health, happiness int) {
	rule := s.rules[category]
	return rule.Health, rule.Happiness
}
