package categorizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbridge/reconcile-backend/internal/adapters/sources"
)

func txWithContext(context string) sources.Transaction {
	return sources.Transaction{
		ID:      "b1",
		Origin:  sources.OriginBank,
		Context: context,
	}
}

func mustCatalog(t *testing.T, mappings []Mapping) *Catalog {
	t.Helper()
	catalog, err := NewCatalog(mappings)
	require.NoError(t, err)
	return catalog
}

func TestCategorizer_MatchesPattern(t *testing.T) {
	// Arrange
	catalog := mustCatalog(t, []Mapping{
		{Patterns: []string{"starbucks"}, CategoryID: "dining", CategoryName: "Dining", Confidence: 0.9, Occurrences: 12},
	})
	c := NewCategorizer(catalog, nil)

	// Act
	category := c.Categorize(txWithContext("STARBUCKS #123"))

	// Assert
	assert.Equal(t, "dining", category.ID)
	assert.Equal(t, "Dining", category.Name)
	assert.False(t, category.IsUnknown())
}

func TestCategorizer_CaseInsensitiveSubstring(t *testing.T) {
	// Arrange
	catalog := mustCatalog(t, []Mapping{
		{Patterns: []string{"Whole Foods"}, CategoryID: "groceries", CategoryName: "Groceries", Confidence: 0.8},
	})
	c := NewCategorizer(catalog, nil)

	// Act
	category := c.Categorize(txWithContext("wholefoods market | WHOLE FOODS MKT #10236"))

	// Assert
	assert.Equal(t, "groceries", category.ID)
}

func TestCategorizer_NoMatch_ReturnsUnknown(t *testing.T) {
	// Arrange
	catalog := mustCatalog(t, []Mapping{
		{Patterns: []string{"starbucks"}, CategoryID: "dining", CategoryName: "Dining", Confidence: 0.9},
	})
	c := NewCategorizer(catalog, nil)

	// Act
	category := c.Categorize(txWithContext("SHELL OIL 57442"))

	// Assert - unknown sentinel, never an error
	assert.True(t, category.IsUnknown())
	assert.Equal(t, Unknown, category)
}

func TestCategorizer_EmptyContext_ReturnsUnknown(t *testing.T) {
	// Arrange
	catalog := mustCatalog(t, []Mapping{
		{Patterns: []string{""}, CategoryID: "dining", CategoryName: "Dining", Confidence: 0.9},
	})
	c := NewCategorizer(catalog, nil)

	// Act + Assert - empty patterns never match, empty context never matches
	assert.True(t, c.Categorize(txWithContext("")).IsUnknown())
	assert.True(t, c.Categorize(txWithContext("anything")).IsUnknown())
}

func TestCategorizer_RanksByConfidence(t *testing.T) {
	// Arrange - both mappings match, higher confidence wins
	catalog := mustCatalog(t, []Mapping{
		{Patterns: []string{"market"}, CategoryID: "shopping", CategoryName: "Shopping", Confidence: 0.5, Occurrences: 100},
		{Patterns: []string{"farmers market"}, CategoryID: "groceries", CategoryName: "Groceries", Confidence: 0.9, Occurrences: 3},
	})
	c := NewCategorizer(catalog, nil)

	// Act
	category := c.Categorize(txWithContext("FARMERS MARKET DOWNTOWN"))

	// Assert
	assert.Equal(t, "groceries", category.ID)
}

func TestCategorizer_EqualConfidence_OccurrencesBreakTie(t *testing.T) {
	// Arrange
	catalog := mustCatalog(t, []Mapping{
		{Patterns: []string{"uber"}, CategoryID: "transport", CategoryName: "Transport", Confidence: 0.7, Occurrences: 4},
		{Patterns: []string{"eats"}, CategoryID: "dining", CategoryName: "Dining", Confidence: 0.7, Occurrences: 9},
	})
	c := NewCategorizer(catalog, nil)

	// Act
	category := c.Categorize(txWithContext("UBER EATS PENDING"))

	// Assert - higher occurrence count wins
	assert.Equal(t, "dining", category.ID)
}

func TestCategorizer_FullTie_CatalogOrderWins(t *testing.T) {
	// Arrange - identical confidence and occurrences
	catalog := mustCatalog(t, []Mapping{
		{Patterns: []string{"costco"}, CategoryID: "groceries", CategoryName: "Groceries", Confidence: 0.7, Occurrences: 5},
		{Patterns: []string{"costco"}, CategoryID: "shopping", CategoryName: "Shopping", Confidence: 0.7, Occurrences: 5},
	})
	c := NewCategorizer(catalog, nil)

	// Act
	category := c.Categorize(txWithContext("COSTCO WHSE #0482"))

	// Assert - first-listed mapping is chosen
	assert.Equal(t, "groceries", category.ID)
}

func TestCategorizer_CachesResult(t *testing.T) {
	// Arrange
	catalog := mustCatalog(t, []Mapping{
		{Patterns: []string{"starbucks"}, CategoryID: "dining", CategoryName: "Dining", Confidence: 0.9},
	})
	cache := NewMemoryCache()
	c := NewCategorizer(catalog, cache)

	// Act
	first := c.Categorize(txWithContext("STARBUCKS #123"))
	second := c.Categorize(txWithContext("starbucks #123"))

	// Assert - normalized context hits the same cache entry
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.Size())
}

func TestNewCatalog_RejectsInvalidMappings(t *testing.T) {
	// Confidence out of range
	_, err := NewCatalog([]Mapping{{CategoryID: "x", Confidence: 1.2}})
	assert.Error(t, err)

	// Negative occurrences
	_, err = NewCatalog([]Mapping{{CategoryID: "x", Confidence: 0.5, Occurrences: -1}})
	assert.Error(t, err)

	// Missing category id
	_, err = NewCatalog([]Mapping{{Confidence: 0.5}})
	assert.Error(t, err)
}

func TestNewCatalog_SnapshotsInput(t *testing.T) {
	// Arrange
	mappings := []Mapping{
		{Patterns: []string{"starbucks"}, CategoryID: "dining", CategoryName: "Dining", Confidence: 0.9},
	}
	catalog := mustCatalog(t, mappings)
	c := NewCategorizer(catalog, nil)

	// Act - mutate the caller's slice after building the catalog
	mappings[0].CategoryID = "changed"

	// Assert - snapshot is unaffected
	category := c.Categorize(txWithContext("STARBUCKS"))
	assert.Equal(t, "dining", category.ID)
}
