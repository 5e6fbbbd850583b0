// Package categorizer assigns spending categories to bank transactions that
// have no ledger counterpart, using a catalog of learned text-pattern
// mappings. The catalog is an immutable snapshot per reconciliation run;
// learning and mutation happen elsewhere.
package categorizer

import (
	"fmt"
	"strings"

	"github.com/finbridge/reconcile-backend/internal/adapters/sources"
)

// Category is a named spending category or the explicit Unknown sentinel.
// Absence of a confident inference is represented, never omitted.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Unknown is returned when no mapping pattern matches a transaction.
var Unknown = Category{ID: "unknown", Name: "Unknown"}

// IsUnknown reports whether the category is the Unknown sentinel.
func (c Category) IsUnknown() bool {
	return c.ID == Unknown.ID
}

// Mapping is a learned association between text patterns and a category.
type Mapping struct {
	Patterns     []string `json:"patterns"`
	CategoryID   string   `json:"category_id"`
	CategoryName string   `json:"category_name"`
	Confidence   float64  `json:"confidence"`  // [0,1]
	Occurrences  int      `json:"occurrences"` // times observed/confirmed
}

// Catalog is an ordered, read-only snapshot of category mappings. Catalog
// order is the final ranking tie-break, so it must be stable for a run.
type Catalog struct {
	mappings []Mapping
}

// NewCatalog validates and copies the mappings into an immutable snapshot.
func NewCatalog(mappings []Mapping) (*Catalog, error) {
	for i, m := range mappings {
		if m.CategoryID == "" {
			return nil, fmt.Errorf("mapping %d: category id is required", i)
		}
		if m.Confidence < 0 || m.Confidence > 1 {
			return nil, fmt.Errorf("mapping %d (%s): confidence %v out of range [0,1]", i, m.CategoryID, m.Confidence)
		}
		if m.Occurrences < 0 {
			return nil, fmt.Errorf("mapping %d (%s): occurrence count must not be negative", i, m.CategoryID)
		}
	}
	snapshot := make([]Mapping, len(mappings))
	copy(snapshot, mappings)
	return &Catalog{mappings: snapshot}, nil
}

// Len returns the number of mappings in the catalog.
func (c *Catalog) Len() int { return len(c.mappings) }

// Cache stores inferred categories keyed by normalized context string.
type Cache interface {
	Get(key string) (Category, bool)
	Set(key string, value Category)
}

// Categorizer infers categories from transaction context strings.
type Categorizer struct {
	catalog *Catalog
	cache   Cache
}

// NewCategorizer creates a new categorizer. The cache may be nil.
func NewCategorizer(catalog *Catalog, cache Cache) *Categorizer {
	return &Categorizer{
		catalog: catalog,
		cache:   cache,
	}
}

// Categorize returns the best-guess category for a transaction, or Unknown
// when no mapping pattern occurs in its context string. It never fails:
// an uninferred category is a normal outcome, not an error.
//
// Mappings are ranked by confidence, then occurrence count, then catalog
// order, so results are deterministic across runs.
func (c *Categorizer) Categorize(tx sources.Transaction) Category {
	key := normalizeContext(tx.Context)
	if key == "" {
		return Unknown
	}

	if c.cache != nil {
		if cached, found := c.cache.Get(key); found {
			return cached
		}
	}

	result := Unknown
	var best *Mapping
	for i := range c.catalog.mappings {
		m := &c.catalog.mappings[i]
		if !matchesAny(key, m.Patterns) {
			continue
		}
		if best == nil || ranksAbove(m, best) {
			best = m
		}
	}
	if best != nil {
		result = Category{ID: best.CategoryID, Name: best.CategoryName}
	}

	if c.cache != nil {
		c.cache.Set(key, result)
	}
	return result
}

// ranksAbove reports whether a should replace b. Strict comparisons keep the
// first-listed mapping on full ties.
func ranksAbove(a, b *Mapping) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.Occurrences > b.Occurrences
}

// matchesAny reports whether any pattern occurs in the normalized context.
// Matching is case-insensitive whole-pattern substring containment.
func matchesAny(context string, patterns []string) bool {
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" && strings.Contains(context, p) {
			return true
		}
	}
	return false
}

// normalizeContext lowers and trims a context string for matching and cache
// keying.
func normalizeContext(context string) string {
	return strings.ToLower(strings.TrimSpace(context))
}
