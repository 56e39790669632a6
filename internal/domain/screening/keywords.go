package screening

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

// DefaultMaxQueries is the query cap applied when a caller passes a
// non-positive limit to GenerateQueries.
const DefaultMaxQueries = 10

// mixedTopKeywords is how many leading keywords each category contributes to
// the "mixed" bucket of a comprehensive query set.
const mixedTopKeywords = 3

// MixedBucket is the key under which GenerateComprehensive returns the
// cross-category query list.
const MixedBucket = "mixed"

// defaultKeywords seeds a new catalog.  The lists mirror the screening
// vocabulary used by compliance analysts; they can be extended at runtime
// through AddKeyword or Import.
var defaultKeywords = map[Category][]string{
	CategoryFinancialCrimes: {
		"fraud",
		"scam",
		"Ponzi",
		"embezzlement",
		"insider trading",
		"accounting irregularities",
		"money laundering",
		"misappropriation",
		"kickbacks",
		"shell company",
	},
	CategoryCorruptionBribery: {
		"bribery",
		"corruption",
		"graft",
		"undue influence",
		"facilitation payment",
		"procurement fraud",
		"nepotism",
		"political donation scandal",
	},
}

// KeywordCatalog holds the per-category screening keyword sets and derives
// search queries from them.  All methods are safe for concurrent use.
type KeywordCatalog struct {
	mu       sync.RWMutex
	keywords map[Category]map[string]struct{}
}

// NewKeywordCatalog builds a catalog seeded with the default keyword sets.
func NewKeywordCatalog() *KeywordCatalog {
	c := &KeywordCatalog{
		keywords: make(map[Category]map[string]struct{}, len(defaultKeywords)),
	}
	for cat, words := range defaultKeywords {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		c.keywords[cat] = set
	}
	return c
}

// Keywords returns the sorted keyword list for the category.  CategoryAll
// returns the deduplicated union of every concrete category.
func (c *KeywordCatalog) Keywords(cat Category) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keywordsLocked(cat)
}

// keywordsLocked is Keywords without locking; callers must hold c.mu.
func (c *KeywordCatalog) keywordsLocked(cat Category) []string {
	set := make(map[string]struct{})
	if cat == CategoryAll {
		for _, words := range c.keywords {
			for w := range words {
				set[w] = struct{}{}
			}
		}
	} else {
		for w := range c.keywords[cat] {
			set[w] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// GenerateQueries combines the entity name with the category's keywords into
// search queries.  Three surface forms are produced per keyword:
//
//	"<entity>" <keyword>
//	<entity> <keyword>
//	<entity> AND <keyword>
//
// Duplicates are removed while preserving first-seen order, and the result
// is capped at maxQueries (DefaultMaxQueries when maxQueries <= 0).  A
// category with no keywords yields just the bare entity name.
func (c *KeywordCatalog) GenerateQueries(entityName string, cat Category, maxQueries int) ([]string, error) {
	entityName = strings.TrimSpace(entityName)
	if entityName == "" {
		return nil, errors.New(errors.ErrCodeScreeningEmptyEntity, "entity name cannot be empty")
	}
	if !cat.Valid() {
		return nil, errors.New(errors.ErrCodeScreeningUnknownCategory, "unknown risk category").WithDetail(string(cat))
	}
	if maxQueries <= 0 {
		maxQueries = DefaultMaxQueries
	}

	keywords := c.Keywords(cat)
	if len(keywords) == 0 {
		return []string{entityName}, nil
	}
	if len(keywords) > maxQueries {
		keywords = keywords[:maxQueries]
	}

	queries := make([]string, 0, len(keywords)*3)
	for _, kw := range keywords {
		queries = append(queries,
			fmt.Sprintf(`"%s" %s`, entityName, kw),
			fmt.Sprintf("%s %s", entityName, kw),
			fmt.Sprintf("%s AND %s", entityName, kw),
		)
	}

	seen := make(map[string]struct{}, len(queries))
	unique := queries[:0]
	for _, q := range queries {
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		unique = append(unique, q)
	}
	if len(unique) > maxQueries {
		unique = unique[:maxQueries]
	}
	return unique, nil
}

// GenerateComprehensive produces a query set covering every concrete
// category, keyed by category name, plus a MixedBucket list built from the
// leading keywords of each category in quoted form.  Each list is capped at
// perCategory queries.
func (c *KeywordCatalog) GenerateComprehensive(entityName string, perCategory int) (map[string][]string, error) {
	entityName = strings.TrimSpace(entityName)
	if entityName == "" {
		return nil, errors.New(errors.ErrCodeScreeningEmptyEntity, "entity name cannot be empty")
	}
	if perCategory <= 0 {
		perCategory = 5
	}

	result := make(map[string][]string, len(concreteCategories)+1)
	for _, cat := range concreteCategories {
		queries, err := c.GenerateQueries(entityName, cat, perCategory)
		if err != nil {
			return nil, err
		}
		result[string(cat)] = queries
	}

	var mixed []string
	for _, cat := range concreteCategories {
		keywords := c.Keywords(cat)
		if len(keywords) > mixedTopKeywords {
			keywords = keywords[:mixedTopKeywords]
		}
		for _, kw := range keywords {
			mixed = append(mixed, fmt.Sprintf(`"%s" %s`, entityName, kw))
			if len(mixed) >= perCategory {
				break
			}
		}
		if len(mixed) >= perCategory {
			break
		}
	}
	result[MixedBucket] = mixed

	return result, nil
}

// AddKeyword adds a keyword to a mutable category.  The keyword is trimmed
// and lower-cased before insertion; adding an existing keyword is a no-op.
func (c *KeywordCatalog) AddKeyword(keyword string, cat Category) error {
	if cat == CategoryAll {
		return errors.New(errors.ErrCodeScreeningCategoryLocked, "cannot add keywords to the 'all' category")
	}
	if !cat.Valid() {
		return errors.New(errors.ErrCodeScreeningUnknownCategory, "unknown risk category").WithDetail(string(cat))
	}
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return errors.InvalidParam("keyword cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.keywords[cat][keyword] = struct{}{}
	return nil
}

// RemoveKeyword removes an exact keyword from a mutable category.
func (c *KeywordCatalog) RemoveKeyword(keyword string, cat Category) error {
	if cat == CategoryAll {
		return errors.New(errors.ErrCodeScreeningCategoryLocked, "cannot remove keywords from the 'all' category")
	}
	if !cat.Valid() {
		return errors.New(errors.ErrCodeScreeningUnknownCategory, "unknown risk category").WithDetail(string(cat))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.keywords[cat][keyword]; !ok {
		return errors.New(errors.ErrCodeScreeningKeywordMissing, "keyword not found in category").WithDetail(keyword)
	}
	delete(c.keywords[cat], keyword)
	return nil
}

// Statistics returns the keyword count per category plus a "total" entry
// holding the size of the deduplicated union.
func (c *KeywordCatalog) Statistics() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := make(map[string]int, len(c.keywords)+1)
	for cat, words := range c.keywords {
		stats[string(cat)] = len(words)
	}
	stats["total"] = len(c.keywordsLocked(CategoryAll))
	return stats
}

// Export returns every category's keywords as sorted lists, suitable for
// JSON serialisation.
func (c *KeywordCatalog) Export() map[string][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string][]string, len(c.keywords))
	for cat := range c.keywords {
		out[string(cat)] = c.keywordsLocked(cat)
	}
	return out
}

// Import replaces the keyword sets of the categories present in data.
// Unknown category names and the "all" pseudo-category are skipped; the
// count of imported categories is returned.
func (c *KeywordCatalog) Import(data map[string][]string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	imported := 0
	for name, words := range data {
		cat, err := ParseCategory(name)
		if err != nil || cat == CategoryAll {
			continue
		}
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		c.keywords[cat] = set
		imported++
	}
	return imported
}
