package screening

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

func TestParseCategory(t *testing.T) {
	for _, s := range []string{"financial_crimes", "corruption_bribery", "all"} {
		cat, err := ParseCategory(s)
		require.NoError(t, err)
		assert.Equal(t, Category(s), cat)
	}

	_, err := ParseCategory("cybercrime")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeScreeningUnknownCategory))
}

func TestCategoryMutable(t *testing.T) {
	assert.True(t, CategoryFinancialCrimes.Mutable())
	assert.True(t, CategoryCorruptionBribery.Mutable())
	assert.False(t, CategoryAll.Mutable())
	assert.False(t, Category("bogus").Mutable())
}

func TestDefaultKeywordCounts(t *testing.T) {
	c := NewKeywordCatalog()
	assert.Len(t, c.Keywords(CategoryFinancialCrimes), 10)
	assert.Len(t, c.Keywords(CategoryCorruptionBribery), 8)
	assert.Len(t, c.Keywords(CategoryAll), 18)
}

func TestKeywordsSorted(t *testing.T) {
	c := NewKeywordCatalog()
	for _, cat := range []Category{CategoryFinancialCrimes, CategoryCorruptionBribery, CategoryAll} {
		words := c.Keywords(cat)
		for i := 1; i < len(words); i++ {
			assert.LessOrEqual(t, words[i-1], words[i])
		}
	}
}

func TestGenerateQueriesSurfaceForms(t *testing.T) {
	c := NewKeywordCatalog()
	queries, err := c.GenerateQueries("Acme Corp", CategoryFinancialCrimes, 3)
	require.NoError(t, err)
	require.Len(t, queries, 3)

	// First sorted keyword is "Ponzi"; the three surface forms appear in order.
	assert.Equal(t, `"Acme Corp" Ponzi`, queries[0])
	assert.Equal(t, "Acme Corp Ponzi", queries[1])
	assert.Equal(t, "Acme Corp AND Ponzi", queries[2])
}

func TestGenerateQueriesCap(t *testing.T) {
	c := NewKeywordCatalog()
	queries, err := c.GenerateQueries("Acme", CategoryAll, 7)
	require.NoError(t, err)
	assert.Len(t, queries, 7)
}

func TestGenerateQueriesDedupe(t *testing.T) {
	c := NewKeywordCatalog()
	queries, err := c.GenerateQueries("  Acme  ", CategoryFinancialCrimes, 50)
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for _, q := range queries {
		_, dup := seen[q]
		assert.False(t, dup, "duplicate query %q", q)
		seen[q] = struct{}{}
		// entity name is trimmed before composition
		assert.False(t, strings.HasPrefix(q, " "))
	}
}

func TestGenerateQueriesEmptyEntity(t *testing.T) {
	c := NewKeywordCatalog()
	for _, name := range []string{"", "   "} {
		_, err := c.GenerateQueries(name, CategoryAll, 5)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeScreeningEmptyEntity))
	}
}

func TestGenerateQueriesDefaultCap(t *testing.T) {
	c := NewKeywordCatalog()
	queries, err := c.GenerateQueries("Acme", CategoryAll, 0)
	require.NoError(t, err)
	assert.Len(t, queries, DefaultMaxQueries)
}

func TestGenerateComprehensive(t *testing.T) {
	c := NewKeywordCatalog()
	result, err := c.GenerateComprehensive("Acme Corp", 5)
	require.NoError(t, err)

	require.Contains(t, result, "financial_crimes")
	require.Contains(t, result, "corruption_bribery")
	require.Contains(t, result, MixedBucket)

	assert.Len(t, result["financial_crimes"], 5)
	assert.Len(t, result["corruption_bribery"], 5)
	assert.Len(t, result[MixedBucket], 5)

	// mixed bucket uses the quoted surface form only
	for _, q := range result[MixedBucket] {
		assert.True(t, strings.HasPrefix(q, `"Acme Corp" `), "unexpected mixed query %q", q)
	}
}

func TestGenerateComprehensiveEmptyEntity(t *testing.T) {
	c := NewKeywordCatalog()
	_, err := c.GenerateComprehensive("", 5)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeScreeningEmptyEntity))
}

func TestAddKeyword(t *testing.T) {
	c := NewKeywordCatalog()
	require.NoError(t, c.AddKeyword("  Sanctions Evasion  ", CategoryFinancialCrimes))
	assert.Contains(t, c.Keywords(CategoryFinancialCrimes), "sanctions evasion")

	// duplicate add is a no-op
	require.NoError(t, c.AddKeyword("sanctions evasion", CategoryFinancialCrimes))
	assert.Len(t, c.Keywords(CategoryFinancialCrimes), 11)
}

func TestAddKeywordRejectsAllCategory(t *testing.T) {
	c := NewKeywordCatalog()
	err := c.AddKeyword("fraud", CategoryAll)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeScreeningCategoryLocked))
}

func TestAddKeywordRejectsEmpty(t *testing.T) {
	c := NewKeywordCatalog()
	assert.Error(t, c.AddKeyword("   ", CategoryFinancialCrimes))
}

func TestRemoveKeyword(t *testing.T) {
	c := NewKeywordCatalog()
	require.NoError(t, c.RemoveKeyword("fraud", CategoryFinancialCrimes))
	assert.NotContains(t, c.Keywords(CategoryFinancialCrimes), "fraud")

	err := c.RemoveKeyword("fraud", CategoryFinancialCrimes)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeScreeningKeywordMissing))
}

func TestRemoveKeywordRejectsAllCategory(t *testing.T) {
	c := NewKeywordCatalog()
	err := c.RemoveKeyword("fraud", CategoryAll)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeScreeningCategoryLocked))
}

func TestStatistics(t *testing.T) {
	c := NewKeywordCatalog()
	stats := c.Statistics()
	assert.Equal(t, 10, stats["financial_crimes"])
	assert.Equal(t, 8, stats["corruption_bribery"])
	assert.Equal(t, 18, stats["total"])
}

func TestExportImportRoundTrip(t *testing.T) {
	c := NewKeywordCatalog()
	require.NoError(t, c.AddKeyword("tax evasion", CategoryFinancialCrimes))
	exported := c.Export()

	fresh := NewKeywordCatalog()
	imported := fresh.Import(exported)
	assert.Equal(t, 2, imported)
	assert.Equal(t, exported, fresh.Export())
}

func TestImportSkipsUnknownAndAll(t *testing.T) {
	c := NewKeywordCatalog()
	imported := c.Import(map[string][]string{
		"all":              {"x"},
		"unknown_category": {"y"},
		"corruption_bribery": {"bribery", "graft"},
	})
	assert.Equal(t, 1, imported)
	assert.Equal(t, []string{"bribery", "graft"}, c.Keywords(CategoryCorruptionBribery))
	// union still contains all financial crime keywords
	assert.Len(t, c.Keywords(CategoryAll), 12)
}
