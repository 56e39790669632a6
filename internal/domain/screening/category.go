// Package screening contains the pure domain logic for entity risk
// screening: the keyword catalog per risk category and the search query
// generator built on top of it.  No I/O lives here.
package screening

import (
	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

// Category identifies a group of screening keywords.
type Category string

const (
	// CategoryFinancialCrimes covers fraud, laundering, and related conduct.
	CategoryFinancialCrimes Category = "financial_crimes"

	// CategoryCorruptionBribery covers bribery, graft, and influence offences.
	CategoryCorruptionBribery Category = "corruption_bribery"

	// CategoryAll is a read-only pseudo-category that unions every concrete
	// category.  It can be queried but never mutated.
	CategoryAll Category = "all"
)

// concreteCategories lists every mutable category, in catalog order.
var concreteCategories = []Category{
	CategoryFinancialCrimes,
	CategoryCorruptionBribery,
}

// Categories returns the concrete (mutable) categories in stable order.
func Categories() []Category {
	out := make([]Category, len(concreteCategories))
	copy(out, concreteCategories)
	return out
}

// ParseCategory converts a raw string into a Category.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryFinancialCrimes, CategoryCorruptionBribery, CategoryAll:
		return Category(s), nil
	}
	return "", errors.New(errors.ErrCodeScreeningUnknownCategory, "unknown risk category").WithDetail(s)
}

// Valid reports whether c is a recognised category, including the "all"
// pseudo-category.
func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

// Mutable reports whether keywords may be added to or removed from c.
func (c Category) Mutable() bool {
	return c.Valid() && c != CategoryAll
}
