package pipeline

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/dvloznov/ledger-bot/internal/domain"
)

// maxLabelDistance is the largest edit distance accepted as a typo of a
// category name.
const maxLabelDistance = 2

// CategoryMatcher maps a model-produced label onto an active category.
type CategoryMatcher struct {
	categories []domain.Category
}

// NewCategoryMatcher creates a matcher over the given categories.
func NewCategoryMatcher(categories []domain.Category) *CategoryMatcher {
	return &CategoryMatcher{categories: categories}
}

// Match tries an exact case-insensitive name, then the category id, then the
// closest name within maxLabelDistance. A tie at the best distance is treated
// as no match.
func (m *CategoryMatcher) Match(label string) (domain.Category, bool) {
	norm := normalizeCategory(label)
	if norm == "" {
		return domain.Category{}, false
	}

	for _, c := range m.categories {
		if normalizeCategory(c.Name) == norm || normalizeCategory(c.CategoryID) == norm {
			return c, true
		}
	}

	best, bestDist, tie := domain.Category{}, maxLabelDistance+1, false
	for _, c := range m.categories {
		d := levenshtein.ComputeDistance(norm, normalizeCategory(c.Name))
		switch {
		case d < bestDist:
			best, bestDist, tie = c, d, false
		case d == bestDist:
			tie = true
		}
	}
	if bestDist > maxLabelDistance || tie {
		return domain.Category{}, false
	}
	return best, true
}

// normalizeCategory normalizes a category name for comparison.
func normalizeCategory(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
