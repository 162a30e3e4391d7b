package catalog

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mjfrontdev/store/internal/domain"
)

// DefaultPriceCap is the inclusive upper bound of the default price range.
var DefaultPriceCap = decimal.NewFromInt(1_000_000)

// Filters is the local derived-view input: case-insensitive substring
// match on title, exact category id, inclusive price bounds, plus a sort
// order. It is client state only and never persisted.
type Filters struct {
	Search   string
	Category int64 // 0 means all categories
	PriceMin decimal.Decimal
	PriceMax decimal.Decimal
	Ordering string
}

func DefaultFilters() Filters {
	return Filters{
		PriceMin: decimal.Zero,
		PriceMax: DefaultPriceCap,
		Ordering: "-created_at",
	}
}

// FilterPatch is a partial filter update; nil fields keep their value.
type FilterPatch struct {
	Search   *string
	Category *int64
	PriceMin *decimal.Decimal
	PriceMax *decimal.Decimal
	Ordering *string
}

func (f Filters) merge(patch FilterPatch) Filters {
	if patch.Search != nil {
		f.Search = *patch.Search
	}
	if patch.Category != nil {
		f.Category = *patch.Category
	}
	if patch.PriceMin != nil {
		f.PriceMin = *patch.PriceMin
	}
	if patch.PriceMax != nil {
		f.PriceMax = *patch.PriceMax
	}
	if patch.Ordering != nil {
		f.Ordering = *patch.Ordering
	}
	return f
}

// Apply computes the filtered, ordered view of products. The input slice
// is left untouched; the result is a fresh slice recomputed per call.
func (f Filters) Apply(products []domain.Product) []domain.Product {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	filtered := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if search != "" && !strings.Contains(strings.ToLower(p.Title), search) {
			continue
		}
		if f.Category != 0 && p.CategoryID() != f.Category {
			continue
		}
		if p.Price.LessThan(f.PriceMin) || p.Price.GreaterThan(f.PriceMax) {
			continue
		}
		filtered = append(filtered, p)
	}

	orderBy(filtered, f.Ordering)
	return filtered
}

func orderBy(products []domain.Product, ordering string) {
	desc := strings.HasPrefix(ordering, "-")
	field := strings.TrimPrefix(ordering, "-")

	var less func(a, b domain.Product) bool
	switch field {
	case "created_at":
		less = func(a, b domain.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "price":
		less = func(a, b domain.Product) bool { return a.Price.LessThan(b.Price) }
	case "title":
		less = func(a, b domain.Product) bool { return a.Title < b.Title }
	case "rating":
		less = func(a, b domain.Product) bool { return a.Rating < b.Rating }
	default:
		return
	}

	sort.SliceStable(products, func(i, j int) bool {
		if desc {
			return less(products[j], products[i])
		}
		return less(products[i], products[j])
	})
}
