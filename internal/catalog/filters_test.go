package catalog

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjfrontdev/store/internal/domain"
)

func product(id int64, title string, categoryID int64, price int64) domain.Product {
	return domain.Product{
		ID:        id,
		Title:     title,
		Price:     decimal.NewFromInt(price),
		Category:  &domain.Category{ID: categoryID},
		CreatedAt: time.Unix(1_700_000_000+id*60, 0),
	}
}

// Ten products spanning two categories, three of them phones.
func demoProducts() []domain.Product {
	products := []domain.Product{
		product(1, "Phone X", 1, 900_000),
		product(2, "Laptop Pro", 2, 950_000),
		product(3, "Smartphone Mini", 1, 400_000),
		product(4, "Headphones", 2, 120_000),
		product(5, "Phone Case", 1, 30_000),
		product(6, "Monitor", 2, 600_000),
	}
	for i := int64(7); i <= 10; i++ {
		products = append(products, product(i, fmt.Sprintf("Gadget %d", i), 2, 50_000*i))
	}
	return products
}

func titles(products []domain.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Title)
	}
	return out
}

func TestApply_SearchIsCaseInsensitiveSubstring(t *testing.T) {
	f := DefaultFilters()
	f.Search = "  PHONE "

	got := f.Apply(demoProducts())

	assert.ElementsMatch(t,
		[]string{"Phone X", "Smartphone Mini", "Headphones", "Phone Case"},
		titles(got))
}

func TestApply_CategoryExactMatch(t *testing.T) {
	f := DefaultFilters()
	f.Category = 1

	got := f.Apply(demoProducts())

	require.Len(t, got, 3)
	for _, p := range got {
		assert.Equal(t, int64(1), p.CategoryID())
	}
}

func TestApply_PriceBoundsInclusive(t *testing.T) {
	f := DefaultFilters()
	f.PriceMin = decimal.NewFromInt(120_000)
	f.PriceMax = decimal.NewFromInt(600_000)

	got := f.Apply(demoProducts())

	for _, p := range got {
		assert.True(t, p.Price.GreaterThanOrEqual(f.PriceMin), p.Title)
		assert.True(t, p.Price.LessThanOrEqual(f.PriceMax), p.Title)
	}
	// Both boundary prices are kept.
	assert.Contains(t, titles(got), "Headphones")
	assert.Contains(t, titles(got), "Monitor")
}

func TestApply_CombinedFilters(t *testing.T) {
	f := DefaultFilters()
	f.Search = "phone"
	f.Category = 1
	f.PriceMax = decimal.NewFromInt(500_000)

	got := f.Apply(demoProducts())

	assert.Equal(t, []string{"Phone Case", "Smartphone Mini"}, titles(got))
}

func TestApply_OrderingPriceAscending(t *testing.T) {
	f := DefaultFilters()
	f.Ordering = "price"

	got := f.Apply(demoProducts())

	require.NotEmpty(t, got)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Price.LessThanOrEqual(got[i].Price))
	}
}

func TestApply_DefaultOrderingNewestFirst(t *testing.T) {
	got := DefaultFilters().Apply(demoProducts())

	require.NotEmpty(t, got)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i-1].CreatedAt.Before(got[i].CreatedAt))
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	products := demoProducts()
	original := titles(products)

	f := DefaultFilters()
	f.Ordering = "price"
	f.Search = "phone"
	_ = f.Apply(products)

	assert.Equal(t, original, titles(products))
}

func TestApply_UncategorizedProductExcludedByCategoryFilter(t *testing.T) {
	products := []domain.Product{
		{ID: 1, Title: "Mystery Box", Price: decimal.NewFromInt(100)},
	}
	f := DefaultFilters()
	f.Category = 1

	assert.Empty(t, f.Apply(products))
}

func TestMerge_PartialPatchKeepsOtherFields(t *testing.T) {
	f := DefaultFilters()
	search := "phone"
	merged := f.merge(FilterPatch{Search: &search})

	assert.Equal(t, "phone", merged.Search)
	assert.Equal(t, "-created_at", merged.Ordering)
	assert.True(t, DefaultPriceCap.Equal(merged.PriceMax))
}
