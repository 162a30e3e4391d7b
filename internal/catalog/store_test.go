package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjfrontdev/store/internal/api"
	"github.com/mjfrontdev/store/internal/domain"
)

type mockAPI struct {
	m        sync.Mutex
	products []domain.Product
	err      error
	calls    map[string]int
}

func newCatalogMock(products ...domain.Product) *mockAPI {
	return &mockAPI{products: products, calls: map[string]int{}}
}

func (m *mockAPI) ListProducts(_ context.Context, _ api.ProductQuery) (*api.Page[domain.Product], error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls["list"]++
	if m.err != nil {
		return nil, m.err
	}
	results := append([]domain.Product(nil), m.products...)
	return &api.Page[domain.Product]{Count: len(results), Results: results}, nil
}

func (m *mockAPI) GetProduct(_ context.Context, productID int64) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls["get"]++
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == productID {
			copied := p
			return &copied, nil
		}
	}
	return nil, errors.New("product not found")
}

func (m *mockAPI) ListCategories(context.Context) ([]domain.Category, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls["categories"]++
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Category{{ID: 1, Name: "Phones"}, {ID: 2, Name: "Electronics"}}, nil
}

func (m *mockAPI) SyncProducts(context.Context) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls["sync"]++
	return m.err
}

func (m *mockAPI) callCount(name string) int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.calls[name]
}

func TestFetchAll_PopulatesProducts(t *testing.T) {
	mock := newCatalogMock(demoProducts()...)
	s := NewStore(mock)

	require.NoError(t, s.FetchAll(context.Background(), api.ProductQuery{}))

	assert.Len(t, s.Products(), 10)
	assert.Equal(t, 10, s.State().Data.Pagination.Count)
}

func TestFetch_SetsCurrent(t *testing.T) {
	mock := newCatalogMock(demoProducts()...)
	s := NewStore(mock)

	require.NoError(t, s.Fetch(context.Background(), 3))

	current := s.Current()
	require.NotNil(t, current)
	assert.Equal(t, "Smartphone Mini", current.Title)
}

func TestFetchCategories(t *testing.T) {
	mock := newCatalogMock()
	s := NewStore(mock)

	require.NoError(t, s.FetchCategories(context.Background()))

	require.Len(t, s.Categories(), 2)
	assert.Equal(t, "Phones", s.Categories()[0].Name)
}

func TestSync_Repopulates(t *testing.T) {
	mock := newCatalogMock(demoProducts()...)
	s := NewStore(mock)

	require.NoError(t, s.Sync(context.Background()))

	assert.Equal(t, 1, mock.callCount("sync"))
	assert.Equal(t, 1, mock.callCount("list"))
	assert.Len(t, s.Products(), 10)
}

// Search over ten fetched products is a pure local derivation: the fetched
// list stays intact and no extra round trip is issued.
func TestSetFilters_DerivedViewWithoutRoundTrip(t *testing.T) {
	mock := newCatalogMock(demoProducts()...)
	s := NewStore(mock)
	require.NoError(t, s.FetchAll(context.Background(), api.ProductQuery{}))
	listsBefore := mock.callCount("list")

	search := "phone"
	s.SetFilters(FilterPatch{Search: &search})

	filtered := s.Filtered()
	assert.ElementsMatch(t,
		[]string{"Phone X", "Smartphone Mini", "Headphones", "Phone Case"},
		titles(filtered))

	assert.Len(t, s.Products(), 10, "underlying list never mutated")
	assert.Equal(t, listsBefore, mock.callCount("list"), "filtering is local")
}

func TestClearFilters_RestoresDefaults(t *testing.T) {
	mock := newCatalogMock(demoProducts()...)
	s := NewStore(mock)
	require.NoError(t, s.FetchAll(context.Background(), api.ProductQuery{}))

	search := "phone"
	category := int64(1)
	max := decimal.NewFromInt(500_000)
	s.SetFilters(FilterPatch{Search: &search, Category: &category, PriceMax: &max})
	require.Less(t, len(s.Filtered()), 10)

	s.ClearFilters()

	assert.Equal(t, DefaultFilters(), s.Filters())
	assert.Len(t, s.Filtered(), 10)
}

func TestFetchAllFailure_KeepsPriorList(t *testing.T) {
	mock := newCatalogMock(demoProducts()...)
	s := NewStore(mock)
	require.NoError(t, s.FetchAll(context.Background(), api.ProductQuery{}))

	mock.m.Lock()
	mock.err = errors.New("upstream down")
	mock.m.Unlock()

	require.Error(t, s.FetchAll(context.Background(), api.ProductQuery{Search: "phone"}))

	assert.Error(t, s.Err())
	assert.Len(t, s.Products(), 10)
}
