// Package catalog manages the read-only product catalog: remote fetches
// plus a locally derived filtered view that never issues a round trip.
package catalog

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/mjfrontdev/store/internal/api"
	"github.com/mjfrontdev/store/internal/domain"
	"github.com/mjfrontdev/store/internal/store"
)

// API is the slice of the REST client the catalog consumes.
type API interface {
	ListProducts(ctx context.Context, query api.ProductQuery) (*api.Page[domain.Product], error)
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	SyncProducts(ctx context.Context) error
}

type Pagination struct {
	Count    int
	Next     *string
	Previous *string
}

type State struct {
	Products   []domain.Product
	Categories []domain.Category
	Current    *domain.Product
	Pagination Pagination
	Filters    Filters
}

type Store struct {
	api   API
	slice *store.Slice[State]
	sfg   singleflight.Group
}

func NewStore(a API) *Store {
	s := &Store{api: a, slice: store.NewSlice[State]()}
	s.slice.Mutate(func(st *State) { st.Filters = DefaultFilters() })
	return s
}

// FetchAll populates the product list. Filter and sort changes afterwards
// are local only; a new round trip happens solely on explicit resync or
// repopulation. Concurrent identical calls share one request.
func (s *Store) FetchAll(ctx context.Context, query api.ProductQuery) error {
	_, err, _ := s.sfg.Do("products"+query.CacheKey(), func() (interface{}, error) {
		seq := s.slice.Begin()
		page, err := s.api.ListProducts(ctx, query)
		if err != nil {
			s.slice.Reject(seq, err)
			return nil, err
		}
		s.slice.Resolve(seq, func(st *State) {
			st.Products = page.Results
			st.Pagination = Pagination{Count: page.Count, Next: page.Next, Previous: page.Previous}
		})
		return nil, nil
	})
	return err
}

// Fetch loads one product into the current slot.
func (s *Store) Fetch(ctx context.Context, productID int64) error {
	seq := s.slice.Begin()
	product, err := s.api.GetProduct(ctx, productID)
	if err != nil {
		s.slice.Reject(seq, err)
		return err
	}
	s.slice.Resolve(seq, func(st *State) {
		st.Current = product
	})
	return nil
}

func (s *Store) FetchCategories(ctx context.Context) error {
	seq := s.slice.Begin()
	categories, err := s.api.ListCategories(ctx)
	if err != nil {
		s.slice.Reject(seq, err)
		return err
	}
	s.slice.Resolve(seq, func(st *State) {
		st.Categories = categories
	})
	return nil
}

// Sync asks the backend to resync its catalog, then repopulates the list.
func (s *Store) Sync(ctx context.Context) error {
	seq := s.slice.Begin()
	if err := s.api.SyncProducts(ctx); err != nil {
		s.slice.Reject(seq, err)
		return err
	}
	s.slice.Resolve(seq, nil)
	return s.FetchAll(ctx, api.ProductQuery{})
}

// SetFilters merges non-zero fields of the patch into the filter state.
// No network round trip: the filtered view is recomputed on read.
func (s *Store) SetFilters(patch FilterPatch) {
	s.slice.Mutate(func(st *State) {
		st.Filters = st.Filters.merge(patch)
	})
}

func (s *Store) ClearFilters() {
	s.slice.Mutate(func(st *State) { st.Filters = DefaultFilters() })
}

func (s *Store) Filters() Filters {
	return store.View(s.slice, func(st State) Filters { return st.Filters })
}

// Filtered returns the locally derived view of the fetched list for the
// current filters. The underlying list is never mutated.
func (s *Store) Filtered() []domain.Product {
	return store.View(s.slice, func(st State) []domain.Product {
		return st.Filters.Apply(st.Products)
	})
}

func (s *Store) State() store.Snapshot[State] { return s.slice.Get() }

func (s *Store) Products() []domain.Product {
	return store.View(s.slice, func(st State) []domain.Product { return st.Products })
}

func (s *Store) Categories() []domain.Category {
	return store.View(s.slice, func(st State) []domain.Category { return st.Categories })
}

func (s *Store) Current() *domain.Product {
	return store.View(s.slice, func(st State) *domain.Product { return st.Current })
}

func (s *Store) Loading() bool { return s.slice.Loading() }
func (s *Store) Err() error    { return s.slice.Err() }
func (s *Store) ClearError()   { s.slice.ClearError() }

func (s *Store) ClearCurrent() {
	s.slice.Mutate(func(st *State) { st.Current = nil })
}

// Subscribe registers an observer for catalog state transitions.
func (s *Store) Subscribe(fn func(store.Snapshot[State])) func() {
	return s.slice.Subscribe(fn)
}
