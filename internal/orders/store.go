// Package orders manages the client-side view of order history, the
// current order, and checkout.
package orders

import (
	"context"

	"github.com/mjfrontdev/store/internal/api"
	"github.com/mjfrontdev/store/internal/domain"
	"github.com/mjfrontdev/store/internal/store"
)

// API is the slice of the REST client the order store consumes.
type API interface {
	ListOrders(ctx context.Context) (*api.Page[domain.Order], error)
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	CreateOrder(ctx context.Context, form domain.ShippingForm) (*domain.Order, error)
	ProcessPayment(ctx context.Context, orderID int64) (*domain.Order, error)
}

type Pagination struct {
	Count    int
	Next     *string
	Previous *string
}

type State struct {
	Orders     []domain.Order
	Current    *domain.Order
	Pagination Pagination
}

type Store struct {
	api   API
	slice *store.Slice[State]
}

func NewStore(a API) *Store {
	return &Store{api: a, slice: store.NewSlice[State]()}
}

// FetchAll replaces the order list from the server.
func (s *Store) FetchAll(ctx context.Context) error {
	seq := s.slice.Begin()
	page, err := s.api.ListOrders(ctx)
	if err != nil {
		s.slice.Reject(seq, err)
		return err
	}
	s.slice.Resolve(seq, func(st *State) {
		st.Orders = page.Results
		st.Pagination = Pagination{Count: page.Count, Next: page.Next, Previous: page.Previous}
	})
	return nil
}

// Fetch loads one order into the current slot.
func (s *Store) Fetch(ctx context.Context, orderID int64) error {
	seq := s.slice.Begin()
	order, err := s.api.GetOrder(ctx, orderID)
	if err != nil {
		s.slice.Reject(seq, err)
		return err
	}
	s.slice.Resolve(seq, func(st *State) {
		st.Current = order
	})
	return nil
}

// Create submits the checkout form. The created order is prepended to the
// list and becomes the current order; this is the one slice where a create
// mutates the collection instead of triggering a refetch.
func (s *Store) Create(ctx context.Context, form domain.ShippingForm) (*domain.Order, error) {
	seq := s.slice.Begin()
	order, err := s.api.CreateOrder(ctx, form)
	if err != nil {
		s.slice.Reject(seq, err)
		return nil, err
	}
	s.slice.Resolve(seq, func(st *State) {
		st.Current = order
		st.Orders = append([]domain.Order{*order}, st.Orders...)
	})
	return order, nil
}

// Pay triggers payment for an order. The settled order replaces both
// places it may be held: the current order (on id match) and the matching
// list entry. Dropping either update is a correctness bug.
func (s *Store) Pay(ctx context.Context, orderID int64) (*domain.Order, error) {
	seq := s.slice.Begin()
	order, err := s.api.ProcessPayment(ctx, orderID)
	if err != nil {
		s.slice.Reject(seq, err)
		return nil, err
	}
	s.slice.Resolve(seq, func(st *State) {
		if st.Current != nil && st.Current.ID == order.ID {
			st.Current = order
		}
		for i := range st.Orders {
			if st.Orders[i].ID == order.ID {
				st.Orders[i] = *order
				break
			}
		}
	})
	return order, nil
}

func (s *Store) State() store.Snapshot[State] { return s.slice.Get() }

func (s *Store) Orders() []domain.Order {
	return store.View(s.slice, func(st State) []domain.Order { return st.Orders })
}

func (s *Store) Current() *domain.Order {
	return store.View(s.slice, func(st State) *domain.Order { return st.Current })
}

func (s *Store) Loading() bool { return s.slice.Loading() }
func (s *Store) Err() error    { return s.slice.Err() }
func (s *Store) ClearError()   { s.slice.ClearError() }

func (s *Store) ClearCurrent() {
	s.slice.Mutate(func(st *State) { st.Current = nil })
}

// Subscribe registers an observer for order state transitions.
func (s *Store) Subscribe(fn func(store.Snapshot[State])) func() {
	return s.slice.Subscribe(fn)
}
