// Package cart holds the authoritative client-side view of the shopping
// cart and reconciles it against the remote API.
package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/mjfrontdev/store/internal/domain"
	"github.com/mjfrontdev/store/internal/store"
)

// ErrInvalidQuantity is returned before any network call when an operation
// is issued with a quantity below one. The API's contract starts at 1;
// decrementing to zero is a removal, rejected at the call site.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// API is the slice of the REST client the cart store consumes.
type API interface {
	FetchCart(ctx context.Context) (*domain.Cart, error)
	AddToCart(ctx context.Context, productID int64, quantity int) error
	UpdateCartItem(ctx context.Context, itemID int64, quantity int) error
	RemoveFromCart(ctx context.Context, itemID int64) error
	ClearCart(ctx context.Context) error
}

type State struct {
	Items      []domain.LineItem
	TotalItems int
	TotalPrice decimal.Decimal
}

type Store struct {
	api   API
	slice *store.Slice[State]
	sfg   singleflight.Group // collapses concurrent identical fetches
}

func NewStore(api API) *Store {
	return &Store{api: api, slice: store.NewSlice[State]()}
}

// change is the single reconciliation input: either a server snapshot
// (trusted wholesale) or a local removal delta (totals recomputed from
// what remains). Keeping both paths behind one reducer stops them from
// silently diverging.
type change struct {
	snapshot *domain.Cart
	removeID int64
}

func reconcile(st *State, ch change) {
	switch {
	case ch.snapshot != nil:
		st.Items = ch.snapshot.Items
		st.TotalItems = ch.snapshot.TotalItems
		st.TotalPrice = ch.snapshot.TotalPrice
	case ch.removeID != 0:
		remaining := st.Items[:0:0]
		for _, item := range st.Items {
			if item.ID != ch.removeID {
				remaining = append(remaining, item)
			}
		}
		st.Items = remaining
		st.TotalItems, st.TotalPrice = domain.SumItems(remaining)
	}
}

// Fetch replaces items and aggregates wholesale from the server response.
// Concurrent calls share one round trip.
func (s *Store) Fetch(ctx context.Context) error {
	_, err, _ := s.sfg.Do("fetch", func() (interface{}, error) {
		seq := s.slice.Begin()
		cart, err := s.api.FetchCart(ctx)
		if err != nil {
			s.slice.Reject(seq, err)
			return nil, err
		}
		s.slice.Resolve(seq, func(st *State) {
			reconcile(st, change{snapshot: cart})
		})
		return nil, nil
	})
	return err
}

// Add puts quantity units of a product in the cart, then refreshes the
// slice with a server round trip; the add response itself carries no
// aggregates. The authenticated precondition is enforced by the consuming
// view, not here.
func (s *Store) Add(ctx context.Context, productID int64, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	seq := s.slice.Begin()
	if err := s.api.AddToCart(ctx, productID, quantity); err != nil {
		s.slice.Reject(seq, err)
		return err
	}
	s.slice.Resolve(seq, nil)
	return s.Fetch(ctx)
}

// UpdateQuantity changes a line item's quantity, then refreshes from the
// server so items and aggregates reflect the settled value.
func (s *Store) UpdateQuantity(ctx context.Context, itemID int64, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	seq := s.slice.Begin()
	if err := s.api.UpdateCartItem(ctx, itemID, quantity); err != nil {
		s.slice.Reject(seq, err)
		return err
	}
	s.slice.Resolve(seq, nil)
	return s.Fetch(ctx)
}

// Remove deletes a line item. On success the item is dropped locally and
// the aggregates recomputed by summation, with no refetch; the result must
// match what a fresh Fetch would report for the same remaining items.
func (s *Store) Remove(ctx context.Context, itemID int64) error {
	seq := s.slice.Begin()
	if err := s.api.RemoveFromCart(ctx, itemID); err != nil {
		s.slice.Reject(seq, err)
		return err
	}
	s.slice.Resolve(seq, func(st *State) {
		reconcile(st, change{removeID: itemID})
	})
	return nil
}

// Clear empties the cart. Idempotent: clearing an already-empty cart
// settles in the same terminal state.
func (s *Store) Clear(ctx context.Context) error {
	seq := s.slice.Begin()
	if err := s.api.ClearCart(ctx); err != nil {
		s.slice.Reject(seq, err)
		return err
	}
	s.slice.Resolve(seq, func(st *State) {
		reconcile(st, change{snapshot: &domain.Cart{}})
	})
	return nil
}

func (s *Store) State() store.Snapshot[State] { return s.slice.Get() }

func (s *Store) Items() []domain.LineItem {
	return store.View(s.slice, func(st State) []domain.LineItem { return st.Items })
}

func (s *Store) TotalItems() int {
	return store.View(s.slice, func(st State) int { return st.TotalItems })
}

func (s *Store) TotalPrice() decimal.Decimal {
	return store.View(s.slice, func(st State) decimal.Decimal { return st.TotalPrice })
}

func (s *Store) Loading() bool { return s.slice.Loading() }
func (s *Store) Err() error    { return s.slice.Err() }
func (s *Store) ClearError()   { s.slice.ClearError() }

// Subscribe registers an observer for cart state transitions.
func (s *Store) Subscribe(fn func(store.Snapshot[State])) func() {
	return s.slice.Subscribe(fn)
}
