package stubapi

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mjfrontdev/store/internal/domain"
)

var (
	shippingCost = decimal.RequireFromString("10.00")
	taxRate      = decimal.RequireFromString("0.09")
)

type account struct {
	user     domain.User
	password string
}

// cartItem is the server-side line item; product data and totals are
// joined in at serialization time so the server stays authoritative for
// total_price.
type cartItem struct {
	id        int64
	productID int64
	quantity  int
	createdAt time.Time
}

type cartRecord struct {
	items []*cartItem
}

// state is the in-memory world behind the stub API. One mutex guards the
// whole thing; the stub exists for tests and local development, not load.
type state struct {
	mu sync.Mutex

	accounts     map[int64]*account
	accountEmail map[string]int64

	products   []domain.Product
	categories []domain.Category

	carts  map[int64]*cartRecord
	orders map[int64][]*domain.Order

	nextUserID  int64
	nextItemID  int64
	nextOrderID int64

	requests atomic.Int64
}

func newState() *state {
	return &state{
		accounts:     make(map[int64]*account),
		accountEmail: make(map[string]int64),
		carts:        make(map[int64]*cartRecord),
		orders:       make(map[int64][]*domain.Order),
	}
}

func (st *state) cartFor(userID int64) *cartRecord {
	rec, ok := st.carts[userID]
	if !ok {
		rec = &cartRecord{}
		st.carts[userID] = rec
	}
	return rec
}

func (st *state) productByID(id int64) (domain.Product, bool) {
	for _, p := range st.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// lineItems serializes the cart with server-derived totals:
// item.total_price = price * quantity, aggregates by summation.
func (st *state) lineItems(rec *cartRecord) []domain.LineItem {
	items := make([]domain.LineItem, 0, len(rec.items))
	for _, it := range rec.items {
		product, ok := st.productByID(it.productID)
		if !ok {
			continue
		}
		items = append(items, domain.LineItem{
			ID:         it.id,
			Product:    product,
			Quantity:   it.quantity,
			TotalPrice: product.Price.Mul(decimal.NewFromInt(int64(it.quantity))),
			CreatedAt:  it.createdAt,
		})
	}
	return items
}

func (st *state) serializeCart(userID int64) domain.Cart {
	rec := st.cartFor(userID)
	items := st.lineItems(rec)
	totalItems, totalPrice := domain.SumItems(items)
	return domain.Cart{
		ID:         userID,
		Items:      items,
		TotalItems: totalItems,
		TotalPrice: totalPrice,
	}
}

func (st *state) createOrder(userID int64, form domain.ShippingForm) (*domain.Order, error) {
	rec := st.cartFor(userID)
	if len(rec.items) == 0 {
		return nil, errCartEmpty
	}

	items := st.lineItems(rec)
	subtotal := decimal.Zero
	orderItems := make([]domain.OrderItem, 0, len(items))
	for _, li := range items {
		subtotal = subtotal.Add(li.TotalPrice)
		orderItems = append(orderItems, domain.OrderItem{
			ID:         li.ID,
			Product:    li.Product,
			Quantity:   li.Quantity,
			Price:      li.Product.Price,
			TotalPrice: li.TotalPrice,
		})
	}
	tax := subtotal.Mul(taxRate)
	total := subtotal.Add(shippingCost).Add(tax)

	st.nextOrderID++
	now := time.Now().UTC()
	order := &domain.Order{
		ID:                 st.nextOrderID,
		OrderNumber:        newOrderNumber(),
		Status:             domain.OrderStatusPending,
		PaymentStatus:      domain.PaymentStatusPending,
		PaymentMethod:      form.PaymentMethod,
		ShippingAddress:    form.ShippingAddress,
		ShippingCity:       form.ShippingCity,
		ShippingPostalCode: form.ShippingPostalCode,
		ShippingPhone:      form.ShippingPhone,
		Subtotal:           subtotal,
		ShippingCost:       shippingCost,
		TaxAmount:          tax,
		TotalAmount:        total,
		Notes:              form.Notes,
		Items:              orderItems,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	// Checkout consumes the cart.
	rec.items = nil
	st.orders[userID] = append([]*domain.Order{order}, st.orders[userID]...)
	return order, nil
}

func (st *state) orderByID(userID, orderID int64) (*domain.Order, bool) {
	for _, o := range st.orders[userID] {
		if o.ID == orderID {
			return o, true
		}
	}
	return nil, false
}

func (st *state) orderByNumber(userID int64, number string) (*domain.Order, bool) {
	needle := strings.ToUpper(strings.TrimSpace(number))
	for _, o := range st.orders[userID] {
		if strings.ToUpper(o.OrderNumber) == needle {
			return o, true
		}
	}
	// Fall back to partial matches the way the search endpoint does.
	for _, o := range st.orders[userID] {
		if strings.Contains(strings.ToUpper(o.OrderNumber), strings.TrimPrefix(needle, "ORD-")) {
			return o, true
		}
	}
	return nil, false
}

func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}

func (st *state) register(username, email, password, first, last string) (*account, error) {
	key := strings.ToLower(email)
	if _, exists := st.accountEmail[key]; exists {
		return nil, fmt.Errorf("email already registered")
	}
	st.nextUserID++
	acct := &account{
		user: domain.User{
			ID:        st.nextUserID,
			Username:  username,
			Email:     email,
			FirstName: first,
			LastName:  last,
		},
		password: password,
	}
	st.accounts[acct.user.ID] = acct
	st.accountEmail[key] = acct.user.ID
	return acct, nil
}
