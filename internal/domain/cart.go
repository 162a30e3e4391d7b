package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one product-quantity pairing within a cart. The server is
// authoritative for TotalPrice; the client never computes it from
// Product.Price, it trusts the returned value.
type LineItem struct {
	ID         int64           `json:"id"`
	Product    Product         `json:"product"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at,omitempty"`
}

type Cart struct {
	ID         int64           `json:"id,omitempty"`
	Items      []LineItem      `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at,omitempty"`
}

// SumItems derives aggregate quantity and price from line items. Used when
// a local mutation replaces server trust (optimistic removal) and by the
// stub API when serializing a cart.
func SumItems(items []LineItem) (totalItems int, totalPrice decimal.Decimal) {
	for _, item := range items {
		totalItems += item.Quantity
		totalPrice = totalPrice.Add(item.TotalPrice)
	}
	return totalItems, totalPrice
}
