package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
}

// Product is read-only from the client's perspective; its lifecycle is
// fully owned by the catalog API.
type Product struct {
	ID            int64           `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Category      *Category       `json:"category"`
	Image         string          `json:"image,omitempty"`
	Rating        float64         `json:"rating"`
	RatingCount   int             `json:"rating_count"`
	StockQuantity int             `json:"stock_quantity"`
	IsInStock     bool            `json:"is_in_stock"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CategoryID returns the category id or 0 when the product is uncategorized.
func (p Product) CategoryID() int64 {
	if p.Category == nil {
		return 0
	}
	return p.Category.ID
}
