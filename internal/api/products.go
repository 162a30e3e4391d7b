package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mjfrontdev/store/internal/domain"
)

// ProductQuery narrows the product list server-side. Zero values are
// omitted from the query string.
type ProductQuery struct {
	Search   string
	Category int64
	Ordering string
	Page     int
}

func (q ProductQuery) encode() string {
	values := url.Values{}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.Category != 0 {
		values.Set("category", strconv.FormatInt(q.Category, 10))
	}
	if q.Ordering != "" {
		values.Set("ordering", q.Ordering)
	}
	if q.Page > 1 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// CacheKey identifies equivalent queries for request deduplication.
func (q ProductQuery) CacheKey() string {
	return q.encode()
}

func (c *Client) ListProducts(ctx context.Context, query ProductQuery) (*Page[domain.Product], error) {
	var page Page[domain.Product]
	if err := c.do(ctx, http.MethodGet, "/products/"+query.encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	var product domain.Product
	path := fmt.Sprintf("/products/%d/", productID)
	if err := c.do(ctx, http.MethodGet, path, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := c.do(ctx, http.MethodGet, "/products/categories/", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// SyncProducts asks the backend to resync its catalog from the upstream
// product feed.
func (c *Client) SyncProducts(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/products/sync/", nil, nil)
}
