package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mjfrontdev/store/internal/domain"
)

type addToCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// FetchCart returns the server's authoritative cart snapshot including the
// derived total_items and total_price aggregates.
func (c *Client) FetchCart(ctx context.Context) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.do(ctx, http.MethodGet, "/cart/", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddToCart adds quantity units of a product. The response carries only a
// confirmation; callers refresh aggregates with a follow-up FetchCart.
func (c *Client) AddToCart(ctx context.Context, productID int64, quantity int) error {
	body := addToCartRequest{ProductID: productID, Quantity: quantity}
	return c.do(ctx, http.MethodPost, "/cart/add/", body, nil)
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID int64, quantity int) error {
	body := updateQuantityRequest{Quantity: quantity}
	path := fmt.Sprintf("/cart/items/%d/update/", itemID)
	return c.do(ctx, http.MethodPut, path, body, nil)
}

func (c *Client) RemoveFromCart(ctx context.Context, itemID int64) error {
	path := fmt.Sprintf("/cart/items/%d/remove/", itemID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cart/clear/", nil, nil)
}
