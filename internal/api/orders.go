package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mjfrontdev/store/internal/domain"
)

// orderEnvelope wraps mutation responses: {message, order, ...}.
type orderEnvelope struct {
	Message   string       `json:"message"`
	PaymentID string       `json:"payment_id,omitempty"`
	Order     domain.Order `json:"order"`
}

func (c *Client) ListOrders(ctx context.Context) (*Page[domain.Order], error) {
	var page Page[domain.Order]
	if err := c.do(ctx, http.MethodGet, "/orders/", nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	var order domain.Order
	path := fmt.Sprintf("/orders/%d/", orderID)
	if err := c.do(ctx, http.MethodGet, path, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateOrder submits the checkout form. The server builds the order from
// the current cart (subtotal, shipping, tax, total) and clears the cart.
func (c *Client) CreateOrder(ctx context.Context, form domain.ShippingForm) (*domain.Order, error) {
	var env orderEnvelope
	if err := c.do(ctx, http.MethodPost, "/orders/create/", form, &env); err != nil {
		return nil, err
	}
	return &env.Order, nil
}

// ProcessPayment triggers payment for an order and returns the updated
// order as the server now sees it.
func (c *Client) ProcessPayment(ctx context.Context, orderID int64) (*domain.Order, error) {
	var env orderEnvelope
	path := fmt.Sprintf("/orders/%d/payment/", orderID)
	if err := c.do(ctx, http.MethodPost, path, nil, &env); err != nil {
		return nil, err
	}
	return &env.Order, nil
}

// SearchOrder looks an order up by its order number.
func (c *Client) SearchOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	var order domain.Order
	path := "/orders/search/?order_number=" + url.QueryEscape(orderNumber)
	if err := c.do(ctx, http.MethodGet, path, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
