package stubapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjfrontdev/store/internal/domain"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server, string) {
	t.Helper()

	stub := New()
	stub.SeedProducts(
		[]domain.Category{{ID: 1, Name: "Phones"}},
		[]domain.Product{
			{ID: 10, Title: "Phone X", Price: decimal.NewFromInt(500), Category: &domain.Category{ID: 1}, IsInStock: true, IsActive: true},
			{ID: 11, Title: "Charger", Price: decimal.RequireFromString("19.99"), Category: &domain.Category{ID: 1}, IsInStock: true, IsActive: true},
			{ID: 12, Title: "Phone Case", Price: decimal.NewFromInt(5), Category: &domain.Category{ID: 1}, IsInStock: false, IsActive: true},
		},
	)
	userID := stub.SeedUser("tester", "tester@example.com", "secret123")
	require.NotZero(t, userID)
	tokens, err := stub.TokensFor(userID)
	require.NoError(t, err)

	server := httptest.NewServer(stub.Handler())
	t.Cleanup(server.Close)
	return stub, server, tokens.Access
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		decoded = nil
	}
	return resp, decoded
}

func TestCartRequiresAuth(t *testing.T) {
	_, server, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/cart/", "", nil)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Authentication credentials were not provided.", body["detail"])
}

func TestCart_ServerDerivesTotals(t *testing.T) {
	_, server, token := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/cart/add/", token,
		map[string]any{"product_id": 10, "quantity": 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/cart/add/", token,
		map[string]any{"product_id": 11, "quantity": 3})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, cart := doJSON(t, http.MethodGet, server.URL+"/api/cart/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items := cart["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	// Line totals are derived server-side: price * quantity, as strings.
	assert.Equal(t, "1000", first["total_price"])
	assert.Equal(t, float64(5), cart["total_items"])
	assert.Equal(t, "1059.97", cart["total_price"])
}

func TestCart_AddMergesExistingLine(t *testing.T) {
	_, server, token := newTestServer(t)

	doJSON(t, http.MethodPost, server.URL+"/api/cart/add/", token, map[string]any{"product_id": 10, "quantity": 1})
	doJSON(t, http.MethodPost, server.URL+"/api/cart/add/", token, map[string]any{"product_id": 10, "quantity": 2})

	_, cart := doJSON(t, http.MethodGet, server.URL+"/api/cart/", token, nil)
	items := cart["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(3), items[0].(map[string]any)["quantity"])
}

func TestCart_OutOfStockRejected(t *testing.T) {
	_, server, token := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/cart/add/", token,
		map[string]any{"product_id": 12, "quantity": 1})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Product is out of stock", body["error"])
}

func TestCreateOrder_TotalsAndCartConsumed(t *testing.T) {
	_, server, token := newTestServer(t)

	doJSON(t, http.MethodPost, server.URL+"/api/cart/add/", token, map[string]any{"product_id": 10, "quantity": 2})

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/orders/create/", token, map[string]any{
		"shipping_address":     "1 Main St",
		"shipping_city":        "Tehran",
		"shipping_postal_code": "12345",
		"payment_method":       "cash_on_delivery",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	order := body["order"].(map[string]any)
	// subtotal 1000, flat shipping 10.00, tax 9% of subtotal.
	assert.Equal(t, "1000", order["subtotal"])
	assert.Equal(t, "10", order["shipping_cost"])
	assert.Equal(t, "90", order["tax_amount"])
	assert.Equal(t, "1100", order["total_amount"])
	assert.Equal(t, "pending", order["status"])
	assert.Equal(t, "pending", order["payment_status"])

	number := order["order_number"].(string)
	assert.True(t, strings.HasPrefix(number, "ORD-"), number)
	assert.Len(t, number, len("ORD-")+8)

	// Checkout consumed the cart.
	_, cart := doJSON(t, http.MethodGet, server.URL+"/api/cart/", token, nil)
	assert.Empty(t, cart["items"])
}

func TestCreateOrder_EmptyCartRejected(t *testing.T) {
	_, server, token := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/orders/create/", token, map[string]any{
		"shipping_address":     "1 Main St",
		"shipping_city":        "Tehran",
		"shipping_postal_code": "12345",
		"payment_method":       "cash_on_delivery",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Cart is empty", body["error"])
}

func TestCreateOrder_FieldValidation(t *testing.T) {
	_, server, token := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/orders/create/", token, map[string]any{})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	for _, field := range []string{"shipping_address", "shipping_city", "shipping_postal_code", "payment_method"} {
		assert.Contains(t, body, field)
	}
}

func TestProcessPayment(t *testing.T) {
	_, server, token := newTestServer(t)

	doJSON(t, http.MethodPost, server.URL+"/api/cart/add/", token, map[string]any{"product_id": 10, "quantity": 1})
	_, created := doJSON(t, http.MethodPost, server.URL+"/api/orders/create/", token, map[string]any{
		"shipping_address":     "1 Main St",
		"shipping_city":        "Tehran",
		"shipping_postal_code": "12345",
		"payment_method":       "online",
	})
	order := created["order"].(map[string]any)
	orderID := int64(order["id"].(float64))
	number := order["order_number"].(string)

	url := fmt.Sprintf("%s/api/orders/%d/payment/", server.URL, orderID)
	resp, body := doJSON(t, http.MethodPost, url, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	paid := body["order"].(map[string]any)
	assert.Equal(t, "paid", paid["payment_status"])
	assert.Equal(t, "processing", paid["status"])
	assert.Equal(t, fmt.Sprintf("PAY_%s_%d", number, orderID), body["payment_id"])

	// Paying twice is rejected.
	resp, body = doJSON(t, http.MethodPost, url, token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Order already paid", body["error"])
}

func TestSearchOrder_ByNumber(t *testing.T) {
	_, server, token := newTestServer(t)

	doJSON(t, http.MethodPost, server.URL+"/api/cart/add/", token, map[string]any{"product_id": 10, "quantity": 1})
	_, created := doJSON(t, http.MethodPost, server.URL+"/api/orders/create/", token, map[string]any{
		"shipping_address":     "1 Main St",
		"shipping_city":        "Tehran",
		"shipping_postal_code": "12345",
		"payment_method":       "online",
	})
	number := created["order"].(map[string]any)["order_number"].(string)

	resp, found := doJSON(t, http.MethodGet,
		server.URL+"/api/orders/search/?order_number="+strings.ToLower(number), token, nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, number, found["order_number"])
}

func TestListProducts_SearchAndCategory(t *testing.T) {
	_, server, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/products/?search=phone", "", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["count"])
}

func TestRegister_DuplicateEmail(t *testing.T) {
	_, server, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/auth/register/", "", map[string]any{
		"username": "again",
		"email":    "tester@example.com",
		"password": "whatever1",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "email")
}

func TestLogin(t *testing.T) {
	_, server, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/auth/login/", "", map[string]any{
		"email":    "tester@example.com",
		"password": "secret123",
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	tokens := body["tokens"].(map[string]any)
	assert.NotEmpty(t, tokens["access"])
	assert.NotEmpty(t, tokens["refresh"])

	resp, body = doJSON(t, http.MethodPost, server.URL+"/api/auth/login/", "", map[string]any{
		"email":    "tester@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", body["error"])
}

func TestRequestCounter(t *testing.T) {
	stub, server, token := newTestServer(t)
	before := stub.Requests()

	doJSON(t, http.MethodGet, server.URL+"/api/cart/", token, nil)
	doJSON(t, http.MethodGet, server.URL+"/health", "", nil)

	// Only /api traffic counts; health checks do not.
	assert.Equal(t, before+1, stub.Requests())
}
