package app

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjfrontdev/store/internal/api"
	"github.com/mjfrontdev/store/internal/domain"
	"github.com/mjfrontdev/store/internal/session"
	"github.com/mjfrontdev/store/internal/stubapi"
)

func newTestApp(t *testing.T) (*App, *stubapi.Server) {
	t.Helper()

	stub := stubapi.New()
	stub.SeedProducts(
		[]domain.Category{{ID: 1, Name: "Phones"}},
		[]domain.Product{
			{ID: 10, Title: "Phone X", Price: decimal.NewFromInt(500), Category: &domain.Category{ID: 1}, IsInStock: true, IsActive: true},
			{ID: 11, Title: "Charger", Price: decimal.NewFromInt(50), Category: &domain.Category{ID: 1}, IsInStock: true, IsActive: true},
		},
	)

	server := httptest.NewServer(stub.Handler())
	t.Cleanup(server.Close)

	sess := session.NewMemoryStore()
	client := api.NewClient(server.URL, sess)
	return New(client, sess), stub
}

func signIn(t *testing.T, a *App, stub *stubapi.Server) {
	t.Helper()
	userID := stub.SeedUser("tester", "tester@example.com", "secret123")
	require.NotZero(t, userID)
	tokens, err := stub.TokensFor(userID)
	require.NoError(t, err)
	require.NoError(t, a.Session.Save(context.Background(),
		session.Tokens{Access: tokens.Access, Refresh: tokens.Refresh}))
}

func TestAddToCart_UnauthenticatedNeverHitsNetwork(t *testing.T) {
	a, stub := newTestApp(t)
	before := stub.Requests()

	err := a.AddToCart(context.Background(), 10, 1)

	require.ErrorIs(t, err, ErrNotAuthenticated)
	// The guard fires before any dispatch: nothing went over the wire and
	// the cart slice is untouched.
	assert.Equal(t, before, stub.Requests())
	assert.Empty(t, a.Cart.Items())
	assert.NoError(t, a.Cart.Err())
}

func TestAddToCart_Authenticated(t *testing.T) {
	a, stub := newTestApp(t)
	signIn(t, a, stub)

	require.NoError(t, a.AddToCart(context.Background(), 10, 2))

	assert.Equal(t, 2, a.Cart.TotalItems())
	assert.True(t, decimal.NewFromInt(1000).Equal(a.Cart.TotalPrice()))
}

func TestLogin_PersistsSession(t *testing.T) {
	a, stub := newTestApp(t)
	stub.SeedUser("tester", "tester@example.com", "secret123")
	ctx := context.Background()

	user, err := a.Login(ctx, "tester@example.com", "secret123")

	require.NoError(t, err)
	assert.Equal(t, "tester", user.Username)
	assert.True(t, a.IsAuthenticated(ctx))

	tokens, err := a.Session.Tokens(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.Access)
	assert.NotEmpty(t, tokens.Refresh)
}

func TestLogin_BadCredentials(t *testing.T) {
	a, stub := newTestApp(t)
	stub.SeedUser("tester", "tester@example.com", "secret123")

	_, err := a.Login(context.Background(), "tester@example.com", "wrong")

	var authErr *api.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.False(t, a.IsAuthenticated(context.Background()))
}

func TestRegister_PersistsSession(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	user, err := a.Register(ctx, api.RegisterRequest{
		Username: "fresh",
		Email:    "fresh@example.com",
		Password: "secret123",
	})

	require.NoError(t, err)
	assert.Equal(t, "fresh", user.Username)
	assert.True(t, a.IsAuthenticated(ctx))
}

func TestLogout_ClearsSession(t *testing.T) {
	a, stub := newTestApp(t)
	signIn(t, a, stub)
	ctx := context.Background()
	require.True(t, a.IsAuthenticated(ctx))

	require.NoError(t, a.Logout(ctx))

	assert.False(t, a.IsAuthenticated(ctx))
}

// Full storefront flow against the in-process backend: browse, fill the
// cart, check out, pay, and ask the assistant about the order.
func TestCheckoutFlow(t *testing.T) {
	a, stub := newTestApp(t)
	signIn(t, a, stub)
	ctx := context.Background()

	require.NoError(t, a.Catalog.FetchAll(ctx, api.ProductQuery{}))
	require.Len(t, a.Catalog.Products(), 2)

	require.NoError(t, a.AddToCart(ctx, 10, 2))
	require.NoError(t, a.AddToCart(ctx, 11, 1))
	assert.Equal(t, 3, a.Cart.TotalItems())
	assert.True(t, decimal.NewFromInt(1050).Equal(a.Cart.TotalPrice()))

	order, err := a.Orders.Create(ctx, domain.ShippingForm{
		ShippingAddress:    "1 Main St",
		ShippingCity:       "Tehran",
		ShippingPostalCode: "12345",
		PaymentMethod:      "online",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	// Server-side totals: subtotal 1050, flat 10 shipping, 9% tax.
	assert.True(t, decimal.NewFromInt(1050).Equal(order.Subtotal))
	assert.True(t, decimal.RequireFromString("1154.50").Equal(order.TotalAmount))

	// Checkout consumed the server-side cart.
	require.NoError(t, a.Cart.Fetch(ctx))
	assert.Empty(t, a.Cart.Items())

	paid, err := a.Orders.Pay(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, paid.PaymentStatus)
	current := a.Orders.Current()
	require.NotNil(t, current)
	assert.Equal(t, domain.PaymentStatusPaid, current.PaymentStatus)

	found, ok, err := a.Assistant.LookupOrder(ctx, "وضعیت سفارش "+order.OrderNumber)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, order.ID, found.ID)
	assert.Equal(t, "status", a.Assistant.Match("وضعیت سفارش "+order.OrderNumber))
}
