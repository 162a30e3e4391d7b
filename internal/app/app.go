// Package app wires the API client, session store and state slices into
// one injectable container. It also owns the call-site preconditions the
// slices deliberately leave out, such as the authentication guard on
// add-to-cart.
package app

import (
	"context"
	"errors"
	"log"

	"github.com/mjfrontdev/store/internal/api"
	"github.com/mjfrontdev/store/internal/assistant"
	"github.com/mjfrontdev/store/internal/cart"
	"github.com/mjfrontdev/store/internal/catalog"
	"github.com/mjfrontdev/store/internal/domain"
	"github.com/mjfrontdev/store/internal/orders"
	"github.com/mjfrontdev/store/internal/session"
)

// ErrNotAuthenticated is returned before any network call when an
// operation requires a signed-in user and no session is stored.
var ErrNotAuthenticated = errors.New("not authenticated")

type App struct {
	Client    *api.Client
	Session   session.Store
	Cart      *cart.Store
	Orders    *orders.Store
	Catalog   *catalog.Store
	Assistant *assistant.Assistant
}

func New(client *api.Client, sess session.Store) *App {
	return &App{
		Client:    client,
		Session:   sess,
		Cart:      cart.NewStore(client),
		Orders:    orders.NewStore(client),
		Catalog:   catalog.NewStore(client),
		Assistant: assistant.New(nil, client),
	}
}

func (a *App) IsAuthenticated(ctx context.Context) bool {
	return session.IsAuthenticated(ctx, a.Session)
}

// AddToCart enforces the authenticated precondition before the cart store
// ever dispatches: with no session, nothing goes over the wire and the
// cart slice keeps its current items and error.
func (a *App) AddToCart(ctx context.Context, productID int64, quantity int) error {
	if !a.IsAuthenticated(ctx) {
		return ErrNotAuthenticated
	}
	return a.Cart.Add(ctx, productID, quantity)
}

// Login authenticates and persists the token pair under the fixed keys.
func (a *App) Login(ctx context.Context, email, password string) (*domain.User, error) {
	resp, err := a.Client.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	tokens := session.Tokens{Access: resp.Tokens.Access, Refresh: resp.Tokens.Refresh}
	if err := a.Session.Save(ctx, tokens); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Register creates an account and stores the issued token pair.
func (a *App) Register(ctx context.Context, req api.RegisterRequest) (*domain.User, error) {
	resp, err := a.Client.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	tokens := session.Tokens{Access: resp.Tokens.Access, Refresh: resp.Tokens.Refresh}
	if err := a.Session.Save(ctx, tokens); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Logout invalidates the refresh token server-side and clears the local
// session either way.
func (a *App) Logout(ctx context.Context) error {
	tokens, err := a.Session.Tokens(ctx)
	if err == nil && tokens.Refresh != "" {
		if err := a.Client.Logout(ctx, tokens.Refresh); err != nil {
			log.Printf("logout request failed: %v", err)
		}
	}
	return a.Session.Clear(ctx)
}
