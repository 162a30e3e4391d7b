// Package stubapi is an in-process implementation of the storefront REST
// API, used by integration tests and local development. State is held in
// memory; response shapes match the documented boundary, including the
// server-side derivation of cart aggregates and order totals.
package stubapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mjfrontdev/store/internal/domain"
)

var errCartEmpty = errors.New("cart is empty")

type Server struct {
	state   *state
	secret  []byte
	metrics *metrics
	router  chi.Router
}

type Option func(*Server)

// WithSecret overrides the JWT signing secret.
func WithSecret(secret []byte) Option {
	return func(s *Server) { s.secret = secret }
}

func New(opts ...Option) *Server {
	s := &Server{
		state:   newState(),
		secret:  []byte("storefront-stub-secret"),
		metrics: newMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Requests reports how many API calls the stub has served. Tests use it
// to prove an operation never went over the wire.
func (s *Server) Requests() int64 { return s.state.requests.Load() }

// SeedProducts replaces the catalog.
func (s *Server) SeedProducts(categories []domain.Category, products []domain.Product) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	s.state.categories = categories
	s.state.products = products
}

// SeedUser registers an account and returns its id.
func (s *Server) SeedUser(username, email, password string) int64 {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	acct, err := s.state.register(username, email, password, "", "")
	if err != nil {
		log.Printf("seed user: %v", err)
		return 0
	}
	return acct.user.ID
}

// TokensFor mints a valid token pair for a seeded user, letting tests
// skip the login round trip.
func (s *Server) TokensFor(userID int64) (domain.TokenPair, error) {
	return s.issueTokens(userID)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.instrument)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(s.countRequests)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login/", s.handleLogin)
			r.Post("/register/", s.handleRegister)
			r.Get("/profile/", s.requireAuth(s.handleProfile))
			r.Put("/profile/update/", s.requireAuth(s.handleUpdateProfile))
			r.Post("/logout/", s.handleLogout)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.handleListProducts)
			r.Get("/categories/", s.handleListCategories)
			r.Post("/sync/", s.handleSyncProducts)
			r.Get("/{id}/", s.handleGetProduct)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", s.requireAuth(s.handleGetCart))
			r.Post("/add/", s.requireAuth(s.handleAddToCart))
			r.Put("/items/{id}/update/", s.requireAuth(s.handleUpdateCartItem))
			r.Delete("/items/{id}/remove/", s.requireAuth(s.handleRemoveFromCart))
			r.Delete("/clear/", s.requireAuth(s.handleClearCart))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", s.requireAuth(s.handleListOrders))
			r.Post("/create/", s.requireAuth(s.handleCreateOrder))
			r.Get("/search/", s.requireAuth(s.handleSearchOrder))
			r.Get("/{id}/", s.requireAuth(s.handleGetOrder))
			r.Post("/{id}/payment/", s.requireAuth(s.handleProcessPayment))
		})
	})

	return r
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.state.requests.Add(1)
		next.ServeHTTP(w, r)
	})
}

// --- cart ---

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	s.state.mu.Lock()
	cart := s.state.serializeCart(userID)
	s.state.mu.Unlock()

	respondJSON(w, http.StatusOK, cart)
}

type addToCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	var req addToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 {
		respondError(w, http.StatusBadRequest, "Quantity must be at least 1")
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	product, ok := s.state.productByID(req.ProductID)
	if !ok {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	if !product.IsInStock {
		respondError(w, http.StatusBadRequest, "Product is out of stock")
		return
	}

	rec := s.state.cartFor(userID)
	for _, item := range rec.items {
		if item.productID == req.ProductID {
			item.quantity += req.Quantity
			respondJSON(w, http.StatusCreated, map[string]any{
				"message": "Item added to cart successfully",
				"cart_item": map[string]any{
					"id":       item.id,
					"product":  product.Title,
					"quantity": item.quantity,
				},
			})
			return
		}
	}

	s.state.nextItemID++
	item := &cartItem{
		id:        s.state.nextItemID,
		productID: req.ProductID,
		quantity:  req.Quantity,
		createdAt: time.Now().UTC(),
	}
	rec.items = append(rec.items, item)

	respondJSON(w, http.StatusCreated, map[string]any{
		"message": "Item added to cart successfully",
		"cart_item": map[string]any{
			"id":       item.id,
			"product":  product.Title,
			"quantity": item.quantity,
		},
	})
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	itemID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || itemID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid item id")
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Quantity < 1 {
		respondError(w, http.StatusBadRequest, "Quantity must be at least 1")
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	rec := s.state.cartFor(userID)
	for _, item := range rec.items {
		if item.id == itemID {
			item.quantity = req.Quantity
			respondJSON(w, http.StatusOK, map[string]any{
				"message": "Cart item updated successfully",
				"cart_item": map[string]any{
					"id":       item.id,
					"quantity": item.quantity,
				},
			})
			return
		}
	}
	respondError(w, http.StatusNotFound, "Cart item not found")
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	itemID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || itemID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid item id")
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	rec := s.state.cartFor(userID)
	for i, item := range rec.items {
		if item.id == itemID {
			rec.items = append(rec.items[:i], rec.items[i+1:]...)
			respondJSON(w, http.StatusOK, map[string]string{
				"message": "Item removed from cart successfully",
			})
			return
		}
	}
	respondError(w, http.StatusNotFound, "Cart item not found")
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	s.state.mu.Lock()
	s.state.cartFor(userID).items = nil
	s.state.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared successfully"})
}

// --- orders ---

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	s.state.mu.Lock()
	list := s.state.orders[userID]
	results := make([]domain.Order, 0, len(list))
	for _, o := range list {
		results = append(results, *o)
	}
	s.state.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(results),
		"next":     nil,
		"previous": nil,
		"results":  results,
	})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	s.state.mu.Lock()
	order, ok := s.state.orderByID(userID, orderID)
	var copied domain.Order
	if ok {
		copied = *order
	}
	s.state.mu.Unlock()

	if !ok {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}
	respondJSON(w, http.StatusOK, copied)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	var form domain.ShippingForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if fieldErrors := validateShippingForm(form); len(fieldErrors) > 0 {
		respondJSON(w, http.StatusBadRequest, fieldErrors)
		return
	}

	s.state.mu.Lock()
	order, err := s.state.createOrder(userID, form)
	s.state.mu.Unlock()

	if errors.Is(err, errCartEmpty) {
		respondError(w, http.StatusBadRequest, "Cart is empty")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message": "Order created successfully",
		"order":   order,
	})
}

func (s *Server) handleProcessPayment(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	s.state.mu.Lock()
	order, ok := s.state.orderByID(userID, orderID)
	if ok && order.PaymentStatus == domain.PaymentStatusPaid {
		s.state.mu.Unlock()
		respondError(w, http.StatusBadRequest, "Order already paid")
		return
	}
	var copied domain.Order
	var paymentID string
	if ok {
		paymentID = "PAY_" + order.OrderNumber + "_" + strconv.FormatInt(order.ID, 10)
		order.PaymentID = paymentID
		order.PaymentStatus = domain.PaymentStatusPaid
		order.Status = domain.OrderStatusProcessing
		order.UpdatedAt = time.Now().UTC()
		copied = *order
	}
	s.state.mu.Unlock()

	if !ok {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":    "Payment processed successfully",
		"payment_id": paymentID,
		"order":      copied,
	})
}

func (s *Server) handleSearchOrder(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	number := strings.TrimSpace(r.URL.Query().Get("order_number"))
	if number == "" {
		respondError(w, http.StatusBadRequest, "order_number is required")
		return
	}

	s.state.mu.Lock()
	order, ok := s.state.orderByNumber(userID, number)
	var copied domain.Order
	if ok {
		copied = *order
	}
	s.state.mu.Unlock()

	if !ok {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}
	respondJSON(w, http.StatusOK, copied)
}

// --- products ---

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	search := strings.ToLower(strings.TrimSpace(query.Get("search")))
	categoryID, _ := strconv.ParseInt(query.Get("category"), 10, 64)

	s.state.mu.Lock()
	results := make([]domain.Product, 0, len(s.state.products))
	for _, p := range s.state.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Title), search) {
			continue
		}
		if categoryID != 0 && p.CategoryID() != categoryID {
			continue
		}
		results = append(results, p)
	}
	s.state.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(results),
		"next":     nil,
		"previous": nil,
		"results":  results,
	})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	s.state.mu.Lock()
	product, ok := s.state.productByID(productID)
	s.state.mu.Unlock()

	if !ok {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	s.state.mu.Lock()
	categories := append([]domain.Category(nil), s.state.categories...)
	s.state.mu.Unlock()

	respondJSON(w, http.StatusOK, categories)
}

func (s *Server) handleSyncProducts(w http.ResponseWriter, _ *http.Request) {
	// The real backend pulls from an upstream feed; the stub's catalog is
	// already whatever was seeded.
	respondJSON(w, http.StatusOK, map[string]string{"message": "Products synced successfully"})
}

// --- auth ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	s.state.mu.Lock()
	id, ok := s.state.accountEmail[strings.ToLower(req.Email)]
	var acct *account
	if ok {
		acct = s.state.accounts[id]
	}
	s.state.mu.Unlock()

	if acct == nil || acct.password != req.Password {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	tokens, err := s.issueTokens(acct.user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to issue tokens")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user":   acct.user,
		"tokens": tokens,
	})
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	fieldErrors := map[string][]string{}
	if req.Email == "" {
		fieldErrors["email"] = append(fieldErrors["email"], "This field is required.")
	}
	if req.Password == "" {
		fieldErrors["password"] = append(fieldErrors["password"], "This field is required.")
	}
	if len(fieldErrors) > 0 {
		respondJSON(w, http.StatusBadRequest, fieldErrors)
		return
	}

	s.state.mu.Lock()
	acct, err := s.state.register(req.Username, req.Email, req.Password, req.FirstName, req.LastName)
	s.state.mu.Unlock()

	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string][]string{
			"email": {"A user with this email already exists."},
		})
		return
	}

	tokens, err := s.issueTokens(acct.user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to issue tokens")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"user":   acct.user,
		"tokens": tokens,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	s.state.mu.Lock()
	acct := s.state.accounts[userID]
	s.state.mu.Unlock()

	if acct == nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, acct.user)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	var update domain.User
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	s.state.mu.Lock()
	acct := s.state.accounts[userID]
	if acct != nil {
		if update.FirstName != "" {
			acct.user.FirstName = update.FirstName
		}
		if update.LastName != "" {
			acct.user.LastName = update.LastName
		}
		if update.Username != "" {
			acct.user.Username = update.Username
		}
	}
	var user domain.User
	if acct != nil {
		user = acct.user
	}
	s.state.mu.Unlock()

	if acct == nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	// Stateless tokens; nothing to revoke in the stub.
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// --- helpers ---

func validateShippingForm(form domain.ShippingForm) map[string][]string {
	fieldErrors := map[string][]string{}
	if strings.TrimSpace(form.ShippingAddress) == "" {
		fieldErrors["shipping_address"] = append(fieldErrors["shipping_address"], "This field is required.")
	}
	if strings.TrimSpace(form.ShippingCity) == "" {
		fieldErrors["shipping_city"] = append(fieldErrors["shipping_city"], "This field is required.")
	}
	if strings.TrimSpace(form.ShippingPostalCode) == "" {
		fieldErrors["shipping_postal_code"] = append(fieldErrors["shipping_postal_code"], "This field is required.")
	}
	if strings.TrimSpace(form.PaymentMethod) == "" {
		fieldErrors["payment_method"] = append(fieldErrors["payment_method"], "This field is required.")
	}
	return fieldErrors
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
