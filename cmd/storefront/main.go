package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/mjfrontdev/store/internal/api"
	"github.com/mjfrontdev/store/internal/app"
	"github.com/mjfrontdev/store/internal/orders"
	"github.com/mjfrontdev/store/internal/session"
	"github.com/mjfrontdev/store/internal/stubapi"
)

type Config struct {
	APIBaseURL     string
	SessionBackend string
	SessionFile    string
	RedisAddr      string
	RedisPrefix    string
	RequestTimeout time.Duration
}

func loadConfig() *Config {
	// Missing .env is fine; env vars still apply.
	_ = godotenv.Load()

	home, _ := os.UserHomeDir()
	return &Config{
		APIBaseURL:     getEnv("STORE_API_URL", ""),
		SessionBackend: getEnv("STORE_SESSION_BACKEND", "file"),
		SessionFile:    getEnv("STORE_SESSION_FILE", filepath.Join(home, ".storefront", "session.json")),
		RedisAddr:      getEnv("STORE_REDIS_ADDR", "localhost:6379"),
		RedisPrefix:    getEnv("STORE_REDIS_PREFIX", "storefront"),
		RequestTimeout: 30 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func newSessionStore(cfg *Config) session.Store {
	switch cfg.SessionBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return session.NewRedisStore(client, cfg.RedisPrefix)
	case "memory":
		return session.NewMemoryStore()
	default:
		return session.NewFileStore(cfg.SessionFile)
	}
}

func main() {
	log.SetFlags(0)

	cfg := loadConfig()
	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	// With no API configured, run against an in-process stub so the CLI
	// is usable out of the box.
	baseURL := cfg.APIBaseURL
	if baseURL == "" {
		stopStub, stubURL := startStub()
		defer stopStub()
		baseURL = stubURL
		log.Printf("no STORE_API_URL set, using in-process stub at %s", baseURL)
	}

	sess := newSessionStore(cfg)
	creds, ok := sess.(api.Credentials)
	if !ok {
		log.Fatalf("session backend does not supply credentials")
	}
	client := api.NewClient(baseURL, creds, api.WithTimeout(cfg.RequestTimeout))
	application := app.New(client, sess)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	if err := run(ctx, application, args); err != nil {
		log.Fatalf("error: %v", err)
	}
}

func run(ctx context.Context, a *app.App, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return cmdLogin(ctx, a, rest)
	case "register":
		return cmdRegister(ctx, a, rest)
	case "logout":
		return a.Logout(ctx)
	case "products":
		return cmdProducts(ctx, a, rest)
	case "product":
		return cmdProduct(ctx, a, rest)
	case "categories":
		return cmdCategories(ctx, a)
	case "cart":
		return cmdCart(ctx, a)
	case "add":
		return cmdAdd(ctx, a, rest)
	case "update":
		return cmdUpdate(ctx, a, rest)
	case "remove":
		return cmdRemove(ctx, a, rest)
	case "clear":
		return a.Cart.Clear(ctx)
	case "checkout":
		return cmdCheckout(ctx, a, rest)
	case "orders":
		return cmdOrders(ctx, a)
	case "order":
		return cmdOrder(ctx, a, rest)
	case "pay":
		return cmdPay(ctx, a, rest)
	case "ask":
		return cmdAsk(ctx, a, rest)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdLogin(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: storefront login <email> <password>")
	}
	user, err := a.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s\n", user.Email)
	return nil
}

func cmdRegister(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 3 {
		return errors.New("usage: storefront register <username> <email> <password>")
	}
	user, err := a.Register(ctx, api.RegisterRequest{
		Username: args[0],
		Email:    args[1],
		Password: args[2],
	})
	if err != nil {
		return err
	}
	fmt.Printf("registered %s\n", user.Email)
	return nil
}

func cmdProducts(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	search := fs.String("search", "", "filter by title substring")
	category := fs.Int64("category", 0, "filter by category id")
	ordering := fs.String("ordering", "", "sort order, e.g. -created_at or price")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.Catalog.FetchAll(ctx, api.ProductQuery{}); err != nil {
		return err
	}
	// Filtering is local; the fetched list is left as-is.
	a.Catalog.SetFilters(patchFromFlags(*search, *category, *ordering))

	for _, p := range a.Catalog.Filtered() {
		stock := "in stock"
		if !p.IsInStock {
			stock = "out of stock"
		}
		fmt.Printf("%4d  %-40s %12s  %s\n", p.ID, p.Title, p.Price.StringFixed(2), stock)
	}
	return nil
}

func cmdProduct(ctx context.Context, a *app.App, args []string) error {
	id, err := parseID(args, "usage: storefront product <id>")
	if err != nil {
		return err
	}
	if err := a.Catalog.Fetch(ctx, id); err != nil {
		return err
	}
	p := a.Catalog.Current()
	if p == nil {
		return errors.New("product not loaded")
	}
	fmt.Printf("%s\nprice: %s  rating: %.1f (%d)  stock: %d\n%s\n",
		p.Title, p.Price.StringFixed(2), p.Rating, p.RatingCount, p.StockQuantity, p.Description)
	return nil
}

func cmdCategories(ctx context.Context, a *app.App) error {
	if err := a.Catalog.FetchCategories(ctx); err != nil {
		return err
	}
	for _, c := range a.Catalog.Categories() {
		fmt.Printf("%4d  %s\n", c.ID, c.Name)
	}
	return nil
}

func cmdCart(ctx context.Context, a *app.App) error {
	if err := a.Cart.Fetch(ctx); err != nil {
		return err
	}
	for _, item := range a.Cart.Items() {
		fmt.Printf("%4d  %-40s x%d  %12s\n",
			item.ID, item.Product.Title, item.Quantity, item.TotalPrice.StringFixed(2))
	}
	fmt.Printf("total: %d items, %s\n", a.Cart.TotalItems(), a.Cart.TotalPrice().StringFixed(2))
	return nil
}

func cmdAdd(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	qty := fs.Int("qty", 1, "quantity to add")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args(), "usage: storefront add <product-id> [--qty n]")
	if err != nil {
		return err
	}

	err = a.AddToCart(ctx, id, *qty)
	if errors.Is(err, app.ErrNotAuthenticated) {
		// Transient failure; nothing was sent to the server.
		fmt.Println("please log in to add items to your cart")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("added product %d, cart now has %d items\n", id, a.Cart.TotalItems())
	return nil
}

func cmdUpdate(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: storefront update <item-id> <quantity>")
	}
	itemID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid item id %q", args[0])
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[1])
	}
	return a.Cart.UpdateQuantity(ctx, itemID, qty)
}

func cmdRemove(ctx context.Context, a *app.App, args []string) error {
	id, err := parseID(args, "usage: storefront remove <item-id>")
	if err != nil {
		return err
	}
	return a.Cart.Remove(ctx, id)
}

func cmdCheckout(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	address := fs.String("address", "", "shipping address")
	city := fs.String("city", "", "shipping city")
	postal := fs.String("postal", "", "shipping postal code")
	phone := fs.String("phone", "", "shipping phone")
	payment := fs.String("payment", "cash_on_delivery", "payment method")
	notes := fs.String("notes", "", "order notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.Cart.Fetch(ctx); err != nil {
		return err
	}
	totals := orders.CheckoutTotals(a.Cart.TotalPrice())
	fmt.Printf("subtotal %s, tax %s, estimated total %s\n",
		totals.Subtotal.StringFixed(2), totals.TaxAmount.StringFixed(2), totals.GrandTotal.StringFixed(2))

	order, err := a.Orders.Create(ctx, domainShippingForm(*address, *city, *postal, *phone, *payment, *notes))
	if err != nil {
		return err
	}
	fmt.Printf("order %s created, total %s\n", order.OrderNumber, order.TotalAmount.StringFixed(2))
	return nil
}

func cmdOrders(ctx context.Context, a *app.App) error {
	if err := a.Orders.FetchAll(ctx); err != nil {
		return err
	}
	for _, o := range a.Orders.Orders() {
		fmt.Printf("%4d  %-16s %-12s %-10s %12s\n",
			o.ID, o.OrderNumber, o.Status, o.PaymentStatus, o.TotalAmount.StringFixed(2))
	}
	return nil
}

func cmdOrder(ctx context.Context, a *app.App, args []string) error {
	id, err := parseID(args, "usage: storefront order <id>")
	if err != nil {
		return err
	}
	if err := a.Orders.Fetch(ctx, id); err != nil {
		return err
	}
	o := a.Orders.Current()
	if o == nil {
		return errors.New("order not loaded")
	}
	fmt.Printf("%s  status=%s payment=%s\nsubtotal %s + shipping %s + tax %s = %s\n",
		o.OrderNumber, o.Status, o.PaymentStatus,
		o.Subtotal.StringFixed(2), o.ShippingCost.StringFixed(2),
		o.TaxAmount.StringFixed(2), o.TotalAmount.StringFixed(2))
	return nil
}

func cmdPay(ctx context.Context, a *app.App, args []string) error {
	id, err := parseID(args, "usage: storefront pay <order-id>")
	if err != nil {
		return err
	}
	order, err := a.Orders.Pay(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("order %s payment: %s\n", order.OrderNumber, order.PaymentStatus)
	return nil
}

func cmdAsk(ctx context.Context, a *app.App, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: storefront ask <message>")
	}
	message := strings.Join(args, " ")

	if order, ok, err := a.Assistant.LookupOrder(ctx, message); ok && err == nil {
		fmt.Printf("order %s: status=%s payment=%s\n", order.OrderNumber, order.Status, order.PaymentStatus)
	}
	fmt.Println(a.Assistant.Reply(message))
	return nil
}

func parseID(args []string, usageMsg string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New(usageMsg)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return id, nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: storefront <command> [args]

commands:
  login <email> <password>       sign in and store the token pair
  register <user> <email> <pw>   create an account
  logout                         clear the stored session
  products [--search --category --ordering]
  product <id>
  categories
  cart | add <id> [--qty n] | update <item> <qty> | remove <item> | clear
  checkout --address --city --postal [--phone --payment --notes]
  orders | order <id> | pay <order-id>
  ask <message>                  support assistant`)
}

// startStub serves the in-process API stub on a loopback listener.
func startStub() (stop func(), baseURL string) {
	stub := stubapi.New()
	stub.SeedProducts(seedCategories(), seedProducts())
	stub.SeedUser("demo", "demo@example.com", "demo1234")

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Fatalf("failed to start stub listener: %v", err)
	}
	srv := &http.Server{Handler: stub.Handler()}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("stub server error: %v", err)
		}
	}()
	return func() { _ = srv.Close() }, "http://" + listener.Addr().String()
}
