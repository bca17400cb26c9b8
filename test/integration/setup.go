// Package integration exercises the whole HTTP stack against a real
// PostgreSQL container.
package integration

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"bookstore/internal/config"
	"bookstore/internal/database"
	"bookstore/internal/handler"
	"bookstore/internal/model"
	"bookstore/internal/notify"
	"bookstore/internal/payment"
	"bookstore/internal/repository"
	"bookstore/internal/router"
	"bookstore/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testAdminCode   = "admin-secret"
	testFrontendURL = "http://shop.test"
	testAPIURL      = "http://api.test"
	testPayUKey     = "payukey"
	testPayUSalt    = "payusalt"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, applies the schema and
// returns a connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedBooks inserts the catalogue used by the scenarios and returns the
// generated ids in insertion order.
func SeedBooks(t *testing.T, pool *pgxpool.Pool) []int64 {
	t.Helper()

	ctx := context.Background()

	books := []struct {
		title  string
		author string
		price  string
	}{
		{"The Guide", "R. K. Narayan", "100.00"},
		{"Train to Pakistan", "Khushwant Singh", "50.00"},
		{"Godaan", "Premchand", "75.50"},
	}

	ids := make([]int64, 0, len(books))
	for _, b := range books {
		var id int64
		err := pool.QueryRow(ctx,
			"INSERT INTO books (title, author, price) VALUES ($1, $2, $3) RETURNING id",
			b.title, b.author, decimal.RequireFromString(b.price),
		).Scan(&id)
		if err != nil {
			t.Fatalf("failed to seed book %q: %v", b.title, err)
		}
		ids = append(ids, id)
	}
	return ids
}

// recordingNotifier keeps every published event.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(ctx context.Context, event notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) Close() error { return nil }

func (n *recordingNotifier) Events() []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Event(nil), n.events...)
}

// payuConfig returns a PayU configuration with test credentials.
func payuConfig() config.PaymentConfig {
	return config.PaymentConfig{
		Gateway:            config.GatewayPayU,
		APIURL:             testAPIURL,
		FrontendURL:        testFrontendURL,
		TimeoutSeconds:     5,
		ReuseWindowMinutes: 30,
		PayU: config.PayUConfig{
			MerchantKey:  testPayUKey,
			MerchantSalt: testPayUSalt,
			Mode:         "test",
		},
	}
}

// setupTestServer wires the production stack on top of the test database.
func setupTestServer(t *testing.T, testDB *TestDB, cfg config.PaymentConfig) (http.Handler, *recordingNotifier) {
	t.Helper()

	logger := zerolog.Nop()

	bookRepo := repository.NewBookRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)

	gateway, err := payment.New(cfg, &http.Client{Timeout: cfg.Timeout()}, logger)
	if err != nil {
		t.Fatalf("failed to create gateway: %v", err)
	}
	notifier := &recordingNotifier{}

	bookService := service.NewBookService(bookRepo, logger)
	orderService := service.NewOrderService(orderRepo, bookRepo, logger)
	checkoutService := service.NewCheckoutService(orderService, orderRepo, gateway, notifier, cfg.ReuseWindow(), logger)

	return router.New(router.Handlers{
		Books:    handler.NewBookHandler(bookService, logger),
		Orders:   handler.NewOrderHandler(orderService, logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, logger),
		Payments: handler.NewPaymentHandler(checkoutService, cfg.FrontendURL, logger),
		Assets:   handler.NewAssetHandler(nil, logger),
	}, router.Options{
		AdminCode:      testAdminCode,
		AllowedOrigins: []string{"*"},
	}, logger), notifier
}

// checkoutRequest builds a valid checkout body for the seeded books.
func checkoutRequest(email string, bookIDs []int64) model.OrderRequest {
	return model.OrderRequest{
		Items: []model.OrderItemRequest{
			{BookID: bookIDs[0], Quantity: 2, Price: decimal.NewFromInt(100)},
			{BookID: bookIDs[1], Quantity: 1, Price: decimal.NewFromInt(50)},
		},
		ShippingAddress: model.ShippingAddress{
			RecipientName: "Asha Rao",
			Street:        "12 MG Road",
			City:          "Bengaluru",
			State:         "Karnataka",
			PostalCode:    "560001",
			Country:       "India",
		},
		CustomerName:  "Asha Rao",
		CustomerEmail: email,
		CustomerPhone: "9999999999",
	}
}
