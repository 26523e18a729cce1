package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"orderdesk/internal/config"
	"orderdesk/internal/database"
	"orderdesk/internal/model"
	"orderdesk/internal/money"
	"orderdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, connects through the
// application pool and applies the embedded schema.
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
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := postgresContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "testuser",
		Password:        "testpass",
		Database:        "testdb",
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	logger := zerolog.Nop()
	pool, err := database.NewPool(ctx, dbConfig, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := database.Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedProducts inserts test product data into the database.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	products := []struct {
		id       string
		name     string
		price    float64
		category string
		stock    int
	}{
		{"P001", "Test Product 1", 25.00, "Category A", 10},
		{"P002", "Test Product 2", 50.00, "Category B", 5},
		{"P003", "Test Product 3", 30.00, "Category A", 0},
		{"P004", "Test Product 4", 40.00, "Category C", 3},
		{"P005", "Test Product 5", 50.00, "Category B", 1},
	}

	for _, p := range products {
		_, err := pool.Exec(ctx,
			"INSERT INTO products (id, name, price, category, stock) VALUES ($1, $2, $3, $4, $5)",
			p.id, p.name, p.price, p.category, p.stock,
		)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.id, err)
		}
	}
}

// OrderOption customises a seeded order.
type OrderOption func(*model.Order)

// WithPickup puts the order on the pickup track.
func WithPickup() OrderOption {
	return func(o *model.Order) {
		o.DeliveryMethod = model.DeliveryMethodPickup
		o.DeliveryFee = nil
	}
}

// WithPayment sets the payment method.
func WithPayment(paymentType, transactionID string) OrderOption {
	return func(o *model.Order) {
		o.PaymentMethod = model.PaymentMethod{Type: paymentType, TransactionID: transactionID}
	}
}

// WithCoupon attaches a discount code.
func WithCoupon(code string) OrderOption {
	return func(o *model.Order) { o.CouponCode = &code }
}

// WithReadyItems marks every item ready.
func WithReadyItems() OrderOption {
	return func(o *model.Order) {
		for i := range o.Items {
			o.Items[i].IsReady = true
		}
	}
}

// SeedOrder inserts a card-paid delivery order over P001 (x2) and P002 (x1)
// with a 10.00 delivery fee: 100.00 subtotal, 110.00 total.
func SeedOrder(t *testing.T, repo repository.OrderRepository, opts ...OrderOption) *model.Order {
	t.Helper()

	ctx := context.Background()
	id := uuid.New()
	fee := money.MajorAmount(10)
	now := time.Now().UTC().Truncate(time.Microsecond)
	order := &model.Order{
		ID:             id,
		Amount:         10000,
		DeliveryFee:    &fee,
		Currency:       "USD",
		Status:         model.StatusOpen,
		DeliveryMethod: model.DeliveryMethodDelivery,
		PaymentMethod:  model.PaymentMethod{Type: model.PaymentTypeCard, TransactionID: "pi_" + id.String()[:8]},
		Items: []model.OrderItem{
			{ID: uuid.New(), OrderID: id, ProductID: "P001", Name: "Test Product 1", Price: 25, Quantity: 2},
			{ID: uuid.New(), OrderID: id, ProductID: "P002", Name: "Test Product 2", Price: 50, Quantity: 1},
		},
		Refunds:   []model.Refund{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(order)
	}

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	if err := repo.CreateOrder(ctx, tx, order); err != nil {
		_ = tx.Rollback(ctx)
		t.Fatalf("failed to seed order: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("failed to commit seeded order: %v", err)
	}
	return order
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"refunds", "order_items", "orders", "products"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
